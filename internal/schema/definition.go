package schema

import (
	"fmt"

	"github.com/rzpsarthak13/orius/internal/core"
)

// Definition is the declarative form of a schema descriptor, as written in
// YAML or JSON configuration.
type Definition struct {
	Table   string             `yaml:"table" json:"table"`
	Columns []ColumnDefinition `yaml:"columns" json:"columns"`
}

// ColumnDefinition is the declarative form of a column.
type ColumnDefinition struct {
	Name          string      `yaml:"name" json:"name"`
	Type          string      `yaml:"type" json:"type"`
	PrimaryKey    bool        `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	AutoIncrement bool        `yaml:"auto_increment,omitempty" json:"auto_increment,omitempty"`
	Sequence      string      `yaml:"sequence,omitempty" json:"sequence,omitempty"`
	Nullable      bool        `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Default       interface{} `yaml:"default,omitempty" json:"default,omitempty"`
}

// Build turns the definition into an immutable schema.
func (d Definition) Build() (*core.Schema, error) {
	columns := make([]core.Column, 0, len(d.Columns))
	for _, cd := range d.Columns {
		kind, err := core.ParseDataKind(cd.Type)
		if err != nil {
			return nil, fmt.Errorf("table %s column %s: %w", d.Table, cd.Name, err)
		}
		columns = append(columns, core.Column{
			Name:          cd.Name,
			Kind:          kind,
			PrimaryKey:    cd.PrimaryKey,
			AutoIncrement: cd.AutoIncrement,
			Sequence:      cd.Sequence,
			Nullable:      cd.Nullable,
			Default:       cd.Default,
		})
	}
	return core.NewSchema(d.Table, columns...)
}

// DefinitionOf renders a schema back into its declarative form.
func DefinitionOf(s *core.Schema) Definition {
	def := Definition{Table: s.Table()}
	for _, col := range s.Columns() {
		def.Columns = append(def.Columns, ColumnDefinition{
			Name:          col.Name,
			Type:          col.Kind.String(),
			PrimaryKey:    col.PrimaryKey,
			AutoIncrement: col.AutoIncrement,
			Sequence:      col.Sequence,
			Nullable:      col.Nullable,
			Default:       col.Default,
		})
	}
	return def
}
