package core

import (
	"fmt"
	"regexp"
	"strings"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// IsIdentifier reports whether name can be inlined into SQL text as a
// table, column, alias or sequence name.
func IsIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

// NormalizeName returns the form under which table, column and sequence
// names are stored.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Column describes one column of a record type.
type Column struct {
	// Name is the column name. It is upper-cased when the schema is built.
	Name string

	// Kind is the declared data kind of the column.
	Kind DataKind

	// PrimaryKey marks the column that identifies a row.
	PrimaryKey bool

	// AutoIncrement marks a column whose value is resolved on insert when
	// the caller did not supply one.
	AutoIncrement bool

	// Sequence is the generator read for AutoIncrement columns.
	// When empty, MAX(column)+1 is used instead.
	Sequence string

	// Nullable indicates whether the column accepts NULL.
	Nullable bool

	// Default is the declared default value, if any. Informational only:
	// defaults are applied by the database and flow back through RETURNING.
	Default interface{}
}

// Schema is the immutable descriptor of a record type: its table, its
// primary key and its columns. Build one with NewSchema.
type Schema struct {
	table      string
	primaryKey string
	columns    []Column
	index      map[string]int
}

// NewSchema builds a schema for table from the given columns.
// Exactly one column must be flagged as primary key.
func NewSchema(table string, columns ...Column) (*Schema, error) {
	table = NormalizeName(table)
	if table == "" {
		return nil, fmt.Errorf("%w: table name cannot be empty", ErrInvalidSchema)
	}
	if !IsIdentifier(table) {
		return nil, fmt.Errorf("%w: table name %q", ErrInvalidSchema, table)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %s has no columns", ErrInvalidSchema, table)
	}

	s := &Schema{
		table:   table,
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for _, col := range columns {
		col.Name = NormalizeName(col.Name)
		col.Sequence = NormalizeName(col.Sequence)

		if !IsIdentifier(col.Name) {
			return nil, fmt.Errorf("%w: column name %q in table %s", ErrInvalidSchema, col.Name, table)
		}
		if !col.Kind.Valid() {
			return nil, fmt.Errorf("%w: column %s has no data kind", ErrInvalidSchema, col.Name)
		}
		if _, dup := s.index[col.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %s in table %s", ErrInvalidSchema, col.Name, table)
		}
		if col.Sequence != "" {
			if !col.AutoIncrement {
				return nil, fmt.Errorf("%w: column %s declares sequence %s but is not auto-increment", ErrInvalidSchema, col.Name, col.Sequence)
			}
			if !IsIdentifier(col.Sequence) {
				return nil, fmt.Errorf("%w: sequence name %q", ErrInvalidSchema, col.Sequence)
			}
		}
		if col.PrimaryKey {
			if s.primaryKey != "" {
				return nil, fmt.Errorf("%w: table %s declares primary keys %s and %s", ErrInvalidSchema, table, s.primaryKey, col.Name)
			}
			s.primaryKey = col.Name
		}

		s.index[col.Name] = len(s.columns)
		s.columns = append(s.columns, col)
	}

	if s.primaryKey == "" {
		return nil, fmt.Errorf("%w: table %s has no primary key", ErrInvalidSchema, table)
	}

	return s, nil
}

// MustSchema is like NewSchema but panics on error.
// Intended for package-level model declarations.
func MustSchema(table string, columns ...Column) *Schema {
	s, err := NewSchema(table, columns...)
	if err != nil {
		panic(err)
	}
	return s
}

// Table returns the upper-cased table name.
func (s *Schema) Table() string {
	return s.table
}

// PrimaryKey returns the primary key column name.
func (s *Schema) PrimaryKey() string {
	return s.primaryKey
}

// Columns returns a copy of the column definitions in declaration order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Column looks a column up by name, case-insensitively.
func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.index[strings.ToUpper(name)]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// AutoIncrementColumns returns the auto-increment columns in declaration order.
func (s *Schema) AutoIncrementColumns() []Column {
	var out []Column
	for _, col := range s.columns {
		if col.AutoIncrement {
			out = append(out, col)
		}
	}
	return out
}
