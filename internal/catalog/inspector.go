// Package catalog reads Firebird system tables: generators, the triggers
// that feed primary keys, and table metadata.
package catalog

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/model"
	"github.com/rzpsarthak13/orius/internal/schema"
)

const generatorsSQL = `SELECT TRIM(RDB$GENERATOR_NAME) AS GENERATOR_NAME, RDB$GENERATOR_ID AS ID
FROM RDB$GENERATORS
WHERE RDB$SYSTEM_FLAG = 0
ORDER BY RDB$GENERATOR_NAME`

// Trigger type 1 is BEFORE INSERT.
const triggersSQL = `SELECT TRIM(RDB$TRIGGER_NAME) AS TRIGGER_NAME, RDB$TRIGGER_SOURCE AS SOURCE
FROM RDB$TRIGGERS
WHERE RDB$RELATION_NAME = ?
  AND RDB$TRIGGER_TYPE = 1
  AND RDB$TRIGGER_INACTIVE = 0`

var generatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)NEXT\s+VALUE\s+FOR\s+([a-zA-Z0-9_$]+)`),
	regexp.MustCompile(`(?i)GEN_ID\s*\(\s*([a-zA-Z0-9_$]+)`),
}

// Generator is a user-defined sequence.
type Generator struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Trigger is an active BEFORE INSERT trigger.
type Trigger struct {
	Name   string `json:"name"`
	Source string `json:"source"`

	// Generator is the sequence the trigger draws from, if one was found.
	Generator string `json:"generator,omitempty"`
}

// Inspector queries the system catalog through a connection facade.
type Inspector struct {
	db     core.Facade
	mapper *schema.TypeMapper
}

// NewInspector creates an inspector.
func NewInspector(db core.Facade) *Inspector {
	return &Inspector{db: db, mapper: schema.NewTypeMapper()}
}

// Generators lists user generators ordered by name.
func (in *Inspector) Generators(ctx context.Context) ([]Generator, error) {
	rows, err := in.query(ctx, generatorsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list generators: %w", err)
	}

	generators := make([]Generator, 0, len(rows))
	for _, row := range rows {
		generators = append(generators, Generator{
			Name: in.text(row["GENERATOR_NAME"]),
			ID:   in.integer(row["ID"]),
		})
	}
	log.Printf("[CATALOG] Found %d generator(s)", len(generators))
	return generators, nil
}

// SuggestGenerators returns the generators whose name mentions table
// (without a T_ prefix) or GEN.
func SuggestGenerators(generators []Generator, table string) []Generator {
	stem := strings.TrimPrefix(strings.ToUpper(table), "T_")
	var out []Generator
	for _, g := range generators {
		name := strings.ToUpper(g.Name)
		if (stem != "" && strings.Contains(name, stem)) || strings.Contains(name, "GEN") {
			out = append(out, g)
		}
	}
	return out
}

// TriggerGenerator finds the active BEFORE INSERT triggers of table and
// the generator each one uses.
func (in *Inspector) TriggerGenerator(ctx context.Context, table string) ([]Trigger, error) {
	if !core.IsIdentifier(table) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidIdentifier, table)
	}
	name := strings.ToUpper(table)

	rows, err := in.query(ctx, triggersSQL, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list triggers of %s: %w", name, err)
	}

	triggers := make([]Trigger, 0, len(rows))
	for _, row := range rows {
		tr := Trigger{
			Name:   in.text(row["TRIGGER_NAME"]),
			Source: in.text(row["SOURCE"]),
		}
		tr.Generator = GeneratorFromSource(tr.Source)
		triggers = append(triggers, tr)
	}
	log.Printf("[CATALOG] Found %d active BEFORE INSERT trigger(s) on %s", len(triggers), name)
	return triggers, nil
}

// GeneratorFromSource extracts the generator named by NEXT VALUE FOR or
// GEN_ID in trigger source, upper-cased. It returns "" when there is none.
func GeneratorFromSource(source string) string {
	for _, re := range generatorPatterns {
		if m := re.FindStringSubmatch(source); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// query executes sql and materializes blob values such as trigger source.
func (in *Inspector) query(ctx context.Context, sql string, args ...interface{}) ([]core.Row, error) {
	rows, err := in.db.Execute(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return model.HydrateAll(ctx, nil, rows, 0)
}

func (in *Inspector) text(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func (in *Inspector) integer(v interface{}) int64 {
	n, _ := in.mapper.Normalize(core.KindBigInt, v).(int64)
	return n
}
