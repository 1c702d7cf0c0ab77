package schema

import (
	"fmt"
	"strings"

	"github.com/rzpsarthak13/orius/internal/core"
)

// SchemaValidator checks record values against a schema descriptor.
type SchemaValidator struct {
	schema *core.Schema
	mapper *TypeMapper
}

// NewSchemaValidator creates a new schema validator.
func NewSchemaValidator(schema *core.Schema) *SchemaValidator {
	return &SchemaValidator{
		schema: schema,
		mapper: NewTypeMapper(),
	}
}

// ValidateValue checks that value may be assigned to column and returns the
// canonical column name together with the coerced value.
func (sv *SchemaValidator) ValidateValue(column string, value interface{}) (string, interface{}, error) {
	if sv.schema == nil {
		return "", nil, fmt.Errorf("schema cannot be nil")
	}

	col, ok := sv.schema.Column(column)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s.%s", core.ErrUnknownColumn, sv.schema.Table(), strings.ToUpper(column))
	}

	coerced, err := sv.mapper.Coerce(col.Kind, value)
	if err != nil {
		return "", nil, fmt.Errorf("column %s (%s): %w", col.Name, col.Kind, err)
	}
	return col.Name, coerced, nil
}

// ValidateRecord validates every entry of record and returns a new map keyed
// by canonical column names holding the coerced values.
func (sv *SchemaValidator) ValidateRecord(record map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(record))
	for name, value := range record {
		col, coerced, err := sv.ValidateValue(name, value)
		if err != nil {
			return nil, err
		}
		out[col] = coerced
	}
	return out, nil
}

// NormalizeRow converts the declared columns of a hydrated database row to
// their canonical shapes. Undeclared columns, such as joined ones, are kept
// as they are.
func (sv *SchemaValidator) NormalizeRow(row core.Row) core.Row {
	out := make(core.Row, len(row))
	for name, value := range row {
		if col, ok := sv.schema.Column(name); ok {
			out[name] = sv.mapper.Normalize(col.Kind, value)
			continue
		}
		out[name] = value
	}
	return out
}
