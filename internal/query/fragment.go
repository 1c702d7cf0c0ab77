// Package query translates query descriptions into parameterized SQL for
// the Firebird dialect. Every builder returns the SQL text and its bound
// values together, in placeholder order.
package query

import (
	"fmt"
	"strings"

	"github.com/rzpsarthak13/orius/internal/core"
)

// Fragment is SQL text with the values bound to its "?" placeholders,
// in left-to-right order.
type Fragment struct {
	SQL  string
	Args []interface{}
}

// Empty reports whether the fragment carries no SQL.
func (f Fragment) Empty() bool {
	return f.SQL == ""
}

// TableRef is anything that names a table. *core.Schema implements it.
type TableRef interface {
	Table() string
}

// Name is a literal table name.
type Name string

// Table implements TableRef.
func (n Name) Table() string {
	return string(n)
}

// resolveTable returns the upper-cased, validated table name of ref.
func resolveTable(ref TableRef) (string, error) {
	if ref == nil {
		return "", fmt.Errorf("%w: table reference is nil", core.ErrInvalidIdentifier)
	}
	return identifier(ref.Table())
}

// identifier upper-cases name and checks it can be inlined into SQL.
func identifier(name string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if !core.IsIdentifier(upper) {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidIdentifier, name)
	}
	return upper, nil
}

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
