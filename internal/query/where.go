package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rzpsarthak13/orius/internal/core"
)

// BuildWhere compiles filter into a WHERE clause scoped to alias.
// An empty alias leaves columns unqualified. An empty filter yields an
// empty fragment, keyword included; otherwise the fragment starts with
// " WHERE ".
//
// Shapes that cannot be compiled are rejected with ErrMalformedCondition:
// a list given as a plain value, a BETWEEN operand that is not a pair,
// an empty or non-list IN/NOT IN operand, and the reserved AND/OR operators.
func BuildWhere(filter Filter, alias string) (Fragment, error) {
	if len(filter) == 0 {
		return Fragment{}, nil
	}

	prefix := ""
	if alias != "" {
		a, err := identifier(alias)
		if err != nil {
			return Fragment{}, err
		}
		prefix = a + "."
	}

	parts := make([]string, 0, len(filter))
	args := make([]interface{}, 0, len(filter))

	for _, term := range filter {
		name, err := identifier(term.Column)
		if err != nil {
			return Fragment{}, err
		}
		column := prefix + name

		cond, isCond := asCondition(term.Value)
		if !isCond {
			if isNull(term.Value) {
				parts = append(parts, column+" IS NULL")
				continue
			}
			if isList(term.Value) {
				return Fragment{}, fmt.Errorf("%w: column %s: list value %T needs In, NotIn or Between", core.ErrMalformedCondition, name, term.Value)
			}
			parts = append(parts, column+" = ?")
			args = append(args, term.Value)
			continue
		}

		part, condArgs, err := compileCondition(column, cond)
		if err != nil {
			return Fragment{}, fmt.Errorf("column %s: %w", name, err)
		}
		parts = append(parts, part)
		args = append(args, condArgs...)
	}

	return Fragment{
		SQL:  " WHERE " + strings.Join(parts, " AND "),
		Args: args,
	}, nil
}

func compileCondition(column string, cond Condition) (string, []interface{}, error) {
	if cond.Op.Reserved() {
		return "", nil, fmt.Errorf("%w: operator %s is reserved", core.ErrMalformedCondition, cond.Op)
	}
	if cond.Op.SQL() == "" {
		return "", nil, fmt.Errorf("%w: unknown operator %d", core.ErrMalformedCondition, int(cond.Op))
	}

	if isNull(cond.Operand) {
		if cond.Op == OpEq {
			return column + " IS NULL", nil, nil
		}
		return column + " IS NOT NULL", nil, nil
	}

	switch {
	case cond.Op == OpBetween:
		bounds, ok := listValues(cond.Operand)
		if !ok || len(bounds) != 2 {
			return "", nil, fmt.Errorf("%w: BETWEEN needs exactly two bounds, got %T", core.ErrMalformedCondition, cond.Operand)
		}
		return column + " BETWEEN ? AND ?", bounds, nil

	case cond.Op.isSet():
		members, ok := listValues(cond.Operand)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s needs a list, got %T", core.ErrMalformedCondition, cond.Op, cond.Operand)
		}
		if len(members) == 0 {
			return "", nil, fmt.Errorf("%w: %s list is empty", core.ErrMalformedCondition, cond.Op)
		}
		return fmt.Sprintf("%s %s (%s)", column, cond.Op.SQL(), placeholders(len(members))), members, nil

	default:
		if isList(cond.Operand) {
			return "", nil, fmt.Errorf("%w: %s does not take a list", core.ErrMalformedCondition, cond.Op)
		}
		return fmt.Sprintf("%s %s ?", column, cond.Op.SQL()), []interface{}{cond.Operand}, nil
	}
}

func asCondition(v interface{}) (Condition, bool) {
	switch c := v.(type) {
	case Condition:
		return c, true
	case *Condition:
		if c == nil {
			return Condition{}, false
		}
		return *c, true
	default:
		return Condition{}, false
	}
}

// isNull treats nil interfaces and nil pointers as SQL NULL.
func isNull(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// isList reports whether v is a slice, array or map other than a byte slice.
func isList(v interface{}) bool {
	if _, ok := v.([]byte); ok {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

// listValues flattens any slice or array except []byte into []interface{}.
func listValues(v interface{}) ([]interface{}, bool) {
	if vs, ok := v.([]interface{}); ok {
		return vs, true
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
