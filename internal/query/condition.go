package query

// Condition pairs an operator with its operand.
// BETWEEN takes a two-element list, IN and NOT IN take a list.
type Condition struct {
	Op      Operator
	Operand interface{}
}

// Eq matches column = v, or IS NULL when v is nil.
func Eq(v interface{}) Condition { return Condition{Op: OpEq, Operand: v} }

// Ne matches column <> v, or IS NOT NULL when v is nil.
func Ne(v interface{}) Condition { return Condition{Op: OpNe, Operand: v} }

// Gt matches column > v.
func Gt(v interface{}) Condition { return Condition{Op: OpGt, Operand: v} }

// Gte matches column >= v.
func Gte(v interface{}) Condition { return Condition{Op: OpGte, Operand: v} }

// Lt matches column < v.
func Lt(v interface{}) Condition { return Condition{Op: OpLt, Operand: v} }

// Lte matches column <= v.
func Lte(v interface{}) Condition { return Condition{Op: OpLte, Operand: v} }

// Like matches column LIKE pattern.
func Like(pattern string) Condition { return Condition{Op: OpLike, Operand: pattern} }

// NotLike matches column NOT LIKE pattern.
func NotLike(pattern string) Condition { return Condition{Op: OpNotLike, Operand: pattern} }

// In matches column IN (values...).
func In(values ...interface{}) Condition { return Condition{Op: OpIn, Operand: values} }

// NotIn matches column NOT IN (values...).
func NotIn(values ...interface{}) Condition { return Condition{Op: OpNotIn, Operand: values} }

// Between matches column BETWEEN low AND high. The bounds are bound in the
// given order; they are not swapped when low > high.
func Between(low, high interface{}) Condition {
	return Condition{Op: OpBetween, Operand: []interface{}{low, high}}
}

// Term is one filter entry. Value is either a plain value, compiled as
// equality, or a Condition.
type Term struct {
	Column string
	Value  interface{}
}

// Filter is an ordered list of terms, combined with AND.
// Order matters: bound values follow the order of the terms.
type Filter []Term

// Where starts a filter with one term.
func Where(column string, value interface{}) Filter {
	return Filter{{Column: column, Value: value}}
}

// And returns the filter extended with one more term.
func (f Filter) And(column string, value interface{}) Filter {
	out := make(Filter, len(f), len(f)+1)
	copy(out, f)
	return append(out, Term{Column: column, Value: value})
}
