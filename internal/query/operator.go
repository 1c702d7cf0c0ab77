package query

// Operator is a comparison operator usable in a filter condition.
type Operator int

const (
	opInvalid Operator = iota

	OpEq      // column = value
	OpNe      // column <> value
	OpGt      // column > value
	OpGte     // column >= value
	OpLt      // column < value
	OpLte     // column <= value
	OpLike    // column LIKE pattern
	OpNotLike // column NOT LIKE pattern
	OpIn      // column IN (v1, v2, ...)
	OpNotIn   // column NOT IN (v1, v2, ...)
	OpBetween // column BETWEEN low AND high

	// OpAnd and OpOr are reserved for grouped expressions and are rejected
	// by the where-clause translator.
	OpAnd
	OpOr
)

var operatorSQL = map[Operator]string{
	OpEq:      "=",
	OpNe:      "<>",
	OpGt:      ">",
	OpGte:     ">=",
	OpLt:      "<",
	OpLte:     "<=",
	OpLike:    "LIKE",
	OpNotLike: "NOT LIKE",
	OpIn:      "IN",
	OpNotIn:   "NOT IN",
	OpBetween: "BETWEEN",
	OpAnd:     "AND",
	OpOr:      "OR",
}

// SQL returns the operator as it appears in SQL text.
func (op Operator) SQL() string {
	return operatorSQL[op]
}

// String implements fmt.Stringer.
func (op Operator) String() string {
	if s, ok := operatorSQL[op]; ok {
		return s
	}
	return "INVALID"
}

// Reserved reports whether the operator is declared but not compilable.
func (op Operator) Reserved() bool {
	return op == OpAnd || op == OpOr
}

// isSet reports whether the operator takes a list operand.
func (op Operator) isSet() bool {
	return op == OpIn || op == OpNotIn
}
