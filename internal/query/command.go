package query

import (
	"fmt"
	"strings"

	"github.com/rzpsarthak13/orius/internal/core"
)

// Assignment is one column/value pair of an INSERT or UPDATE.
type Assignment struct {
	Column string
	Value  interface{}
}

// Values is an ordered list of assignments.
type Values []Assignment

// Set returns the list extended with one more assignment.
func (v Values) Set(column string, value interface{}) Values {
	return append(v, Assignment{Column: column, Value: value})
}

// BuildInsert builds an INSERT ... RETURNING * statement. Every assignment
// becomes a column, in order; no filtering against a schema happens here.
func BuildInsert(table TableRef, values Values) (Fragment, error) {
	tableName, err := resolveTable(table)
	if err != nil {
		return Fragment{}, err
	}
	if len(values) == 0 {
		return Fragment{}, fmt.Errorf("%w: no columns to insert into %s", core.ErrInvalidValue, tableName)
	}

	columns := make([]string, 0, len(values))
	args := make([]interface{}, 0, len(values))
	for _, a := range values {
		col, err := identifier(a.Column)
		if err != nil {
			return Fragment{}, err
		}
		columns = append(columns, col)
		args = append(args, a.Value)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		tableName,
		strings.Join(columns, ", "),
		placeholders(len(columns)),
	)
	return Fragment{SQL: query, Args: args}, nil
}

// BuildUpdate builds an UPDATE ... RETURNING * statement. The WHERE clause
// is unaliased. Bound values are the SET values followed by the WHERE values.
func BuildUpdate(table TableRef, values Values, filter Filter) (Fragment, error) {
	tableName, err := resolveTable(table)
	if err != nil {
		return Fragment{}, err
	}
	if len(values) == 0 {
		return Fragment{}, fmt.Errorf("%w: no columns to update in %s", core.ErrNothingToUpdate, tableName)
	}

	setParts := make([]string, 0, len(values))
	args := make([]interface{}, 0, len(values)+len(filter))
	for _, a := range values {
		col, err := identifier(a.Column)
		if err != nil {
			return Fragment{}, err
		}
		setParts = append(setParts, col+" = ?")
		args = append(args, a.Value)
	}

	where, err := BuildWhere(filter, "")
	if err != nil {
		return Fragment{}, err
	}
	args = append(args, where.Args...)

	query := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", tableName, strings.Join(setParts, ", "), where.SQL)
	return Fragment{SQL: query, Args: args}, nil
}

// BuildDelete builds a DELETE statement with an unaliased WHERE clause.
func BuildDelete(table TableRef, filter Filter) (Fragment, error) {
	tableName, err := resolveTable(table)
	if err != nil {
		return Fragment{}, err
	}
	where, err := BuildWhere(filter, "")
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: "DELETE FROM " + tableName + where.SQL, Args: where.Args}, nil
}

// NextValueColumn is the result column of BuildNextValue.
const NextValueColumn = "NEXT_VALUE"

// BuildNextValue reads the next value of a sequence (generator).
func BuildNextValue(sequence string) (Fragment, error) {
	seq, err := identifier(sequence)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: fmt.Sprintf("SELECT NEXT VALUE FOR %s AS %s FROM RDB$DATABASE", seq, NextValueColumn)}, nil
}

// MaxIDColumn is the result column of BuildMaxID.
const MaxIDColumn = "MAX_ID"

// BuildMaxID reads the current maximum of column in table.
func BuildMaxID(table TableRef, column string) (Fragment, error) {
	tableName, err := resolveTable(table)
	if err != nil {
		return Fragment{}, err
	}
	col, err := identifier(column)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: fmt.Sprintf("SELECT MAX(%s) AS %s FROM %s", col, MaxIDColumn, tableName)}, nil
}
