package query

import (
	"fmt"
	"strings"

	"github.com/rzpsarthak13/orius/internal/core"
)

const primaryAlias = "T1"

// BuildSelect compiles q against table. The primary table is aliased T1;
// joins are aliased J1, J2, ... unless Include.As is set. Only WHERE
// values are bound; ordering, pagination and joins are inlined after
// validation.
func BuildSelect(table TableRef, q *Query) (Fragment, error) {
	if q == nil {
		q = &Query{}
	}

	tableName, err := resolveTable(table)
	if err != nil {
		return Fragment{}, err
	}

	projection, err := projectColumns(primaryAlias, q.Attributes, false)
	if err != nil {
		return Fragment{}, err
	}

	var joins strings.Builder
	for i, inc := range q.Include {
		joinSQL, cols, err := buildJoin(i, inc)
		if err != nil {
			return Fragment{}, fmt.Errorf("include %d: %w", i+1, err)
		}
		joins.WriteString(joinSQL)
		projection += ", " + cols
	}

	where, err := BuildWhere(q.Where, primaryAlias)
	if err != nil {
		return Fragment{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s %s", projection, tableName, primaryAlias)
	sb.WriteString(joins.String())
	sb.WriteString(where.SQL)

	if len(q.Order) > 0 {
		terms := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			col, err := identifier(o.Column)
			if err != nil {
				return Fragment{}, err
			}
			dir, err := direction(o.Direction)
			if err != nil {
				return Fragment{}, err
			}
			terms = append(terms, fmt.Sprintf("%s.%s %s", primaryAlias, col, dir))
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}

	if q.Offset != nil {
		if *q.Offset < 0 {
			return Fragment{}, fmt.Errorf("%w: negative offset %d", core.ErrMalformedCondition, *q.Offset)
		}
		fmt.Fprintf(&sb, " OFFSET %d ROWS", *q.Offset)
	}
	if q.Limit != nil {
		if *q.Limit < 0 {
			return Fragment{}, fmt.Errorf("%w: negative limit %d", core.ErrMalformedCondition, *q.Limit)
		}
		fmt.Fprintf(&sb, " FETCH FIRST %d ROWS ONLY", *q.Limit)
	}

	return Fragment{SQL: sb.String(), Args: where.Args}, nil
}

// BuildCount compiles SELECT COUNT(*) AS TOTAL over table with the same
// WHERE semantics as BuildSelect.
func BuildCount(table TableRef, filter Filter) (Fragment, error) {
	tableName, err := resolveTable(table)
	if err != nil {
		return Fragment{}, err
	}
	where, err := BuildWhere(filter, primaryAlias)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{
		SQL:  fmt.Sprintf("SELECT COUNT(*) AS TOTAL FROM %s %s%s", tableName, primaryAlias, where.SQL),
		Args: where.Args,
	}, nil
}

func buildJoin(i int, inc Include) (string, string, error) {
	alias := fmt.Sprintf("J%d", i+1)
	if inc.As != "" {
		a, err := identifier(inc.As)
		if err != nil {
			return "", "", err
		}
		alias = a
	}

	var (
		joinTable string
		err       error
	)
	if inc.Model != nil {
		joinTable, err = resolveTable(inc.Model)
	} else {
		joinTable, err = identifier(inc.Table)
	}
	if err != nil {
		return "", "", err
	}

	local, err := identifier(inc.On[0])
	if err != nil {
		return "", "", err
	}
	foreign, err := identifier(inc.On[1])
	if err != nil {
		return "", "", err
	}

	cols, err := projectColumns(alias, inc.Attributes, true)
	if err != nil {
		return "", "", err
	}

	joinSQL := fmt.Sprintf(" LEFT JOIN %s %s ON %s.%s = %s.%s", joinTable, alias, primaryAlias, local, alias, foreign)
	return joinSQL, cols, nil
}

// projectColumns renders alias.COL for each column, or alias.* when none
// are given. Joined columns are renamed to ALIAS_COL.
func projectColumns(alias string, columns []string, rename bool) (string, error) {
	if len(columns) == 0 {
		return alias + ".*", nil
	}
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		col, err := identifier(c)
		if err != nil {
			return "", err
		}
		if rename {
			out = append(out, fmt.Sprintf("%s.%s AS %s_%s", alias, col, alias, col))
		} else {
			out = append(out, alias+"."+col)
		}
	}
	return strings.Join(out, ", "), nil
}

func direction(d Direction) (Direction, error) {
	switch Direction(strings.ToUpper(string(d))) {
	case "", Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	default:
		return "", fmt.Errorf("%w: sort direction %q", core.ErrMalformedCondition, d)
	}
}
