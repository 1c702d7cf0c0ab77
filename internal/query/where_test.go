package query

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/orius/internal/core"
)

func TestBuildWhere_Empty(t *testing.T) {
	frag, err := BuildWhere(nil, "T1")
	require.NoError(t, err)
	assert.True(t, frag.Empty())
	assert.Empty(t, frag.Args)

	frag, err = BuildWhere(Filter{}, "")
	require.NoError(t, err)
	assert.Equal(t, "", frag.SQL)
}

func TestBuildWhere_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		filter   Filter
		alias    string
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "scalar equality is upper-cased and aliased",
			filter:   Where("protocolo", 9999),
			alias:    "T1",
			wantSQL:  " WHERE T1.PROTOCOLO = ?",
			wantArgs: []interface{}{9999},
		},
		{
			name:     "no alias",
			filter:   Where("ATO_ID", int64(7)),
			alias:    "",
			wantSQL:  " WHERE ATO_ID = ?",
			wantArgs: []interface{}{int64(7)},
		},
		{
			name:    "nil scalar",
			filter:  Where("OBSERVACAO", nil),
			alias:   "T1",
			wantSQL: " WHERE T1.OBSERVACAO IS NULL",
		},
		{
			name:    "eq nil",
			filter:  Where("OBSERVACAO", Eq(nil)),
			alias:   "T1",
			wantSQL: " WHERE T1.OBSERVACAO IS NULL",
		},
		{
			name:    "ne nil",
			filter:  Where("OBSERVACAO", Ne(nil)),
			alias:   "T1",
			wantSQL: " WHERE T1.OBSERVACAO IS NOT NULL",
		},
		{
			name:    "other operators with nil are IS NOT NULL",
			filter:  Where("VALOR_PAGAMENTO", Gt(nil)),
			alias:   "T1",
			wantSQL: " WHERE T1.VALOR_PAGAMENTO IS NOT NULL",
		},
		{
			name:     "comparison operators",
			filter:   Where("A", Ne(1)).And("B", Gte(2)).And("C", Lt(3)).And("D", Lte(4)).And("E", Gt(5)),
			alias:    "T1",
			wantSQL:  " WHERE T1.A <> ? AND T1.B >= ? AND T1.C < ? AND T1.D <= ? AND T1.E > ?",
			wantArgs: []interface{}{1, 2, 3, 4, 5},
		},
		{
			name:     "like and not like",
			filter:   Where("PROTOCOLO", Like("12%")).And("SITUACAO_ATO", NotLike("X%")),
			alias:    "T1",
			wantSQL:  " WHERE T1.PROTOCOLO LIKE ? AND T1.SITUACAO_ATO NOT LIKE ?",
			wantArgs: []interface{}{"12%", "X%"},
		},
		{
			name:     "in",
			filter:   Where("SITUACAO_ATO", In("1", "2", "3")),
			alias:    "T1",
			wantSQL:  " WHERE T1.SITUACAO_ATO IN (?, ?, ?)",
			wantArgs: []interface{}{"1", "2", "3"},
		},
		{
			name:     "not in with typed slice operand",
			filter:   Filter{{Column: "ATO_ID", Value: Condition{Op: OpNotIn, Operand: []int{4, 5}}}},
			alias:    "",
			wantSQL:  " WHERE ATO_ID NOT IN (?, ?)",
			wantArgs: []interface{}{4, 5},
		},
		{
			name:     "between keeps bound order",
			filter:   Where("VALOR_PAGAMENTO", Between(500, 100)),
			alias:    "T1",
			wantSQL:  " WHERE T1.VALOR_PAGAMENTO BETWEEN ? AND ?",
			wantArgs: []interface{}{500, 100},
		},
		{
			name:     "same column twice gives a range",
			filter:   Where("ATO_ID", Gte(10)).And("ATO_ID", Lte(20)),
			alias:    "T1",
			wantSQL:  " WHERE T1.ATO_ID >= ? AND T1.ATO_ID <= ?",
			wantArgs: []interface{}{10, 20},
		},
		{
			name:     "pointer condition",
			filter:   Where("ATO_ID", &Condition{Op: OpGt, Operand: 1}),
			alias:    "T1",
			wantSQL:  " WHERE T1.ATO_ID > ?",
			wantArgs: []interface{}{1},
		},
		{
			name:     "byte slice is a scalar",
			filter:   Where("TEXTO_ASSINATURA", []byte("sig")),
			alias:    "",
			wantSQL:  " WHERE TEXTO_ASSINATURA = ?",
			wantArgs: []interface{}{[]byte("sig")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := BuildWhere(tt.filter, tt.alias)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, frag.SQL)
			if tt.wantArgs == nil {
				assert.Empty(t, frag.Args)
			} else {
				assert.Equal(t, tt.wantArgs, frag.Args)
			}
		})
	}
}

func TestBuildWhere_MalformedInput(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   error
	}{
		{"raw slice as value", Where("ATO_ID", []int{1, 2}), core.ErrMalformedCondition},
		{"raw map as value", Where("ATO_ID", map[string]int{"a": 1}), core.ErrMalformedCondition},
		{"between with one bound", Filter{{Column: "A", Value: Condition{Op: OpBetween, Operand: []interface{}{1}}}}, core.ErrMalformedCondition},
		{"between with scalar", Filter{{Column: "A", Value: Condition{Op: OpBetween, Operand: 3}}}, core.ErrMalformedCondition},
		{"empty in", Where("A", In()), core.ErrMalformedCondition},
		{"in with scalar", Filter{{Column: "A", Value: Condition{Op: OpIn, Operand: "x"}}}, core.ErrMalformedCondition},
		{"gt with list", Filter{{Column: "A", Value: Condition{Op: OpGt, Operand: []int{1}}}}, core.ErrMalformedCondition},
		{"reserved and", Filter{{Column: "A", Value: Condition{Op: OpAnd, Operand: 1}}}, core.ErrMalformedCondition},
		{"reserved or", Filter{{Column: "A", Value: Condition{Op: OpOr, Operand: 1}}}, core.ErrMalformedCondition},
		{"unknown operator", Filter{{Column: "A", Value: Condition{Operand: 1}}}, core.ErrMalformedCondition},
		{"injected column", Where("A = 1 OR 1", 1), core.ErrInvalidIdentifier},
		{"empty column", Where("", 1), core.ErrInvalidIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := BuildWhere(tt.filter, "T1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, frag.Empty())
		})
	}
}

func TestBuildWhere_InvalidAlias(t *testing.T) {
	_, err := BuildWhere(Where("A", 1), "T1;")
	assert.ErrorIs(t, err, core.ErrInvalidIdentifier)
}

// shapeFilter builds a filter from shape codes so that the expected SQL
// terms and bound values can be predicted independently of BuildWhere.
func shapeFilter(codes []int) (Filter, []interface{}, int) {
	var (
		filter   Filter
		expected []interface{}
		between  int
	)
	for i, code := range codes {
		col := fmt.Sprintf("C%d", i)
		v := int64(i)
		switch code {
		case 0:
			filter = filter.And(col, v)
			expected = append(expected, v)
		case 1:
			filter = filter.And(col, nil)
		case 2:
			members := make([]interface{}, i%4+1)
			for j := range members {
				members[j] = v*10 + int64(j)
			}
			filter = filter.And(col, In(members...))
			expected = append(expected, members...)
		case 3:
			filter = filter.And(col, Between(v, -v))
			expected = append(expected, v, -v)
			between++
		default:
			filter = filter.And(col, Gt(v))
			expected = append(expected, v)
		}
	}
	return filter, expected, between
}

func TestProperty_WhereTermsAndPlaceholders(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("N entries give N terms joined by AND", prop.ForAll(
		func(codes []int) bool {
			filter, _, between := shapeFilter(codes)
			frag, err := BuildWhere(filter, "T1")
			if err != nil {
				return false
			}
			if len(codes) == 0 {
				return frag.SQL == ""
			}
			joins := strings.Count(frag.SQL, " AND ") - between
			return strings.HasPrefix(frag.SQL, " WHERE ") && joins == len(codes)-1
		},
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.Property("bound values match placeholders in count and order", prop.ForAll(
		func(codes []int) bool {
			filter, expected, _ := shapeFilter(codes)
			frag, err := BuildWhere(filter, "")
			if err != nil {
				return false
			}
			if strings.Count(frag.SQL, "?") != len(frag.Args) || len(frag.Args) != len(expected) {
				return false
			}
			for i := range expected {
				if frag.Args[i] != expected[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.Property("between binds exactly (a, b) in order", prop.ForAll(
		func(a, b int64) bool {
			frag, err := BuildWhere(Where("X", Between(a, b)), "T1")
			if err != nil || len(frag.Args) != 2 {
				return false
			}
			return frag.Args[0] == a && frag.Args[1] == b
		},
		gen.Int64(),
		gen.Int64(),
	))

	properties.Property("in/not-in of K members has K placeholders", prop.ForAll(
		func(k int, negate bool) bool {
			members := make([]interface{}, k)
			for i := range members {
				members[i] = i
			}
			cond := In(members...)
			if negate {
				cond = NotIn(members...)
			}
			frag, err := BuildWhere(Where("X", cond), "T1")
			if err != nil {
				return false
			}
			return strings.Count(frag.SQL, "?") == k && len(frag.Args) == k
		},
		gen.IntRange(1, 64),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
