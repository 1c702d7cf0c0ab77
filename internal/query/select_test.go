package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/orius/internal/core"
)

var atoSchema = core.MustSchema("t_ato",
	core.Column{Name: "ATO_ID", Kind: core.KindBigInt, PrimaryKey: true, AutoIncrement: true},
	core.Column{Name: "ATO_TIPO_ID", Kind: core.KindInteger},
	core.Column{Name: "PROTOCOLO", Kind: core.KindInteger},
)

func TestBuildSelect_Defaults(t *testing.T) {
	frag, err := BuildSelect(Name("t_ato"), nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT T1.* FROM T_ATO T1", frag.SQL)
	assert.Empty(t, frag.Args)
}

func TestBuildSelect_SchemaReference(t *testing.T) {
	frag, err := BuildSelect(atoSchema, New().Select("ato_id", "protocolo"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT T1.ATO_ID, T1.PROTOCOLO FROM T_ATO T1", frag.SQL)
}

func TestBuildSelect_Full(t *testing.T) {
	q := New().
		Filter(Where("SITUACAO_ATO", "1").And("VALOR_PAGAMENTO", Gte(100))).
		Join(Include{Table: "t_ato_tipo", On: [2]string{"ato_tipo_id", "ato_tipo_id"}, Attributes: []string{"descricao"}}).
		Join(Include{Table: "t_usuario", As: "U", On: [2]string{"usuario_id", "id"}}).
		OrderBy("data_lavratura", Desc).
		OrderBy("ato_id", Asc).
		WithOffset(20).
		WithLimit(10)

	frag, err := BuildSelect(Name("T_ATO"), q)
	require.NoError(t, err)

	want := "SELECT T1.*, J1.DESCRICAO AS J1_DESCRICAO, U.* FROM T_ATO T1" +
		" LEFT JOIN T_ATO_TIPO J1 ON T1.ATO_TIPO_ID = J1.ATO_TIPO_ID" +
		" LEFT JOIN T_USUARIO U ON T1.USUARIO_ID = U.ID" +
		" WHERE T1.SITUACAO_ATO = ? AND T1.VALOR_PAGAMENTO >= ?" +
		" ORDER BY T1.DATA_LAVRATURA DESC, T1.ATO_ID ASC" +
		" OFFSET 20 ROWS FETCH FIRST 10 ROWS ONLY"
	assert.Equal(t, want, frag.SQL)
	assert.Equal(t, []interface{}{"1", 100}, frag.Args)
}

func TestBuildSelect_JoinThroughModel(t *testing.T) {
	q := New().Join(Include{Model: atoSchema, On: [2]string{"ATO_ID", "ATO_ID"}, Attributes: []string{"PROTOCOLO"}})
	frag, err := BuildSelect(Name("T_ATO_ITEM"), q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT T1.*, J1.PROTOCOLO AS J1_PROTOCOLO FROM T_ATO_ITEM T1 LEFT JOIN T_ATO J1 ON T1.ATO_ID = J1.ATO_ID", frag.SQL)
}

func TestBuildSelect_PaginationOrder(t *testing.T) {
	frag, err := BuildSelect(Name("T_ATO"), New().Filter(Where("ATO_ID", 1)).OrderBy("ATO_ID", Asc).WithLimit(1).WithOffset(0))
	require.NoError(t, err)

	offset := strings.Index(frag.SQL, "OFFSET 0 ROWS")
	fetch := strings.Index(frag.SQL, "FETCH FIRST 1 ROWS ONLY")
	where := strings.Index(frag.SQL, " WHERE ")
	order := strings.Index(frag.SQL, " ORDER BY ")

	require.NotEqual(t, -1, offset)
	require.NotEqual(t, -1, fetch)
	assert.Less(t, where, order)
	assert.Less(t, order, offset)
	assert.Less(t, offset, fetch)
	assert.Equal(t, []interface{}{1}, frag.Args)
}

func TestBuildSelect_LimitOnly(t *testing.T) {
	frag, err := BuildSelect(Name("T_ATO"), New().WithLimit(5))
	require.NoError(t, err)
	assert.Equal(t, "SELECT T1.* FROM T_ATO T1 FETCH FIRST 5 ROWS ONLY", frag.SQL)
}

func TestBuildSelect_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		table TableRef
		q     *Query
		want  error
	}{
		{"bad table", Name("T_ATO; DROP TABLE X"), nil, core.ErrInvalidIdentifier},
		{"nil table", nil, nil, core.ErrInvalidIdentifier},
		{"bad attribute", Name("T"), New().Select("A, B"), core.ErrInvalidIdentifier},
		{"bad order column", Name("T"), New().OrderBy("A DESC", Asc), core.ErrInvalidIdentifier},
		{"bad direction", Name("T"), New().OrderBy("A", "SIDEWAYS"), core.ErrMalformedCondition},
		{"negative limit", Name("T"), New().WithLimit(-1), core.ErrMalformedCondition},
		{"negative offset", Name("T"), New().WithOffset(-5), core.ErrMalformedCondition},
		{"bad join alias", Name("T"), New().Join(Include{Table: "X", As: "1X", On: [2]string{"A", "B"}}), core.ErrInvalidIdentifier},
		{"missing join table", Name("T"), New().Join(Include{On: [2]string{"A", "B"}}), core.ErrInvalidIdentifier},
		{"missing join column", Name("T"), New().Join(Include{Table: "X", On: [2]string{"A", ""}}), core.ErrInvalidIdentifier},
		{"malformed filter", Name("T"), New().Filter(Where("A", []string{"x"})), core.ErrMalformedCondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildSelect(tt.table, tt.q)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuildCount(t *testing.T) {
	frag, err := BuildCount(Name("t_ato"), nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS TOTAL FROM T_ATO T1", frag.SQL)

	frag, err = BuildCount(atoSchema, Where("PROTOCOLO", In(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS TOTAL FROM T_ATO T1 WHERE T1.PROTOCOLO IN (?, ?)", frag.SQL)
	assert.Equal(t, []interface{}{1, 2}, frag.Args)
}

func TestQueryClone(t *testing.T) {
	q := New().Filter(Where("A", 1)).WithLimit(3)
	c := q.Clone().WithLimit(1)
	c.Where[0].Value = 2

	assert.Equal(t, 3, *q.Limit)
	assert.Equal(t, 1, q.Where[0].Value)
	assert.Equal(t, 1, *c.Limit)

	var nilQuery *Query
	assert.NotNil(t, nilQuery.Clone())
}
