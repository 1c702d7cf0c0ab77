package schema

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/orius/internal/core"
)

func pessoaSchema(t *testing.T) *core.Schema {
	t.Helper()
	s, err := Definition{
		Table: "t_pessoa",
		Columns: []ColumnDefinition{
			{Name: "pessoa_id", Type: "BIGINT", PrimaryKey: true, AutoIncrement: true},
			{Name: "nome", Type: "VARCHAR"},
			{Name: "idade", Type: "INTEGER", Nullable: true},
			{Name: "foto", Type: "BLOB_BIN", Nullable: true},
			{Name: "nascimento", Type: "DATE", Nullable: true},
			{Name: "saldo", Type: "DECIMAL", Default: 0},
		},
	}.Build()
	require.NoError(t, err)
	return s
}

func TestKindForDBType(t *testing.T) {
	tm := NewTypeMapper()
	tests := []struct {
		dbType  string
		subType int
		want    core.DataKind
	}{
		{"SMALLINT", 0, core.KindInteger},
		{"bigint", 0, core.KindBigInt},
		{"VARCHAR(60)", 0, core.KindString},
		{"NUMERIC(18,2)", 0, core.KindDecimal},
		{"BLOB", 1, core.KindText},
		{"BLOB", 0, core.KindBinary},
		{"TIMESTAMP", 0, core.KindTimestamp},
		{"DATE", 0, core.KindDate},
	}
	for _, tt := range tests {
		got, err := tm.KindForDBType(tt.dbType, tt.subType)
		require.NoError(t, err, tt.dbType)
		assert.Equal(t, tt.want, got, tt.dbType)
	}

	_, err := tm.KindForDBType("ARRAY", 0)
	assert.ErrorIs(t, err, core.ErrInvalidSchema)
}

func TestCoerce(t *testing.T) {
	tm := NewTypeMapper()

	v, err := tm.Coerce(core.KindInteger, "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = tm.Coerce(core.KindInteger, int64(math.MaxInt32)+1)
	assert.ErrorIs(t, err, core.ErrInvalidValue)

	_, err = tm.Coerce(core.KindBigInt, 1.5)
	assert.ErrorIs(t, err, core.ErrInvalidValue)

	v, err = tm.Coerce(core.KindDecimal, " 150.00 ")
	require.NoError(t, err)
	assert.Equal(t, "150.00", v)

	_, err = tm.Coerce(core.KindDecimal, math.Inf(1))
	assert.ErrorIs(t, err, core.ErrInvalidValue)

	v, err = tm.Coerce(core.KindBinary, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v)

	_, err = tm.Coerce(core.KindString, 12)
	assert.ErrorIs(t, err, core.ErrInvalidValue)

	v, err = tm.Coerce(core.KindDate, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), v)

	v, err = tm.Coerce(core.KindTimestamp, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestNormalize(t *testing.T) {
	tm := NewTypeMapper()
	assert.Equal(t, int64(7), tm.Normalize(core.KindInteger, int32(7)))
	assert.Equal(t, int64(7), tm.Normalize(core.KindBigInt, []byte("7")))
	assert.Equal(t, "12.50", tm.Normalize(core.KindDecimal, []byte("12.50")))
	assert.Equal(t, "texto", tm.Normalize(core.KindText, []byte("texto")))
	assert.Equal(t, []byte("raw"), tm.Normalize(core.KindBinary, "raw"))
	assert.Equal(t, true, tm.Normalize(core.KindString, true))
}

func TestCoerceIntegers_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	tm := NewTypeMapper()

	properties.Property("int32 values survive INTEGER coercion", prop.ForAll(
		func(n int32) bool {
			v, err := tm.Coerce(core.KindInteger, n)
			return err == nil && v == int64(n)
		},
		gen.Int32(),
	))

	properties.Property("decimal strings of int64 coerce back to BIGINT", prop.ForAll(
		func(n int64) bool {
			v, err := tm.Coerce(core.KindBigInt, tm.Normalize(core.KindDecimal, []byte(strconv.FormatInt(n, 10))))
			return err == nil && v == n
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestSchemaValidator(t *testing.T) {
	sv := NewSchemaValidator(pessoaSchema(t))

	out, err := sv.ValidateRecord(map[string]interface{}{
		"nome":  "Maria",
		"IDADE": 31,
		"foto":  nil,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"NOME": "Maria", "IDADE": int64(31), "FOTO": nil}, out)

	_, err = sv.ValidateRecord(map[string]interface{}{"apelido": "M"})
	assert.ErrorIs(t, err, core.ErrUnknownColumn)

	_, _, err = sv.ValidateValue("idade", "trinta")
	assert.ErrorIs(t, err, core.ErrInvalidValue)

	row := sv.NormalizeRow(core.Row{"IDADE": int16(31), "NOME": []byte("Maria"), "JOINED__X": 1})
	assert.Equal(t, core.Row{"IDADE": int64(31), "NOME": "Maria", "JOINED__X": 1}, row)
}

func TestDefinitionRoundTrip(t *testing.T) {
	s := pessoaSchema(t)
	def := DefinitionOf(s)
	assert.Equal(t, "T_PESSOA", def.Table)
	assert.Equal(t, "BLOB_BIN", def.Columns[3].Type)

	rebuilt, err := def.Build()
	require.NoError(t, err)
	assert.Equal(t, s.Columns(), rebuilt.Columns())

	_, err = Definition{Table: "T", Columns: []ColumnDefinition{{Name: "ID", Type: "UUID", PrimaryKey: true}}}.Build()
	assert.ErrorIs(t, err, core.ErrInvalidSchema)
}
