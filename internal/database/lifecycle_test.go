package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/database"
	"github.com/rzpsarthak13/orius/internal/model"
	"github.com/rzpsarthak13/orius/internal/query"
)

// sqlite accepts RETURNING and the unaliased forms used for writes, which
// is enough to drive the record lifecycle end to end.
func TestRecordLifecycle_SQLite(t *testing.T) {
	ctx := context.Background()
	facade, err := database.Open(database.Config{Driver: "sqlite", Database: filepath.Join(t.TempDir(), "cartorio.db")})
	require.NoError(t, err)
	defer facade.Close()

	_, err = facade.DB().Exec(`CREATE TABLE T_ATO (
		ATO_ID INTEGER PRIMARY KEY,
		PROTOCOLO INTEGER,
		SITUACAO_ATO VARCHAR(2),
		OBSERVACAO BLOB
	)`)
	require.NoError(t, err)

	schema := core.MustSchema("T_ATO",
		core.Column{Name: "ATO_ID", Kind: core.KindBigInt, PrimaryKey: true, AutoIncrement: true},
		core.Column{Name: "PROTOCOLO", Kind: core.KindInteger},
		core.Column{Name: "SITUACAO_ATO", Kind: core.KindString},
		core.Column{Name: "OBSERVACAO", Kind: core.KindText, Nullable: true},
	)
	m, err := model.New(schema, facade)
	require.NoError(t, err)

	first, err := m.Build(map[string]interface{}{"PROTOCOLO": 9999, "SITUACAO_ATO": "1", "OBSERVACAO": "primeiro"})
	require.NoError(t, err)
	_, err = first.Save(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.Get("ATO_ID"))
	assert.Equal(t, "primeiro", first.Get("OBSERVACAO"))

	second, err := m.Build(map[string]interface{}{"PROTOCOLO": 10000, "SITUACAO_ATO": "1"})
	require.NoError(t, err)
	_, err = second.Save(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.Get("ATO_ID"))

	total, err := m.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	records, err := m.FindAll(ctx, query.New().
		Filter(query.Where("PROTOCOLO", query.Between(9000, 20000))).
		OrderBy("ATO_ID", query.Desc))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.EqualValues(t, 2, records[0].Get("ATO_ID"))
	assert.Equal(t, "primeiro", records[1].Get("OBSERVACAO"))

	require.NoError(t, first.Set("SITUACAO_ATO", "2"))
	_, err = first.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", first.Get("SITUACAO_ATO"))

	changed, err := m.Count(ctx, query.Where("SITUACAO_ATO", "2"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	require.NoError(t, second.Delete(ctx))
	assert.Empty(t, second.Values())

	total, err = m.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	ghost, err := m.Build(map[string]interface{}{"ATO_ID": 2})
	require.NoError(t, err)
	err = ghost.Delete(ctx)
	assert.ErrorIs(t, err, core.ErrNoRowsAffected)

	third, err := m.Build(map[string]interface{}{"PROTOCOLO": 1, "SITUACAO_ATO": "1"})
	require.NoError(t, err)
	_, err = third.Save(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, third.Get("ATO_ID"), "MAX+1 reuses the highest free value")
}
