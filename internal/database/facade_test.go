package database

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/orius/internal/core"
)

func openSQLite(t *testing.T) *SQLFacade {
	t.Helper()
	f, err := Open(Config{Driver: "sqlite", Database: filepath.Join(t.TempDir(), "orius.db"), PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestSQLFacade_ExecuteWrapsBytes(t *testing.T) {
	f := openSQLite(t)
	ctx := context.Background()

	_, err := f.DB().Exec(`CREATE TABLE t_doc (doc_id INTEGER PRIMARY KEY, conteudo BLOB)`)
	require.NoError(t, err)

	n, err := f.ExecAffected(ctx, "INSERT INTO T_DOC (DOC_ID, CONTEUDO) VALUES (?, ?)", 1, []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := f.Execute(ctx, "SELECT doc_id, conteudo FROM t_doc WHERE doc_id = ?", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.EqualValues(t, 1, rows[0]["DOC_ID"])
	blob, ok := rows[0]["CONTEUDO"].(core.LazyBlob)
	require.True(t, ok, "byte values must be wrapped, got %T", rows[0]["CONTEUDO"])

	rc, err := blob.Open(ctx)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, data)
}

func TestSQLFacade_LogsArgumentCountOnly(t *testing.T) {
	f := openSQLite(t)
	ctx := context.Background()

	_, err := f.DB().Exec(`CREATE TABLE t_doc (doc_id INTEGER PRIMARY KEY, conteudo BLOB)`)
	require.NoError(t, err)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	payload := []byte("ASSINATURA-DIGITAL")
	_, err = f.Execute(ctx, "INSERT INTO T_DOC (DOC_ID, CONTEUDO) VALUES (?, ?) RETURNING *", 1, payload)
	require.NoError(t, err)
	_, err = f.ExecAffected(ctx, "UPDATE T_DOC SET CONTEUDO = ? WHERE DOC_ID = ?", payload, 1)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "INSERT INTO T_DOC (DOC_ID, CONTEUDO) VALUES (?, ?) RETURNING * (2 arg(s))")
	assert.Contains(t, out, "(2 arg(s))")
	assert.NotContains(t, out, "ASSINATURA")
	assert.NotContains(t, out, "65 83 83 73")
}

func TestSQLFacade_ReturningRows(t *testing.T) {
	f := openSQLite(t)
	ctx := context.Background()

	_, err := f.DB().Exec(`CREATE TABLE t_item (item_id INTEGER PRIMARY KEY, nome VARCHAR(20))`)
	require.NoError(t, err)

	rows, err := f.Execute(ctx, "INSERT INTO T_ITEM (ITEM_ID, NOME) VALUES (?, ?) RETURNING *", 7, "x")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 7, rows[0]["ITEM_ID"])

	rows, err = f.Execute(ctx, "SELECT * FROM T_ITEM WHERE ITEM_ID = ?", 999)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLFacade_Closed(t *testing.T) {
	f := openSQLite(t)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err := f.Execute(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.ExecAffected(context.Background(), "DELETE FROM X")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSQLFacade_RebindsPlaceholders(t *testing.T) {
	f := NewSQLFacade(sqlx.NewDb(nil, "postgres"), nil)
	bound, err := f.prepare(context.Background(), "SELECT * FROM T WHERE A = ? AND B IN (?, ?)")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM T WHERE A = $1 AND B IN ($2, $3)", bound)

	f = NewSQLFacade(sqlx.NewDb(nil, DriverFirebird), nil)
	bound, err = f.prepare(context.Background(), "SELECT * FROM T WHERE A = ?")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM T WHERE A = ?", bound)
}

func TestSQLFacade_RateLimiter(t *testing.T) {
	assert.Nil(t, limiterFor(Config{}))

	limiter := limiterFor(Config{QueryRate: 5})
	require.NotNil(t, limiter)
	assert.Equal(t, 1, limiter.Burst())

	f := NewSQLFacade(sqlx.NewDb(nil, DriverSQLite), limiterFor(Config{QueryRate: 0.001, QueryBurst: 1}))
	_, err := f.prepare(context.Background(), "SELECT 1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.prepare(ctx, "SELECT 1")
	assert.Error(t, err)
}

func TestOpen_Unreachable(t *testing.T) {
	_, err := Open(Config{Driver: "sqlite", Database: filepath.Join(t.TempDir(), "missing", "nested", "x.db")})
	assert.Error(t, err)
}
