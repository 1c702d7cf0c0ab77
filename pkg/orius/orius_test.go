package orius_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/orius/pkg/orius"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orius.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite
  database: /tmp/ignored.db
auto_increment:
  lock_type: memory
`), 0o600))

	t.Setenv("ORIUS_DATABASE_DATABASE", filepath.Join(t.TempDir(), "env.db"))
	t.Setenv("ORIUS_EVENTS_TYPE", "memory")

	cfg, err := orius.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.Database, "env.db")
	assert.Equal(t, "memory", cfg.AutoIncrement.LockType)
	assert.Equal(t, "memory", cfg.Events.Type)

	_, err = orius.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_DatabaseFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orius.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  host: fb.cartorio.local\n"), 0o600))

	t.Setenv("FDB_DATABASE", "/srv/cartorio.fdb")

	cfg, err := orius.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "fb.cartorio.local", cfg.Database.Host)
	assert.Equal(t, "/srv/cartorio.fdb", cfg.Database.Database)
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := orius.DefaultConfig()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Database = filepath.Join(t.TempDir(), "orius.db")

	c, err := orius.NewClient(ctx, cfg)
	require.NoError(t, err)
	defer c.Close()

	schema, err := orius.NewSchema("T_SELO",
		orius.Column{Name: "SELO_ID", Kind: orius.KindBigInt, PrimaryKey: true, AutoIncrement: true},
		orius.Column{Name: "CODIGO", Kind: orius.KindString},
	)
	require.NoError(t, err)

	selos, err := c.Define(ctx, schema)
	require.NoError(t, err)
	assert.Equal(t, []string{"T_SELO"}, c.Models())
	assert.NotNil(t, c.Inspector())

	_, err = orius.NewClient(ctx, nil)
	assert.Error(t, err)

	rec, err := selos.Build(map[string]interface{}{"CODIGO": "A1"})
	require.NoError(t, err)
	_, err = rec.Save(ctx)
	assert.Error(t, err, "the table does not exist yet")

	require.NoError(t, c.Undefine(ctx, "T_SELO"))
	_, err = c.Model("T_SELO")
	assert.ErrorIs(t, err, orius.ErrNotRegistered)
}

func TestFilterConstructors(t *testing.T) {
	f := orius.Where("PROTOCOLO", orius.Between(1, 10))
	require.Len(t, f, 1)
	assert.Equal(t, "PROTOCOLO", f[0].Column)

	q := orius.NewQuery().Filter(f).OrderBy("ATO_ID", orius.Desc).WithLimit(5)
	assert.NotNil(t, q)
}
