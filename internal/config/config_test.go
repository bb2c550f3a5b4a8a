package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOTION_TOKEN", "")
	t.Setenv("NOTION_DATABASE_ID", "")

	cfg, err := Load(dir)
	require.NoError(t, err, "missing config file is not an error")

	assert.Equal(t, ModeNotion, cfg.Mode)
	assert.Equal(t, 30*time.Second, cfg.PullInterval)
	assert.Equal(t, 8080, cfg.DashboardPort)
	assert.Equal(t, DefaultExtensions, cfg.Extensions)
	assert.Equal(t, filepath.Join(dir, DirName, "store.db"), cfg.StorePath)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, DirName), 0o755))
	yaml := `
store:
  mode: sqlite
  path: data/markers.db
sync:
  pull_interval: 2m
  extensions: [".go", ".py"]
dashboard:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DirName, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ModeSQLite, cfg.Mode)
	assert.Equal(t, filepath.Join(dir, "data", "markers.db"), cfg.StorePath)
	assert.Equal(t, 2*time.Minute, cfg.PullInterval)
	assert.Equal(t, []string{".go", ".py"}, cfg.Extensions)
	assert.Equal(t, 9090, cfg.DashboardPort)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, DirName), 0o755))
	yaml := `
notion:
  token: from-file
  database_id: db-from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DirName, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("NOTION_TOKEN", "from-env")
	t.Setenv("NOTION_DATABASE_ID", "db-from-env")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.NotionToken)
	assert.Equal(t, "db-from-env", cfg.NotionDatabaseID)
}

func TestValidateNotionMode(t *testing.T) {
	cfg := &Config{Mode: ModeNotion}
	assert.ErrorIs(t, cfg.Validate(), ErrMissing)

	cfg.NotionToken = "secret"
	assert.ErrorIs(t, cfg.Validate(), ErrMissing, "database id still missing")

	cfg.NotionDatabaseID = "db1"
	assert.NoError(t, cfg.Validate())
}

func TestValidateSQLiteMode(t *testing.T) {
	cfg := &Config{Mode: ModeSQLite}
	assert.ErrorIs(t, cfg.Validate(), ErrMissing)

	cfg.StorePath = "/tmp/store.db"
	assert.NoError(t, cfg.Validate())
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := &Config{Mode: "carrier-pigeon"}
	assert.ErrorIs(t, cfg.Validate(), ErrMissing)
}

func TestFindRootWalksUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, DirName), 0o755))
	nested := filepath.Join(root, "pkg", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, FindRoot(nested))
	assert.Equal(t, root, FindRoot(root))
}

func TestFindRootWithoutConfigStaysPut(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, FindRoot(dir))
}

func TestInitWritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	path, err := Init(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DirName, "config.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode: notion")
}

func TestInitKeepsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, DirName), 0o755))
	existing := filepath.Join(dir, DirName, "config.yaml")
	require.NoError(t, os.WriteFile(existing, []byte("store:\n  mode: sqlite\n"), 0o644))

	path, err := Init(dir)
	require.NoError(t, err)
	assert.Equal(t, existing, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode: sqlite", "existing config is left untouched")
}
