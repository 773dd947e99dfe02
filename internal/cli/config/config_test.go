package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Mapper.Sources)
}

func TestLoad_ProjectFile(t *testing.T) {
	dir := t.TempDir()
	doc := `
project_name: storefront
database:
  driver: postgres
  dsn: postgres://localhost/storefront
mapper:
  sources:
    - mappers/users.xml
    - mappers/orders.xml
  vars:
    schema: public
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quill.yml"), []byte(doc), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "storefront", cfg.ProjectName)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/storefront", cfg.Database.DSN)
	assert.Equal(t, []string{"mappers/users.xml", "mappers/orders.xml"}, cfg.Mapper.Sources)
	assert.Equal(t, "public", cfg.Mapper.Vars["schema"])
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quill.yml"), []byte("mapper: ["), 0o644))
	chdir(t, dir)

	_, err := Load()
	assert.Error(t, err)
}
