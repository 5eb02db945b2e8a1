package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig("")
	assert.Equal(t, "toughrent", cfg.System.Appid)
	assert.Equal(t, "Europe/Warsaw", cfg.System.Location)
	assert.Equal(t, 1820, cfg.Web.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
}

func TestLoadConfigFromFile(t *testing.T) {
	content := `
system:
  appid: renttest
  location: Europe/Warsaw
web:
  host: 127.0.0.1
  port: 9000
  secret: testsecret
database:
  type: sqlite
  name: renttest
`
	cfile := filepath.Join(t.TempDir(), "toughrent.yml")
	require.NoError(t, os.WriteFile(cfile, []byte(content), 0o644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, "renttest", cfg.System.Appid)
	assert.Equal(t, 9000, cfg.Web.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TOUGHRENT_DB_PWD", "fromenv")
	cfg := LoadConfig("")
	assert.Equal(t, "fromenv", cfg.Database.Passwd)
}
