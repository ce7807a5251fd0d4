package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ".", cfg.Manifest.Root)
	assert.Equal(t, "sha-256-map.txt", cfg.Manifest.Output)
	assert.Equal(t, []string{".git", ".svn"}, cfg.Manifest.Exclude)
	assert.False(t, cfg.Tracing.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	p := writeFile(t, t.TempDir(), "nimap.yaml", `
manifest:
  root: /srv/www
  exclude: [".git", ".hg"]
log:
  level: debug
  format: json
server:
  authority: example.org
`)
	cfg, err := LoadFromFile(p)
	require.NoError(t, err)
	assert.Equal(t, "/srv/www", cfg.Manifest.Root)
	assert.Equal(t, DefaultManifest, cfg.Manifest.Output, "unset keys keep defaults")
	assert.Equal(t, []string{".git", ".hg"}, cfg.Manifest.Exclude)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "example.org", cfg.Server.Authority)
	assert.Equal(t, ":8080", cfg.Server.Listen)
}

func TestLoadFromFile_Empty(t *testing.T) {
	p := writeFile(t, t.TempDir(), "empty.yaml", "")
	cfg, err := LoadFromFile(p)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromFile_UnknownKey(t *testing.T) {
	p := writeFile(t, t.TempDir(), "bad.yaml", "manifest:\n  outptu: x\n")
	_, err := LoadFromFile(p)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NIMAP_OUTPUT", "map.txt")
	t.Setenv("NIMAP_EXCLUDE", " .git, node_modules ,,")
	t.Setenv("NIMAP_OTLP_ENDPOINT", "otel:4318")
	t.Setenv("NIMAP_TRACE_SAMPLE_RATE", "0.25")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)
	assert.Equal(t, "map.txt", cfg.Manifest.Output)
	assert.Equal(t, []string{".git", "node_modules"}, cfg.Manifest.Exclude)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "otel:4318", cfg.Tracing.Endpoint)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRate)
}

func TestLoadFromEnv_EmptyExcludeDisables(t *testing.T) {
	t.Setenv("NIMAP_EXCLUDE", "")
	cfg := DefaultConfig()
	LoadFromEnv(cfg)
	assert.NotNil(t, cfg.Manifest.Exclude)
	assert.Empty(t, cfg.Manifest.Exclude)
}

func TestLoad_DotEnvAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, dir, ".env", "NIMAP_LOG_LEVEL=warn\nNIMAP_ROOT=from-dotenv\n")
	p := writeFile(t, dir, "nimap.yaml", "manifest:\n  root: from-file\n  output: file.txt\n")
	t.Setenv("NIMAP_ROOT", "from-env")
	// godotenv exports into the process; make sure the test restores it.
	t.Setenv("NIMAP_LOG_LEVEL", "")
	os.Unsetenv("NIMAP_LOG_LEVEL")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Manifest.Root, "real env wins over .env and file")
	assert.Equal(t, "file.txt", cfg.Manifest.Output)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Manifest.Output = " "
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Log.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Tracing.SampleRate = 2
	assert.Error(t, cfg.Validate())
}
