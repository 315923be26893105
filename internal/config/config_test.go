package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setCredentials(t)
	path := writeConfig(t, "db:\n  database: testdb\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "testdb", cfg.DB.Database)
	assert.Equal(t, "movies", cfg.DB.Collections.Movies)
	assert.Equal(t, "crawler_metadata", cfg.DB.Collections.Checkpoints)
	assert.Equal(t, 250, cfg.Crawl.DelayMS)
	assert.Equal(t, 500, cfg.Crawl.PageCap)
	assert.Equal(t, 0.5, cfg.Crawl.BucketWidth)
	assert.Equal(t, 60, cfg.Crawl.MinRuntime)
	assert.Equal(t, []string{"US"}, cfg.Crawl.Regions)
	assert.Equal(t, 100, cfg.Autocomplete.FlushThreshold)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 3600, cfg.Search.CacheTTLSec)
}

func TestLoadYamlOverridesDefaults(t *testing.T) {
	setCredentials(t)
	path := writeConfig(t, `
crawl:
  delay_ms: 50
  bucket_width: 0.25
  regions:
    - US
    - GB
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Crawl.DelayMS)
	assert.Equal(t, 0.25, cfg.Crawl.BucketWidth)
	assert.Equal(t, []string{"US", "GB"}, cfg.Crawl.Regions)
}

func TestLoadReadsCredentialsFromEnv(t *testing.T) {
	setCredentials(t)
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "tmdb-key", cfg.Credentials.TMDBAPIKey)
	assert.Equal(t, "openai-key", cfg.Credentials.OpenAIAPIKey)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Credentials.MongoURI)
}

func TestLoadMissingCredentialFails(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("MONGODB_URI", "")

	_, err := Load(writeConfig(t, "{}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required configuration")
}

func TestLoadFileSkipsCredentials(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MONGODB_URI", "")

	cfg, err := LoadFile(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Credentials.TMDBAPIKey)
	assert.Equal(t, "movies", cfg.DB.Collections.Movies)
	assert.Equal(t, 100, cfg.Autocomplete.FlushThreshold)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
