package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/biocpipe/core"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "biocpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Fetch.Workers)
	assert.Equal(t, time.Second, cfg.Fetch.MaxJitter)
	assert.Equal(t, 1000, cfg.Split.BatchSize)
	assert.Equal(t, "sentences", cfg.Split.Mode)
	assert.Contains(t, cfg.Split.Ignore, "REF")
}

func TestDefault_IgnoreIsCopied(t *testing.T) {
	cfg := Default()
	cfg.Split.Ignore[0] = "changed"
	assert.Equal(t, "ACK_FUND", DefaultIgnoredSections[0])
}

func TestLoad_YAML(t *testing.T) {
	path := writeYAML(t, `
fetch:
  workers: 8
  max_jitter: 250ms
  write_mode: dir
split:
  batch_size: 50
  mode: paragraphs
  allow_sections: [INTRO, RESULTS]
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Fetch.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Fetch.MaxJitter)
	assert.Equal(t, "dir", cfg.Fetch.WriteMode)
	assert.Equal(t, 50, cfg.Split.BatchSize)
	assert.Equal(t, "paragraphs", cfg.Split.Mode)
	assert.Equal(t, []string{"INTRO", "RESULTS"}, cfg.Split.Allow)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep defaults
	assert.Equal(t, 4, cfg.Split.Workers)
}

func TestLoad_EnvBeatsYAML(t *testing.T) {
	path := writeYAML(t, "fetch:\n  workers: 8\n")
	t.Setenv("BIOCPIPE_FETCH_WORKERS", "2")
	t.Setenv("BIOCPIPE_IGNORE_SECTIONS", "REF, FIG ,")
	t.Setenv("BIOCPIPE_FETCH_RPS", "1.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Fetch.Workers)
	assert.Equal(t, []string{"REF", "FIG"}, cfg.Split.Ignore)
	assert.InDelta(t, 1.5, cfg.Fetch.RequestsPerSecond, 1e-9)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("BIOCPIPE_SPLIT_BATCH_SIZE", "lots")
	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Split.Mode = "words" }},
		{"bad write mode", func(c *Config) { c.Fetch.WriteMode = "auto" }},
		{"zero fetch workers", func(c *Config) { c.Fetch.Workers = 0 }},
		{"zero split workers", func(c *Config) { c.Split.Workers = 0 }},
		{"negative batch", func(c *Config) { c.Split.BatchSize = -1 }},
		{"negative sample", func(c *Config) { c.Split.RandomSample = -3 }},
		{"negative jitter", func(c *Config) { c.Fetch.MaxJitter = -time.Second }},
		{"template without id", func(c *Config) { c.Remote.ArticleURL = "https://example.org/doc" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidConfig)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a,,b "))
}
