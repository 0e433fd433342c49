// Package config provides configuration loading for biocpipe.
// Values come from built-in defaults, an optional YAML file, an optional
// .env file, and BIOCPIPE_* environment variables, in that order; command
// line flags are applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/biocpipe/core"
)

const envPrefix = "BIOCPIPE_"

// Config holds all configuration for biocpipe.
type Config struct {
	Remote RemoteConfig `yaml:"remote"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Split  SplitConfig  `yaml:"split"`
	Log    LogConfig    `yaml:"log"`
}

// RemoteConfig describes the remote BioC services.
type RemoteConfig struct {
	// ArticleURL is the per-document URL template; {id} is replaced by the
	// path-escaped identifier.
	ArticleURL     string        `yaml:"article_url"`
	ArchiveBaseURL string        `yaml:"archive_base_url"`
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
}

// FetchConfig holds bulk fetch settings.
type FetchConfig struct {
	Workers           int           `yaml:"workers"`
	MaxJitter         time.Duration `yaml:"max_jitter"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	WriteMode         string        `yaml:"write_mode"`
}

// SplitConfig holds batch pipeline settings.
type SplitConfig struct {
	BatchSize    int      `yaml:"batch_size"`
	Workers      int      `yaml:"workers"`
	Mode         string   `yaml:"mode"`
	Allow        []string `yaml:"allow_sections"`
	Ignore       []string `yaml:"ignore_sections"`
	RandomSample int      `yaml:"random_sample"`
	Seed         uint64   `yaml:"seed"`
	OutputName   string   `yaml:"output_name"`
	Recursive    bool     `yaml:"recursive"`
	StripMarkup  bool     `yaml:"strip_markup"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultIgnoredSections are the section labels dropped unless configured otherwise.
var DefaultIgnoredSections = []string{"ACK_FUND", "AUTH_CONT", "COMP_INT", "FIG", "TABLE", "ABBR", "REF"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Remote: RemoteConfig{
			ArticleURL:     "https://www.ncbi.nlm.nih.gov/research/bionlp/RESTful/pmcoa.cgi/BioC_json/{id}/unicode",
			ArchiveBaseURL: "https://ftp.ncbi.nlm.nih.gov/pub/wilbur/BioC-PMC",
			UserAgent:      "biocpipe/1.0 (https://github.com/gaurav-prasanna/biocpipe)",
			Timeout:        60 * time.Second,
		},
		Fetch: FetchConfig{
			Workers:   4,
			MaxJitter: time.Second,
			WriteMode: string(core.WriteModeFile),
		},
		Split: SplitConfig{
			BatchSize:  1000,
			Workers:    4,
			Mode:       string(core.ModeSentences),
			Ignore:     append([]string(nil), DefaultIgnoredSections...),
			OutputName: "output.json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (optional),
// a .env file in the working directory (optional) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	// A missing .env is the common case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if _, err := core.ParseMode(c.Split.Mode); err != nil {
		return err
	}
	if _, err := core.ParseWriteMode(c.Fetch.WriteMode); err != nil {
		return err
	}
	switch {
	case c.Fetch.Workers < 1:
		return fmt.Errorf("%w: fetch.workers must be >= 1", core.ErrInvalidConfig)
	case c.Split.Workers < 1:
		return fmt.Errorf("%w: split.workers must be >= 1", core.ErrInvalidConfig)
	case c.Split.BatchSize < 0:
		return fmt.Errorf("%w: split.batch_size must be >= 0", core.ErrInvalidConfig)
	case c.Split.RandomSample < 0:
		return fmt.Errorf("%w: split.random_sample must be >= 0", core.ErrInvalidConfig)
	case c.Fetch.MaxJitter < 0:
		return fmt.Errorf("%w: fetch.max_jitter must be >= 0", core.ErrInvalidConfig)
	case c.Fetch.RequestsPerSecond < 0:
		return fmt.Errorf("%w: fetch.requests_per_second must be >= 0", core.ErrInvalidConfig)
	case !strings.Contains(c.Remote.ArticleURL, "{id}"):
		return fmt.Errorf("%w: remote.article_url must contain {id}", core.ErrInvalidConfig)
	}
	return nil
}

// applyEnv overrides fields from BIOCPIPE_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", core.ErrInvalidConfig, envPrefix, key, v, err)
		}
		*dst = n
		return nil
	}
	duration := func(key string, dst *time.Duration) error {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", core.ErrInvalidConfig, envPrefix, key, v, err)
		}
		*dst = d
		return nil
	}
	list := func(key string, dst *[]string) {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return
		}
		*dst = SplitList(v)
	}

	str("ARTICLE_URL", &cfg.Remote.ArticleURL)
	str("ARCHIVE_BASE_URL", &cfg.Remote.ArchiveBaseURL)
	str("USER_AGENT", &cfg.Remote.UserAgent)
	str("FETCH_WRITE_MODE", &cfg.Fetch.WriteMode)
	str("SPLIT_MODE", &cfg.Split.Mode)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	list("ALLOW_SECTIONS", &cfg.Split.Allow)
	list("IGNORE_SECTIONS", &cfg.Split.Ignore)

	for _, err := range []error{
		duration("TIMEOUT", &cfg.Remote.Timeout),
		duration("FETCH_MAX_JITTER", &cfg.Fetch.MaxJitter),
		integer("FETCH_WORKERS", &cfg.Fetch.Workers),
		integer("SPLIT_WORKERS", &cfg.Split.Workers),
		integer("SPLIT_BATCH_SIZE", &cfg.Split.BatchSize),
	} {
		if err != nil {
			return err
		}
	}

	if v, ok := lookup(envPrefix + "FETCH_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sFETCH_RPS=%q: %v", core.ErrInvalidConfig, envPrefix, v, err)
		}
		cfg.Fetch.RequestsPerSecond = f
	}
	return nil
}

// SplitList parses a comma separated list, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
