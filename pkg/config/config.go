// Package config loads service settings from defaults, an optional YAML file
// and ADVENT_ environment variables.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/arnavshah/advent-allocator/pkg/allocator"
	"github.com/arnavshah/advent-allocator/pkg/database"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rotisserie/eris"
)

// EnvPrefix prefixes every environment variable the service reads
const EnvPrefix = "ADVENT_"

// Config contains process configuration
type Config struct {
	// Addr is the HTTP listen address. PORT overrides it for hosted runtimes.
	Addr string `koanf:"addr"`

	LogLevel  string `koanf:"log_level"`
	LogPretty bool   `koanf:"log_pretty"`

	// FixedParticipant always receives day 24.
	FixedParticipant string `koanf:"fixed_participant"`
	// NeverFirst labels are kept off day 1.
	NeverFirst []string `koanf:"never_first"`
	// Year is the calendar year pickup rules are computed for.
	Year int `koanf:"year"`

	DBDSN  string        `koanf:"db_dsn"`
	RunTTL time.Duration `koanf:"run_ttl"`

	FetchTimeout   time.Duration `koanf:"fetch_timeout"`
	MaxUploadBytes int64         `koanf:"max_upload_bytes"`

	TraceStdout bool `koanf:"trace_stdout"`
}

// New returns a Config with defaults
func New() *Config {
	policy := allocator.DefaultPolicy()
	return &Config{
		Addr:             ":8000",
		LogLevel:         "info",
		FixedParticipant: policy.FixedParticipant,
		NeverFirst:       policy.NeverFirst,
		Year:             2025,
		DBDSN:            database.MemoryDSN,
		RunTTL:           24 * time.Hour,
		FetchTimeout:     15 * time.Second,
		MaxUploadBytes:   5 << 20,
	}
}

// Policy builds the allocation rules from the configuration
func (c *Config) Policy() allocator.Policy {
	return allocator.Policy{
		FixedParticipant: c.FixedParticipant,
		NeverFirst:       append([]string(nil), c.NeverFirst...),
	}
}

// LoadDotEnv loads the first .env file found in the usual locations
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env", "../.env", "../../.env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load layers defaults, the YAML file named by ADVENT_CONFIG and ADVENT_ env vars
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, eris.Wrapf(err, "failed to load config file %s", path)
		}
	}

	// ADVENT_RUN_TTL -> run_ttl
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, eris.Wrap(err, "failed to load environment")
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, eris.Wrap(err, "failed to decode config")
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	cfg.NeverFirst = splitList(cfg.NeverFirst)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the service cannot run without
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	if strings.TrimSpace(c.FixedParticipant) == "" {
		return errors.New("fixed_participant must not be empty")
	}
	if c.Year < 1 || c.Year > 9999 {
		return errors.New("year must be between 1 and 9999")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	return nil
}

// splitList accepts both YAML lists and comma separated env values
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
