// Package config holds run settings and loads them from a YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/artyom/imagedups/internal/actions"
	"github.com/artyom/imagedups/internal/hashing"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultThreshold is the maximum Hamming distance for two images to be
// considered near-duplicates.
const DefaultThreshold = 5

// EnvPrefix prefixes environment variables read by ApplyEnv.
const EnvPrefix = "IMAGEDUPS_"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete set of run settings.
type Config struct {
	HashKind  string `yaml:"hash_type"`
	HashSize  int    `yaml:"hash_size"`
	Threshold int    `yaml:"threshold"`

	Recursive  bool     `yaml:"recursive"`
	Extensions []string `yaml:"extensions"`
	Workers    int      `yaml:"workers"`
	// CachePath is a bbolt file with fingerprints of earlier runs; empty
	// disables the persistent cache.
	CachePath string `yaml:"cache"`

	KeepStrategy string `yaml:"keep_strategy"`
	OutputJSON   string `yaml:"output_json"`
	MoveTo       string `yaml:"move_duplicates_to"`
	Delete       bool   `yaml:"delete"`
	DryRun       bool   `yaml:"dry_run"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		HashKind:     string(hashing.PHash),
		HashSize:     hashing.DefaultSize,
		Threshold:    DefaultThreshold,
		Workers:      runtime.GOMAXPROCS(0),
		KeepStrategy: string(actions.KeepFirst),
		LogLevel:     zerolog.InfoLevel.String(),
	}
}

// Load reads YAML settings from path on top of Default. A missing file is not
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from IMAGEDUPS_* environment variables.
func (c *Config) ApplyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}
	flag := func(name string, dst *bool) error {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("HASH_TYPE", &c.HashKind)
	str("CACHE", &c.CachePath)
	str("KEEP_STRATEGY", &c.KeepStrategy)
	str("OUTPUT_JSON", &c.OutputJSON)
	str("MOVE_DUPLICATES_TO", &c.MoveTo)
	str("LOG_LEVEL", &c.LogLevel)
	if v, ok := os.LookupEnv(EnvPrefix + "EXTENSIONS"); ok {
		c.Extensions = splitList(v)
	}
	return errors.Join(
		num("HASH_SIZE", &c.HashSize),
		num("THRESHOLD", &c.Threshold),
		num("WORKERS", &c.Workers),
		flag("RECURSIVE", &c.Recursive),
		flag("DELETE", &c.Delete),
		flag("DRY_RUN", &c.DryRun),
	)
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Validate reports every problem found, each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	if c.Threshold < 0 {
		bad("threshold must not be negative, got %d", c.Threshold)
	}
	if c.HashSize < hashing.MinSize || c.HashSize > hashing.MaxSize {
		bad("hash size must be within %d..%d, got %d", hashing.MinSize, hashing.MaxSize, c.HashSize)
	}
	if _, err := hashing.ParseKind(c.HashKind); err != nil {
		bad("%v", err)
	}
	if _, err := actions.ParseKeepStrategy(c.KeepStrategy); err != nil {
		bad("%v", err)
	}
	if c.Workers < 1 {
		bad("workers must be at least 1, got %d", c.Workers)
	}
	if c.Delete && c.MoveTo != "" {
		bad("delete and move_duplicates_to are mutually exclusive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		bad("log level: %v", err)
	}
	return errors.Join(errs...)
}

// Level returns parsed LogLevel, info if it cannot be parsed.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
