// Package config loads rosterfeed configuration from defaults, an optional
// YAML file, and ROSTERFEED_* environment overrides, in that order.
package config

import (
	"os"
	"reflect"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/caarlos0/env/v11"
	"github.com/friendsofgo/errors"
	"gopkg.in/yaml.v3"

	"github.com/rshade/rosterfeed/internal/logging"
)

// SchemaVersion is the config schema this build reads. Files declaring a
// newer major version are rejected.
const SchemaVersion = "1.0.0"

// Default tuning values, matching the reference dataset.
const (
	DefaultTotalRecords  = 10000
	DefaultPageSize      = 50
	DefaultSkeletonRows  = 18
	DefaultLookAheadRows = 10
	DefaultDebounce      = 300 * time.Millisecond
	DefaultFetchDelay    = 500 * time.Millisecond
)

// ErrSchemaVersion is returned when a config file declares an incompatible
// schema version.
var ErrSchemaVersion = errors.New("unsupported config schema version")

// Duration is a time.Duration that reads "300ms"-style strings from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return errors.Wrap(err, "decode duration")
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "parse duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Feed tunes the data pipeline.
type Feed struct {
	TotalRecords  int      `yaml:"totalRecords"  env:"TOTAL_RECORDS"`
	PageSize      int      `yaml:"pageSize"      env:"PAGE_SIZE"`
	FetchDelay    Duration `yaml:"fetchDelay"    env:"FETCH_DELAY"`
	Debounce      Duration `yaml:"debounce"      env:"DEBOUNCE"`
	LookAheadRows int      `yaml:"lookAheadRows" env:"LOOKAHEAD_ROWS"`
	SkeletonRows  int      `yaml:"skeletonRows"  env:"SKELETON_ROWS"`
}

// Logging tunes log output.
type Logging struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	File   string `yaml:"file"   env:"LOG_FILE"`
}

// Config is the full rosterfeed configuration.
type Config struct {
	Version string  `yaml:"version" env:"-"`
	Feed    Feed    `yaml:"feed"    envPrefix:"FEED_"`
	Logging Logging `yaml:"logging" envPrefix:""`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: SchemaVersion,
		Feed: Feed{
			TotalRecords:  DefaultTotalRecords,
			PageSize:      DefaultPageSize,
			FetchDelay:    Duration(DefaultFetchDelay),
			Debounce:      Duration(DefaultDebounce),
			LookAheadRows: DefaultLookAheadRows,
			SkeletonRows:  DefaultSkeletonRows,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the effective configuration: defaults, overlaid by the YAML
// file at path (when non-empty), overlaid by environment variables. A
// missing file at an explicitly given path is an error; an empty path skips
// the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // Path comes from the user's own flag.
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config file")
		}
		if err := checkSchemaVersion(cfg.Version); err != nil {
			return nil, err
		}
	}

	opts := env.Options{
		Prefix: "ROSTERFEED_",
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(Duration(0)): func(v string) (interface{}, error) {
				parsed, err := time.ParseDuration(v)
				if err != nil {
					return nil, errors.Wrapf(err, "parse duration %q", v)
				}
				return Duration(parsed), nil
			},
		},
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, errors.Wrap(err, "parse environment overrides")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the effective configuration for values the pipeline
// cannot work with.
func (c *Config) Validate() error {
	if c.Feed.TotalRecords <= 0 {
		return errors.New("feed.totalRecords must be > 0")
	}
	if c.Feed.PageSize <= 0 {
		return errors.New("feed.pageSize must be > 0")
	}
	if c.Feed.SkeletonRows < 0 {
		return errors.New("feed.skeletonRows must be >= 0")
	}
	if c.Feed.LookAheadRows <= 0 {
		return errors.New("feed.lookAheadRows must be > 0")
	}
	if c.Feed.Debounce < 0 {
		return errors.New("feed.debounce must be >= 0")
	}
	if c.Feed.FetchDelay < 0 {
		return errors.New("feed.fetchDelay must be >= 0")
	}
	return nil
}

// ToLoggingConfig adapts the logging section for the logging package.
func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		File:   c.Logging.File,
	}
}

// checkSchemaVersion accepts any schema version with the same major as
// SchemaVersion. An empty version is treated as current (pre-versioned
// files).
func checkSchemaVersion(version string) error {
	if version == "" {
		return nil
	}

	declared, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(ErrSchemaVersion, "invalid version %q", version)
	}

	supported := semver.MustParse(SchemaVersion)
	if declared.Major() != supported.Major() {
		return errors.Wrapf(ErrSchemaVersion, "file declares %s, this build reads %s", version, SchemaVersion)
	}

	return nil
}
