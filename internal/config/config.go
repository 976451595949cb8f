// Package config loads warehouse settings from defaults, an optional YAML
// file, WAREHOUSE_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mkoziy/workforce/warehouse/internal/database"
	"github.com/mkoziy/workforce/warehouse/internal/landing"
	"github.com/mkoziy/workforce/warehouse/internal/logging"
	"github.com/mkoziy/workforce/warehouse/internal/pipeline"
	"github.com/mkoziy/workforce/warehouse/internal/ratelimit"
	"github.com/mkoziy/workforce/warehouse/internal/retry"
	"github.com/mkoziy/workforce/warehouse/internal/staging"
	"github.com/mkoziy/workforce/warehouse/internal/warehouse"
)

// EnvPrefix prefixes every environment override, e.g. WAREHOUSE_DATABASE_DSN.
const EnvPrefix = "WAREHOUSE"

// Settings is the full configuration tree.
type Settings struct {
	Database  database.Config      `yaml:"database" mapstructure:"database"`
	Logging   logging.Config       `yaml:"logging" mapstructure:"logging"`
	Landing   landing.Config       `yaml:"landing" mapstructure:"landing"`
	Sources   landing.SourceConfig `yaml:"sources" mapstructure:"sources"`
	Staging   staging.Config       `yaml:"staging" mapstructure:"staging"`
	Warehouse warehouse.Config     `yaml:"warehouse" mapstructure:"warehouse"`
	Pipeline  pipeline.Config      `yaml:"pipeline" mapstructure:"pipeline"`
	Retry     retry.Config         `yaml:"retry" mapstructure:"retry"`
	Quality   QualityConfig        `yaml:"quality" mapstructure:"quality"`
	Metrics   MetricsConfig        `yaml:"metrics" mapstructure:"metrics"`
}

// QualityConfig points at an optional YAML file of rule suite overrides.
type QualityConfig struct {
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// MetricsConfig controls the Prometheus textfile written after each command.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// FlagKeys maps command line flag names to settings keys. Flags missing
// from the set passed to Load are ignored.
var FlagKeys = map[string]string{
	"db-driver":                   "database.driver",
	"dsn":                         "database.dsn",
	"db-debug":                    "database.debug",
	"log-level":                   "logging.level",
	"log-format":                  "logging.format",
	"dir":                         "landing.dir",
	"chunk-size":                  "staging.chunk_size",
	"quality-rules":               "quality.rules_file",
	"metrics-textfile":            "metrics.textfile",
	"abort-on-validation-failure": "pipeline.abort_on_validation_failure",
}

func setDefaults(v *viper.Viper) {
	db := database.Config{Driver: database.DriverSQLite, DSN: "file:warehouse.db"}
	v.SetDefault("database.driver", db.Driver)
	v.SetDefault("database.dsn", db.DSN)
	v.SetDefault("database.debug", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	l := landing.DefaultConfig()
	v.SetDefault("landing.dir", l.Dir)
	v.SetDefault("landing.employee_prefix", l.EmployeePrefix)
	v.SetDefault("landing.timesheet_prefix", l.TimesheetPrefix)
	v.SetDefault("landing.extension", l.Extension)
	v.SetDefault("landing.delimiter", l.Delimiter)
	v.SetDefault("landing.chunk_size", l.ChunkSize)

	rl := ratelimit.DefaultConfig()
	v.SetDefault("sources.urls", []string{})
	v.SetDefault("sources.timeout", 60*time.Second)
	v.SetDefault("sources.rate_limit.strategy", string(rl.Strategy))
	v.SetDefault("sources.rate_limit.requests_per_second", rl.RequestsPerSec)
	v.SetDefault("sources.rate_limit.burst", rl.Burst)
	v.SetDefault("sources.rate_limit.fixed_delay", rl.FixedDelay)

	s := staging.DefaultConfig()
	v.SetDefault("staging.chunk_size", s.ChunkSize)
	v.SetDefault("staging.validate", s.Validate)
	v.SetDefault("staging.lock_ttl", s.LockTTL)

	w := warehouse.DefaultConfig()
	v.SetDefault("warehouse.chunk_size", w.ChunkSize)
	v.SetDefault("warehouse.scheduled_start", w.ScheduledStart)
	v.SetDefault("warehouse.scheduled_end", w.ScheduledEnd)
	v.SetDefault("warehouse.abort_on_validation_failure", false)

	v.SetDefault("pipeline.abort_on_validation_failure", false)

	r := retry.DefaultConfig()
	v.SetDefault("retry.max_retries", r.MaxRetries)
	v.SetDefault("retry.initial_backoff", r.InitialBackoff)
	v.SetDefault("retry.max_backoff", r.MaxBackoff)
	v.SetDefault("retry.backoff_multiplier", r.BackoffMultiplier)

	v.SetDefault("quality.rules_file", "")
	v.SetDefault("metrics.textfile", "")
}

// Load builds Settings. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// One switch governs both the pre-load and the post-load gates.
	if s.Pipeline.AbortOnValidationFailure {
		s.Warehouse.AbortOnValidationFailure = true
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings the pipeline cannot run with.
func (s *Settings) Validate() error {
	var errs []error

	switch s.Database.Driver {
	case database.DriverSQLite, database.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", s.Database.Driver))
	}
	if s.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn: required"))
	}
	if _, err := logging.ParseLevel(s.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if len([]rune(s.Landing.Delimiter)) != 1 {
		errs = append(errs, fmt.Errorf("landing.delimiter: must be a single character, got %q", s.Landing.Delimiter))
	}
	for _, c := range []struct {
		key string
		n   int
	}{
		{"landing.chunk_size", s.Landing.ChunkSize},
		{"staging.chunk_size", s.Staging.ChunkSize},
		{"warehouse.chunk_size", s.Warehouse.ChunkSize},
	} {
		if c.n < 1 {
			errs = append(errs, fmt.Errorf("%s: must be at least 1", c.key))
		}
	}
	for _, c := range []struct {
		key   string
		clock string
	}{
		{"warehouse.scheduled_start", s.Warehouse.ScheduledStart},
		{"warehouse.scheduled_end", s.Warehouse.ScheduledEnd},
	} {
		if _, err := time.Parse(time.TimeOnly, c.clock); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.key, err))
		}
	}
	switch s.Sources.RateLimit.Strategy {
	case ratelimit.StrategyTokenBucket, ratelimit.StrategyFixedDelay:
	default:
		errs = append(errs, fmt.Errorf("sources.rate_limit.strategy: unknown %q", s.Sources.RateLimit.Strategy))
	}

	return errors.Join(errs...)
}
