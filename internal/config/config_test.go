package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoziy/workforce/warehouse/internal/database"
	"github.com/mkoziy/workforce/warehouse/internal/ratelimit"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, database.DriverSQLite, s.Database.Driver)
	assert.Equal(t, "datasets", s.Landing.Dir)
	assert.Equal(t, "|", s.Landing.Delimiter)
	assert.Equal(t, 1000, s.Staging.ChunkSize)
	assert.True(t, s.Staging.Validate)
	assert.Equal(t, 15*time.Minute, s.Staging.LockTTL)
	assert.Equal(t, "09:00:00", s.Warehouse.ScheduledStart)
	assert.Equal(t, "17:00:00", s.Warehouse.ScheduledEnd)
	assert.Equal(t, 3, s.Retry.MaxRetries)
	assert.Equal(t, ratelimit.StrategyTokenBucket, s.Sources.RateLimit.Strategy)
	assert.False(t, s.Pipeline.AbortOnValidationFailure)
	assert.Empty(t, s.Sources.URLs)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  dsn: file:from-file.db
landing:
  dir: /data/in
staging:
  chunk_size: 50
  lock_ttl: 2m
retry:
  initial_backoff: 250ms
sources:
  urls:
    - https://example.com/employee_1.csv
`), 0o644))

	t.Setenv("WAREHOUSE_STAGING_CHUNK_SIZE", "75")
	t.Setenv("WAREHOUSE_LOGGING_FORMAT", "json")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dir", "", "")
	flags.Bool("abort-on-validation-failure", false, "")
	require.NoError(t, flags.Parse([]string{"--dir", "/flag/in", "--abort-on-validation-failure"}))

	s, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "file:from-file.db", s.Database.DSN)
	assert.Equal(t, "/flag/in", s.Landing.Dir, "flag beats file")
	assert.Equal(t, 75, s.Staging.ChunkSize, "env beats file")
	assert.Equal(t, 2*time.Minute, s.Staging.LockTTL)
	assert.Equal(t, 250*time.Millisecond, s.Retry.InitialBackoff)
	assert.Equal(t, "json", s.Logging.Format)
	assert.Equal(t, []string{"https://example.com/employee_1.csv"}, s.Sources.URLs)
	assert.True(t, s.Pipeline.AbortOnValidationFailure)
	assert.True(t, s.Warehouse.AbortOnValidationFailure)
}

func TestUnsetFlagKeepsConfigValue(t *testing.T) {
	t.Setenv("WAREHOUSE_LANDING_DIR", "/env/in")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dir", "ignored-default", "")
	require.NoError(t, flags.Parse(nil))

	s, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "/env/in", s.Landing.Dir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	s, err := Load("", nil)
	require.NoError(t, err)

	s.Database.Driver = "mysql"
	s.Landing.Delimiter = "||"
	s.Warehouse.ChunkSize = 0
	s.Warehouse.ScheduledEnd = "5pm"

	err = s.Validate()
	require.Error(t, err)
	for _, key := range []string{"database.driver", "landing.delimiter", "warehouse.chunk_size", "warehouse.scheduled_end"} {
		assert.Contains(t, err.Error(), key)
	}
}
