package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9000"
store:
  kind: memory
schedule:
  step: 12h
  timezone: UTC
`), 0o600))

	t.Setenv("TODO_DAG_LOG_LEVEL", "debug")
	t.Setenv("PEXELS_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
	assert.Equal(t, 12*time.Hour, cfg.Schedule.Step)
	assert.Equal(t, 23, cfg.Schedule.DueHour, "defaults survive a partial file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "secret", cfg.Images.PexelsAPIKey)
	require.NoError(t, cfg.Validate())

	loc, err := cfg.Schedule.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestApplyFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--store=memory", "--schedule-step=1h"}))

	cfg := Default()
	require.NoError(t, cfg.ApplyFlags(fs))
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
	assert.Equal(t, time.Hour, cfg.Schedule.Step)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr, "unset flags leave values alone")

	require.NoError(t, fs.Set("schedule-step", "soon"))
	require.Error(t, cfg.ApplyFlags(fs))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Store.Kind = "postgres"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Neo4j.URI = ""
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Schedule.DueHour = 24
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Schedule.Timezone = "Mars/Olympus_Mons"
	require.Error(t, cfg.Validate())
}
