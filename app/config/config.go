package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreNeo4j  = "neo4j"
	StoreMemory = "memory"
)

// Config is the service configuration. Values come from Default, then an
// optional YAML file, then TODO_DAG_* environment variables, then flags.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Store    StoreConfig    `yaml:"store"`
	Neo4j    Neo4jConfig    `yaml:"neo4j"`
	Log      LogConfig      `yaml:"log"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Images   ImagesConfig   `yaml:"images"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StoreConfig struct {
	Kind string `yaml:"kind"`
	// Seed is a YAML snapshot loaded into the memory store at startup.
	Seed string `yaml:"seed"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScheduleConfig controls how dates are interpreted and scheduled.
type ScheduleConfig struct {
	// Step is added to a task's latest predecessor finish time. Zero means
	// one calendar day.
	Step time.Duration `yaml:"step"`
	// DueHour and DueMinute are applied to date-only due dates.
	DueHour   int    `yaml:"due_hour"`
	DueMinute int    `yaml:"due_minute"`
	Timezone  string `yaml:"timezone"`
}

// ImagesConfig configures the Pexels lookup used to decorate new tasks.
type ImagesConfig struct {
	PexelsAPIKey string        `yaml:"pexels_api_key"`
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP:  HTTPConfig{Addr: "0.0.0.0:8080", ShutdownTimeout: 10 * time.Second},
		Store: StoreConfig{Kind: StoreNeo4j},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://neo4j:7687",
			Username: "neo4j",
			Password: "password",
		},
		Log:      LogConfig{Level: "info", Format: "json"},
		Schedule: ScheduleConfig{DueHour: 23, DueMinute: 59, Timezone: "Local"},
		Images:   ImagesConfig{BaseURL: "https://api.pexels.com", Timeout: 5 * time.Second},
	}
}

// Load reads the file at path (if non-empty) over the defaults and applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail deep inside startup.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreNeo4j:
		if c.Neo4j.URI == "" {
			return errors.New("neo4j.uri is required for the neo4j store")
		}
	case StoreMemory:
	default:
		return errors.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.Schedule.Step < 0 {
		return errors.Errorf("schedule.step must not be negative, got %s", c.Schedule.Step)
	}
	if c.Schedule.DueHour < 0 || c.Schedule.DueHour > 23 || c.Schedule.DueMinute < 0 || c.Schedule.DueMinute > 59 {
		return errors.Errorf("invalid due time of day %02d:%02d", c.Schedule.DueHour, c.Schedule.DueMinute)
	}
	if _, err := c.Schedule.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load timezone %q", s.Timezone)
	}
	return loc, nil
}

// ApplyEnv overrides fields from the environment via lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, o := range c.overrides() {
		if v, ok := lookup(o.env); ok {
			if err := o.set(v); err != nil {
				return errors.Wrapf(err, "env %s", o.env)
			}
		}
	}
	return nil
}

// RegisterFlags adds one flag per overridable setting to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, o := range Default().overrides() {
		fs.String(o.flag, "", o.usage)
	}
}

// ApplyFlags overrides fields from flags that were set on fs.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	for _, o := range c.overrides() {
		f := fs.Lookup(o.flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := o.set(f.Value.String()); err != nil {
			return errors.Wrapf(err, "flag --%s", o.flag)
		}
	}
	return nil
}

type override struct {
	env, flag, usage string
	set              func(string) error
}

func (c *Config) overrides() []override {
	str := func(dst *string) func(string) error {
		return func(v string) error { *dst = v; return nil }
	}
	dur := func(dst *time.Duration) func(string) error {
		return func(v string) error {
			if v == "" {
				*dst = 0
				return nil
			}
			d, err := time.ParseDuration(v)
			if err != nil {
				return errors.WithStack(err)
			}
			*dst = d
			return nil
		}
	}
	return []override{
		{"TODO_DAG_HTTP_ADDR", "addr", "HTTP listen address", str(&c.HTTP.Addr)},
		{"TODO_DAG_STORE", "store", "task store: neo4j or memory", str(&c.Store.Kind)},
		{"TODO_DAG_STORE_SEED", "seed", "YAML snapshot loaded into the memory store", str(&c.Store.Seed)},
		{"TODO_DAG_NEO4J_URI", "neo4j-uri", "Neo4j connection URI", str(&c.Neo4j.URI)},
		{"TODO_DAG_NEO4J_USERNAME", "neo4j-username", "Neo4j username", str(&c.Neo4j.Username)},
		{"TODO_DAG_NEO4J_PASSWORD", "neo4j-password", "Neo4j password", str(&c.Neo4j.Password)},
		{"TODO_DAG_NEO4J_DATABASE", "neo4j-database", "Neo4j database name", str(&c.Neo4j.Database)},
		{"TODO_DAG_LOG_LEVEL", "log-level", "log level (debug, info, warn, error)", str(&c.Log.Level)},
		{"TODO_DAG_LOG_FORMAT", "log-format", "log format: json or console", str(&c.Log.Format)},
		{"TODO_DAG_SCHEDULE_STEP", "schedule-step", "gap between a predecessor's finish and a dependent's start (empty: one calendar day)", dur(&c.Schedule.Step)},
		{"TODO_DAG_TIMEZONE", "timezone", "timezone for date-only due dates", str(&c.Schedule.Timezone)},
		{"PEXELS_API_KEY", "pexels-api-key", "Pexels API key for task images", str(&c.Images.PexelsAPIKey)},
	}
}
