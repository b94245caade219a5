package models

import "strings"

// Config is the paddock server configuration. Values come from the yaml
// config file; a handful of deployment knobs can be overridden from the
// environment (see EnvOverrides).
type Config struct {
	Port           string   `yaml:"port" json:"port"`
	IsDebug        bool     `yaml:"debug" json:"debug"`
	DatabaseURL    string   `yaml:"db_url" json:"db_url"`
	DatabasePath   string   `yaml:"db_path" json:"db_path"`
	DatabaseDriver string   `yaml:"db_driver" json:"db_driver"`
	RedisURL       string   `yaml:"redis_url" json:"redis_url"`
	JWTKey         string   `yaml:"jwt_key" json:"jwt_key"`
	AdminKey       string   `yaml:"admin_key" json:"admin_key"`
	AdminUser      string   `yaml:"admin_user" json:"admin_user"`
	AdminPassword  string   `yaml:"admin_password" json:"admin_password"`
	Cors           []string `yaml:"cors" json:"cors"`

	OtelEnabled        bool    `yaml:"otel_enabled" json:"otel_enabled"`
	OtelEndpoint       string  `yaml:"otel_endpoint" json:"otel_endpoint"`
	OtelInsecure       bool    `yaml:"otel_insecure" json:"otel_insecure"`
	OtelServiceName    string  `yaml:"otel_service_name" json:"otel_service_name"`
	OtelServiceVersion string  `yaml:"otel_service_version" json:"otel_service_version"`
	OtelSampleRate     float64 `yaml:"otel_sample_rate" json:"otel_sample_rate"`

	LogSamplingTickMs  int `yaml:"log_sampling_tick_ms" json:"log_sampling_tick_ms"`
	LogSamplingAfterMs int `yaml:"log_sampling_after_ms" json:"log_sampling_after_ms"`

	ReminderSpec        string `yaml:"reminder_spec" json:"reminder_spec"`
	ReminderLeadMinutes int    `yaml:"reminder_lead_minutes" json:"reminder_lead_minutes"`

	FixturesCacheTTLSeconds int `yaml:"fixtures_cache_ttl_seconds" json:"fixtures_cache_ttl_seconds"`
}

// EnvOverrides are the environment variables that take precedence over
// the config file. PORT is the one the deployment platform always sets.
type EnvOverrides struct {
	Port        string `env:"PORT"`
	Debug       bool   `env:"DEBUG"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	JWTKey      string `env:"JWT_KEY"`
	AdminKey    string `env:"ADMIN_KEY"`
}

// Apply folds non-empty environment overrides into the config.
func (c *Config) Apply(env EnvOverrides) {
	if env.Port != "" {
		c.Port = env.Port
	}
	if env.Debug {
		c.IsDebug = true
	}
	if env.DatabaseURL != "" {
		c.DatabaseURL = env.DatabaseURL
	}
	if env.RedisURL != "" {
		c.RedisURL = env.RedisURL
	}
	if env.JWTKey != "" {
		c.JWTKey = env.JWTKey
	}
	if env.AdminKey != "" {
		c.AdminKey = env.AdminKey
	}
}

// Defaults fills any unset field with its default value.
func (c *Config) Defaults() {
	if c.Port == "" {
		c.Port = ":8080"
	}
	// platforms export PORT as a bare number
	if !strings.Contains(c.Port, ":") {
		c.Port = ":" + c.Port
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "paddock.db"
	}
	if c.RedisURL == "" {
		c.RedisURL = "localhost:6379"
	}
	if c.OtelServiceName == "" {
		c.OtelServiceName = "paddock"
	}
	if c.OtelSampleRate == 0 {
		c.OtelSampleRate = 1
	}
	if c.ReminderSpec == "" {
		c.ReminderSpec = "@every 1m"
	}
	if c.ReminderLeadMinutes <= 0 {
		c.ReminderLeadMinutes = 60
	}
	if c.FixturesCacheTTLSeconds <= 0 {
		c.FixturesCacheTTLSeconds = 300
	}
}
