package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	PostgresURL      string `mapstructure:"POSTGRES_URL"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	PostgresMaxConns int    `mapstructure:"POSTGRES_MAX_CONNS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	BrowserHeadless       bool   `mapstructure:"BROWSER_HEADLESS"`
	BrowserUserAgent      string `mapstructure:"BROWSER_USER_AGENT"`
	BrowserExecPath       string `mapstructure:"BROWSER_EXEC_PATH"`
	BrowserProxy          string `mapstructure:"BROWSER_PROXY"`
	BrowserAcceptLanguage string `mapstructure:"BROWSER_ACCEPT_LANGUAGE"`
	BrowserStartupTimeout int    `mapstructure:"BROWSER_STARTUP_TIMEOUT_SECONDS"`
	NavigationTimeout     int    `mapstructure:"NAVIGATION_TIMEOUT_SECONDS"`
	ReadyTimeout          int    `mapstructure:"READY_TIMEOUT_SECONDS"`
	NavigationsPerMinute  int    `mapstructure:"NAVIGATIONS_PER_MINUTE"`

	Sources         string `mapstructure:"SOURCES"`
	ParallelSources bool   `mapstructure:"PARALLEL_SOURCES"`
	SearchQuery     string `mapstructure:"SEARCH_QUERY"`
	SearchLocation  string `mapstructure:"SEARCH_LOCATION"`

	RunDedupMinutes int    `mapstructure:"RUN_DEDUP_MINUTES"`
	MaxRetries      int    `mapstructure:"MAX_RETRIES"`
	IngestWorkers   int    `mapstructure:"INGEST_WORKERS"`
	IngestSchedule  string `mapstructure:"INGEST_SCHEDULE"`
}

// Load reads configuration from an optional .env file and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "postgres")
	v.SetDefault("POSTGRES_MAX_CONNS", 4)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("BROWSER_HEADLESS", true)
	v.SetDefault("BROWSER_USER_AGENT", defaultUserAgent)
	v.SetDefault("BROWSER_EXEC_PATH", "")
	v.SetDefault("BROWSER_PROXY", "")
	v.SetDefault("BROWSER_ACCEPT_LANGUAGE", "en-AU,en;q=0.9")
	v.SetDefault("BROWSER_STARTUP_TIMEOUT_SECONDS", 30)
	v.SetDefault("NAVIGATION_TIMEOUT_SECONDS", 60)
	v.SetDefault("READY_TIMEOUT_SECONDS", 10)
	v.SetDefault("NAVIGATIONS_PER_MINUTE", 20)

	v.SetDefault("SOURCES", "LinkedIn,Seek,Glassdoor")
	v.SetDefault("PARALLEL_SOURCES", false)
	v.SetDefault("SEARCH_QUERY", "Computer Science Internship")
	v.SetDefault("SEARCH_LOCATION", "Australia")

	v.SetDefault("RUN_DEDUP_MINUTES", 60)
	v.SetDefault("MAX_RETRIES", 2)
	v.SetDefault("INGEST_WORKERS", 1)
	v.SetDefault("INGEST_SCHEDULE", "")
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("NAVIGATION_TIMEOUT_SECONDS must be positive"))
	}
	if c.BrowserStartupTimeout <= 0 {
		errs = append(errs, errors.New("BROWSER_STARTUP_TIMEOUT_SECONDS must be positive"))
	}
	if c.ReadyTimeout < 0 {
		errs = append(errs, errors.New("READY_TIMEOUT_SECONDS must not be negative"))
	}
	if c.NavigationsPerMinute < 0 {
		errs = append(errs, errors.New("NAVIGATIONS_PER_MINUTE must not be negative"))
	}
	if c.IngestWorkers <= 0 {
		errs = append(errs, errors.New("INGEST_WORKERS must be positive"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("MAX_RETRIES must not be negative"))
	}
	if len(c.SourceNames()) == 0 {
		errs = append(errs, errors.New("SOURCES must name at least one source"))
	}
	if strings.TrimSpace(c.BrowserUserAgent) == "" {
		errs = append(errs, errors.New("BROWSER_USER_AGENT must not be empty"))
	}
	return errors.Join(errs...)
}

// PostgresDSN returns POSTGRES_URL or a connection string built from its parts.
func (c *Config) PostgresDSN() string {
	if c.PostgresURL != "" {
		return c.PostgresURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%s", c.PostgresHost, c.PostgresPort),
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// SourceNames splits SOURCES into trimmed, non-empty names.
func (c *Config) SourceNames() []string {
	var names []string
	for _, s := range strings.Split(c.Sources, ",") {
		if s = strings.TrimSpace(s); s != "" {
			names = append(names, s)
		}
	}
	return names
}

func (c *Config) StartupTimeout() time.Duration {
	return time.Duration(c.BrowserStartupTimeout) * time.Second
}

func (c *Config) NavigationDeadline() time.Duration {
	return time.Duration(c.NavigationTimeout) * time.Second
}

func (c *Config) ReadyDeadline() time.Duration {
	return time.Duration(c.ReadyTimeout) * time.Second
}

func (c *Config) RunDedupWindow() time.Duration {
	return time.Duration(c.RunDedupMinutes) * time.Minute
}
