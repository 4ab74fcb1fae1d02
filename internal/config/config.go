// Package config loads server and sync settings from the environment, with
// an optional YAML file for the feed, sync and festival sections.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Security  SecurityConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	Feed      FeedConfig
	Sync      SyncConfig
	Festival  FestivalConfig
	Bootstrap BootstrapConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string // Full PostgreSQL URL
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds session settings
type SecurityConfig struct {
	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// FeedConfig points at the festival program document.
type FeedConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SyncConfig controls the periodic reconciliation.
type SyncConfig struct {
	Schedule string `yaml:"schedule"`
	OnStart  bool   `yaml:"on_start"`
}

// FestivalConfig holds calendar settings.
type FestivalConfig struct {
	Timezone      string `yaml:"timezone"`
	SentinelStage string `yaml:"sentinel_stage"`
	WeekdayLocale string `yaml:"weekday_locale"`

	Location *time.Location `yaml:"-"`
}

// BootstrapConfig seeds accounts and contacts on first start.
type BootstrapConfig struct {
	AdminUsername    string
	AdminPassword    string
	StaffUsername    string
	StaffPassword    string
	ContactsSeedFile string
}

// Load reads configuration from environment variables and validates it
// for the HTTP server.
func Load() (*Config, error) {
	return load((*Config).Validate)
}

// LoadSync reads configuration for the one-shot sync tool, which needs
// neither session nor account settings.
func LoadSync() (*Config, error) {
	return load((*Config).ValidateSync)
}

// LoadDatabase reads only the database settings, for tooling such as the
// migrator.
func LoadDatabase() (DatabaseConfig, error) {
	_ = godotenv.Load("config/local.env")
	_ = godotenv.Load()

	var cfg Config
	if err := cfg.loadDatabase(); err != nil {
		return DatabaseConfig{}, err
	}
	if cfg.Database.URL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}
	return cfg.Database, nil
}

func load(validate func(*Config) error) (*Config, error) {
	_ = godotenv.Load("config/local.env")
	_ = godotenv.Load()

	cfg := &Config{}

	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	if err := cfg.loadServer(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	if err := cfg.loadSecurity(); err != nil {
		return nil, fmt.Errorf("load security config: %w", err)
	}
	cfg.loadCORS()
	cfg.loadLogging()
	if err := cfg.loadFeed(); err != nil {
		return nil, fmt.Errorf("load feed config: %w", err)
	}
	cfg.loadFestival()
	cfg.loadBootstrap()

	if path := os.Getenv("FESTIVAL_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadDatabase() error {
	c.Database.URL = os.Getenv("DATABASE_URL")
	if c.Database.URL != "" {
		return nil
	}

	c.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	c.Database.User = os.Getenv("DB_USER")
	c.Database.Password = os.Getenv("DB_PASSWORD")
	c.Database.Name = os.Getenv("DB_NAME")
	c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	c.Database.Port = port

	if c.Database.User != "" && c.Database.Name != "" {
		u := url.URL{
			Scheme:   "postgresql",
			User:     url.UserPassword(c.Database.User, c.Database.Password),
			Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
			Path:     "/" + c.Database.Name,
			RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
		}
		c.Database.URL = u.String()
	}
	return nil
}

func (c *Config) loadServer() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")
	return nil
}

func (c *Config) loadSecurity() error {
	c.Security.JWTSecret = os.Getenv("JWT_SECRET")

	minutes, err := strconv.Atoi(getEnvOrDefault("SESSION_TTL_MINUTES", "30"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_TTL_MINUTES: %w", err)
	}
	c.Security.SessionTTL = time.Duration(minutes) * time.Minute

	secure, err := strconv.ParseBool(getEnvOrDefault("COOKIE_SECURE", "true"))
	if err != nil {
		return fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}
	c.Security.CookieSecure = secure
	return nil
}

func (c *Config) loadCORS() {
	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			c.CORS.AllowedOrigins = append(c.CORS.AllowedOrigins, trimmed)
		}
	}
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "json")
}

func (c *Config) loadFeed() error {
	c.Feed.URL = os.Getenv("FEED_URL")

	seconds, err := strconv.Atoi(getEnvOrDefault("FEED_TIMEOUT_SECONDS", "30"))
	if err != nil {
		return fmt.Errorf("invalid FEED_TIMEOUT_SECONDS: %w", err)
	}
	c.Feed.Timeout = time.Duration(seconds) * time.Second

	c.Sync.Schedule = getEnvOrDefault("SYNC_SCHEDULE", "@every 1h")
	onStart, err := strconv.ParseBool(getEnvOrDefault("SYNC_ON_START", "false"))
	if err != nil {
		return fmt.Errorf("invalid SYNC_ON_START: %w", err)
	}
	c.Sync.OnStart = onStart
	return nil
}

func (c *Config) loadFestival() {
	c.Festival.Timezone = getEnvOrDefault("FESTIVAL_TIMEZONE", "Europe/Copenhagen")
	c.Festival.SentinelStage = getEnvOrDefault("SENTINEL_STAGE", "TBA")
	c.Festival.WeekdayLocale = getEnvOrDefault("WEEKDAY_LOCALE", "da")
}

func (c *Config) loadBootstrap() {
	c.Bootstrap.AdminUsername = os.Getenv("ADMIN_USERNAME")
	c.Bootstrap.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	c.Bootstrap.StaffUsername = os.Getenv("STAFF_USERNAME")
	c.Bootstrap.StaffPassword = os.Getenv("STAFF_PASSWORD")
	c.Bootstrap.ContactsSeedFile = os.Getenv("CONTACTS_SEED_FILE")
}

// applyFile overlays the YAML sections present in path onto c.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	overlay := struct {
		Feed     *FeedConfig     `yaml:"feed"`
		Sync     *SyncConfig     `yaml:"sync"`
		Festival *FestivalConfig `yaml:"festival"`
	}{&c.Feed, &c.Sync, &c.Festival}
	return yaml.Unmarshal(data, &overlay)
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateSync checks the subset of settings used by a standalone sync run.
// The feed URL is mandatory there.
func (c *Config) ValidateSync() error {
	return c.validate(false)
}

func (c *Config) validate(server bool) error {
	var errors []string

	if c.Database.URL == "" {
		errors = append(errors, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}
	if server {
		errors = append(errors, c.validateServer()...)
	} else if c.Feed.URL == "" {
		errors = append(errors, "FEED_URL is required")
	}
	errors = append(errors, c.validateCommon()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func (c *Config) validateServer() []string {
	var errors []string

	if c.Security.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.Security.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if c.Security.SessionTTL <= 0 {
		errors = append(errors, "SESSION_TTL_MINUTES must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "PORT must be between 1 and 65535")
	}
	if (c.Bootstrap.AdminUsername == "") != (c.Bootstrap.AdminPassword == "") {
		errors = append(errors, "ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	if (c.Bootstrap.StaffUsername == "") != (c.Bootstrap.StaffPassword == "") {
		errors = append(errors, "STAFF_USERNAME and STAFF_PASSWORD must be set together")
	}
	return errors
}

func (c *Config) validateCommon() []string {
	var errors []string

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if c.Feed.URL != "" {
		if u, err := url.Parse(c.Feed.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, "FEED_URL must be an http(s) URL")
		}
	}
	if c.Feed.Timeout <= 0 {
		errors = append(errors, "FEED_TIMEOUT_SECONDS must be positive")
	}
	if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
		errors = append(errors, fmt.Sprintf("SYNC_SCHEDULE is invalid: %v", err))
	}

	loc, err := time.LoadLocation(c.Festival.Timezone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("FESTIVAL_TIMEZONE %q is unknown", c.Festival.Timezone))
	} else {
		c.Festival.Location = loc
	}
	if strings.TrimSpace(c.Festival.SentinelStage) == "" {
		errors = append(errors, "SENTINEL_STAGE must not be empty")
	}
	return errors
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
