package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/forgeline/artifact-gateway/internal/adapters/anthropic"
	"github.com/forgeline/artifact-gateway/internal/adapters/groq"
	"github.com/forgeline/artifact-gateway/internal/adapters/openai"
	"github.com/forgeline/artifact-gateway/internal/middleware"
	"github.com/forgeline/artifact-gateway/internal/security"
	"github.com/forgeline/artifact-gateway/internal/server"
)

// Config represents the complete gateway configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Router   RouterConfig   `yaml:"router"`
	Adapters AdaptersConfig `yaml:"adapters"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// RouterConfig holds routing engine configuration.
type RouterConfig struct {
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	AttemptTimeout      time.Duration `yaml:"attempt_timeout"`
}

// AdaptersConfig holds configuration for all provider adapters.
type AdaptersConfig struct {
	FastInference  *groq.Config      `yaml:"fast_inference"`
	GeneralPurpose *openai.Config    `yaml:"general_purpose"`
	CodeSpecialist *anthropic.Config `yaml:"code_specialist"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
	Output string `yaml:"output"` // "stdout", "stderr", or file path
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	APIKeys    []string                    `yaml:"api_keys"`
	JWTSecret  string                      `yaml:"jwt_secret"`
	JWTExpiry  time.Duration               `yaml:"jwt_expiry"`
	RateLimit  security.RateLimitConfig    `yaml:"rate_limiting"`
	Validation middleware.ValidationConfig `yaml:"request_validation"`
}

// Load reads configuration with defaults → file → environment precedence.
func Load(configPath string) (*Config, error) {
	config := &Config{}
	config.setDefaults()

	if configPath != "" {
		if err := config.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	config.loadFromEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (c *Config) setDefaults() {
	c.Server = ServerConfig{
		Port:           "8080",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	c.Router = RouterConfig{
		HealthCheckInterval: 30 * time.Second,
		AttemptTimeout:      60 * time.Second,
	}

	c.Adapters = AdaptersConfig{
		FastInference: &groq.Config{
			Model:   "llama-3.3-70b-versatile",
			Timeout: 60 * time.Second,
		},
		GeneralPurpose: &openai.Config{
			Model:   "gpt-4o",
			Timeout: 60 * time.Second,
		},
		CodeSpecialist: &anthropic.Config{
			Model:     "claude-3-5-sonnet-20241022",
			MaxTokens: 4096,
			Timeout:   60 * time.Second,
		},
	}

	c.Store = StoreConfig{
		Enabled: true,
		DSN:     "gateway.db",
	}

	c.Logging = LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}

	c.Security = SecurityConfig{
		RateLimit: security.RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Validation: middleware.ValidationConfig{
			Enabled:  false,
			SpecPath: "docs/openapi.yaml",
		},
	}
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return nil
}

func (c *Config) loadFromEnv() {
	if port := os.Getenv("GATEWAY_PORT"); port != "" {
		c.Server.Port = port
	}

	if key := os.Getenv("GROQ_API_KEY"); key != "" && c.Adapters.FastInference != nil {
		c.Adapters.FastInference.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Adapters.GeneralPurpose != nil {
		c.Adapters.GeneralPurpose.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && c.Adapters.CodeSpecialist != nil {
		c.Adapters.CodeSpecialist.APIKey = key
	}

	if level := os.Getenv("GATEWAY_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("GATEWAY_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}
	if dsn := os.Getenv("GATEWAY_STORE_DSN"); dsn != "" {
		c.Store.DSN = dsn
	}
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Router.HealthCheckInterval <= 0 {
		return fmt.Errorf("health check interval must be positive")
	}
	if c.Router.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt timeout must be positive")
	}

	// The general-purpose adapter is the catch-all of every fallback chain;
	// the gateway cannot start without it.
	if c.Adapters.GeneralPurpose == nil || c.Adapters.GeneralPurpose.APIKey == "" {
		return fmt.Errorf("general-purpose adapter requires an API key (OPENAI_API_KEY)")
	}

	if c.Store.Enabled && c.Store.DSN == "" {
		return fmt.Errorf("store DSN is required when the store is enabled")
	}

	return nil
}

// ToServerConfig converts to the server package's config.
func (c *Config) ToServerConfig() *server.Config {
	cfg := &server.Config{
		Port:           c.Server.Port,
		ReadTimeout:    c.Server.ReadTimeout,
		WriteTimeout:   c.Server.WriteTimeout,
		MaxHeaderBytes: c.Server.MaxHeaderBytes,
		RateLimit:      &c.Security.RateLimit,
		Validation:     &c.Security.Validation,
	}

	cfg.Auth = &security.Config{
		APIKeys:     c.Security.APIKeys,
		JWTSecret:   c.Security.JWTSecret,
		JWTExpiry:   c.Security.JWTExpiry,
		RequireAuth: len(c.Security.APIKeys) > 0 || c.Security.JWTSecret != "",
	}

	return cfg
}

// EnabledAdapters returns the adapter roles that have credentials configured.
func (c *Config) EnabledAdapters() []string {
	var enabled []string
	if c.Adapters.FastInference != nil && c.Adapters.FastInference.APIKey != "" {
		enabled = append(enabled, "fast-inference")
	}
	if c.Adapters.GeneralPurpose != nil && c.Adapters.GeneralPurpose.APIKey != "" {
		enabled = append(enabled, "general-purpose")
	}
	if c.Adapters.CodeSpecialist != nil && c.Adapters.CodeSpecialist.APIKey != "" {
		enabled = append(enabled, "code-specialist")
	}
	return enabled
}
