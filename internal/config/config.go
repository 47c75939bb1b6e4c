// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr      string        `mapstructure:"HTTP_ADDR"`
	CORSOrigins   []string      `mapstructure:"CORS_ORIGINS"`
	DBURL         string        `mapstructure:"DB_URL"`
	MigrationsURL string        `mapstructure:"MIGRATIONS_URL"`
	GithubToken   string        `mapstructure:"GITHUB_TOKEN"`
	GithubAPIURL  string        `mapstructure:"GITHUB_API_URL"`
	GithubTimeout time.Duration `mapstructure:"GITHUB_TIMEOUT"`

	AIProvider    string        `mapstructure:"AI_PROVIDER"`
	AITimeout     time.Duration `mapstructure:"AI_TIMEOUT"`
	GeminiAPIKey  string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel   string        `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL string        `mapstructure:"GEMINI_BASE_URL"`
	OpenAIAPIKey  string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel   string        `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL string        `mapstructure:"OPENAI_BASE_URL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	CooldownWindow  time.Duration `mapstructure:"COOLDOWN_WINDOW"`
	CooldownBackend string        `mapstructure:"COOLDOWN_BACKEND"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
}

var defaults = map[string]any{
	"LOG_LEVEL":        "info",
	"HTTP_ADDR":        ":5000",
	"CORS_ORIGINS":     "http://localhost:3000",
	"MIGRATIONS_URL":   "file://migrations",
	"GITHUB_TIMEOUT":   "10s",
	"AI_PROVIDER":      "gemini",
	"AI_TIMEOUT":       "60s",
	"GEMINI_MODEL":     "gemini-2.5-flash",
	"OPENAI_MODEL":     "gpt-4o-mini",
	"JWT_TTL":          "168h",
	"COOLDOWN_WINDOW":  "5s",
	"COOLDOWN_BACKEND": "memory",
	"REDIS_ADDR":       "localhost:6379",
	"REDIS_DB":         0,
}

// keys without a default still need binding so Unmarshal sees them.
var envOnly = []string{
	"DB_URL", "GITHUB_TOKEN", "GITHUB_API_URL",
	"GEMINI_API_KEY", "GEMINI_BASE_URL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"JWT_SECRET", "REDIS_PASSWORD",
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	return load(".")
}

// LoadToolConfig loads the same sources but only requires the database and token settings.
func LoadToolConfig() (*Config, error) {
	cfg, err := read(".")
	if err != nil {
		return nil, err
	}
	if err := cfg.validateCore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(configPath string) (*Config, error) {
	cfg, err := read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(configPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(configPath)
	_ = v.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnly {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.AIProvider = strings.ToLower(strings.TrimSpace(cfg.AIProvider))
	cfg.CooldownBackend = strings.ToLower(strings.TrimSpace(cfg.CooldownBackend))
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	return &cfg, nil
}

func (c *Config) validateCore() error {
	// Validate required fields
	if c.DBURL == "" {
		return errors.New("DB_URL is a required configuration field")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is a required configuration field")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be a positive duration")
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.validateCore(); err != nil {
		return err
	}

	switch c.AIProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when AI_PROVIDER is gemini")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when AI_PROVIDER is openai")
		}
	default:
		return fmt.Errorf("AI_PROVIDER must be gemini or openai, got %q", c.AIProvider)
	}

	switch c.CooldownBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when COOLDOWN_BACKEND is redis")
		}
	default:
		return fmt.Errorf("COOLDOWN_BACKEND must be memory or redis, got %q", c.CooldownBackend)
	}

	if c.GithubTimeout <= 0 || c.AITimeout <= 0 || c.CooldownWindow <= 0 {
		return errors.New("GITHUB_TIMEOUT, AI_TIMEOUT and COOLDOWN_WINDOW must be positive durations")
	}
	return nil
}

// splitList accepts both repeated values and a single comma-separated value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
