package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "PORTABASE"

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string        `mapstructure:"app_name"`
	Env            string        `mapstructure:"app_env"`
	LogLevel       string        `mapstructure:"log_level"`
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	TimeoutSeconds int64         `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
	Output         string        `mapstructure:"output"`
	PublishersFile string        `mapstructure:"publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	JournalTTLSeconds      int64         `mapstructure:"journal_ttl_seconds"`
	JournalCleanupSeconds  int64         `mapstructure:"journal_cleanup_interval_seconds"`
	JournalTTL             time.Duration `mapstructure:"-"`
	JournalCleanupInterval time.Duration `mapstructure:"-"`
}

// Redacted returns a loggable view of the config with the API key masked.
func (c Config) Redacted() map[string]any {
	return map[string]any{
		"app_name":        c.AppName,
		"app_env":         c.Env,
		"log_level":       c.LogLevel,
		"base_url":        c.BaseURL,
		"api_key_set":     c.APIKey != "",
		"timeout":         c.Timeout.String(),
		"output":          c.Output,
		"publishers_file": c.PublishersFile,
		"storage_type":    c.StorageType,
		"bbolt_path":      c.BBoltPath,
		"journal_ttl":     c.JournalTTL.String(),
	}
}

// Load reads configuration from environment variables and config files.
// Explicit values in overrides (usually bound CLI flags) win over both.
func Load(overrides ...map[string]any) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "portabase")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "warn")
	v.SetDefault("base_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("timeout_seconds", 30)
	v.SetDefault("output", "json")
	v.SetDefault("publishers_file", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/journal.db")
	v.SetDefault("journal_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("journal_cleanup_interval_seconds", int64((24*time.Hour)/time.Second))

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, o := range overrides {
		for k, val := range o {
			v.Set(k, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))

	if cfg.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid timeout_seconds (must be positive seconds)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Output {
	case "json", "yaml", "table":
	default:
		return nil, fmt.Errorf("invalid output %q (expected json, yaml or table)", cfg.Output)
	}

	if cfg.JournalTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid journal_ttl_seconds (must be positive seconds)")
	}
	if cfg.JournalCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid journal_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.JournalTTL = time.Duration(cfg.JournalTTLSeconds) * time.Second
	cfg.JournalCleanupInterval = time.Duration(cfg.JournalCleanupSeconds) * time.Second

	return &cfg, nil
}

// RequireCredentials reports a missing base URL or API key.
func (c *Config) RequireCredentials() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required (set %s_BASE_URL or --base-url)", envPrefix)
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required (set %s_API_KEY or --api-key)", envPrefix)
	}
	return nil
}
