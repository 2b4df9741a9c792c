package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for HealthDeck.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	Channels  ChannelsConfig  `mapstructure:"channels"`
	Security  SecurityConfig  `mapstructure:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// LLMConfig holds analysis provider settings.
type LLMConfig struct {
	DefaultProvider string              `mapstructure:"default_provider"`
	Providers       map[string]Provider `mapstructure:"providers"`
	// RequestsPerMinute caps symptom-analysis calls per user session.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// Provider holds individual analysis provider configuration.
type Provider struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	Timeout   int    `mapstructure:"timeout"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// RemindersConfig holds the background reminder runner settings.
type RemindersConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// CronSpec is the robfig/cron schedule for the reminder sweep.
	CronSpec string `mapstructure:"cron_spec"`
}

// ChannelsConfig holds reminder delivery settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds Telegram delivery settings.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	// ChatIDs maps user email to the Telegram chat receiving reminders.
	ChatIDs map[string]int64 `mapstructure:"chat_ids"`
}

// SecurityConfig holds auth settings.
type SecurityConfig struct {
	JWTSecret    string   `mapstructure:"jwt_secret"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Load loads configuration from file, env, and defaults.
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "healthdeck.db"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "healthdeck.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (HEALTHDECK_SERVER_PORT, etc.)
	v.SetEnvPrefix("HEALTHDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Viper doesn't handle nested provider maps well with env vars.
	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("llm.default_provider", "openai")
	v.SetDefault("llm.providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.providers.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.providers.openai.timeout", 60)
	v.SetDefault("llm.providers.openai.max_tokens", 2048)
	v.SetDefault("llm.requests_per_minute", 10)

	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.cron_spec", "*/15 * * * *")

	v.SetDefault("security.allow_origins", []string{"*"})
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "healthdeck")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".local", "share", "healthdeck")
}

func loadEnvOverrides(cfg *Config) {
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	cfg.LLM.DefaultProvider = getEnv("HEALTHDECK_LLM_DEFAULT_PROVIDER", cfg.LLM.DefaultProvider)

	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]Provider)
	}

	if apiKey := os.Getenv("HEALTHDECK_LLM_PROVIDERS_OPENAI_API_KEY"); apiKey != "" {
		p := cfg.LLM.Providers["openai"]
		p.APIKey = apiKey
		p.BaseURL = getEnv("HEALTHDECK_LLM_PROVIDERS_OPENAI_BASE_URL", p.BaseURL)
		p.Model = getEnv("HEALTHDECK_LLM_PROVIDERS_OPENAI_MODEL", p.Model)
		cfg.LLM.Providers["openai"] = p
	}

	cfg.Server.Address = getEnv("HEALTHDECK_SERVER_ADDRESS", cfg.Server.Address)
	if port := os.Getenv("HEALTHDECK_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	cfg.Storage.DataDir = getEnv("HEALTHDECK_STORAGE_DATA_DIR", cfg.Storage.DataDir)
	cfg.Security.JWTSecret = getEnv("HEALTHDECK_SECURITY_JWT_SECRET", cfg.Security.JWTSecret)
	cfg.Channels.Telegram.BotToken = getEnv("HEALTHDECK_CHANNELS_TELEGRAM_BOT_TOKEN", cfg.Channels.Telegram.BotToken)
}

func validate(cfg *Config) error {
	if cfg.LLM.DefaultProvider == "" {
		return fmt.Errorf("llm.default_provider is required")
	}

	if _, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]; !ok {
		return fmt.Errorf("provider %s not configured", cfg.LLM.DefaultProvider)
	}

	if cfg.Security.JWTSecret == "" {
		secret, err := generateSecret(32)
		if err != nil {
			return fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		cfg.Security.JWTSecret = secret
	}

	return nil
}

func generateSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetProvider returns the provider configuration by name.
func (c *Config) GetProvider(name string) (Provider, bool) {
	p, ok := c.LLM.Providers[name]
	return p, ok
}

// DefaultProvider returns the default provider configuration.
func (c *Config) DefaultProvider() (Provider, error) {
	p, ok := c.LLM.Providers[c.LLM.DefaultProvider]
	if !ok {
		return Provider{}, fmt.Errorf("default provider %s not found", c.LLM.DefaultProvider)
	}
	return p, nil
}
