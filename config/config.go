package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the agent job service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug             bool          `mapstructure:"debug"`
	LogLevel          string        `mapstructure:"log_level"`
	Language          string        `mapstructure:"language"` // answer language injected into the system prompt
	MaxProcessingTime time.Duration `mapstructure:"max_processing_time"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers    map[string]LLMProvider `mapstructure:"providers"`
	DefaultModel string                 `mapstructure:"default_model"`
	MaxRounds    int                    `mapstructure:"max_rounds"` // inference rounds per job
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type    string        `mapstructure:"type"` // openai-compatible
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ToolsConfig contains web tool settings
type ToolsConfig struct {
	Search SearchConfig `mapstructure:"search"`
	Fetch  FetchConfig  `mapstructure:"fetch"`
}

// SearchConfig configures the web_search capability
type SearchConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxResults int           `mapstructure:"max_results"`
}

// FetchConfig configures the fetch_url capability
type FetchConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxChars    int           `mapstructure:"max_chars"`
	FetcherType string        `mapstructure:"fetcher_type"` // http or chromedp
	UserAgent   string        `mapstructure:"user_agent"`
}

// JobsConfig controls job retention and the eviction sweep
type JobsConfig struct {
	Backend       string        `mapstructure:"backend"` // inmemory or redis
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// StorageConfig contains storage configurations
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig contains monitoring settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func (l LLMConfig) Validate() error {
	if len(l.Providers) == 0 {
		return fmt.Errorf("llm.providers: at least one provider required")
	}
	for name, p := range l.Providers {
		if p.Type == "" {
			return fmt.Errorf("llm.providers.%s.type required", name)
		}
	}
	if strings.TrimSpace(l.DefaultModel) == "" {
		return fmt.Errorf("llm.default_model required")
	}
	return nil
}

func (j JobsConfig) Validate() error {
	switch j.Backend {
	case "inmemory", "redis":
	default:
		return fmt.Errorf("jobs.backend must be inmemory or redis, got %q", j.Backend)
	}
	return nil
}

func (r RedisConfig) Validate() error {
	if r.Host == "" {
		return nil // redis optional unless jobs.backend = redis
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required when host is provided")
	}
	return nil
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.language", "English")
	viper.SetDefault("general.max_processing_time", 10*time.Minute)
	viper.SetDefault("server.address", ":8094")
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("llm.default_model", "qwen2.5:7b")
	viper.SetDefault("llm.max_rounds", 10)
	viper.SetDefault("tools.search.timeout", 10*time.Second)
	viper.SetDefault("tools.search.max_results", 5)
	viper.SetDefault("tools.fetch.timeout", 15*time.Second)
	viper.SetDefault("tools.fetch.max_chars", 4000)
	viper.SetDefault("tools.fetch.fetcher_type", "http")
	viper.SetDefault("tools.fetch.user_agent", "agentd/1.0 (+contact@example.com)")
	viper.SetDefault("jobs.backend", "inmemory")
	viper.SetDefault("jobs.retention", 10*time.Minute)
	viper.SetDefault("jobs.sweep_interval", time.Minute)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("AGENTD")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv() // read in environment variables that match (AGENTD_*)

	if err := viper.ReadInConfig(); err != nil {
		// env-only operation is fine; a missing file is not
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if len(config.LLM.Providers) == 0 {
		config.LLM.Providers = map[string]LLMProvider{
			"local": {
				Type:    "openai",
				BaseURL: getenv("AGENTD_LLM_BASE_URL", "http://localhost:11434/v1"),
				APIKey:  os.Getenv("AGENTD_LLM_API_KEY"),
				Timeout: 5 * time.Minute,
			},
		}
	}

	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	if err := config.Jobs.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	return &config
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
