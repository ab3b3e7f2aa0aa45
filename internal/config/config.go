package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	Research ResearchConfig `mapstructure:"research"`
	Storage  StorageConfig  `mapstructure:"storage"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Server   ServerConfig   `mapstructure:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DataConfig selects and tunes the price source.
type DataConfig struct {
	Source     string  `mapstructure:"source"` // "stooq", "yahoo" or "synthetic"
	BaseURL    string  `mapstructure:"base_url"`
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	Burst      int     `mapstructure:"burst"`
	MaxRetries int     `mapstructure:"max_retries"`
}

// BacktestConfig holds the portfolio parameters.
type BacktestConfig struct {
	RiskAsset    string  `mapstructure:"risk_asset"`
	SafeAsset    string  `mapstructure:"safe_asset"`
	InitialValue float64 `mapstructure:"initial_value"`
	CostBps      float64 `mapstructure:"cost_bps"` // per side
	Window       int     `mapstructure:"window"`
}

// ResearchConfig holds the variant comparison settings.
type ResearchConfig struct {
	Windows  []int         `mapstructure:"windows"`
	Schedule string        `mapstructure:"schedule"` // cron spec, empty disables
	Webhook  WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig receives scheduled research verdicts. An empty URL disables it.
type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	MaxTurns int          `mapstructure:"max_turns"`
}

type ClaudeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Pair returns the configured risk/safe assets.
func (b BacktestConfig) Pair() core.AssetPair {
	return core.AssetPair{Risk: core.Asset(b.RiskAsset), Safe: core.Asset(b.SafeAsset)}
}

// Load reads configuration from file, layered over Defaults. A .env file in
// the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Defaults())
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads path, or returns Defaults with API keys taken from the
// environment when path is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg := Defaults()
	cfg.LLM.Claude.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.LLM.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data.source", d.Data.Source)
	v.SetDefault("data.rate_per_sec", d.Data.RatePerSec)
	v.SetDefault("data.burst", d.Data.Burst)
	v.SetDefault("data.max_retries", d.Data.MaxRetries)
	v.SetDefault("backtest.risk_asset", d.Backtest.RiskAsset)
	v.SetDefault("backtest.safe_asset", d.Backtest.SafeAsset)
	v.SetDefault("backtest.initial_value", d.Backtest.InitialValue)
	v.SetDefault("backtest.cost_bps", d.Backtest.CostBps)
	v.SetDefault("backtest.window", d.Backtest.Window)
	v.SetDefault("research.windows", d.Research.Windows)
	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.max_turns", d.LLM.MaxTurns)
	v.SetDefault("llm.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("llm.claude.api_key", "${ANTHROPIC_API_KEY}")
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.job_ttl_hours", d.Server.JobTTLHours)
	v.SetDefault("server.max_jobs", d.Server.MaxJobs)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Data: DataConfig{
			Source:     "stooq",
			RatePerSec: 1,
			Burst:      2,
			MaxRetries: 3,
		},
		Backtest: BacktestConfig{
			RiskAsset:    "SPY",
			SafeAsset:    "BIL",
			InitialValue: 100_000,
			CostBps:      5,
			Window:       200,
		},
		Research: ResearchConfig{
			Windows: []int{180, 200, 220},
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "runs",
		},
		LLM: LLMConfig{
			Provider: "openai",
			MaxTurns: 8,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "stooq", "yahoo", "synthetic":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown data source %q", c.Data.Source))
	}
	if c.Data.RatePerSec <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rate_per_sec must be positive, got %g", c.Data.RatePerSec))
	}

	// Backtest validation
	if err := c.Backtest.Pair().Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}
	if c.Backtest.InitialValue <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_value must be positive, got %g", c.Backtest.InitialValue))
	}
	if c.Backtest.CostBps < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cost_bps cannot be negative, got %g", c.Backtest.CostBps))
	}
	if c.Backtest.Window <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("window must be positive, got %d", c.Backtest.Window))
	}

	// Research validation
	if len(c.Research.Windows) == 0 {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("research.windows must list at least one window"))
	}
	for _, w := range c.Research.Windows {
		if w <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("research window must be positive, got %d", w))
		}
	}

	// Storage validation
	switch c.Storage.Type {
	case "localfs":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when storage type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	return nil
}

// ValidateLLM checks that the selected provider has credentials. It is only
// required by the agent command.
func (c *Config) ValidateLLM() error {
	switch c.LLM.Provider {
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("claude api_key required when provider is claude"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openai api_key required when provider is openai"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	return nil
}
