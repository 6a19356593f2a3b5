package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/insight/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Finnhub FinnhubConfig `mapstructure:"finnhub"`
	Facts   FactsConfig   `mapstructure:"facts"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Cache          CacheConfig   `mapstructure:"cache"`
}

// CacheConfig is the Cache-Control hint attached to successful responses.
type CacheConfig struct {
	MaxAge               time.Duration `mapstructure:"max_age"`
	StaleWhileRevalidate time.Duration `mapstructure:"stale_while_revalidate"`
}

type FinnhubConfig struct {
	Token     string        `mapstructure:"token"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // calls per second, 0 = unlimited
	RateBurst int           `mapstructure:"rate_burst"`
}

// FactsConfig holds trailing windows and caps for the fact bundle.
type FactsConfig struct {
	NewsDays            int           `mapstructure:"news_days"`
	InsiderDays         int           `mapstructure:"insider_days"`
	EarningsDays        int           `mapstructure:"earnings_days"`
	NewsLimit           int           `mapstructure:"news_limit"`
	RecommendationLimit int           `mapstructure:"recommendation_limit"`
	InsiderLimit        int           `mapstructure:"insider_limit"`
	EarningsLimit       int           `mapstructure:"earnings_limit"`
	SourceTimeout       time.Duration `mapstructure:"source_timeout"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Claude      ClaudeConfig  `mapstructure:"claude"`
	OpenAI      OpenAIConfig  `mapstructure:"openai"`
	Ollama      OllamaConfig  `mapstructure:"ollama"`
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

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// ArchiveConfig controls the optional transcript archive.
type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// envBindings maps well-known credential variables onto config keys.
var envBindings = map[string][]string{
	"finnhub.token":      {"INSIGHT_FINNHUB_TOKEN", "FINNHUB_TOKEN"},
	"llm.openai.api_key": {"INSIGHT_LLM_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"llm.claude.api_key": {"INSIGHT_LLM_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
}

// Load reads configuration from path, layered over Defaults. An empty path
// means environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix("INSIGHT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
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

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.cache.max_age", d.Server.Cache.MaxAge)
	v.SetDefault("server.cache.stale_while_revalidate", d.Server.Cache.StaleWhileRevalidate)

	v.SetDefault("finnhub.base_url", d.Finnhub.BaseURL)
	v.SetDefault("finnhub.timeout", d.Finnhub.Timeout)
	v.SetDefault("finnhub.rate_limit", d.Finnhub.RateLimit)
	v.SetDefault("finnhub.rate_burst", d.Finnhub.RateBurst)

	v.SetDefault("facts.news_days", d.Facts.NewsDays)
	v.SetDefault("facts.insider_days", d.Facts.InsiderDays)
	v.SetDefault("facts.earnings_days", d.Facts.EarningsDays)
	v.SetDefault("facts.news_limit", d.Facts.NewsLimit)
	v.SetDefault("facts.recommendation_limit", d.Facts.RecommendationLimit)
	v.SetDefault("facts.insider_limit", d.Facts.InsiderLimit)
	v.SetDefault("facts.earnings_limit", d.Facts.EarningsLimit)
	v.SetDefault("facts.source_timeout", d.Facts.SourceTimeout)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.openai.model", d.LLM.OpenAI.Model)
	v.SetDefault("llm.claude.model", d.LLM.Claude.Model)
	v.SetDefault("llm.ollama.endpoint", d.LLM.Ollama.Endpoint)

	v.SetDefault("archive.enabled", d.Archive.Enabled)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Mode:           "release",
			RequestTimeout: 45 * time.Second,
			Cache: CacheConfig{
				MaxAge:               60 * time.Second,
				StaleWhileRevalidate: 120 * time.Second,
			},
		},
		Finnhub: FinnhubConfig{
			BaseURL:   "https://finnhub.io/api/v1",
			Timeout:   10 * time.Second,
			RateLimit: 30,
			RateBurst: 10,
		},
		Facts: FactsConfig{
			NewsDays:            3,
			InsiderDays:         90,
			EarningsDays:        120,
			NewsLimit:           8,
			RecommendationLimit: 3,
			InsiderLimit:        10,
			EarningsLimit:       4,
			SourceTimeout:       8 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			MaxTokens:   1200,
			Temperature: 0.3,
			Timeout:     30 * time.Second,
			OpenAI:      OpenAIConfig{Model: "gpt-4o-mini"},
			Claude:      ClaudeConfig{Model: "claude-sonnet-4-20250514"},
			Ollama:      OllamaConfig{Endpoint: "http://localhost:11434"},
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Type:    "localfs",
			Path:    "./data/transcripts",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for structural errors. Missing
// credentials are reported separately by CheckCredentials.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.RequestTimeout < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("request_timeout cannot be negative, got %s", c.Server.RequestTimeout))
	}

	if c.Finnhub.RateLimit < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("finnhub.rate_limit cannot be negative, got %g", c.Finnhub.RateLimit))
	}

	limits := map[string]int{
		"news_limit":           c.Facts.NewsLimit,
		"recommendation_limit": c.Facts.RecommendationLimit,
		"insider_limit":        c.Facts.InsiderLimit,
		"earnings_limit":       c.Facts.EarningsLimit,
	}
	for name, v := range limits {
		if v < 0 || v > 50 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("facts.%s must be between 0 and 50, got %d", name, v))
		}
	}

	switch c.LLM.Provider {
	case "claude", "openai", "ollama":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive.path required for localfs archive"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive.s3.bucket required for s3 archive"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type %q", c.Archive.Type))
		}
	}

	return nil
}

// CheckCredentials reports every missing credential for the market-data
// provider and the selected model provider.
func (c *Config) CheckCredentials() error {
	var errs []error
	if c.Finnhub.Token == "" {
		errs = append(errs, fmt.Errorf("server missing FINNHUB_TOKEN"))
	}
	switch c.LLM.Provider {
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			errs = append(errs, fmt.Errorf("server missing ANTHROPIC_API_KEY"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			errs = append(errs, fmt.Errorf("server missing OPENAI_API_KEY"))
		}
	case "ollama":
		if c.LLM.Ollama.Endpoint == "" {
			errs = append(errs, fmt.Errorf("server missing llm.ollama.endpoint"))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return core.WrapError(core.ErrConfigMissing, errors.Join(errs...))
}
