package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Deck      DeckConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// AIConfig 判分服务配置
// Temperature/MaxContext 沿用历史环境变量 STUDY_TUTOR_TEMPERATURE / STUDY_TUTOR_CTX
type AIConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	DefaultModel   string  `mapstructure:"default_model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxContext     int     `mapstructure:"max_context"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// Timeout 判分请求超时：判分调用阻塞唯一交互流程，必须有界
func (c AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ActiveModel 模型标识，未配置时回退到默认模型
func (c AIConfig) ActiveModel() string {
	if c.Model != "" {
		return c.Model
	}
	return c.DefaultModel
}

type DeckConfig struct {
	Dir     string `mapstructure:"dir"`
	Default string `mapstructure:"default"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("STUDY_TUTOR")
	viper.AutomaticEnv()

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	// AI
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.api_key", "AI_API_KEY")
	viper.BindEnv("ai.model", "AI_MODEL")
	viper.BindEnv("ai.temperature", "STUDY_TUTOR_TEMPERATURE")
	viper.BindEnv("ai.max_context", "STUDY_TUTOR_CTX")

	// Deck
	viper.BindEnv("deck.dir", "DECK_DIR")
	viper.BindEnv("deck.default", "DECK_DEFAULT")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("ai.default_model", "gpt-4o-mini")
	viper.SetDefault("ai.temperature", 0.2)
	viper.SetDefault("ai.max_context", 8192)
	viper.SetDefault("ai.timeout_seconds", 30)
	viper.SetDefault("deck.dir", "decks")
	viper.SetDefault("rate_limit.max_requests", 600)
	viper.SetDefault("rate_limit.window_minutes", 1)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.AI.BaseURL == "" {
		return nil, fmt.Errorf("ai.base_url is required (set AI_BASE_URL or configs/config.yaml)")
	}

	return &cfg, nil
}
