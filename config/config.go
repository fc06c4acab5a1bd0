// Package config provides configuration management for the relay.
// Values come from the environment (optionally seeded from a .env
// file) with sensible defaults; the loaded Config is passed explicitly
// into the server and relay at startup.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"rivachat/internal/core"
)

// Backend identifiers accepted in RELAY_BACKEND.
const (
	BackendBedrock   = "bedrock"
	BackendAnthropic = "anthropic"
)

// DefaultBodySizeLimit caps incoming request bodies (1MB). Chat
// requests are small; anything larger is rejected before parsing.
const DefaultBodySizeLimit int64 = 1 << 20

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig
	Relay     RelayConfig
	Bedrock   BedrockConfig
	Anthropic AnthropicConfig
	Metrics   MetricsConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          string
	BodySizeLimit int64
	CORSOrigins   []string
}

// RelayConfig holds relay behavior and validation limits.
type RelayConfig struct {
	Backend           string
	HeartbeatInterval time.Duration
	TemperatureMin    float64
	TemperatureMax    float64
	MaxTokensLimit    int
	MaxMessages       int
	MaxContentChars   int
}

// Bounds converts the configured limits to the core validation type.
func (r RelayConfig) Bounds() core.Bounds {
	return core.Bounds{
		TemperatureMin:  r.TemperatureMin,
		TemperatureMax:  r.TemperatureMax,
		MaxTokensLimit:  r.MaxTokensLimit,
		MaxMessages:     r.MaxMessages,
		MaxContentChars: r.MaxContentChars,
	}
}

// BedrockConfig holds the AWS Bedrock backend configuration. Region
// and profile feed standard AWS credential resolution; both are opaque
// to the relay itself.
type BedrockConfig struct {
	Region  string
	ModelID string
	Profile string
}

// AnthropicConfig holds the direct Anthropic API backend configuration.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // auto, json, text
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present.
func Load() (*Config, error) {
	// Seed the process environment from .env (optional, dev convenience)
	_ = godotenv.Load() //nolint:errcheck

	viper.AutomaticEnv()

	setDefaults()

	cfg := &Config{
		Server: ServerConfig{
			Port:          viper.GetString("PORT"),
			BodySizeLimit: viper.GetInt64("BODY_SIZE_LIMIT"),
			CORSOrigins:   viper.GetStringSlice("CORS_ORIGINS"),
		},
		Relay: RelayConfig{
			Backend:           viper.GetString("RELAY_BACKEND"),
			HeartbeatInterval: viper.GetDuration("RELAY_HEARTBEAT_INTERVAL"),
			TemperatureMin:    viper.GetFloat64("RELAY_TEMPERATURE_MIN"),
			TemperatureMax:    viper.GetFloat64("RELAY_TEMPERATURE_MAX"),
			MaxTokensLimit:    viper.GetInt("RELAY_MAX_TOKENS_LIMIT"),
			MaxMessages:       viper.GetInt("RELAY_MAX_MESSAGES"),
			MaxContentChars:   viper.GetInt("RELAY_MAX_CONTENT_CHARS"),
		},
		Bedrock: BedrockConfig{
			Region:  firstNonEmpty(viper.GetString("BEDROCK_REGION"), viper.GetString("AWS_REGION")),
			ModelID: viper.GetString("BEDROCK_MODEL_ID"),
			Profile: viper.GetString("AWS_PROFILE"),
		},
		Anthropic: AnthropicConfig{
			APIKey:  viper.GetString("ANTHROPIC_API_KEY"),
			BaseURL: viper.GetString("ANTHROPIC_BASE_URL"),
			Model:   viper.GetString("ANTHROPIC_MODEL"),
		},
		Metrics: MetricsConfig{
			Enabled:  viper.GetBool("METRICS_ENABLED"),
			Endpoint: viper.GetString("METRICS_ENDPOINT"),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("BODY_SIZE_LIMIT", DefaultBodySizeLimit)
	viper.SetDefault("CORS_ORIGINS", []string{"*"})

	viper.SetDefault("RELAY_BACKEND", BackendBedrock)
	viper.SetDefault("RELAY_HEARTBEAT_INTERVAL", "15s")
	viper.SetDefault("RELAY_TEMPERATURE_MIN", 0.0)
	viper.SetDefault("RELAY_TEMPERATURE_MAX", 1.0)
	viper.SetDefault("RELAY_MAX_TOKENS_LIMIT", 4096)
	viper.SetDefault("RELAY_MAX_MESSAGES", 50)
	viper.SetDefault("RELAY_MAX_CONTENT_CHARS", 32000)

	viper.SetDefault("BEDROCK_REGION", "")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("BEDROCK_MODEL_ID", "anthropic.claude-3-5-sonnet-20240620-v1:0")

	viper.SetDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1")
	viper.SetDefault("ANTHROPIC_MODEL", "claude-3-5-sonnet-20240620")

	viper.SetDefault("METRICS_ENABLED", true)
	viper.SetDefault("METRICS_ENDPOINT", "/metrics")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "auto")
}

func (c *Config) validate() error {
	switch c.Relay.Backend {
	case BackendBedrock, BackendAnthropic:
	default:
		return fmt.Errorf("unknown RELAY_BACKEND %q (expected %q or %q)",
			c.Relay.Backend, BackendBedrock, BackendAnthropic)
	}
	if c.Relay.TemperatureMin > c.Relay.TemperatureMax {
		return fmt.Errorf("RELAY_TEMPERATURE_MIN %g exceeds RELAY_TEMPERATURE_MAX %g",
			c.Relay.TemperatureMin, c.Relay.TemperatureMax)
	}
	if c.Relay.HeartbeatInterval <= 0 {
		return fmt.Errorf("RELAY_HEARTBEAT_INTERVAL must be positive")
	}
	if c.Relay.Backend == BackendAnthropic && c.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when RELAY_BACKEND=anthropic")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
