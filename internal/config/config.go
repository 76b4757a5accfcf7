// Package config handles loading and validating the voicecart configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nadzzz/voicecart/internal/language"
)

// Config is the root configuration for the voicecart daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Voice      VoiceConfig      `mapstructure:"voice"`
	Recognizer RecognizerConfig `mapstructure:"recognizer"`
	Storefront StorefrontConfig `mapstructure:"storefront"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health and metrics server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"` // WebSocket origins; empty allows same-host only
}

// VoiceConfig holds interpreter settings. The language table itself is fixed.
type VoiceConfig struct {
	DefaultLanguage string `mapstructure:"default_language"` // one of en-US, ta-IN, si-LK
}

// RecognizerConfig selects the server-side speech recognizer.
type RecognizerConfig struct {
	Backend string        `mapstructure:"backend"` // "whisper" or "none"
	Whisper WhisperConfig `mapstructure:"whisper"`
}

// WhisperConfig holds Whisper-compatible transcription endpoint settings.
type WhisperConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	Type      string        `mapstructure:"type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	Model     string        `mapstructure:"model"`
	Prompt    string        `mapstructure:"prompt"` // vocabulary hint, e.g. common product names
	VADFilter bool          `mapstructure:"vad_filter"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// StorefrontConfig points at the storefront REST API.
type StorefrontConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig tunes the storefront circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"` // allowed through while half-open
	Interval         time.Duration `mapstructure:"interval"`     // closed-state count reset period
	Timeout          time.Duration `mapstructure:"timeout"`      // open-state duration
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// CacheConfig selects the product lookup cache.
type CacheConfig struct {
	Backend  string        `mapstructure:"backend"` // "memory", "redis" or "none"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./voicecart.yaml, ./configs/voicecart.yaml, /etc/voicecart/voicecart.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("voicecart")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/voicecart")
	}

	// Environment variables: VOICECART_STOREFRONT_BASE_URL, VOICECART_RECOGNIZER_BACKEND, etc.
	v.SetEnvPrefix("VOICECART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional; env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${STOREFRONT_TOKEN}")
	cfg.Storefront.Token = resolveEnvRef(cfg.Storefront.Token)
	cfg.Cache.RedisURL = resolveEnvRef(cfg.Cache.RedisURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", true)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.http.allowed_origins", []string{})
	v.SetDefault("voice.default_language", "en-US")
	v.SetDefault("recognizer.backend", "none")
	v.SetDefault("recognizer.whisper.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("recognizer.whisper.type", "openai")
	v.SetDefault("recognizer.whisper.model", "whisper-1")
	v.SetDefault("recognizer.whisper.vad_filter", false)
	v.SetDefault("recognizer.whisper.timeout", 30*time.Second)
	v.SetDefault("storefront.enabled", true)
	v.SetDefault("storefront.base_url", "http://localhost:5000")
	v.SetDefault("storefront.timeout", 10*time.Second)
	v.SetDefault("storefront.breaker.max_requests", 1)
	v.SetDefault("storefront.breaker.interval", time.Minute)
	v.SetDefault("storefront.breaker.timeout", 30*time.Second)
	v.SetDefault("storefront.breaker.failure_threshold", 5)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, ok := language.Lookup(c.Voice.DefaultLanguage); !ok {
		return fmt.Errorf("voice.default_language %q is not supported", c.Voice.DefaultLanguage)
	}
	switch c.Recognizer.Backend {
	case "whisper", "none":
	default:
		return fmt.Errorf("unknown recognizer backend %q", c.Recognizer.Backend)
	}
	switch c.Recognizer.Whisper.Type {
	case "", "openai", "asr":
	default:
		return fmt.Errorf("unknown whisper type %q", c.Recognizer.Whisper.Type)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if !c.Transports.GRPC.Enabled && !c.Transports.HTTP.Enabled {
		return errors.New("no transports enabled, enable at least one in config")
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
