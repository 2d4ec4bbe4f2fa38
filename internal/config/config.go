package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	LLM     LLMConfig
	OCR     OCRConfig
	Session SessionConfig
	Redis   RedisConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

type LoggerConfig struct {
	Level string
	Env   string
}

// LLMConfig selects the text model used for quiz generation.
type LLMConfig struct {
	Provider    string // googleai, openai, ollama, openai_compatible
	Model       string
	APIKey      string
	ServerURL   string // ollama
	BaseURL     string // openai_compatible
	Temperature float64
	Timeout     time.Duration
}

type OCRConfig struct {
	Languages     []string
	MaxImageBytes int
	MaxDimension  int
	MaxPixels     int64
}

type SessionConfig struct {
	Store         string // memory or redis
	CookieName    string
	TTL           time.Duration
	LoadingDelay  time.Duration
	SweepSchedule string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

const (
	ProviderGoogleAI         = "googleai"
	ProviderOpenAI           = "openai"
	ProviderOllama           = "ollama"
	ProviderOpenAICompatible = "openai_compatible"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 20)
	v.SetDefault("server.body_limit", 10*1024*1024)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")

	v.SetDefault("llm.provider", ProviderGoogleAI)
	v.SetDefault("llm.model", "gemini-1.5-pro-latest")
	v.SetDefault("llm.server_url", "http://localhost:11434")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", 60)

	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.max_image_bytes", 8*1024*1024)
	v.SetDefault("ocr.max_dimension", 3000)
	v.SetDefault("ocr.max_pixels", 40_000_000)

	v.SetDefault("session.store", StoreMemory)
	v.SetDefault("session.cookie_name", "quizlens_session")
	v.SetDefault("session.ttl", 24*60*60)
	v.SetDefault("session.loading_delay", 3)
	v.SetDefault("session.sweep_schedule", "@every 1m")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
}

// LoadConfig reads .env (if present), then config.yaml, then environment
// variables. A missing config file is not an error; every key has a default.
func LoadConfig() (*Config, error) {
	// The model API key is usually kept in .env next to the binary.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", absPath)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  time.Duration(v.GetInt("server.read_timeout")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("server.write_timeout")) * time.Second,
			BodyLimit:    v.GetInt("server.body_limit"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			ServerURL:   v.GetString("llm.server_url"),
			BaseURL:     v.GetString("llm.base_url"),
			Temperature: v.GetFloat64("llm.temperature"),
			Timeout:     time.Duration(v.GetInt("llm.timeout")) * time.Second,
		},
		OCR: OCRConfig{
			Languages:     v.GetStringSlice("ocr.languages"),
			MaxImageBytes: v.GetInt("ocr.max_image_bytes"),
			MaxDimension:  v.GetInt("ocr.max_dimension"),
			MaxPixels:     v.GetInt64("ocr.max_pixels"),
		},
		Session: SessionConfig{
			Store:         strings.ToLower(v.GetString("session.store")),
			CookieName:    v.GetString("session.cookie_name"),
			TTL:           time.Duration(v.GetInt("session.ttl")) * time.Second,
			LoadingDelay:  time.Duration(v.GetFloat64("session.loading_delay") * float64(time.Second)),
			SweepSchedule: v.GetString("session.sweep_schedule"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
	}

	// Override with environment variables if set
	if env := os.Getenv("ENV"); env != "" {
		cfg.Logger.Env = env
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logger.Level = level
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = apiKeyFromEnv(cfg.LLM.Provider)
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		cfg.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apiKeyFromEnv falls back to the provider's conventional variable.
func apiKeyFromEnv(provider string) string {
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		return key
	}
	switch provider {
	case ProviderGoogleAI:
		return os.Getenv("GOOGLE_API_KEY")
	case ProviderOpenAI, ProviderOpenAICompatible:
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// Validate rejects settings the server cannot start with. A missing API key
// is allowed: generation then fails per request and yields empty quizzes.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGoogleAI, ProviderOpenAI, ProviderOllama, ProviderOpenAICompatible:
	default:
		return fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider)
	}
	if c.LLM.Provider == ProviderOpenAICompatible && c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required for provider %s", ProviderOpenAICompatible)
	}
	switch c.Session.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unsupported session.store %q", c.Session.Store)
	}
	if c.Session.LoadingDelay < 0 {
		return fmt.Errorf("session.loading_delay must not be negative")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	return nil
}
