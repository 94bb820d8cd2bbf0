package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DEFAULT_SENTIMENT_MODEL = "distilbert/distilbert-base-uncased-finetuned-sst-2-english"
	DEFAULT_EMOTION_MODEL   = "bhadresh-savani/distilbert-base-uncased-emotion"
	DEFAULT_INFERENCE_URL   = "https://router.huggingface.co/hf-inference/models"

	BACKEND_HUGOT = "hugot"
	BACKEND_API   = "api"

	STORE_MEMORY = "memory"
	STORE_VALKEY = "valkey"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Models      ModelConfig
	Session     SessionConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

// ModelConfig selects the inference backend and the two classifiers it serves
type ModelConfig struct {
	Backend           string
	SentimentModel    string
	EmotionModel      string
	ModelDir          string
	InferenceURL      string
	APIToken          string
	Timeout           time.Duration
	LexiconCrossCheck bool
}

// SessionConfig holds where uploaded datasets live between upload and analysis
type SessionConfig struct {
	Store          string
	TTL            time.Duration
	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool
	ValkeySingle   bool
}

// Load builds the configuration from environment variables and then applies the
// optional TOML file named by CONFIG_PATH on top.
func Load() (Config, error) {
	cfg := Config{
		Environment: getEnv("APP_ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxUploadBytes:  int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10<<20)),
		},
		Models: ModelConfig{
			Backend:           strings.ToLower(getEnv("INFERENCE_BACKEND", BACKEND_API)),
			SentimentModel:    getEnv("SENTIMENT_MODEL", DEFAULT_SENTIMENT_MODEL),
			EmotionModel:      getEnv("EMOTION_MODEL", DEFAULT_EMOTION_MODEL),
			ModelDir:          getEnv("MODEL_DIR", "./models"),
			InferenceURL:      getEnv("HF_INFERENCE_URL", DEFAULT_INFERENCE_URL),
			APIToken:          os.Getenv("HF_API_TOKEN"),
			Timeout:           getEnvAsDuration("INFERENCE_TIMEOUT", 60*time.Second),
			LexiconCrossCheck: getEnvAsBool("LEXICON_CROSSCHECK", true),
		},
		Session: SessionConfig{
			Store:          strings.ToLower(getEnv("SESSION_STORE", STORE_MEMORY)),
			TTL:            getEnvAsDuration("SESSION_TTL", time.Hour),
			ValkeyAddress:  getEnv("VALKEY_INIT_ADDRESS", "localhost:6379"),
			ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
			ValkeyTLS:      getEnvAsBool("VALKEY_TLS", false),
			ValkeySingle:   getEnvAsBool("VALKEY_SINGLE_NODE", false),
		},
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// fileConfig mirrors Config for the TOML override file. Pointers distinguish
// absent keys from zero values and durations use time.ParseDuration syntax.
type fileConfig struct {
	Environment *string `toml:"environment"`
	LogLevel    *string `toml:"log_level"`
	Server      struct {
		Host            *string `toml:"host"`
		Port            *int    `toml:"port"`
		ReadTimeout     *string `toml:"read_timeout"`
		WriteTimeout    *string `toml:"write_timeout"`
		ShutdownTimeout *string `toml:"shutdown_timeout"`
		MaxUploadBytes  *int64  `toml:"max_upload_bytes"`
	} `toml:"server"`
	Models struct {
		Backend           *string `toml:"backend"`
		SentimentModel    *string `toml:"sentiment_model"`
		EmotionModel      *string `toml:"emotion_model"`
		ModelDir          *string `toml:"model_dir"`
		InferenceURL      *string `toml:"inference_url"`
		Timeout           *string `toml:"timeout"`
		LexiconCrossCheck *bool   `toml:"lexicon_crosscheck"`
	} `toml:"models"`
	Session struct {
		Store         *string `toml:"store"`
		TTL           *string `toml:"ttl"`
		ValkeyAddress *string `toml:"valkey_address"`
		ValkeyTLS     *bool   `toml:"valkey_tls"`
	} `toml:"session"`
}

// applyFile overlays the values present in the TOML file at path. Secrets
// (API token, Valkey password) are only read from the environment.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}

	setString(&c.Environment, fc.Environment)
	setString(&c.LogLevel, fc.LogLevel)

	setString(&c.Server.Host, fc.Server.Host)
	if fc.Server.Port != nil {
		c.Server.Port = *fc.Server.Port
	}
	if fc.Server.MaxUploadBytes != nil {
		c.Server.MaxUploadBytes = *fc.Server.MaxUploadBytes
	}

	setString(&c.Models.Backend, fc.Models.Backend)
	setString(&c.Models.SentimentModel, fc.Models.SentimentModel)
	setString(&c.Models.EmotionModel, fc.Models.EmotionModel)
	setString(&c.Models.ModelDir, fc.Models.ModelDir)
	setString(&c.Models.InferenceURL, fc.Models.InferenceURL)
	if fc.Models.LexiconCrossCheck != nil {
		c.Models.LexiconCrossCheck = *fc.Models.LexiconCrossCheck
	}

	setString(&c.Session.Store, fc.Session.Store)
	setString(&c.Session.ValkeyAddress, fc.Session.ValkeyAddress)
	if fc.Session.ValkeyTLS != nil {
		c.Session.ValkeyTLS = *fc.Session.ValkeyTLS
	}

	durations := []struct {
		key   string
		raw   *string
		value *time.Duration
	}{
		{"server.read_timeout", fc.Server.ReadTimeout, &c.Server.ReadTimeout},
		{"server.write_timeout", fc.Server.WriteTimeout, &c.Server.WriteTimeout},
		{"server.shutdown_timeout", fc.Server.ShutdownTimeout, &c.Server.ShutdownTimeout},
		{"models.timeout", fc.Models.Timeout, &c.Models.Timeout},
		{"session.ttl", fc.Session.TTL, &c.Session.TTL},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", d.key, err)
		}
		*d.value = parsed
	}

	c.Models.Backend = strings.ToLower(c.Models.Backend)
	c.Session.Store = strings.ToLower(c.Session.Store)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// Validate reports configuration that cannot produce a working service
func (c Config) Validate() error {
	switch c.Models.Backend {
	case BACKEND_API, BACKEND_HUGOT:
	default:
		return fmt.Errorf("unsupported inference backend: %q", c.Models.Backend)
	}

	switch c.Session.Store {
	case STORE_MEMORY, STORE_VALKEY:
	default:
		return fmt.Errorf("unsupported session store: %q", c.Session.Store)
	}

	if c.Models.SentimentModel == "" || c.Models.EmotionModel == "" {
		return fmt.Errorf("sentiment and emotion model identifiers are required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	return nil
}

// Addr returns the listen address of the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
