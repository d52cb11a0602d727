package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/at-ishikawa/studyset/internal/resilience"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Server  ServerConfig  `mapstructure:"server"`
	Export  ExportConfig  `mapstructure:"export"`
}

const (
	ProviderGemini = "gemini"
	ProviderHTTP   = "http"
)

type BackendConfig struct {
	Provider string            `mapstructure:"provider" validate:"oneof=gemini http"`
	Gemini   GeminiConfig      `mapstructure:"gemini"`
	HTTP     HTTPBackendConfig `mapstructure:"http"`
}

type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model" validate:"required"`
	SpeechModel string        `mapstructure:"speech_model" validate:"required"`
	Voice       string        `mapstructure:"voice" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type HTTPBackendConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type RetryConfig struct {
	MaxAttempts uint          `mapstructure:"max_attempts" validate:"gte=3"`
	BaseDelay   time.Duration `mapstructure:"base_delay" validate:"gt=0"`
	MaxJitter   time.Duration `mapstructure:"max_jitter" validate:"gte=0,ltefield=BaseDelay"`
	MaxDelay    time.Duration `mapstructure:"max_delay" validate:"omitempty,gtefield=BaseDelay"`
}

// Executor returns the retry settings in the form the resilience package takes.
func (c RetryConfig) Executor() resilience.Config {
	return resilience.Config{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelay,
		MaxJitter:   c.MaxJitter,
		MaxDelay:    c.MaxDelay,
	}
}

const (
	CacheDriverFile   = "file"
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
	CacheDriverMySQL  = "mysql"
)

type CacheConfig struct {
	Driver         string          `mapstructure:"driver" validate:"oneof=file memory redis mysql"`
	Namespace      string          `mapstructure:"namespace" validate:"required"`
	CoalesceMisses bool            `mapstructure:"coalesce_misses"`
	File           FileCacheConfig `mapstructure:"file"`
	Redis          RedisConfig     `mapstructure:"redis"`
	Database       DatabaseConfig  `mapstructure:"database"`
}

type FileCacheConfig struct {
	Directory string `mapstructure:"directory"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	CORS            CORSConfig    `mapstructure:"cors"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`

	// GatewaySecret is shared with the identity gateway. The tier header is ignored unless a
	// request carries it, so every caller is free tier while it is empty.
	GatewaySecret string `mapstructure:"gateway_secret"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type ExportConfig struct {
	// MarkdownTemplate is optional. The embedded template is used when it is empty.
	MarkdownTemplate string `mapstructure:"markdown_template" validate:"omitempty,file"`
	Directory        string `mapstructure:"directory"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/studyset")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

// Load reads the config file at configFile, or config.yaml in the default locations when it is empty.
func Load(configFile string) (*Config, error) {
	loader, err := NewConfigLoader(configFile)
	if err != nil {
		return nil, err
	}
	return loader.Load()
}

func setDefaults(v *viper.Viper) {
	retry := resilience.DefaultConfig()

	v.SetDefault("backend.provider", ProviderGemini)
	v.SetDefault("backend.gemini.model", "gemini-2.5-flash")
	v.SetDefault("backend.gemini.speech_model", "gemini-2.5-flash-preview-tts")
	v.SetDefault("backend.gemini.voice", "Kore")
	v.SetDefault("backend.gemini.timeout", 2*time.Minute)
	v.SetDefault("backend.http.timeout", 2*time.Minute)
	v.SetDefault("retry.max_attempts", retry.MaxAttempts)
	v.SetDefault("retry.base_delay", retry.BaseDelay)
	v.SetDefault("retry.max_jitter", retry.MaxJitter)
	v.SetDefault("retry.max_delay", time.Duration(0))
	v.SetDefault("cache.driver", CacheDriverFile)
	v.SetDefault("cache.namespace", "studyset_free_cache")
	v.SetDefault("cache.file.directory", filepath.Join("cache", "study_sets"))
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.key_prefix", "studyset:")
	v.SetDefault("cache.database.host", "localhost")
	v.SetDefault("cache.database.port", 3306)
	v.SetDefault("cache.database.database", "local")
	v.SetDefault("cache.database.username", "user")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	// Template is optional - if not specified, will use embedded fallback template
	v.SetDefault("export.markdown_template", "")
	v.SetDefault("export.directory", "outputs")
}

// Secrets are bound to environment variables so they can stay out of the config file.
var envBindings = map[string]string{
	"backend.gemini.api_key":  "GEMINI_API_KEY",
	"backend.http.api_key":    "STUDYSET_API_KEY",
	"cache.redis.password":    "REDIS_PASSWORD",
	"cache.database.password": "DB_PASSWORD",
	"server.gateway_secret":   "STUDYSET_GATEWAY_SECRET",
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
