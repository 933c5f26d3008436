package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Backend   BackendConfig
	Session   SessionConfig
	Redis     RedisConfig
	Log       LogConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 配置文件实际路径（非配置项，供热更新监听使用）
	File string `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// AuthConfig 控制台共享访问码。两者任选其一，hash 为 bcrypt 格式
type AuthConfig struct {
	LoginCode     string `mapstructure:"login_code"`
	LoginCodeHash string `mapstructure:"login_code_hash"`
}

type BackendConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	APIKey          string `mapstructure:"api_key"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	CategoryPath    string `mapstructure:"category_path"`
	QuestionSetPath string `mapstructure:"question_set_path"`
	QuestionPath    string `mapstructure:"question_path"`
	QuestionFilter  string `mapstructure:"question_filter_param"`
}

// SessionConfig 登录状态的持久化位置: memory / file / redis
type SessionConfig struct {
	Store     string `mapstructure:"store"`
	FilePath  string `mapstructure:"file_path"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age_days"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests        int `mapstructure:"max_requests"`
	WindowMinutes      int `mapstructure:"window_minutes"`
	LoginAttempts      int `mapstructure:"login_attempts"`
	LoginWindowMinutes int `mapstructure:"login_window_minutes"`
}

const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("backend.timeout_seconds", 15)
	v.SetDefault("backend.category_path", "category")
	v.SetDefault("backend.question_set_path", "question-set")
	v.SetDefault("backend.question_path", "add-question")
	v.SetDefault("backend.question_filter_param", "question_set_id")

	v.SetDefault("session.store", StoreMemory)
	v.SetDefault("session.key_prefix", "quiz_console")
	v.SetDefault("session.file_path", defaultSessionFile())

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("rate_limit.login_attempts", 10)
	v.SetDefault("rate_limit.login_window_minutes", 5)
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".quiz-console-session.json"
	}
	return filepath.Join(dir, "quiz-console", "session.json")
}

// LoadConfig 从 path 目录读取 config.yaml，环境变量优先。配置文件不存在时仅使用环境变量
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("QUIZ_CONSOLE")
	v.AutomaticEnv()
	setDefaults(v)

	// Auth
	v.BindEnv("auth.login_code", "LOGIN_CODE")
	v.BindEnv("auth.login_code_hash", "LOGIN_CODE_HASH")

	// Backend
	v.BindEnv("backend.base_url", "BACKEND_BASE_URL")
	v.BindEnv("backend.api_key", "BACKEND_API_KEY")
	v.BindEnv("backend.timeout_seconds", "BACKEND_TIMEOUT_SECONDS")

	// Session
	v.BindEnv("session.store", "SESSION_STORE")
	v.BindEnv("session.file_path", "SESSION_FILE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate 检查必填项
func (c *Config) Validate() error {
	if c.Auth.LoginCode == "" && c.Auth.LoginCodeHash == "" {
		return fmt.Errorf("auth.login_code or auth.login_code_hash must be set")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url cannot be empty")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("backend.timeout_seconds must be > 0")
	}
	switch c.Session.Store {
	case StoreMemory, StoreRedis:
	case StoreFile:
		if c.Session.FilePath == "" {
			return fmt.Errorf("session.file_path cannot be empty for file store")
		}
	default:
		return fmt.Errorf("unknown session.store %q", c.Session.Store)
	}
	return nil
}

// Timeout 单次后端调用的超时时间
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

func (c *Config) IsDebug() bool {
	return c.Server.Mode == "debug"
}
