package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Storage      StorageConfig
	Tracing      TracingConfig `mapstructure:"tracing"`
	Redis        RedisConfig
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Detection    DetectionConfig    `mapstructure:"detection"`
	Learning     LearningConfig     `mapstructure:"learning"`
	Achievements AchievementsConfig `mapstructure:"achievements"`
	Verification VerificationConfig `mapstructure:"verification"`

	// set from command line flags, not from the config file
	MigrateOnly bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	SSLMode   string
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	Host               string
	Port               int
	Password           string
	DB                 int
	ModuleCacheMinutes int `mapstructure:"module_cache_minutes"`
}

type StorageConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
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

// ProviderConfig describes one external detection service.
type ProviderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type ProvidersConfig struct {
	OpenAI  ProviderConfig `mapstructure:"openai"`
	GPTZero ProviderConfig `mapstructure:"gptzero"`
	AIOrNot ProviderConfig `mapstructure:"aiornot"`
}

type DetectionConfig struct {
	TimeoutSeconds int             `mapstructure:"timeout_seconds"`
	MaxUploadMB    int             `mapstructure:"max_upload_mb"`
	MaxTextChars   int             `mapstructure:"max_text_chars"`
	ProbeAudio     bool            `mapstructure:"probe_audio"`
	Providers      ProvidersConfig `mapstructure:"providers"`
}

// Timeout is the per-provider deadline.
func (d DetectionConfig) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

func (d DetectionConfig) MaxUploadBytes() int64 {
	if d.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(d.MaxUploadMB) << 20
}

type LearningConfig struct {
	EnforceUnlock bool `mapstructure:"enforce_unlock"`
}

type AchievementsConfig struct {
	StreakDays int `mapstructure:"streak_days"`
}

type VerificationConfig struct {
	FactCheckURL     string   `mapstructure:"fact_check_url"`
	FactCheckAPIKey  string   `mapstructure:"fact_check_api_key"`
	Language         string   `mapstructure:"language"`
	TrustedDomains   []string `mapstructure:"trusted_domains"`
	UntrustedDomains []string `mapstructure:"untrusted_domains"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("redis.module_cache_minutes", 10)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("detection.timeout_seconds", 20)
	v.SetDefault("detection.max_upload_mb", 10)
	v.SetDefault("detection.max_text_chars", 50000)
	v.SetDefault("learning.enforce_unlock", true)
	v.SetDefault("achievements.streak_days", 3)
	v.SetDefault("verification.fact_check_url", "https://factchecktools.googleapis.com/v1alpha1/claims:search")
	v.SetDefault("verification.language", "en")
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("MILGUARD")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// Detection providers
	v.BindEnv("detection.providers.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("detection.providers.openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("detection.providers.gptzero.api_key", "GPTZERO_API_KEY")
	v.BindEnv("detection.providers.aiornot.api_key", "AIORNOT_API_KEY")

	// Verification
	v.BindEnv("verification.fact_check_api_key", "FACT_CHECK_API_KEY")

	// Storage
	v.BindEnv("storage.enabled", "STORAGE_ENABLED")
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Enabled && cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
