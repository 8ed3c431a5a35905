package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	DB          DBConfig
	Redis       RedisConfig
	Recognition RecognitionConfig
	S3          S3Config
	Log         LogConfig
	CORS        CORSConfig
	Email       EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig holds correlation store settings.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// RecognitionConfig holds settings for the external recognition service and
// the bounded result poll.
type RecognitionConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	APIKey           string `mapstructure:"api_key"`
	CallbackBaseURL  string `mapstructure:"callback_base_url"`
	TimeoutSecs      int    `mapstructure:"timeout_secs"`
	PollIntervalSecs int    `mapstructure:"poll_interval_secs"`
	PollDeadlineSecs int    `mapstructure:"poll_deadline_secs"`
	ResultTTLSecs    int    `mapstructure:"result_ttl_secs"`
}

// PollInterval returns the fixed delay between correlation store queries.
func (r *RecognitionConfig) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalSecs) * time.Second
}

// PollDeadline returns the hard per-job deadline.
func (r *RecognitionConfig) PollDeadline() time.Duration {
	return time.Duration(r.PollDeadlineSecs) * time.Second
}

// ResultTTL returns how long correlation store entries live.
func (r *RecognitionConfig) ResultTTL() time.Duration {
	return time.Duration(r.ResultTTLSecs) * time.Second
}

// CallbackURL builds the callback address handed to the recognition service
// for a correlation key.
func (r *RecognitionConfig) CallbackURL(correlationKey string) string {
	return fmt.Sprintf("%s/api/v1/recognition/callback/%s",
		strings.TrimRight(r.CallbackBaseURL, "/"), correlationKey)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EmailConfig holds email delivery settings for batch summary notifications.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// Load reads configuration from environment variables with the EXPENSO_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EXPENSO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "expenso")
	v.SetDefault("db.password", "expenso_secret")
	v.SetDefault("db.name", "expenso_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Redis defaults
	v.SetDefault("redis.url", "redis://localhost:6379/0")

	// Recognition defaults
	v.SetDefault("recognition.endpoint", "")
	v.SetDefault("recognition.api_key", "")
	v.SetDefault("recognition.callback_base_url", "http://localhost:8080")
	v.SetDefault("recognition.timeout_secs", 60)
	v.SetDefault("recognition.poll_interval_secs", 2)
	v.SetDefault("recognition.poll_deadline_secs", 300)
	v.SetDefault("recognition.result_ttl_secs", 86400)

	// S3 defaults
	v.SetDefault("s3.region", "eu-central-1")
	v.SetDefault("s3.bucket", "expenso-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "eu-central-1")
	v.SetDefault("email.from_address", "noreply@expenso.app")
	v.SetDefault("email.from_name", "EXPENSO")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "EXPENSO_SERVER_PORT",
		"server.read_timeout":            "EXPENSO_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "EXPENSO_SERVER_WRITE_TIMEOUT",
		"server.environment":             "EXPENSO_SERVER_ENVIRONMENT",
		"db.host":                        "EXPENSO_DB_HOST",
		"db.port":                        "EXPENSO_DB_PORT",
		"db.user":                        "EXPENSO_DB_USER",
		"db.password":                    "EXPENSO_DB_PASSWORD",
		"db.name":                        "EXPENSO_DB_NAME",
		"db.sslmode":                     "EXPENSO_DB_SSLMODE",
		"db.max_open":                    "EXPENSO_DB_MAX_OPEN",
		"db.max_idle":                    "EXPENSO_DB_MAX_IDLE",
		"redis.url":                      "EXPENSO_REDIS_URL",
		"recognition.endpoint":           "EXPENSO_RECOGNITION_ENDPOINT",
		"recognition.api_key":            "EXPENSO_RECOGNITION_API_KEY",
		"recognition.callback_base_url":  "EXPENSO_RECOGNITION_CALLBACK_BASE_URL",
		"recognition.timeout_secs":       "EXPENSO_RECOGNITION_TIMEOUT_SECS",
		"recognition.poll_interval_secs": "EXPENSO_RECOGNITION_POLL_INTERVAL_SECS",
		"recognition.poll_deadline_secs": "EXPENSO_RECOGNITION_POLL_DEADLINE_SECS",
		"recognition.result_ttl_secs":    "EXPENSO_RECOGNITION_RESULT_TTL_SECS",
		"s3.region":                      "EXPENSO_S3_REGION",
		"s3.bucket":                      "EXPENSO_S3_BUCKET",
		"s3.endpoint":                    "EXPENSO_S3_ENDPOINT",
		"s3.access_key":                  "EXPENSO_S3_ACCESS_KEY",
		"s3.secret_key":                  "EXPENSO_S3_SECRET_KEY",
		"s3.max_file_size_mb":            "EXPENSO_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":              "EXPENSO_S3_PRESIGN_EXPIRY",
		"log.level":                      "EXPENSO_LOG_LEVEL",
		"log.format":                     "EXPENSO_LOG_FORMAT",
		"cors.allowed_origins":           "EXPENSO_CORS_ALLOWED_ORIGINS",
		"email.provider":                 "EXPENSO_EMAIL_PROVIDER",
		"email.region":                   "EXPENSO_EMAIL_REGION",
		"email.from_address":             "EXPENSO_EMAIL_FROM_ADDRESS",
		"email.from_name":                "EXPENSO_EMAIL_FROM_NAME",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if EXPENSO_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("EXPENSO_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Redis = RedisConfig{
		URL: v.GetString("redis.url"),
	}
	cfg.Recognition = RecognitionConfig{
		Endpoint:         v.GetString("recognition.endpoint"),
		APIKey:           v.GetString("recognition.api_key"),
		CallbackBaseURL:  v.GetString("recognition.callback_base_url"),
		TimeoutSecs:      v.GetInt("recognition.timeout_secs"),
		PollIntervalSecs: v.GetInt("recognition.poll_interval_secs"),
		PollDeadlineSecs: v.GetInt("recognition.poll_deadline_secs"),
		ResultTTLSecs:    v.GetInt("recognition.result_ttl_secs"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}

	return cfg, nil
}
