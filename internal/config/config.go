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
	Server ServerConfig
	DB     DBConfig
	API    APIConfig
	Pull   PullConfig
	S3     S3Config
	Email  EmailConfig
	Log    LogConfig
}

// ServerConfig holds HTTP server settings for the reporting API.
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

// APIConfig holds settings for the upstream document-management API.
type APIConfig struct {
	AuthURL        string        `mapstructure:"auth_url"`
	ListURL        string        `mapstructure:"list_url"`
	DetailsURL     string        `mapstructure:"details_url"`
	UploadURL      string        `mapstructure:"upload_url"`
	Email          string        `mapstructure:"email"`
	Password       string        `mapstructure:"password"`
	OrganizationID string        `mapstructure:"organization_id"`
	Scope          string        `mapstructure:"scope"`
	Workflow       string        `mapstructure:"workflow"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// PullConfig holds settings for the pull-and-score pipeline.
type PullConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	OutputDir   string `mapstructure:"output_dir"`
}

// S3Config holds AWS S3 settings for payload archival.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// EmailConfig holds batch summary email settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	To          string `mapstructure:"to"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the DOCRISK_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCRISK")
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
	v.SetDefault("db.user", "docrisk")
	v.SetDefault("db.password", "docrisk_secret")
	v.SetDefault("db.name", "docrisk_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// API defaults
	v.SetDefault("api.auth_url", "")
	v.SetDefault("api.list_url", "")
	v.SetDefault("api.details_url", "")
	v.SetDefault("api.upload_url", "")
	v.SetDefault("api.email", "")
	v.SetDefault("api.password", "")
	v.SetDefault("api.organization_id", "")
	v.SetDefault("api.scope", "Production")
	v.SetDefault("api.workflow", "")
	v.SetDefault("api.timeout", "30s")

	// Pull defaults
	v.SetDefault("pull.concurrency", 5)
	v.SetDefault("pull.output_dir", "reports")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.prefix", "payloads")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@docrisk.local")
	v.SetDefault("email.from_name", "DocRisk")
	v.SetDefault("email.to", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":          "DOCRISK_SERVER_PORT",
		"server.read_timeout":  "DOCRISK_SERVER_READ_TIMEOUT",
		"server.write_timeout": "DOCRISK_SERVER_WRITE_TIMEOUT",
		"server.environment":   "DOCRISK_SERVER_ENVIRONMENT",
		"db.host":              "DOCRISK_DB_HOST",
		"db.port":              "DOCRISK_DB_PORT",
		"db.user":              "DOCRISK_DB_USER",
		"db.password":          "DOCRISK_DB_PASSWORD",
		"db.name":              "DOCRISK_DB_NAME",
		"db.sslmode":           "DOCRISK_DB_SSLMODE",
		"db.max_open":          "DOCRISK_DB_MAX_OPEN",
		"db.max_idle":          "DOCRISK_DB_MAX_IDLE",
		"api.auth_url":         "DOCRISK_API_AUTH_URL",
		"api.list_url":         "DOCRISK_API_LIST_URL",
		"api.details_url":      "DOCRISK_API_DETAILS_URL",
		"api.upload_url":       "DOCRISK_API_UPLOAD_URL",
		"api.email":            "DOCRISK_API_EMAIL",
		"api.password":         "DOCRISK_API_PASSWORD",
		"api.organization_id":  "DOCRISK_API_ORGANIZATION_ID",
		"api.scope":            "DOCRISK_API_SCOPE",
		"api.workflow":         "DOCRISK_API_WORKFLOW",
		"api.timeout":          "DOCRISK_API_TIMEOUT",
		"pull.concurrency":     "DOCRISK_PULL_CONCURRENCY",
		"pull.output_dir":      "DOCRISK_PULL_OUTPUT_DIR",
		"s3.region":            "DOCRISK_S3_REGION",
		"s3.bucket":            "DOCRISK_S3_BUCKET",
		"s3.endpoint":          "DOCRISK_S3_ENDPOINT",
		"s3.access_key":        "DOCRISK_S3_ACCESS_KEY",
		"s3.secret_key":        "DOCRISK_S3_SECRET_KEY",
		"s3.prefix":            "DOCRISK_S3_PREFIX",
		"email.provider":       "DOCRISK_EMAIL_PROVIDER",
		"email.region":         "DOCRISK_EMAIL_REGION",
		"email.from_address":   "DOCRISK_EMAIL_FROM_ADDRESS",
		"email.from_name":      "DOCRISK_EMAIL_FROM_NAME",
		"email.to":             "DOCRISK_EMAIL_TO",
		"log.level":            "DOCRISK_LOG_LEVEL",
		"log.format":           "DOCRISK_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DOCRISK_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCRISK_SERVER_PORT") == "" {
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
	cfg.API = APIConfig{
		AuthURL:        v.GetString("api.auth_url"),
		ListURL:        v.GetString("api.list_url"),
		DetailsURL:     v.GetString("api.details_url"),
		UploadURL:      v.GetString("api.upload_url"),
		Email:          v.GetString("api.email"),
		Password:       v.GetString("api.password"),
		OrganizationID: v.GetString("api.organization_id"),
		Scope:          v.GetString("api.scope"),
		Workflow:       v.GetString("api.workflow"),
		Timeout:        v.GetDuration("api.timeout"),
	}
	cfg.Pull = PullConfig{
		Concurrency: v.GetInt("pull.concurrency"),
		OutputDir:   v.GetString("pull.output_dir"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
		Prefix:    v.GetString("s3.prefix"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		To:          v.GetString("email.to"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return cfg, nil
}
