// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret        string `mapstructure:"JWT_SECRET"`
	MachinePublicKey string `mapstructure:"MACHINE_PUBLIC_KEY"`
	Port             string `mapstructure:"PORT"`
	Env              string `mapstructure:"APP_ENV"`
	AllowedOrigins   string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags     string `mapstructure:"FEATURE_FLAGS"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	// DBSchemaMode selects sql (goose), auto (GORM AutoMigrate) or hybrid.
	DBSchemaMode string `mapstructure:"DB_SCHEMA_MODE"`

	RedisURL string `mapstructure:"REDIS_URL"`

	S3Endpoint   string `mapstructure:"S3_ENDPOINT"`
	S3Region     string `mapstructure:"S3_REGION"`
	S3Bucket     string `mapstructure:"S3_BUCKET"`
	S3AccessKey  string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey  string `mapstructure:"S3_SECRET_KEY"`
	AssetBaseURL string `mapstructure:"ASSET_BASE_URL"`

	QueueURL       string `mapstructure:"QUEUE_URL"`
	QueueRegion    string `mapstructure:"QUEUE_REGION"`
	QueueAccessKey string `mapstructure:"QUEUE_ACCESS_KEY"`
	QueueSecretKey string `mapstructure:"QUEUE_SECRET_KEY"`

	TwilioAccountSID  string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `mapstructure:"TWILIO_PHONE_NUMBER"`

	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`

	DBTimeoutSeconds      int `mapstructure:"DB_TIMEOUT_SECONDS"`
	StorageTimeoutSeconds int `mapstructure:"STORAGE_TIMEOUT_SECONDS"`
	QueueTimeoutSeconds   int `mapstructure:"QUEUE_TIMEOUT_SECONDS"`
	SMSTimeoutSeconds     int `mapstructure:"SMS_TIMEOUT_SECONDS"`
	PaymentTimeoutSeconds int `mapstructure:"PAYMENT_TIMEOUT_SECONDS"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	TracingEndpoint     string  `mapstructure:"TRACING_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; env vars and defaults are enough to boot.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	viper.SetDefault("FEATURE_FLAGS", "exif_capture_time=on,live_feed=on")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("MACHINE_PUBLIC_KEY", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "orma")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_REGION", "nyc3")
	viper.SetDefault("S3_BUCKET", "orma")
	viper.SetDefault("S3_ACCESS_KEY", "")
	viper.SetDefault("S3_SECRET_KEY", "")
	viper.SetDefault("ASSET_BASE_URL", "http://localhost:9000/orma/")
	viper.SetDefault("QUEUE_URL", "")
	viper.SetDefault("QUEUE_REGION", "us-east-1")
	viper.SetDefault("QUEUE_ACCESS_KEY", "")
	viper.SetDefault("QUEUE_SECRET_KEY", "")
	viper.SetDefault("TWILIO_ACCOUNT_SID", "")
	viper.SetDefault("TWILIO_AUTH_TOKEN", "")
	viper.SetDefault("TWILIO_PHONE_NUMBER", "")
	viper.SetDefault("STRIPE_SECRET_KEY", "")
	viper.SetDefault("DB_TIMEOUT_SECONDS", 5)
	viper.SetDefault("STORAGE_TIMEOUT_SECONDS", 20)
	viper.SetDefault("QUEUE_TIMEOUT_SECONDS", 5)
	viper.SetDefault("SMS_TIMEOUT_SECONDS", 10)
	viper.SetDefault("PAYMENT_TIMEOUT_SECONDS", 15)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	if !strings.HasSuffix(config.AssetBaseURL, "/") {
		config.AssetBaseURL += "/"
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// IsProduction reports whether the service runs with production strictness.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// IsDevelopment reports whether development shortcuts (fixed OTP) are allowed.
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

// DBTimeout bounds a single database round trip.
func (c *Config) DBTimeout() time.Duration {
	return secondsOr(c.DBTimeoutSeconds, 5)
}

// StorageTimeout bounds a single object storage call.
func (c *Config) StorageTimeout() time.Duration {
	return secondsOr(c.StorageTimeoutSeconds, 20)
}

// QueueTimeout bounds a single queue publish.
func (c *Config) QueueTimeout() time.Duration {
	return secondsOr(c.QueueTimeoutSeconds, 5)
}

// SMSTimeout bounds a single SMS provider call.
func (c *Config) SMSTimeout() time.Duration {
	return secondsOr(c.SMSTimeoutSeconds, 10)
}

// PaymentTimeout bounds a single payment provider call.
func (c *Config) PaymentTimeout() time.Duration {
	return secondsOr(c.PaymentTimeoutSeconds, 15)
}

func secondsOr(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AssetBaseURL == "" {
		return errors.New("ASSET_BASE_URL is required")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.MachinePublicKey == "" {
			return errors.New("MACHINE_PUBLIC_KEY is required in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
