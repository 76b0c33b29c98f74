package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBLogLevel string `mapstructure:"DB_LOG_LEVEL"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTTTL         time.Duration `mapstructure:"JWT_TTL"`
	PasswordHasher string        `mapstructure:"PASSWORD_HASHER"`

	StorageDriver  string `mapstructure:"STORAGE_DRIVER"`
	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	MaxUploadBytes int64  `mapstructure:"MAX_UPLOAD_BYTES"`

	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	PlaceholderReservationTTL time.Duration `mapstructure:"PLACEHOLDER_RESERVATION_TTL"`

	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
}

var defaults = map[string]interface{}{
	"APP_ENV":                     "development",
	"PORT":                        "8080",
	"LOG_LEVEL":                   "info",
	"DB_HOST":                     "localhost",
	"DB_PORT":                     "5432",
	"DB_USER":                     "postgres",
	"DB_PASSWORD":                 "postgres",
	"DB_NAME":                     "docflow",
	"DB_SSLMODE":                  "disable",
	"DB_LOG_LEVEL":                "warn",
	"JWT_SECRET":                  "",
	"JWT_TTL":                     "720h",
	"PASSWORD_HASHER":             "bcrypt",
	"STORAGE_DRIVER":              StorageLocal,
	"UPLOAD_DIR":                  "uploads",
	"MAX_UPLOAD_BYTES":            10 << 20,
	"S3_ENDPOINT":                 "",
	"S3_REGION":                   "",
	"S3_BUCKET":                   "documents",
	"S3_ACCESS_KEY":               "",
	"S3_SECRET_KEY":               "",
	"S3_USE_SSL":                  false,
	"S3_PATH_STYLE":               true,
	"REDIS_ADDR":                  "",
	"REDIS_DB":                    0,
	"REDIS_PASSWORD":              "",
	"PLACEHOLDER_RESERVATION_TTL": "10m",
	"CORS_ORIGINS":                "http://localhost:5173,http://127.0.0.1:5173",
}

// Load reads configs/.env when present and then the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat("configs/.env"); err == nil {
		if err := godotenv.Load("configs/.env"); err != nil {
			return nil, errors.New("failed to load configs/.env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = "default_super_secret_key" // development only
	}
	switch c.StorageDriver {
	case StorageLocal, StorageS3:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) GetDSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// String implements fmt.Stringer with secrets masked.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  AppEnv: %s\n", c.AppEnv))
	sb.WriteString(fmt.Sprintf("  Port: %s\n", c.Port))
	sb.WriteString(fmt.Sprintf("  DB: %s@%s:%s/%s\n", c.DBUser, c.DBHost, c.DBPort, c.DBName))
	sb.WriteString(fmt.Sprintf("  DBPassword: %s\n", mask(c.DBPassword)))
	sb.WriteString(fmt.Sprintf("  JWTSecret: %s\n", mask(c.JWTSecret)))
	sb.WriteString(fmt.Sprintf("  JWTTTL: %s\n", c.JWTTTL))
	sb.WriteString(fmt.Sprintf("  PasswordHasher: %s\n", c.PasswordHasher))
	sb.WriteString(fmt.Sprintf("  StorageDriver: %s\n", c.StorageDriver))
	if c.StorageDriver == StorageS3 {
		sb.WriteString(fmt.Sprintf("  S3Endpoint: %s\n", c.S3Endpoint))
		sb.WriteString(fmt.Sprintf("  S3Bucket: %s\n", c.S3Bucket))
		sb.WriteString(fmt.Sprintf("  S3AccessKey: %s\n", mask(c.S3AccessKey)))
		sb.WriteString(fmt.Sprintf("  S3SecretKey: %s\n", mask(c.S3SecretKey)))
	} else {
		sb.WriteString(fmt.Sprintf("  UploadDir: %s\n", c.UploadDir))
	}
	if c.RedisAddr != "" {
		sb.WriteString(fmt.Sprintf("  RedisAddr: %s (db %d)\n", c.RedisAddr, c.RedisDB))
	} else {
		sb.WriteString("  RedisAddr: (disabled)\n")
	}
	return sb.String()
}

func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}
