package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port        string
	BodyLimitMB int
	CORSOrigins string

	// Database configuration
	DBType               string // mysql, mariadb, postgres, sqlite, sqlite3, sqlserver
	DBHost               string
	DBPort               string
	DBDatabase           string
	DBAppUser            string // case records pool
	DBAppPassword        string
	DBAppConnectionLimit int
	DBUser               string // user profile and auth pool
	DBPassword           string
	DBConnectionLimit    int
	DBAutoMigrate        bool
	DBDebug              bool

	// File storage configuration
	StorageType string // local, s3
	UploadDir   string
	S3Bucket    string
	S3Region    string
	S3Prefix    string

	// Auth configuration
	BcryptCost int

	// Logging configuration
	LogLevel  string
	LogFormat string // text, json
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set in the environment win.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "5000"),
		BodyLimitMB:          getEnvAsInt("BODY_LIMIT_MB", 32),
		CORSOrigins:          getEnv("CORS_ORIGINS", "*"),
		DBType:               strings.ToLower(getEnv("DB_TYPE", "mysql")),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "3306"),
		DBDatabase:           getEnv("DB_DATABASE", ""),
		DBAppUser:            getEnv("DB_APP_USER", ""),
		DBAppPassword:        getEnv("DB_APP_PASSWORD", ""),
		DBAppConnectionLimit: getEnvAsInt("DB_APP_CONNECTION_LIMIT", 10),
		DBUser:               getEnv("DB_USER", ""),
		DBPassword:           getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:    getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		DBAutoMigrate:        getEnvAsBool("DB_AUTO_MIGRATE", true),
		DBDebug:              getEnvAsBool("DB_DEBUG", false),
		StorageType:          strings.ToLower(getEnv("STORAGE_TYPE", "local")),
		UploadDir:            getEnv("UPLOAD_DIR", "uploads"),
		S3Bucket:             getEnv("S3_BUCKET", ""),
		S3Region:             getEnv("S3_REGION", getEnv("AWS_REGION", "")),
		S3Prefix:             getEnv("S3_PREFIX", "sqcb/"),
		BcryptCost:           getEnvAsInt("BCRYPT_COST", 10),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
	}

	// The user pool falls back to the app credentials when not split
	if cfg.DBUser == "" {
		cfg.DBUser = cfg.DBAppUser
		cfg.DBPassword = cfg.DBAppPassword
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and enumerations
func (c *Config) Validate() error {
	if c.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	if c.DBType != "sqlite" && c.DBType != "sqlite3" && c.DBAppUser == "" {
		return fmt.Errorf("DB_APP_USER is required")
	}

	switch c.StorageType {
	case "local":
		if c.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required for local storage")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
