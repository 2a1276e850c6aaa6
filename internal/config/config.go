package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	LLMProviderOllama = "ollama"
	LLMProviderGemini = "gemini"

	ReceiptStoreLocal = "local"
	ReceiptStoreGCS   = "gcs"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Security SecurityConfig
	LLM      LLMConfig
	Upload   UploadConfig
	Import   ImportConfig
	LogLevel string
}

type ServerConfig struct {
	Port             string
	Host             string
	Environment      string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	CORSAllowOrigins []string
}

type DatabaseConfig struct {
	Driver          string
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	SeedCategories  bool
	MigrationsPath  string
}

type JWTConfig struct {
	Secret              []byte
	AccessTokenDuration time.Duration
	Issuer              string
}

type SecurityConfig struct {
	BCryptCost         int
	RateLimitPerSecond int
	PasswordMinLength  int
}

type LLMConfig struct {
	Provider          string
	OllamaHost        string
	OllamaModel       string
	OllamaVisionModel string
	GeminiAPIKey      string
	GeminiModel       string
	Timeout           time.Duration
	Temperature       float64
}

type UploadConfig struct {
	Dir               string
	MaxSize           int64
	AllowedExtensions []string
	Store             string
	GCSBucket         string
}

type ImportConfig struct {
	BatchSize int
	// MaxFileSize bounds the multipart body of an import request
	MaxFileSize int64
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:             getEnv("SERVER_PORT", "8080"),
			Host:             getEnv("SERVER_HOST", "0.0.0.0"),
			Environment:      getEnv("APP_ENV", "development"),
			ReadTimeout:      getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:     getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout:  getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSAllowOrigins: getListEnv("CORS_ALLOW_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", DriverPostgres),
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "finance"),
			Password:        getEnv("DB_PASSWORD", "finance"),
			Name:            getEnv("DB_NAME", "finance_tracker"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getIntEnv("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			AutoMigrate:     getBoolEnv("AUTO_MIGRATE", false),
			SeedCategories:  getBoolEnv("SEED_CATEGORIES", true),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "db/migrations"),
		},
		Security: SecurityConfig{
			BCryptCost:         getIntEnv("BCRYPT_COST", 12),
			RateLimitPerSecond: getIntEnv("RATE_LIMIT_PER_SECOND", 20),
			PasswordMinLength:  getIntEnv("PASSWORD_MIN_LENGTH", 8),
		},
		JWT: JWTConfig{
			Secret:              []byte(getEnv("JWT_SECRET", "")),
			AccessTokenDuration: getDurationEnv("JWT_ACCESS_TOKEN_DURATION", 24*time.Hour),
			Issuer:              getEnv("JWT_ISSUER", "finance-tracker"),
		},
		LLM: LLMConfig{
			Provider:          strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderOllama)),
			OllamaHost:        strings.TrimRight(getEnv("OLLAMA_HOST", "http://localhost:11434"), "/"),
			OllamaModel:       getEnv("OLLAMA_MODEL", "qwen2.5:7b"),
			OllamaVisionModel: getEnv("OLLAMA_VISION_MODEL", "qwen2.5-vl:7b"),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout:           getDurationEnv("LLM_TIMEOUT", 30*time.Second),
			Temperature:       getFloatEnv("LLM_TEMPERATURE", 0.1),
		},
		Upload: UploadConfig{
			Dir:               getEnv("UPLOAD_DIR", "./uploads"),
			MaxSize:           getSizeEnv("MAX_UPLOAD_SIZE", 10<<20),
			AllowedExtensions: getListEnv("ALLOWED_EXTENSIONS", []string{"jpg", "jpeg", "png", "pdf"}),
			Store:             strings.ToLower(getEnv("RECEIPT_STORE", ReceiptStoreLocal)),
			GCSBucket:         getEnv("GCS_BUCKET", ""),
		},
		Import: ImportConfig{
			BatchSize:   getIntEnv("IMPORT_BATCH_SIZE", 500),
			MaxFileSize: getSizeEnv("IMPORT_MAX_FILE_SIZE", 20<<20),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	if len(c.JWT.Secret) == 0 {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production environments")
		}
		slog.Warn("JWT_SECRET not set, using an insecure development secret")
		c.JWT.Secret = []byte("development-secret-change-me")
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.LLM.Provider {
	case LLMProviderOllama:
	case LLMProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}

	switch c.Upload.Store {
	case ReceiptStoreLocal:
	case ReceiptStoreGCS:
		if c.Upload.GCSBucket == "" {
			return errors.New("GCS_BUCKET is required when RECEIPT_STORE=gcs")
		}
	default:
		return fmt.Errorf("unsupported RECEIPT_STORE %q", c.Upload.Store)
	}

	if c.Import.BatchSize <= 0 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be positive, got %d", c.Import.BatchSize)
	}

	return nil
}

// DSN returns DATABASE_URL when set, otherwise a DSN assembled from the discrete settings.
// For sqlite the DSN is a file path.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Driver == DriverSQLite {
		return c.Name + ".db"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsDevelopment() bool { return c.Server.Environment == "development" }
func (c *Config) IsProduction() bool  { return c.Server.Environment == "production" }

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// envAs parses key with parse; unset or unparsable values yield fallback
func envAs[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	parsed, err := parse(raw)
	if err != nil {
		slog.Warn("Ignoring unparsable environment value", "key", key, "error", err)
		return fallback
	}
	return parsed
}

func getIntEnv(key string, fallback int) int {
	return envAs(key, fallback, strconv.Atoi)
}

func getFloatEnv(key string, fallback float64) float64 {
	return envAs(key, fallback, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func getBoolEnv(key string, fallback bool) bool {
	return envAs(key, fallback, strconv.ParseBool)
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	return envAs(key, fallback, time.ParseDuration)
}

func getSizeEnv(key string, fallback int64) int64 {
	return envAs(key, fallback, func(v string) (int64, error) { return strconv.ParseInt(v, 10, 64) })
}

// getListEnv splits a comma separated value and trims each entry
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
