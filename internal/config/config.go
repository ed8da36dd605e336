package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Storage StorageConfig
	Worker  WorkerConfig
	Session SessionConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	AllowOrigin string
}

// BackendConfig points at the external ranking backend.
type BackendConfig struct {
	BaseURL       string
	UploadTimeout time.Duration
	// DemoMode substitutes a fixed dataset when analysis fails or returns nothing.
	DemoMode bool
}

type StorageConfig struct {
	MaxFileSize int64
}

type WorkerConfig struct {
	Concurrency int
	QueueSize   int
}

type SessionConfig struct {
	Store string
	TTL   time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			Env:         getEnv("ENV", "development"),
			AllowOrigin: getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		Backend: BackendConfig{
			BaseURL:       strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:5000/api"), "/"),
			UploadTimeout: getEnvAsDuration("UPLOAD_TIMEOUT", "5m"),
			DemoMode:      getEnvAsBool("DEMO_MODE", true),
		},
		Storage: StorageConfig{
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 52428800),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvAsInt("WORKER_CONCURRENCY", 2),
			QueueSize:   getEnvAsInt("WORKER_QUEUE_SIZE", 100),
		},
		Session: SessionConfig{
			Store: strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
			TTL:   getEnvAsDuration("SESSION_TTL", "24h"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
