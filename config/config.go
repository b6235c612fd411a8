package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string
	LogMode string

	DataDir         string
	StoreBackend    string
	PersistDebounce time.Duration

	BackendURL     string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration

	DefaultQuestions []string

	EventBus string

	Redis RedisConfig
	S3    S3Config
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string
}

type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
	Prefix    string
}

const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendS3     = "s3"
	BackendMemory = "memory"

	EventBusLocal = "local"
	EventBusRedis = "redis"
)

var defaultQuestions = "What is your name?|What is your role in the neighbourhood?|What would you change about the place you live in?"

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:          getEnv("APP_PORT", "8080"),
		AppMode:          getEnv("APP_MODE", "debug"),
		LogMode:          getEnv("LOG_MODE", "development"),
		DataDir:          getEnv("DATA_DIR", "data"),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		PersistDebounce:  getEnvAsDuration("PERSIST_DEBOUNCE", time.Second),
		BackendURL:       strings.TrimRight(getEnv("BACKEND_URL", "http://192.168.0.13:8881/api"), "/"),
		RequestTimeout:   getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),
		UploadTimeout:    getEnvAsDuration("UPLOAD_TIMEOUT", 60*time.Second),
		DefaultQuestions: getEnvAsList("DEFAULT_QUESTIONS", defaultQuestions),
		EventBus:         strings.ToLower(getEnv("EVENT_BUS", EventBusLocal)),
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "mazi:store:"),
		},
		S3: S3Config{
			Region:    getEnv("S3_REGION", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Prefix:    getEnv("S3_PREFIX", "mazi-recorder"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return fallback
}

// getEnvAsList splits a "|"-separated value. Questions contain commas, so
// the pipe is the separator.
func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, "|") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
