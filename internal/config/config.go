package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultQuizURL is the quiz service the widget was built against
const DefaultQuizURL = "https://quiz-flow-with-gamification.onrender.com/api/quiz"

// Quiz sources
const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config holds the whole application configuration
type Config struct {
	HTTPAddr string
	Quiz     QuizConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

// QuizConfig controls where questions come from
type QuizConfig struct {
	URL          string
	FetchTimeout time.Duration
	Source       string // SourceHTTP or SourcePostgres
	PlayFallback bool   // allow starting the fallback quiz after a failed load
}

// PostgresConfig holds the configuration for PostgreSQL connection
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RedisConfig holds the Redis configuration
type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        string
	Password    string
	DB          int
	SnapshotTTL time.Duration
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Quiz: QuizConfig{
			URL:          getEnv("QUIZ_URL", DefaultQuizURL),
			FetchTimeout: getDuration("QUIZ_FETCH_TIMEOUT", 10*time.Second),
			Source:       getEnv("QUIZ_SOURCE", SourceHTTP),
			PlayFallback: getBool("QUIZ_PLAY_FALLBACK", false),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:   getEnv("POSTGRES_DB", "quizflow"),
		},
		Redis: RedisConfig{
			Enabled:     getBool("REDIS_ENABLED", false),
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getInt("REDIS_DB", 0),
			SnapshotTTL: getDuration("SNAPSHOT_TTL", time.Hour),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
