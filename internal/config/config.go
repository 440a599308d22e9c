package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	JWTSecret      string
	TokenDuration  time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RateLimitRPS   int
	RateLimitBurst int

	// Matchmaking and battle timing
	PollInterval       time.Duration
	SearchTimeout      time.Duration
	AnswerWindow       time.Duration
	RoundGrace         time.Duration
	QueueTTL           time.Duration
	SweepInterval      time.Duration
	QuestionsPerBattle int

	// Backups
	AWSRegion    string
	BackupBucket string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./wordwarrior.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenDuration:  getEnvDuration("TOKEN_DURATION", 24*time.Hour),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),

		PollInterval:       getEnvDuration("POLL_INTERVAL", 2*time.Second),
		SearchTimeout:      getEnvDuration("SEARCH_TIMEOUT", 20*time.Second),
		AnswerWindow:       getEnvDuration("ANSWER_WINDOW", 15*time.Second),
		RoundGrace:         getEnvDuration("ROUND_GRACE", 5*time.Second),
		QueueTTL:           getEnvDuration("QUEUE_TTL", 2*time.Minute),
		SweepInterval:      getEnvDuration("SWEEP_INTERVAL", 10*time.Second),
		QuestionsPerBattle: getEnvInt("QUESTIONS_PER_BATTLE", 10),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		BackupBucket: getEnv("BACKUP_BUCKET", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer for %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
