package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all environment configuration
type Config struct {
	// Database
	DatabaseHost     string
	DatabasePort     string
	PostgresUser     string
	PostgresPassword string
	DatabaseName     string

	// Authentication
	JWTSecret string

	// Discord login + review notifications
	DiscordClientID        string
	DiscordClientSecret    string
	DiscordRedirectURL     string
	DiscordBotToken        string
	DiscordReviewChannelID string

	// Points feed
	KafkaBroker string

	// Frontend origins allowed to call mutating endpoints
	FrontendOrigins []string
}

var (
	appConfig *Config
	onceEnv   sync.Once
)

// loadConfig loads and validates all environment variables
func loadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		// Database - required
		DatabaseHost:     getEnvWithDefault("DATABASE_HOST", "localhost"),
		DatabasePort:     getEnvWithDefault("DATABASE_PORT", "5432"),
		PostgresUser:     getEnvWithDefault("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnvWithDefault("POSTGRES_PASSWORD", "postgres"),
		DatabaseName:     getEnvWithDefault("DATABASE_NAME", "postgres"),

		// JWT - required
		JWTSecret: getEnvWithDefault("JWT_SECRET", "dummyjwt"),

		// Discord - login is required in production, notifications are optional
		DiscordClientID:        getEnv("DISCORD_CLIENT_ID"),
		DiscordClientSecret:    getEnv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURL:     getEnvWithDefault("DISCORD_REDIRECT_URL", "http://localhost:8000/api/oauth/discord/redirect"),
		DiscordBotToken:        os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordReviewChannelID: os.Getenv("DISCORD_REVIEW_CHANNEL_ID"),

		// Points feed - optional, disabled when unset
		KafkaBroker: os.Getenv("KAFKA_BROKER"),

		FrontendOrigins: strings.Split(getEnvWithDefault("FRONTEND_ORIGINS", "http://localhost:3000"), ","),
	}

	appConfig = config
	return config
}

func Env() *Config {
	onceEnv.Do(func() {
		appConfig = loadConfig()
	})
	return appConfig
}

// Helper functions
func getEnv(key string) string {
	value := os.Getenv(key)
	if value == "" && IsProduction() {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// IsProduction returns true if running in production
func IsProduction() bool {
	return getEnvWithDefault("ENVIRONMENT", "development") == "production"
}

// IsDevelopment returns true if running in development
func IsDevelopment() bool {
	return !IsProduction()
}
