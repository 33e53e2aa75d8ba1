package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken string
	MongoURI      string
	MongoDB       string
	BaseURL       string
	StaticDir     string
	HTTPAddr      string
	Timezone      string
	Location      *time.Location
	ASIKcalPerML  float64
	WindowDays    int
}

// Load loads configuration from environment variables
func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it.")
	}

	config := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDB:       os.Getenv("MONGODB_DB"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8000"),
		StaticDir:     getEnv("STATIC_DIR", "static"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8000"),
		Timezone:      getEnv("TIMEZONE", "Asia/Jakarta"),
		ASIKcalPerML:  getEnvFloat("ASI_KCAL_PER_ML", 0.67),
		WindowDays:    7,
	}

	// Validate required fields
	if config.TelegramToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN not set")
	}
	if config.MongoURI == "" {
		log.Fatal("MONGODB_URI not set")
	}
	if config.MongoDB == "" {
		log.Fatal("MONGODB_DB not set")
	}

	config.Location, err = time.LoadLocation(config.Timezone)
	if err != nil {
		log.Fatal("Invalid TIMEZONE:", err)
	}

	return config
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return f
}
