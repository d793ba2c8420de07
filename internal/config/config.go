package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Louis-Gabriel-TM/stores-api/internal/models"
)

type Config struct {
	PORT           string
	DB_HOST        string
	DB_PORT        string
	DB_USER        string
	DB_PASSWORD    string
	DB_NAME        string
	ES_URL         string
	ES_USER        string
	ES_PASSWORD    string
	KAFKA_ADDRESS  string
	JWT_SECRET     string
	REFRESH_SECRET string
	LOG_LEVEL      string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// ExposeDebugRoutes registers the raw /user/:id resource. Never
	// enable this on a public deployment.
	ExposeDebugRoutes bool
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		PORT:              os.Getenv("PORT"),
		DB_HOST:           os.Getenv("DB_HOST"),
		DB_PORT:           os.Getenv("DB_PORT"),
		DB_USER:           os.Getenv("DB_USER"),
		DB_PASSWORD:       os.Getenv("DB_PASSWORD"),
		DB_NAME:           os.Getenv("DB_NAME"),
		ES_URL:            os.Getenv("ES_URL"),
		ES_USER:           os.Getenv("ES_USER"),
		ES_PASSWORD:       os.Getenv("ES_PASSWORD"),
		KAFKA_ADDRESS:     os.Getenv("KAFKA_ADDRESS"),
		JWT_SECRET:        os.Getenv("JWT_SECRET"),
		REFRESH_SECRET:    os.Getenv("REFRESH_SECRET"),
		LOG_LEVEL:         os.Getenv("LOG_LEVEL"),
		AccessTTL:         durationOrDefault("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:        durationOrDefault("REFRESH_TTL", 7*24*time.Hour),
		ExposeDebugRoutes: os.Getenv("EXPOSE_DEBUG_ROUTES") == "true",
	}

	if config.PORT == "" {
		config.PORT = "8080"
	}

	return config, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Notice: invalid %s=%q, using default %s", key, raw, def)
		return def
	}
	return d
}

func InitDB(configuration *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER,
		configuration.DB_PASSWORD,
		configuration.DB_HOST,
		configuration.DB_PORT,
		configuration.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Store{}, &models.Item{}); err != nil {
		return nil, fmt.Errorf("cannot run migrations: %w", err)
	}
	return db, nil
}
