// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the notify service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	ScrapeIntervalHours int    // how often the scrape cron fires
	ScrapeFeedURL       string // JSON feed endpoint; empty disables scraping
	ScrapeLimit         int    // max postings fetched per cycle

	LatestJobsMax int // bounded size of the recent-jobs cache

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	DiscordWebhookURL string
	TelegramBotToken  string
}

// Load reads environment variables and returns a validated Config.
// A .env file is honoured when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	interval, err := positiveInt("SCRAPE_INTERVAL_HOURS", 6)
	if err != nil {
		return nil, err
	}

	limit, err := positiveInt("SCRAPE_LIMIT", 30)
	if err != nil {
		return nil, err
	}

	latestMax, err := positiveInt("LATEST_JOBS_MAX", 10)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                port,
		DatabaseURL:         dbURL,
		RedisURL:            redisURL,
		ScrapeIntervalHours: interval,
		ScrapeFeedURL:       os.Getenv("SCRAPE_FEED_URL"),
		ScrapeLimit:         limit,
		LatestJobsMax:       latestMax,
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            os.Getenv("SMTP_PORT"),
		SMTPUsername:        os.Getenv("SMTP_USERNAME"),
		SMTPPassword:        os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:            os.Getenv("SMTP_FROM"),
		DiscordWebhookURL:   os.Getenv("DISCORD_WEBHOOK_URL"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
	}, nil
}

func positiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return v, nil
}
