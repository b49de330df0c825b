package config

import (
	"database/sql"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cast"
)

// Limits are the capacity constants surfaced read-only to callers so UIs can
// pre-validate. They are injected into the engine at construction time.
type Limits struct {
	MaxMembersPerCollection int `json:"max_members_per_collection"`
	MaxCollectionsPerUser   int `json:"max_collections_per_user"`
}

type Config struct {
	Port        int
	DatabaseURL string
	RedisAddr   string
	TMDBAPIKey  string
	WebhookURL  string
	Limits      Limits

	// CleanupSweepSchedule is a cron spec for the periodic orphan-rating
	// sweep. Empty disables the sweeper.
	CleanupSweepSchedule string
}

func Load() *Config {
	return &Config{
		Port:        envInt("PORT", 8080),
		DatabaseURL: env("DATABASE_URL", "postgres://whirlwatch:whirlwatch@db:5432/whirlwatch?sslmode=disable"),
		RedisAddr:   env("REDIS_ADDR", ""),
		TMDBAPIKey:  env("TMDB_API_KEY", ""),
		WebhookURL:  env("WEBHOOK_URL", ""),
		Limits: Limits{
			MaxMembersPerCollection: envInt("MAX_MEMBERS_PER_COLLECTION", 8),
			MaxCollectionsPerUser:   envInt("MAX_COLLECTIONS_PER_USER", 10),
		},
		CleanupSweepSchedule: env("CLEANUP_SWEEP_SCHEDULE", "@hourly"),
	}
}

// MergeFromDB overrides selected keys from the settings table, if present.
// A missing table is not an error; the env/default values stand.
func (c *Config) MergeFromDB(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Printf("config: skipping DB merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "max_members_per_collection":
			if v := cast.ToInt(value); v > 0 {
				c.Limits.MaxMembersPerCollection = v
			}
		case "max_collections_per_user":
			if v := cast.ToInt(value); v > 0 {
				c.Limits.MaxCollectionsPerUser = v
			}
		case "tmdb_api_key":
			c.TMDBAPIKey = value
		case "webhook_url":
			c.WebhookURL = value
		case "cleanup_sweep_schedule":
			c.CleanupSweepSchedule = value
		}
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
