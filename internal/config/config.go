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
	BotToken    string
	ChannelID   string // e.g. "@ClipsCloud", the membership-gated channel
	ChannelLink string
	GroupID     int64 // admin group receiving proofs, exports and ingest echoes
	AdminIDs    []int64
	QRImagePath string

	DBUser        string
	DBPassword    string
	DBName        string
	DBHost        string
	DBPort        string
	RedisHost     string
	RedisPort     string
	RedisPassword string

	DailyVideoLimit int
	BatchSize       int
	DeleteDelay     time.Duration
	ProofTimeout    time.Duration
	ExportInterval  time.Duration
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		ChannelID:   getEnv("CHANNEL_ID", "@ClipsCloud"),
		ChannelLink: getEnv("CHANNEL_LINK", "https://t.me/ClipsCloud"),
		GroupID:     getEnvInt64("ADMIN_GROUP_ID", 0),
		AdminIDs:    getEnvIDList("ADMIN_IDS"),
		QRImagePath: getEnv("QR_IMAGE_PATH", "qr_code_50.jpg"),

		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "clipscloud_bot"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		DailyVideoLimit: getEnvInt("DAILY_VIDEO_LIMIT", 50),
		BatchSize:       getEnvInt("BATCH_SIZE", 10),
		DeleteDelay:     getEnvDuration("DELETE_DELAY", 5*time.Minute),
		ProofTimeout:    getEnvDuration("PROOF_TIMEOUT", 5*time.Minute),
		ExportInterval:  getEnvDuration("EXPORT_INTERVAL", 15*time.Minute),
	}
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid value for %s: %q, using default %d", key, value, fallback)
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		log.Printf("Invalid value for %s: %q, using default %d", key, value, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid value for %s: %q, using default %s", key, value, fallback)
	}
	return fallback
}

// getEnvIDList parses a comma-separated list of Telegram IDs, e.g. "123,456".
func getEnvIDList(key string) []int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Skipping invalid admin ID %q in %s", part, key)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
