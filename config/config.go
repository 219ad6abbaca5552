package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Port          string
	BindAddress   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	PublicURL     string
	Debug         bool

	Room RoomSettings

	IdentityCacheTTL time.Duration
	RoomStateTTL     time.Duration
}

// RoomSettings are the per-room game rules and phase durations.
type RoomSettings struct {
	MinPlayers            int
	MaxRounds             int
	AutoStart             bool
	Countdown             time.Duration
	Intro                 time.Duration
	Round                 time.Duration
	Reveal                time.Duration
	Outro                 time.Duration
	ContentTimeout        time.Duration
	RemainingTimeInterval time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v", err)
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		BindAddress:   getEnv("BIND_ADDRESS", ""),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "splitquiz"),
		DBPassword:    getEnv("DB_PASSWORD", "splitquiz"),
		DBName:        getEnv("DB_NAME", "splitquiz"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		PublicURL:     getEnv("PUBLIC_URL", "http://localhost:8080"),
		Debug:         getEnvBool("DEBUG", false),

		Room: RoomSettings{
			MinPlayers:            getEnvInt("ROOM_MIN_PLAYERS", 2),
			MaxRounds:             getEnvInt("ROOM_MAX_ROUNDS", 5),
			AutoStart:             getEnvBool("ROOM_AUTO_START", true),
			Countdown:             getEnvMillis("ROOM_COUNTDOWN_MS", 5000),
			Intro:                 getEnvMillis("ROOM_INTRO_MS", 500),
			Round:                 getEnvMillis("ROOM_ROUND_MS", 7500),
			Reveal:                getEnvMillis("ROOM_REVEAL_MS", 5000),
			Outro:                 getEnvMillis("ROOM_OUTRO_MS", 1500),
			ContentTimeout:        getEnvMillis("CONTENT_TIMEOUT_MS", 3000),
			RemainingTimeInterval: getEnvMillis("REMAINING_TIME_INTERVAL_MS", 1000),
		},

		IdentityCacheTTL: getEnvDuration("IDENTITY_CACHE_TTL", 10*time.Minute),
		RoomStateTTL:     getEnvDuration("ROOM_STATE_TTL", 2*time.Hour),
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddress + ":" + c.Port
}

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
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMillis)) * time.Millisecond
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func InitRedis(cfg *Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return client
}
