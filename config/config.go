package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SearchQuery string
	MaxResults  int
	MaxReviews  int

	ScrollPause         time.Duration
	ReviewScrollPause   time.Duration
	ReviewStableScrolls int
	SettlePause         time.Duration
	BackPause           time.Duration
	PanelPause          time.Duration
	WaitTimeout         time.Duration
	MaxRetries          int

	Headless  bool
	ChromeBin string

	FallbackLatitude  float64
	FallbackLongitude float64
	ContextRadius     int
	LexiconPath       string

	JSONOutputPath string
	CSVOutputPath  string

	StorageDriver    string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	SQLitePath       string

	LogLevel string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		SearchQuery: getEnv("SEARCH_QUERY", "Dentists near New York, NY"),
		MaxResults:  getEnvInt("MAX_RESULTS", 50),
		MaxReviews:  getEnvInt("MAX_REVIEWS", 30),

		ScrollPause:         getEnvMillis("SCROLL_PAUSE_MS", 1500),
		ReviewScrollPause:   getEnvMillis("REVIEW_SCROLL_PAUSE_MS", 1000),
		ReviewStableScrolls: getEnvInt("REVIEW_STABLE_SCROLLS", 3),
		SettlePause:         getEnvMillis("SETTLE_PAUSE_MS", 2000),
		BackPause:           getEnvMillis("BACK_PAUSE_MS", 1500),
		PanelPause:          getEnvMillis("PANEL_PAUSE_MS", 1000),
		WaitTimeout:         time.Duration(getEnvInt("WAIT_TIMEOUT_SEC", 10)) * time.Second,
		MaxRetries:          getEnvInt("MAX_RETRIES", 3),

		Headless:  getEnvBool("HEADLESS", true),
		ChromeBin: getEnv("CHROME_BIN", ""),

		FallbackLatitude:  getEnvFloat("FALLBACK_LAT", 40.7128),
		FallbackLongitude: getEnvFloat("FALLBACK_LON", -74.0060),
		ContextRadius:     getEnvInt("CONTEXT_RADIUS", 100),
		LexiconPath:       getEnv("LEXICON_PATH", ""),

		JSONOutputPath: getEnv("JSON_OUTPUT_PATH", "./output/dentists.json"),
		CSVOutputPath:  getEnv("CSV_OUTPUT_PATH", "./output/dentists.csv"),

		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", "none")),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "dentist_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		SQLitePath:       getEnv("SQLITE_PATH", "./output/dentists.db"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Millisecond
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
