// Package config centralises configuration parsing for the dashboard API.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/magiconair/properties"
)

// Config captures runtime configuration values. It is read once at startup
// and never reloaded.
type Config struct {
	HTTPAddress string

	AWSRegion          string
	DynamoEndpoint     string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	StoreTimeout       time.Duration
	StoreBreakerTrips  int
	RideTable          string
	CourseTable        string
	MusicTable         string

	PropertiesPath string
	DefaultUserID  string // From USER_ID in the properties file unless DEFAULT_USER_ID is set.
	Location       *time.Location

	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration

	PelotonBaseURL string
	HTTPTimeout    time.Duration

	KafkaBrokers []string
	SyncTopic    string

	DashboardURL       string
	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// Load reads environment variables into Config, applying defaults for local dev.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddress:        getEnv("HTTP_ADDRESS", ":5000"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		DynamoEndpoint:     getEnv("DYNAMODB_ENDPOINT", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StoreTimeout:       getDurationEnv("STORE_TIMEOUT", 10*time.Second),
		StoreBreakerTrips:  getIntEnv("STORE_BREAKER_THRESHOLD", 5),
		RideTable:          getEnv("RIDE_TABLE", "peloton_ride_data"),
		CourseTable:        getEnv("COURSE_TABLE", "peloton_course_data"),
		MusicTable:         getEnv("MUSIC_TABLE", "peloton_music_sets"),
		PropertiesPath:     getEnv("PROPERTIES_PATH", "peloton.properties"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:          getEnv("JWT_ISSUER", "ridedash"),
		SessionTTL:         getDurationEnv("SESSION_TTL", 12*time.Hour),
		PelotonBaseURL:     getEnv("PELOTON_BASE_URL", "https://api.onepeloton.com"),
		HTTPTimeout:        getDurationEnv("HTTP_TIMEOUT", 10*time.Second),
		KafkaBrokers:       splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		SyncTopic:          getEnv("SYNC_TOPIC", "ride_sync_requests"),
		DashboardURL:       getEnv("DASHBOARD_URL", "http://pelodashboard.com"),
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}

	userID, err := loadDefaultUserID(cfg.PropertiesPath)
	if err != nil {
		return Config{}, err
	}
	cfg.DefaultUserID = getEnv("DEFAULT_USER_ID", userID)

	tz := getEnv("DISPLAY_TIMEZONE", "America/New_York")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// loadDefaultUserID reads USER_ID from a properties file. A missing file is
// not an error; the dashboard then requires explicit user ids.
func loadDefaultUserID(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	props, err := properties.LoadFiles([]string{path}, properties.UTF8, true)
	if err != nil {
		return "", fmt.Errorf("load properties %s: %w", path, err)
	}
	return strings.TrimSpace(props.GetString("USER_ID", "")), nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
