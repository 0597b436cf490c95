package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("TORRENTFRONT_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "development-jwt-secret-key-change-in-production"
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   getEnv("TORRENTFRONT_JWT_ISSUER", "torrentfront"),
		JWTDuration: time.Duration(getEnvInt("TORRENTFRONT_JWT_TTL_HOURS", 7*24)) * time.Hour,
	}
}

type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
	// EventsAddr serves the JSON-lines event feed; "off" disables it.
	EventsAddr     string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func LoadServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:       getEnv("TORRENTFRONT_HTTP_ADDR", ":8080"),
		GRPCAddr:       getEnv("TORRENTFRONT_GRPC_ADDR", ":9090"),
		EventsAddr:     getEnv("TORRENTFRONT_EVENTS_ADDR", ":7071"),
		CORSOrigins:    splitList(getEnv("TORRENTFRONT_CORS_ORIGINS", "*")),
		RateLimitRPS:   getEnvFloat("TORRENTFRONT_RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("TORRENTFRONT_RATE_LIMIT_BURST", 10),
	}
}

// UpstreamConfig describes the torrent index and the tracker stats service.
type UpstreamConfig struct {
	IndexURL        string
	TrackerURL      string
	TrackerUsername string
	TrackerPassword string
	Timeout         time.Duration
	UseMockData     bool
	SeedPath        string
}

func LoadUpstreamConfig() UpstreamConfig {
	return UpstreamConfig{
		IndexURL:        getEnv("TORRENTFRONT_INDEX_URL", "http://localhost:3001/api"),
		TrackerURL:      getEnv("TORRENTFRONT_TRACKER_URL", "http://localhost:7070/api"),
		TrackerUsername: getEnv("TORRENTFRONT_TRACKER_USERNAME", "admin"),
		TrackerPassword: getEnv("TORRENTFRONT_TRACKER_PASSWORD", "password"),
		Timeout:         time.Duration(getEnvInt("TORRENTFRONT_UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,
		UseMockData:     getEnvBool("TORRENTFRONT_USE_MOCK_DATA", false),
		SeedPath:        getEnv("TORRENTFRONT_SEED_PATH", ""),
	}
}

type TMDBConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	CacheTTL     time.Duration
	RedisURL     string
}

func LoadTMDBConfig() TMDBConfig {
	return TMDBConfig{
		APIKey:       strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		BaseURL:      getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		ImageBaseURL: getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p"),
		CacheTTL:     time.Duration(getEnvInt("TMDB_CACHE_TTL_HOURS", 24)) * time.Hour,
		RedisURL:     getEnv("REDIS_URL", ""),
	}
}

type LogConfig struct {
	Level  string
	Format string
}

func LoadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
