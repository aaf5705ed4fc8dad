package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultBackendURL is used when BACKEND_URL is not set.
const DefaultBackendURL = "http://localhost:3001"

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Feed    FeedConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port          string
	PublicBaseURL string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
}

type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

type FeedConfig struct {
	PageSize        int
	Upcoming        bool
	Paging          string // "discrete" or "infinite"
	RefreshInterval time.Duration
	SessionTTL      time.Duration
	MaxSessions     int
}

type RedisConfig struct {
	Addr     string
	CacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	Clickthrough   string
	CatalogUpdated string
}

type LogConfig struct {
	Dir   string
	Level string
}

const (
	PagingDiscrete = "discrete"
	PagingInfinite = "infinite"
)

func Load() *Config {
	port := getEnv("PORT", ":3000")
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		port = ":" + port
	}

	paging := strings.ToLower(getEnv("FEED_PAGING", PagingDiscrete))
	if paging != PagingInfinite {
		paging = PagingDiscrete
	}

	pageSize := getEnvInt("FEED_PAGE_SIZE", 12)
	if pageSize <= 0 {
		pageSize = 12
	}

	return &Config{
		Server: ServerConfig{
			Port:          port,
			PublicBaseURL: strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", "http://localhost"+port), "/"),
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  0, // SSE streams stay open
			IdleTimeout:   60 * time.Second,
		},
		Backend: BackendConfig{
			URL:     strings.TrimSuffix(getEnv("BACKEND_URL", DefaultBackendURL), "/"),
			Timeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
		},
		Feed: FeedConfig{
			PageSize:        pageSize,
			Upcoming:        getEnvBool("FEED_UPCOMING", false),
			Paging:          paging,
			RefreshInterval: getEnvDuration("FEED_REFRESH_INTERVAL", 10*time.Minute),
			SessionTTL:      getEnvDuration("FEED_SESSION_TTL", 30*time.Minute),
			MaxSessions:     getEnvInt("FEED_MAX_SESSIONS", 1000),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			CacheTTL: getEnvDuration("EVENTS_CACHE_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			GroupID: getEnv("KAFKA_GROUP_ID", "events-web"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Topics: TopicConfig{
				Clickthrough:   getEnv("KAFKA_TOPIC_CLICKTHROUGH", "events.ticket.clickthrough"),
				CatalogUpdated: getEnv("KAFKA_TOPIC_CATALOG", "events.catalog.updated"),
			},
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("10m") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
