package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	PlacesProvider    string
	PlacesAPIKey      string
	MapboxAccessToken string
	WeatherAPIKey     string
	EventsAPIKey      string
	CrowdAPIURL       string
	CrowdAPIKey       string

	SearchRadiusM  int
	MaxResults     int
	SuggestTimeout time.Duration
	SourceTimeout  time.Duration
	DefaultImage   string

	RedisAddr       string
	CacheOpTimeout  time.Duration
	CacheTTLDefault time.Duration
	CacheTTLMax     time.Duration
	H3Res           int

	HotHalfLife  time.Duration
	HotThreshold float64
	HotTTLFactor float64

	DatabaseURL string

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	res := getint("H3_RES", 8)
	if res < 0 {
		res = 0
	}
	if res > 15 {
		res = 15
	}

	return Config{
		Addr:     getenv("ADDR", ":8090"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		PlacesProvider:    strings.ToLower(getenv("PLACES_PROVIDER", "google")),
		PlacesAPIKey:      getenv("PLACES_API_KEY", ""),
		MapboxAccessToken: getenv("MAPBOX_ACCESS_TOKEN", ""),
		WeatherAPIKey:     getenv("WEATHER_API_KEY", ""),
		EventsAPIKey:      getenv("EVENTS_API_KEY", ""),
		CrowdAPIURL:       getenv("CROWD_API_URL", ""),
		CrowdAPIKey:       getenv("CROWD_API_KEY", ""),

		SearchRadiusM:  getint("SEARCH_RADIUS_M", 1000),
		MaxResults:     getint("MAX_RESULTS", 10),
		SuggestTimeout: getduration("SUGGEST_TIMEOUT", 10*time.Second),
		SourceTimeout:  getduration("SOURCE_TIMEOUT", 5*time.Second),
		DefaultImage:   getenv("DEFAULT_IMAGE_URL", "/images/default-place.jpg"),

		RedisAddr:       getenv("REDIS_ADDR", ""),
		CacheOpTimeout:  getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheTTLDefault: getduration("CACHE_TTL_DEFAULT", 5*time.Minute),
		CacheTTLMax:     getduration("CACHE_TTL_MAX", 30*time.Minute),
		H3Res:           res,

		HotHalfLife:  getduration("HOT_HALFLIFE", 10*time.Minute),
		HotThreshold: getfloat("HOT_THRESHOLD", 20),
		HotTTLFactor: getfloat("HOT_TTL_FACTOR", 3),

		DatabaseURL: getenv("DATABASE_URL", ""),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "place-updates"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "suggestion-cache-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
