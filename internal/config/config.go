package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	MongoURL      string
	MongoDatabase string

	// News
	GNewsBaseURL    string
	GNewsAPIKey     string // 空の場合はRSSフォールバックを使用する
	NewsRSSBaseURL  string
	NewsMaxArticles int
	NewsLanguage    string

	// Geocoder
	GeocoderBaseURL   string
	GeocoderRateLimit float64 // 上流へのリクエストレート（req/sec）
	GeocoderUserAgent string

	// Upstream HTTP
	UpstreamTimeout time.Duration
	UpstreamMaxSize int64

	// Cache
	RedisAddr       string // 空の場合はキャッシュを無効化する
	RedisPassword   string
	NewsCacheTTL    time.Duration
	GeocodeCacheTTL time.Duration

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.MongoURL = os.Getenv("MONGO_URL")
	if cfg.MongoURL == "" {
		missing = append(missing, "MONGO_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.MongoDatabase = getEnvString("MONGO_DATABASE", "locallens")
	cfg.GNewsBaseURL = getEnvString("GNEWS_BASE_URL", "https://gnews.io/api/v4")
	cfg.GNewsAPIKey = getEnvString("GNEWS_API_KEY", "")
	cfg.NewsRSSBaseURL = getEnvString("NEWS_RSS_BASE_URL", "https://news.google.com/rss")
	cfg.NewsMaxArticles = getEnvInt("NEWS_MAX_ARTICLES", 10)
	cfg.NewsLanguage = getEnvString("NEWS_LANGUAGE", "en")
	cfg.GeocoderBaseURL = getEnvString("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")
	cfg.GeocoderRateLimit = getEnvFloat("GEOCODER_RATE_LIMIT", 1.0)
	cfg.GeocoderUserAgent = getEnvString("GEOCODER_USER_AGENT", "LocalLens/1.0 local news browser")
	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	cfg.UpstreamMaxSize = getEnvInt64("UPSTREAM_MAX_SIZE", 5242880)
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "")
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.NewsCacheTTL = getEnvDuration("NEWS_CACHE_TTL", 10*time.Minute)
	cfg.GeocodeCacheTTL = getEnvDuration("GEOCODE_CACHE_TTL", 24*time.Hour)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
