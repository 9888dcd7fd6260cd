package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the headless renderer.
type BrowserConfig struct {
	// Enabled toggles the renderer. When false every attempt uses the
	// static fetcher.
	Enabled bool // default: true

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides install-path discovery.
	BrowserBin string

	// Proxy is used by both the browser and the static fetcher.
	// Format: "http://host:port" or "socks5://host:port".
	Proxy string

	// Stealth masks navigator.webdriver and similar automation hints.
	Stealth bool // default: false

	// SettleDelay is the pause after the load event for deferred scripts.
	SettleDelay time.Duration // default: 1.5s

	// BlockedResourceTypes lists resource types the browser aborts.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds aborts requests to known ad and tracking domains.
	BlockAds bool // default: true

	// MaxBrowsers caps browser processes running at once across all
	// requests. 0 means no cap.
	MaxBrowsers int // default: 10
}

// ScraperConfig controls retry and scheduling behaviour.
type ScraperConfig struct {
	// DefaultTimeout bounds a single attempt when the caller gives none.
	DefaultTimeout time.Duration // default: 45s

	// MaxRetries is the default total number of attempts per URL.
	MaxRetries int // default: 3

	// MaxConcurrent is the default number of URLs scraped at once.
	MaxConcurrent int // default: 5

	// BackoffBase is the wait after the first failed attempt; it doubles
	// after each further failure.
	BackoffBase time.Duration // default: 1s

	// OverallGrace is added to the attempt timeout to form the per-URL
	// wall-clock budget covering all attempts and waits.
	OverallGrace time.Duration // default: 5s

	// Schedule is "chunked" (sequential groups) or "pool" (sliding window).
	Schedule string // default: "chunked"

	// MaxBatchSize caps the URLs accepted by one API call.
	MaxBatchSize int // default: 100
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("HARVEST_PORT", 8080),
			Mode: envOr("HARVEST_MODE", "release"),
		},
		Browser: BrowserConfig{
			Enabled:     envBoolOr("HARVEST_RENDERER", true),
			Headless:    envBoolOr("HARVEST_HEADLESS", true),
			NoSandbox:   envBoolOr("HARVEST_NO_SANDBOX", true),
			BrowserBin:  os.Getenv("HARVEST_BROWSER_BIN"),
			Proxy:       os.Getenv("HARVEST_PROXY"),
			Stealth:     envBoolOr("HARVEST_STEALTH", false),
			SettleDelay: envDurationOr("HARVEST_SETTLE_DELAY", 1500*time.Millisecond),
			BlockedResourceTypes: envSliceOr("HARVEST_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockAds:    envBoolOr("HARVEST_BLOCK_ADS", true),
			MaxBrowsers: envIntOr("HARVEST_MAX_BROWSERS", 10),
		},
		Scraper: ScraperConfig{
			DefaultTimeout: envDurationOr("HARVEST_TIMEOUT", 45*time.Second),
			MaxRetries:     envIntOr("HARVEST_MAX_RETRIES", 3),
			MaxConcurrent:  envIntOr("HARVEST_MAX_CONCURRENT", 5),
			BackoffBase:    envDurationOr("HARVEST_BACKOFF_BASE", time.Second),
			OverallGrace:   envDurationOr("HARVEST_OVERALL_GRACE", 5*time.Second),
			Schedule:       envOr("HARVEST_SCHEDULE", "chunked"),
			MaxBatchSize:   envIntOr("HARVEST_MAX_BATCH", 100),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", true),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 2.0),
			Burst:             envIntOr("HARVEST_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "json"),
		},
	}
}

// LoadEnvFile merges variables from a dotenv file into the process
// environment before Load runs. Variables already set are kept. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
