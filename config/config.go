package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Browser BrowserConfig
	Scraper ScraperConfig
	Fetch   FetchConfig
	Store   StoreConfig
	Webhook WebhookConfig
	Auth    AuthConfig
	Cache   CacheConfig
	Log     LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8000
	Mode string // "debug", "release", "test"; default: "release"

	// CORSOrigins lists allowed browser origins. "*" allows any.
	CORSOrigins []string // default: ["*"]
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Enabled toggles the dynamic renderer. When false, escalation is
	// recorded as a render error instead of launching Chromium.
	Enabled bool // default: true

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxSessions caps concurrent incognito sessions on the shared browser.
	MaxSessions int // default: 4

	// DefaultProxy is the proxy URL used by the browser.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects go-rod/stealth evasions into every session.
	Stealth bool // default: false
}

// ScraperConfig controls the dynamic rendering script.
type ScraperConfig struct {
	// UserAgent is sent by every rendering session.
	UserAgent string

	// NavigationTimeout is the hard ceiling for navigation + network quiescence.
	NavigationTimeout time.Duration // default: 60s

	// SettleDelay is waited after navigation before the script starts.
	SettleDelay time.Duration // default: 2s

	// ScrollDelay is waited after each viewport scroll.
	ScrollDelay time.Duration // default: 1s

	// ExpandDelay is waited after a "load more" click.
	ExpandDelay time.Duration // default: 2s

	// TabDelay is waited after a tab click.
	TabDelay time.Duration // default: 1.5s

	// ProbeTimeout bounds each element lookup during the script.
	ProbeTimeout time.Duration // default: 750ms

	// BlockedResourceTypes lists resource types to block while rendering.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds drops requests to known ad and tracking domains.
	BlockAds bool // default: true

	// ExtraHeaders are sent with every request a rendering session makes.
	ExtraHeaders map[string]string
}

// FetchConfig controls the static HTTP retriever.
type FetchConfig struct {
	Timeout      time.Duration // default: 30s
	MaxRedirects int           // default: 5
	Proxy        string
	UserAgent    string

	// Headers are sent with every static request and override the defaults.
	Headers map[string]string
}

// StoreConfig selects the summary persistence backend.
type StoreConfig struct {
	// Backend is "none", "postgres" or "redis"; default: "none".
	Backend string

	// PostgresDSN is the pgx connection string.
	PostgresDSN string

	RedisAddr     string // default: "localhost:6379"
	RedisPassword string
	RedisDB       int

	// QueueSize bounds pending summary writes.
	QueueSize int // default: 256
}

// WebhookConfig controls completion notifications.
type WebhookConfig struct {
	// URL receives a "scrape.completed" event per request when set.
	URL string

	// Secret signs the payload with HMAC-SHA256 when set.
	Secret string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	APIKeys []string
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 500
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// DefaultUserAgent is the fixed user agent of the rendering sessions.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// DefaultFetchUserAgent is sent by the static retriever.
const DefaultFetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        envOr("SECTIONSCOPE_HOST", "0.0.0.0"),
			Port:        envIntOr("SECTIONSCOPE_PORT", 8000),
			Mode:        envOr("SECTIONSCOPE_MODE", "release"),
			CORSOrigins: envSliceOr("SECTIONSCOPE_CORS_ORIGINS", []string{"*"}),
		},
		Browser: BrowserConfig{
			Enabled:      envBoolOr("SECTIONSCOPE_RENDER_ENABLED", true),
			Headless:     envBoolOr("SECTIONSCOPE_HEADLESS", true),
			MaxSessions:  envIntOr("SECTIONSCOPE_MAX_SESSIONS", 4),
			DefaultProxy: os.Getenv("SECTIONSCOPE_BROWSER_PROXY"),
			NoSandbox:    envBoolOr("SECTIONSCOPE_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("SECTIONSCOPE_BROWSER_BIN"),
			Stealth:      envBoolOr("SECTIONSCOPE_STEALTH", false),
		},
		Scraper: ScraperConfig{
			UserAgent:         envOr("SECTIONSCOPE_USER_AGENT", DefaultUserAgent),
			NavigationTimeout: envDurationOr("SECTIONSCOPE_NAV_TIMEOUT", 60*time.Second),
			SettleDelay:       envDurationOr("SECTIONSCOPE_SETTLE_DELAY", 2*time.Second),
			ScrollDelay:       envDurationOr("SECTIONSCOPE_SCROLL_DELAY", time.Second),
			ExpandDelay:       envDurationOr("SECTIONSCOPE_EXPAND_DELAY", 2*time.Second),
			TabDelay:          envDurationOr("SECTIONSCOPE_TAB_DELAY", 1500*time.Millisecond),
			ProbeTimeout:      envDurationOr("SECTIONSCOPE_PROBE_TIMEOUT", 750*time.Millisecond),
			BlockedResourceTypes: envSliceOr("SECTIONSCOPE_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
			BlockAds:     envBoolOr("SECTIONSCOPE_BLOCK_ADS", true),
			ExtraHeaders: envHeadersOr("SECTIONSCOPE_RENDER_HEADERS", nil),
		},
		Fetch: FetchConfig{
			Timeout:      envDurationOr("SECTIONSCOPE_FETCH_TIMEOUT", 30*time.Second),
			MaxRedirects: envIntOr("SECTIONSCOPE_MAX_REDIRECTS", 5),
			Proxy:        os.Getenv("SECTIONSCOPE_FETCH_PROXY"),
			UserAgent:    envOr("SECTIONSCOPE_FETCH_USER_AGENT", DefaultFetchUserAgent),
			Headers:      envHeadersOr("SECTIONSCOPE_FETCH_HEADERS", nil),
		},
		Store: StoreConfig{
			Backend:       envOr("SECTIONSCOPE_STORE", "none"),
			PostgresDSN:   os.Getenv("SECTIONSCOPE_POSTGRES_DSN"),
			RedisAddr:     envOr("SECTIONSCOPE_REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("SECTIONSCOPE_REDIS_PASSWORD"),
			RedisDB:       envIntOr("SECTIONSCOPE_REDIS_DB", 0),
			QueueSize:     envIntOr("SECTIONSCOPE_STORE_QUEUE", 256),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("SECTIONSCOPE_WEBHOOK_URL"),
			Secret: os.Getenv("SECTIONSCOPE_WEBHOOK_SECRET"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SECTIONSCOPE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SECTIONSCOPE_API_KEYS", nil),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SECTIONSCOPE_CACHE_MAX_ENTRIES", 500),
		},
		Log: LogConfig{
			Level:  envOr("SECTIONSCOPE_LOG_LEVEL", "info"),
			Format: envOr("SECTIONSCOPE_LOG_FORMAT", "json"),
		},
	}
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

// envHeadersOr reads comma-separated Name=value pairs. Pairs without a name
// are skipped.
func envHeadersOr(key string, fallback map[string]string) map[string]string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return parseHeaders(v)
}

func parseHeaders(s string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		name, value, _ := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers
}
