package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Wedding day in Puerto Rico time (AST, UTC-4).
const (
	defaultEventStart = "2026-07-18T17:00:00-04:00"
	defaultEventEnd   = "2026-07-18T23:00:00-04:00"
)

// Config holds all runtime settings, resolved once at startup.
type Config struct {
	Port string

	// DirectoryBackend selects the guest directory implementation:
	// "mysql" (default) or "notion".
	DirectoryBackend string

	// KVBackend selects the idempotency/session store: "redis" (default),
	// "mysql" or "memory" (local development only, not shared across
	// processes).
	KVBackend string

	EventStart time.Time
	EventEnd   time.Time

	// OverrideEventState forces the event state regardless of the clock.
	// Empty means "use real time". Intended for testing and demos.
	OverrideEventState string

	NotionAPIKey      string
	NotionDatabaseID  string
	NotionHTTPTimeout time.Duration

	SessionTTL   time.Duration
	CookieSecure bool

	SeedDemoGuests bool
}

// Load resolves the configuration from environment variables.
func Load() (*Config, error) {
	start, err := time.Parse(time.RFC3339, EnvOrDefault("WEDDING_START", defaultEventStart))
	if err != nil {
		return nil, fmt.Errorf("invalid WEDDING_START: %w", err)
	}
	end, err := time.Parse(time.RFC3339, EnvOrDefault("WEDDING_END", defaultEventEnd))
	if err != nil {
		return nil, fmt.Errorf("invalid WEDDING_END: %w", err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("WEDDING_END (%s) must be after WEDDING_START (%s)", end, start)
	}

	override := strings.ToLower(EnvOrDefault("OVERRIDE_EVENT_STATE", ""))
	switch override {
	case "", "before", "during", "after":
	default:
		return nil, fmt.Errorf("invalid OVERRIDE_EVENT_STATE %q (want before|during|after)", override)
	}

	ttlDays, err := strconv.Atoi(EnvOrDefault("SESSION_TTL_DAYS", "30"))
	if err != nil || ttlDays <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL_DAYS: %q", os.Getenv("SESSION_TTL_DAYS"))
	}

	timeoutSec, err := strconv.Atoi(EnvOrDefault("NOTION_HTTP_TIMEOUT_SECONDS", "8"))
	if err != nil || timeoutSec <= 0 {
		return nil, fmt.Errorf("invalid NOTION_HTTP_TIMEOUT_SECONDS: %q", os.Getenv("NOTION_HTTP_TIMEOUT_SECONDS"))
	}

	seed, _ := strconv.ParseBool(EnvOrDefault("SEED_DEMO_GUESTS", "false"))

	return &Config{
		Port:               EnvOrDefault("PORT", "8080"),
		DirectoryBackend:   strings.ToLower(EnvOrDefault("DIRECTORY_BACKEND", "mysql")),
		KVBackend:          strings.ToLower(EnvOrDefault("KV_BACKEND", "redis")),
		EventStart:         start,
		EventEnd:           end,
		OverrideEventState: override,
		NotionAPIKey:       strings.TrimSpace(os.Getenv("NOTION_API_KEY")),
		NotionDatabaseID:   strings.TrimSpace(os.Getenv("NOTION_GUESTS_DATABASE_ID")),
		NotionHTTPTimeout:  time.Duration(timeoutSec) * time.Second,
		SessionTTL:         time.Duration(ttlDays) * 24 * time.Hour,
		CookieSecure:       os.Getenv("GIN_MODE") == "release",
		SeedDemoGuests:     seed,
	}, nil
}

// EnvOrDefault returns ENV value or fallback default.
func EnvOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}
