// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, feed provider definitions,
// reload orchestration knobs, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider is one configured upstream feed, declared in the PROVIDERS
// environment variable as a comma-separated list of name=format=url triples,
// e.g. "acme=xml=https://acme.example/feed.xml,beta=json=https://beta.example/feed".
type Provider struct {
	Name   string
	Format string // xml|json|csv
	URL    string
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-listing-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ReloadConfig groups the feed ingestion and retirement knobs.
type ReloadConfig struct {
	// RetireAfterMisses is the number of consecutive cycles a listing may be
	// absent from its provider's feed before it is retired.
	RetireAfterMisses int
	// FailureThreshold is the number of consecutive failed reload cycles
	// after which a provider drops out of the default search scope.
	FailureThreshold int
	// Timeout bounds one provider's reload cycle end to end.
	Timeout time.Duration
	// Interval between scheduled full reloads; zero disables the scheduler.
	Interval time.Duration
	// Concurrency bounds how many providers reload in parallel.
	Concurrency int
	// FetchRetries is the number of retries for transient fetch failures.
	FetchRetries int
	// PreferCompleteMerge keeps existing field values rather than erasing
	// them when a sparser feed record merges into a listing.
	PreferCompleteMerge bool
	// PriceBandPct is the width of the dedup price band in percent.
	PriceBandPct float64
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath      string // SQLite path
	Providers   []Provider
	MaxPageSize int // search page size cap

	// Ingestion
	Reload ReloadConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	providers, err := parseProviders(getenv("PROVIDERS", ""))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:      getenv("DB_PATH", "listings.db"),
		Providers:   providers,
		MaxPageSize: getint("MAX_PAGE_SIZE", 100),

		// Ingestion
		Reload: ReloadConfig{
			RetireAfterMisses:   getint("RETIRE_AFTER_MISSES", 1),
			FailureThreshold:    getint("FAILURE_THRESHOLD", 3),
			Timeout:             getdur("RELOAD_TIMEOUT", 2*time.Minute),
			Interval:            getdur("RELOAD_INTERVAL", 0),
			Concurrency:         getint("RELOAD_CONCURRENCY", 4),
			FetchRetries:        getint("FETCH_RETRIES", 2),
			PreferCompleteMerge: getbool("PREFER_COMPLETE_MERGE", true),
			PriceBandPct:        getfloat("PRICE_BAND_PCT", 5.0),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-listing-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.MaxPageSize < 1 {
		return cfg, errors.New("MAX_PAGE_SIZE must be >= 1")
	}
	if cfg.Reload.RetireAfterMisses < 1 {
		return cfg, errors.New("RETIRE_AFTER_MISSES must be >= 1")
	}
	if cfg.Reload.FailureThreshold < 1 {
		return cfg, errors.New("FAILURE_THRESHOLD must be >= 1")
	}
	if cfg.Reload.Timeout <= 0 {
		return cfg, errors.New("RELOAD_TIMEOUT must be > 0")
	}
	if cfg.Reload.Interval < 0 {
		return cfg, errors.New("RELOAD_INTERVAL must be >= 0")
	}
	if cfg.Reload.Concurrency < 1 {
		return cfg, errors.New("RELOAD_CONCURRENCY must be >= 1")
	}
	if cfg.Reload.FetchRetries < 0 {
		return cfg, errors.New("FETCH_RETRIES must be >= 0")
	}
	if cfg.Reload.PriceBandPct <= 0 || cfg.Reload.PriceBandPct >= 100 {
		return cfg, errors.New("PRICE_BAND_PCT must be in (0,100)")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// parseProviders parses the PROVIDERS value. Entries are comma-separated
// name=format=url triples; names must be unique and formats one of xml, json
// or csv. An empty value yields an empty provider set (valid: the service
// then only serves already-ingested data).
func parseProviders(s string) ([]Provider, error) {
	entries := splitCSV(s)
	out := make([]Provider, 0, len(entries))
	seen := map[string]bool{}
	for _, e := range entries {
		parts := strings.SplitN(e, "=", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("PROVIDERS entry %q must be name=format=url", e)
		}
		p := Provider{
			Name:   strings.TrimSpace(parts[0]),
			Format: strings.ToLower(strings.TrimSpace(parts[1])),
			URL:    strings.TrimSpace(parts[2]),
		}
		if p.Name == "" || p.URL == "" {
			return nil, fmt.Errorf("PROVIDERS entry %q has an empty name or url", e)
		}
		switch p.Format {
		case "xml", "json", "csv":
		default:
			return nil, fmt.Errorf("PROVIDERS entry %q has unsupported format %q", e, p.Format)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("PROVIDERS declares %q twice", p.Name)
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	return out, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
