// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database settings, retrieval tuning, fulfillment API access, and
// observability switches.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and parameterizes the system-of-record database.
type DBConfig struct {
	Driver string // "sqlite" (default, pure Go) or "postgres"
	Path   string // SQLite file path
	DSN    string // Postgres DSN when Driver == "postgres"
}

// FulfillmentConfig parameterizes the outbound order API and the saga's
// retry budget.
type FulfillmentConfig struct {
	URL            string        // order submission endpoint
	APIKey         string        // sent as CN-API-KEY
	RequestTimeout time.Duration // per-attempt HTTP timeout
	MaxAttempts    int           // total tries, transient failures only
	RetryBase      time.Duration // initial backoff interval
	Deadline       time.Duration // overall saga deadline across retries
}

// EmbeddingConfig parameterizes the embedding provider used by retrieval.
type EmbeddingConfig struct {
	BaseURL    string // OpenAI-compatible endpoint; empty = api.openai.com
	APIKey     string
	Model      string
	Dimensions int // fixed vector width the catalog index was built with
}

// AgentConfig parameterizes the reasoning engine.
type AgentConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRounds  int // tool-call rounds per turn
	MaxHistory int // messages of history fed into a turn
}

// RetrievalConfig tunes the similarity search.
type RetrievalConfig struct {
	Threshold float64 // minimum cosine similarity [0,1]
	TopK      int
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS CORSConfig

	// Referral fallback: the human pharmacist contact handed out when
	// retrieval comes back empty or confidence is too low.
	PharmacistContact string

	DB          DBConfig
	Fulfillment FulfillmentConfig
	Embedding   EmbeddingConfig
	Agent       AgentConfig
	Retrieval   RetrievalConfig

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

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		PharmacistContact: getenv("PHARMACIST_CONTACT", "+999999999999"),

		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "app.db"),
			DSN:    getenv("DB_DSN", ""),
		},

		Fulfillment: FulfillmentConfig{
			URL:            getenv("FULFILLMENT_URL", ""),
			APIKey:         getenv("CN_API_KEY", ""),
			RequestTimeout: getdur("FULFILLMENT_TIMEOUT", 15*time.Second),
			MaxAttempts:    getint("FULFILLMENT_MAX_ATTEMPTS", 3),
			RetryBase:      getdur("FULFILLMENT_RETRY_BASE", 2*time.Second),
			Deadline:       getdur("FULFILLMENT_DEADLINE", 45*time.Second),
		},

		Embedding: EmbeddingConfig{
			BaseURL:    getenv("EMBEDDING_BASE_URL", ""),
			APIKey:     getenv("EMBEDDING_API_KEY", ""),
			Model:      getenv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimensions: getint("EMBEDDING_DIMENSIONS", 384),
		},

		Agent: AgentConfig{
			APIKey:     getenv("AGENT_API_KEY", ""),
			BaseURL:    getenv("AGENT_BASE_URL", ""),
			Model:      getenv("AGENT_MODEL", "gpt-4o-mini"),
			MaxRounds:  getint("AGENT_MAX_ROUNDS", 6),
			MaxHistory: getint("AGENT_MAX_HISTORY", 500),
		},

		Retrieval: RetrievalConfig{
			Threshold: getfloat("RETRIEVAL_THRESHOLD", 0.5),
			TopK:      getint("RETRIEVAL_TOP_K", 10),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-pharmacy-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	return cfg, cfg.validate()
}

// validate rejects values the rest of the app cannot run with.
func (c Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.New("config: PORT must be numeric")
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return errors.New("config: GIN_MODE must be debug, release, or test")
	}
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			return errors.New("config: DB_PATH required for sqlite")
		}
	case "postgres":
		if c.DB.DSN == "" {
			return errors.New("config: DB_DSN required for postgres")
		}
	default:
		return errors.New("config: DB_DRIVER must be sqlite or postgres")
	}
	if c.Retrieval.Threshold < 0 || c.Retrieval.Threshold > 1 {
		return errors.New("config: RETRIEVAL_THRESHOLD must be in [0,1]")
	}
	if c.Retrieval.TopK < 1 {
		return errors.New("config: RETRIEVAL_TOP_K must be >= 1")
	}
	if c.Embedding.Dimensions < 1 {
		return errors.New("config: EMBEDDING_DIMENSIONS must be >= 1")
	}
	if c.Fulfillment.MaxAttempts < 1 {
		return errors.New("config: FULFILLMENT_MAX_ATTEMPTS must be >= 1")
	}
	if c.RateRPS < 0 {
		return errors.New("config: RATE_RPS must be >= 0")
	}
	if c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1 {
		return errors.New("config: OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// ---- env helpers ----

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getint(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getfloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func getbool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
