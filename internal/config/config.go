// Package config handles parsing of CLI flags and environment variables
// for the agentauthd server.
//
// Precedence (highest to lowest):
//  1. Command-line flags
//  2. AGENTAUTH_* environment variables
//  3. Defaults
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the parsed server configuration.
type Config struct {
	// Listen port for the main server.
	Port int

	// Separate health check port (optional, for K8s probes); 0 = same as main.
	HealthPort int

	// Secret used to sign and verify capability tokens. Required.
	Secret string

	// How long a generated challenge stays solvable.
	ChallengeTTL time.Duration
	// Lifetime of a minted capability token.
	TokenTTL time.Duration
	// Default minimum mean capability score the request guard accepts.
	MinScore float64

	// PoMI canary injection.
	PoMIEnabled         bool
	CanariesPerChallenge int
	ConfidenceThreshold  float64
	ModelFamilies        []string

	// Response timing analysis.
	TimingEnabled   bool
	SessionTracking bool

	// Logging.
	LogFormat   string // "json" or "text"
	LogLevelStr string // "debug", "info", "warn", "error"

	// TLS (optional).
	TLSCert string
	TLSKey  string

	// Version flag.
	ShowVersion bool
}

// LogLevel returns the slog.Level corresponding to the configured log level string.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.LogLevelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Parse reads configuration from CLI flags and environment variables.
// Precedence (highest to lowest): CLI flags > AGENTAUTH_* env vars > defaults.
func Parse(args []string, version string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("agentauthd", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "port", envOrDefaultInt("AGENTAUTH_PORT", 8080), "Listen port")
	fs.IntVar(&cfg.HealthPort, "health-port", envOrDefaultInt("AGENTAUTH_HEALTH_PORT", 0), "Separate health check port (0 = same as main)")
	fs.StringVar(&cfg.Secret, "secret", envOrDefault("AGENTAUTH_SECRET", ""), "Secret used to sign and verify capability tokens")

	challengeTTL := fs.String("challenge-ttl", envOrDefault("AGENTAUTH_CHALLENGE_TTL", "30s"), "Challenge time-to-live")
	tokenTTL := fs.String("token-ttl", envOrDefault("AGENTAUTH_TOKEN_TTL", "1h"), "Capability token time-to-live")
	minScore := fs.String("min-score", envOrDefault("AGENTAUTH_MIN_SCORE", "0.7"), "Default minimum mean capability score")

	fs.BoolVar(&cfg.PoMIEnabled, "pomi-enabled", envOrDefaultBool("AGENTAUTH_POMI_ENABLED", true), "Enable PoMI canary injection and model classification")
	fs.IntVar(&cfg.CanariesPerChallenge, "pomi-canaries-per-challenge", envOrDefaultInt("AGENTAUTH_POMI_CANARIES_PER_CHALLENGE", 2), "Number of canaries injected per challenge")
	confidenceThreshold := fs.String("pomi-confidence-threshold", envOrDefault("AGENTAUTH_POMI_CONFIDENCE_THRESHOLD", "0.5"), "Minimum posterior confidence to name a model family")
	modelFamiliesStr := fs.String("pomi-model-families", envOrDefault("AGENTAUTH_POMI_MODEL_FAMILIES", ""), "Comma-separated model families the classifier considers (empty = built-in defaults)")

	fs.BoolVar(&cfg.TimingEnabled, "timing-enabled", envOrDefaultBool("AGENTAUTH_TIMING_ENABLED", true), "Enable response-timing zone/pattern analysis")
	fs.BoolVar(&cfg.SessionTracking, "timing-session-tracking", envOrDefaultBool("AGENTAUTH_TIMING_SESSION_TRACKING", true), "Enable cross-challenge session timing-anomaly tracking")

	fs.StringVar(&cfg.LogFormat, "log-format", envOrDefault("AGENTAUTH_LOG_FORMAT", "json"), `Log format: "json" or "text"`)
	fs.StringVar(&cfg.LogLevelStr, "log-level", envOrDefault("AGENTAUTH_LOG_LEVEL", "info"), `Log level: "debug", "info", "warn", "error"`)

	fs.StringVar(&cfg.TLSCert, "tls-cert", envOrDefault("AGENTAUTH_TLS_CERT", ""), "TLS certificate path")
	fs.StringVar(&cfg.TLSKey, "tls-key", envOrDefault("AGENTAUTH_TLS_KEY", ""), "TLS private key path")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	cfg.ChallengeTTL, err = time.ParseDuration(*challengeTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid challenge-ttl %q: %w", *challengeTTL, err)
	}
	cfg.TokenTTL, err = time.ParseDuration(*tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid token-ttl %q: %w", *tokenTTL, err)
	}
	cfg.MinScore, err = strconv.ParseFloat(*minScore, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid min-score %q: %w", *minScore, err)
	}
	cfg.ConfidenceThreshold, err = strconv.ParseFloat(*confidenceThreshold, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid pomi-confidence-threshold %q: %w", *confidenceThreshold, err)
	}

	if *modelFamiliesStr != "" {
		cfg.ModelFamilies = strings.Split(*modelFamiliesStr, ",")
		for i := range cfg.ModelFamilies {
			cfg.ModelFamilies[i] = strings.TrimSpace(cfg.ModelFamilies[i])
		}
	}

	if cfg.ShowVersion {
		return cfg, nil
	}

	if cfg.Secret == "" {
		return nil, fmt.Errorf("--secret (or AGENTAUTH_SECRET) is required")
	}

	return cfg, nil
}

// envOrDefault returns the value of the environment variable or the default.
func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envOrDefaultInt returns the int value of the environment variable or the default.
func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// envOrDefaultBool returns the bool value of the environment variable or the default.
func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
