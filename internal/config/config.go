package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

// Config holds the terminal's runtime settings. Everything comes from the
// environment; a .env file next to the binary is honored when present.
type Config struct {
	// ListenAddr is the loopback address the UI talks to.
	ListenAddr string
	// MetricsAddr exposes Prometheus metrics when non-empty.
	MetricsAddr string
	// UpstreamURL is the base URL of the remote POS API.
	UpstreamURL string
	// UpstreamTimeout bounds every upstream HTTP call.
	UpstreamTimeout time.Duration
	// UIOrigin is the allowed CORS origin for the desktop UI dev server.
	UIOrigin string
	// DBPath is the local SQLite file for drafts and overrides.
	DBPath string
	// ServiceFeeRate is applied to checkout subtotals (0.10 = 10%).
	ServiceFeeRate decimal.Decimal
	// CompletionPolicy picks the behavior when the completion call fails
	// after a settlement was applied locally.
	CompletionPolicy string
}

// Load reads configuration from the environment, loading .env first if it
// exists. Invalid values fail fast rather than limping along with defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:       getEnv("LISTEN_ADDR", "127.0.0.1:8090"),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
		UpstreamURL:      getEnv("UPSTREAM_URL", "http://localhost:8081"),
		UIOrigin:         getEnv("UI_ORIGIN", "http://localhost:5173"),
		DBPath:           getEnv("DB_PATH", "./data/terminal.db"),
		CompletionPolicy: getEnv("COMPLETION_POLICY", enum.CompletionPolicyProceed),
	}

	timeout := getEnv("UPSTREAM_TIMEOUT", "10s")
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT %q: %w", timeout, err)
	}
	cfg.UpstreamTimeout = d

	rate := getEnv("SERVICE_FEE_RATE", "0.10")
	fee, err := decimal.NewFromString(rate)
	if err != nil || fee.IsNegative() {
		return nil, fmt.Errorf("invalid SERVICE_FEE_RATE %q", rate)
	}
	cfg.ServiceFeeRate = fee

	switch cfg.CompletionPolicy {
	case enum.CompletionPolicyProceed, enum.CompletionPolicyBlock:
	default:
		return nil, fmt.Errorf("invalid COMPLETION_POLICY %q", cfg.CompletionPolicy)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
