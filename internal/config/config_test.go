package config

import (
	"testing"
	"time"

	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:8090" {
		t.Errorf("listen addr: got %s", cfg.ListenAddr)
	}
	if cfg.UpstreamTimeout != 10*time.Second {
		t.Errorf("timeout: got %s", cfg.UpstreamTimeout)
	}
	if !cfg.ServiceFeeRate.Equal(mustDecimal(t, "0.10")) {
		t.Errorf("fee rate: got %s", cfg.ServiceFeeRate)
	}
	if cfg.CompletionPolicy != enum.CompletionPolicyProceed {
		t.Errorf("completion policy: got %s", cfg.CompletionPolicy)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("SERVICE_FEE_RATE", "0.12")
	t.Setenv("COMPLETION_POLICY", enum.CompletionPolicyBlock)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("listen addr: got %s", cfg.ListenAddr)
	}
	if !cfg.ServiceFeeRate.Equal(mustDecimal(t, "0.12")) {
		t.Errorf("fee rate: got %s", cfg.ServiceFeeRate)
	}
	if cfg.CompletionPolicy != enum.CompletionPolicyBlock {
		t.Errorf("completion policy: got %s", cfg.CompletionPolicy)
	}
}

func TestLoad_InvalidFeeRate(t *testing.T) {
	t.Setenv("SERVICE_FEE_RATE", "lots")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid fee rate")
	}

	t.Setenv("SERVICE_FEE_RATE", "-0.10")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative fee rate")
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid timeout")
	}
}

func TestLoad_InvalidCompletionPolicy(t *testing.T) {
	t.Setenv("COMPLETION_POLICY", "SHRUG")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid completion policy")
	}
}
