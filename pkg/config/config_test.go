package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalConfig = `
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
  admin_token: "operator-token-123"
price:
  static:
    USDC: "1"
    CRT: "0.01"
currencies:
  - symbol: USDC
    decimals: 6
    chain: solana
    asset_id: EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
    min_withdrawal: "5"
    per_tx_cap: "100000"
    daily_cap: "1000000"
    min_confirmations: 12
  - symbol: CRT
    decimals: 9
    chain: solana
    per_tx_cap: "10000000"
    daily_cap: "100000000"
`

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Fatalf("expected 24h session ttl, got %s", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.ChallengeTTL != 5*time.Minute {
		t.Fatalf("expected 5m challenge ttl, got %s", cfg.Auth.ChallengeTTL)
	}
	if cfg.Deposit.Cooldown != time.Hour {
		t.Fatalf("expected 60m cooldown, got %s", cfg.Deposit.Cooldown)
	}
	if cfg.Price.TTL != time.Minute {
		t.Fatalf("expected 60s price ttl, got %s", cfg.Price.TTL)
	}
	if cfg.Settlement.SavingsBps != 5000 || cfg.Settlement.LiquidityBps != 5000 {
		t.Fatalf("expected 50/50 loss split, got %d/%d", cfg.Settlement.SavingsBps, cfg.Settlement.LiquidityBps)
	}
	if cfg.Currencies[1].AssetID != "native" {
		t.Fatalf("expected default asset id native, got %q", cfg.Currencies[1].AssetID)
	}
	if cfg.Currencies[1].PollInterval != 30*time.Second {
		t.Fatalf("expected default poll interval, got %s", cfg.Currencies[1].PollInterval)
	}
	if cfg.Chains.Tron.FinalityDepth != 19 {
		t.Fatalf("expected tron finality depth 19, got %d", cfg.Chains.Tron.FinalityDepth)
	}
	if cfg.Chains.Dogecoin.Network != "mainnet" {
		t.Fatalf("expected dogecoin mainnet by default, got %q", cfg.Chains.Dogecoin.Network)
	}
}

func TestParse_ExplicitSplitKept(t *testing.T) {
	raw := minimalConfig + `
settlement:
  savings_bps: 0
  liquidity_bps: 10000
`
	cfg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if cfg.Settlement.SavingsBps != 0 || cfg.Settlement.LiquidityBps != 10000 {
		t.Fatalf("unexpected split %d/%d", cfg.Settlement.SavingsBps, cfg.Settlement.LiquidityBps)
	}
}

func TestParse_RejectsBadSplit(t *testing.T) {
	raw := minimalConfig + `
settlement:
  savings_bps: 3000
  liquidity_bps: 3000
`
	_, err := Parse([]byte(raw))
	if err == nil || !strings.Contains(err.Error(), "savings_bps") {
		t.Fatalf("expected split validation error, got %v", err)
	}
}

func TestParse_RejectsDuplicateCurrency(t *testing.T) {
	raw := minimalConfig + `
  - symbol: USDC
    decimals: 6
    chain: solana
    per_tx_cap: "1"
    daily_cap: "1"
`
	if _, err := Parse([]byte(raw)); err == nil {
		t.Fatal("expected duplicate currency to be rejected")
	}
}

func TestParse_RejectsUnknownChain(t *testing.T) {
	raw := strings.Replace(minimalConfig, "chain: solana", "chain: ethereum", 1)
	if _, err := Parse([]byte(raw)); err == nil {
		t.Fatal("expected unknown chain to be rejected")
	}
}

func TestParse_MissingSecrets(t *testing.T) {
	raw := strings.Replace(minimalConfig, `jwt_secret: "0123456789abcdef0123456789abcdef"`, `jwt_secret: ""`, 1)
	if _, err := Parse([]byte(raw)); err == nil {
		t.Fatal("expected missing jwt secret to be rejected")
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_ADMIN_TOKEN", "from-env-admin-token")
	raw := strings.Replace(minimalConfig, `admin_token: "operator-token-123"`, `admin_token: "${TEST_ADMIN_TOKEN}"`, 1)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Auth.AdminToken != "from-env-admin-token" {
		t.Fatalf("expected admin token from env, got %q", cfg.Auth.AdminToken)
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(LoggingConfig{Level: "loud", Format: "json"}); err == nil {
		t.Fatal("expected invalid level error")
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	logger, err := NewLogger(LoggingConfig{Level: "info", Format: "json", OutputPath: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("expected log line in file, got %q", string(data))
	}
}
