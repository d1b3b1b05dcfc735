package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the ledger server configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	NATS       NATSConfig       `yaml:"nats"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Auth       AuthConfig       `yaml:"auth"`
	Keys       KeysConfig       `yaml:"keys"`
	Currencies []CurrencyConfig `yaml:"currencies" validate:"required,min=1,dive"`
	Chains     ChainsConfig     `yaml:"chains"`
	Price      PriceConfig      `yaml:"price"`
	Deposit    DepositConfig    `yaml:"deposit"`
	Withdrawal WithdrawalConfig `yaml:"withdrawal"`
	Settlement SettlementConfig `yaml:"settlement"`
	Audit      AuditConfig      `yaml:"audit"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" default:"60s"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" default:"localhost" validate:"required"`
	Port     int    `yaml:"port" default:"5432"`
	User     string `yaml:"user" default:"postgres"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"custody_ledger"`
	SSLMode  string `yaml:"ssl_mode" default:"disable" validate:"oneof=disable require verify-ca verify-full"`

	MaxOpenConns    int           `yaml:"max_open_conns" default:"20"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
}

// RedisConfig enables the redis-backed challenge and cooldown stores when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"custody:"`
}

// NATSConfig enables event publishing when URL is set.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix" default:"custody"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stdout"`
	MaxSizeMB  int    `yaml:"max_size_mb" default:"100"`
	MaxBackups int    `yaml:"max_backups" default:"5"`
	MaxAgeDays int    `yaml:"max_age_days" default:"14"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Disabled bool `yaml:"disabled"`
}

// AuthConfig holds session and operator authentication settings
type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret" validate:"required,min=32"`
	JWTIssuer    string        `yaml:"jwt_issuer" default:"custody-ledger"`
	SessionTTL   time.Duration `yaml:"session_ttl" default:"24h"`
	ChallengeTTL time.Duration `yaml:"challenge_ttl" default:"5m"`
	AdminToken   string        `yaml:"admin_token" validate:"required,min=16"`
}

// KeysConfig locates key material. MasterKeyEnv names the env variable holding
// the base64 AES-256 key used to seal receive-address keys.
type KeysConfig struct {
	MasterKeyEnv string `yaml:"master_key_env" default:"CUSTODY_MASTER_KEY"`
}

// CurrencyConfig describes one supported currency. Amounts are decimal strings
// in display units and are converted to base units at start-up.
type CurrencyConfig struct {
	Symbol           string        `yaml:"symbol" validate:"required,uppercase"`
	Decimals         int           `yaml:"decimals" validate:"min=0,max=18"`
	Chain            string        `yaml:"chain" validate:"required,oneof=solana dogecoin tron"`
	AssetID          string        `yaml:"asset_id" default:"native"`
	MinWithdrawal    string        `yaml:"min_withdrawal" default:"0"`
	MinDeposit       string        `yaml:"min_deposit" default:"0"`
	PerTxCap         string        `yaml:"per_tx_cap" validate:"required"`
	DailyCap         string        `yaml:"daily_cap" validate:"required"`
	MinConfirmations int64         `yaml:"min_confirmations" validate:"min=0"`
	PollInterval     time.Duration `yaml:"poll_interval" default:"30s"`
}

// ChainsConfig groups per-chain provider settings
type ChainsConfig struct {
	Solana   SolanaConfig   `yaml:"solana"`
	Dogecoin DogecoinConfig `yaml:"dogecoin"`
	Tron     TronConfig     `yaml:"tron"`
}

// ProviderConfig holds the settings shared by every chain adapter
type ProviderConfig struct {
	Enabled       bool          `yaml:"enabled"`
	HotWalletKey  string        `yaml:"hot_wallet_key"`
	CallTimeout   time.Duration `yaml:"call_timeout" default:"20s"`
	RateLimit     float64       `yaml:"rate_limit" default:"5"`
	RateBurst     int           `yaml:"rate_burst" default:"5"`
	FinalityDepth int64         `yaml:"finality_depth"`
	PageSize      int           `yaml:"page_size" default:"50"`
}

// SolanaConfig contains Solana RPC settings
type SolanaConfig struct {
	ProviderConfig `yaml:",inline"`
	RPCURL         string `yaml:"rpc_url" default:"https://api.mainnet-beta.solana.com"`
}

// DogecoinConfig contains Dogecoin REST provider settings
type DogecoinConfig struct {
	ProviderConfig `yaml:",inline"`
	APIURL         string `yaml:"api_url" default:"https://api.blockcypher.com/v1/doge/main"`
	APIToken       string `yaml:"api_token"`
	FeePerKB       int64  `yaml:"fee_per_kb" default:"1000000"`
	Network        string `yaml:"network" default:"mainnet" validate:"oneof=mainnet testnet"`
	// DropAfter bounds how long a signed transaction may stay unseen before it is considered dropped.
	DropAfter time.Duration `yaml:"drop_after" default:"6h"`
}

// TronConfig contains Tron gRPC and TronGrid settings
type TronConfig struct {
	ProviderConfig `yaml:",inline"`
	GRPCURL        string        `yaml:"grpc_url" default:"grpc.trongrid.io:50051"`
	HTTPURL        string        `yaml:"http_url" default:"https://api.trongrid.io"`
	APIKey         string        `yaml:"api_key"`
	TxExpiration   time.Duration `yaml:"tx_expiration" default:"10m"`
}

// PriceConfig selects the quote source for the price table
type PriceConfig struct {
	SourceURL string            `yaml:"source_url"`
	Static    map[string]string `yaml:"static"`
	TTL       time.Duration     `yaml:"ttl" default:"60s"`
	MaxStale  time.Duration     `yaml:"max_stale" default:"10m"`
}

// DepositConfig contains deposit monitor settings
type DepositConfig struct {
	Cooldown        time.Duration `yaml:"cooldown" default:"60m"`
	CooldownBackend string        `yaml:"cooldown_backend" default:"postgres" validate:"oneof=postgres redis memory"`
	BackoffBase     time.Duration `yaml:"backoff_base" default:"2s"`
	BackoffMax      time.Duration `yaml:"backoff_max" default:"5m"`
}

// WithdrawalConfig contains orchestrator settings
type WithdrawalConfig struct {
	Workers      int           `yaml:"workers" default:"4" validate:"min=1"`
	QueueSize    int           `yaml:"queue_size" default:"256" validate:"min=1"`
	AttemptCap   int           `yaml:"attempt_cap" default:"8" validate:"min=1"`
	BackoffBase  time.Duration `yaml:"backoff_base" default:"5s"`
	BackoffMax   time.Duration `yaml:"backoff_max" default:"10m"`
	DispatchTick time.Duration `yaml:"dispatch_tick" default:"5s"`
	Lease        time.Duration `yaml:"lease" default:"2m"`
	CoolOff      time.Duration `yaml:"cool_off" default:"30m"`
}

// SettlementConfig contains the loss-split policy and game resolver endpoint
type SettlementConfig struct {
	SavingsBps   int64         `yaml:"savings_bps" validate:"min=0,max=10000"`
	LiquidityBps int64         `yaml:"liquidity_bps" validate:"min=0,max=10000"`
	ResolverURL  string        `yaml:"resolver_url"`
	SavingsLock  time.Duration `yaml:"savings_lock" default:"24h"`
	// StaleAfter is how long a bet may stay open before the sweep voids it.
	StaleAfter time.Duration `yaml:"stale_after" default:"10m"`
}

// AuditConfig controls the periodic invariant auditor
type AuditConfig struct {
	Interval time.Duration `yaml:"interval" default:"5m"`
}

// Load reads the YAML file at path, expands ${VAR} references from the
// environment, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes configuration from YAML bytes.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) error {
	if err := defaults.Set(cfg); err != nil {
		return err
	}
	for i := range cfg.Currencies {
		if err := defaults.Set(&cfg.Currencies[i]); err != nil {
			return err
		}
	}
	if cfg.Settlement.SavingsBps == 0 && cfg.Settlement.LiquidityBps == 0 {
		cfg.Settlement.SavingsBps, cfg.Settlement.LiquidityBps = 5000, 5000
	}
	if cfg.Chains.Tron.FinalityDepth == 0 {
		cfg.Chains.Tron.FinalityDepth = 19
	}
	if cfg.Chains.Dogecoin.FinalityDepth == 0 {
		cfg.Chains.Dogecoin.FinalityDepth = 6
	}
	return nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if cfg.Settlement.SavingsBps+cfg.Settlement.LiquidityBps != 10000 {
		return errors.New("settlement.savings_bps + settlement.liquidity_bps must equal 10000")
	}
	if cfg.Price.SourceURL == "" && len(cfg.Price.Static) == 0 {
		return errors.New("price.source_url or price.static is required")
	}
	seen := make(map[string]struct{}, len(cfg.Currencies))
	for _, c := range cfg.Currencies {
		if _, dup := seen[c.Symbol]; dup {
			return fmt.Errorf("currency %s configured twice", c.Symbol)
		}
		seen[c.Symbol] = struct{}{}
	}
	return nil
}
