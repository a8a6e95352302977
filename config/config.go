package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Custody    CustodyConfig    `mapstructure:"custody"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Chains     ChainsConfig     `mapstructure:"chains"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // postgres, memory
}

type DatabaseConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	DBName           string        `mapstructure:"dbname"`
	SSLMode          string        `mapstructure:"sslmode"`
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	AutoMigrate      bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	PoolSize int           `mapstructure:"pool_size"`
	Timeout  time.Duration `mapstructure:"timeout"` // dial, read and write
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type CustodyConfig struct {
	MasterKey string `mapstructure:"master_key"` // 32-byte hex-encoded key for AES-256
}

// MasterKeyBytes decodes the hex master key.
func (c CustodyConfig) MasterKeyBytes() ([]byte, error) {
	if c.MasterKey == "" {
		return nil, errors.New("custody.master_key is not set")
	}
	key, err := hex.DecodeString(c.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("decoding custody.master_key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("custody.master_key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// LedgerConfig carries the currency catalogue and the values that make up
// the initial ledger snapshot.
type LedgerConfig struct {
	FeeAccount  string                    `mapstructure:"fee_account"` // owner id collecting fees, empty disables
	QuoteTTL    time.Duration             `mapstructure:"quote_ttl"`
	SwapFeeRate string                    `mapstructure:"swap_fee_rate"`
	Currencies  map[string]CurrencyConfig `mapstructure:"currencies"`
	Rates       map[string]string         `mapstructure:"rates"` // "pi_usd": "314159"
}

type CurrencyConfig struct {
	Decimals   int32  `mapstructure:"decimals"`
	Family     string `mapstructure:"family"` // account_ledger, evm, utxo, or empty for internal-only
	NetworkFee string `mapstructure:"network_fee"`
}

// CurrencyCodes returns the configured currency catalogue keyed by upper-case code.
func (l LedgerConfig) CurrencyCodes() map[string]CurrencyConfig {
	out := make(map[string]CurrencyConfig, len(l.Currencies))
	for code, c := range l.Currencies {
		out[strings.ToUpper(code)] = c
	}
	return out
}

// RatePairs returns the configured swap rates keyed as "SRC/DST".
func (l LedgerConfig) RatePairs() map[string]string {
	out := make(map[string]string, len(l.Rates))
	for pair, rate := range l.Rates {
		parts := strings.SplitN(pair, "_", 2)
		if len(parts) != 2 {
			continue
		}
		out[strings.ToUpper(parts[0])+"/"+strings.ToUpper(parts[1])] = rate
	}
	return out
}

type SettlementConfig struct {
	SchedulerEnabled  bool          `mapstructure:"scheduler_enabled"`
	Interval          time.Duration `mapstructure:"interval"`
	BatchSize         int           `mapstructure:"batch_size"`
	MaxParallelChains int           `mapstructure:"max_parallel_chains"`
	BroadcastTimeout  time.Duration `mapstructure:"broadcast_timeout"`
	StalledAfter      time.Duration `mapstructure:"stalled_after"`
	QuotePurgeEvery   time.Duration `mapstructure:"quote_purge_every"`
	QuoteRetention    time.Duration `mapstructure:"quote_retention"` // how long expired quotes stay readable
}

type ChainsConfig struct {
	AccountLedger AccountLedgerConfig `mapstructure:"account_ledger"`
	EVM           EVMConfig           `mapstructure:"evm"`
	UTXO          UTXOConfig          `mapstructure:"utxo"`
}

type AccountLedgerConfig struct {
	HorizonURL        string        `mapstructure:"horizon_url"`
	NetworkPassphrase string        `mapstructure:"network_passphrase"`
	BaseFee           int64         `mapstructure:"base_fee"` // stroops per operation
	TxTimeout         time.Duration `mapstructure:"tx_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type EVMConfig struct {
	RPCURL            string  `mapstructure:"rpc_url"`
	ChainID           int64   `mapstructure:"chain_id"`
	GasLimit          uint64  `mapstructure:"gas_limit"`
	MaxGasPriceGwei   int64   `mapstructure:"max_gas_price_gwei"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type UTXOConfig struct {
	ExplorerURL       string  `mapstructure:"explorer_url"` // esplora-compatible REST base URL
	Network           string  `mapstructure:"network"`      // mainnet, testnet, regtest
	FallbackFeeRate   int64   `mapstructure:"fallback_fee_rate"`
	ConfirmTarget     int     `mapstructure:"confirm_target"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CW_ (Custodial Wallet).
// Nested keys use underscore: CW_DATABASE_HOST, CW_CUSTODY_MASTER_KEY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "custodial_wallet")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.statement_timeout", "15s")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.timeout", "3s")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "custodial-wallet")
	v.SetDefault("custody.master_key", "")
	v.SetDefault("ledger.fee_account", "")
	v.SetDefault("ledger.quote_ttl", "60s")
	v.SetDefault("ledger.swap_fee_rate", "0.005")
	v.SetDefault("ledger.currencies", map[string]any{
		"pi":  map[string]any{"decimals": 7, "family": "account_ledger", "network_fee": "1"},
		"eth": map[string]any{"decimals": 18, "family": "evm", "network_fee": "0.0005"},
		"btc": map[string]any{"decimals": 8, "family": "utxo", "network_fee": "0.00002"},
		"usd": map[string]any{"decimals": 2, "family": "", "network_fee": "0"},
	})
	v.SetDefault("ledger.rates", map[string]any{
		"pi_usd": "314159",
	})
	v.SetDefault("settlement.scheduler_enabled", false)
	v.SetDefault("settlement.interval", "30s")
	v.SetDefault("settlement.batch_size", 50)
	v.SetDefault("settlement.max_parallel_chains", 3)
	v.SetDefault("settlement.broadcast_timeout", "20s")
	v.SetDefault("settlement.stalled_after", "10m")
	v.SetDefault("settlement.quote_purge_every", "5m")
	v.SetDefault("settlement.quote_retention", "24h")
	v.SetDefault("chains.account_ledger.horizon_url", "https://api.testnet.minepi.com")
	v.SetDefault("chains.account_ledger.network_passphrase", "Pi Testnet")
	v.SetDefault("chains.account_ledger.base_fee", 100000)
	v.SetDefault("chains.account_ledger.tx_timeout", "180s")
	v.SetDefault("chains.account_ledger.requests_per_second", 5)
	v.SetDefault("chains.evm.rpc_url", "https://sepolia.drpc.org")
	v.SetDefault("chains.evm.chain_id", 11155111)
	v.SetDefault("chains.evm.gas_limit", 21000)
	v.SetDefault("chains.evm.max_gas_price_gwei", 200)
	v.SetDefault("chains.evm.requests_per_second", 10)
	v.SetDefault("chains.utxo.explorer_url", "https://blockstream.info/testnet/api")
	v.SetDefault("chains.utxo.network", "testnet")
	v.SetDefault("chains.utxo.fallback_fee_rate", 10)
	v.SetDefault("chains.utxo.confirm_target", 6)
	v.SetDefault("chains.utxo.requests_per_second", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CW_DATABASE_HOST -> database.host
	v.SetEnvPrefix("CW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks settings the process cannot start without.
func (c *Config) Validate() error {
	if _, err := c.Custody.MasterKeyBytes(); err != nil {
		return err
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is not set")
	}
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Settlement.BatchSize <= 0 {
		return errors.New("settlement.batch_size must be positive")
	}
	if c.Settlement.SchedulerEnabled && c.Settlement.Interval <= 0 {
		return errors.New("settlement.interval must be positive when the scheduler is enabled")
	}
	if c.Settlement.QuotePurgeEvery <= 0 {
		return errors.New("settlement.quote_purge_every must be positive")
	}
	if c.Settlement.QuoteRetention < 0 {
		return errors.New("settlement.quote_retention must not be negative")
	}
	return nil
}
