package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const (
	defaultNetwork      = "bsc-testnet"
	defaultPollInterval = "2s"
	defaultLogLevel     = "warn"

	configFile  = "config.json"
	walletsFile = "wallets.json"

	// DirEnv overrides the config directory.
	DirEnv = "TSCSALE_CONFIG_DIR"
)

// ErrUnknownKey is returned by Set for keys that do not exist.
var ErrUnknownKey = errors.New("unknown config key")

// Keys lists every key Set accepts.
var Keys = []string{
	"network", "rpc_url", "default_wallet",
	"contracts.payment_token", "contracts.sale_token", "contracts.business",
	"token_price", "reuse_allowance", "receipt_poll_interval",
	"log.level", "log.pretty",
}

// Load reads config from dir (or creates defaults). dir defaults to
// $TSCSALE_CONFIG_DIR, then ~/.tscsale. Environment variables override file
// values with prefix TSC_: TSC_RPC_URL, TSC_CONTRACTS_BUSINESS, TSC_LOG_LEVEL.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = os.Getenv(DirEnv)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".tscsale")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	// The file layer is what Save writes back, so environment and flag
	// overrides never end up in config.json.
	file, err := read(newViper(dir))
	if err != nil {
		return nil, err
	}

	v := newViper(dir)
	v.SetEnvPrefix("TSC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	cfg, err := read(v)
	if err != nil {
		return nil, err
	}
	cfg.configDir = dir
	cfg.file = file
	return cfg, nil
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetDefault("network", defaultNetwork)
	v.SetDefault("rpc_url", "")
	v.SetDefault("default_wallet", "")
	v.SetDefault("contracts.payment_token", TestnetPaymentToken)
	v.SetDefault("contracts.sale_token", TestnetSaleToken)
	v.SetDefault("contracts.business", TestnetBusiness)
	v.SetDefault("token_price", DefaultTokenPrice)
	v.SetDefault("reuse_allowance", false)
	v.SetDefault("receipt_poll_interval", defaultPollInterval)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.pretty", true)

	v.SetConfigFile(filepath.Join(dir, configFile))
	v.SetConfigType("json")
	return v
}

func read(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Save writes the file layer to disk: the loaded file plus every Set since.
// Values that only came from the environment or from flags are not written.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	out := c
	if c.file != nil {
		out = c.file
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Set assigns one key from its string form, validating it. The value is
// also recorded in the file layer so Save persists it.
func (c *Config) Set(key, value string) error {
	if err := c.set(key, value); err != nil {
		return err
	}
	if c.file != nil {
		return c.file.set(key, value)
	}
	return nil
}

func (c *Config) set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "network":
		c.Network = value
	case "rpc_url":
		c.RPCURL = value
	case "default_wallet":
		c.DefaultWallet = value
	case "contracts.payment_token", "contracts.sale_token", "contracts.business":
		if !common.IsHexAddress(value) {
			return fmt.Errorf("%s: invalid address %q", key, value)
		}
		addr := common.HexToAddress(value).Hex()
		switch key {
		case "contracts.payment_token":
			c.Contracts.PaymentToken = addr
		case "contracts.sale_token":
			c.Contracts.SaleToken = addr
		default:
			c.Contracts.Business = addr
		}
	case "token_price":
		if n, err := chain.ToBaseUnits(value, chain.EtherDecimals); err != nil || n.Sign() <= 0 {
			return fmt.Errorf("token_price: must be a positive decimal, got %q", value)
		}
		c.TokenPrice = value
	case "reuse_allowance", "log.pretty":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "reuse_allowance" {
			c.ReuseAllowance = b
		} else {
			c.Log.Pretty = b
		}
	case "receipt_poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("receipt_poll_interval: must be a positive duration, got %q", value)
		}
		c.ReceiptPollInterval = value
	case "log.level":
		switch value {
		case "trace", "debug", "info", "warn", "error", "disabled":
			c.Log.Level = value
		default:
			return fmt.Errorf("log.level: unknown level %q", value)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// PollInterval returns the receipt poll interval, falling back to 2s.
func (c *Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.ReceiptPollInterval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where wallet metadata is stored.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}
