package config

// Config holds all tscsale configuration.
type Config struct {
	Network             string    `json:"network"               mapstructure:"network"`
	RPCURL              string    `json:"rpc_url,omitempty"     mapstructure:"rpc_url"` // overrides the network's RPC list
	DefaultWallet       string    `json:"default_wallet"        mapstructure:"default_wallet"`
	Contracts           Contracts `json:"contracts"             mapstructure:"contracts"`
	TokenPrice          string    `json:"token_price"           mapstructure:"token_price"` // payment tokens per sale token
	ReuseAllowance      bool      `json:"reuse_allowance"       mapstructure:"reuse_allowance"`
	ReceiptPollInterval string    `json:"receipt_poll_interval" mapstructure:"receipt_poll_interval"`
	Log                 LogConfig `json:"log"                   mapstructure:"log"`

	// internal: config dir path used for Save()
	configDir string
	// file is the config as stored on disk, without env overrides
	file *Config
}

// Contracts holds the deployed addresses the client talks to.
type Contracts struct {
	PaymentToken string `json:"payment_token" mapstructure:"payment_token"`
	SaleToken    string `json:"sale_token"    mapstructure:"sale_token"`
	Business     string `json:"business"      mapstructure:"business"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string `json:"level"  mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `json:"pretty" mapstructure:"pretty"` // console writer instead of JSON
}
