package config

import "time"

// BSC Testnet deployment.
const (
	TestnetPaymentToken = "0xfA6d5d51bc2f5868B9f2A5Df217554697218605F" // TUSDT
	TestnetSaleToken    = "0x3efdEB8EE99EC221e8b4610489eEaF22D512cD10" // TTSC
	TestnetBusiness     = "0x715d6D1a0879998b3f1b1A490D0c28942aB294ce"
	DefaultTokenPrice   = "0.05"
)

// Symbols shown for the two tokens.
const (
	PaymentSymbol = "TUSDT"
	SaleSymbol    = "TTSC"
)

// Timeouts used by cmd.
const (
	RPCSelectTimeout = 10 * time.Second // endpoint benchmark before connecting
	TxConfirmTimeout = 3 * time.Minute  // one write, sent and mined
)
