package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mohsinsiddi/tscsale/internal/config"
	"github.com/Mohsinsiddi/tscsale/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/tscsale/cmd.Version=1.2.3" .
var Version = "0.3.0"

var (
	cfgDir      string
	cfg         *config.Config
	log         zerolog.Logger
	networkFlag string
	walletFlag  string
	logLevel    string
	assumeYes   bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "tscsale",
	Short: "Buy TSC tokens with USDT on BNB Smart Chain",
	Long: `tscsale connects a local keychain wallet to the TSC business contract.

  Check balances, switch networks, join as an expert, accept invitations,
  list brands, and buy TSC in two steps: approve USDT, then buy.

Every wallet action (connect, switch network, send transaction) is confirmed
on the terminal unless --yes is given.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if networkFlag != "" {
			cfg.Network = networkFlag
		}
		if walletFlag != "" {
			cfg.DefaultWallet = walletFlag
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
		return nil
	},
}

// Execute runs the root command. Ctrl-C cancels whatever is in flight.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errLine(err))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $TSCSALE_CONFIG_DIR or ~/.tscsale)")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network to buy on (bsc-testnet, bsc)")
	rootCmd.PersistentFlags().StringVarP(&walletFlag, "wallet", "w", "", "wallet to use instead of the default")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "approve every wallet prompt")

	rootCmd.AddCommand(
		connectCmd,
		networkCmd,
		balanceCmd,
		walletCmd,
		expertCmd,
		inviteCmd,
		brandCmd,
		statsCmd,
		quoteCmd,
		buyCmd,
		sessionCmd,
		configCmd,
	)
}
