package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/tscsale/internal/purchase"
	"github.com/Mohsinsiddi/tscsale/internal/ui"
	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <usdt-amount>",
	Short: "Show how much TSC an amount of USDT buys",
	Long: `Show the TSC received for a USDT amount at the configured price
(token_price, default 0.05 USDT per TSC). No wallet is needed.

Example:
  tscsale quote 100     # 2000 TSC`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tsc, err := purchase.Quote(args[0], cfg.TokenPrice)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Quote", [][2]string{
			{"Pay", args[0] + " USDT"},
			{"Price", cfg.TokenPrice + " USDT / TSC"},
			{"Receive", tsc + " TSC"},
		}))
		return nil
	},
}
