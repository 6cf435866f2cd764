package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/tscsale/internal/balance"
	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/Mohsinsiddi/tscsale/internal/ui"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show native, USDT and TSC balances of the connected account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		spin := startProgress(cmd.OutOrStdout(), "Fetching balances...")
		addr, err := a.connect(ctx)
		if err != nil {
			spin.Stop()
			return err
		}
		allowance, allowErr := a.payment.Allowance(ctx, addr, cfg.Contracts.Business)
		spin.Stop()

		out := cmd.OutOrStdout()
		printState(out, a, a.conn.State())
		if allowErr != nil {
			log.Warn().Err(allowErr).Msg("reading allowance")
			return nil
		}
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("  approved for purchase: %s USDT",
			chain.FormatUnits(allowance, tokenDecimals, balance.DisplayPlaces))))
		return nil
	},
}
