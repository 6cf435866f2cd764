package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/tscsale/internal/balance"
	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/Mohsinsiddi/tscsale/internal/config"
	"github.com/Mohsinsiddi/tscsale/internal/purchase"
	"github.com/Mohsinsiddi/tscsale/internal/ui"
	"github.com/spf13/cobra"
)

var buyCmd = &cobra.Command{
	Use:   "buy <usdt-amount>",
	Short: "Buy TSC: approve USDT to the business contract, then buy",
	Long: `Buy TSC with USDT from the connected account.

Two transactions are sent, each after the previous one is mined:
  1. approve(business contract, amount) on the USDT token
  2. buy(amount) on the business contract

If the wallet's account or network changes while the purchase is running,
the purchase stops before the next transaction.

Examples:
  tscsale buy 100
  tscsale buy 12.5 --wallet alt --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount := args[0]
		if _, err := purchase.NewRequest(amount, tokenDecimals); err != nil {
			return err
		}
		tsc, err := purchase.Quote(amount, cfg.TokenPrice)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.connect(ctx); err != nil {
			return err
		}
		if w := a.wallets[a.local.Selected()]; !signingOnly(w) {
			return fmt.Errorf("wallet %q is watch-only and cannot buy", w.Name)
		}

		out := cmd.OutOrStdout()
		prompt := fmt.Sprintf("Pay %s USDT for about %s TSC?", amount, tsc)
		if !assumeYes && !ui.Confirm(cmd.InOrStdin(), out, prompt) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}

		spin := startProgress(out, "Starting purchase...")
		a.orch.OnTransition(func(t purchase.Transition) {
			spin.Update(stepMessage(t.To))
		})

		ctx, cancel := context.WithTimeout(ctx, config.TxConfirmTimeout)
		defer cancel()
		outcome, err := a.orch.Submit(ctx, amount)
		spin.Stop()

		pairs := [][2]string{{"Flow", ui.Meta(outcome.FlowID)}}
		if outcome.ApprovalTx != "" {
			pairs = append(pairs, [2]string{"Approval", a.network.TxURL(outcome.ApprovalTx)})
		}
		if outcome.PurchaseTx != "" {
			pairs = append(pairs, [2]string{"Purchase", a.network.TxURL(outcome.PurchaseTx)})
		}
		if err != nil {
			if outcome.FlowID != "" {
				pairs = append(pairs, [2]string{"Result", ui.StyleError.Render(failureText(outcome.Reason))})
				fmt.Fprintln(out, ui.KeyValueBlock("Purchase failed", pairs))
			}
			return err
		}

		if ev, decErr := a.gateway.DecodeBuy(outcome.Receipt); decErr == nil {
			pairs = append(pairs,
				[2]string{"Paid", chain.FormatUnits(ev.PayAmount, tokenDecimals, balance.DisplayPlaces) + " USDT"},
				[2]string{"Received", chain.FormatUnits(ev.TscAmount, tokenDecimals, balance.DisplayPlaces) + " TSC"},
			)
		} else {
			log.Debug().Err(decErr).Msg("no Buy event in receipt")
			pairs = append(pairs, [2]string{"Expected", tsc + " TSC"})
		}
		fmt.Fprintln(out, ui.KeyValueBlock("Purchase complete", pairs))

		a.conn.RefreshBalances(ctx)
		s := a.conn.State()
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("  balances: %s %s, %s %s",
			s.TokenBalances[config.PaymentSymbol], config.PaymentSymbol,
			s.TokenBalances[config.SaleSymbol], config.SaleSymbol)))
		return nil
	},
}

func stepMessage(s purchase.State) string {
	switch s {
	case purchase.Approving:
		return "Approving USDT (confirm in wallet, then wait for the block)..."
	case purchase.Approved:
		return "Approval mined."
	case purchase.Buying:
		return "Buying TSC (confirm in wallet, then wait for the block)..."
	case purchase.Completed:
		return "Purchase mined."
	case purchase.Failed:
		return "Purchase failed."
	}
	return string(s)
}

func failureText(r purchase.Reason) string {
	switch r {
	case purchase.ApprovalFailed:
		return "approval failed; nothing was bought"
	case purchase.PurchaseFailed:
		return "purchase failed; the approval stays in place"
	case purchase.WalletDisconnected:
		return "wallet disconnected"
	case purchase.AccountChanged:
		return "account changed in the wallet"
	case purchase.NetworkChanged:
		return "network changed in the wallet"
	}
	return string(r)
}
