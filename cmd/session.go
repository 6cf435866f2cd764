package cmd

import (
	"context"

	"github.com/Mohsinsiddi/tscsale/internal/config"
	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/Mohsinsiddi/tscsale/internal/purchase"
	"github.com/Mohsinsiddi/tscsale/internal/ui"
	"github.com/Mohsinsiddi/tscsale/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var sessionAmount string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Live view of the wallet connection",
	Long: `Open a full-screen view of the wallet connection that updates as the
account, network and balances change.

Keys: c connect, a next account, n switch to the sale network, r refresh,
d disconnect, b buy --amount, q quit. A key press is the approval for the
wallet action it triggers.

Examples:
  tscsale session
  tscsale session --amount 50`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionAmount != "" {
			if _, err := purchase.NewRequest(sessionAmount, tokenDecimals); err != nil {
				return err
			}
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, provider.AutoApprove)
		if err != nil {
			return err
		}
		defer a.Close()

		return ui.RunSession(newSessionModel(ctx, a), func(send func(tea.Msg)) func() {
			a.orch.OnTransition(func(t purchase.Transition) { send(ui.TransitionMsg(t)) })
			return a.conn.Subscribe(func(c wallet.StateChange) { send(ui.StateMsg(c)) })
		})
	},
}

// newSessionModel picks up an account the wallet already authorized, so the
// view opens connected without a prompt.
func newSessionModel(ctx context.Context, a *app) ui.SessionModel {
	if addr, err := a.conn.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("could not restore wallet connection")
	} else if addr != "" {
		log.Debug().Str("account", addr).Msg("restored wallet connection")
	}
	return ui.NewSessionModel(ctx, sessionActions{a}, a.network,
		[]string{config.PaymentSymbol, config.SaleSymbol}, sessionAmount, a.conn.State())
}

// sessionActions maps session keys onto the app.
type sessionActions struct{ a *app }

func (s sessionActions) Connect(ctx context.Context) error {
	_, err := s.a.conn.Connect(ctx)
	return err
}

func (s sessionActions) Disconnect() { s.a.conn.Disconnect() }

func (s sessionActions) NextAccount(context.Context) error {
	return s.a.local.SelectAccount((s.a.local.Selected() + 1) % len(s.a.local.Addresses()))
}

func (s sessionActions) EnsureNetwork(ctx context.Context) error {
	return s.a.conn.EnsureNetwork(ctx, s.a.network)
}

func (s sessionActions) Refresh(ctx context.Context) { s.a.conn.RefreshBalances(ctx) }

func (s sessionActions) Buy(ctx context.Context, amount string) error {
	ctx, cancel := context.WithTimeout(ctx, config.TxConfirmTimeout)
	defer cancel()
	_, err := s.a.orch.Submit(ctx, amount)
	return err
}

func init() {
	sessionCmd.Flags().StringVar(&sessionAmount, "amount", "", "USDT amount the b key buys")
}
