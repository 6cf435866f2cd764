package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/tscsale/internal/balance"
	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/Mohsinsiddi/tscsale/internal/config"
	"github.com/Mohsinsiddi/tscsale/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var expertCmd = &cobra.Command{
	Use:   "expert",
	Short: "Join as an expert or list experts",
}

var expertJoinCmd = &cobra.Command{
	Use:   "join <tiktok-id> <email>",
	Short: "Register the connected account as an expert",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnectedApp(cmd, func(ctx context.Context, a *app, addr string) error {
			spin := startProgress(cmd.OutOrStdout(), "Sending joinExpert...")
			r, err := a.gateway.SubmitJoinExpert(ctx, args[0], args[1])
			spin.Stop()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Joined as expert: "+ui.Addr(addr)))
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta(a.network.TxURL(r.TransactionHash)))
			return nil
		})
	},
}

var expertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered experts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnectedApp(cmd, func(ctx context.Context, a *app, _ string) error {
			experts := a.gateway.Experts(ctx)
			out := cmd.OutOrStdout()
			if len(experts) == 0 {
				fmt.Fprintln(out, ui.Info("No experts registered."))
				return nil
			}
			t := ui.NewTable(
				ui.Column{Title: "TikTok", Width: 20},
				ui.Column{Title: "Email", Width: 28},
				ui.Column{Title: "Account", Width: 42},
			)
			for _, e := range experts {
				t.AddRow(e.TikTokId, e.Email, e.Account.Hex())
			}
			fmt.Fprintln(out, t.Render())
			fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d expert(s)", len(experts))))
			return nil
		})
	},
}

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Accept an invitation or list purchases made through yours",
}

var inviteAcceptCmd = &cobra.Command{
	Use:   "accept <sponsor-address>",
	Short: "Accept an invitation from sponsor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("invalid sponsor address %q", args[0])
		}
		return withConnectedApp(cmd, func(ctx context.Context, a *app, _ string) error {
			spin := startProgress(cmd.OutOrStdout(), "Sending acceptInvitation...")
			r, err := a.gateway.SubmitAcceptInvitation(ctx, args[0])
			spin.Stop()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Invitation from "+ui.Addr(args[0])+" accepted"))
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta(a.network.TxURL(r.TransactionHash)))
			return nil
		})
	},
}

var inviteListCmd = &cobra.Command{
	Use:   "list [address]",
	Short: "List purchases made through an invitation (default: connected account)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnectedApp(cmd, func(ctx context.Context, a *app, addr string) error {
			if len(args) == 1 {
				addr = args[0]
			}
			records := a.gateway.Invitations(ctx, addr)
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, ui.Info("No invitation purchases for "+ui.Addr(addr)))
				return nil
			}
			t := ui.NewTable(
				ui.Column{Title: "Account", Width: 42},
				ui.Column{Title: "Amount", Width: 18, Right: true},
			)
			for _, r := range records {
				t.AddRow(r.Account.Hex(), chain.FormatUnits(r.Amount, tokenDecimals, balance.DisplayPlaces))
			}
			fmt.Fprintln(out, t.Render())
			return nil
		})
	},
}

var brandCmd = &cobra.Command{
	Use:   "brand",
	Short: "Show registered brands",
}

var brandListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered brands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnectedApp(cmd, func(ctx context.Context, a *app, _ string) error {
			brands := a.gateway.Brands(ctx)
			out := cmd.OutOrStdout()
			if len(brands) == 0 {
				fmt.Fprintln(out, ui.Info("No brands registered."))
				return nil
			}
			t := ui.NewTable(
				ui.Column{Title: "Name", Width: 20},
				ui.Column{Title: "Remarks", Width: 32},
				ui.Column{Title: "Logo", Width: 40},
			)
			for _, b := range brands {
				t.AddRow(b.Name, b.Remarks, b.Logo)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [address]",
	Short: "Show expert, brand and invitation counts",
	Long: `Read the presale counters from the business contract. The invitation
count is for address, or the connected account when none is given.

Examples:
  tscsale stats
  tscsale stats 0x70997970C51812dc3A010C7d01b50e0d17dc79C8`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && !common.IsHexAddress(args[0]) {
			return fmt.Errorf("invalid address %q", args[0])
		}
		return withConnectedApp(cmd, func(ctx context.Context, a *app, addr string) error {
			if len(args) == 1 {
				addr = args[0]
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("TSC presale", [][2]string{
				{"Experts", strconv.FormatUint(a.gateway.ExpertCount(ctx), 10)},
				{"Brands", strconv.FormatUint(a.gateway.BrandCount(ctx), 10)},
				{"Invitations", strconv.FormatUint(a.gateway.InvitationCount(ctx, addr), 10) + " " + ui.Meta("via "+ui.TruncateAddr(addr))},
			}))
			return nil
		})
	},
}

// withConnectedApp builds the app, connects on the sale network, checks the
// business contract is deployed there and runs fn.
func withConnectedApp(cmd *cobra.Command, fn func(ctx context.Context, a *app, addr string) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	addr, err := a.connect(ctx)
	if err != nil {
		return err
	}
	if err := a.gateway.Deployed(ctx); err != nil {
		return fmt.Errorf("business contract %s on %s: %w", cfg.Contracts.Business, a.network.DisplayName, err)
	}
	ctx, cancel := context.WithTimeout(ctx, config.TxConfirmTimeout)
	defer cancel()
	return fn(ctx, a, addr)
}

func init() {
	expertCmd.AddCommand(expertJoinCmd, expertListCmd)
	inviteCmd.AddCommand(inviteAcceptCmd, inviteListCmd)
	brandCmd.AddCommand(brandListCmd)
}
