package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/Mohsinsiddi/tscsale/internal/config"
	"github.com/Mohsinsiddi/tscsale/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Inspect and switch the wallet network",
}

var networkStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Benchmark the sale network's RPC endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := resolveNetwork(cfg.Network)
		if err != nil {
			return err
		}
		urls := n.RPCs
		if cfg.RPCURL != "" {
			urls = append([]string{cfg.RPCURL}, urls...)
		}

		spin := ui.NewSpinner(fmt.Sprintf("Probing %d endpoints on %s...", len(urls), n.DisplayName))
		spin.Start()
		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		probes := chain.ProbeAll(ctx, urls)
		cancel()
		spin.Stop()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.KeyValueBlock(n.DisplayName, [][2]string{
			{"Chain ID", fmt.Sprintf("%d (%s)", n.ChainID, n.HexChainID())},
			{"Currency", n.Currency.Symbol},
			{"Explorer", n.Explorer},
		}))

		t := ui.NewTable(
			ui.Column{Title: "Endpoint", Width: 48},
			ui.Column{Title: "Block", Width: 10, Right: true},
			ui.Column{Title: "Latency", Width: 9, Right: true},
			ui.Column{Title: "Status", Width: 24},
		)
		for _, p := range probes {
			status := "ok"
			block, latency := "-", "-"
			if p.Err != nil {
				status = p.Err.Error()
			} else {
				block = fmt.Sprintf("%d", p.BlockNumber)
				latency = p.Latency.Round(time.Millisecond).String()
			}
			t.AddRow(p.URL, block, latency, status)
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

var networkSwitchCmd = &cobra.Command{
	Use:   "switch [network]",
	Short: "Ask the wallet to switch network",
	Long: `Connect, then ask the wallet to switch to the given network (default:
the configured sale network). A network the wallet does not know is
registered first, then the switch is retried once.

Examples:
  tscsale network switch
  tscsale network switch bsc`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		target := a.network
		if len(args) == 1 {
			if target, err = resolveNetwork(args[0]); err != nil {
				return err
			}
		}
		if _, err := a.conn.Connect(ctx); err != nil {
			return err
		}
		if err := a.conn.EnsureNetwork(ctx, target); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Wallet is on "+ui.ChainName(target.DisplayName)))
		if target.ChainID != a.network.ChainID {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Hint("Purchases require "+a.network.DisplayName+"."))
		}
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkStatusCmd, networkSwitchCmd)
}
