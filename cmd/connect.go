package cmd

import (
	"fmt"
	"io"

	"github.com/Mohsinsiddi/tscsale/internal/config"
	"github.com/Mohsinsiddi/tscsale/internal/ui"
	"github.com/Mohsinsiddi/tscsale/internal/wallet"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the wallet and switch it to the sale network",
	Long: `Request account access from the local wallet, switch it to the sale
network (registering the network first if the wallet does not know it), and
show the connected account with its balances.

Examples:
  tscsale connect
  tscsale connect --wallet alt --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.connect(ctx); err != nil {
			return err
		}
		printState(cmd.OutOrStdout(), a, a.conn.State())
		return nil
	},
}

// printState renders the connection the way connect and balance show it.
func printState(out io.Writer, a *app, s wallet.ConnectionState) {
	network := a.network.DisplayName
	if s.ChainID != a.network.ChainID {
		network = fmt.Sprintf("chain %d (expected %s)", s.ChainID, a.network.DisplayName)
	}
	pairs := [][2]string{
		{"Account", ui.Addr(s.Address)},
		{"Network", network},
		{a.network.Currency.Symbol, s.NativeBalance},
	}
	for _, sym := range []string{config.PaymentSymbol, config.SaleSymbol} {
		pairs = append(pairs, [2]string{sym, s.TokenBalances[sym]})
	}
	pairs = append(pairs,
		[2]string{"RPC", ui.Meta(a.endpoint)},
		[2]string{"Explorer", ui.Meta(a.network.AddressURL(s.Address))},
	)
	fmt.Fprintln(out, ui.KeyValueBlock("Wallet connected", pairs))
}
