package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Mohsinsiddi/tscsale/internal/balance"
	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/Mohsinsiddi/tscsale/internal/config"
	"github.com/Mohsinsiddi/tscsale/internal/contract"
	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/Mohsinsiddi/tscsale/internal/purchase"
	"github.com/Mohsinsiddi/tscsale/internal/ui"
	"github.com/Mohsinsiddi/tscsale/internal/wallet"
)

// tokenDecimals is the precision of both sale tokens.
const tokenDecimals = chain.EtherDecimals

// app is everything a wallet-facing command needs, wired once per run.
type app struct {
	network  chain.Network
	endpoint string
	wallets  []*wallet.Wallet
	local    *provider.Local
	conn     *wallet.Connector
	gateway  *contract.Gateway
	payment  *contract.Token
	orch     *purchase.Orchestrator
}

// newApp builds the local wallet provider and every component on top of it.
// approver answers wallet prompts; nil means the terminal (or --yes).
func newApp(ctx context.Context, approver provider.Approver) (*app, error) {
	network, err := resolveNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}

	mgr := newWalletManager()
	wallets, err := mgr.List()
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, fmt.Errorf("no wallets stored; add one with: tscsale wallet add <name> --key <private-key>")
	}
	signers, err := mgr.Signers()
	if err != nil {
		return nil, err
	}
	accounts := make([]provider.Account, len(signers))
	for i, s := range signers {
		accounts[i] = s
	}

	endpoint, err := pickEndpoint(ctx, network)
	if err != nil {
		return nil, err
	}

	if approver == nil {
		approver = ui.TerminalApprover(os.Stdin, os.Stderr)
		if assumeYes {
			approver = provider.AutoApprove
		}
	}
	local := provider.NewLocal(network, accounts,
		provider.WithApprover(approver),
		provider.WithEndpoint(network.ChainID, endpoint),
	)
	if i := walletIndex(wallets, cfg.DefaultWallet); i > 0 {
		if err := local.SelectAccount(i); err != nil {
			return nil, err
		}
	} else if i < 0 {
		return nil, fmt.Errorf("%w: %s", wallet.ErrWalletNotFound, cfg.DefaultWallet)
	}

	tokens := []wallet.TokenSpec{
		{Symbol: config.PaymentSymbol, Address: cfg.Contracts.PaymentToken, Decimals: tokenDecimals},
		{Symbol: config.SaleSymbol, Address: cfg.Contracts.SaleToken, Decimals: tokenDecimals},
	}
	conn := wallet.NewConnector(local, balance.NewReader(local, log), tokens, log)
	if err := conn.Start(ctx); err != nil {
		return nil, err
	}

	poll := cfg.PollInterval()
	gateway, err := contract.NewGateway(local, cfg.Contracts.Business, poll, log)
	if err != nil {
		return nil, err
	}
	payment, err := contract.NewToken(local, cfg.Contracts.PaymentToken, poll, log)
	if err != nil {
		return nil, err
	}

	orch := purchase.New(purchase.Config{
		ChainID:        network.ChainID,
		Spender:        cfg.Contracts.Business,
		Decimals:       tokenDecimals,
		ReuseAllowance: cfg.ReuseAllowance,
	}, conn, payment, gateway, log)

	return &app{
		network:  network,
		endpoint: endpoint,
		wallets:  wallets,
		local:    local,
		conn:     conn,
		gateway:  gateway,
		payment:  payment,
		orch:     orch,
	}, nil
}

// connect asks for account access and moves the wallet to the sale network.
func (a *app) connect(ctx context.Context) (string, error) {
	addr, err := a.conn.Connect(ctx)
	if err != nil {
		return "", err
	}
	if err := a.conn.EnsureNetwork(ctx, a.network); err != nil {
		return addr, err
	}
	return addr, nil
}

func (a *app) Close() { a.conn.Close() }

// resolveNetwork maps a config network name to its descriptor.
func resolveNetwork(name string) (chain.Network, error) {
	n, err := chain.NewRegistry().GetByName(name)
	if err != nil {
		return chain.Network{}, fmt.Errorf("unknown network %q (known: %s, %s)", name, chain.BSCTestnet.Name, chain.BSCMainnet.Name)
	}
	return n, nil
}

// pickEndpoint honours rpc_url, otherwise benchmarks the network's public
// endpoints and takes the fastest.
func pickEndpoint(ctx context.Context, n chain.Network) (string, error) {
	if cfg.RPCURL != "" {
		return cfg.RPCURL, nil
	}
	ctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()
	url, err := chain.Fastest(ctx, n.RPCs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", n.DisplayName, err)
	}
	log.Debug().Str("rpc", url).Msg("selected endpoint")
	return url, nil
}

// walletIndex finds name in wallets. "" selects the first (default) wallet;
// -1 means the name is unknown.
func walletIndex(wallets []*wallet.Wallet, name string) int {
	if name == "" {
		return 0
	}
	for i, w := range wallets {
		if w.Name == name {
			return i
		}
	}
	return -1
}

func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(wallet.DefaultKeystore(cfg.Dir())),
	)
}

// errLine turns the connector and purchase sentinels into a readable line.
func errLine(err error) string {
	switch {
	case errors.Is(err, wallet.ErrUserRejected):
		return ui.Err("Connection request rejected in the wallet.")
	case errors.Is(err, wallet.ErrNetworkSwitchRejected):
		return ui.Err("Network switch rejected. Switch to the sale network to continue.")
	case errors.Is(err, wallet.ErrNetworkUnavailable):
		return ui.Err("Could not switch network: " + err.Error())
	case errors.Is(err, wallet.ErrWrongNetwork):
		return ui.Err("Wallet is on the wrong network.")
	case errors.Is(err, purchase.ErrPurchaseInProgress):
		return ui.Err("A purchase is already in progress.")
	case errors.Is(err, chain.ErrPrecisionLoss):
		return ui.Err("Amount has more than 18 decimal places.")
	}
	return ui.Err(err.Error())
}

// progressLine shows progress with a spinner when --yes means no wallet
// prompt will be written to the terminal, otherwise as plain lines.
type progressLine struct {
	out  io.Writer
	spin *ui.Spinner
}

func startProgress(out io.Writer, msg string) *progressLine {
	p := &progressLine{out: out}
	if assumeYes {
		p.spin = ui.NewSpinner(msg)
		p.spin.Start()
		return p
	}
	fmt.Fprintln(out, ui.Info(msg))
	return p
}

func (p *progressLine) Update(msg string) {
	if p.spin != nil {
		p.spin.Update(msg)
		return
	}
	fmt.Fprintln(p.out, ui.Info(msg))
}

func (p *progressLine) Stop() {
	if p.spin != nil {
		p.spin.Stop()
	}
}
