// check-balances: reads the native, TUSDT and TTSC balances of a set of
// addresses on the sale network in parallel and prints a summary table. No
// wallet is connected; reads go straight to the node.
//
// Run from the module root:
//
//	go run ./scripts/check-balances 0xAddr1 0xAddr2
//	go run ./scripts/check-balances -rpc https://my-node 0xAddr1
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/tscsale/internal/balance"
	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/Mohsinsiddi/tscsale/internal/config"
	"github.com/Mohsinsiddi/tscsale/internal/logger"
	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/ethereum/go-ethereum/common"
)

const rpcTimeout = 12 * time.Second

type result struct {
	address string
	native  string
	payment string
	sale    string
}

func main() {
	rpcURL := flag.String("rpc", "", "node URL (default: fastest public endpoint)")
	network := flag.String("network", chain.BSCTestnet.Name, "network name")
	payment := flag.String("payment", config.TestnetPaymentToken, "payment token address")
	sale := flag.String("sale", config.TestnetSaleToken, "sale token address")
	verbose := flag.Bool("v", false, "log failed reads")
	flag.Parse()

	level := "error"
	if *verbose {
		level = "warn"
	}
	log := logger.New(level, true)

	n, err := chain.NewRegistry().GetByName(*network)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	addrs := flag.Args()
	if len(addrs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: check-balances [-rpc url] [-network name] <address>...")
		os.Exit(2)
	}
	for _, a := range addrs {
		if !common.IsHexAddress(a) {
			fmt.Fprintf(os.Stderr, "invalid address %q\n", a)
			os.Exit(2)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	url := *rpcURL
	if url == "" {
		if url, err = chain.Fastest(ctx, n.RPCs); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	p := provider.NewLocal(n, nil, provider.WithEndpoint(n.ChainID, url))
	reader := balance.NewReader(p, log)

	results := make([]result, len(addrs))
	var wg sync.WaitGroup
	for i, a := range addrs {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			results[i] = result{
				address: addr,
				native:  reader.NativeBalance(ctx, addr),
				payment: reader.TokenBalance(ctx, addr, *payment, chain.EtherDecimals),
				sale:    reader.TokenBalance(ctx, addr, *sale, chain.EtherDecimals),
			}
		}(i, a)
	}
	wg.Wait()

	fmt.Printf("%s via %s\n\n", n.DisplayName, url)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "ADDRESS\t%s\t%s\t%s\t\n", n.Currency.Symbol, config.PaymentSymbol, config.SaleSymbol)
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", r.address, r.native, r.payment, r.sale)
	}
	w.Flush()
}
