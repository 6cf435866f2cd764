package chain

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no endpoint answers.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// staleBlockThreshold drops nodes that are this many blocks behind the best.
const staleBlockThreshold = 3

// Probe is the result of pinging a single endpoint.
type Probe struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// ProbeAll pings every url in parallel.
func ProbeAll(ctx context.Context, urls []string) []Probe {
	results := make([]Probe, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(idx int, url string) {
			defer wg.Done()
			latency, block, err := NewEVMClient(url).Ping(ctx)
			results[idx] = Probe{URL: url, Latency: latency, BlockNumber: block, Err: err}
		}(i, u)
	}
	wg.Wait()
	return results
}

// Fastest returns the lowest-latency endpoint that is not lagging behind the
// highest block seen. A single url is returned without probing.
func Fastest(ctx context.Context, urls []string) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}

	var healthy []Probe
	var best uint64
	for _, p := range ProbeAll(ctx, urls) {
		if p.Err != nil {
			continue
		}
		healthy = append(healthy, p)
		if p.BlockNumber > best {
			best = p.BlockNumber
		}
	}

	fresh := healthy[:0]
	for _, p := range healthy {
		if best-p.BlockNumber <= staleBlockThreshold {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) == 0 {
		return "", ErrNoHealthyRPC
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].Latency < fresh[j].Latency })
	return fresh[0].URL, nil
}
