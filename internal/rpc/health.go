// Package rpc probes the JSON-RPC endpoints recorded for each network.
package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	// Nodes more than this many blocks behind the best are stale.
	staleBlockThreshold = 3

	defaultTimeout = 5 * time.Second
)

// Endpoint is the measured state of one RPC URL.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool
	Err         error
}

// Ping dials url and asks for the latest block number.
func Ping(ctx context.Context, url string) (time.Duration, uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return 0, 0, err
	}
	defer client.Close()

	block, err := client.BlockNumber(ctx)
	if err != nil {
		return 0, 0, err
	}
	return time.Since(start), block, nil
}

// HealthCheck pings a single RPC. A node is healthy if it answers within the
// timeout and its block is within staleBlockThreshold of bestBlock (pass 0
// to skip the recency check).
func HealthCheck(ctx context.Context, url string, bestBlock uint64) (Endpoint, error) {
	latency, block, err := Ping(ctx, url)
	ep := Endpoint{
		URL:         url,
		Latency:     latency,
		BlockNumber: block,
		Healthy:     err == nil,
		Err:         err,
	}
	if err == nil && isStale(block, bestBlock) {
		ep.Healthy = false
	}
	return ep, err
}

// Target is one RPC URL of a chain.
type Target struct {
	ChainID int64
	URL     string
}

// CheckAll pings every target in parallel. Results keep the input order.
// Staleness is judged per chain against the highest block any endpoint of
// that chain reported.
func CheckAll(ctx context.Context, targets []Target) []Endpoint {
	out := make([]Endpoint, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			out[idx], _ = HealthCheck(ctx, u, 0)
		}(i, t.URL)
	}
	wg.Wait()

	best := make(map[int64]uint64)
	for i, ep := range out {
		id := targets[i].ChainID
		if ep.Err == nil && ep.BlockNumber > best[id] {
			best[id] = ep.BlockNumber
		}
	}
	for i := range out {
		if out[i].Healthy && isStale(out[i].BlockNumber, best[targets[i].ChainID]) {
			out[i].Healthy = false
		}
	}
	return out
}

func isStale(block, best uint64) bool {
	return best > 0 && best > block && best-block > staleBlockThreshold
}
