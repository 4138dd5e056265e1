package rpc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evmRPCServer creates an httptest server that responds to eth_blockNumber.
// The blockNum is returned as a hex string.
func evmRPCServer(t *testing.T, blockNum uint64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		hexBlock := fmt.Sprintf("0x%x", blockNum)
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":"%s"}`, hexBlock)
	}))
}

func TestHealthCheckHealthy(t *testing.T) {
	srv := evmRPCServer(t, 1000)
	defer srv.Close()

	ep, err := HealthCheck(context.Background(), srv.URL, 0)
	require.NoError(t, err)

	assert.True(t, ep.Healthy)
	assert.Equal(t, srv.URL, ep.URL)
	assert.Equal(t, uint64(1000), ep.BlockNumber)
	assert.Positive(t, ep.Latency)
}

func TestHealthCheckUnreachable(t *testing.T) {
	ep, err := HealthCheck(context.Background(), "http://127.0.0.1:19994", 0)
	require.Error(t, err)
	assert.False(t, ep.Healthy)
}

func TestHealthCheckStaleBehind(t *testing.T) {
	srv := evmRPCServer(t, 500)
	defer srv.Close()

	ep, err := HealthCheck(context.Background(), srv.URL, 510)
	require.NoError(t, err)
	assert.False(t, ep.Healthy, "10 blocks behind")
	assert.Equal(t, uint64(500), ep.BlockNumber)
}

func TestHealthCheckJustWithinThreshold(t *testing.T) {
	srv := evmRPCServer(t, 997)
	defer srv.Close()

	ep, err := HealthCheck(context.Background(), srv.URL, 1000)
	require.NoError(t, err)
	assert.True(t, ep.Healthy, "exactly at threshold is still healthy")
}

func TestHealthCheckNoBestBlock(t *testing.T) {
	srv := evmRPCServer(t, 0)
	defer srv.Close()

	ep, err := HealthCheck(context.Background(), srv.URL, 0)
	require.NoError(t, err)
	assert.True(t, ep.Healthy, "bestBlock=0 skips recency check")
}

func TestHealthCheckCancelledContext(t *testing.T) {
	srv := evmRPCServer(t, 1000)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ep, err := HealthCheck(ctx, srv.URL, 0)
	require.Error(t, err)
	assert.False(t, ep.Healthy)
}

func TestCheckAllMarksStaleAndDown(t *testing.T) {
	ahead := evmRPCServer(t, 1000)
	defer ahead.Close()
	behind := evmRPCServer(t, 990)
	defer behind.Close()

	eps := CheckAll(context.Background(), []Target{
		{ChainID: 1, URL: ahead.URL},
		{ChainID: 1, URL: behind.URL},
		{ChainID: 1, URL: "http://127.0.0.1:19994"},
	})
	require.Len(t, eps, 3)

	assert.Equal(t, ahead.URL, eps[0].URL)
	assert.True(t, eps[0].Healthy)
	assert.Equal(t, uint64(990), eps[1].BlockNumber)
	assert.False(t, eps[1].Healthy, "stale")
	assert.NoError(t, eps[1].Err)
	assert.False(t, eps[2].Healthy)
	assert.Error(t, eps[2].Err)
}

func TestCheckAllComparesBlocksWithinOneChain(t *testing.T) {
	mainnet := evmRPCServer(t, 21_000_000)
	defer mainnet.Close()
	arbitrum := evmRPCServer(t, 300_000_000)
	defer arbitrum.Close()

	eps := CheckAll(context.Background(), []Target{
		{ChainID: 1, URL: mainnet.URL},
		{ChainID: 42161, URL: arbitrum.URL},
	})
	require.Len(t, eps, 2)
	assert.True(t, eps[0].Healthy, "a lower block on another chain is not stale")
	assert.True(t, eps[1].Healthy)
}

func TestIsStale(t *testing.T) {
	assert.False(t, isStale(100, 0))
	assert.False(t, isStale(100, 103))
	assert.True(t, isStale(100, 104))
	assert.False(t, isStale(105, 100))
}
