package chain_test

import (
	"strings"
	"testing"

	"github.com/Mohsinsiddi/hhbridge/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryHasBuiltins(t *testing.T) {
	registry := chain.NewDefaultRegistry()
	assert.Equal(t, 7, len(registry.All()))
}

func TestDefaultRegistryBuiltinTable(t *testing.T) {
	registry := chain.NewDefaultRegistry()

	tests := []struct {
		name    string
		chainID int64
		network string
	}{
		{"Ethereum", 1, "mainnet"},
		{"Optimism", 10, "optimism"},
		{"Polygon", 137, "polygon"},
		{"Arbitrum One", 42161, "arbitrum"},
		{"Base", 8453, "base"},
		{"Abstract", 2741, "abstract"},
		{"ApeChain", 33139, "apechain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := registry.ForChainID(tt.chainID)
			require.True(t, ok)
			assert.Equal(t, tt.name, a.Name())
			assert.Equal(t, tt.network, a.Network())
			assert.Equal(t, []string{"--network", tt.network}, a.HardhatArgs())
			assert.NotEmpty(t, a.DefaultRPC())
		})
	}
}

func TestEveryAdapterRoundTrips(t *testing.T) {
	registry := chain.NewDefaultRegistry()
	for _, a := range registry.All() {
		t.Run(a.Network(), func(t *testing.T) {
			byID, ok := registry.ForChainID(a.ChainID())
			require.True(t, ok)
			assert.Equal(t, a, byID)

			byNet, ok := registry.ForNetwork(strings.ToUpper(a.Network()))
			require.True(t, ok)
			assert.Equal(t, a, byNet)
		})
	}
}

func TestForNetworkUnknown(t *testing.T) {
	registry := chain.NewDefaultRegistry()
	_, ok := registry.ForNetwork("sepolia")
	assert.False(t, ok)
}

func TestGetByChainIDUnknown(t *testing.T) {
	registry := chain.NewDefaultRegistry()
	_, err := registry.GetByChainID(99999999)
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

func TestRegisterSameChainIDLastWins(t *testing.T) {
	registry := chain.NewRegistry()
	registry.Register(chain.NewAdapter("First", "first", 777))
	registry.Register(chain.NewAdapter("Second", "second", 777))

	a, ok := registry.ForChainID(777)
	require.True(t, ok)
	assert.Equal(t, "Second", a.Name())
	assert.Len(t, registry.All(), 1)

	_, ok = registry.ForNetwork("first")
	assert.False(t, ok, "replaced label no longer resolves")
	b, ok := registry.ForNetwork("second")
	require.True(t, ok)
	assert.Equal(t, a, b)
}

func TestRegisterKeepsLabelTakenByAnotherChain(t *testing.T) {
	registry := chain.NewRegistry()
	registry.Register(chain.NewAdapter("Old", "shared", 1))
	registry.Register(chain.NewAdapter("New", "shared", 2))
	registry.Register(chain.NewAdapter("Old v2", "old", 1))

	a, ok := registry.ForNetwork("shared")
	require.True(t, ok)
	assert.Equal(t, int64(2), a.ChainID())
	a, ok = registry.ForNetwork("old")
	require.True(t, ok)
	assert.Equal(t, "Old v2", a.Name())
}

func TestEmptyRegistry(t *testing.T) {
	registry := chain.NewRegistry()
	assert.Empty(t, registry.All())
	_, ok := registry.ForChainID(1)
	assert.False(t, ok)
}

func TestResolveNetwork(t *testing.T) {
	registry := chain.NewDefaultRegistry()

	assert.Equal(t, "sepolia", registry.ResolveNetwork("sepolia", 8453))
	assert.Equal(t, "base", registry.ResolveNetwork("", 8453))
	assert.Equal(t, "", registry.ResolveNetwork("", 31337))
	assert.Equal(t, "", registry.ResolveNetwork("", 0))
}

func TestAdapterOptionalFields(t *testing.T) {
	a := chain.NewAdapter("Local", "localhost", 31337)
	assert.Empty(t, a.DefaultRPC())
	assert.Empty(t, a.Explorer())
	assert.Equal(t, []string{"--network", "localhost"}, a.HardhatArgs())
}
