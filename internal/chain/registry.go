package chain

import (
	"errors"
	"strings"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Registry maps chain ids and network labels to adapters.
// It is populated at startup and only read afterwards; concurrent readers are safe
// as long as nobody calls Register.
type Registry struct {
	order     []int64
	byID      map[int64]Adapter
	byNetwork map[string]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:      make(map[int64]Adapter),
		byNetwork: make(map[string]Adapter),
	}
}

// NewDefaultRegistry returns a registry holding every built-in adapter.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range builtinAdapters() {
		r.Register(a)
	}
	return r
}

// Register inserts a or replaces whatever was stored under the same chain id
// or network label. A replaced adapter no longer resolves by its old label.
func (r *Registry) Register(a Adapter) {
	if old, exists := r.byID[a.ChainID()]; !exists {
		r.order = append(r.order, a.ChainID())
	} else if label := strings.ToLower(old.Network()); r.byNetwork[label].ChainID() == old.ChainID() {
		delete(r.byNetwork, label)
	}
	r.byID[a.ChainID()] = a
	r.byNetwork[strings.ToLower(a.Network())] = a
}

// ForChainID finds an adapter by EVM chain id.
func (r *Registry) ForChainID(id int64) (Adapter, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// ForNetwork finds an adapter by Hardhat network label, ignoring case.
func (r *Registry) ForNetwork(network string) (Adapter, bool) {
	a, ok := r.byNetwork[strings.ToLower(network)]
	return a, ok
}

// GetByChainID is ForChainID with an error for callers that want one.
func (r *Registry) GetByChainID(id int64) (Adapter, error) {
	a, ok := r.ForChainID(id)
	if !ok {
		return Adapter{}, ErrChainNotFound
	}
	return a, nil
}

// All returns every adapter keyed by chain id, in first-registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// ResolveNetwork returns explicit when set, otherwise the network registered
// for chainID, otherwise "".
func (r *Registry) ResolveNetwork(explicit string, chainID int64) string {
	if explicit != "" {
		return explicit
	}
	if chainID == 0 {
		return ""
	}
	if a, ok := r.ForChainID(chainID); ok {
		return a.Network()
	}
	return ""
}

// --- chain data ---

func builtinAdapters() []Adapter {
	return []Adapter{
		NewAdapter("Ethereum", "mainnet", 1,
			WithDefaultRPC("https://rpc.ankr.com/eth"),
			WithExplorer("https://etherscan.io"),
			WithNativeCurrency("ETH")),
		NewAdapter("Base", "base", 8453,
			WithDefaultRPC("https://mainnet.base.org"),
			WithExplorer("https://basescan.org"),
			WithNativeCurrency("ETH")),
		NewAdapter("Polygon", "polygon", 137,
			WithDefaultRPC("https://polygon-rpc.com"),
			WithExplorer("https://polygonscan.com"),
			WithNativeCurrency("POL")),
		NewAdapter("Arbitrum One", "arbitrum", 42161,
			WithDefaultRPC("https://arb1.arbitrum.io/rpc"),
			WithExplorer("https://arbiscan.io"),
			WithNativeCurrency("ETH")),
		NewAdapter("Optimism", "optimism", 10,
			WithDefaultRPC("https://mainnet.optimism.io"),
			WithExplorer("https://optimistic.etherscan.io"),
			WithNativeCurrency("ETH")),
		NewAdapter("Abstract", "abstract", 2741,
			WithDefaultRPC("https://api.mainnet.abs.xyz"),
			WithExplorer("https://abscan.org"),
			WithNativeCurrency("ETH")),
		NewAdapter("ApeChain", "apechain", 33139,
			WithDefaultRPC("https://rpc.apechain.com"),
			WithExplorer("https://apescan.io"),
			WithNativeCurrency("APE")),
	}
}
