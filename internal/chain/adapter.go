package chain

// Adapter describes one EVM network and the Hardhat flags that target it.
// Adapters are immutable once built.
type Adapter struct {
	name           string
	network        string
	chainID        int64
	defaultRPC     string
	explorer       string
	nativeCurrency string
}

// AdapterOption sets an optional field on a new Adapter.
type AdapterOption func(*Adapter)

// WithDefaultRPC sets the public RPC endpoint used when no override is configured.
func WithDefaultRPC(url string) AdapterOption {
	return func(a *Adapter) { a.defaultRPC = url }
}

// WithExplorer sets the block explorer base URL.
func WithExplorer(url string) AdapterOption {
	return func(a *Adapter) { a.explorer = url }
}

// WithNativeCurrency sets the gas token symbol.
func WithNativeCurrency(sym string) AdapterOption {
	return func(a *Adapter) { a.nativeCurrency = sym }
}

// NewAdapter builds an adapter for a chain.
// network is the Hardhat network label from hardhat.config.
func NewAdapter(name, network string, chainID int64, opts ...AdapterOption) Adapter {
	a := Adapter{name: name, network: network, chainID: chainID}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Name is the human-readable chain name, e.g. "Arbitrum One".
func (a Adapter) Name() string { return a.name }

// Network is the Hardhat network label, e.g. "arbitrum".
func (a Adapter) Network() string { return a.network }

// ChainID is the EVM chain id.
func (a Adapter) ChainID() int64 { return a.chainID }

// DefaultRPC is the public RPC URL, or "" if none is known.
func (a Adapter) DefaultRPC() string { return a.defaultRPC }

// Explorer is the explorer base URL, or "".
func (a Adapter) Explorer() string { return a.explorer }

// NativeCurrency is the gas token symbol, or "".
func (a Adapter) NativeCurrency() string { return a.nativeCurrency }

// HardhatArgs returns the canonical CLI flags for this network.
func (a Adapter) HardhatArgs() []string {
	return []string{"--network", a.network}
}
