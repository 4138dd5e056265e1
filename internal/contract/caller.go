package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/hhbridge/internal/chain"
)

// Caller performs read-only contract calls.
type Caller interface {
	Call(ctx context.Context, chainID int64, abi ABI, address, function string, args ...any) ([]any, error)
}

// ContractBackend is the subset of ethclient.Client used for eth_call.
type ContractBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Dialer opens a backend for an RPC URL.
type Dialer func(ctx context.Context, rpcURL string) (ContractBackend, error)

// EthCaller calls view functions over JSON-RPC. The RPC URL for a chain is the
// configured override when present, else the adapter default.
type EthCaller struct {
	registry  *chain.Registry
	overrides map[int64]string
	dial      Dialer
	attempts  uint
	delay     time.Duration
	log       *zap.SugaredLogger

	mu      sync.Mutex
	clients map[string]ContractBackend
}

// CallerOption configures an EthCaller.
type CallerOption func(*EthCaller)

// WithRPCOverrides sets per-chain RPC URLs that win over adapter defaults.
func WithRPCOverrides(overrides map[int64]string) CallerOption {
	return func(c *EthCaller) {
		for id, url := range overrides {
			c.overrides[id] = url
		}
	}
}

// WithDialer replaces ethclient.DialContext.
func WithDialer(d Dialer) CallerOption {
	return func(c *EthCaller) { c.dial = d }
}

// WithRetry sets the attempt count and base delay for failed eth_calls.
func WithRetry(attempts uint, delay time.Duration) CallerOption {
	return func(c *EthCaller) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.delay = delay
	}
}

// WithCallerLogger sets the logger.
func WithCallerLogger(l *zap.SugaredLogger) CallerOption {
	return func(c *EthCaller) {
		if l != nil {
			c.log = l
		}
	}
}

// NewEthCaller creates an EthCaller resolving chains through registry.
func NewEthCaller(registry *chain.Registry, opts ...CallerOption) *EthCaller {
	c := &EthCaller{
		registry:  registry,
		overrides: make(map[int64]string),
		dial:      dialEthclient,
		attempts:  3,
		delay:     500 * time.Millisecond,
		log:       zap.NewNop().Sugar(),
		clients:   make(map[string]ContractBackend),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func dialEthclient(ctx context.Context, rpcURL string) (ContractBackend, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// RPCURL returns the RPC endpoint used for chainID.
func (c *EthCaller) RPCURL(chainID int64) (string, error) {
	if url := c.overrides[chainID]; url != "" {
		return url, nil
	}
	a, ok := c.registry.ForChainID(chainID)
	if !ok {
		return "", fmt.Errorf("chain %d: %w", chainID, chain.ErrChainNotFound)
	}
	if a.DefaultRPC() == "" {
		return "", fmt.Errorf("no RPC URL configured for chain %d", chainID)
	}
	return a.DefaultRPC(), nil
}

// Call packs function from abi, runs eth_call against address and returns the
// unpacked outputs.
func (c *EthCaller) Call(ctx context.Context, chainID int64, abi ABI, address, function string, args ...any) ([]any, error) {
	entry := abi.Function(function)
	if entry == nil {
		return nil, fmt.Errorf("%q: %w", function, ErrFunctionNotFound)
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}

	parsed, err := methodABI(*entry)
	if err != nil {
		return nil, err
	}
	calldata, err := parsed.Pack(function, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", function, err)
	}

	backend, err := c.backend(ctx, chainID)
	if err != nil {
		return nil, err
	}

	to := common.HexToAddress(address)
	msg := ethereum.CallMsg{To: &to, Data: calldata}
	out, err := retry.DoWithData(
		func() ([]byte, error) {
			return backend.CallContract(ctx, msg, nil)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debugw("retrying eth_call", "function", function, "address", address, "attempt", n+1, "err", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("calling %s on %s: %w", function, address, err)
	}

	values, err := parsed.Unpack(function, out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", function, err)
	}
	return values, nil
}

func (c *EthCaller) backend(ctx context.Context, chainID int64) (ContractBackend, error) {
	url, err := c.RPCURL(chainID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.clients[url]; ok {
		return b, nil
	}
	b, err := c.dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	c.clients[url] = b
	return b, nil
}

// methodABI builds a go-ethereum ABI holding only entry, so unrelated entries
// of the stored ABI cannot break parsing.
func methodABI(entry ABIEntry) (gethabi.ABI, error) {
	data, err := json.Marshal([]ABIEntry{entry})
	if err != nil {
		return gethabi.ABI{}, err
	}
	parsed, err := gethabi.JSON(strings.NewReader(string(data)))
	if err != nil {
		return gethabi.ABI{}, fmt.Errorf("parsing ABI for %s: %w", entry.Name, err)
	}
	return parsed, nil
}
