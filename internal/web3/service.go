// Package web3 turns Hardhat helper-script output into queued transactions
// and runs contract verification.
package web3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/hhbridge/internal/chain"
	"github.com/Mohsinsiddi/hhbridge/internal/queue"
	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

// Errors.
var (
	ErrWalletRequired   = errors.New("signer wallet not found: provide --wallet-id or --wallet-address")
	ErrWalletNotFound   = errors.New("signer wallet not found")
	ErrWalletNotEVM     = errors.New("signer wallet must be an EVM wallet")
	ErrContractNotFound = errors.New("contract not found: provide a valid contract id or address")
	ErrInvalidPayload   = errors.New("invalid script payload")
	ErrInvalidArgs      = errors.New("args must be a JSON array")
	ErrNetworkRequired  = errors.New("network is required: provide --network, --chain-id or a --contract-id that can infer it")
	ErrContractRequired = errors.New("queued verification requires a contract id")
)

// Default helper scripts, relative to the Hardhat project.
const (
	DefaultDeployScript = "scripts/deploy-data.ts"
	DefaultCallScript   = "scripts/call-data.ts"
)

// FunctionDeploy is the transaction function recorded for deployments.
const FunctionDeploy = "deploy_contract"

// ScriptRunner runs `hardhat run <script>`. *hardhat.Runner satisfies it.
type ScriptRunner interface {
	RunScript(ctx context.Context, script string, args []string, env map[string]string) (string, error)
}

// Service builds deploy and call transactions and verifies contracts.
type Service struct {
	runner         ScriptRunner
	store          store.Store
	registry       *chain.Registry
	dispatcher     queue.Dispatcher
	verifier       *VerifyService
	defaultChainID int64
	verifyTries    int
	log            *zap.SugaredLogger
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultChainID sets the chain id used when a request names none.
func WithDefaultChainID(id int64) Option {
	return func(s *Service) { s.defaultChainID = id }
}

// WithDispatcher sets the queue used by queued verification.
func WithDispatcher(d queue.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithVerifier sets the synchronous verifier.
func WithVerifier(v *VerifyService) Option {
	return func(s *Service) { s.verifier = v }
}

// WithVerifyAttempts sets the attempt ceiling of queued verification jobs.
func WithVerifyAttempts(n int) Option {
	return func(s *Service) { s.verifyTries = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates a Service.
func NewService(runner ScriptRunner, s store.Store, registry *chain.Registry, opts ...Option) *Service {
	svc := &Service{
		runner:         runner,
		store:          s,
		registry:       registry,
		defaultChainID: 1,
		log:            zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) chainID(requested int64) int64 {
	if requested != 0 {
		return requested
	}
	return s.defaultChainID
}

// networkArgs returns the Hardhat network flags and the resolved network
// label. An explicit network wins over the registry.
func (s *Service) networkArgs(explicit string, chainID int64) ([]string, string) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return []string{"--network", explicit}, explicit
	}
	if a, ok := s.registry.ForChainID(chainID); ok {
		return a.HardhatArgs(), a.Network()
	}
	return nil, ""
}

// resolveWallet looks the signer up by id, then by address, then by fallback
// address. A nil wallet with a nil error means no selector was given.
func (s *Service) resolveWallet(ctx context.Context, id int64, address, fallback string) (*store.Wallet, error) {
	var (
		w   *store.Wallet
		err error
	)
	switch {
	case id != 0:
		w, err = s.store.Wallet(ctx, id)
	case strings.TrimSpace(address) != "":
		w, err = s.store.WalletByAddress(ctx, address)
	case strings.TrimSpace(fallback) != "":
		w, err = s.store.WalletByAddress(ctx, fallback)
	default:
		return nil, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading wallet: %w", err)
	}
	if !w.IsEVM() {
		return nil, fmt.Errorf("wallet %d (%s): %w", w.ID, w.Protocol, ErrWalletNotEVM)
	}
	return w, nil
}

// blockchainID returns the id of the Blockchain row for chainID, or zero.
func (s *Service) blockchainID(ctx context.Context, chainID int64) (int64, error) {
	b, err := s.store.BlockchainByChainID(ctx, chainID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loading blockchain %d: %w", chainID, err)
	}
	return b.ID, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// nullable maps an empty string to a JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
