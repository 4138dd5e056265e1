package web3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/hhbridge/internal/jobs"
	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

// CommandRunner runs a Hardhat subcommand. *hardhat.Runner satisfies it.
type CommandRunner interface {
	Run(ctx context.Context, command string, args []string, env map[string]string) (string, error)
}

// VerifyService runs `hardhat verify`.
type VerifyService struct {
	runner CommandRunner
}

// NewVerifyService creates a VerifyService.
func NewVerifyService(r CommandRunner) *VerifyService {
	return &VerifyService{runner: r}
}

// Verify runs `verify --network <network> <address> <args...>` and returns
// its output.
func (v *VerifyService) Verify(ctx context.Context, address, network string, args []string, env map[string]string) (string, error) {
	argv := append([]string{"--network", network, address}, args...)
	return v.runner.Run(ctx, "verify", argv, env)
}

var _ jobs.Verifier = (*VerifyService)(nil)

// VerifyRequest describes a verification run.
type VerifyRequest struct {
	Address    string
	Network    string
	ChainID    int64
	ContractID int64
	ArgsJSON   string
	Env        map[string]string
	Queue      bool
}

// VerifyResult reports what Verify did.
type VerifyResult struct {
	Network string
	Output  string
	Queued  bool
}

// Verify verifies a contract now, or queues a VerifyContract job when
// req.Queue is set. Unparseable args are treated as no args.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	network, err := s.verifyNetwork(ctx, req)
	if err != nil {
		return VerifyResult{}, err
	}
	args, err := parseArgs(req.ArgsJSON)
	if err != nil {
		args = nil
	}
	ctorArgs := store.ArgStrings(args)

	if req.Queue {
		if req.ContractID == 0 {
			return VerifyResult{}, ErrContractRequired
		}
		if err := s.queueVerification(ctx, req.ContractID, network, ctorArgs, req.Env); err != nil {
			return VerifyResult{}, err
		}
		return VerifyResult{Network: network, Queued: true}, nil
	}

	if s.verifier == nil {
		return VerifyResult{}, errors.New("no verifier configured")
	}
	out, err := s.verifier.Verify(ctx, req.Address, network, ctorArgs, req.Env)
	if err != nil {
		return VerifyResult{Network: network}, fmt.Errorf("verification failed: %w", err)
	}
	return VerifyResult{Network: network, Output: strings.TrimSpace(out)}, nil
}

// verifyNetwork resolves the network from the explicit value, the chain id,
// or the chain of the referenced contract, in that order.
func (s *Service) verifyNetwork(ctx context.Context, req VerifyRequest) (string, error) {
	if n := strings.TrimSpace(req.Network); n != "" {
		return n, nil
	}
	if req.ChainID != 0 {
		if n := s.registry.ResolveNetwork("", req.ChainID); n != "" {
			return n, nil
		}
		return "", ErrNetworkRequired
	}
	if req.ContractID != 0 {
		c, err := s.store.Contract(ctx, req.ContractID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("loading contract: %w", err)
		}
		if c != nil {
			if n := s.registry.ResolveNetwork("", store.ContractChainID(ctx, s.store, c)); n != "" {
				return n, nil
			}
		}
	}
	return "", ErrNetworkRequired
}

func (s *Service) queueVerification(ctx context.Context, contractID int64, network string, args []string, env map[string]string) error {
	if s.dispatcher == nil {
		return errors.New("no job queue configured")
	}
	job := jobs.VerifyContract{
		ContractID:      contractID,
		Network:         network,
		ConstructorArgs: args,
		Env:             env,
		Tries:           s.verifyTries,
	}
	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		return fmt.Errorf("queueing verification: %w", err)
	}
	s.log.Infow("verification queued", "contract", contractID, "network", network)
	return nil
}
