package web3

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

// DeployRequest describes a contract deployment.
type DeployRequest struct {
	Artifact      string
	ArgsJSON      string // constructor args, JSON array
	WalletID      int64
	WalletAddress string
	ChainID       int64
	Network       string
	Script        string
	Value         string // wei, decimal
	AutoVerify    bool
	Env           map[string]string
}

// Deploy asks the deploy script for creation data and records a pending
// contract-creation transaction. It does not wait for confirmation.
func (s *Service) Deploy(ctx context.Context, req DeployRequest) (*store.Transaction, error) {
	if req.WalletID == 0 && strings.TrimSpace(req.WalletAddress) == "" {
		return nil, ErrWalletRequired
	}
	argsJSON := orDefault(req.ArgsJSON, "[]")
	if _, err := parseArgs(argsJSON); err != nil {
		return nil, err
	}

	chainID := s.chainID(req.ChainID)
	args, network := s.networkArgs(req.Network, chainID)
	args = append(args, "--artifact="+req.Artifact, "--args="+argsJSON)

	script := orDefault(req.Script, DefaultDeployScript)
	log := s.log.With("artifact", req.Artifact, "chain_id", chainID, "network", network)
	log.Infow("fetching deploy data", "script", script)

	out, err := s.runner.RunScript(ctx, script, args, req.Env)
	if err != nil {
		return nil, fmt.Errorf("hardhat script failed: %w", err)
	}
	p, err := parsePayload(out, "deploy")
	if err != nil {
		return nil, err
	}

	wallet, err := s.resolveWallet(ctx, req.WalletID, req.WalletAddress, "")
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletRequired
	}
	blockchainID, err := s.blockchainID(ctx, chainID)
	if err != nil {
		return nil, err
	}

	abi := p["abi"]
	constructorArgs := p["constructorArgs"]
	tx := &store.Transaction{
		WalletID:     wallet.ID,
		BlockchainID: blockchainID,
		ChainID:      chainID,
		From:         wallet.Address,
		Value:        orDefault(req.Value, "0"),
		Data:         p.data(),
		Function:     FunctionDeploy,
		FunctionParams: store.Meta{
			store.MetaArtifact:        req.Artifact,
			store.MetaConstructorArgs: constructorArgs,
			"abi_present":             abi != nil,
			store.MetaNetwork:         nullable(network),
		},
		Meta: store.Meta{
			store.MetaArtifact:        req.Artifact,
			store.MetaABI:             abi,
			store.MetaConstructorArgs: constructorArgs,
			"bytecode_len":            p.bytecodeLen(),
			store.MetaAutoVerify:      req.AutoVerify,
		},
		Status: store.StatusPending,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("saving deploy transaction: %w", err)
	}
	log.Infow("deployment transaction queued", "tx", tx.ID, "wallet", wallet.ID)
	return tx, nil
}
