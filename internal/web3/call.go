package web3

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/hhbridge/internal/contract"
	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

// CallRequest describes a state-changing contract call.
type CallRequest struct {
	Contract      string // id or address
	Function      string
	ArgsJSON      string
	Signature     string // full signature, e.g. transfer(address,uint256)
	WalletID      int64
	WalletAddress string
	ChainID       int64
	Network       string
	Script        string
	Value         string
	Env           map[string]string
}

var addressRef = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{40}$`)

// ResolveContract finds a contract by numeric id or by address, with or
// without the 0x prefix.
func (s *Service) ResolveContract(ctx context.Context, ref string) (*store.Contract, error) {
	ref = strings.TrimSpace(ref)
	var (
		c   *store.Contract
		err error
	)
	switch {
	case addressRef.MatchString(ref):
		if !strings.HasPrefix(strings.ToLower(ref), "0x") {
			ref = "0x" + ref
		}
		c, err = s.store.ContractByAddress(ctx, ref)
	case isDigits(ref):
		id, perr := strconv.ParseInt(ref, 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("%q: %w", ref, ErrContractNotFound)
		}
		c, err = s.store.Contract(ctx, id)
	default:
		return nil, fmt.Errorf("%q: %w", ref, ErrContractNotFound)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%q: %w", ref, ErrContractNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading contract: %w", err)
	}
	if c.Address == "" {
		return nil, fmt.Errorf("contract %d has no address: %w", c.ID, ErrContractNotFound)
	}
	return c, nil
}

// Call asks the call script for calldata and records a pending transaction to
// the contract. Without an explicit wallet the contract creator signs.
func (s *Service) Call(ctx context.Context, req CallRequest) (*store.Transaction, error) {
	c, err := s.ResolveContract(ctx, req.Contract)
	if err != nil {
		return nil, err
	}
	argsJSON := orDefault(req.ArgsJSON, "[]")
	callArgs, err := parseArgs(argsJSON)
	if err != nil {
		return nil, err
	}

	chainID := req.ChainID
	if chainID == 0 {
		chainID = s.chainID(store.ContractChainID(ctx, s.store, c))
	}
	args, network := s.networkArgs(req.Network, chainID)
	args = append(args, "--address="+c.Address)
	signature := strings.TrimSpace(req.Signature)
	if signature != "" {
		args = append(args, "--signature="+signature)
	} else {
		args = append(args, "--function="+req.Function)
	}
	args = append(args, "--args="+argsJSON)

	script := orDefault(req.Script, DefaultCallScript)
	log := s.log.With("contract", c.ID, "function", req.Function, "chain_id", chainID, "network", network)
	log.Infow("fetching call data", "script", script)

	out, err := s.runner.RunScript(ctx, script, args, req.Env)
	if err != nil {
		return nil, fmt.Errorf("hardhat script failed: %w", err)
	}
	p, err := parsePayload(out, "call")
	if err != nil {
		return nil, err
	}

	wallet, err := s.resolveWallet(ctx, req.WalletID, req.WalletAddress, c.Creator)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, fmt.Errorf("%w: provide --wallet-id/--wallet-address or ensure the creator wallet exists", ErrWalletNotFound)
	}
	blockchainID, err := s.blockchainID(ctx, chainID)
	if err != nil {
		return nil, err
	}

	params := store.Meta{
		"contract_id":      c.ID,
		"contract_address": c.Address,
		"args":             callArgs,
		"signature":        nullable(signature),
		store.MetaNetwork:  nullable(network),
	}
	if sel := selectorFor(c.ABI, req.Function, signature); sel != "" {
		params["selector"] = sel
	}
	tx := &store.Transaction{
		WalletID:       wallet.ID,
		BlockchainID:   blockchainID,
		ChainID:        chainID,
		From:           wallet.Address,
		To:             c.Address,
		Value:          orDefault(req.Value, "0"),
		Data:           p.data(),
		Function:       req.Function,
		FunctionParams: params,
		Meta:           store.Meta{"via": "hardhat"},
		Status:         store.StatusPending,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("saving call transaction: %w", err)
	}
	log.Infow("call transaction queued", "tx", tx.ID, "wallet", wallet.ID)
	return tx, nil
}

// selectorFor returns the selector of the called function. A signature, or a
// function given as a signature, is hashed directly; a bare name is looked up
// in the contract ABI.
func selectorFor(abi []byte, function, signature string) string {
	if signature != "" {
		return contract.SelectorOf(contract.NormalizeSignature(signature))
	}
	if strings.Contains(function, "(") {
		return contract.SelectorOf(contract.NormalizeSignature(function))
	}
	for _, fn := range contract.FunctionsFromJSON(abi) {
		if fn.Name == function {
			return contract.Selector(fn)
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
