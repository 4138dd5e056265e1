package web3

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

// TxOptions are the optional knobs of the wallet helpers.
type TxOptions struct {
	ChainID    int64
	Network    string
	Signature  string
	Value      string
	AutoVerify bool
}

// DeployFromWallet deploys artifact signed by wallet and returns the id of the
// queued transaction.
func DeployFromWallet(ctx context.Context, s *Service, wallet *store.Wallet, artifact string, ctorArgs []any, opts TxOptions) (int64, error) {
	args, err := encodeArgs(ctorArgs)
	if err != nil {
		return 0, err
	}
	tx, err := s.Deploy(ctx, DeployRequest{
		Artifact:   artifact,
		ArgsJSON:   args,
		WalletID:   wallet.ID,
		ChainID:    opts.ChainID,
		Network:    opts.Network,
		Value:      opts.Value,
		AutoVerify: opts.AutoVerify,
	})
	if err != nil {
		return 0, err
	}
	return tx.ID, nil
}

// CallFromWallet calls function on c signed by wallet and returns the id of
// the queued transaction.
func CallFromWallet(ctx context.Context, s *Service, wallet *store.Wallet, c *store.Contract, function string, args []any, opts TxOptions) (int64, error) {
	encoded, err := encodeArgs(args)
	if err != nil {
		return 0, err
	}
	ref := c.Address
	if c.ID != 0 {
		ref = strconv.FormatInt(c.ID, 10)
	}
	tx, err := s.Call(ctx, CallRequest{
		Contract:  ref,
		Function:  function,
		ArgsJSON:  encoded,
		Signature: opts.Signature,
		WalletID:  wallet.ID,
		ChainID:   opts.ChainID,
		Network:   opts.Network,
		Value:     opts.Value,
	})
	if err != nil {
		return 0, err
	}
	return tx.ID, nil
}

// VerifyOptions are the optional knobs of QueueVerification.
type VerifyOptions struct {
	Network         string
	ConstructorArgs []string
	Env             map[string]string
}

// QueueVerification dispatches a VerifyContract job for c. The network comes
// from opts or from the chain of c.
func QueueVerification(ctx context.Context, s *Service, c *store.Contract, opts VerifyOptions) error {
	network := s.registry.ResolveNetwork(opts.Network, store.ContractChainID(ctx, s.store, c))
	if network == "" {
		return ErrNetworkRequired
	}
	return s.queueVerification(ctx, c.ID, network, opts.ConstructorArgs, opts.Env)
}

func encodeArgs(args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return string(data), nil
}
