// Package listener reacts to confirmed transactions.
package listener

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/hhbridge/internal/chain"
	"github.com/Mohsinsiddi/hhbridge/internal/contract"
	"github.com/Mohsinsiddi/hhbridge/internal/events"
	"github.com/Mohsinsiddi/hhbridge/internal/jobs"
	"github.com/Mohsinsiddi/hhbridge/internal/queue"
	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

// PersistDeployedContract turns a confirmed contract-creation transaction into
// a Contract row and queues the follow-up jobs.
type PersistDeployedContract struct {
	store       store.Store
	registry    *chain.Registry
	dispatcher  queue.Dispatcher
	verifyTries int
	log         *zap.SugaredLogger
}

// Option configures PersistDeployedContract.
type Option func(*PersistDeployedContract)

// WithVerifyAttempts sets the attempt ceiling of queued verification jobs.
func WithVerifyAttempts(n int) Option {
	return func(p *PersistDeployedContract) { p.verifyTries = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *PersistDeployedContract) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPersistDeployedContract creates the listener.
func NewPersistDeployedContract(s store.Store, registry *chain.Registry, d queue.Dispatcher, opts ...Option) *PersistDeployedContract {
	p := &PersistDeployedContract{
		store:      s,
		registry:   registry,
		dispatcher: d,
		log:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe attaches the listener to bus.
func (p *PersistDeployedContract) Subscribe(bus *events.Bus) error {
	return bus.OnTransactionConfirmed(func(ctx context.Context, ev events.TransactionConfirmed) error {
		return p.Handle(ctx, ev.Transaction)
	})
}

// Handle processes one confirmed transaction. Transactions that are not
// contract creations, or have no receipt contract address, are ignored.
func (p *PersistDeployedContract) Handle(ctx context.Context, tx store.Transaction) error {
	address := tx.Meta.ReceiptContractAddress()
	if address == "" || !tx.IsContractCreation() {
		return nil
	}

	abi := tx.Meta.ABI()
	c := &store.Contract{
		BlockchainID: tx.BlockchainID,
		Address:      address,
		Creator:      tx.From,
		ABI:          abi,
		Meta: store.Meta{
			store.MetaChainID: tx.ChainID,
			"transaction_id": tx.ID,
		},
	}
	created, err := p.store.FirstOrCreateContract(ctx, c)
	if err != nil {
		return fmt.Errorf("persisting contract %s: %w", address, err)
	}
	log := p.log.With("contract", c.ID, "address", c.Address, "tx", tx.ID)
	log.Infow("deployed contract persisted", "created", created)

	if contract.HasEntries(abi) {
		if err := p.dispatcher.Dispatch(ctx, jobs.PopulateAssetRecords{ContractID: c.ID}); err != nil {
			return fmt.Errorf("queueing asset population: %w", err)
		}
	}

	if !tx.Meta.AutoVerify() {
		return nil
	}
	network := p.registry.ResolveNetwork(tx.FunctionParams.Network(), tx.ChainID)
	if network == "" {
		log.Warnw("auto-verify requested but no network resolved", "chain_id", tx.ChainID)
		return nil
	}
	job := jobs.VerifyContract{
		ContractID:      c.ID,
		Network:         network,
		ConstructorArgs: tx.Meta.ConstructorArgStrings(),
		Tries:           p.verifyTries,
	}
	if err := p.dispatcher.Dispatch(ctx, job); err != nil {
		return fmt.Errorf("queueing verification: %w", err)
	}
	return nil
}
