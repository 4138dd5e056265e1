// Package store persists the rows hhbridge reads and writes: blockchains,
// wallets, transactions, contracts, tokens and NFT collections.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store is the persistence boundary. Lookups return ErrNotFound (wrapped)
// when nothing matches.
type Store interface {
	UpsertBlockchain(ctx context.Context, b *Blockchain) error
	Blockchain(ctx context.Context, id int64) (*Blockchain, error)
	BlockchainByChainID(ctx context.Context, chainID int64) (*Blockchain, error)
	Blockchains(ctx context.Context) ([]Blockchain, error)

	CreateWallet(ctx context.Context, w *Wallet) error
	Wallet(ctx context.Context, id int64) (*Wallet, error)
	WalletByAddress(ctx context.Context, address string) (*Wallet, error)
	Wallets(ctx context.Context) ([]Wallet, error)

	CreateTransaction(ctx context.Context, tx *Transaction) error
	Transaction(ctx context.Context, id int64) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error

	// FirstOrCreateContract inserts c unless a contract with the same address
	// exists. Either way c is overwritten with the stored row.
	FirstOrCreateContract(ctx context.Context, c *Contract) (created bool, err error)
	Contract(ctx context.Context, id int64) (*Contract, error)
	ContractByAddress(ctx context.Context, address string) (*Contract, error)
	UpdateContract(ctx context.Context, c *Contract) error

	FirstOrCreateToken(ctx context.Context, t *Token) (created bool, err error)
	TokenByContract(ctx context.Context, contractID int64) (*Token, error)
	FirstOrCreateNftCollection(ctx context.Context, n *NftCollection) (created bool, err error)
	NftCollectionByContract(ctx context.Context, contractID int64) (*NftCollection, error)

	Close() error
}

// ContractChainID returns the chain id of c from its blockchain row, falling
// back to meta.chain_id. Zero means unknown.
func ContractChainID(ctx context.Context, s Store, c *Contract) int64 {
	if c.BlockchainID != 0 {
		if b, err := s.Blockchain(ctx, c.BlockchainID); err == nil {
			return b.ChainID
		}
	}
	id, _ := c.Meta.Int64(MetaChainID)
	return id
}
