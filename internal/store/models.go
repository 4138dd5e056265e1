package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Transaction statuses written by this module. The signing pipeline owns
// every other transition.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// Blockchain is a chain row kept in sync with the adapter registry.
type Blockchain struct {
	ID      int64  `json:"id"`
	ChainID int64  `json:"chain_id"`
	Name    string `json:"name"`
	Network string `json:"network"`
	RPC     string `json:"rpc,omitempty"`
}

// Wallet is a signer known to the external signing pipeline.
type Wallet struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	Protocol  string    `json:"protocol"` // "evm" | "solana" | ...
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsEVM reports whether the wallet can sign EVM transactions.
func (w Wallet) IsEVM() bool {
	return w.Protocol == "" || strings.EqualFold(w.Protocol, "evm")
}

// Transaction is a queued transaction. An empty To marks a contract creation.
type Transaction struct {
	ID             int64     `json:"id"`
	WalletID       int64     `json:"wallet_id"`
	BlockchainID   int64     `json:"blockchain_id,omitempty"`
	ChainID        int64     `json:"chain_id"`
	From           string    `json:"from"`
	To             string    `json:"to,omitempty"`
	Value          string    `json:"value,omitempty"`
	Data           string    `json:"data"`
	Function       string    `json:"function,omitempty"`
	FunctionParams Meta      `json:"function_params,omitempty"`
	Meta           Meta      `json:"meta,omitempty"`
	Status         string    `json:"status"`
	Hash           string    `json:"hash,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsContractCreation reports whether the transaction has no destination.
func (t Transaction) IsContractCreation() bool {
	return t.To == ""
}

// Contract is a deployed contract, unique by lowercased address.
type Contract struct {
	ID           int64           `json:"id"`
	BlockchainID int64           `json:"blockchain_id,omitempty"`
	Address      string          `json:"address"`
	Creator      string          `json:"creator,omitempty"`
	ABI          json.RawMessage `json:"abi,omitempty"`
	Meta         Meta            `json:"meta,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Token is a fungible token, at most one per contract.
type Token struct {
	ID          int64  `json:"id"`
	ContractID  int64  `json:"contract_id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    int    `json:"decimals"`
	TotalSupply string `json:"total_supply"`
}

// NftCollection is an NFT collection, at most one per contract.
type NftCollection struct {
	ID         int64  `json:"id"`
	ContractID int64  `json:"contract_id"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	Standard   string `json:"standard"` // "erc721" | "erc1155"
}

// NormalizeAddress is the key used for address lookups.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
