package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

// Errors.
var (
	ErrInvalidAddress   = errors.New("invalid contract address")
	ErrAlreadyConfirmed = errors.New("transaction already confirmed")
)

// ConfirmRequest records the receipt of a transaction the signing pipeline
// has mined.
type ConfirmRequest struct {
	TransactionID   int64
	ContractAddress string
	Hash            string
}

// Confirm writes the receipt onto the transaction, marks it confirmed and
// publishes transaction.confirmed. With the memory queue the jobs queued by
// the listeners are run before Confirm returns.
func (a *App) Confirm(ctx context.Context, req ConfirmRequest) (*store.Transaction, error) {
	tx, err := a.Store.Transaction(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status == store.StatusConfirmed {
		return nil, fmt.Errorf("transaction %d: %w", tx.ID, ErrAlreadyConfirmed)
	}
	if req.ContractAddress != "" && !common.IsHexAddress(req.ContractAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, req.ContractAddress)
	}

	if tx.Meta == nil {
		tx.Meta = store.Meta{}
	}
	receipt := store.Receipt{TransactionHash: req.Hash, Status: "success"}
	if req.ContractAddress != "" {
		receipt.ContractAddress = common.HexToAddress(req.ContractAddress).Hex()
	}
	tx.Meta.SetReceipt(receipt)
	tx.Status = store.StatusConfirmed
	if req.Hash != "" {
		tx.Hash = req.Hash
	}
	if err := a.Store.UpdateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("updating transaction %d: %w", tx.ID, err)
	}

	if err := a.Bus.PublishTransactionConfirmed(ctx, *tx); err != nil {
		return tx, err
	}
	if a.Synchronous() {
		n, err := a.Queue.Drain(ctx)
		if err != nil {
			return tx, err
		}
		a.Log.Debugw("drained jobs", "count", n)
	}
	return tx, nil
}
