package app

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

// SyncNetworks upserts one Blockchain row per registered adapter, keyed by
// chain id, and returns the rows in registry order.
func (a *App) SyncNetworks(ctx context.Context) ([]store.Blockchain, error) {
	overrides, err := a.Config.RPCOverrideMap()
	if err != nil {
		return nil, err
	}
	adapters := a.Registry.All()
	out := make([]store.Blockchain, 0, len(adapters))
	for _, ad := range adapters {
		rpc := ad.DefaultRPC()
		if url := overrides[ad.ChainID()]; url != "" {
			rpc = url
		}
		b := &store.Blockchain{
			ChainID: ad.ChainID(),
			Name:    ad.Name(),
			Network: ad.Network(),
			RPC:     rpc,
		}
		if err := a.Store.UpsertBlockchain(ctx, b); err != nil {
			return nil, fmt.Errorf("syncing %s: %w", ad.Network(), err)
		}
		out = append(out, *b)
	}
	a.Log.Infow("networks synced", "count", len(out))
	return out, nil
}
