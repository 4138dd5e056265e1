// Package events carries in-process domain events over asaskevich/EventBus.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

// TopicTransactionConfirmed is published once a transaction's receipt is known.
const TopicTransactionConfirmed = "transaction.confirmed"

// TransactionConfirmed is the payload of TopicTransactionConfirmed.
type TransactionConfirmed struct {
	Transaction store.Transaction
}

// TransactionConfirmedHandler reacts to a confirmed transaction.
type TransactionConfirmedHandler func(ctx context.Context, ev TransactionConfirmed) error

// collector gathers handler errors for one Publish call.
type collector struct {
	mu   sync.Mutex
	errs []error
}

func (c *collector) add(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// Bus is a synchronous event bus. Publish returns once every subscriber ran,
// joining their errors.
type Bus struct {
	bus evbus.Bus
	log *zap.SugaredLogger
}

// NewBus creates an empty bus.
func NewBus(log *zap.SugaredLogger) *Bus {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Bus{bus: evbus.New(), log: log}
}

// OnTransactionConfirmed subscribes h.
func (b *Bus) OnTransactionConfirmed(h TransactionConfirmedHandler) error {
	fn := func(ctx context.Context, ev TransactionConfirmed, c *collector) {
		if err := h(ctx, ev); err != nil {
			b.log.Errorw("transaction.confirmed handler failed", "tx", ev.Transaction.ID, "err", err)
			c.add(err)
		}
	}
	if err := b.bus.Subscribe(TopicTransactionConfirmed, fn); err != nil {
		return fmt.Errorf("subscribing to %s: %w", TopicTransactionConfirmed, err)
	}
	return nil
}

// PublishTransactionConfirmed runs every subscriber for tx.
func (b *Bus) PublishTransactionConfirmed(ctx context.Context, tx store.Transaction) error {
	c := &collector{}
	b.log.Debugw("publishing", "topic", TopicTransactionConfirmed, "tx", tx.ID)
	b.bus.Publish(TopicTransactionConfirmed, ctx, TransactionConfirmed{Transaction: tx}, c)
	return errors.Join(c.errs...)
}

// HasSubscribers reports whether anything listens for confirmed transactions.
func (b *Bus) HasSubscribers() bool {
	return b.bus.HasCallback(TopicTransactionConfirmed)
}
