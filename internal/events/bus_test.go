package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Mohsinsiddi/hhbridge/internal/events"
	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	bus := events.NewBus(zaptest.NewLogger(t).Sugar())
	assert.False(t, bus.HasSubscribers())

	var got []int64
	for i := 0; i < 2; i++ {
		require.NoError(t, bus.OnTransactionConfirmed(func(_ context.Context, ev events.TransactionConfirmed) error {
			got = append(got, ev.Transaction.ID)
			return nil
		}))
	}
	assert.True(t, bus.HasSubscribers())

	require.NoError(t, bus.PublishTransactionConfirmed(context.Background(), store.Transaction{ID: 42}))
	assert.Equal(t, []int64{42, 42}, got)
}

func TestPublishJoinsHandlerErrors(t *testing.T) {
	bus := events.NewBus(nil)
	boom := errors.New("boom")
	require.NoError(t, bus.OnTransactionConfirmed(func(context.Context, events.TransactionConfirmed) error {
		return boom
	}))
	ran := false
	require.NoError(t, bus.OnTransactionConfirmed(func(context.Context, events.TransactionConfirmed) error {
		ran = true
		return nil
	}))

	err := bus.PublishTransactionConfirmed(context.Background(), store.Transaction{ID: 1})
	assert.ErrorIs(t, err, boom)
	assert.True(t, ran, "a failing handler does not stop the others")
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := events.NewBus(nil)
	assert.NoError(t, bus.PublishTransactionConfirmed(context.Background(), store.Transaction{}))
}
