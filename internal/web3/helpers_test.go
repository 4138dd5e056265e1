package web3_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/hhbridge/internal/jobs"
	"github.com/Mohsinsiddi/hhbridge/internal/store"
	"github.com/Mohsinsiddi/hhbridge/internal/web3"
)

func TestDeployFromWallet(t *testing.T) {
	e := setup(t, `{"data":"0x6080"}`)

	id, err := web3.DeployFromWallet(context.Background(), e.svc, e.wallet, "MyToken", []any{"Name", 18}, web3.TxOptions{ChainID: 10, AutoVerify: true})
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, []string{"--network", "optimism", "--artifact=MyToken", `--args=["Name",18]`}, e.runner.args)

	tx, err := e.store.Transaction(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, tx.Meta.AutoVerify())
}

func TestCallFromWallet(t *testing.T) {
	e := setup(t, `{"data":"0x095ea7b3"}`)
	c := seedContract(t, e, 0)

	id, err := web3.CallFromWallet(context.Background(), e.svc, e.wallet, c, "approve(address,uint256)", []any{signer, "1"}, web3.TxOptions{Network: "base", Value: "5"})
	require.NoError(t, err)

	tx, err := e.store.Transaction(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "approve(address,uint256)", tx.Function)
	assert.Equal(t, "5", tx.Value)
	assert.Equal(t, "0x095ea7b3", tx.FunctionParams.String("selector"))
}

func TestQueueVerification(t *testing.T) {
	e := setup(t, "")
	ctx := context.Background()

	c := &store.Contract{Address: "0x4444444444444444444444444444444444444444", Meta: store.Meta{store.MetaChainID: 42161}}
	_, err := e.store.FirstOrCreateContract(ctx, c)
	require.NoError(t, err)

	require.NoError(t, web3.QueueVerification(ctx, e.svc, c, web3.VerifyOptions{ConstructorArgs: []string{"x"}}))
	dispatched := e.queue.Dispatched(jobs.NameVerifyContract)
	require.Len(t, dispatched, 1)
	assert.Equal(t, "arbitrum", dispatched[0].(jobs.VerifyContract).Network)

	orphan := &store.Contract{ID: 99, Address: "0x5555555555555555555555555555555555555555"}
	assert.ErrorIs(t, web3.QueueVerification(ctx, e.svc, orphan, web3.VerifyOptions{}), web3.ErrNetworkRequired)

	require.NoError(t, web3.QueueVerification(ctx, e.svc, orphan, web3.VerifyOptions{Network: "sepolia"}))
	assert.Len(t, e.queue.Dispatched(jobs.NameVerifyContract), 2)
}
