package app_test

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Mohsinsiddi/hhbridge/internal/app"
	"github.com/Mohsinsiddi/hhbridge/internal/config"
	"github.com/Mohsinsiddi/hhbridge/internal/contract"
	"github.com/Mohsinsiddi/hhbridge/internal/queue"
	"github.com/Mohsinsiddi/hhbridge/internal/store"
	"github.com/Mohsinsiddi/hhbridge/internal/web3"
	"github.com/Mohsinsiddi/hhbridge/test/fixtures"
)

const (
	signer   = "0x1111111111111111111111111111111111111111"
	deployed = "0x000000000000000000000000000000000000bEEF"
)

// chainBackend answers eth_call by 4-byte selector.
type chainBackend struct {
	responses map[string][]byte
}

func (b *chainBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	out, ok := b.responses["0x"+hex.EncodeToString(msg.Data[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return out, nil
}

func pack(t *testing.T, parsed gethabi.ABI, method string, values ...any) []byte {
	t.Helper()
	out, err := parsed.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

// testConfig points the launcher at a shell script that prints the payload
// file for every Hardhat command.
func testConfig(t *testing.T, payload string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "payload.json")
	require.NoError(t, os.WriteFile(file, []byte(payload), 0o600))
	return &config.Config{
		ProjectPath:    dir,
		Launcher:       []string{"sh", "-c", "cat " + file, "sh"},
		PackageManager: "npm",
		DefaultChainID: 1,
		Store:          config.StoreConfig{Driver: config.StoreFile, Dir: t.TempDir()},
		Queue:          config.QueueConfig{Driver: config.QueueMemory, Name: "hhbridge:test"},
		Verify:         config.VerifyConfig{RetryDelay: time.Second, MaxAttempts: 3},
	}
}

func TestNewWiresFileStoreAndMemoryQueue(t *testing.T) {
	cfg := testConfig(t, "{}")
	a, err := app.New(context.Background(), cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.Synchronous())
	assert.IsType(t, &store.FileStore{}, a.Store)
	assert.Equal(t, cfg.ProjectPath, a.Hardhat.ProjectPath())
	assert.Equal(t, cfg.Launcher, a.Hardhat.Launcher())
	assert.True(t, a.Bus.HasSubscribers())
	_, ok := a.Registry.ForChainID(8453)
	assert.True(t, ok)
}

func TestNewRejectsBadOverrides(t *testing.T) {
	cfg := testConfig(t, "{}")
	cfg.RPCOverrides = map[string]string{"base": "http://localhost:8545"}
	_, err := app.New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewFailsWhenRedisIsUnreachable(t *testing.T) {
	cfg := testConfig(t, "{}")
	cfg.Queue = config.QueueConfig{Driver: config.QueueRedis, RedisAddr: "127.0.0.1:1", Name: "hhbridge:test"}
	_, err := app.New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestSyncNetworks(t *testing.T) {
	cfg := testConfig(t, "{}")
	cfg.RPCOverrides = map[string]string{"8453": "http://localhost:8545"}
	a, err := app.New(context.Background(), cfg, nil, app.WithStore(store.NewMemoryStore()))
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	rows, err := a.SyncNetworks(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, len(a.Registry.All()))

	rows, err = a.SyncNetworks(ctx)
	require.NoError(t, err)
	all, err := a.Store.Blockchains(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(rows), "second sync updates in place")

	base, err := a.Store.BlockchainByChainID(ctx, 8453)
	require.NoError(t, err)
	assert.Equal(t, "base", base.Network)
	assert.Equal(t, "http://localhost:8545", base.RPC)
}

func TestDeployConfirmPopulatesAndVerifies(t *testing.T) {
	abiJSON := fixtures.LoadABI(t, "erc20.json")
	payload := `{"data":"0x6080","abi":` + string(abiJSON) + `,"constructorArgs":["Token",18]}`
	cfg := testConfig(t, payload)

	parsed, err := gethabi.JSON(strings.NewReader(string(abiJSON)))
	require.NoError(t, err)
	backend := &chainBackend{responses: map[string][]byte{
		"0x06fdde03": pack(t, parsed, "name", "Bridge Token"),
		"0x95d89b41": pack(t, parsed, "symbol", "BRG"),
		"0x313ce567": pack(t, parsed, "decimals", uint8(6)),
		"0x18160ddd": pack(t, parsed, "totalSupply", big.NewInt(1_000_000)),
	}}
	var dialed []string
	dial := func(_ context.Context, url string) (contract.ContractBackend, error) {
		dialed = append(dialed, url)
		return backend, nil
	}

	a, err := app.New(context.Background(), cfg, zaptest.NewLogger(t).Sugar(),
		app.WithStore(store.NewMemoryStore()),
		app.WithQueueBackend(queue.NewMemoryBackend()),
		app.WithDialer(dial),
	)
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	_, err = a.SyncNetworks(ctx)
	require.NoError(t, err)
	w := &store.Wallet{Address: signer, Protocol: "evm"}
	require.NoError(t, a.Store.CreateWallet(ctx, w))

	tx, err := a.Web3.Deploy(ctx, web3.DeployRequest{
		Artifact:   "Token",
		WalletID:   w.ID,
		ChainID:    8453,
		AutoVerify: true,
	})
	require.NoError(t, err)
	assert.NotZero(t, tx.BlockchainID)

	confirmed, err := a.Confirm(ctx, app.ConfirmRequest{TransactionID: tx.ID, ContractAddress: deployed, Hash: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, store.StatusConfirmed, confirmed.Status)
	assert.Equal(t, "0xabc", confirmed.Hash)

	c, err := a.Store.ContractByAddress(ctx, deployed)
	require.NoError(t, err)
	assert.Equal(t, tx.BlockchainID, c.BlockchainID)
	assert.Equal(t, signer, c.Creator)

	tok, err := a.Store.TokenByContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bridge Token", tok.Name)
	assert.Equal(t, "BRG", tok.Symbol)
	assert.Equal(t, 6, tok.Decimals)
	assert.Equal(t, "1000000", tok.TotalSupply)
	assert.Equal(t, []string{"https://mainnet.base.org"}, dialed)

	rec, ok := c.Meta.Verify()
	require.True(t, ok, "auto-verify ran in process")
	assert.True(t, rec.OK())

	_, err = a.Confirm(ctx, app.ConfirmRequest{TransactionID: tx.ID, ContractAddress: deployed})
	assert.ErrorIs(t, err, app.ErrAlreadyConfirmed)
}

func TestConfirmRejectsBadAddress(t *testing.T) {
	a, err := app.New(context.Background(), testConfig(t, "{}"), nil, app.WithStore(store.NewMemoryStore()))
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	tx := &store.Transaction{WalletID: 1, ChainID: 1, From: signer, Data: "0x60", Status: store.StatusPending}
	require.NoError(t, a.Store.CreateTransaction(ctx, tx))

	_, err = a.Confirm(ctx, app.ConfirmRequest{TransactionID: tx.ID, ContractAddress: "beef"})
	assert.ErrorIs(t, err, app.ErrInvalidAddress)

	_, err = a.Confirm(ctx, app.ConfirmRequest{TransactionID: 99})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConfirmCallTransactionSkipsContract(t *testing.T) {
	a, err := app.New(context.Background(), testConfig(t, "{}"), nil, app.WithStore(store.NewMemoryStore()))
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	tx := &store.Transaction{WalletID: 1, ChainID: 1, From: signer, To: deployed, Data: "0xa9059cbb", Status: store.StatusPending}
	require.NoError(t, a.Store.CreateTransaction(ctx, tx))

	_, err = a.Confirm(ctx, app.ConfirmRequest{TransactionID: tx.ID, Hash: "0xdef"})
	require.NoError(t, err)
	_, err = a.Store.ContractByAddress(ctx, deployed)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
