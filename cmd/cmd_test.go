package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/hhbridge/internal/doctor"
	"github.com/Mohsinsiddi/hhbridge/test/fixtures"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 3, exitCode(&exitCodeError{code: 3, msg: "npm update failed"}))
	assert.Equal(t, 127, exitCode(fmt.Errorf("wrapped: %w", &exitCodeError{code: 127})))
	assert.Equal(t, 1, exitCode(&exitCodeError{code: 0}))
}

func TestUpdateArgs(t *testing.T) {
	assert.Empty(t, updateArgs(false, false))
	assert.Equal(t, []string{"--dry-run"}, updateArgs(true, false))
	assert.Equal(t, []string{"--dry-run", "--silent"}, updateArgs(true, true))
}

func TestImportedABI(t *testing.T) {
	abi, err := importedABI("ERC20", "")
	require.NoError(t, err)
	assert.Contains(t, string(abi), "totalSupply")

	abi, err = importedABI("", fixtures.ABIPath("MyToken.artifact.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, abi)

	_, err = importedABI("erc4626", "")
	assert.ErrorContains(t, err, "erc1155")
	_, err = importedABI("erc20", "x.json")
	assert.Error(t, err)
	_, err = importedABI("", "")
	assert.Error(t, err)
}

func TestRenderFinding(t *testing.T) {
	assert.Contains(t, renderFinding(doctor.Finding{Level: doctor.Critical, Message: "missing"}), "✗")
	assert.Contains(t, renderFinding(doctor.Finding{Level: doctor.Warning, Message: "missing"}), "⚠")
	assert.Contains(t, renderFinding(doctor.Finding{Level: doctor.Pass, Message: "found"}), "✓")
}

// execute runs the root command in process the way Execute does and returns
// what it printed on stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	ctx := context.Background()
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeApp(ctx, err == nil); err == nil {
		err = cerr
	}
	return out.String(), err
}

func TestDeployConfirmFlow(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "payload.json")
	require.NoError(t, os.WriteFile(payload, []byte(`{"data":"0x6080","constructorArgs":[]}`), 0o600))

	cfgPath := filepath.Join(dir, "hhbridge.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
project_path: %s
launcher: ["sh", "-c", "cat %s", "sh"]
store:
  dir: %s
log:
  level: error
`, dir, payload, filepath.Join(dir, "data"))), 0o600))
	t.Setenv("HOME", t.TempDir())

	out, err := execute(t, "--config", cfgPath, "network", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "networks synced")

	out, err = execute(t, "--config", cfgPath, "wallet", "add", "0x1111111111111111111111111111111111111111", "--name=deployer")
	require.NoError(t, err)
	assert.Contains(t, out, "Wallet id=1 added")

	_, err = execute(t, "--config", cfgPath, "deploy", "Token", "--chain-id=8453")
	assert.Error(t, err, "deploy needs a wallet")

	out, err = execute(t, "--config", cfgPath, "deploy", "Token", "--wallet-id=1", "--chain-id=8453")
	require.NoError(t, err)
	assert.Contains(t, out, "Enqueued deployment transaction id=1 (status=pending).")

	out, err = execute(t, "--config", cfgPath, "confirm", "1", "--contract-address=0x000000000000000000000000000000000000bEEF")
	require.NoError(t, err)
	assert.Contains(t, out, "Transaction id=1 confirmed.")
	assert.Contains(t, out, "Contract id=1 persisted")

	out, err = execute(t, "--config", cfgPath, "contract", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "unknown")
	assert.Contains(t, out, "8453")

	out, err = execute(t, "--config", cfgPath, "verify", "0x000000000000000000000000000000000000bEEF", "--contract-id=1", "--queue")
	require.NoError(t, err)
	assert.Contains(t, out, "Queued verification job for contract id=1 on network=base.")
	assert.Contains(t, out, "runs the job in this process")

	out, err = execute(t, "--config", cfgPath, "selector", "transfer(address to, uint256 amount)")
	require.NoError(t, err)
	assert.Contains(t, out, "0xa9059cbb")
}

func blockServer(t *testing.T, block uint64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":"0x%x"}`, block)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNetworkCheck(t *testing.T) {
	base := blockServer(t, 42)
	mainnet := blockServer(t, 21_000_000)
	arbitrum := blockServer(t, 300_000_000)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "hhbridge.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
project_path: %s
rpc_overrides:
  "8453": %s
  "1": %s
  "42161": %s
log:
  level: error
`, dir, base.URL, mainnet.URL, arbitrum.URL)), 0o600))
	t.Setenv("HOME", t.TempDir())

	out, err := execute(t, "--config", cfgPath, "network", "check", "base")
	require.NoError(t, err)
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "All 1 endpoints healthy.")

	out, err = execute(t, "--config", cfgPath, "network", "check", "mainnet", "arbitrum")
	require.NoError(t, err)
	assert.NotContains(t, out, "stale")
	assert.Contains(t, out, "All 2 endpoints healthy.")

	_, err = execute(t, "--config", cfgPath, "network", "check", "nowhere")
	assert.ErrorContains(t, err, "chain not found")
}
