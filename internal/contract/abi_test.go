package contract_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/hhbridge/internal/contract"
	"github.com/Mohsinsiddi/hhbridge/test/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	arr := `[{"type":"function","name":"name","inputs":[]}]`
	decoded := []any{map[string]any{"type": "function", "name": "name", "inputs": []any{}}}

	tests := []struct {
		name  string
		in    any
		empty bool
	}{
		{"nil", nil, true},
		{"json string", arr, false},
		{"padded string", "  " + arr + "\n", false},
		{"raw message", json.RawMessage(arr), false},
		{"bytes", []byte(arr), false},
		{"decoded slice", decoded, false},
		{"artifact object", `{"abi":` + arr + `,"bytecode":"0x00"}`, false},
		{"invalid json", "[{", true},
		{"plain object", `{"foo":1}`, true},
		{"scalar", 42, true},
		{"empty string", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contract.Normalize(tt.in)
			if tt.empty {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, contract.HasEntries(got))
			assert.Len(t, contract.FunctionsFromJSON(got), 1)
		})
	}
}

func TestHasEntries(t *testing.T) {
	assert.False(t, contract.HasEntries(nil))
	assert.False(t, contract.HasEntries(json.RawMessage(`[]`)))
	assert.False(t, contract.HasEntries(json.RawMessage(`{}`)))
	assert.True(t, contract.HasEntries(json.RawMessage(`[{}]`)))
}

func TestParseABIObjectHint(t *testing.T) {
	_, err := contract.ParseABI([]byte(`{"abi":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an array")

	_, err = contract.ParseABI([]byte(`nope`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ABI JSON")
}

func TestLoadFromArtifact(t *testing.T) {
	raw, err := contract.LoadFromArtifact(fixtures.ABIPath("MyToken.artifact.json"))
	require.NoError(t, err)
	assert.Equal(t, contract.ERC20, contract.Detect(contract.FunctionsFromJSON(raw)))

	raw, err = contract.LoadFromArtifact(fixtures.ABIPath("erc1155.json"))
	require.NoError(t, err)
	assert.True(t, contract.HasEntries(raw))

	_, err = contract.LoadFromArtifact(fixtures.ABIPath("events-only.json"))
	assert.NoError(t, err)
}

func TestLoadFromArtifactErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		return p
	}

	_, err := contract.LoadFromArtifact(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "cannot read ABI file")

	_, err = contract.LoadFromArtifact(write("empty.json", "  \n"))
	assert.ErrorContains(t, err, "empty")

	_, err = contract.LoadFromArtifact(write("object.json", `{"contractName":"X"}`))
	assert.ErrorContains(t, err, "neither an ABI array")

	_, err = contract.LoadFromArtifact(write("zero.json", `[]`))
	assert.ErrorContains(t, err, "ABI is empty")

	_, err = contract.LoadFromArtifact(fixtures.ABIPath("errors-only.json"))
	assert.ErrorContains(t, err, "none are functions or events")
}

func TestABIFunctionLookup(t *testing.T) {
	abi, err := contract.ParseABI(fixtures.LoadABI(t, "erc20.json"))
	require.NoError(t, err)

	entry := abi.Function("balanceOf")
	require.NotNil(t, entry)
	assert.True(t, entry.IsReadFunction())
	assert.False(t, abi.Function("transfer").IsReadFunction())
	assert.Nil(t, abi.Function("Transfer"), "events are not functions")
	assert.Equal(t, 6, abi.CountFunctions())
}
