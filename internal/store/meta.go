package store

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/hhbridge/internal/contract"
)

// Meta keys read or written by hhbridge.
const (
	MetaReceipt         = "receipt"
	MetaAutoVerify      = "auto_verify"
	MetaConstructorArgs = "constructor_args"
	MetaABI             = "abi"
	MetaNetwork         = "network"
	MetaVerify          = "verify"
	MetaArtifact        = "artifact"
	MetaChainID         = "chain_id"
)

// Verification outcomes stored under meta.verify.status.
const (
	VerifyOK    = "ok"
	VerifyError = "error"
)

// Meta is a schema-less JSON document. Nested values are kept in their
// decoded form (map[string]any, []any, string, json.Number, bool) so the typed
// accessors behave the same before and after a round trip through storage.
type Meta map[string]any

// UnmarshalJSON decodes numbers as json.Number so uint256 values survive.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var out map[string]any
	if err := decodeNumbers(data, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// Receipt is the subset of a transaction receipt recorded on confirmation.
type Receipt struct {
	ContractAddress string
	TransactionHash string
	Status          string
}

// VerifyRecord is the outcome of an explorer verification.
type VerifyRecord struct {
	Status string
	Output string
	Error  string
}

// OK reports whether the verification succeeded.
func (v VerifyRecord) OK() bool { return v.Status == VerifyOK }

// String returns the value at key when it is a string.
func (m Meta) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Int64 returns the integer at key. Numbers and numeric strings are accepted.
func (m Meta) Int64(key string) (int64, bool) {
	switch v := m[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Map returns the nested document at key, or nil.
func (m Meta) Map(key string) Meta {
	switch v := m[key].(type) {
	case Meta:
		return v
	case map[string]any:
		return Meta(v)
	}
	return nil
}

// ReceiptContractAddress returns receipt.contractAddress.
func (m Meta) ReceiptContractAddress() string {
	return strings.TrimSpace(m.Map(MetaReceipt).String("contractAddress"))
}

// SetReceipt stores r under receipt, keeping unrelated receipt fields.
func (m Meta) SetReceipt(r Receipt) {
	rec := m.Map(MetaReceipt)
	if rec == nil {
		rec = Meta{}
	}
	if r.ContractAddress != "" {
		rec["contractAddress"] = r.ContractAddress
	}
	if r.TransactionHash != "" {
		rec["transactionHash"] = r.TransactionHash
	}
	if r.Status != "" {
		rec["status"] = r.Status
	}
	m[MetaReceipt] = map[string]any(rec)
}

// AutoVerify reports whether auto_verify is truthy. Booleans, numbers and the
// strings "1"/"true"/"yes" are accepted.
func (m Meta) AutoVerify() bool {
	switch v := m[MetaAutoVerify].(type) {
	case bool:
		return v
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return b
		}
		return strings.EqualFold(strings.TrimSpace(v), "yes")
	}
	return false
}

// ConstructorArgs returns constructor_args as a list. A JSON-encoded string
// is decoded; anything else yields nil.
func (m Meta) ConstructorArgs() []any {
	switch v := m[MetaConstructorArgs].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case string:
		var out []any
		if decodeNumbers([]byte(v), &out) == nil {
			return out
		}
	}
	return nil
}

// ConstructorArgStrings renders constructor args as CLI arguments.
func (m Meta) ConstructorArgStrings() []string {
	return ArgStrings(m.ConstructorArgs())
}

// ABI returns the normalised ABI stored under abi, or nil.
func (m Meta) ABI() json.RawMessage {
	return contract.Normalize(m[MetaABI])
}

// Network returns the network label stored under network.
func (m Meta) Network() string {
	return strings.TrimSpace(m.String(MetaNetwork))
}

// Verify returns meta.verify when present.
func (m Meta) Verify() (VerifyRecord, bool) {
	v := m.Map(MetaVerify)
	if v == nil {
		return VerifyRecord{}, false
	}
	return VerifyRecord{Status: v.String("status"), Output: v.String("output"), Error: v.String("error")}, true
}

// SetVerify replaces meta.verify with rec.
func (m Meta) SetVerify(rec VerifyRecord) {
	v := map[string]any{"status": rec.Status}
	if rec.Output != "" {
		v["output"] = rec.Output
	}
	if rec.Error != "" {
		v["error"] = rec.Error
	}
	m[MetaVerify] = v
}

// Clone returns a deep copy of m.
func (m Meta) Clone() Meta {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return Meta{}
	}
	var out Meta
	if err := json.Unmarshal(data, &out); err != nil {
		return Meta{}
	}
	return out
}

// ArgStrings renders decoded JSON values as CLI arguments: strings verbatim,
// everything else as compact JSON.
func ArgStrings(args []any) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if s, ok := a.(string); ok {
			out = append(out, s)
			continue
		}
		data, err := json.Marshal(a)
		if err != nil {
			continue
		}
		out = append(out, string(data))
	}
	return out
}
