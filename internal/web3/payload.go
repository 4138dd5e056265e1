package web3

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// payload is the JSON object printed by a data script.
type payload map[string]any

// parsePayload decodes script stdout. It must be a single JSON object whose
// data field is non-empty 0x-prefixed hex.
func parsePayload(out, kind string) (payload, error) {
	var p payload
	if err := decodeJSON(strings.TrimSpace(out), &p); err != nil || p == nil {
		return nil, fmt.Errorf("%w: invalid %s JSON, expected a top-level object with a \"data\" field", ErrInvalidPayload, kind)
	}
	data, _ := p["data"].(string)
	if data == "" {
		return nil, fmt.Errorf("%w: invalid %s JSON, expected a top-level object with a \"data\" field", ErrInvalidPayload, kind)
	}
	b, err := hexutil.Decode(data)
	if err != nil || len(b) == 0 {
		return nil, fmt.Errorf("%w: %s data is not 0x-prefixed hex", ErrInvalidPayload, kind)
	}
	return p, nil
}

func (p payload) data() string {
	s, _ := p["data"].(string)
	return s
}

// bytecodeLen returns the length of the bytecode field, or nil when absent.
func (p payload) bytecodeLen() any {
	if s, ok := p["bytecode"].(string); ok {
		return len(s)
	}
	return nil
}

// parseArgs decodes a JSON array of arguments. Empty input is an empty list.
func parseArgs(raw string) ([]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []any{}, nil
	}
	var args []any
	if err := decodeJSON(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	if args == nil {
		return nil, ErrInvalidArgs
	}
	return args, nil
}

// decodeJSON rejects trailing data and keeps numbers as json.Number.
func decodeJSON(raw string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}
