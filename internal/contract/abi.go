package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrFunctionNotFound is returned when an ABI has no function with the requested name.
var ErrFunctionNotFound = errors.New("function not found in ABI")

// ABIEntry is one ABI entry (function, event, constructor, ...).
type ABIEntry struct {
	Name            string     `json:"name,omitempty"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Anonymous       bool       `json:"anonymous,omitempty"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Indexed    bool       `json:"indexed,omitempty"`
	Components []ABIParam `json:"components,omitempty"`
}

// ABI is a parsed contract interface.
type ABI []ABIEntry

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// Function returns the first function entry called name, or nil.
func (a ABI) Function(name string) *ABIEntry {
	for i := range a {
		if a[i].Type == "function" && a[i].Name == name {
			return &a[i]
		}
	}
	return nil
}

// CountFunctions returns the number of function entries.
func (a ABI) CountFunctions() int {
	n := 0
	for _, e := range a {
		if e.Type == "function" {
			n++
		}
	}
	return n
}

// ParseABI decodes a raw ABI JSON array.
func ParseABI(data []byte) (ABI, error) {
	var abi ABI
	if err := json.Unmarshal(data, &abi); err != nil {
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '{' {
			return nil, fmt.Errorf("ABI is a JSON object, not an array; Hardhat artifacts must carry an \"abi\" key")
		}
		return nil, fmt.Errorf("invalid ABI JSON: %w", err)
	}
	return abi, nil
}

// Normalize turns an ABI found in a metadata bag into raw JSON.
// It accepts an already-decoded structure, a JSON string, raw bytes, or an
// artifact object with an "abi" key. Anything that is not a JSON array yields nil.
func Normalize(v any) json.RawMessage {
	var data []byte
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		data = []byte(t)
	case []byte:
		data = t
	case json.RawMessage:
		data = t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		data = b
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || !json.Valid(data) {
		return nil
	}
	switch data[0] {
	case '[':
		return json.RawMessage(data)
	case '{':
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if json.Unmarshal(data, &artifact) == nil {
			inner := bytes.TrimSpace(artifact.ABI)
			if len(inner) > 0 && inner[0] == '[' {
				return json.RawMessage(inner)
			}
		}
	}
	return nil
}

// HasEntries reports whether raw is an ABI array with at least one entry.
func HasEntries(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return false
	}
	return len(entries) > 0
}

// LoadFromArtifact loads an ABI from a local file that is either:
//   - a raw ABI JSON array: [{"type":"function",...}, ...]
//   - a Hardhat/Foundry artifact: {"abi":[...],"bytecode":"0x...",...}
func LoadFromArtifact(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read ABI file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("ABI file is empty: %s", path)
	}

	raw := Normalize(json.RawMessage(data))
	if raw == nil {
		return nil, fmt.Errorf("%s is neither an ABI array nor an artifact with an \"abi\" array", path)
	}
	abi, err := ParseABI(raw)
	if err != nil {
		return nil, err
	}
	if err := validateABI(abi, path); err != nil {
		return nil, err
	}
	return raw, nil
}

// validateABI checks that the parsed ABI has at least one function or event.
func validateABI(abi ABI, path string) error {
	if len(abi) == 0 {
		return fmt.Errorf("ABI is empty (no functions or events found): %s", path)
	}
	for _, e := range abi {
		if e.Type == "function" || e.Type == "event" || e.Type == "constructor" {
			return nil
		}
	}
	return fmt.Errorf("ABI has %d entries but none are functions or events: %s", len(abi), path)
}
