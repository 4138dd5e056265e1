package contract

import (
	"encoding/json"
	"strings"
)

// Standard is the token standard a contract's ABI matches.
type Standard string

const (
	Unknown Standard = ""
	ERC20   Standard = "erc20"
	ERC721  Standard = "erc721"
	ERC1155 Standard = "erc1155"
)

// IsNFT reports whether s is one of the NFT standards.
func (s Standard) IsNFT() bool {
	return s == ERC721 || s == ERC1155
}

func (s Standard) String() string {
	if s == Unknown {
		return "unknown"
	}
	return string(s)
}

// Function is an ABI function reduced to its name and ordered input types.
type Function struct {
	Name   string
	Inputs []string
}

// Functions extracts the function descriptors of abi, skipping events,
// errors, constructors and fallbacks.
func Functions(abi ABI) []Function {
	out := make([]Function, 0, len(abi))
	for _, e := range abi {
		if e.Type != "function" {
			continue
		}
		fn := Function{Name: e.Name, Inputs: make([]string, len(e.Inputs))}
		for i, p := range e.Inputs {
			fn.Inputs[i] = p.Type
		}
		out = append(out, fn)
	}
	return out
}

// FunctionsFromJSON parses raw and extracts its functions. Invalid JSON
// yields no functions.
func FunctionsFromJSON(raw json.RawMessage) []Function {
	if len(raw) == 0 {
		return nil
	}
	abi, err := ParseABI(raw)
	if err != nil {
		return nil
	}
	return Functions(abi)
}

var (
	erc1155BalanceOf    = []string{"address", "uint256"}
	erc1155SafeTransfer = []string{"address", "address", "uint256", "uint256"}
	erc20BalanceOf      = []string{"address"}
)

// Detect classifies a function list. ERC-20 is checked first, then ERC-1155
// before ERC-721 because both expose balanceOf and 1155's arity is the only
// thing telling them apart.
func Detect(fns []Function) Standard {
	if len(fns) == 0 {
		return Unknown
	}
	has := func(name string, pattern []string) bool {
		return hasFunction(fns, name, pattern)
	}

	if has("totalSupply", nil) && has("decimals", nil) && has("symbol", nil) &&
		has("name", nil) && has("balanceOf", erc20BalanceOf) {
		return ERC20
	}
	if has("balanceOf", erc1155BalanceOf) && has("balanceOfBatch", nil) &&
		has("safeTransferFrom", erc1155SafeTransfer) {
		return ERC1155
	}
	if has("ownerOf", nil) && has("balanceOf", nil) &&
		(has("safeTransferFrom", nil) || has("transferFrom", nil)) {
		return ERC721
	}
	return Unknown
}

// hasFunction reports whether some function called name has at least
// len(pattern) inputs whose declared types start with the pattern's types.
// A nil pattern matches on name alone.
func hasFunction(fns []Function, name string, pattern []string) bool {
	for _, fn := range fns {
		if fn.Name != name {
			continue
		}
		if pattern == nil {
			return true
		}
		if len(fn.Inputs) < len(pattern) {
			continue
		}
		ok := true
		for i, want := range pattern {
			if !strings.HasPrefix(strings.ToLower(fn.Inputs[i]), want) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
