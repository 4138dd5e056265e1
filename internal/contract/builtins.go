package contract

import (
	"encoding/json"
	"sort"
)

// Builtin is a bundled ABI that can be attached to a contract row without an
// artifact file.
type Builtin struct {
	ID       string // machine key, e.g. "erc20"
	Name     string
	Standard Standard
	ABI      ABI
}

// JSON returns the builtin ABI as raw JSON.
func (b Builtin) JSON() json.RawMessage {
	data, _ := json.Marshal(b.ABI)
	return data
}

var builtinRegistry = map[string]Builtin{}

// RegisterBuiltin adds a built-in ABI. Call this from init().
func RegisterBuiltin(b Builtin) {
	builtinRegistry[b.ID] = b
}

// GetBuiltin returns a built-in by ID.
func GetBuiltin(id string) (Builtin, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []Builtin {
	out := make([]Builtin, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func init() {
	RegisterBuiltin(Builtin{ID: "erc20", Name: "ERC-20 Standard Token", Standard: ERC20, ABI: erc20ABI})
	RegisterBuiltin(Builtin{ID: "erc721", Name: "ERC-721 Non-Fungible Token", Standard: ERC721, ABI: erc721ABI})
	RegisterBuiltin(Builtin{ID: "erc1155", Name: "ERC-1155 Multi Token", Standard: ERC1155, ABI: erc1155ABI})
}

func view(name string, in []ABIParam, out ...string) ABIEntry {
	e := ABIEntry{Name: name, Type: "function", Inputs: in, StateMutability: "view"}
	for _, t := range out {
		e.Outputs = append(e.Outputs, ABIParam{Type: t})
	}
	return e
}

func write(name string, in []ABIParam, out ...string) ABIEntry {
	e := view(name, in, out...)
	e.StateMutability = "nonpayable"
	return e
}

func params(pairs ...string) []ABIParam {
	out := make([]ABIParam, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, ABIParam{Name: pairs[i], Type: pairs[i+1]})
	}
	return out
}

// Function selectors:
//
//	name()              → 0x06fdde03
//	symbol()            → 0x95d89b41
//	decimals()          → 0x313ce567
//	totalSupply()       → 0x18160ddd
//	balanceOf(address)  → 0x70a08231
//	transfer(a,u256)    → 0xa9059cbb
var erc20ABI = ABI{
	view("name", nil, "string"),
	view("symbol", nil, "string"),
	view("decimals", nil, "uint8"),
	view("totalSupply", nil, "uint256"),
	view("balanceOf", params("account", "address"), "uint256"),
	view("allowance", params("owner", "address", "spender", "address"), "uint256"),
	write("transfer", params("to", "address", "value", "uint256"), "bool"),
	write("approve", params("spender", "address", "value", "uint256"), "bool"),
	write("transferFrom", params("from", "address", "to", "address", "value", "uint256"), "bool"),
	{Name: "Transfer", Type: "event", Inputs: params("from", "address", "to", "address", "value", "uint256")},
	{Name: "Approval", Type: "event", Inputs: params("owner", "address", "spender", "address", "value", "uint256")},
}

var erc721ABI = ABI{
	view("name", nil, "string"),
	view("symbol", nil, "string"),
	view("tokenURI", params("tokenId", "uint256"), "string"),
	view("ownerOf", params("tokenId", "uint256"), "address"),
	view("balanceOf", params("owner", "address"), "uint256"),
	view("getApproved", params("tokenId", "uint256"), "address"),
	write("approve", params("to", "address", "tokenId", "uint256")),
	write("transferFrom", params("from", "address", "to", "address", "tokenId", "uint256")),
	write("safeTransferFrom", params("from", "address", "to", "address", "tokenId", "uint256")),
	{Name: "Transfer", Type: "event", Inputs: params("from", "address", "to", "address", "tokenId", "uint256")},
}

var erc1155ABI = ABI{
	view("uri", params("id", "uint256"), "string"),
	view("balanceOf", params("account", "address", "id", "uint256"), "uint256"),
	view("balanceOfBatch", params("accounts", "address[]", "ids", "uint256[]"), "uint256[]"),
	view("isApprovedForAll", params("account", "address", "operator", "address"), "bool"),
	write("setApprovalForAll", params("operator", "address", "approved", "bool")),
	write("safeTransferFrom", params("from", "address", "to", "address", "id", "uint256", "value", "uint256", "data", "bytes")),
	write("safeBatchTransferFrom", params("from", "address", "to", "address", "ids", "uint256[]", "values", "uint256[]", "data", "bytes")),
}
