package contract

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Signature returns the canonical signature, e.g. "transfer(address,uint256)".
func Signature(fn Function) string {
	return fn.Name + "(" + strings.Join(fn.Inputs, ",") + ")"
}

// Selector computes the 0x-prefixed 4-byte selector for a function.
func Selector(fn Function) string {
	return SelectorOf(Signature(fn))
}

// SelectorOf hashes an already-canonical signature string.
func SelectorOf(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// NormalizeSignature drops parameter names and whitespace:
// "transfer(address to, uint256 amount)" becomes "transfer(address,uint256)".
func NormalizeSignature(sig string) string {
	sig = strings.TrimSpace(sig)
	open := strings.Index(sig, "(")
	if open < 0 || !strings.HasSuffix(sig, ")") {
		return sig
	}
	name := strings.TrimSpace(sig[:open])
	params := strings.TrimSpace(sig[open+1 : len(sig)-1])
	if params == "" {
		return name + "()"
	}
	var types []string
	for _, p := range strings.Split(params, ",") {
		if fields := strings.Fields(p); len(fields) > 0 {
			types = append(types, fields[0])
		}
	}
	return name + "(" + strings.Join(types, ",") + ")"
}
