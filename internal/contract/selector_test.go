package contract_test

import (
	"testing"

	"github.com/Mohsinsiddi/hhbridge/internal/contract"
	"github.com/stretchr/testify/assert"
)

func TestSelector(t *testing.T) {
	tests := []struct {
		fn   contract.Function
		sig  string
		want string
	}{
		{fn("name"), "name()", "0x06fdde03"},
		{fn("symbol"), "symbol()", "0x95d89b41"},
		{fn("decimals"), "decimals()", "0x313ce567"},
		{fn("totalSupply"), "totalSupply()", "0x18160ddd"},
		{fn("balanceOf", "address"), "balanceOf(address)", "0x70a08231"},
		{fn("transfer", "address", "uint256"), "transfer(address,uint256)", "0xa9059cbb"},
		{fn("approve", "address", "uint256"), "approve(address,uint256)", "0x095ea7b3"},
		{fn("allowance", "address", "address"), "allowance(address,address)", "0xdd62ed3e"},
	}
	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			assert.Equal(t, tt.sig, contract.Signature(tt.fn))
			assert.Equal(t, tt.want, contract.Selector(tt.fn))
			assert.Equal(t, tt.want, contract.SelectorOf(tt.sig))
		})
	}
}

func TestNormalizeSignature(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"transfer(address,uint256)", "transfer(address,uint256)"},
		{"transfer(address to, uint256 amount)", "transfer(address,uint256)"},
		{"approve(  address  spender ,  uint256  amount  )", "approve(address,uint256)"},
		{" name() ", "name()"},
		{"noop", "noop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, contract.NormalizeSignature(tt.in), tt.in)
	}
}
