package jobs

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/hhbridge/internal/contract"
	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

// Defaults used when an on-chain read fails or returns nothing.
const (
	DefaultTokenName     = "Token"
	DefaultTokenSymbol   = "TKN"
	DefaultTokenDecimals = 18
	DefaultTokenSupply   = "0"
	DefaultNFTName       = "NFT Collection"
	DefaultNFTSymbol     = "NFT"
	DefaultERC1155Name   = "ERC1155 Collection"
	DefaultERC1155Symbol = "ERC1155"
)

// AssetPopulator creates the Token or NftCollection row of a contract.
type AssetPopulator struct {
	store  store.Store
	caller contract.Caller
	log    *zap.SugaredLogger
}

// NewAssetPopulator creates an AssetPopulator.
func NewAssetPopulator(s store.Store, caller contract.Caller, log *zap.SugaredLogger) *AssetPopulator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &AssetPopulator{store: s, caller: caller, log: log}
}

// Handle runs the job. A missing contract, an empty ABI or an unrecognised
// standard is not an error.
func (p *AssetPopulator) Handle(ctx context.Context, job PopulateAssetRecords) error {
	c, err := p.store.Contract(ctx, job.ContractID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !contract.HasEntries(c.ABI) {
		return nil
	}
	abi, err := contract.ParseABI(c.ABI)
	if err != nil {
		p.log.Warnw("contract ABI does not parse, skipping classification", "contract", c.ID, "err", err)
		return nil
	}

	std := contract.Detect(contract.Functions(abi))
	log := p.log.With("contract", c.ID, "address", c.Address, "standard", std.String())
	r := reader{caller: p.caller, abi: abi, address: c.Address, chainID: store.ContractChainID(ctx, p.store, c), log: log}

	switch std {
	case contract.ERC20:
		tok := &store.Token{
			ContractID:  c.ID,
			Name:        r.str(ctx, "name", DefaultTokenName),
			Symbol:      r.str(ctx, "symbol", DefaultTokenSymbol),
			Decimals:    r.int(ctx, "decimals", DefaultTokenDecimals),
			TotalSupply: r.str(ctx, "totalSupply", DefaultTokenSupply),
		}
		created, err := p.store.FirstOrCreateToken(ctx, tok)
		if err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
		log.Infow("token populated", "created", created, "name", tok.Name, "symbol", tok.Symbol)

	case contract.ERC721, contract.ERC1155:
		name, symbol := DefaultNFTName, DefaultNFTSymbol
		if std == contract.ERC1155 {
			name, symbol = DefaultERC1155Name, DefaultERC1155Symbol
		}
		nft := &store.NftCollection{
			ContractID: c.ID,
			Name:       r.str(ctx, "name", name),
			Symbol:     r.str(ctx, "symbol", symbol),
			Standard:   string(std),
		}
		created, err := p.store.FirstOrCreateNftCollection(ctx, nft)
		if err != nil {
			return fmt.Errorf("saving nft collection: %w", err)
		}
		log.Infow("nft collection populated", "created", created, "name", nft.Name, "symbol", nft.Symbol)

	default:
		log.Debug("no token standard detected")
	}
	return nil
}

// reader performs best-effort single-value reads.
type reader struct {
	caller  contract.Caller
	abi     contract.ABI
	address string
	chainID int64
	log     *zap.SugaredLogger
}

func (r reader) first(ctx context.Context, fn string) (any, bool) {
	if r.caller == nil || r.chainID == 0 || r.abi.Function(fn) == nil {
		return nil, false
	}
	out, err := r.caller.Call(ctx, r.chainID, r.abi, r.address, fn)
	if err != nil {
		r.log.Debugw("on-chain read failed, using default", "function", fn, "err", err)
		return nil, false
	}
	if len(out) == 0 || out[0] == nil {
		return nil, false
	}
	return out[0], true
}

func (r reader) str(ctx context.Context, fn, def string) string {
	v, ok := r.first(ctx, fn)
	if !ok {
		return def
	}
	s := strings.TrimSpace(format(v))
	if s == "" {
		return def
	}
	return s
}

func (r reader) int(ctx context.Context, fn string, def int) int {
	v, ok := r.first(ctx, fn)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(format(v))
	if err != nil {
		return def
	}
	return n
}

func format(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case *big.Int:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
