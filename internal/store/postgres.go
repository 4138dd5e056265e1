package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS blockchains (
	id       BIGSERIAL PRIMARY KEY,
	chain_id BIGINT NOT NULL UNIQUE,
	name     TEXT NOT NULL,
	network  TEXT NOT NULL,
	rpc      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS wallets (
	id         BIGSERIAL PRIMARY KEY,
	address    TEXT NOT NULL,
	protocol   TEXT NOT NULL DEFAULT 'evm',
	name       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS wallets_address_key ON wallets (lower(address));
CREATE TABLE IF NOT EXISTS transactions (
	id              BIGSERIAL PRIMARY KEY,
	wallet_id       BIGINT NOT NULL,
	blockchain_id   BIGINT,
	chain_id        BIGINT NOT NULL,
	from_address    TEXT NOT NULL,
	to_address      TEXT,
	value           TEXT NOT NULL DEFAULT '',
	data            TEXT NOT NULL,
	function        TEXT NOT NULL DEFAULT '',
	function_params JSONB,
	meta            JSONB,
	status          TEXT NOT NULL,
	hash            TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS contracts (
	id            BIGSERIAL PRIMARY KEY,
	blockchain_id BIGINT,
	address       TEXT NOT NULL,
	creator       TEXT NOT NULL DEFAULT '',
	abi           JSONB,
	meta          JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS contracts_address_key ON contracts (lower(address));
CREATE TABLE IF NOT EXISTS tokens (
	id           BIGSERIAL PRIMARY KEY,
	contract_id  BIGINT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	symbol       TEXT NOT NULL,
	decimals     INTEGER NOT NULL,
	total_supply TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS nft_collections (
	id          BIGSERIAL PRIMARY KEY,
	contract_id BIGINT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	standard    TEXT NOT NULL
);
`

// PostgresStore is a Store over database/sql and lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	if err := s.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}

// --- blockchains ---

func (s *PostgresStore) UpsertBlockchain(ctx context.Context, b *Blockchain) error {
	query := `
		INSERT INTO blockchains (chain_id, name, network, rpc)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chain_id) DO UPDATE SET
			name = EXCLUDED.name,
			network = EXCLUDED.network,
			rpc = EXCLUDED.rpc
		RETURNING id
	`
	if err := s.db.QueryRowContext(ctx, query, b.ChainID, b.Name, b.Network, b.RPC).Scan(&b.ID); err != nil {
		return fmt.Errorf("upserting blockchain %d: %w", b.ChainID, err)
	}
	return nil
}

const blockchainColumns = `id, chain_id, name, network, rpc`

func scanBlockchain(row interface{ Scan(...any) error }) (*Blockchain, error) {
	var b Blockchain
	if err := row.Scan(&b.ID, &b.ChainID, &b.Name, &b.Network, &b.RPC); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresStore) Blockchain(ctx context.Context, id int64) (*Blockchain, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blockchainColumns+` FROM blockchains WHERE id = $1`, id)
	b, err := scanBlockchain(row)
	return b, notFound(err, "blockchain %d", id)
}

func (s *PostgresStore) BlockchainByChainID(ctx context.Context, chainID int64) (*Blockchain, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blockchainColumns+` FROM blockchains WHERE chain_id = $1`, chainID)
	b, err := scanBlockchain(row)
	return b, notFound(err, "blockchain with chain id %d", chainID)
}

func (s *PostgresStore) Blockchains(ctx context.Context) ([]Blockchain, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+blockchainColumns+` FROM blockchains ORDER BY chain_id`)
	if err != nil {
		return nil, fmt.Errorf("listing blockchains: %w", err)
	}
	defer rows.Close()
	var out []Blockchain
	for rows.Next() {
		b, err := scanBlockchain(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// --- wallets ---

const walletColumns = `id, address, protocol, name, created_at`

func scanWallet(row interface{ Scan(...any) error }) (*Wallet, error) {
	var w Wallet
	if err := row.Scan(&w.ID, &w.Address, &w.Protocol, &w.Name, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PostgresStore) CreateWallet(ctx context.Context, w *Wallet) error {
	query := `INSERT INTO wallets (address, protocol, name) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := s.db.QueryRowContext(ctx, query, w.Address, w.Protocol, w.Name).Scan(&w.ID, &w.CreatedAt); err != nil {
		return fmt.Errorf("creating wallet %s: %w", w.Address, err)
	}
	return nil
}

func (s *PostgresStore) Wallet(ctx context.Context, id int64) (*Wallet, error) {
	w, err := scanWallet(s.db.QueryRowContext(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id))
	return w, notFound(err, "wallet %d", id)
}

func (s *PostgresStore) WalletByAddress(ctx context.Context, address string) (*Wallet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+walletColumns+` FROM wallets WHERE lower(address) = $1`, NormalizeAddress(address))
	w, err := scanWallet(row)
	return w, notFound(err, "wallet %s", address)
}

func (s *PostgresStore) Wallets(ctx context.Context) ([]Wallet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+walletColumns+` FROM wallets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing wallets: %w", err)
	}
	defer rows.Close()
	var out []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// --- transactions ---

const transactionColumns = `id, wallet_id, blockchain_id, chain_id, from_address, to_address, value,
	data, function, function_params, meta, status, hash, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (*Transaction, error) {
	var (
		tx           Transaction
		blockchainID sql.NullInt64
		to           sql.NullString
		params, meta []byte
	)
	err := row.Scan(&tx.ID, &tx.WalletID, &blockchainID, &tx.ChainID, &tx.From, &to, &tx.Value,
		&tx.Data, &tx.Function, &params, &meta, &tx.Status, &tx.Hash, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	tx.BlockchainID = blockchainID.Int64
	tx.To = to.String
	if tx.FunctionParams, err = decodeMeta(params); err != nil {
		return nil, fmt.Errorf("decoding function_params: %w", err)
	}
	if tx.Meta, err = decodeMeta(meta); err != nil {
		return nil, fmt.Errorf("decoding meta: %w", err)
	}
	return &tx, nil
}

func (s *PostgresStore) CreateTransaction(ctx context.Context, tx *Transaction) error {
	params, meta, err := encodeMetas(tx.FunctionParams, tx.Meta)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO transactions (
			wallet_id, blockchain_id, chain_id, from_address, to_address, value,
			data, function, function_params, meta, status, hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	err = s.db.QueryRowContext(ctx, query,
		tx.WalletID, nullInt(tx.BlockchainID), tx.ChainID, tx.From, nullString(tx.To), tx.Value,
		tx.Data, tx.Function, params, meta, tx.Status, tx.Hash,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Transaction(ctx context.Context, id int64) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	return tx, notFound(err, "transaction %d", id)
}

func (s *PostgresStore) UpdateTransaction(ctx context.Context, tx *Transaction) error {
	params, meta, err := encodeMetas(tx.FunctionParams, tx.Meta)
	if err != nil {
		return err
	}
	query := `
		UPDATE transactions SET
			to_address = $2, value = $3, data = $4, function = $5,
			function_params = $6, meta = $7, status = $8, hash = $9
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		tx.ID, nullString(tx.To), tx.Value, tx.Data, tx.Function, params, meta, tx.Status, tx.Hash)
	if err != nil {
		return fmt.Errorf("updating transaction %d: %w", tx.ID, err)
	}
	return mustAffect(res, "transaction %d", tx.ID)
}

// --- contracts ---

const contractColumns = `id, blockchain_id, address, creator, abi, meta, created_at`

func scanContract(row interface{ Scan(...any) error }) (*Contract, error) {
	var (
		c            Contract
		blockchainID sql.NullInt64
		abi, meta    []byte
	)
	if err := row.Scan(&c.ID, &blockchainID, &c.Address, &c.Creator, &abi, &meta, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.BlockchainID = blockchainID.Int64
	if len(abi) > 0 {
		c.ABI = json.RawMessage(abi)
	}
	var err error
	if c.Meta, err = decodeMeta(meta); err != nil {
		return nil, fmt.Errorf("decoding contract meta: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) FirstOrCreateContract(ctx context.Context, c *Contract) (bool, error) {
	meta, err := encodeMeta(c.Meta)
	if err != nil {
		return false, err
	}
	query := `
		INSERT INTO contracts (blockchain_id, address, creator, abi, meta)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lower(address)) DO NOTHING
		RETURNING ` + contractColumns
	stored, err := scanContract(s.db.QueryRowContext(ctx, query,
		nullInt(c.BlockchainID), c.Address, c.Creator, nullJSON(c.ABI), meta))
	if err == nil {
		*c = *stored
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("creating contract %s: %w", c.Address, err)
	}
	existing, err := s.ContractByAddress(ctx, c.Address)
	if err != nil {
		return false, err
	}
	*c = *existing
	return false, nil
}

func (s *PostgresStore) Contract(ctx context.Context, id int64) (*Contract, error) {
	c, err := scanContract(s.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id))
	return c, notFound(err, "contract %d", id)
}

func (s *PostgresStore) ContractByAddress(ctx context.Context, address string) (*Contract, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE lower(address) = $1`, NormalizeAddress(address))
	c, err := scanContract(row)
	return c, notFound(err, "contract %s", address)
}

func (s *PostgresStore) UpdateContract(ctx context.Context, c *Contract) error {
	meta, err := encodeMeta(c.Meta)
	if err != nil {
		return err
	}
	query := `UPDATE contracts SET blockchain_id = $2, creator = $3, abi = $4, meta = $5 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, c.ID, nullInt(c.BlockchainID), c.Creator, nullJSON(c.ABI), meta)
	if err != nil {
		return fmt.Errorf("updating contract %d: %w", c.ID, err)
	}
	return mustAffect(res, "contract %d", c.ID)
}

// --- assets ---

func (s *PostgresStore) FirstOrCreateToken(ctx context.Context, t *Token) (bool, error) {
	query := `
		INSERT INTO tokens (contract_id, name, symbol, decimals, total_supply)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (contract_id) DO NOTHING
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, t.ContractID, t.Name, t.Symbol, t.Decimals, t.TotalSupply).Scan(&t.ID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("creating token for contract %d: %w", t.ContractID, err)
	}
	existing, err := s.TokenByContract(ctx, t.ContractID)
	if err != nil {
		return false, err
	}
	*t = *existing
	return false, nil
}

func (s *PostgresStore) TokenByContract(ctx context.Context, contractID int64) (*Token, error) {
	var t Token
	err := s.db.QueryRowContext(ctx,
		`SELECT id, contract_id, name, symbol, decimals, total_supply FROM tokens WHERE contract_id = $1`, contractID,
	).Scan(&t.ID, &t.ContractID, &t.Name, &t.Symbol, &t.Decimals, &t.TotalSupply)
	if err != nil {
		return nil, notFound(err, "token for contract %d", contractID)
	}
	return &t, nil
}

func (s *PostgresStore) FirstOrCreateNftCollection(ctx context.Context, n *NftCollection) (bool, error) {
	query := `
		INSERT INTO nft_collections (contract_id, name, symbol, standard)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (contract_id) DO NOTHING
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, n.ContractID, n.Name, n.Symbol, n.Standard).Scan(&n.ID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("creating nft collection for contract %d: %w", n.ContractID, err)
	}
	existing, err := s.NftCollectionByContract(ctx, n.ContractID)
	if err != nil {
		return false, err
	}
	*n = *existing
	return false, nil
}

func (s *PostgresStore) NftCollectionByContract(ctx context.Context, contractID int64) (*NftCollection, error) {
	var n NftCollection
	err := s.db.QueryRowContext(ctx,
		`SELECT id, contract_id, name, symbol, standard FROM nft_collections WHERE contract_id = $1`, contractID,
	).Scan(&n.ID, &n.ContractID, &n.Name, &n.Symbol, &n.Standard)
	if err != nil {
		return nil, notFound(err, "nft collection for contract %d", contractID)
	}
	return &n, nil
}

// --- helpers ---

func notFound(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func mustAffect(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return nil
}

// encodeMeta returns a string so lib/pq sends text rather than bytea.
func encodeMeta(m Meta) (any, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding meta: %w", err)
	}
	return string(data), nil
}

func encodeMetas(params, meta Meta) (any, any, error) {
	p, err := encodeMeta(params)
	if err != nil {
		return nil, nil, err
	}
	m, err := encodeMeta(meta)
	if err != nil {
		return nil, nil, err
	}
	return p, m, nil
}

func decodeMeta(data []byte) (Meta, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
