package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	dataFile = "hhbridge.json"
	lockFile = "hhbridge.json.lock"
)

// document is the on-disk layout of a FileStore.
type document struct {
	NextID         map[string]int64 `json:"next_id"`
	Blockchains    []Blockchain     `json:"blockchains"`
	Wallets        []Wallet         `json:"wallets"`
	Transactions   []Transaction    `json:"transactions"`
	Contracts      []Contract       `json:"contracts"`
	Tokens         []Token          `json:"tokens"`
	NftCollections []NftCollection  `json:"nft_collections"`
}

func (d *document) nextID(table string) int64 {
	if d.NextID == nil {
		d.NextID = make(map[string]int64)
	}
	d.NextID[table]++
	return d.NextID[table]
}

// FileStore keeps every table in one JSON document. The document is re-read
// before each operation so separate processes (a CLI command and a worker)
// see each other's writes; an advisory file lock serialises them. A memory
// store keeps the encoded document in a byte slice so returned rows never
// alias stored ones.
type FileStore struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
	mem  []byte
	now  func() time.Time
}

// NewFileStore opens (or creates) the store under dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create store dir: %w", err)
	}
	s := &FileStore{
		path: filepath.Join(dir, dataFile),
		lock: flock.New(filepath.Join(dir, lockFile)),
		now:  time.Now,
	}
	if err := s.view(func(*document) error { return nil }); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemoryStore returns a FileStore that never touches disk.
func NewMemoryStore() *FileStore {
	return &FileStore{now: time.Now}
}

// Path returns the backing file, or "" for a memory store.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() (*document, error) {
	if s.path == "" {
		doc := &document{}
		if len(s.mem) == 0 {
			return doc, nil
		}
		return doc, json.Unmarshal(s.mem, doc)
	}
	doc, err := loadJSON[document](s.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return doc, nil
}

// acquire takes the in-process mutex and, for an on-disk store, the file
// lock. The returned func releases both.
func (s *FileStore) acquire(shared bool) (func(), error) {
	s.mu.Lock()
	if s.lock == nil {
		return s.mu.Unlock, nil
	}
	lock := s.lock.Lock
	if shared {
		lock = s.lock.RLock
	}
	if err := lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("locking %s: %w", s.lock.Path(), err)
	}
	return func() {
		_ = s.lock.Unlock()
		s.mu.Unlock()
	}, nil
}

func (s *FileStore) view(fn func(*document) error) error {
	release, err := s.acquire(true)
	if err != nil {
		return err
	}
	defer release()
	doc, err := s.load()
	if err != nil {
		return err
	}
	return fn(doc)
}

func (s *FileStore) update(fn func(*document) error) error {
	release, err := s.acquire(false)
	if err != nil {
		return err
	}
	defer release()
	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	if s.path == "" {
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		s.mem = data
		return nil
	}
	return saveJSON(s.path, doc)
}

// --- blockchains ---

func (s *FileStore) UpsertBlockchain(_ context.Context, b *Blockchain) error {
	return s.update(func(d *document) error {
		for i := range d.Blockchains {
			if d.Blockchains[i].ChainID == b.ChainID {
				b.ID = d.Blockchains[i].ID
				d.Blockchains[i] = *b
				return nil
			}
		}
		b.ID = d.nextID("blockchains")
		d.Blockchains = append(d.Blockchains, *b)
		return nil
	})
}

func (s *FileStore) Blockchain(_ context.Context, id int64) (*Blockchain, error) {
	return find(s, func(d *document) []Blockchain { return d.Blockchains },
		func(b Blockchain) bool { return b.ID == id }, "blockchain %d", id)
}

func (s *FileStore) BlockchainByChainID(_ context.Context, chainID int64) (*Blockchain, error) {
	return find(s, func(d *document) []Blockchain { return d.Blockchains },
		func(b Blockchain) bool { return b.ChainID == chainID }, "blockchain with chain id %d", chainID)
}

func (s *FileStore) Blockchains(_ context.Context) ([]Blockchain, error) {
	var out []Blockchain
	err := s.view(func(d *document) error {
		out = append(out, d.Blockchains...)
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out, err
}

// --- wallets ---

func (s *FileStore) CreateWallet(_ context.Context, w *Wallet) error {
	return s.update(func(d *document) error {
		for _, existing := range d.Wallets {
			if NormalizeAddress(existing.Address) == NormalizeAddress(w.Address) {
				return fmt.Errorf("wallet %s already exists (id %d)", w.Address, existing.ID)
			}
		}
		w.ID = d.nextID("wallets")
		if w.CreatedAt.IsZero() {
			w.CreatedAt = s.now().UTC()
		}
		d.Wallets = append(d.Wallets, *w)
		return nil
	})
}

func (s *FileStore) Wallet(_ context.Context, id int64) (*Wallet, error) {
	return find(s, func(d *document) []Wallet { return d.Wallets },
		func(w Wallet) bool { return w.ID == id }, "wallet %d", id)
}

func (s *FileStore) WalletByAddress(_ context.Context, address string) (*Wallet, error) {
	key := NormalizeAddress(address)
	return find(s, func(d *document) []Wallet { return d.Wallets },
		func(w Wallet) bool { return NormalizeAddress(w.Address) == key }, "wallet %s", address)
}

func (s *FileStore) Wallets(_ context.Context) ([]Wallet, error) {
	var out []Wallet
	err := s.view(func(d *document) error {
		out = append(out, d.Wallets...)
		return nil
	})
	return out, err
}

// --- transactions ---

func (s *FileStore) CreateTransaction(_ context.Context, tx *Transaction) error {
	return s.update(func(d *document) error {
		tx.ID = d.nextID("transactions")
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = s.now().UTC()
		}
		d.Transactions = append(d.Transactions, *tx)
		return nil
	})
}

func (s *FileStore) Transaction(_ context.Context, id int64) (*Transaction, error) {
	return find(s, func(d *document) []Transaction { return d.Transactions },
		func(t Transaction) bool { return t.ID == id }, "transaction %d", id)
}

func (s *FileStore) UpdateTransaction(_ context.Context, tx *Transaction) error {
	return s.update(func(d *document) error {
		for i := range d.Transactions {
			if d.Transactions[i].ID == tx.ID {
				d.Transactions[i] = *tx
				return nil
			}
		}
		return fmt.Errorf("transaction %d: %w", tx.ID, ErrNotFound)
	})
}

// --- contracts ---

func (s *FileStore) FirstOrCreateContract(_ context.Context, c *Contract) (bool, error) {
	created := false
	err := s.update(func(d *document) error {
		key := NormalizeAddress(c.Address)
		for _, existing := range d.Contracts {
			if NormalizeAddress(existing.Address) == key {
				*c = existing
				return nil
			}
		}
		c.ID = d.nextID("contracts")
		if c.CreatedAt.IsZero() {
			c.CreatedAt = s.now().UTC()
		}
		d.Contracts = append(d.Contracts, *c)
		created = true
		return nil
	})
	return created, err
}

func (s *FileStore) Contract(_ context.Context, id int64) (*Contract, error) {
	return find(s, func(d *document) []Contract { return d.Contracts },
		func(c Contract) bool { return c.ID == id }, "contract %d", id)
}

func (s *FileStore) ContractByAddress(_ context.Context, address string) (*Contract, error) {
	key := NormalizeAddress(address)
	return find(s, func(d *document) []Contract { return d.Contracts },
		func(c Contract) bool { return NormalizeAddress(c.Address) == key }, "contract %s", address)
}

func (s *FileStore) UpdateContract(_ context.Context, c *Contract) error {
	return s.update(func(d *document) error {
		for i := range d.Contracts {
			if d.Contracts[i].ID == c.ID {
				d.Contracts[i] = *c
				return nil
			}
		}
		return fmt.Errorf("contract %d: %w", c.ID, ErrNotFound)
	})
}

// --- assets ---

func (s *FileStore) FirstOrCreateToken(_ context.Context, t *Token) (bool, error) {
	created := false
	err := s.update(func(d *document) error {
		for _, existing := range d.Tokens {
			if existing.ContractID == t.ContractID {
				*t = existing
				return nil
			}
		}
		t.ID = d.nextID("tokens")
		d.Tokens = append(d.Tokens, *t)
		created = true
		return nil
	})
	return created, err
}

func (s *FileStore) TokenByContract(_ context.Context, contractID int64) (*Token, error) {
	return find(s, func(d *document) []Token { return d.Tokens },
		func(t Token) bool { return t.ContractID == contractID }, "token for contract %d", contractID)
}

func (s *FileStore) FirstOrCreateNftCollection(_ context.Context, n *NftCollection) (bool, error) {
	created := false
	err := s.update(func(d *document) error {
		for _, existing := range d.NftCollections {
			if existing.ContractID == n.ContractID {
				*n = existing
				return nil
			}
		}
		n.ID = d.nextID("nft_collections")
		d.NftCollections = append(d.NftCollections, *n)
		created = true
		return nil
	})
	return created, err
}

func (s *FileStore) NftCollectionByContract(_ context.Context, contractID int64) (*NftCollection, error) {
	return find(s, func(d *document) []NftCollection { return d.NftCollections },
		func(n NftCollection) bool { return n.ContractID == contractID }, "nft collection for contract %d", contractID)
}

// Close is a no-op; every write is flushed immediately.
func (s *FileStore) Close() error {
	if s.lock == nil {
		return nil
	}
	return s.lock.Close()
}

// --- helpers ---

func find[T any](s *FileStore, table func(*document) []T, match func(T) bool, format string, args ...any) (*T, error) {
	var out *T
	err := s.view(func(d *document) error {
		for _, row := range table(d) {
			if match(row) {
				r := row
				out = &r
				return nil
			}
		}
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadJSON[T any](path string) (*T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &zero, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "hhbridge-*.json")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
