package accounts

import (
	"bytes"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// MemoryDB is an in-memory Store, used by tests and one-shot CLI runs.
// Accounts are held as encoded records, the same bytes BadgerDB persists,
// so callers never share memory with the store.
type MemoryDB struct {
	mu      sync.RWMutex
	records map[types.Pubkey][]byte
	owners  map[types.Pubkey]map[types.Pubkey]struct{}
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		records: make(map[types.Pubkey][]byte),
		owners:  make(map[types.Pubkey]map[types.Pubkey]struct{}),
	}
}

func (db *MemoryDB) GetAccount(pubkey types.Pubkey) (*types.Account, error) {
	db.mu.RLock()
	rec, ok := db.records[pubkey]
	db.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return DeserializeAccount(rec)
}

func (db *MemoryDB) SetAccount(pubkey types.Pubkey, account *types.Account) error {
	rec, err := SerializeAccount(account)
	if err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.unindex(pubkey)
	db.records[pubkey] = rec
	owned := db.owners[account.Owner]
	if owned == nil {
		owned = make(map[types.Pubkey]struct{})
		db.owners[account.Owner] = owned
	}
	owned[pubkey] = struct{}{}
	return nil
}

// unindex drops pubkey from its current owner's index. Callers hold mu.
func (db *MemoryDB) unindex(pubkey types.Pubkey) {
	rec, ok := db.records[pubkey]
	if !ok {
		return
	}
	var owner types.Pubkey
	if prev, err := DeserializeAccount(rec); err == nil {
		owner = prev.Owner
	}
	delete(db.owners[owner], pubkey)
	if len(db.owners[owner]) == 0 {
		delete(db.owners, owner)
	}
}

func (db *MemoryDB) DeleteAccount(pubkey types.Pubkey) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.unindex(pubkey)
	delete(db.records, pubkey)
	return nil
}

func (db *MemoryDB) HasAccount(pubkey types.Pubkey) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.records[pubkey]
	return ok
}

func (db *MemoryDB) GetAccountsCount() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return uint64(len(db.records))
}

// ForEachOwned walks a snapshot of owner's accounts in pubkey order; fn
// may modify the store.
func (db *MemoryDB) ForEachOwned(owner types.Pubkey, fn func(types.Pubkey, *types.Account) error) error {
	db.mu.RLock()
	keys := make([]types.Pubkey, 0, len(db.owners[owner]))
	for pk := range db.owners[owner] {
		keys = append(keys, pk)
	}
	slices.SortFunc(keys, func(a, b types.Pubkey) int { return bytes.Compare(a[:], b[:]) })
	recs := make([][]byte, len(keys))
	for i, pk := range keys {
		recs[i] = db.records[pk]
	}
	db.mu.RUnlock()

	for i, pk := range keys {
		account, err := DeserializeAccount(recs[i])
		if err != nil {
			return errors.Wrapf(err, "account %s", pk)
		}
		if err := fn(pk, account); err != nil {
			return err
		}
	}
	return nil
}

func (db *MemoryDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	clear(db.records)
	clear(db.owners)
	return nil
}

var _ Store = (*MemoryDB)(nil)
