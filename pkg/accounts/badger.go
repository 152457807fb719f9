package accounts

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/sava-software/anchor-programs-sub010/pkg/log"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

const (
	// accountKeyPrefix is the prefix for account keys in BadgerDB.
	accountKeyPrefix = "account:"
	// ownerKeyPrefix prefixes the owner index: owner:<owner><pubkey>.
	ownerKeyPrefix = "owner:"
)

// BadgerDB is a persistent Store backed by BadgerDB. Besides the accounts it
// keeps an owner index so program scans do not read unrelated accounts.
type BadgerDB struct {
	db    *badger.DB
	count atomic.Uint64
}

// badgerLogger routes badger's internal logging through zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

// NewBadgerDB opens (or creates) a BadgerDB account store at path.
func NewBadgerDB(path string) (*BadgerDB, error) {
	return openBadger(badger.DefaultOptions(path))
}

// NewInMemoryBadgerDB opens a BadgerDB store that lives only in memory.
func NewInMemoryBadgerDB() (*BadgerDB, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (*BadgerDB, error) {
	logger := log.Named("accounts")
	opts.Logger = badgerLogger{logger.Named("badger").Sugar()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger db")
	}

	bdb := &BadgerDB{
		db: db,
	}

	// Count existing accounts
	count, err := bdb.countAccounts()
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to count accounts")
	}
	bdb.count.Store(count)

	logger.Debug("opened account store",
		zap.String("dir", opts.Dir),
		zap.Bool("in_memory", opts.InMemory),
		zap.Uint64("accounts", count),
	)
	return bdb, nil
}

// makeAccountKey creates the key for an account.
func makeAccountKey(pubkey types.Pubkey) []byte {
	key := make([]byte, len(accountKeyPrefix)+32)
	copy(key, accountKeyPrefix)
	copy(key[len(accountKeyPrefix):], pubkey[:])
	return key
}

func makeOwnerPrefix(owner types.Pubkey) []byte {
	key := make([]byte, len(ownerKeyPrefix)+32, len(ownerKeyPrefix)+64)
	copy(key, ownerKeyPrefix)
	copy(key[len(ownerKeyPrefix):], owner[:])
	return key
}

func makeOwnerKey(owner, pubkey types.Pubkey) []byte {
	return append(makeOwnerPrefix(owner), pubkey[:]...)
}

func getAccount(txn *badger.Txn, key []byte) (*types.Account, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var account *types.Account
	err = item.Value(func(val []byte) error {
		var deserErr error
		account, deserErr = DeserializeAccount(val)
		return deserErr
	})
	return account, err
}

// GetAccount retrieves an account by pubkey.
// Returns nil, nil if account does not exist.
func (db *BadgerDB) GetAccount(pubkey types.Pubkey) (*types.Account, error) {
	var account *types.Account
	err := db.db.View(func(txn *badger.Txn) error {
		var err error
		account, err = getAccount(txn, makeAccountKey(pubkey))
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get account %s", pubkey)
	}
	return account, nil
}

// SetAccount stores an account and updates the owner index.
func (db *BadgerDB) SetAccount(pubkey types.Pubkey, account *types.Account) error {
	key := makeAccountKey(pubkey)

	data, err := SerializeAccount(account)
	if err != nil {
		return errors.Wrap(err, "failed to serialize account")
	}

	isNew := false
	err = db.db.Update(func(txn *badger.Txn) error {
		prev, err := getAccount(txn, key)
		if err != nil {
			return err
		}
		isNew = prev == nil
		if prev != nil && prev.Owner != account.Owner {
			if err := txn.Delete(makeOwnerKey(prev.Owner, pubkey)); err != nil {
				return err
			}
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(makeOwnerKey(account.Owner, pubkey), nil)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to set account %s", pubkey)
	}

	if isNew {
		db.count.Add(1)
	}
	return nil
}

// DeleteAccount removes an account.
func (db *BadgerDB) DeleteAccount(pubkey types.Pubkey) error {
	key := makeAccountKey(pubkey)

	deleted := false
	err := db.db.Update(func(txn *badger.Txn) error {
		prev, err := getAccount(txn, key)
		if err != nil || prev == nil {
			return err // nil when already deleted
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		deleted = true
		return txn.Delete(makeOwnerKey(prev.Owner, pubkey))
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete account %s", pubkey)
	}

	if deleted {
		db.count.Add(^uint64(0)) // Decrement by 1
	}
	return nil
}

// HasAccount returns true if the account exists.
func (db *BadgerDB) HasAccount(pubkey types.Pubkey) bool {
	key := makeAccountKey(pubkey)
	var exists bool

	_ = db.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		exists = err == nil
		return nil
	})

	return exists
}

// GetAccountsCount returns the total number of accounts.
func (db *BadgerDB) GetAccountsCount() uint64 {
	return db.count.Load()
}

// ForEachOwned walks the owner index. Keys sort by pubkey within an owner.
func (db *BadgerDB) ForEachOwned(owner types.Pubkey, fn func(types.Pubkey, *types.Account) error) error {
	prefix := makeOwnerPrefix(owner)
	return db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // index entries carry no value
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			pubkey, err := types.PubkeyFromBytes(it.Item().Key()[len(prefix):])
			if err != nil {
				return errors.Wrap(err, "corrupt owner index")
			}
			account, err := getAccount(txn, makeAccountKey(pubkey))
			if err != nil {
				return err
			}
			if account == nil {
				continue
			}
			if err := fn(pubkey, account); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (db *BadgerDB) Close() error {
	return db.db.Close()
}

// countAccounts counts all accounts in the database.
func (db *BadgerDB) countAccounts() (uint64, error) {
	var count uint64
	prefix := []byte(accountKeyPrefix)

	err := db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Only need keys for counting
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// Ensure BadgerDB implements Store.
var _ Store = (*BadgerDB)(nil)
