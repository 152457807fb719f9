// Package accounts stores program-owned account blobs and scans them back
// into typed records through a program's account registry.
package accounts

import (
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Store defines the interface for account storage.
type Store interface {
	// GetAccount retrieves an account by pubkey.
	// Returns nil, nil if account does not exist.
	GetAccount(pubkey types.Pubkey) (*types.Account, error)

	// SetAccount stores an account.
	SetAccount(pubkey types.Pubkey, account *types.Account) error

	// DeleteAccount removes an account.
	DeleteAccount(pubkey types.Pubkey) error

	// HasAccount returns true if the account exists.
	HasAccount(pubkey types.Pubkey) bool

	// GetAccountsCount returns the total number of accounts.
	GetAccountsCount() uint64

	// ForEachOwned calls fn for every account owned by owner, in pubkey
	// order. Returning an error from fn stops the iteration.
	ForEachOwned(owner types.Pubkey, fn func(pubkey types.Pubkey, account *types.Account) error) error

	// Close closes the store.
	Close() error
}
