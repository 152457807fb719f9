package types

import "slices"

// Lamports represents a lamport amount (1 SOL = 1_000_000_000 lamports).
type Lamports uint64

// Epoch represents an epoch number.
type Epoch uint64

// Account is an on-chain account blob together with its owning program.
// Data is opaque here; program bindings decode it through the borsh codec.
type Account struct {
	Lamports   Lamports
	Data       []byte
	Owner      Pubkey
	Executable bool
	RentEpoch  Epoch // deprecated on-chain, kept for stored records
}

// NewAccountWithData returns a non-executable account holding data.
func NewAccountWithData(lamports Lamports, data []byte, owner Pubkey) *Account {
	return &Account{Lamports: lamports, Data: data, Owner: owner}
}

// OwnedBy reports whether one of programs owns the account.
func (a *Account) OwnedBy(programs ...Pubkey) bool {
	return a != nil && slices.Contains(programs, a.Owner)
}

// Rent parameters (mainnet values).
const (
	rentLamportsPerByteYear = 3480
	rentExemptionYears      = 2
	// AccountStorageOverhead is charged on top of the data length.
	AccountStorageOverhead = 128
)

// RentExemptMinimum is the balance an account holding dataSize bytes needs
// to be exempt from rent.
func RentExemptMinimum(dataSize uint64) Lamports {
	return Lamports((dataSize + AccountStorageOverhead) * rentLamportsPerByteYear * rentExemptionYears)
}
