package token

import "github.com/cockroachdb/errors"

// Token Program binding errors
var (
	// ErrInvalidAccountData indicates the account data is malformed.
	ErrInvalidAccountData = errors.New("token: invalid account data")

	// ErrInvalidInstructionData indicates the instruction data is malformed.
	ErrInvalidInstructionData = errors.New("token: invalid instruction data")

	// ErrInvalidAccountOwner indicates the account is not owned by a token program.
	ErrInvalidAccountOwner = errors.New("token: invalid account owner")

	// ErrNotInitialized indicates the account is not initialized.
	ErrNotInitialized = errors.New("token: not initialized")

	// ErrInvalidNumberOfAccounts indicates an incorrect number of multisig signers.
	ErrInvalidNumberOfAccounts = errors.New("token: invalid number of accounts")
)
