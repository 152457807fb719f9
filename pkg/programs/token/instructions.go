package token

import (
	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Token Program instruction ordinals (first byte of instruction data)
const (
	InstructionInitializeMint uint8 = iota
	InstructionInitializeAccount
	InstructionInitializeMultisig
	InstructionTransfer
	InstructionApprove
	InstructionRevoke
	InstructionSetAuthority
	InstructionMintTo
	InstructionBurn
	InstructionCloseAccount
	InstructionFreezeAccount
	InstructionThawAccount
	InstructionTransferChecked
	InstructionApproveChecked
	InstructionMintToChecked
	InstructionBurnChecked
	InstructionInitializeAccount2
	InstructionSyncNative
	InstructionInitializeAccount3
	InstructionInitializeMultisig2
	InstructionInitializeMint2
	InstructionGetAccountDataSize
	InstructionInitializeImmutableOwner
	InstructionAmountToUiAmount
)

// AuthorityType selects the authority changed by SetAuthority.
type AuthorityType uint8

const (
	AuthorityTypeMintTokens AuthorityType = iota
	AuthorityTypeFreezeAccount
	AuthorityTypeAccountOwner
	AuthorityTypeCloseAccount

	authorityTypeCount = iota
)

func (a AuthorityType) String() string {
	switch a {
	case AuthorityTypeMintTokens:
		return "MintTokens"
	case AuthorityTypeFreezeAccount:
		return "FreezeAccount"
	case AuthorityTypeAccountOwner:
		return "AccountOwner"
	case AuthorityTypeCloseAccount:
		return "CloseAccount"
	}
	return "Unknown"
}

// Instruction is a decoded Token Program instruction. The set of
// implementations is closed.
type Instruction interface {
	borsh.Variant
	isTokenInstruction()
}

// InitializeMint initializes a new mint.
// Accounts:
//
//	[0] mint (writable)
//	[1] rent sysvar
type InitializeMint struct {
	Decimals        uint8         // Number of decimal places
	MintAuthority   types.Pubkey  // Authority to mint tokens
	FreezeAuthority *types.Pubkey // Optional authority to freeze accounts
}

func (InitializeMint) Ordinal() uint8 { return InstructionInitializeMint }

func (i InitializeMint) PayloadLen() int {
	return borsh.Uint8Size + borsh.PubkeySize + optionalPubkeyLen(i.FreezeAuthority)
}

func (i InitializeMint) MarshalPayload(w *borsh.Writer) error {
	if err := w.WriteUint8(i.Decimals); err != nil {
		return err
	}
	if err := w.WritePublicKey(i.MintAuthority); err != nil {
		return err
	}
	return borsh.WriteOptional(w, i.FreezeAuthority, (*borsh.Writer).WritePublicKey)
}

func (i *InitializeMint) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if i.Decimals, err = r.ReadUint8(); err != nil {
		return err
	}
	if i.MintAuthority, err = r.ReadPublicKey(); err != nil {
		return err
	}
	i.FreezeAuthority, err = borsh.ReadOptional(r, (*borsh.Reader).ReadPublicKey)
	return err
}

// InitializeMint2 is InitializeMint without the rent sysvar account.
type InitializeMint2 struct {
	InitializeMint
}

func (InitializeMint2) Ordinal() uint8 { return InstructionInitializeMint2 }

// InitializeAccount initializes a token account.
// Accounts:
//
//	[0] account (writable)
//	[1] mint
//	[2] owner
//	[3] rent sysvar
type InitializeAccount struct{}

func (InitializeAccount) Ordinal() uint8 { return InstructionInitializeAccount }

// InitializeAccount2 takes the owner as data instead of an account.
type InitializeAccount2 struct {
	Owner types.Pubkey
}

func (InitializeAccount2) Ordinal() uint8 { return InstructionInitializeAccount2 }

func (InitializeAccount2) PayloadLen() int { return borsh.PubkeySize }

func (i InitializeAccount2) MarshalPayload(w *borsh.Writer) error { return w.WritePublicKey(i.Owner) }

// InitializeAccount3 is InitializeAccount2 without the rent sysvar account.
type InitializeAccount3 struct {
	Owner types.Pubkey
}

func (InitializeAccount3) Ordinal() uint8 { return InstructionInitializeAccount3 }

func (InitializeAccount3) PayloadLen() int { return borsh.PubkeySize }

func (i InitializeAccount3) MarshalPayload(w *borsh.Writer) error { return w.WritePublicKey(i.Owner) }

// InitializeMultisig initializes an M-of-N multisig.
// Accounts:
//
//	[0] multisig (writable)
//	[1] rent sysvar
//	[2..] signer accounts
type InitializeMultisig struct {
	M uint8 // Number of signers required (threshold)
}

func (InitializeMultisig) Ordinal() uint8 { return InstructionInitializeMultisig }

func (InitializeMultisig) PayloadLen() int { return borsh.Uint8Size }

func (i InitializeMultisig) MarshalPayload(w *borsh.Writer) error { return w.WriteUint8(i.M) }

// InitializeMultisig2 is InitializeMultisig without the rent sysvar account.
type InitializeMultisig2 struct {
	M uint8
}

func (InitializeMultisig2) Ordinal() uint8 { return InstructionInitializeMultisig2 }

func (InitializeMultisig2) PayloadLen() int { return borsh.Uint8Size }

func (i InitializeMultisig2) MarshalPayload(w *borsh.Writer) error { return w.WriteUint8(i.M) }

// Transfer moves tokens between accounts.
// Accounts:
//
//	[0] source (writable)
//	[1] destination (writable)
//	[2] authority (signer) - owner or delegate
type Transfer struct {
	Amount uint64
}

func (Transfer) Ordinal() uint8 { return InstructionTransfer }

// Approve sets a delegate.
type Approve struct {
	Amount uint64 // Maximum amount the delegate may transfer
}

func (Approve) Ordinal() uint8 { return InstructionApprove }

// Revoke clears the delegate.
type Revoke struct{}

func (Revoke) Ordinal() uint8 { return InstructionRevoke }

// SetAuthority changes or clears an authority of a mint or account.
// Accounts:
//
//	[0] account (writable) - mint or token account
//	[1] current_authority (signer)
type SetAuthority struct {
	AuthorityType AuthorityType
	NewAuthority  *types.Pubkey // nil removes the authority
}

func (SetAuthority) Ordinal() uint8 { return InstructionSetAuthority }

func (i SetAuthority) PayloadLen() int {
	return borsh.Uint8Size + optionalPubkeyLen(i.NewAuthority)
}

func (i SetAuthority) MarshalPayload(w *borsh.Writer) error {
	if err := borsh.WriteEnum(w, i.AuthorityType); err != nil {
		return err
	}
	return borsh.WriteOptional(w, i.NewAuthority, (*borsh.Writer).WritePublicKey)
}

func (i *SetAuthority) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if i.AuthorityType, err = borsh.ReadEnum[AuthorityType](r, "AuthorityType", authorityTypeCount); err != nil {
		return err
	}
	i.NewAuthority, err = borsh.ReadOptional(r, (*borsh.Reader).ReadPublicKey)
	return err
}

// MintTo mints new tokens to an account.
type MintTo struct {
	Amount uint64
}

func (MintTo) Ordinal() uint8 { return InstructionMintTo }

// Burn destroys tokens.
type Burn struct {
	Amount uint64
}

func (Burn) Ordinal() uint8 { return InstructionBurn }

// CloseAccount closes a token account with a zero balance.
type CloseAccount struct{}

func (CloseAccount) Ordinal() uint8 { return InstructionCloseAccount }

// FreezeAccount freezes a token account.
type FreezeAccount struct{}

func (FreezeAccount) Ordinal() uint8 { return InstructionFreezeAccount }

// ThawAccount thaws a frozen token account.
type ThawAccount struct{}

func (ThawAccount) Ordinal() uint8 { return InstructionThawAccount }

// TransferChecked is Transfer that also asserts the mint and its decimals.
// Accounts:
//
//	[0] source (writable)
//	[1] mint
//	[2] destination (writable)
//	[3] authority (signer)
type TransferChecked struct {
	Amount   uint64
	Decimals uint8
}

func (TransferChecked) Ordinal() uint8 { return InstructionTransferChecked }

// ApproveChecked is Approve that also asserts the mint and its decimals.
type ApproveChecked struct {
	Amount   uint64
	Decimals uint8
}

func (ApproveChecked) Ordinal() uint8 { return InstructionApproveChecked }

// MintToChecked is MintTo that also asserts the decimals.
type MintToChecked struct {
	Amount   uint64
	Decimals uint8
}

func (MintToChecked) Ordinal() uint8 { return InstructionMintToChecked }

// BurnChecked is Burn that also asserts the decimals.
type BurnChecked struct {
	Amount   uint64
	Decimals uint8
}

func (BurnChecked) Ordinal() uint8 { return InstructionBurnChecked }

// SyncNative updates a wrapped SOL account's amount from its lamports.
type SyncNative struct{}

func (SyncNative) Ordinal() uint8 { return InstructionSyncNative }

// GetAccountDataSize returns the account size needed for a mint through
// return data.
type GetAccountDataSize struct{}

func (GetAccountDataSize) Ordinal() uint8 { return InstructionGetAccountDataSize }

// InitializeImmutableOwner marks a token account's owner as immutable.
type InitializeImmutableOwner struct{}

func (InitializeImmutableOwner) Ordinal() uint8 { return InstructionInitializeImmutableOwner }

// AmountToUiAmount converts a raw amount to its UI string through return
// data.
type AmountToUiAmount struct {
	Amount uint64
}

func (AmountToUiAmount) Ordinal() uint8 { return InstructionAmountToUiAmount }

// Payload shapes shared by several instructions.

func (InitializeAccount) PayloadLen() int        { return 0 }
func (Revoke) PayloadLen() int                   { return 0 }
func (CloseAccount) PayloadLen() int             { return 0 }
func (FreezeAccount) PayloadLen() int            { return 0 }
func (ThawAccount) PayloadLen() int              { return 0 }
func (SyncNative) PayloadLen() int               { return 0 }
func (GetAccountDataSize) PayloadLen() int       { return 0 }
func (InitializeImmutableOwner) PayloadLen() int { return 0 }

func (InitializeAccount) MarshalPayload(*borsh.Writer) error        { return nil }
func (Revoke) MarshalPayload(*borsh.Writer) error                   { return nil }
func (CloseAccount) MarshalPayload(*borsh.Writer) error             { return nil }
func (FreezeAccount) MarshalPayload(*borsh.Writer) error            { return nil }
func (ThawAccount) MarshalPayload(*borsh.Writer) error              { return nil }
func (SyncNative) MarshalPayload(*borsh.Writer) error               { return nil }
func (GetAccountDataSize) MarshalPayload(*borsh.Writer) error       { return nil }
func (InitializeImmutableOwner) MarshalPayload(*borsh.Writer) error { return nil }

func (Transfer) PayloadLen() int         { return borsh.Uint64Size }
func (Approve) PayloadLen() int          { return borsh.Uint64Size }
func (MintTo) PayloadLen() int           { return borsh.Uint64Size }
func (Burn) PayloadLen() int             { return borsh.Uint64Size }
func (AmountToUiAmount) PayloadLen() int { return borsh.Uint64Size }

func (i Transfer) MarshalPayload(w *borsh.Writer) error         { return w.WriteUint64(i.Amount) }
func (i Approve) MarshalPayload(w *borsh.Writer) error          { return w.WriteUint64(i.Amount) }
func (i MintTo) MarshalPayload(w *borsh.Writer) error           { return w.WriteUint64(i.Amount) }
func (i Burn) MarshalPayload(w *borsh.Writer) error             { return w.WriteUint64(i.Amount) }
func (i AmountToUiAmount) MarshalPayload(w *borsh.Writer) error { return w.WriteUint64(i.Amount) }

func (TransferChecked) PayloadLen() int { return checkedLen }
func (ApproveChecked) PayloadLen() int  { return checkedLen }
func (MintToChecked) PayloadLen() int   { return checkedLen }
func (BurnChecked) PayloadLen() int     { return checkedLen }

func (i TransferChecked) MarshalPayload(w *borsh.Writer) error {
	return writeChecked(w, i.Amount, i.Decimals)
}

func (i ApproveChecked) MarshalPayload(w *borsh.Writer) error {
	return writeChecked(w, i.Amount, i.Decimals)
}

func (i MintToChecked) MarshalPayload(w *borsh.Writer) error {
	return writeChecked(w, i.Amount, i.Decimals)
}

func (i BurnChecked) MarshalPayload(w *borsh.Writer) error {
	return writeChecked(w, i.Amount, i.Decimals)
}

func (InitializeMint) isTokenInstruction()           {}
func (InitializeAccount) isTokenInstruction()        {}
func (InitializeAccount2) isTokenInstruction()       {}
func (InitializeAccount3) isTokenInstruction()       {}
func (InitializeMultisig) isTokenInstruction()       {}
func (InitializeMultisig2) isTokenInstruction()      {}
func (Transfer) isTokenInstruction()                 {}
func (Approve) isTokenInstruction()                  {}
func (Revoke) isTokenInstruction()                   {}
func (SetAuthority) isTokenInstruction()             {}
func (MintTo) isTokenInstruction()                   {}
func (Burn) isTokenInstruction()                     {}
func (CloseAccount) isTokenInstruction()             {}
func (FreezeAccount) isTokenInstruction()            {}
func (ThawAccount) isTokenInstruction()              {}
func (TransferChecked) isTokenInstruction()          {}
func (ApproveChecked) isTokenInstruction()           {}
func (MintToChecked) isTokenInstruction()            {}
func (BurnChecked) isTokenInstruction()              {}
func (SyncNative) isTokenInstruction()               {}
func (GetAccountDataSize) isTokenInstruction()       {}
func (InitializeImmutableOwner) isTokenInstruction() {}
func (AmountToUiAmount) isTokenInstruction()         {}

const checkedLen = borsh.Uint64Size + borsh.Uint8Size

func writeChecked(w *borsh.Writer, amount uint64, decimals uint8) error {
	if err := w.WriteUint64(amount); err != nil {
		return err
	}
	return w.WriteUint8(decimals)
}

func optionalPubkeyLen(pk *types.Pubkey) int {
	return borsh.OptionalLen(pk, borsh.Fixed[types.Pubkey](borsh.PubkeySize))
}

func readAmount(wrap func(uint64) Instruction) func(*borsh.Reader) (Instruction, error) {
	return func(r *borsh.Reader) (Instruction, error) {
		amount, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}
		return wrap(amount), nil
	}
}

func readChecked(wrap func(uint64, uint8) Instruction) func(*borsh.Reader) (Instruction, error) {
	return func(r *borsh.Reader) (Instruction, error) {
		amount, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}
		decimals, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		return wrap(amount, decimals), nil
	}
}

func readOwner(wrap func(types.Pubkey) Instruction) func(*borsh.Reader) (Instruction, error) {
	return func(r *borsh.Reader) (Instruction, error) {
		owner, err := r.ReadPublicKey()
		if err != nil {
			return nil, err
		}
		return wrap(owner), nil
	}
}

func readThreshold(wrap func(uint8) Instruction) func(*borsh.Reader) (Instruction, error) {
	return func(r *borsh.Reader) (Instruction, error) {
		m, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		return wrap(m), nil
	}
}

// Instructions is the ordinal table of the Token Program. UiAmountToAmount
// (24) carries an unprefixed string that cannot be framed without the
// instruction length and is not part of the table.
var Instructions = borsh.NewUnion[Instruction]("TokenInstruction",
	borsh.Payload[Instruction, InitializeMint](func(v InitializeMint) Instruction { return v }),
	borsh.Unit[Instruction](InitializeAccount{}),
	readThreshold(func(m uint8) Instruction { return InitializeMultisig{M: m} }),
	readAmount(func(a uint64) Instruction { return Transfer{Amount: a} }),
	readAmount(func(a uint64) Instruction { return Approve{Amount: a} }),
	borsh.Unit[Instruction](Revoke{}),
	borsh.Payload[Instruction, SetAuthority](func(v SetAuthority) Instruction { return v }),
	readAmount(func(a uint64) Instruction { return MintTo{Amount: a} }),
	readAmount(func(a uint64) Instruction { return Burn{Amount: a} }),
	borsh.Unit[Instruction](CloseAccount{}),
	borsh.Unit[Instruction](FreezeAccount{}),
	borsh.Unit[Instruction](ThawAccount{}),
	readChecked(func(a uint64, d uint8) Instruction { return TransferChecked{Amount: a, Decimals: d} }),
	readChecked(func(a uint64, d uint8) Instruction { return ApproveChecked{Amount: a, Decimals: d} }),
	readChecked(func(a uint64, d uint8) Instruction { return MintToChecked{Amount: a, Decimals: d} }),
	readChecked(func(a uint64, d uint8) Instruction { return BurnChecked{Amount: a, Decimals: d} }),
	readOwner(func(o types.Pubkey) Instruction { return InitializeAccount2{Owner: o} }),
	borsh.Unit[Instruction](SyncNative{}),
	readOwner(func(o types.Pubkey) Instruction { return InitializeAccount3{Owner: o} }),
	readThreshold(func(m uint8) Instruction { return InitializeMultisig2{M: m} }),
	borsh.Payload[Instruction, InitializeMint](func(v InitializeMint) Instruction { return InitializeMint2{v} }),
	borsh.Unit[Instruction](GetAccountDataSize{}),
	borsh.Unit[Instruction](InitializeImmutableOwner{}),
	readAmount(func(a uint64) Instruction { return AmountToUiAmount{Amount: a} }),
)
