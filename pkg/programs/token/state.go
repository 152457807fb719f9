package token

import (
	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/accounts"
	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Account state sizes
const (
	// MintSize is the size of a serialized Mint account (82 bytes)
	MintSize = 82

	// AccountSize is the size of a serialized token Account (165 bytes)
	AccountSize = 165

	// MultisigSize is the size of a serialized Multisig account (355 bytes)
	MultisigSize = 355

	// MaxSigners is the number of signer slots in a Multisig.
	MaxSigners = 11
)

// Mint field offsets
const (
	MintAuthorityOffset   = 0
	SupplyOffset          = 36
	DecimalsOffset        = 44
	IsInitializedOffset   = 45
	FreezeAuthorityOffset = 46
)

// Account field offsets
const (
	AccountMintOffset     = 0
	AccountOwnerOffset    = 32
	AmountOffset          = 64
	DelegateOffset        = 72
	StateOffset           = 108
	IsNativeOffset        = 109
	DelegatedAmountOffset = 121
	CloseAuthorityOffset  = 129
)

// AccountState is the state of a token account.
type AccountState uint8

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen

	accountStateCount = iota
)

func (s AccountState) String() string {
	switch s {
	case AccountStateUninitialized:
		return "uninitialized"
	case AccountStateInitialized:
		return "initialized"
	case AccountStateFrozen:
		return "frozen"
	}
	return "unknown"
}

// Mint represents an SPL Token mint account.
// Layout (82 bytes total):
//   - mint_authority: COption<Pubkey> (36 bytes) - 4 byte tag + 32 byte pubkey
//   - supply: u64 (8 bytes)
//   - decimals: u8 (1 byte)
//   - is_initialized: bool (1 byte)
//   - freeze_authority: COption<Pubkey> (36 bytes)
type Mint struct {
	MintAuthority   *types.Pubkey // Authority to mint new tokens, nil for a fixed supply
	Supply          uint64        // Total supply of tokens
	Decimals        uint8         // Number of decimal places
	IsInitialized   bool          // Whether the mint is initialized
	FreezeAuthority *types.Pubkey // Authority to freeze token accounts
}

func (m Mint) Len() int { return MintSize }

func (m Mint) MarshalBorsh(w *borsh.Writer) error {
	if err := writeCOptionPubkey(w, m.MintAuthority); err != nil {
		return err
	}
	if err := w.WriteUint64(m.Supply); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Decimals); err != nil {
		return err
	}
	if err := w.WriteBool(m.IsInitialized); err != nil {
		return err
	}
	return writeCOptionPubkey(w, m.FreezeAuthority)
}

func (m *Mint) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if m.MintAuthority, err = readCOptionPubkey(r); err != nil {
		return err
	}
	if m.Supply, err = r.ReadUint64(); err != nil {
		return err
	}
	if m.Decimals, err = r.ReadUint8(); err != nil {
		return err
	}
	if m.IsInitialized, err = r.ReadBool(); err != nil {
		return err
	}
	m.FreezeAuthority, err = readCOptionPubkey(r)
	return err
}

// NewMint creates a new initialized Mint with the given parameters.
func NewMint(decimals uint8, mintAuthority *types.Pubkey, freezeAuthority *types.Pubkey) *Mint {
	return &Mint{
		Decimals:        decimals,
		IsInitialized:   true,
		MintAuthority:   mintAuthority,
		FreezeAuthority: freezeAuthority,
	}
}

// Account represents an SPL Token account.
// Layout (165 bytes total):
//   - mint: Pubkey (32 bytes)
//   - owner: Pubkey (32 bytes)
//   - amount: u64 (8 bytes)
//   - delegate: COption<Pubkey> (36 bytes)
//   - state: AccountState (1 byte)
//   - is_native: COption<u64> (12 bytes) - 4 byte tag + 8 byte value
//   - delegated_amount: u64 (8 bytes)
//   - close_authority: COption<Pubkey> (36 bytes)
type Account struct {
	Mint            types.Pubkey  // The mint this account is associated with
	Owner           types.Pubkey  // Owner of this account
	Amount          uint64        // Amount of tokens held
	Delegate        *types.Pubkey // Optional delegate
	State           AccountState  // Account state (Uninitialized, Initialized, Frozen)
	IsNative        *uint64       // If set, this is a wrapped SOL account holding this rent reserve
	DelegatedAmount uint64        // Amount delegated to the delegate
	CloseAuthority  *types.Pubkey // Authority allowed to close this account
}

func (a Account) Len() int { return AccountSize }

func (a Account) MarshalBorsh(w *borsh.Writer) error {
	if err := w.WritePublicKey(a.Mint); err != nil {
		return err
	}
	if err := w.WritePublicKey(a.Owner); err != nil {
		return err
	}
	if err := w.WriteUint64(a.Amount); err != nil {
		return err
	}
	if err := writeCOptionPubkey(w, a.Delegate); err != nil {
		return err
	}
	if err := borsh.WriteEnum(w, a.State); err != nil {
		return err
	}
	if err := borsh.WriteCOption(w, a.IsNative, borsh.Uint64Size, (*borsh.Writer).WriteUint64); err != nil {
		return err
	}
	if err := w.WriteUint64(a.DelegatedAmount); err != nil {
		return err
	}
	return writeCOptionPubkey(w, a.CloseAuthority)
}

func (a *Account) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if a.Mint, err = r.ReadPublicKey(); err != nil {
		return err
	}
	if a.Owner, err = r.ReadPublicKey(); err != nil {
		return err
	}
	if a.Amount, err = r.ReadUint64(); err != nil {
		return err
	}
	if a.Delegate, err = readCOptionPubkey(r); err != nil {
		return err
	}
	if a.State, err = borsh.ReadEnum[AccountState](r, "AccountState", accountStateCount); err != nil {
		return err
	}
	if a.IsNative, err = borsh.ReadCOption(r, borsh.Uint64Size, (*borsh.Reader).ReadUint64); err != nil {
		return err
	}
	if a.DelegatedAmount, err = r.ReadUint64(); err != nil {
		return err
	}
	a.CloseAuthority, err = readCOptionPubkey(r)
	return err
}

// NewAccount creates a new initialized token account.
func NewAccount(mint types.Pubkey, owner types.Pubkey) *Account {
	return &Account{
		Mint:  mint,
		Owner: owner,
		State: AccountStateInitialized,
	}
}

// IsFrozen returns true if the account is frozen.
func (a *Account) IsFrozen() bool {
	return a.State == AccountStateFrozen
}

// IsNativeAccount returns true if this is a wrapped SOL account.
func (a *Account) IsNativeAccount() bool {
	return a.IsNative != nil
}

// Multisig is an M-of-N signer set usable wherever an authority is expected.
// Layout (355 bytes total): m u8, n u8, is_initialized bool, signers [Pubkey; 11].
type Multisig struct {
	M             uint8
	N             uint8
	IsInitialized bool
	Signers       [MaxSigners]types.Pubkey
}

func (m Multisig) Len() int { return MultisigSize }

func (m Multisig) MarshalBorsh(w *borsh.Writer) error {
	if err := w.WriteUint8(m.M); err != nil {
		return err
	}
	if err := w.WriteUint8(m.N); err != nil {
		return err
	}
	if err := w.WriteBool(m.IsInitialized); err != nil {
		return err
	}
	return borsh.WriteArray(w, m.Signers[:], MaxSigners, (*borsh.Writer).WritePublicKey)
}

func (m *Multisig) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if m.M, err = r.ReadUint8(); err != nil {
		return err
	}
	if m.N, err = r.ReadUint8(); err != nil {
		return err
	}
	if m.IsInitialized, err = r.ReadBool(); err != nil {
		return err
	}
	for i := range m.Signers {
		if m.Signers[i], err = r.ReadPublicKey(); err != nil {
			return err
		}
	}
	return nil
}

// ActiveSigners returns the first N signers.
func (m *Multisig) ActiveSigners() []types.Pubkey {
	n := min(int(m.N), MaxSigners)
	return m.Signers[:n]
}

func writeCOptionPubkey(w *borsh.Writer, pk *types.Pubkey) error {
	return borsh.WriteCOption(w, pk, borsh.PubkeySize, (*borsh.Writer).WritePublicKey)
}

func readCOptionPubkey(r *borsh.Reader) (*types.Pubkey, error) {
	return borsh.ReadCOption(r, borsh.PubkeySize, (*borsh.Reader).ReadPublicKey)
}

// decodeState decodes a fixed-size state record. Token-2022 accounts may
// carry extensions past the base layout; only the base layout is read.
func decodeState(data []byte, size int, kind string, v borsh.Unmarshaler) error {
	if len(data) < size {
		return errors.Wrapf(ErrInvalidAccountData, "%s data too short, expected %d bytes, got %d", kind, size, len(data))
	}
	if err := borsh.Unmarshal(data[:size], v); err != nil {
		return errors.Mark(errors.Wrapf(err, "decode %s", kind), ErrInvalidAccountData)
	}
	return nil
}

// DeserializeMint deserializes a Mint from bytes.
func DeserializeMint(data []byte) (*Mint, error) {
	mint := new(Mint)
	if err := decodeState(data, MintSize, "mint", mint); err != nil {
		return nil, err
	}
	return mint, nil
}

// DeserializeAccount deserializes a token Account from bytes.
func DeserializeAccount(data []byte) (*Account, error) {
	account := new(Account)
	if err := decodeState(data, AccountSize, "token account", account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeserializeMultisig deserializes a Multisig from bytes.
func DeserializeMultisig(data []byte) (*Multisig, error) {
	ms := new(Multisig)
	if err := decodeState(data, MultisigSize, "multisig", ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// LoadMint decodes a mint from an account owned by either token program.
func LoadMint(account *types.Account) (*Mint, error) {
	if err := checkOwner(account); err != nil {
		return nil, err
	}
	mint, err := DeserializeMint(account.Data)
	if err != nil {
		return nil, err
	}
	if !mint.IsInitialized {
		return nil, ErrNotInitialized
	}
	return mint, nil
}

// LoadAccount decodes a token account from an account owned by either
// token program.
func LoadAccount(account *types.Account) (*Account, error) {
	if err := checkOwner(account); err != nil {
		return nil, err
	}
	ta, err := DeserializeAccount(account.Data)
	if err != nil {
		return nil, err
	}
	if ta.State == AccountStateUninitialized {
		return nil, ErrNotInitialized
	}
	return ta, nil
}

func checkOwner(account *types.Account) error {
	if account == nil {
		return errors.Wrap(ErrInvalidAccountData, "nil account")
	}
	if !account.OwnedBy(types.TokenProgramID, types.Token2022ProgramID) {
		return errors.Wrapf(ErrInvalidAccountOwner, "owner %s", account.Owner)
	}
	return nil
}

// MintFilter selects token accounts of one mint.
func MintFilter(mint types.Pubkey) accounts.Filter {
	return accounts.NewPubkeyFilter(AccountMintOffset, mint)
}

// OwnerFilter selects token accounts of one owner.
func OwnerFilter(owner types.Pubkey) accounts.Filter {
	return accounts.NewPubkeyFilter(AccountOwnerOffset, owner)
}

// AccountSizeFilter selects base-layout token accounts.
func AccountSizeFilter() accounts.Filter {
	return accounts.NewDataSizeFilter(AccountSize)
}
