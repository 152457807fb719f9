package merkle

import (
	"encoding/binary"
	"math/big"

	"github.com/sava-software/anchor-programs-sub010/pkg/accounts"
	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/discriminator"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Account sizes, including the 8-byte discriminator.
const (
	ClaimStatusSize       = 160
	MerkleDistributorSize = 448
)

var (
	ClaimStatusDiscriminator       = discriminator.Account("ClaimStatus")
	MerkleDistributorDiscriminator = discriminator.Account("MerkleDistributor")
)

// ClaimStatus field offsets
const (
	ClaimStatusAdminOffset                 = 8
	ClaimStatusDistributorOffset           = 40
	ClaimStatusClaimantOffset              = 72
	ClaimStatusLockedAmountOffset          = 104
	ClaimStatusLockedAmountWithdrawnOffset = 112
	ClaimStatusUnlockedAmountOffset        = 120
	ClaimStatusBonusAmountOffset           = 128
	ClaimStatusClosableOffset              = 136
	ClaimStatusPadding0Offset              = 137
	ClaimStatusPadding1Offset              = 144
)

// ClaimStatus records what one claimant has taken from a distributor.
type ClaimStatus struct {
	Admin                 types.Pubkey
	Distributor           types.Pubkey
	Claimant              types.Pubkey // Authority that claimed the tokens
	LockedAmount          uint64
	LockedAmountWithdrawn uint64
	UnlockedAmount        uint64
	BonusAmount           uint64
	Closable              uint8
	Padding0              [7]byte
	Padding1              *big.Int // u128
}

func (c ClaimStatus) Len() int { return ClaimStatusSize - discriminator.Size }

func (c ClaimStatus) MarshalBorsh(w *borsh.Writer) error {
	for _, pk := range []types.Pubkey{c.Admin, c.Distributor, c.Claimant} {
		if err := w.WritePublicKey(pk); err != nil {
			return err
		}
	}
	for _, v := range []uint64{c.LockedAmount, c.LockedAmountWithdrawn, c.UnlockedAmount, c.BonusAmount} {
		if err := w.WriteUint64(v); err != nil {
			return err
		}
	}
	if err := w.WriteUint8(c.Closable); err != nil {
		return err
	}
	if err := w.WriteRaw(c.Padding0[:]); err != nil {
		return err
	}
	return w.WriteUint128(c.Padding1)
}

func (c *ClaimStatus) UnmarshalBorsh(r *borsh.Reader) (err error) {
	for _, pk := range []*types.Pubkey{&c.Admin, &c.Distributor, &c.Claimant} {
		if *pk, err = r.ReadPublicKey(); err != nil {
			return err
		}
	}
	for _, v := range []*uint64{&c.LockedAmount, &c.LockedAmountWithdrawn, &c.UnlockedAmount, &c.BonusAmount} {
		if *v, err = r.ReadUint64(); err != nil {
			return err
		}
	}
	if c.Closable, err = r.ReadUint8(); err != nil {
		return err
	}
	if err = r.ReadInto(c.Padding0[:]); err != nil {
		return err
	}
	c.Padding1, err = r.ReadUint128()
	return err
}

// Withdrawable returns the locked amount not yet withdrawn.
func (c ClaimStatus) Withdrawable() uint64 {
	if c.LockedAmountWithdrawn >= c.LockedAmount {
		return 0
	}
	return c.LockedAmount - c.LockedAmountWithdrawn
}

// MerkleDistributor field offsets
const (
	RootOffset               = 8
	MintOffset               = 40
	BaseOffset               = 72
	TokenVaultOffset         = 104
	ClawbackReceiverOffset   = 136
	AdminOffset              = 168
	LockerOffset             = 200
	OperatorOffset           = 232
	VersionOffset            = 264
	MaxTotalClaimOffset      = 272
	MaxNumNodesOffset        = 280
	TotalAmountClaimedOffset = 288
	NumNodesClaimedOffset    = 296
	StartTsOffset            = 304
	EndTsOffset              = 312
	ClawbackStartTsOffset    = 320
	ActivationPointOffset    = 328
	ActivationTypeOffset     = 336
	ClaimTypeOffset          = 337
	BumpOffset               = 338
	ClawedBackOffset         = 339
	ClosableOffset           = 340
	Padding0Offset           = 341
	AirdropBonusOffset       = 344
	Padding2Offset           = 368
)

// ActivationType selects how ActivationPoint is measured.
type ActivationType uint8

const (
	ActivationTypeSlot ActivationType = iota
	ActivationTypeTimestamp
)

// AirdropBonus is the bonus schedule paid on top of the claim.
type AirdropBonus struct {
	StartTs    int64
	EndTs      int64
	TotalBonus uint64
}

const airdropBonusSize = 24

func (a AirdropBonus) Len() int { return airdropBonusSize }

func (a AirdropBonus) MarshalBorsh(w *borsh.Writer) error {
	if err := w.WriteInt64(a.StartTs); err != nil {
		return err
	}
	if err := w.WriteInt64(a.EndTs); err != nil {
		return err
	}
	return w.WriteUint64(a.TotalBonus)
}

func (a *AirdropBonus) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if a.StartTs, err = r.ReadInt64(); err != nil {
		return err
	}
	if a.EndTs, err = r.ReadInt64(); err != nil {
		return err
	}
	a.TotalBonus, err = r.ReadUint64()
	return err
}

// MerkleDistributor is the state of one airdrop: the root every claim is
// proven against, its vault and its vesting schedule.
type MerkleDistributor struct {
	Root               [32]byte // The 256-bit merkle root
	Mint               types.Pubkey
	Base               types.Pubkey
	TokenVault         types.Pubkey
	ClawbackReceiver   types.Pubkey
	Admin              types.Pubkey
	Locker             types.Pubkey
	Operator           types.Pubkey // Co-signer of permissioned claims
	Version            uint64
	MaxTotalClaim      uint64
	MaxNumNodes        uint64
	TotalAmountClaimed uint64
	NumNodesClaimed    uint64
	StartTs            int64 // Lockup start (unix timestamp)
	EndTs              int64 // Lockup end (unix timestamp)
	ClawbackStartTs    int64
	ActivationPoint    uint64
	ActivationType     ActivationType
	ClaimType          uint8
	Bump               uint8
	ClawedBack         uint8
	Closable           uint8
	Padding0           [3]byte
	AirdropBonus       AirdropBonus
	Padding2           [5]*big.Int // u128
}

func (m MerkleDistributor) Len() int { return MerkleDistributorSize - discriminator.Size }

func (m MerkleDistributor) MarshalBorsh(w *borsh.Writer) error {
	if err := w.WriteRaw(m.Root[:]); err != nil {
		return err
	}
	for _, pk := range []types.Pubkey{m.Mint, m.Base, m.TokenVault, m.ClawbackReceiver, m.Admin, m.Locker, m.Operator} {
		if err := w.WritePublicKey(pk); err != nil {
			return err
		}
	}
	for _, v := range []uint64{m.Version, m.MaxTotalClaim, m.MaxNumNodes, m.TotalAmountClaimed, m.NumNodesClaimed} {
		if err := w.WriteUint64(v); err != nil {
			return err
		}
	}
	for _, v := range []int64{m.StartTs, m.EndTs, m.ClawbackStartTs} {
		if err := w.WriteInt64(v); err != nil {
			return err
		}
	}
	if err := w.WriteUint64(m.ActivationPoint); err != nil {
		return err
	}
	for _, v := range []uint8{uint8(m.ActivationType), m.ClaimType, m.Bump, m.ClawedBack, m.Closable} {
		if err := w.WriteUint8(v); err != nil {
			return err
		}
	}
	if err := w.WriteRaw(m.Padding0[:]); err != nil {
		return err
	}
	if err := m.AirdropBonus.MarshalBorsh(w); err != nil {
		return err
	}
	return borsh.WriteArray(w, m.Padding2[:], len(m.Padding2), (*borsh.Writer).WriteUint128)
}

func (m *MerkleDistributor) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if err = r.ReadInto(m.Root[:]); err != nil {
		return err
	}
	for _, pk := range []*types.Pubkey{&m.Mint, &m.Base, &m.TokenVault, &m.ClawbackReceiver, &m.Admin, &m.Locker, &m.Operator} {
		if *pk, err = r.ReadPublicKey(); err != nil {
			return err
		}
	}
	for _, v := range []*uint64{&m.Version, &m.MaxTotalClaim, &m.MaxNumNodes, &m.TotalAmountClaimed, &m.NumNodesClaimed} {
		if *v, err = r.ReadUint64(); err != nil {
			return err
		}
	}
	for _, v := range []*int64{&m.StartTs, &m.EndTs, &m.ClawbackStartTs} {
		if *v, err = r.ReadInt64(); err != nil {
			return err
		}
	}
	if m.ActivationPoint, err = r.ReadUint64(); err != nil {
		return err
	}
	var activationType uint8
	for _, v := range []*uint8{&activationType, &m.ClaimType, &m.Bump, &m.ClawedBack, &m.Closable} {
		if *v, err = r.ReadUint8(); err != nil {
			return err
		}
	}
	m.ActivationType = ActivationType(activationType)
	if err = r.ReadInto(m.Padding0[:]); err != nil {
		return err
	}
	if err = m.AirdropBonus.UnmarshalBorsh(r); err != nil {
		return err
	}
	for i := range m.Padding2 {
		if m.Padding2[i], err = r.ReadUint128(); err != nil {
			return err
		}
	}
	return nil
}

// Remaining returns the unclaimed allowance of the distributor.
func (m MerkleDistributor) Remaining() uint64 {
	if m.TotalAmountClaimed >= m.MaxTotalClaim {
		return 0
	}
	return m.MaxTotalClaim - m.TotalAmountClaimed
}

// Account filters, in the shape nodes accept for program account queries.

func ClaimStatusFilters() []accounts.Filter {
	return []accounts.Filter{
		accounts.NewDataSizeFilter(ClaimStatusSize),
		accounts.NewDiscriminatorFilter(ClaimStatusDiscriminator),
	}
}

func ClaimantFilter(claimant types.Pubkey) accounts.Filter {
	return accounts.NewPubkeyFilter(ClaimStatusClaimantOffset, claimant)
}

func DistributorFilter(distributor types.Pubkey) accounts.Filter {
	return accounts.NewPubkeyFilter(ClaimStatusDistributorOffset, distributor)
}

func MerkleDistributorFilters() []accounts.Filter {
	return []accounts.Filter{
		accounts.NewDataSizeFilter(MerkleDistributorSize),
		accounts.NewDiscriminatorFilter(MerkleDistributorDiscriminator),
	}
}

func MintFilter(mint types.Pubkey) accounts.Filter {
	return accounts.NewPubkeyFilter(MintOffset, mint)
}

func BaseFilter(base types.Pubkey) accounts.Filter {
	return accounts.NewPubkeyFilter(BaseOffset, base)
}

func AdminFilter(admin types.Pubkey) accounts.Filter {
	return accounts.NewPubkeyFilter(AdminOffset, admin)
}

func OperatorFilter(operator types.Pubkey) accounts.Filter {
	return accounts.NewPubkeyFilter(OperatorOffset, operator)
}

func VersionFilter(version uint64) accounts.Filter {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, version)
	return accounts.NewMemcmpFilter(VersionOffset, b)
}
