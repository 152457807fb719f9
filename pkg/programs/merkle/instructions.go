package merkle

import (
	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/discriminator"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Instruction discriminators as published in the program's IDL.
var (
	NewDistributorDiscriminator      = discriminator.New(32, 139, 112, 171, 0, 2, 225, 155)
	CloseDistributorDiscriminator    = discriminator.New(202, 56, 180, 143, 46, 104, 106, 112)
	CloseClaimStatusDiscriminator    = discriminator.New(163, 214, 191, 165, 245, 188, 17, 185)
	SetActivationPointDiscriminator  = discriminator.New(91, 249, 15, 165, 26, 129, 254, 125)
	ClawbackDiscriminator            = discriminator.New(111, 92, 142, 79, 33, 234, 82, 27)
	SetClawbackReceiverDiscriminator = discriminator.New(153, 217, 34, 20, 19, 29, 229, 75)
	SetAdminDiscriminator            = discriminator.New(251, 163, 0, 52, 91, 194, 187, 92)
	SetOperatorDiscriminator         = discriminator.New(238, 153, 101, 169, 243, 131, 36, 1)
	NewClaimDiscriminator            = discriminator.New(78, 177, 98, 123, 210, 21, 187, 83)
	ClaimLockedDiscriminator         = discriminator.New(34, 206, 181, 23, 11, 207, 147, 90)
	NewClaimAndStakeDiscriminator    = discriminator.New(50, 111, 242, 118, 51, 250, 141, 187)
	ClaimLockedAndStakeDiscriminator = discriminator.New(173, 208, 81, 8, 13, 19, 202, 150)
)

// ProofNodeSize is the width of one Merkle proof node.
const ProofNodeSize = 32

// Instruction is the decoded argument payload of a merkle distributor
// instruction.
type Instruction interface {
	borsh.Value
	Discriminator() discriminator.Discriminator
}

// NewDistributor creates a distributor.
type NewDistributor struct {
	Params NewDistributorParams
}

func (NewDistributor) Discriminator() discriminator.Discriminator { return NewDistributorDiscriminator }
func (i NewDistributor) Len() int                                 { return i.Params.Len() }
func (i NewDistributor) MarshalBorsh(w *borsh.Writer) error       { return i.Params.MarshalBorsh(w) }
func (i *NewDistributor) UnmarshalBorsh(r *borsh.Reader) error    { return i.Params.UnmarshalBorsh(r) }

// SetActivationPoint moves the activation slot or timestamp.
type SetActivationPoint struct {
	ActivationPoint uint64
}

func (SetActivationPoint) Discriminator() discriminator.Discriminator {
	return SetActivationPointDiscriminator
}
func (SetActivationPoint) Len() int { return borsh.Uint64Size }
func (i SetActivationPoint) MarshalBorsh(w *borsh.Writer) error {
	return w.WriteUint64(i.ActivationPoint)
}
func (i *SetActivationPoint) UnmarshalBorsh(r *borsh.Reader) (err error) {
	i.ActivationPoint, err = r.ReadUint64()
	return err
}

// SetOperator replaces the claim co-signer.
type SetOperator struct {
	NewOperator types.Pubkey
}

func (SetOperator) Discriminator() discriminator.Discriminator { return SetOperatorDiscriminator }
func (SetOperator) Len() int                                   { return borsh.PubkeySize }
func (i SetOperator) MarshalBorsh(w *borsh.Writer) error       { return w.WritePublicKey(i.NewOperator) }
func (i *SetOperator) UnmarshalBorsh(r *borsh.Reader) (err error) {
	i.NewOperator, err = r.ReadPublicKey()
	return err
}

// Claim carries the amounts of a claimant's leaf and the proof linking the
// leaf to the distributor root.
type Claim struct {
	AmountUnlocked uint64
	AmountLocked   uint64
	Proof          [][]byte // each node is ProofNodeSize bytes
}

func (c Claim) Len() int {
	return 2*borsh.Uint64Size + borsh.ByteVectorsLen(c.Proof, ProofNodeSize)
}

func (c Claim) MarshalBorsh(w *borsh.Writer) error {
	if err := w.WriteUint64(c.AmountUnlocked); err != nil {
		return err
	}
	if err := w.WriteUint64(c.AmountLocked); err != nil {
		return err
	}
	return borsh.WriteByteVectors(w, c.Proof, ProofNodeSize)
}

func (c *Claim) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if c.AmountUnlocked, err = r.ReadUint64(); err != nil {
		return err
	}
	if c.AmountLocked, err = r.ReadUint64(); err != nil {
		return err
	}
	c.Proof, err = borsh.ReadByteVectors(r, ProofNodeSize)
	return err
}

// NewClaim claims the unlocked part of a leaf and opens its ClaimStatus.
type NewClaim struct {
	Claim
}

func (NewClaim) Discriminator() discriminator.Discriminator { return NewClaimDiscriminator }

// NewClaimAndStake is NewClaim that stakes the claimed tokens in the locker.
type NewClaimAndStake struct {
	Claim
}

func (NewClaimAndStake) Discriminator() discriminator.Discriminator {
	return NewClaimAndStakeDiscriminator
}

// noArgs is the payload of instructions that only carry a discriminator.
type noArgs = borsh.Empty

type CloseDistributor struct{ noArgs }
type CloseClaimStatus struct{ noArgs }
type Clawback struct{ noArgs }
type SetClawbackReceiver struct{ noArgs }
type SetAdmin struct{ noArgs }
type ClaimLocked struct{ noArgs }
type ClaimLockedAndStake struct{ noArgs }

func (CloseDistributor) Discriminator() discriminator.Discriminator {
	return CloseDistributorDiscriminator
}
func (CloseClaimStatus) Discriminator() discriminator.Discriminator {
	return CloseClaimStatusDiscriminator
}
func (Clawback) Discriminator() discriminator.Discriminator { return ClawbackDiscriminator }
func (SetClawbackReceiver) Discriminator() discriminator.Discriminator {
	return SetClawbackReceiverDiscriminator
}
func (SetAdmin) Discriminator() discriminator.Discriminator    { return SetAdminDiscriminator }
func (ClaimLocked) Discriminator() discriminator.Discriminator { return ClaimLockedDiscriminator }
func (ClaimLockedAndStake) Discriminator() discriminator.Discriminator {
	return ClaimLockedAndStakeDiscriminator
}

func registerInstructions(r *discriminator.Registry[Instruction]) {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(discriminator.RegisterValue(r, NewDistributorDiscriminator, "new_distributor", func(v NewDistributor) Instruction { return v }))
	must(discriminator.RegisterValue(r, CloseDistributorDiscriminator, "close_distributor", func(v CloseDistributor) Instruction { return v }))
	must(discriminator.RegisterValue(r, CloseClaimStatusDiscriminator, "close_claim_status", func(v CloseClaimStatus) Instruction { return v }))
	must(discriminator.RegisterValue(r, SetActivationPointDiscriminator, "set_activation_point", func(v SetActivationPoint) Instruction { return v }))
	must(discriminator.RegisterValue(r, ClawbackDiscriminator, "clawback", func(v Clawback) Instruction { return v }))
	must(discriminator.RegisterValue(r, SetClawbackReceiverDiscriminator, "set_clawback_receiver", func(v SetClawbackReceiver) Instruction { return v }))
	must(discriminator.RegisterValue(r, SetAdminDiscriminator, "set_admin", func(v SetAdmin) Instruction { return v }))
	must(discriminator.RegisterValue(r, SetOperatorDiscriminator, "set_operator", func(v SetOperator) Instruction { return v }))
	must(discriminator.RegisterValue(r, NewClaimDiscriminator, "new_claim", func(v NewClaim) Instruction { return v }))
	must(discriminator.RegisterValue(r, ClaimLockedDiscriminator, "claim_locked", func(v ClaimLocked) Instruction { return v }))
	must(discriminator.RegisterValue(r, NewClaimAndStakeDiscriminator, "new_claim_and_stake", func(v NewClaimAndStake) Instruction { return v }))
	must(discriminator.RegisterValue(r, ClaimLockedAndStakeDiscriminator, "claim_locked_and_stake", func(v ClaimLockedAndStake) Instruction { return v }))
}
