// Package merkle binds the Jupiter merkle distributor, an Anchor program
// that pays out an airdrop to claimants who prove their allocation against
// a Merkle root.
package merkle

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/accounts"
	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/discriminator"
	"github.com/sava-software/anchor-programs-sub010/pkg/instruction"
	"github.com/sava-software/anchor-programs-sub010/pkg/pda"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Account is a decoded program account: *ClaimStatus or *MerkleDistributor.
type Account interface {
	borsh.Value
	isMerkleAccount()
}

func (ClaimStatus) isMerkleAccount()       {}
func (MerkleDistributor) isMerkleAccount() {}

// Events emitted through "Program data:" logs.
var (
	NewClaimEventDiscriminator = discriminator.Event("NewClaimEvent")
	ClaimedEventDiscriminator  = discriminator.Event("ClaimedEvent")
)

// Event is a decoded program event.
type Event interface {
	isMerkleEvent()
}

// NewClaimEvent is emitted when a ClaimStatus is opened.
type NewClaimEvent struct {
	Claimant  types.Pubkey
	Timestamp int64
}

func (e *NewClaimEvent) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if e.Claimant, err = r.ReadPublicKey(); err != nil {
		return err
	}
	e.Timestamp, err = r.ReadInt64()
	return err
}

// ClaimedEvent is emitted for every transfer to a claimant.
type ClaimedEvent struct {
	Claimant types.Pubkey
	Amount   uint64
}

func (e *ClaimedEvent) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if e.Claimant, err = r.ReadPublicKey(); err != nil {
		return err
	}
	e.Amount, err = r.ReadUint64()
	return err
}

func (NewClaimEvent) isMerkleEvent() {}
func (ClaimedEvent) isMerkleEvent()  {}

// Program is one deployment of the merkle distributor.
type Program struct {
	ProgramID types.Pubkey

	instructions *discriminator.Registry[Instruction]
	accounts     *discriminator.Registry[Account]
	events       *discriminator.Registry[Event]
}

// New binds the distributor deployed at programID.
func New(programID types.Pubkey) *Program {
	p := &Program{
		ProgramID:    programID,
		instructions: discriminator.NewRegistry[Instruction](programID, "instruction"),
		accounts:     discriminator.NewRegistry[Account](programID, "account"),
		events:       discriminator.NewRegistry[Event](programID, "event"),
	}
	registerInstructions(p.instructions)
	p.accounts.MustRegister(ClaimStatusDiscriminator, "ClaimStatus", func(r *borsh.Reader) (Account, error) {
		v, err := borsh.ReadValue[ClaimStatus](r)
		return &v, err
	})
	p.accounts.MustRegister(MerkleDistributorDiscriminator, "MerkleDistributor", func(r *borsh.Reader) (Account, error) {
		v, err := borsh.ReadValue[MerkleDistributor](r)
		return &v, err
	})
	p.events.MustRegister(NewClaimEventDiscriminator, "NewClaimEvent", func(r *borsh.Reader) (Event, error) {
		v, err := borsh.ReadValue[NewClaimEvent](r)
		return v, err
	})
	p.events.MustRegister(ClaimedEventDiscriminator, "ClaimedEvent", func(r *borsh.Reader) (Event, error) {
		v, err := borsh.ReadValue[ClaimedEvent](r)
		return v, err
	})
	return p
}

// Instructions returns the instruction registry.
func (p *Program) Instructions() *discriminator.Registry[Instruction] { return p.instructions }

// Accounts returns the account registry.
func (p *Program) Accounts() *discriminator.Registry[Account] { return p.accounts }

// Events returns the event registry.
func (p *Program) Events() *discriminator.Registry[Event] { return p.events }

// DecodeInstruction decodes an instruction addressed to this program.
func (p *Program) DecodeInstruction(ix instruction.Instruction) (Instruction, string, error) {
	return instruction.Decode(ix, p.instructions)
}

// DecodeAccount decodes account data by its discriminator.
func (p *Program) DecodeAccount(data []byte) (Account, error) {
	return p.accounts.Decode(data)
}

// DecodeEventLog decodes a "Program data:" log line.
func (p *Program) DecodeEventLog(line string) (Event, string, error) {
	return discriminator.DecodeEventLog(p.events, line)
}

// ClaimStatuses decodes every ClaimStatus in store that matches filters.
func (p *Program) ClaimStatuses(store accounts.Store, filters ...accounts.Filter) ([]accounts.Decoded[*ClaimStatus], error) {
	found, err := accounts.Scan(store, p.accounts, append(ClaimStatusFilters(), filters...)...)
	if err != nil {
		return nil, err
	}
	out := make([]accounts.Decoded[*ClaimStatus], 0, len(found))
	for _, d := range found {
		out = append(out, accounts.Decoded[*ClaimStatus]{Address: d.Address, Name: d.Name, Value: d.Value.(*ClaimStatus)})
	}
	return out, nil
}

// Distributors decodes every MerkleDistributor in store that matches filters.
func (p *Program) Distributors(store accounts.Store, filters ...accounts.Filter) ([]accounts.Decoded[*MerkleDistributor], error) {
	found, err := accounts.Scan(store, p.accounts, append(MerkleDistributorFilters(), filters...)...)
	if err != nil {
		return nil, err
	}
	out := make([]accounts.Decoded[*MerkleDistributor], 0, len(found))
	for _, d := range found {
		out = append(out, accounts.Decoded[*MerkleDistributor]{Address: d.Address, Name: d.Name, Value: d.Value.(*MerkleDistributor)})
	}
	return out, nil
}

// DistributorAddress derives the distributor PDA for (base, mint, version).
func (p *Program) DistributorAddress(base, mint types.Pubkey, version uint64) (pda.Address, error) {
	v := make([]byte, 8)
	binary.LittleEndian.PutUint64(v, version)
	return pda.FindProgramAddress([][]byte{[]byte("MerkleDistributor"), base[:], mint[:], v}, p.ProgramID)
}

// ClaimStatusAddress derives the ClaimStatus PDA of claimant.
func (p *Program) ClaimStatusAddress(claimant, distributor types.Pubkey) (pda.Address, error) {
	return pda.FindProgramAddress([][]byte{[]byte("ClaimStatus"), claimant[:], distributor[:]}, p.ProgramID)
}

// IndexedClaimStatusAddress derives a ClaimStatus PDA keyed by leaf index,
// as used by earlier distributor releases.
func (p *Program) IndexedClaimStatusAddress(index uint64, distributor types.Pubkey) (pda.Address, error) {
	i := make([]byte, 8)
	binary.LittleEndian.PutUint64(i, index)
	return pda.FindProgramAddress([][]byte{[]byte("ClaimStatus"), i, distributor[:]}, p.ProgramID)
}

func orDefault(pk, def types.Pubkey) types.Pubkey {
	if pk.IsZero() {
		return def
	}
	return pk
}

func (p *Program) build(args Instruction, metas ...instruction.AccountMeta) (instruction.Instruction, error) {
	return instruction.NewAnchor(p.ProgramID, metas, args.Discriminator(), args)
}

// NewDistributorAccounts are the accounts of new_distributor. Zero program
// ids default to the system and token programs.
type NewDistributorAccounts struct {
	Distributor      types.Pubkey
	Base             types.Pubkey
	ClawbackReceiver types.Pubkey
	Mint             types.Pubkey
	TokenVault       types.Pubkey
	Admin            types.Pubkey
	SystemProgram    types.Pubkey
	TokenProgram     types.Pubkey
}

// NewDistributor builds new_distributor.
func (p *Program) NewDistributor(a NewDistributorAccounts, params NewDistributorParams) (instruction.Instruction, error) {
	return p.build(NewDistributor{Params: params},
		instruction.Writable(a.Distributor),
		instruction.ReadOnlySigner(a.Base),
		instruction.Writable(a.ClawbackReceiver),
		instruction.ReadOnly(a.Mint),
		instruction.ReadOnly(a.TokenVault),
		instruction.WritableSigner(a.Admin),
		instruction.ReadOnly(orDefault(a.SystemProgram, types.SystemProgramID)),
		instruction.ReadOnly(orDefault(a.TokenProgram, types.TokenProgramID)),
	)
}

// CloseDistributor builds close_distributor.
func (p *Program) CloseDistributor(distributor, tokenVault, admin, destination, tokenProgram types.Pubkey) (instruction.Instruction, error) {
	return p.build(CloseDistributor{},
		instruction.Writable(distributor),
		instruction.Writable(tokenVault),
		instruction.WritableSigner(admin),
		instruction.Writable(destination),
		instruction.ReadOnly(orDefault(tokenProgram, types.TokenProgramID)),
	)
}

// CloseClaimStatus builds close_claim_status.
func (p *Program) CloseClaimStatus(claimStatus, claimant, admin types.Pubkey) (instruction.Instruction, error) {
	return p.build(CloseClaimStatus{},
		instruction.Writable(claimStatus),
		instruction.Writable(claimant),
		instruction.ReadOnlySigner(admin),
	)
}

// SetActivationPoint builds set_activation_point.
func (p *Program) SetActivationPoint(distributor, admin types.Pubkey, activationPoint uint64) (instruction.Instruction, error) {
	return p.build(SetActivationPoint{ActivationPoint: activationPoint},
		instruction.Writable(distributor),
		instruction.WritableSigner(admin),
	)
}

// Clawback builds clawback.
func (p *Program) Clawback(distributor, from, clawbackReceiver, tokenProgram types.Pubkey) (instruction.Instruction, error) {
	return p.build(Clawback{},
		instruction.Writable(distributor),
		instruction.Writable(from),
		instruction.Writable(clawbackReceiver),
		instruction.ReadOnly(orDefault(tokenProgram, types.TokenProgramID)),
	)
}

// SetClawbackReceiver builds set_clawback_receiver.
func (p *Program) SetClawbackReceiver(distributor, newClawbackAccount, admin types.Pubkey) (instruction.Instruction, error) {
	return p.build(SetClawbackReceiver{},
		instruction.Writable(distributor),
		instruction.ReadOnly(newClawbackAccount),
		instruction.ReadOnlySigner(admin),
	)
}

// SetAdmin builds set_admin.
func (p *Program) SetAdmin(distributor, admin, newAdmin types.Pubkey) (instruction.Instruction, error) {
	return p.build(SetAdmin{},
		instruction.Writable(distributor),
		instruction.ReadOnlySigner(admin),
		instruction.ReadOnly(newAdmin),
	)
}

// SetOperator builds set_operator.
func (p *Program) SetOperator(distributor, admin, newOperator types.Pubkey) (instruction.Instruction, error) {
	return p.build(SetOperator{NewOperator: newOperator},
		instruction.Writable(distributor),
		instruction.ReadOnlySigner(admin),
	)
}

// ClaimAccounts are the accounts shared by the claim instructions.
// A nil Operator is replaced by the program id, which the program treats
// as "no operator".
type ClaimAccounts struct {
	Distributor   types.Pubkey
	ClaimStatus   types.Pubkey
	From          types.Pubkey // distributor vault
	To            types.Pubkey // claimant token account, unused by the staking variants
	Claimant      types.Pubkey
	Operator      *types.Pubkey
	TokenProgram  types.Pubkey
	SystemProgram types.Pubkey
}

func (p *Program) operator(a ClaimAccounts) instruction.AccountMeta {
	if a.Operator == nil {
		return instruction.ReadOnlySigner(p.ProgramID)
	}
	return instruction.ReadOnlySigner(*a.Operator)
}

// StakeAccounts are the locker accounts used by the staking claims.
type StakeAccounts struct {
	VoterProgram types.Pubkey
	Locker       types.Pubkey
	Escrow       types.Pubkey
	EscrowTokens types.Pubkey
}

func (s StakeAccounts) metas() []instruction.AccountMeta {
	return []instruction.AccountMeta{
		instruction.ReadOnly(s.VoterProgram),
		instruction.Writable(s.Locker),
		instruction.Writable(s.Escrow),
		instruction.Writable(s.EscrowTokens),
	}
}

func checkProof(proof [][]byte) error {
	for i, node := range proof {
		if len(node) != ProofNodeSize {
			return errors.Wrapf(borsh.ErrElementWidth, "proof node %d is %d bytes", i, len(node))
		}
	}
	return nil
}

// NewClaim builds new_claim.
func (p *Program) NewClaim(a ClaimAccounts, amountUnlocked, amountLocked uint64, proof [][]byte) (instruction.Instruction, error) {
	if err := checkProof(proof); err != nil {
		return instruction.Instruction{}, err
	}
	return p.build(NewClaim{Claim{AmountUnlocked: amountUnlocked, AmountLocked: amountLocked, Proof: proof}},
		instruction.Writable(a.Distributor),
		instruction.Writable(a.ClaimStatus),
		instruction.Writable(a.From),
		instruction.Writable(a.To),
		instruction.WritableSigner(a.Claimant),
		p.operator(a),
		instruction.ReadOnly(orDefault(a.TokenProgram, types.TokenProgramID)),
		instruction.ReadOnly(orDefault(a.SystemProgram, types.SystemProgramID)),
	)
}

// ClaimLocked builds claim_locked.
func (p *Program) ClaimLocked(a ClaimAccounts) (instruction.Instruction, error) {
	return p.build(ClaimLocked{},
		instruction.Writable(a.Distributor),
		instruction.Writable(a.ClaimStatus),
		instruction.Writable(a.From),
		instruction.Writable(a.To),
		instruction.ReadOnlySigner(a.Claimant),
		p.operator(a),
		instruction.ReadOnly(orDefault(a.TokenProgram, types.TokenProgramID)),
	)
}

// NewClaimAndStake builds new_claim_and_stake.
func (p *Program) NewClaimAndStake(a ClaimAccounts, s StakeAccounts, amountUnlocked, amountLocked uint64, proof [][]byte) (instruction.Instruction, error) {
	if err := checkProof(proof); err != nil {
		return instruction.Instruction{}, err
	}
	metas := []instruction.AccountMeta{
		instruction.Writable(a.Distributor),
		instruction.Writable(a.ClaimStatus),
		instruction.Writable(a.From),
		instruction.WritableSigner(a.Claimant),
		p.operator(a),
		instruction.ReadOnly(orDefault(a.TokenProgram, types.TokenProgramID)),
		instruction.ReadOnly(orDefault(a.SystemProgram, types.SystemProgramID)),
	}
	return p.build(NewClaimAndStake{Claim{AmountUnlocked: amountUnlocked, AmountLocked: amountLocked, Proof: proof}},
		append(metas, s.metas()...)...)
}

// ClaimLockedAndStake builds claim_locked_and_stake.
func (p *Program) ClaimLockedAndStake(a ClaimAccounts, s StakeAccounts) (instruction.Instruction, error) {
	metas := []instruction.AccountMeta{
		instruction.Writable(a.Distributor),
		instruction.Writable(a.ClaimStatus),
		instruction.Writable(a.From),
		instruction.ReadOnlySigner(a.Claimant),
		p.operator(a),
		instruction.ReadOnly(orDefault(a.TokenProgram, types.TokenProgramID)),
	}
	return p.build(ClaimLockedAndStake{}, append(metas, s.metas()...)...)
}
