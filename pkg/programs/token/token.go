// Package token binds the SPL Token Program: account state layouts, the
// instruction union and builders that lay out each instruction's accounts.
//
// The Token Program does not use Anchor framing. Instructions start with a
// single ordinal byte and state accounts are fixed-size records whose
// optional fields use a 4-byte C-style tag. Token-2022 shares the base
// layouts, so the same bindings serve both programs.
//
// Program ID: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
package token

import (
	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/instruction"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Program builds instructions for one token program deployment.
type Program struct {
	// ProgramID is the token program's public key
	ProgramID types.Pubkey
}

// New returns the SPL Token Program.
func New() *Program {
	return &Program{
		ProgramID: types.TokenProgramID,
	}
}

// New2022 returns the Token-2022 Program.
func New2022() *Program {
	return &Program{
		ProgramID: types.Token2022ProgramID,
	}
}

// Decode parses a token instruction addressed to this program.
func (p *Program) Decode(ix instruction.Instruction) (Instruction, error) {
	if ix.Program != p.ProgramID {
		return nil, errors.Wrapf(instruction.ErrProgramMismatch, "instruction for %s, program is %s", ix.Program, p.ProgramID)
	}
	return DecodeInstruction(ix.Data)
}

// DecodeInstruction parses token instruction data.
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) < 1 {
		return nil, errors.Wrap(ErrInvalidInstructionData, "instruction data too short")
	}
	inst, err := Instructions.Decode(data)
	if err != nil {
		return nil, errors.Mark(err, ErrInvalidInstructionData)
	}
	return inst, nil
}

func (p *Program) build(inst Instruction, accounts []instruction.AccountMeta) (instruction.Instruction, error) {
	return instruction.NewOrdinal(p.ProgramID, accounts, inst)
}

// authority lays out a single signing authority, or a multisig account
// followed by its signers.
func authority(owner types.Pubkey, signers []types.Pubkey) ([]instruction.AccountMeta, error) {
	if len(signers) == 0 {
		return []instruction.AccountMeta{instruction.ReadOnlySigner(owner)}, nil
	}
	if len(signers) > MaxSigners {
		return nil, errors.Wrapf(ErrInvalidNumberOfAccounts, "%d signers, at most %d", len(signers), MaxSigners)
	}
	metas := make([]instruction.AccountMeta, 0, 1+len(signers))
	metas = append(metas, instruction.ReadOnly(owner))
	for _, s := range signers {
		metas = append(metas, instruction.ReadOnlySigner(s))
	}
	return metas, nil
}

func (p *Program) withAuthority(inst Instruction, owner types.Pubkey, signers []types.Pubkey, accounts ...instruction.AccountMeta) (instruction.Instruction, error) {
	auth, err := authority(owner, signers)
	if err != nil {
		return instruction.Instruction{}, err
	}
	return p.build(inst, append(accounts, auth...))
}

// InitializeMint builds InitializeMint.
func (p *Program) InitializeMint(mint types.Pubkey, decimals uint8, mintAuthority types.Pubkey, freezeAuthority *types.Pubkey) (instruction.Instruction, error) {
	return p.build(InitializeMint{Decimals: decimals, MintAuthority: mintAuthority, FreezeAuthority: freezeAuthority},
		[]instruction.AccountMeta{
			instruction.Writable(mint),
			instruction.ReadOnly(types.SysvarRentID),
		})
}

// InitializeMint2 builds InitializeMint2.
func (p *Program) InitializeMint2(mint types.Pubkey, decimals uint8, mintAuthority types.Pubkey, freezeAuthority *types.Pubkey) (instruction.Instruction, error) {
	return p.build(InitializeMint2{InitializeMint{Decimals: decimals, MintAuthority: mintAuthority, FreezeAuthority: freezeAuthority}},
		[]instruction.AccountMeta{instruction.Writable(mint)})
}

// InitializeAccount builds InitializeAccount.
func (p *Program) InitializeAccount(account, mint, owner types.Pubkey) (instruction.Instruction, error) {
	return p.build(InitializeAccount{}, []instruction.AccountMeta{
		instruction.Writable(account),
		instruction.ReadOnly(mint),
		instruction.ReadOnly(owner),
		instruction.ReadOnly(types.SysvarRentID),
	})
}

// InitializeAccount3 builds InitializeAccount3.
func (p *Program) InitializeAccount3(account, mint, owner types.Pubkey) (instruction.Instruction, error) {
	return p.build(InitializeAccount3{Owner: owner}, []instruction.AccountMeta{
		instruction.Writable(account),
		instruction.ReadOnly(mint),
	})
}

// Transfer builds Transfer. Signers are only passed when owner is a multisig.
func (p *Program) Transfer(source, destination, owner types.Pubkey, amount uint64, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(Transfer{Amount: amount}, owner, signers,
		instruction.Writable(source),
		instruction.Writable(destination),
	)
}

// TransferChecked builds TransferChecked.
func (p *Program) TransferChecked(source, mint, destination, owner types.Pubkey, amount uint64, decimals uint8, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(TransferChecked{Amount: amount, Decimals: decimals}, owner, signers,
		instruction.Writable(source),
		instruction.ReadOnly(mint),
		instruction.Writable(destination),
	)
}

// Approve builds Approve.
func (p *Program) Approve(source, delegate, owner types.Pubkey, amount uint64, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(Approve{Amount: amount}, owner, signers,
		instruction.Writable(source),
		instruction.ReadOnly(delegate),
	)
}

// Revoke builds Revoke.
func (p *Program) Revoke(source, owner types.Pubkey, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(Revoke{}, owner, signers, instruction.Writable(source))
}

// SetAuthority builds SetAuthority. A nil newAuthority removes it.
func (p *Program) SetAuthority(owned types.Pubkey, authorityType AuthorityType, newAuthority *types.Pubkey, current types.Pubkey, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(SetAuthority{AuthorityType: authorityType, NewAuthority: newAuthority}, current, signers,
		instruction.Writable(owned),
	)
}

// MintTo builds MintTo.
func (p *Program) MintTo(mint, destination, mintAuthority types.Pubkey, amount uint64, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(MintTo{Amount: amount}, mintAuthority, signers,
		instruction.Writable(mint),
		instruction.Writable(destination),
	)
}

// MintToChecked builds MintToChecked.
func (p *Program) MintToChecked(mint, destination, mintAuthority types.Pubkey, amount uint64, decimals uint8, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(MintToChecked{Amount: amount, Decimals: decimals}, mintAuthority, signers,
		instruction.Writable(mint),
		instruction.Writable(destination),
	)
}

// Burn builds Burn.
func (p *Program) Burn(account, mint, owner types.Pubkey, amount uint64, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(Burn{Amount: amount}, owner, signers,
		instruction.Writable(account),
		instruction.Writable(mint),
	)
}

// BurnChecked builds BurnChecked.
func (p *Program) BurnChecked(account, mint, owner types.Pubkey, amount uint64, decimals uint8, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(BurnChecked{Amount: amount, Decimals: decimals}, owner, signers,
		instruction.Writable(account),
		instruction.Writable(mint),
	)
}

// CloseAccount builds CloseAccount.
func (p *Program) CloseAccount(account, destination, owner types.Pubkey, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(CloseAccount{}, owner, signers,
		instruction.Writable(account),
		instruction.Writable(destination),
	)
}

// FreezeAccount builds FreezeAccount.
func (p *Program) FreezeAccount(account, mint, freezeAuthority types.Pubkey, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(FreezeAccount{}, freezeAuthority, signers,
		instruction.Writable(account),
		instruction.ReadOnly(mint),
	)
}

// ThawAccount builds ThawAccount.
func (p *Program) ThawAccount(account, mint, freezeAuthority types.Pubkey, signers ...types.Pubkey) (instruction.Instruction, error) {
	return p.withAuthority(ThawAccount{}, freezeAuthority, signers,
		instruction.Writable(account),
		instruction.ReadOnly(mint),
	)
}

// SyncNative builds SyncNative.
func (p *Program) SyncNative(account types.Pubkey) (instruction.Instruction, error) {
	return p.build(SyncNative{}, []instruction.AccountMeta{instruction.Writable(account)})
}

// EncodeInstruction returns the data bytes of inst.
func EncodeInstruction(inst Instruction) ([]byte, error) {
	data := make([]byte, borsh.VariantLen(inst))
	if err := borsh.WriteVariant(borsh.NewWriter(data), inst); err != nil {
		return nil, err
	}
	return data, nil
}
