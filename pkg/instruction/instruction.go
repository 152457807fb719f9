// Package instruction assembles program invocations: the target program,
// the ordered account role list and the encoded argument bytes.
package instruction

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/discriminator"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// ErrProgramMismatch is returned when an instruction is decoded with the
// registry of another program.
var ErrProgramMismatch = errors.New("instruction: program mismatch")

// AccountMeta describes an account in an instruction.
type AccountMeta struct {
	PublicKey  types.Pubkey
	IsSigner   bool
	IsWritable bool
}

// ReadOnly returns a read-only, non-signing account.
func ReadOnly(pk types.Pubkey) AccountMeta {
	return AccountMeta{PublicKey: pk}
}

// Writable returns a writable, non-signing account.
func Writable(pk types.Pubkey) AccountMeta {
	return AccountMeta{PublicKey: pk, IsWritable: true}
}

// ReadOnlySigner returns a read-only signer.
func ReadOnlySigner(pk types.Pubkey) AccountMeta {
	return AccountMeta{PublicKey: pk, IsSigner: true}
}

// WritableSigner returns a writable signer.
func WritableSigner(pk types.Pubkey) AccountMeta {
	return AccountMeta{PublicKey: pk, IsSigner: true, IsWritable: true}
}

func (m AccountMeta) String() string {
	role := "r"
	if m.IsWritable {
		role = "w"
	}
	if m.IsSigner {
		role += "s"
	}
	return fmt.Sprintf("%s(%s)", m.PublicKey, role)
}

// Instruction is a fully encoded program invocation. The order of Accounts
// is part of the program's interface and is never rearranged.
type Instruction struct {
	Program  types.Pubkey
	Accounts []AccountMeta
	Data     []byte
}

// New builds an instruction from already encoded data. Accounts and data
// are copied so later changes by the caller do not leak in.
func New(program types.Pubkey, accounts []AccountMeta, data []byte) Instruction {
	ix := Instruction{
		Program:  program,
		Accounts: make([]AccountMeta, len(accounts)),
		Data:     make([]byte, len(data)),
	}
	copy(ix.Accounts, accounts)
	copy(ix.Data, data)
	return ix
}

// NewAnchor builds an instruction whose data is the discriminator followed
// by the encoded arguments.
func NewAnchor(program types.Pubkey, accounts []AccountMeta, d discriminator.Discriminator, args borsh.Value) (Instruction, error) {
	data, err := discriminator.Frame(d, args)
	if err != nil {
		return Instruction{}, errors.Wrapf(err, "encode instruction %s", d)
	}
	ix := New(program, accounts, nil)
	ix.Data = data
	return ix, nil
}

// NewOrdinal builds an instruction for programs that tag instructions with
// a single ordinal byte instead of an 8-byte discriminator.
func NewOrdinal(program types.Pubkey, accounts []AccountMeta, v borsh.Variant) (Instruction, error) {
	data := make([]byte, borsh.VariantLen(v))
	w := borsh.NewWriter(data)
	if err := borsh.WriteVariant(w, v); err != nil {
		return Instruction{}, errors.Wrapf(err, "encode instruction %d", v.Ordinal())
	}
	if w.Offset() != len(data) {
		return Instruction{}, errors.Wrapf(borsh.ErrLengthMismatch, "instruction %d reported %d bytes, wrote %d", v.Ordinal(), len(data), w.Offset())
	}
	ix := New(program, accounts, nil)
	ix.Data = data
	return ix, nil
}

// Discriminator returns the first 8 bytes of the data.
func (ix Instruction) Discriminator() (discriminator.Discriminator, error) {
	return discriminator.FromBytes(ix.Data)
}

// Args returns the data after the discriminator.
func (ix Instruction) Args() []byte {
	if len(ix.Data) < discriminator.Size {
		return nil
	}
	return ix.Data[discriminator.Size:]
}

// Signers returns the signing accounts in order.
func (ix Instruction) Signers() []types.Pubkey {
	var out []types.Pubkey
	for _, m := range ix.Accounts {
		if m.IsSigner {
			out = append(out, m.PublicKey)
		}
	}
	return out
}

// Decode dispatches the instruction data through the program's registry.
func Decode[T any](ix Instruction, r *discriminator.Registry[T]) (T, string, error) {
	if ix.Program != r.Program() {
		var zero T
		return zero, "", errors.Wrapf(ErrProgramMismatch, "instruction for %s, registry for %s", ix.Program, r.Program())
	}
	return r.DecodeNamed(ix.Data)
}

// Account returns the account at position i, used by decoders that map
// role lists back to named accounts.
func (ix Instruction) Account(i int) (types.Pubkey, error) {
	if i < 0 || i >= len(ix.Accounts) {
		return types.ZeroPubkey, errors.Newf("instruction has %d accounts, no index %d", len(ix.Accounts), i)
	}
	return ix.Accounts[i].PublicKey, nil
}
