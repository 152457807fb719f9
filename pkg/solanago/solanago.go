// Package solanago bridges this module's types to github.com/gagliardetto/solana-go
// so instructions built here can be placed in solana-go transactions, and
// Borsh records can be nested inside gagliardetto/binary encoders.
package solanago

import (
	"github.com/cockroachdb/errors"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/instruction"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// ToSolana converts a public key.
func ToSolana(pk types.Pubkey) solana.PublicKey {
	return solana.PublicKey(pk)
}

// FromSolana converts a public key.
func FromSolana(pk solana.PublicKey) types.Pubkey {
	return types.Pubkey(pk)
}

// Instruction adapts an encoded instruction to solana.Instruction.
type Instruction struct {
	ix instruction.Instruction
}

var _ solana.Instruction = (*Instruction)(nil)

// Wrap adapts ix.
func Wrap(ix instruction.Instruction) *Instruction {
	return &Instruction{ix: ix}
}

func (i *Instruction) ProgramID() solana.PublicKey {
	return ToSolana(i.ix.Program)
}

func (i *Instruction) Accounts() []*solana.AccountMeta {
	out := make([]*solana.AccountMeta, len(i.ix.Accounts))
	for n, m := range i.ix.Accounts {
		out[n] = &solana.AccountMeta{
			PublicKey:  ToSolana(m.PublicKey),
			IsWritable: m.IsWritable,
			IsSigner:   m.IsSigner,
		}
	}
	return out
}

func (i *Instruction) Data() ([]byte, error) {
	return append([]byte(nil), i.ix.Data...), nil
}

// Unwrap returns the wrapped instruction.
func (i *Instruction) Unwrap() instruction.Instruction {
	return i.ix
}

// FromInstruction converts any solana.Instruction, such as one produced by
// solana-go's own program packages.
func FromInstruction(si solana.Instruction) (instruction.Instruction, error) {
	data, err := si.Data()
	if err != nil {
		return instruction.Instruction{}, errors.Wrap(err, "encode solana instruction")
	}
	metas := si.Accounts()
	accounts := make([]instruction.AccountMeta, 0, len(metas))
	for n, m := range metas {
		if m == nil {
			return instruction.Instruction{}, errors.Newf("account %d is nil", n)
		}
		accounts = append(accounts, instruction.AccountMeta{
			PublicKey:  FromSolana(m.PublicKey),
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
		})
	}
	return instruction.New(FromSolana(si.ProgramID()), accounts, data), nil
}

// Codec carries a Borsh record through gagliardetto/binary. The record is
// written as raw bytes with no extra framing, so a Codec field inside a
// bin-encoded struct produces the same bytes as the record alone.
type Codec[T any, PT interface {
	*T
	borsh.Value
	borsh.Unmarshaler
}] struct {
	Value T
}

var _ bin.EncoderDecoder = (*Codec[borsh.Empty, *borsh.Empty])(nil)

func (c Codec[T, PT]) MarshalWithEncoder(enc *bin.Encoder) error {
	b, err := borsh.Marshal(PT(&c.Value))
	if err != nil {
		return err
	}
	return enc.WriteBytes(b, false)
}

func (c *Codec[T, PT]) UnmarshalWithDecoder(dec *bin.Decoder) error {
	rest, err := dec.Peek(dec.Remaining())
	if err != nil {
		return err
	}
	r := borsh.NewReader(rest)
	var v T
	if err := PT(&v).UnmarshalBorsh(r); err != nil {
		return err
	}
	if err := dec.SkipBytes(uint(r.Offset())); err != nil {
		return err
	}
	c.Value = v
	return nil
}
