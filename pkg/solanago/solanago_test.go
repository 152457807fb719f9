package solanago

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/discriminator"
	"github.com/sava-software/anchor-programs-sub010/pkg/instruction"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

func key(seed string) types.Pubkey {
	return types.Pubkey(types.SHA256Multi([]byte(seed)))
}

func TestPubkeyRoundTrip(t *testing.T) {
	pk := key("a")
	assert.Equal(t, pk.String(), ToSolana(pk).String())
	assert.Equal(t, pk, FromSolana(ToSolana(pk)))
	assert.Equal(t, solana.TokenProgramID, ToSolana(types.TokenProgramID))
}

func TestWrap(t *testing.T) {
	payer, vault := key("payer"), key("vault")
	ix, err := instruction.NewAnchor(key("program"),
		[]instruction.AccountMeta{instruction.WritableSigner(payer), instruction.Writable(vault), instruction.ReadOnly(types.SystemProgramID)},
		discriminator.Instruction("deposit"), pair{Amount: 5, Label: "x"})
	require.NoError(t, err)

	var si solana.Instruction = Wrap(ix)
	assert.Equal(t, ToSolana(key("program")), si.ProgramID())
	data, err := si.Data()
	require.NoError(t, err)
	assert.Equal(t, ix.Data, data)

	metas := si.Accounts()
	require.Len(t, metas, 3)
	assert.Equal(t, solana.Meta(ToSolana(payer)).WRITE().SIGNER(), metas[0])
	assert.Equal(t, solana.Meta(ToSolana(vault)).WRITE(), metas[1])
	assert.Equal(t, solana.Meta(solana.SystemProgramID), metas[2])

	back, err := FromInstruction(si)
	require.NoError(t, err)
	assert.Equal(t, ix, back)
}

func TestFromSolanaProgram(t *testing.T) {
	from, to := solana.PublicKey(key("from")), solana.PublicKey(key("to"))
	si := system.NewTransferInstruction(1_000_000, from, to).Build()

	ix, err := FromInstruction(si)
	require.NoError(t, err)
	assert.Equal(t, types.SystemProgramID, ix.Program)
	assert.Equal(t, []instruction.AccountMeta{
		instruction.WritableSigner(FromSolana(from)),
		instruction.Writable(FromSolana(to)),
	}, ix.Accounts)

	// system instructions are tagged with a u32 ordinal
	r := borsh.NewReader(ix.Data)
	tag, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), tag)
	lamports, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), lamports)
}

type pair struct {
	Amount uint64
	Label  string
}

func (p pair) Len() int { return borsh.Uint64Size + borsh.StringLen(p.Label) }

func (p pair) MarshalBorsh(w *borsh.Writer) error {
	if err := w.WriteUint64(p.Amount); err != nil {
		return err
	}
	return w.WriteString(p.Label)
}

func (p *pair) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if p.Amount, err = r.ReadUint64(); err != nil {
		return err
	}
	p.Label, err = r.ReadString()
	return err
}

func TestCodec(t *testing.T) {
	v := pair{Amount: 0x0102030405060708, Label: "vault"}
	want, err := borsh.Marshal(v)
	require.NoError(t, err)

	// gagliardetto/binary lays out the same record identically
	oracle, err := bin.MarshalBorsh(&struct {
		Amount uint64
		Label  string
	}{v.Amount, v.Label})
	require.NoError(t, err)
	assert.Equal(t, oracle, want)

	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	require.NoError(t, enc.WriteUint32(7, bin.LE))
	require.NoError(t, Codec[pair, *pair]{Value: v}.MarshalWithEncoder(enc))
	require.NoError(t, enc.WriteUint8(0xff))
	assert.Equal(t, want, buf.Bytes()[4:4+len(want)])

	dec := bin.NewBorshDecoder(buf.Bytes())
	prefix, err := dec.ReadUint32(bin.LE)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), prefix)

	var got Codec[pair, *pair]
	require.NoError(t, got.UnmarshalWithDecoder(dec))
	assert.Equal(t, v, got.Value)
	assert.Equal(t, 1, dec.Remaining())

	short := bin.NewBorshDecoder(want[:10])
	require.ErrorIs(t, (&Codec[pair, *pair]{}).UnmarshalWithDecoder(short), borsh.ErrBufferUnderrun)
	assert.Equal(t, 10, short.Remaining())
}
