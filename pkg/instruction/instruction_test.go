package instruction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/discriminator"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

func testPubkey(seed string) types.Pubkey {
	return types.Pubkey(types.SHA256Multi([]byte(seed)))
}

type amount uint64

func (amount) Len() int { return 8 }

func (a amount) MarshalBorsh(w *borsh.Writer) error { return w.WriteUint64(uint64(a)) }

type burn struct{ Amount uint64 }

func (burn) Ordinal() uint8 { return 8 }

func (burn) PayloadLen() int { return 8 }

func (b burn) MarshalPayload(w *borsh.Writer) error { return w.WriteUint64(b.Amount) }

func TestRoles(t *testing.T) {
	pk := testPubkey("a")
	assert.Equal(t, AccountMeta{PublicKey: pk}, ReadOnly(pk))
	assert.Equal(t, AccountMeta{PublicKey: pk, IsWritable: true}, Writable(pk))
	assert.Equal(t, AccountMeta{PublicKey: pk, IsSigner: true}, ReadOnlySigner(pk))
	assert.Equal(t, AccountMeta{PublicKey: pk, IsSigner: true, IsWritable: true}, WritableSigner(pk))
	assert.Equal(t, pk.String()+"(ws)", WritableSigner(pk).String())
}

func TestNewCopiesInputs(t *testing.T) {
	program := testPubkey("program")
	accounts := []AccountMeta{Writable(testPubkey("a")), ReadOnlySigner(testPubkey("b"))}
	data := []byte{1, 2, 3}

	ix := New(program, accounts, data)
	accounts[0] = ReadOnly(testPubkey("c"))
	data[0] = 9

	assert.Equal(t, Writable(testPubkey("a")), ix.Accounts[0])
	assert.Equal(t, []byte{1, 2, 3}, ix.Data)
	assert.Equal(t, []types.Pubkey{testPubkey("b")}, ix.Signers())
}

func TestNewAnchorPreservesOrder(t *testing.T) {
	program := testPubkey("program")
	d := discriminator.Instruction("withdraw")
	accounts := []AccountMeta{
		Writable(testPubkey("vault")),
		WritableSigner(testPubkey("owner")),
		ReadOnly(types.TokenProgramID),
		ReadOnly(types.SystemProgramID),
	}

	ix, err := NewAnchor(program, accounts, d, amount(77))
	require.NoError(t, err)
	assert.Equal(t, accounts, ix.Accounts)
	require.Len(t, ix.Data, 16)

	got, err := ix.Discriminator()
	require.NoError(t, err)
	assert.Equal(t, d, got)
	assert.Equal(t, []byte{77, 0, 0, 0, 0, 0, 0, 0}, ix.Args())

	pk, err := ix.Account(2)
	require.NoError(t, err)
	assert.Equal(t, types.TokenProgramID, pk)
	_, err = ix.Account(4)
	require.Error(t, err)
}

func TestNewOrdinal(t *testing.T) {
	ix, err := NewOrdinal(types.TokenProgramID, nil, burn{Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, []byte{8, 5, 0, 0, 0, 0, 0, 0, 0}, ix.Data)
	assert.Empty(t, ix.Accounts)
}

func TestDecode(t *testing.T) {
	program := testPubkey("program")
	d := discriminator.Instruction("withdraw")
	r := discriminator.NewRegistry[uint64](program, "instruction")
	r.MustRegister(d, "withdraw", (*borsh.Reader).ReadUint64)

	ix, err := NewAnchor(program, nil, d, amount(12))
	require.NoError(t, err)

	v, name, err := Decode(ix, r)
	require.NoError(t, err)
	assert.Equal(t, "withdraw", name)
	assert.Equal(t, uint64(12), v)

	ix.Program = testPubkey("elsewhere")
	_, _, err = Decode(ix, r)
	require.ErrorIs(t, err, ErrProgramMismatch)

	ix.Program = program
	ix.Data = discriminator.Instruction("deposit").Bytes()
	_, _, err = Decode(ix, r)
	require.ErrorIs(t, err, discriminator.ErrUnknownDiscriminator)
}
