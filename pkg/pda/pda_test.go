package pda

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

func testPubkey(seed string) types.Pubkey {
	return types.Pubkey(types.SHA256Multi([]byte(seed)))
}

func TestFindProgramAddressMatchesSolanaGo(t *testing.T) {
	program := types.TokenMetadataProgramID
	for i := 0; i < 32; i++ {
		mint := testPubkey(string(rune('a' + i)))
		seeds := [][]byte{[]byte("metadata"), program[:], mint[:]}

		got, err := FindProgramAddress(seeds, program)
		require.NoError(t, err)

		want, bump, err := solana.FindProgramAddress(seeds, solana.PublicKeyFromBytes(program[:]))
		require.NoError(t, err)
		assert.Equal(t, want[:], got.Key[:])
		assert.Equal(t, bump, got.Bump)
		assert.False(t, IsOnCurve(got.Key[:]))
	}
}

func TestFindProgramAddressDeterministic(t *testing.T) {
	seeds := Seeds("ClaimStatus", "claimant")
	program := testPubkey("program")

	a, err := FindProgramAddress(seeds, program)
	require.NoError(t, err)
	b, err := FindProgramAddress(seeds, program)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// the winning bump reproduces the key through CreateProgramAddress
	key, err := CreateProgramAddress(append(seeds, []byte{a.Bump}), program)
	require.NoError(t, err)
	assert.Equal(t, a.Key, key)

	other, err := FindProgramAddress(seeds, testPubkey("other"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, other.Key)
}

func TestSeedLimits(t *testing.T) {
	program := testPubkey("program")

	_, err := FindProgramAddress([][]byte{make([]byte, 33)}, program)
	require.ErrorIs(t, err, ErrMaxSeedLength)

	_, err = FindProgramAddress(make([][]byte, MaxSeeds), program)
	require.ErrorIs(t, err, ErrTooManySeeds)

	_, err = FindProgramAddress(make([][]byte, MaxSeeds-1), program)
	require.NoError(t, err)

	_, err = CreateProgramAddress(make([][]byte, MaxSeeds+1), program)
	require.ErrorIs(t, err, ErrTooManySeeds)

	_, err = CreateProgramAddress([][]byte{make([]byte, MaxSeedLen)}, program)
	if err != nil {
		require.ErrorIs(t, err, ErrInvalidSeeds)
	}
}

func TestIsOnCurve(t *testing.T) {
	for i := 0; i < 8; i++ {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		assert.True(t, IsOnCurve(pub), "ed25519 public keys are curve points")
		assert.Equal(t, solana.IsOnCurve(pub), IsOnCurve(pub))
	}

	for _, pk := range []types.Pubkey{types.SystemProgramID, types.TokenProgramID, testPubkey("x")} {
		assert.Equal(t, solana.IsOnCurve(pk[:]), IsOnCurve(pk[:]), pk.String())
	}

	assert.False(t, IsOnCurve(make([]byte, 31)))
}

func TestCreateProgramAddressRejectsCurvePoints(t *testing.T) {
	program := testPubkey("program")
	// Scan single-byte seeds until one hashes onto the curve. Roughly half
	// of all hashes decompress, so this terminates quickly.
	for i := 0; i < 256; i++ {
		seeds := [][]byte{{byte(i)}}
		hash := hashSeeds(seeds, program)
		_, err := CreateProgramAddress(seeds, program)
		if IsOnCurve(hash[:]) {
			require.ErrorIs(t, err, ErrInvalidSeeds)
			return
		}
		require.NoError(t, err)
	}
	t.Fatal("no on-curve hash found")
}

func TestAssociatedTokenAddress(t *testing.T) {
	wallet := testPubkey("wallet")
	mint := testPubkey("mint")

	got, err := AssociatedTokenAddress(wallet, mint, types.TokenProgramID)
	require.NoError(t, err)

	want, bump, err := solana.FindAssociatedTokenAddress(
		solana.PublicKeyFromBytes(wallet[:]),
		solana.PublicKeyFromBytes(mint[:]),
	)
	require.NoError(t, err)
	assert.Equal(t, want[:], got.Key[:])
	assert.Equal(t, bump, got.Bump)

	token22, err := AssociatedTokenAddress(wallet, mint, types.Token2022ProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, got.Key, token22.Key)
}

func TestCreateWithSeed(t *testing.T) {
	base := testPubkey("base")

	got, err := CreateWithSeed(base, "stake:0", types.SystemProgramID)
	require.NoError(t, err)

	want, err := solana.CreateWithSeed(
		solana.PublicKeyFromBytes(base[:]),
		"stake:0",
		solana.PublicKeyFromBytes(types.SystemProgramID[:]),
	)
	require.NoError(t, err)
	assert.Equal(t, want[:], got[:])

	_, err = CreateWithSeed(base, "0123456789012345678901234567890123", types.SystemProgramID)
	require.ErrorIs(t, err, ErrMaxSeedLength)

	var owner types.Pubkey
	copy(owner[32-len(PDAMarker):], PDAMarker)
	_, err = CreateWithSeed(base, "x", owner)
	require.ErrorIs(t, err, ErrIllegalOwner)
}

func TestEventAuthority(t *testing.T) {
	program := testPubkey("program")
	got, err := EventAuthority(program)
	require.NoError(t, err)

	want, err := FindProgramAddress([][]byte{[]byte("__event_authority")}, program)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindProgramAddresses(t *testing.T) {
	program := testPubkey("program")
	reqs := make([]Request, 64)
	for i := range reqs {
		var idx [8]byte
		binary.LittleEndian.PutUint64(idx[:], uint64(i))
		reqs[i] = Request{Seeds: [][]byte{[]byte("node"), idx[:]}, Program: program}
	}

	got, err := FindProgramAddresses(context.Background(), reqs, 4)
	require.NoError(t, err)
	require.Len(t, got, len(reqs))
	for i, req := range reqs {
		want, err := FindProgramAddress(req.Seeds, req.Program)
		require.NoError(t, err)
		assert.Equal(t, want, got[i], "request %d", i)
	}

	reqs[10].Seeds = [][]byte{make([]byte, 40)}
	_, err = FindProgramAddresses(context.Background(), reqs, 4)
	require.ErrorIs(t, err, ErrMaxSeedLength)
}
