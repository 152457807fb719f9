package pda

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// EventAuthoritySeed is the seed of the Anchor event CPI authority.
const EventAuthoritySeed = "__event_authority"

// ErrIllegalOwner is returned by CreateWithSeed when the owner ends with the
// PDA marker, which would let a seeded address collide with a PDA.
var ErrIllegalOwner = errors.New("pda: illegal owner")

// AssociatedTokenAddress derives the associated token account of wallet for
// mint under tokenProgram.
func AssociatedTokenAddress(wallet, mint, tokenProgram types.Pubkey) (Address, error) {
	seeds := [][]byte{
		wallet[:],
		tokenProgram[:],
		mint[:],
	}
	return FindProgramAddress(seeds, types.AssociatedTokenProgramID)
}

// EventAuthority derives the account Anchor programs use to sign
// self-invoked event instructions.
func EventAuthority(programID types.Pubkey) (Address, error) {
	return FindProgramAddress([][]byte{[]byte(EventAuthoritySeed)}, programID)
}

// CreateWithSeed derives the system-program address
// SHA256(base || seed || owner). The result may lie on the curve.
func CreateWithSeed(base types.Pubkey, seed string, owner types.Pubkey) (types.Pubkey, error) {
	if len(seed) > MaxSeedLen {
		return types.ZeroPubkey, errors.Wrapf(ErrMaxSeedLength, "seed %q", seed)
	}
	if bytes.HasSuffix(owner[:], []byte(PDAMarker)) {
		return types.ZeroPubkey, errors.Wrapf(ErrIllegalOwner, "owner %s", owner)
	}
	return types.Pubkey(types.SHA256Multi(base[:], []byte(seed), owner[:])), nil
}

// Seeds converts string seeds to byte seeds.
func Seeds(seeds ...string) [][]byte {
	out := make([][]byte, len(seeds))
	for i, s := range seeds {
		out[i] = []byte(s)
	}
	return out
}
