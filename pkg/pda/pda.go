// Package pda derives program addresses: 32-byte account keys that are
// deterministically computed from seeds and a program id, and that lie off
// the Ed25519 curve so no private key can sign for them.
//
// PDA formula: SHA256(seeds... || program_id || "ProgramDerivedAddress").
// FindProgramAddress appends a one byte bump seed and searches from 255
// down to 0 for the first result that is off the curve.
package pda

import (
	"context"
	"crypto/sha256"

	"filippo.io/edwards25519"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// PDA constants
const (
	// MaxSeeds is the maximum number of seeds for PDA derivation
	MaxSeeds = 16
	// MaxSeedLen is the maximum length of a single seed
	MaxSeedLen = 32
	// PDAMarker is the string appended during PDA derivation
	PDAMarker = "ProgramDerivedAddress"
)

// Derivation errors.
var (
	// ErrTooManySeeds is returned for more than MaxSeeds seeds.
	ErrTooManySeeds = errors.New("pda: too many seeds")
	// ErrMaxSeedLength is returned for a seed longer than MaxSeedLen.
	ErrMaxSeedLength = errors.New("pda: seed exceeds max length")
	// ErrInvalidSeeds is returned when the seeds hash to a point on the curve.
	ErrInvalidSeeds = errors.New("pda: derived address is on the curve")
	// ErrDerivationExhausted is returned when no bump yields a valid address.
	ErrDerivationExhausted = errors.New("pda: unable to find a viable program address bump seed")
)

// Address is a derived address and the bump seed that produced it.
type Address struct {
	Key  types.Pubkey
	Bump uint8
}

func (a Address) String() string {
	return a.Key.String()
}

func checkSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return errors.Wrapf(ErrTooManySeeds, "%d seeds", len(seeds))
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return errors.Wrapf(ErrMaxSeedLength, "seed %d is %d bytes", i, len(seed))
		}
	}
	return nil
}

func hashSeeds(seeds [][]byte, programID types.Pubkey) [32]byte {
	hasher := sha256.New()
	for _, seed := range seeds {
		hasher.Write(seed)
	}
	hasher.Write(programID[:])
	hasher.Write([]byte(PDAMarker))

	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

// CreateProgramAddress derives the address for an exact seed list, which
// already includes the bump if there is one.
func CreateProgramAddress(seeds [][]byte, programID types.Pubkey) (types.Pubkey, error) {
	if err := checkSeeds(seeds); err != nil {
		return types.ZeroPubkey, err
	}
	hash := hashSeeds(seeds, programID)
	if IsOnCurve(hash[:]) {
		return types.ZeroPubkey, ErrInvalidSeeds
	}
	return types.Pubkey(hash), nil
}

// FindProgramAddress searches bumps from 255 to 0 and returns the first
// derived address that is off the curve.
func FindProgramAddress(seeds [][]byte, programID types.Pubkey) (Address, error) {
	// the bump takes one of the seed slots
	if len(seeds) >= MaxSeeds {
		return Address{}, errors.Wrapf(ErrTooManySeeds, "%d seeds leave no room for the bump", len(seeds))
	}
	if err := checkSeeds(seeds); err != nil {
		return Address{}, err
	}

	// Append bump seed slot
	seedsWithBump := make([][]byte, len(seeds)+1)
	copy(seedsWithBump, seeds)
	bumpSeed := []byte{0}
	seedsWithBump[len(seeds)] = bumpSeed

	for bump := 255; bump >= 0; bump-- {
		bumpSeed[0] = uint8(bump)
		hash := hashSeeds(seedsWithBump, programID)
		if !IsOnCurve(hash[:]) {
			return Address{Key: types.Pubkey(hash), Bump: uint8(bump)}, nil
		}
	}
	return Address{}, ErrDerivationExhausted
}

// MustFindProgramAddress is FindProgramAddress for fixed seeds known to be
// valid; it panics on error.
func MustFindProgramAddress(seeds [][]byte, programID types.Pubkey) Address {
	addr, err := FindProgramAddress(seeds, programID)
	if err != nil {
		panic(err)
	}
	return addr
}

// IsOnCurve reports whether b is the compressed encoding of an Ed25519
// point. Only off-curve addresses are valid program addresses.
func IsOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// Request is one derivation in a batch.
type Request struct {
	Seeds   [][]byte
	Program types.Pubkey
}

// FindProgramAddresses derives every request, running up to workers
// derivations at once. Results are in request order.
func FindProgramAddresses(ctx context.Context, reqs []Request, workers int) ([]Address, error) {
	out := make([]Address, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			addr, err := FindProgramAddress(req.Seeds, req.Program)
			if err != nil {
				return errors.Wrapf(err, "request %d", i)
			}
			out[i] = addr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
