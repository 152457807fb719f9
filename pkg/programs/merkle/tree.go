package merkle

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/sha3"

	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

var (
	// ErrEmptyTree is returned when a tree is built without leaves.
	ErrEmptyTree = errors.New("merkle: tree has no leaves")

	// ErrLeafIndex is returned for a proof request outside the tree.
	ErrLeafIndex = errors.New("merkle: leaf index out of range")
)

// HashFunc hashes the concatenation of parts.
type HashFunc func(parts ...[]byte) [32]byte

// SHA256 is the hash of the current distributor.
func SHA256(parts ...[]byte) [32]byte {
	return types.SHA256Multi(parts...)
}

// Keccak256 is the legacy (pre-SHA3 padding) Keccak used by the older
// index-keyed distributors.
func Keccak256(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Scheme describes how a distributor hashes leaves and pairs. Pairs are
// always hashed in ascending byte order, so a proof carries no left/right
// flags.
type Scheme struct {
	Hash HashFunc
	// LeafPrefix, when set, rehashes the leaf fields' hash behind it.
	LeafPrefix []byte
	NodePrefix []byte
	// DuplicateOdd pairs a level's last odd node with itself; otherwise it
	// is promoted to the next level unchanged.
	DuplicateOdd bool
}

var (
	// DistributorScheme matches the sha256 distributor bound by Program.
	DistributorScheme = Scheme{
		Hash:         SHA256,
		LeafPrefix:   []byte{0},
		NodePrefix:   []byte{1},
		DuplicateOdd: true,
	}

	// LegacyScheme matches the keccak distributor whose leaves are keyed
	// by claim index.
	LegacyScheme = Scheme{Hash: Keccak256}
)

// Leaf hashes the encoded leaf fields.
func (s Scheme) Leaf(fields ...[]byte) [32]byte {
	h := s.Hash(fields...)
	if s.LeafPrefix == nil {
		return h
	}
	return s.Hash(s.LeafPrefix, h[:])
}

func (s Scheme) node(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	if s.NodePrefix == nil {
		return s.Hash(a[:], b[:])
	}
	return s.Hash(s.NodePrefix, a[:], b[:])
}

// Verify folds proof into leaf and reports whether it reaches root. A node
// that is not ProofNodeSize bytes fails verification.
func (s Scheme) Verify(proof [][]byte, root, leaf [32]byte) bool {
	computed := leaf
	for _, p := range proof {
		if len(p) != ProofNodeSize {
			return false
		}
		computed = s.node(computed, [32]byte(p))
	}
	return computed == root
}

// ClaimLeaf is the distributor leaf for a claimant's allocation.
func ClaimLeaf(claimant types.Pubkey, amountUnlocked, amountLocked uint64) [32]byte {
	return DistributorScheme.Leaf(
		claimant[:],
		binary.LittleEndian.AppendUint64(nil, amountUnlocked),
		binary.LittleEndian.AppendUint64(nil, amountLocked),
	)
}

// LegacyClaimLeaf is the legacy distributor leaf for the claim at index.
func LegacyClaimLeaf(index uint64, claimant types.Pubkey, amount uint64) [32]byte {
	return LegacyScheme.Leaf(
		binary.LittleEndian.AppendUint64(nil, index),
		claimant[:],
		binary.LittleEndian.AppendUint64(nil, amount),
	)
}

// Verify reports whether the claim's proof links the claimant's leaf to
// root.
func (c Claim) Verify(root [32]byte, claimant types.Pubkey) bool {
	return DistributorScheme.Verify(c.Proof, root, ClaimLeaf(claimant, c.AmountUnlocked, c.AmountLocked))
}

// Tree is a Merkle tree over hashed leaves, kept level by level so proofs
// can be read off without rehashing.
type Tree struct {
	scheme Scheme
	levels [][][32]byte
}

// NewTree builds the tree over leaves in the given order.
func NewTree(scheme Scheme, leaves [][32]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	level := append([][32]byte(nil), leaves...)
	t := &Tree{scheme: scheme, levels: [][][32]byte{level}}
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			switch {
			case i+1 < len(level):
				next = append(next, scheme.node(level[i], level[i+1]))
			case scheme.DuplicateOdd:
				next = append(next, scheme.node(level[i], level[i]))
			default:
				next = append(next, level[i])
			}
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t, nil
}

// Root returns the tree root.
func (t *Tree) Root() [32]byte {
	return t.levels[len(t.levels)-1][0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Proof returns the sibling path of leaf i, bottom up.
func (t *Tree) Proof(i int) ([][]byte, error) {
	if i < 0 || i >= t.Len() {
		return nil, errors.Wrapf(ErrLeafIndex, "leaf %d of %d", i, t.Len())
	}
	var proof [][]byte
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := i ^ 1
		switch {
		case sibling < len(level):
			proof = append(proof, bytes.Clone(level[sibling][:]))
		case t.scheme.DuplicateOdd:
			proof = append(proof, bytes.Clone(level[i][:]))
		}
		i /= 2
	}
	return proof, nil
}
