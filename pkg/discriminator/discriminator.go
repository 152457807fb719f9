// Package discriminator implements the 8-byte type tags that prefix Anchor
// instruction data, account state and event payloads, and the closed
// registry that dispatches tagged bytes to their decoders.
package discriminator

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
)

// Size is the width of a discriminator.
const Size = 8

// Namespaces prefixed to names before hashing.
const (
	NamespaceGlobal  = "global"
	NamespaceAccount = "account"
	NamespaceEvent   = "event"
)

// Discriminator is an 8-byte tag identifying a message or account type
// within one program.
type Discriminator [Size]byte

// New builds a discriminator from explicit bytes, as published in program
// interface definitions.
func New(b0, b1, b2, b3, b4, b5, b6, b7 byte) Discriminator {
	return Discriminator{b0, b1, b2, b3, b4, b5, b6, b7}
}

// FromBytes reads the discriminator at the start of b.
func FromBytes(b []byte) (Discriminator, error) {
	var d Discriminator
	if len(b) < Size {
		return d, errors.Wrapf(borsh.ErrBufferUnderrun, "discriminator needs %d bytes, got %d", Size, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Sighash returns sha256(namespace + ":" + name)[:8].
func Sighash(namespace, name string) Discriminator {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d Discriminator
	copy(d[:], sum[:Size])
	return d
}

// Instruction returns the discriminator of an instruction. The name is
// converted to snake_case first, so "newClaim" and "new_claim" agree.
func Instruction(name string) Discriminator {
	return Sighash(NamespaceGlobal, ToSnakeCase(name))
}

// Account returns the discriminator of an account type named in
// PascalCase, e.g. "ClaimStatus".
func Account(name string) Discriminator {
	return Sighash(NamespaceAccount, name)
}

// Event returns the discriminator of an event type named in PascalCase.
func Event(name string) Discriminator {
	return Sighash(NamespaceEvent, name)
}

// Bytes returns the tag as a slice.
func (d Discriminator) Bytes() []byte {
	return d[:]
}

// String returns the hex form.
func (d Discriminator) String() string {
	return hex.EncodeToString(d[:])
}

// Matches reports whether data starts with d.
func (d Discriminator) Matches(data []byte) bool {
	return len(data) >= Size && Discriminator(data[:Size]) == d
}

// ToSnakeCase converts camelCase and PascalCase identifiers to snake_case.
// Runs of capitals are kept together ("setURI" becomes "set_uri").
func ToSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Frame returns d followed by the encoding of v.
func Frame(d Discriminator, v borsh.Value) ([]byte, error) {
	data := make([]byte, Size+v.Len())
	copy(data, d[:])
	if _, err := borsh.MarshalInto(data, Size, v); err != nil {
		return nil, err
	}
	return data, nil
}

// Split separates the discriminator from the payload.
func Split(data []byte) (Discriminator, []byte, error) {
	d, err := FromBytes(data)
	if err != nil {
		return d, nil, err
	}
	return d, data[Size:], nil
}
