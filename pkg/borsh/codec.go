// Package borsh implements the Borsh binary encoding used by on-chain
// programs for instruction arguments, account state and event payloads.
//
// The encoding is bit-exact and schema driven: nothing self-describes. All
// integers are little-endian, 128-bit integers are written as two 64-bit
// halves (low first), vectors and strings carry a u32 element count,
// options carry a one byte presence flag, fixed arrays and public keys carry
// no prefix, and tagged unions start with a one byte ordinal.
//
// Records implement Value and Unmarshaler by writing their fields in
// declaration order through a Writer and reading them back through a Reader:
//
//	func (p Params) Len() int { return 8 + borsh.OptionalLen(p.Limit, borsh.Fixed[uint64](8)) }
//
//	func (p Params) MarshalBorsh(w *borsh.Writer) error {
//		if err := w.WriteUint64(p.Amount); err != nil {
//			return err
//		}
//		return borsh.WriteOptional(w, p.Limit, (*borsh.Writer).WriteUint64)
//	}
//
// Marshal allocates exactly Len() bytes, so a record whose Len disagrees with
// what it writes fails loudly instead of producing a corrupt buffer.
//
// Decoding is all-or-nothing: on error no partially populated value should
// be used. Short input fails with ErrBufferUnderrun and is never padded.
package borsh

import (
	"github.com/cockroachdb/errors"
)

// Value is anything with a canonical Borsh encoding.
type Value interface {
	// Len returns the exact number of bytes MarshalBorsh writes.
	Len() int
	// MarshalBorsh writes the value at the writer's cursor.
	MarshalBorsh(w *Writer) error
}

// Unmarshaler decodes itself from the reader's cursor.
type Unmarshaler interface {
	UnmarshalBorsh(r *Reader) error
}

// Marshal encodes v into a new buffer of exactly v.Len() bytes.
func Marshal(v Value) ([]byte, error) {
	buf := make([]byte, v.Len())
	w := NewWriter(buf)
	if err := v.MarshalBorsh(w); err != nil {
		return nil, err
	}
	if w.Offset() != len(buf) {
		return nil, errors.Wrapf(ErrLengthMismatch, "%T reported %d bytes, wrote %d", v, len(buf), w.Offset())
	}
	return buf, nil
}

// MarshalInto encodes v into buf at off and returns the number of bytes written.
func MarshalInto(buf []byte, off int, v Value) (int, error) {
	w := NewWriter(buf)
	w.off = off
	if err := v.MarshalBorsh(w); err != nil {
		return 0, err
	}
	n := w.Offset() - off
	if n != v.Len() {
		return 0, errors.Wrapf(ErrLengthMismatch, "%T reported %d bytes, wrote %d", v, v.Len(), n)
	}
	return n, nil
}

// Unmarshal decodes v from the start of data. Trailing bytes are ignored,
// since account buffers are commonly larger than the record they hold.
func Unmarshal(data []byte, v Unmarshaler) error {
	return v.UnmarshalBorsh(NewReader(data))
}

// UnmarshalStrict decodes v and fails unless data is consumed exactly.
func UnmarshalStrict(data []byte, v Unmarshaler) error {
	r := NewReader(data)
	if err := v.UnmarshalBorsh(r); err != nil {
		return err
	}
	if r.Remaining() != 0 {
		return errors.Wrapf(ErrTrailingBytes, "%d bytes left after %T", r.Remaining(), v)
	}
	return nil
}

// WriteValue writes v. It adapts records to the element writers taken by
// the collection helpers.
func WriteValue[T Value](w *Writer, v T) error {
	return v.MarshalBorsh(w)
}

// ReadValue decodes a new T. The pointer type parameter is inferred, so
// ReadValue[Creator] is a valid element reader.
func ReadValue[T any, PT interface {
	*T
	Unmarshaler
}](r *Reader) (T, error) {
	var v T
	if err := PT(&v).UnmarshalBorsh(r); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// ValueLen returns v.Len().
func ValueLen[T Value](v T) int {
	return v.Len()
}

// Fixed returns a length function for elements of constant width.
func Fixed[T any](n int) func(T) int {
	return func(T) int { return n }
}

// Empty is the zero-size value used for instructions that take no
// arguments.
type Empty struct{}

func (Empty) Len() int { return 0 }

func (Empty) MarshalBorsh(*Writer) error { return nil }

func (*Empty) UnmarshalBorsh(*Reader) error { return nil }
