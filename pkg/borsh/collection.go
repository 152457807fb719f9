package borsh

import (
	"github.com/cockroachdb/errors"
)

// Element codecs have the shape of the Writer and Reader method expressions,
// e.g. (*Writer).WriteUint64 and (*Reader).ReadUint64, or WriteValue and
// ReadValue for records.

// WriteVector writes a u32 count followed by each element.
func WriteVector[T any](w *Writer, elems []T, write func(*Writer, T) error) error {
	if err := w.WriteUint32(uint32(len(elems))); err != nil {
		return err
	}
	for _, e := range elems {
		if err := write(w, e); err != nil {
			return err
		}
	}
	return nil
}

// ReadVector reads a u32 count followed by that many elements. Elements are
// assumed to take at least one byte each, which bounds the allocation by
// the remaining input.
func ReadVector[T any](r *Reader, read func(*Reader) (T, error)) ([]T, error) {
	n, err := r.ReadLength(1)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		e, err := read(r)
		if err != nil {
			return nil, errors.Wrapf(err, "vector element %d", i)
		}
		out = append(out, e)
	}
	return out, nil
}

// VectorLen returns 4 plus the encoded length of every element.
func VectorLen[T any](elems []T, elemLen func(T) int) int {
	n := Uint32Size
	for _, e := range elems {
		n += elemLen(e)
	}
	return n
}

// WriteValues writes a vector of records.
func WriteValues[T Value](w *Writer, elems []T) error {
	return WriteVector(w, elems, WriteValue[T])
}

// ReadValues reads a vector of records written by WriteValues.
func ReadValues[T any, PT interface {
	*T
	Unmarshaler
}](r *Reader) ([]T, error) {
	return ReadVector(r, ReadValue[T, PT])
}

// ValuesLen returns the encoded length of a vector of records.
func ValuesLen[T Value](elems []T) int {
	return VectorLen(elems, ValueLen[T])
}

// WriteOptional writes 0 for a nil v, or 1 followed by *v.
func WriteOptional[T any](w *Writer, v *T, write func(*Writer, T) error) error {
	if v == nil {
		return w.WriteUint8(0)
	}
	if err := w.WriteUint8(1); err != nil {
		return err
	}
	return write(w, *v)
}

// ReadOptional reads a presence flag and, when set, the payload. An absent
// value consumes exactly one byte and yields nil.
func ReadOptional[T any](r *Reader, read func(*Reader) (T, error)) (*T, error) {
	flag, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	switch flag {
	case 0:
		return nil, nil
	case 1:
		v, err := read(r)
		if err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, errors.Wrapf(ErrInvalidOption, "flag %#x at offset %d", flag, r.Offset()-1)
	}
}

// OptionalLen returns 1 for nil, otherwise 1 plus the payload length.
func OptionalLen[T any](v *T, elemLen func(T) int) int {
	if v == nil {
		return 1
	}
	return 1 + elemLen(*v)
}

// WriteArray writes exactly n elements with no prefix.
func WriteArray[T any](w *Writer, elems []T, n int, write func(*Writer, T) error) error {
	if len(elems) != n {
		return errors.Wrapf(ErrLengthMismatch, "array needs %d elements, got %d", n, len(elems))
	}
	for _, e := range elems {
		if err := write(w, e); err != nil {
			return err
		}
	}
	return nil
}

// ReadArray reads exactly n elements.
func ReadArray[T any](r *Reader, n int, read func(*Reader) (T, error)) ([]T, error) {
	out := make([]T, 0, min(n, r.Remaining()))
	for i := 0; i < n; i++ {
		e, err := read(r)
		if err != nil {
			return nil, errors.Wrapf(err, "array element %d", i)
		}
		out = append(out, e)
	}
	return out, nil
}

// WriteByteVectors writes a u32 count followed by fixed-width byte
// elements, such as the 32-byte nodes of a Merkle proof.
func WriteByteVectors(w *Writer, vs [][]byte, width int) error {
	for i, v := range vs {
		if len(v) != width {
			return errors.Wrapf(ErrElementWidth, "element %d is %d bytes, want %d", i, len(v), width)
		}
	}
	return WriteVector(w, vs, (*Writer).WriteRaw)
}

// ReadByteVectors reads a u32 count of width-byte elements.
func ReadByteVectors(r *Reader, width int) ([][]byte, error) {
	if width <= 0 {
		return nil, errors.Wrapf(ErrElementWidth, "width %d", width)
	}
	n, err := r.ReadLength(width)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, n)
	for i := range out {
		if out[i], err = r.ReadRaw(width); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ByteVectorsLen returns 4 + len(vs)*width.
func ByteVectorsLen(vs [][]byte, width int) int {
	return Uint32Size + len(vs)*width
}

// ByteVecLen returns the encoded length of a Vec<u8>.
func ByteVecLen(b []byte) int {
	return Uint32Size + len(b)
}

// StringLen returns the encoded length of a string.
func StringLen(s string) int {
	return Uint32Size + len(s)
}
