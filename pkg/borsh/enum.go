package borsh

import (
	"github.com/cockroachdb/errors"
)

// WriteEnum writes the ordinal of a payload-free enum as one byte.
func WriteEnum[E ~uint8](w *Writer, e E) error {
	return w.WriteUint8(uint8(e))
}

// ReadEnum reads a payload-free enum with count variants. Ordinals outside
// [0, count) fail with an *UnknownOrdinalError.
func ReadEnum[E ~uint8](r *Reader, name string, count int) (E, error) {
	b, err := r.ReadUint8()
	if err != nil {
		return 0, err
	}
	if int(b) >= count {
		return 0, &UnknownOrdinalError{Type: name, Ordinal: b}
	}
	return E(b), nil
}

// Variant is one arm of a tagged union: an ordinal byte followed by a
// payload whose shape is fixed by the ordinal.
type Variant interface {
	Ordinal() uint8
	// PayloadLen is the encoded payload length, excluding the ordinal.
	PayloadLen() int
	MarshalPayload(w *Writer) error
}

// WriteVariant writes the ordinal and then the payload.
func WriteVariant(w *Writer, v Variant) error {
	if err := w.WriteUint8(v.Ordinal()); err != nil {
		return err
	}
	return v.MarshalPayload(w)
}

// VariantLen returns 1 + v.PayloadLen().
func VariantLen(v Variant) int {
	return Uint8Size + v.PayloadLen()
}

// Union is the closed ordinal table of a tagged union. The decoder at index
// i builds variant i from its payload; any ordinal outside the table is a
// decode failure, never a fallback.
type Union[T any] struct {
	name     string
	decoders []func(*Reader) (T, error)
}

// NewUnion builds a union named name whose variants are decoded by
// decoders, in ordinal order.
func NewUnion[T any](name string, decoders ...func(*Reader) (T, error)) *Union[T] {
	return &Union[T]{name: name, decoders: decoders}
}

// Name returns the union's type name.
func (u *Union[T]) Name() string {
	return u.name
}

// Variants returns the number of variants.
func (u *Union[T]) Variants() int {
	return len(u.decoders)
}

// Read decodes one variant.
func (u *Union[T]) Read(r *Reader) (T, error) {
	var zero T
	ord, err := r.ReadUint8()
	if err != nil {
		return zero, err
	}
	if int(ord) >= len(u.decoders) || u.decoders[ord] == nil {
		return zero, &UnknownOrdinalError{Type: u.name, Ordinal: ord}
	}
	v, err := u.decoders[ord](r)
	if err != nil {
		return zero, errors.Wrapf(err, "%s variant %d", u.name, ord)
	}
	return v, nil
}

// Decode decodes one variant from the start of data.
func (u *Union[T]) Decode(data []byte) (T, error) {
	return u.Read(NewReader(data))
}

// Unit returns a decoder for a variant without payload.
func Unit[T any](v T) func(*Reader) (T, error) {
	return func(*Reader) (T, error) { return v, nil }
}

// Payload returns a decoder for a variant whose payload is a record.
func Payload[T any, V any, PV interface {
	*V
	Unmarshaler
}](wrap func(V) T) func(*Reader) (T, error) {
	return func(r *Reader) (T, error) {
		v, err := ReadValue[V, PV](r)
		if err != nil {
			var zero T
			return zero, err
		}
		return wrap(v), nil
	}
}

// COptionTagSize is the width of the C-style option tag used by SPL
// program state.
const COptionTagSize = 4

// WriteCOption writes a C-style option: a u32 tag of 0 or 1 followed by a
// payload slot of size bytes, zeroed when v is nil.
func WriteCOption[T any](w *Writer, v *T, size int, write func(*Writer, T) error) error {
	if v == nil {
		if err := w.WriteUint32(0); err != nil {
			return err
		}
		return w.WriteZeros(size)
	}
	if err := w.WriteUint32(1); err != nil {
		return err
	}
	start := w.Offset()
	if err := write(w, *v); err != nil {
		return err
	}
	if n := w.Offset() - start; n != size {
		return errors.Wrapf(ErrElementWidth, "coption payload is %d bytes, want %d", n, size)
	}
	return nil
}

// ReadCOption reads a C-style option with a payload slot of size bytes.
func ReadCOption[T any](r *Reader, size int, read func(*Reader) (T, error)) (*T, error) {
	tag, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, r.Skip(size)
	case 1:
		v, err := read(r)
		if err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, errors.Wrapf(ErrInvalidOption, "coption tag %d at offset %d", tag, r.Offset()-COptionTagSize)
	}
}

// COptionLen returns the fixed width of a C-style option.
func COptionLen(size int) int {
	return COptionTagSize + size
}
