package borsh

import (
	"math/big"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Reader is a read cursor over an immutable input buffer. Byte slices it
// returns are copies, so decoded values never alias the input.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// NewReaderAt returns a Reader positioned at off.
func NewReaderAt(buf []byte, off int) *Reader {
	return &Reader{buf: buf, off: off}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := Uint8(r.buf, r.off)
	if err == nil {
		r.off += Uint8Size
	}
	return v, err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := Uint16(r.buf, r.off)
	if err == nil {
		r.off += Uint16Size
	}
	return v, err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := Uint32(r.buf, r.off)
	if err == nil {
		r.off += Uint32Size
	}
	return v, err
}

func (r *Reader) ReadUint64() (uint64, error) {
	v, err := Uint64(r.buf, r.off)
	if err == nil {
		r.off += Uint64Size
	}
	return v, err
}

func (r *Reader) ReadUint128() (*big.Int, error) {
	v, err := Uint128(r.buf, r.off)
	if err == nil {
		r.off += Uint128Size
	}
	return v, err
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadInt128() (*big.Int, error) {
	v, err := Int128(r.buf, r.off)
	if err == nil {
		r.off += Uint128Size
	}
	return v, err
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := Bool(r.buf, r.off)
	if err == nil {
		r.off += BoolSize
	}
	return v, err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := Float32(r.buf, r.off)
	if err == nil {
		r.off += Uint32Size
	}
	return v, err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := Float64(r.buf, r.off)
	if err == nil {
		r.off += Uint64Size
	}
	return v, err
}

func (r *Reader) ReadPublicKey() (types.Pubkey, error) {
	v, err := PublicKey(r.buf, r.off)
	if err == nil {
		r.off += PubkeySize
	}
	return v, err
}

// ReadRaw returns a copy of the next n bytes.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	if err := check("raw", r.buf, r.off, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	r.off += copy(out, r.buf[r.off:])
	return out, nil
}

// ReadInto fills dst from the input. Fixed byte arrays use it.
func (r *Reader) ReadInto(dst []byte) error {
	if err := check("raw", r.buf, r.off, len(dst)); err != nil {
		return err
	}
	r.off += copy(dst, r.buf[r.off:])
	return nil
}

// Skip advances past n bytes of padding.
func (r *Reader) Skip(n int) error {
	if err := check("padding", r.buf, r.off, n); err != nil {
		return err
	}
	r.off += n
	return nil
}

// ReadLength reads a u32 collection count and rejects counts that cannot
// fit in the remaining input when each element takes at least minElem bytes.
func (r *Reader) ReadLength(minElem int) (int, error) {
	start := r.off
	n, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	if minElem > 0 && uint64(n)*uint64(minElem) > uint64(r.Remaining()) {
		r.off = start
		return 0, underrun("vector", int(n)*minElem, r.off+Uint32Size, len(r.buf))
	}
	return int(n), nil
}

// ReadByteVec reads a u32 length followed by that many bytes.
func (r *Reader) ReadByteVec() ([]byte, error) {
	start := r.off
	n, err := r.ReadLength(1)
	if err != nil {
		return nil, err
	}
	b, err := r.ReadRaw(n)
	if err != nil {
		r.off = start
	}
	return b, err
}

// ReadString reads a u32 length followed by UTF-8 bytes.
func (r *Reader) ReadString() (string, error) {
	start := r.off
	b, err := r.ReadByteVec()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		r.off = start
		return "", errors.Wrapf(ErrInvalidUTF8, "string at offset %d", start)
	}
	return string(b), nil
}
