package borsh

import (
	"math/big"

	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Writer is a cursor over a fixed, caller-sized buffer. Writes never grow
// the buffer: encoding more bytes than it holds fails with ErrBufferUnderrun.
type Writer struct {
	buf []byte
	off int
}

// NewWriter returns a Writer positioned at the start of buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int {
	return w.off
}

// Available returns the number of bytes left in the buffer.
func (w *Writer) Available() int {
	return len(w.buf) - w.off
}

// Bytes returns the written prefix of the buffer.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.off]
}

func (w *Writer) advance(n int, err error) error {
	if err != nil {
		return err
	}
	w.off += n
	return nil
}

func (w *Writer) WriteUint8(v uint8) error {
	return w.advance(PutUint8(w.buf, w.off, v))
}

func (w *Writer) WriteUint16(v uint16) error {
	return w.advance(PutUint16(w.buf, w.off, v))
}

func (w *Writer) WriteUint32(v uint32) error {
	return w.advance(PutUint32(w.buf, w.off, v))
}

func (w *Writer) WriteUint64(v uint64) error {
	return w.advance(PutUint64(w.buf, w.off, v))
}

func (w *Writer) WriteUint128(v *big.Int) error {
	return w.advance(PutUint128(w.buf, w.off, v))
}

func (w *Writer) WriteInt8(v int8) error {
	return w.advance(PutInt8(w.buf, w.off, v))
}

func (w *Writer) WriteInt16(v int16) error {
	return w.advance(PutInt16(w.buf, w.off, v))
}

func (w *Writer) WriteInt32(v int32) error {
	return w.advance(PutInt32(w.buf, w.off, v))
}

func (w *Writer) WriteInt64(v int64) error {
	return w.advance(PutInt64(w.buf, w.off, v))
}

func (w *Writer) WriteInt128(v *big.Int) error {
	return w.advance(PutInt128(w.buf, w.off, v))
}

func (w *Writer) WriteBool(v bool) error {
	return w.advance(PutBool(w.buf, w.off, v))
}

func (w *Writer) WriteFloat32(v float32) error {
	return w.advance(PutFloat32(w.buf, w.off, v))
}

func (w *Writer) WriteFloat64(v float64) error {
	return w.advance(PutFloat64(w.buf, w.off, v))
}

func (w *Writer) WritePublicKey(pk types.Pubkey) error {
	return w.advance(PutPublicKey(w.buf, w.off, pk))
}

// WriteRaw copies b with no length prefix. Fixed byte arrays use it.
func (w *Writer) WriteRaw(b []byte) error {
	if err := check("raw", w.buf, w.off, len(b)); err != nil {
		return err
	}
	w.off += copy(w.buf[w.off:], b)
	return nil
}

// WriteZeros writes n zero bytes, used for padding and empty COption slots.
func (w *Writer) WriteZeros(n int) error {
	if err := check("padding", w.buf, w.off, n); err != nil {
		return err
	}
	clear(w.buf[w.off : w.off+n])
	w.off += n
	return nil
}

// WriteByteVec writes a u32 length followed by b.
func (w *Writer) WriteByteVec(b []byte) error {
	if err := check("bytes", w.buf, w.off, Uint32Size+len(b)); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(len(b))); err != nil {
		return err
	}
	return w.WriteRaw(b)
}

// WriteString writes a u32 byte length followed by the UTF-8 bytes of s.
func (w *Writer) WriteString(s string) error {
	return w.WriteByteVec([]byte(s))
}
