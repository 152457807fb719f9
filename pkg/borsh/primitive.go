package borsh

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Primitive sizes in bytes.
const (
	BoolSize    = 1
	Uint8Size   = 1
	Uint16Size  = 2
	Uint32Size  = 4
	Uint64Size  = 8
	Uint128Size = 16
	PubkeySize  = types.PubkeySize
)

// The offset functions below are the primitive contract: Put* writes v into
// buf at off and returns the number of bytes written, the getters read a
// value at off. All integers are little-endian.

func check(op string, buf []byte, off, n int) error {
	if off < 0 || n > len(buf)-off {
		return underrun(op, n, off, len(buf))
	}
	return nil
}

// PutUint8 writes v at off.
func PutUint8(buf []byte, off int, v uint8) (int, error) {
	if err := check("u8", buf, off, Uint8Size); err != nil {
		return 0, err
	}
	buf[off] = v
	return Uint8Size, nil
}

// Uint8 reads a u8 at off.
func Uint8(buf []byte, off int) (uint8, error) {
	if err := check("u8", buf, off, Uint8Size); err != nil {
		return 0, err
	}
	return buf[off], nil
}

// PutUint16 writes v at off.
func PutUint16(buf []byte, off int, v uint16) (int, error) {
	if err := check("u16", buf, off, Uint16Size); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint16(buf[off:], v)
	return Uint16Size, nil
}

// Uint16 reads a u16 at off.
func Uint16(buf []byte, off int) (uint16, error) {
	if err := check("u16", buf, off, Uint16Size); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[off:]), nil
}

// PutUint32 writes v at off.
func PutUint32(buf []byte, off int, v uint32) (int, error) {
	if err := check("u32", buf, off, Uint32Size); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint32(buf[off:], v)
	return Uint32Size, nil
}

// Uint32 reads a u32 at off.
func Uint32(buf []byte, off int) (uint32, error) {
	if err := check("u32", buf, off, Uint32Size); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[off:]), nil
}

// PutUint64 writes v at off.
func PutUint64(buf []byte, off int, v uint64) (int, error) {
	if err := check("u64", buf, off, Uint64Size); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint64(buf[off:], v)
	return Uint64Size, nil
}

// Uint64 reads a u64 at off.
func Uint64(buf []byte, off int) (uint64, error) {
	if err := check("u64", buf, off, Uint64Size); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[off:]), nil
}

// PutInt8 writes v at off.
func PutInt8(buf []byte, off int, v int8) (int, error) {
	return PutUint8(buf, off, uint8(v))
}

// Int8 reads an i8 at off.
func Int8(buf []byte, off int) (int8, error) {
	v, err := Uint8(buf, off)
	return int8(v), err
}

// PutInt16 writes v at off.
func PutInt16(buf []byte, off int, v int16) (int, error) {
	return PutUint16(buf, off, uint16(v))
}

// Int16 reads an i16 at off.
func Int16(buf []byte, off int) (int16, error) {
	v, err := Uint16(buf, off)
	return int16(v), err
}

// PutInt32 writes v at off.
func PutInt32(buf []byte, off int, v int32) (int, error) {
	return PutUint32(buf, off, uint32(v))
}

// Int32 reads an i32 at off.
func Int32(buf []byte, off int) (int32, error) {
	v, err := Uint32(buf, off)
	return int32(v), err
}

// PutInt64 writes v at off.
func PutInt64(buf []byte, off int, v int64) (int, error) {
	return PutUint64(buf, off, uint64(v))
}

// Int64 reads an i64 at off.
func Int64(buf []byte, off int) (int64, error) {
	v, err := Uint64(buf, off)
	return int64(v), err
}

// PutBool writes v as a single 0 or 1 byte.
func PutBool(buf []byte, off int, v bool) (int, error) {
	var b uint8
	if v {
		b = 1
	}
	return PutUint8(buf, off, b)
}

// Bool reads a bool at off. Bytes other than 0 and 1 are rejected.
func Bool(buf []byte, off int) (bool, error) {
	b, err := Uint8(buf, off)
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Wrapf(ErrInvalidBool, "byte %#x at offset %d", b, off)
	}
}

// PutFloat32 writes the IEEE 754 bits of v at off.
func PutFloat32(buf []byte, off int, v float32) (int, error) {
	return PutUint32(buf, off, math.Float32bits(v))
}

// Float32 reads an f32 at off.
func Float32(buf []byte, off int) (float32, error) {
	v, err := Uint32(buf, off)
	return math.Float32frombits(v), err
}

// PutFloat64 writes the IEEE 754 bits of v at off.
func PutFloat64(buf []byte, off int, v float64) (int, error) {
	return PutUint64(buf, off, math.Float64bits(v))
}

// Float64 reads an f64 at off.
func Float64(buf []byte, off int) (float64, error) {
	v, err := Uint64(buf, off)
	return math.Float64frombits(v), err
}

// PutPublicKey writes the 32 raw key bytes at off, with no length prefix.
func PutPublicKey(buf []byte, off int, pk types.Pubkey) (int, error) {
	if err := check("pubkey", buf, off, PubkeySize); err != nil {
		return 0, err
	}
	copy(buf[off:], pk[:])
	return PubkeySize, nil
}

// PublicKey reads a 32-byte key at off.
func PublicKey(buf []byte, off int) (types.Pubkey, error) {
	var pk types.Pubkey
	if err := check("pubkey", buf, off, PubkeySize); err != nil {
		return pk, err
	}
	copy(pk[:], buf[off:off+PubkeySize])
	return pk, nil
}

var (
	mask64     = new(big.Int).SetUint64(math.MaxUint64)
	two128     = new(big.Int).Lsh(big.NewInt(1), 128)
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxUint128 = new(big.Int).Sub(two128, big.NewInt(1))
)

func putHalves(buf []byte, off int, v *big.Int) {
	lo := new(big.Int).And(v, mask64).Uint64()
	hi := new(big.Int).Rsh(v, 64).Uint64()
	binary.LittleEndian.PutUint64(buf[off:], lo)
	binary.LittleEndian.PutUint64(buf[off+8:], hi)
}

func halves(buf []byte, off int) *big.Int {
	lo := binary.LittleEndian.Uint64(buf[off:])
	hi := binary.LittleEndian.Uint64(buf[off+8:])
	v := new(big.Int).SetUint64(hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(lo))
}

// PutUint128 writes v as a u128 at off: low 64 bits first, then high 64
// bits. A nil v writes zero.
func PutUint128(buf []byte, off int, v *big.Int) (int, error) {
	if err := check("u128", buf, off, Uint128Size); err != nil {
		return 0, err
	}
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 || v.Cmp(maxUint128) > 0 {
		return 0, errors.Wrapf(ErrOverflow, "%s does not fit u128", v)
	}
	putHalves(buf, off, v)
	return Uint128Size, nil
}

// Uint128 reads a u128 at off.
func Uint128(buf []byte, off int) (*big.Int, error) {
	if err := check("u128", buf, off, Uint128Size); err != nil {
		return nil, err
	}
	return halves(buf, off), nil
}

// PutInt128 writes v as a two's complement i128 at off.
func PutInt128(buf []byte, off int, v *big.Int) (int, error) {
	if err := check("i128", buf, off, Uint128Size); err != nil {
		return 0, err
	}
	if v == nil {
		v = new(big.Int)
	}
	if v.Cmp(minInt128) < 0 || v.Cmp(maxInt128) > 0 {
		return 0, errors.Wrapf(ErrOverflow, "%s does not fit i128", v)
	}
	u := v
	if v.Sign() < 0 {
		u = new(big.Int).Add(v, two128)
	}
	putHalves(buf, off, u)
	return Uint128Size, nil
}

// Int128 reads an i128 at off.
func Int128(buf []byte, off int) (*big.Int, error) {
	if err := check("i128", buf, off, Uint128Size); err != nil {
		return nil, err
	}
	v := halves(buf, off)
	if v.Cmp(maxInt128) > 0 {
		v.Sub(v, two128)
	}
	return v, nil
}
