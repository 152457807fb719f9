package borsh

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Codec errors. Every failure returned by this package wraps one of these,
// so callers match with errors.Is.
var (
	// ErrBufferUnderrun is returned when a read or write would cross the end
	// of the buffer. Short input is never zero-padded.
	ErrBufferUnderrun = errors.New("borsh: buffer underrun")

	// ErrUnknownOrdinal is returned when an enum or tagged-union ordinal has
	// no variant.
	ErrUnknownOrdinal = errors.New("borsh: unknown ordinal")

	// ErrInvalidBool is returned when a bool byte is neither 0 nor 1.
	ErrInvalidBool = errors.New("borsh: invalid bool")

	// ErrInvalidOption is returned when an option presence flag is neither 0 nor 1.
	ErrInvalidOption = errors.New("borsh: invalid option flag")

	// ErrOverflow is returned when a 128-bit value does not fit its type.
	ErrOverflow = errors.New("borsh: integer overflow")

	// ErrElementWidth is returned when a fixed-width element has the wrong size.
	ErrElementWidth = errors.New("borsh: element width mismatch")

	// ErrLengthMismatch is returned when a value writes a different number
	// of bytes than it reports, or a fixed array has the wrong count.
	ErrLengthMismatch = errors.New("borsh: length mismatch")

	// ErrTrailingBytes is returned by UnmarshalStrict when input remains.
	ErrTrailingBytes = errors.New("borsh: trailing bytes")

	// ErrInvalidUTF8 is returned when a string is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("borsh: invalid utf-8 string")
)

// UnknownOrdinalError reports the enum type and the offending ordinal.
type UnknownOrdinalError struct {
	Type    string
	Ordinal uint8
}

func (e *UnknownOrdinalError) Error() string {
	return fmt.Sprintf("borsh: unknown ordinal %d for %s", e.Ordinal, e.Type)
}

// Unwrap makes the error match ErrUnknownOrdinal.
func (e *UnknownOrdinalError) Unwrap() error {
	return ErrUnknownOrdinal
}

func underrun(op string, need, off, size int) error {
	return errors.Wrapf(ErrBufferUnderrun, "%s needs %d bytes at offset %d, buffer has %d", op, need, off, size)
}
