// Package encoding converts account data between raw bytes and the text
// encodings used when account state is exchanged with nodes: base58,
// base64 and zstd-compressed base64.
package encoding

import (
	"encoding/base64"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/mr-tron/base58"
)

// Encoding names account data encodings.
type Encoding string

// Supported encodings
const (
	Base58     Encoding = "base58"
	Base64     Encoding = "base64"
	Base64Zstd Encoding = "base64+zstd"
)

// MaxBase58Len is the largest payload encoded as base58; base58 is
// quadratic and nodes refuse it for larger accounts.
const MaxBase58Len = 128

// MaxDecodedLen bounds zstd decompression (10 MiB, the account size limit).
const MaxDecodedLen = 10 << 20

// ErrUnsupportedEncoding is returned for unknown encoding names.
var ErrUnsupportedEncoding = errors.New("encoding: unsupported encoding")

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil)
		if zstdErr != nil {
			return
		}
		zstdDec, zstdErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderMaxMemory(MaxDecodedLen),
		)
	})
	return zstdEnc, zstdDec, zstdErr
}

// Parse validates an encoding name. The empty string means base64.
func Parse(s string) (Encoding, error) {
	switch e := Encoding(s); e {
	case Base58, Base64, Base64Zstd:
		return e, nil
	case "":
		return Base64, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedEncoding, "%q", s)
	}
}

// Encode encodes account data.
func Encode(data []byte, enc Encoding) (string, error) {
	switch enc {
	case Base58:
		if len(data) > MaxBase58Len {
			return "", errors.Newf("data too large for base58 encoding (%d bytes), use base64", len(data))
		}
		return base58.Encode(data), nil

	case Base64, "":
		return base64.StdEncoding.EncodeToString(data), nil

	case Base64Zstd:
		zenc, _, err := codecs()
		if err != nil {
			return "", errors.Wrap(err, "init zstd")
		}
		return base64.StdEncoding.EncodeToString(zenc.EncodeAll(data, nil)), nil

	default:
		return "", errors.Wrapf(ErrUnsupportedEncoding, "%q", enc)
	}
}

// Decode decodes account data.
func Decode(encoded string, enc Encoding) ([]byte, error) {
	switch enc {
	case Base58:
		b, err := base58.Decode(encoded)
		if err != nil {
			return nil, errors.Wrap(err, "decode base58")
		}
		return b, nil

	case Base64, "":
		b, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, errors.Wrap(err, "decode base64")
		}
		return b, nil

	case Base64Zstd:
		compressed, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, errors.Wrap(err, "decode base64")
		}
		_, zdec, err := codecs()
		if err != nil {
			return nil, errors.Wrap(err, "init zstd")
		}
		b, err := zdec.DecodeAll(compressed, nil)
		if err != nil {
			return nil, errors.Wrap(err, "decompress zstd")
		}
		return b, nil

	default:
		return nil, errors.Wrapf(ErrUnsupportedEncoding, "%q", enc)
	}
}

// DecodeTuple decodes the [data, encoding] pair nodes return for account
// data.
func DecodeTuple(pair []string) ([]byte, error) {
	if len(pair) != 2 {
		return nil, errors.Newf("account data tuple must have 2 elements, got %d", len(pair))
	}
	enc, err := Parse(pair[1])
	if err != nil {
		return nil, err
	}
	return Decode(pair[0], enc)
}

// DataSlice selects a window of account data.
type DataSlice struct {
	Offset uint64 `json:"offset" yaml:"offset"`
	Length uint64 `json:"length" yaml:"length"`
}

// SliceData returns a slice of data based on offset and length.
// Returns the full data if slice is nil.
func SliceData(data []byte, slice *DataSlice) []byte {
	if slice == nil {
		return data
	}

	dataLen := uint64(len(data))
	if slice.Offset >= dataLen {
		return []byte{}
	}
	end := min(slice.Offset+slice.Length, dataLen)
	return data[slice.Offset:end]
}
