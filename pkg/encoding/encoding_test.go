package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte{0, 1, 2, 3, 0xff}, 40)

	for _, enc := range []Encoding{Base64, Base64Zstd} {
		s, err := Encode(data, enc)
		require.NoError(t, err, enc)
		got, err := Decode(s, enc)
		require.NoError(t, err, enc)
		assert.Equal(t, data, got, enc)
	}

	small := data[:32]
	s, err := Encode(small, Base58)
	require.NoError(t, err)
	got, err := Decode(s, Base58)
	require.NoError(t, err)
	assert.Equal(t, small, got)
}

func TestZstdCompresses(t *testing.T) {
	data := make([]byte, 4096)
	plain, err := Encode(data, Base64)
	require.NoError(t, err)
	packed, err := Encode(data, Base64Zstd)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(plain))
}

func TestBase58TooLarge(t *testing.T) {
	_, err := Encode(make([]byte, MaxBase58Len+1), Base58)
	require.Error(t, err)
}

func TestUnsupported(t *testing.T) {
	_, err := Parse("jsonParsed")
	require.ErrorIs(t, err, ErrUnsupportedEncoding)
	_, err = Decode("", "hex")
	require.ErrorIs(t, err, ErrUnsupportedEncoding)

	enc, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, Base64, enc)
}

func TestDecodeTuple(t *testing.T) {
	got, err := DecodeTuple([]string{"AQID", "base64"})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	_, err = DecodeTuple([]string{"AQID"})
	require.Error(t, err)

	_, err = DecodeTuple([]string{"not base64!", "base64+zstd"})
	require.Error(t, err)
}

func TestSliceData(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5}
	assert.Equal(t, data, SliceData(data, nil))
	assert.Equal(t, []byte{2, 3}, SliceData(data, &DataSlice{Offset: 2, Length: 2}))
	assert.Equal(t, []byte{4, 5}, SliceData(data, &DataSlice{Offset: 4, Length: 10}))
	assert.Empty(t, SliceData(data, &DataSlice{Offset: 6, Length: 1}))
}
