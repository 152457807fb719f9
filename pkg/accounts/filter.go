package accounts

import (
	"bytes"

	"github.com/sava-software/anchor-programs-sub010/pkg/discriminator"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Filter selects accounts by their raw data, mirroring the data size and
// memcmp filters nodes accept for program account queries.
type Filter interface {
	Matches(data []byte) bool
}

// DataSizeFilter matches accounts whose data is exactly Size bytes.
type DataSizeFilter struct {
	Size int
}

func (f DataSizeFilter) Matches(data []byte) bool {
	return len(data) == f.Size
}

// MemcmpFilter matches accounts whose data contains Bytes at Offset.
type MemcmpFilter struct {
	Offset int
	Bytes  []byte
}

func (f MemcmpFilter) Matches(data []byte) bool {
	if f.Offset < 0 || f.Offset+len(f.Bytes) > len(data) {
		return false
	}
	return bytes.Equal(data[f.Offset:f.Offset+len(f.Bytes)], f.Bytes)
}

// NewDataSizeFilter returns a filter on the exact data length.
func NewDataSizeFilter(size int) Filter {
	return DataSizeFilter{Size: size}
}

// NewMemcmpFilter returns a filter on raw bytes at offset.
func NewMemcmpFilter(offset int, b []byte) Filter {
	return MemcmpFilter{Offset: offset, Bytes: bytes.Clone(b)}
}

// NewPubkeyFilter returns a filter on a public key field at offset.
func NewPubkeyFilter(offset int, pk types.Pubkey) Filter {
	return NewMemcmpFilter(offset, pk[:])
}

// NewDiscriminatorFilter matches accounts of one Anchor account type.
func NewDiscriminatorFilter(d discriminator.Discriminator) Filter {
	return NewMemcmpFilter(0, d[:])
}

func matchAll(data []byte, filters []Filter) bool {
	for _, f := range filters {
		if !f.Matches(data) {
			return false
		}
	}
	return true
}
