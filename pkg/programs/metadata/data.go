package metadata

import (
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Limits enforced by the program on metadata fields.
const (
	MaxNameLength           = 32
	MaxSymbolLength         = 10
	MaxURILength            = 200
	MaxCreatorLimit         = 5
	MaxSellerFeeBasisPoints = 10_000
)

// ErrInvalidData is returned by DataV2Config.Build.
var ErrInvalidData = errors.New("metadata: invalid data")

// Creator is one royalty recipient.
type Creator struct {
	Address  types.Pubkey
	Verified bool
	Share    uint8 // percentage of the royalties
}

const creatorSize = borsh.PubkeySize + 2

func (c Creator) Len() int { return creatorSize }

func (c Creator) MarshalBorsh(w *borsh.Writer) error {
	if err := w.WritePublicKey(c.Address); err != nil {
		return err
	}
	if err := w.WriteBool(c.Verified); err != nil {
		return err
	}
	return w.WriteUint8(c.Share)
}

func (c *Creator) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if c.Address, err = r.ReadPublicKey(); err != nil {
		return err
	}
	if c.Verified, err = r.ReadBool(); err != nil {
		return err
	}
	c.Share, err = r.ReadUint8()
	return err
}

// Collection links an asset to its collection mint.
type Collection struct {
	Verified bool
	Key      types.Pubkey
}

const collectionSize = 1 + borsh.PubkeySize

func (c Collection) Len() int { return collectionSize }

func (c Collection) MarshalBorsh(w *borsh.Writer) error {
	if err := w.WriteBool(c.Verified); err != nil {
		return err
	}
	return w.WritePublicKey(c.Key)
}

func (c *Collection) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if c.Verified, err = r.ReadBool(); err != nil {
		return err
	}
	c.Key, err = r.ReadPublicKey()
	return err
}

// UseMethod is how a use of an asset is consumed.
type UseMethod uint8

const (
	UseMethodBurn UseMethod = iota
	UseMethodMultiple
	UseMethodSingle

	useMethodCount = iota
)

func (m UseMethod) String() string {
	switch m {
	case UseMethodBurn:
		return "Burn"
	case UseMethodMultiple:
		return "Multiple"
	case UseMethodSingle:
		return "Single"
	}
	return "Unknown"
}

// Uses tracks the remaining uses of an asset.
type Uses struct {
	UseMethod UseMethod
	Remaining uint64
	Total     uint64
}

const usesSize = 1 + 2*borsh.Uint64Size

func (u Uses) Len() int { return usesSize }

func (u Uses) MarshalBorsh(w *borsh.Writer) error {
	if err := borsh.WriteEnum(w, u.UseMethod); err != nil {
		return err
	}
	if err := w.WriteUint64(u.Remaining); err != nil {
		return err
	}
	return w.WriteUint64(u.Total)
}

func (u *Uses) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if u.UseMethod, err = borsh.ReadEnum[UseMethod](r, "UseMethod", useMethodCount); err != nil {
		return err
	}
	if u.Remaining, err = r.ReadUint64(); err != nil {
		return err
	}
	u.Total, err = r.ReadUint64()
	return err
}

// Data is the descriptive part of a metadata account. A nil Creators is
// encoded as an absent option; a non-nil empty slice as a present, empty
// vector.
type Data struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
}

func creatorsLen(cs []Creator) int {
	if cs == nil {
		return 1
	}
	return 1 + borsh.ValuesLen(cs)
}

func writeCreators(w *borsh.Writer, cs []Creator) error {
	if cs == nil {
		return w.WriteUint8(0)
	}
	if err := w.WriteUint8(1); err != nil {
		return err
	}
	return borsh.WriteValues(w, cs)
}

func readCreators(r *borsh.Reader) ([]Creator, error) {
	cs, err := borsh.ReadOptional(r, borsh.ReadValues[Creator])
	if err != nil || cs == nil {
		return nil, err
	}
	if *cs == nil {
		return []Creator{}, nil
	}
	return *cs, nil
}

func (d Data) Len() int {
	return borsh.StringLen(d.Name) + borsh.StringLen(d.Symbol) + borsh.StringLen(d.URI) +
		borsh.Uint16Size + creatorsLen(d.Creators)
}

func (d Data) MarshalBorsh(w *borsh.Writer) error {
	for _, s := range []string{d.Name, d.Symbol, d.URI} {
		if err := w.WriteString(s); err != nil {
			return err
		}
	}
	if err := w.WriteUint16(d.SellerFeeBasisPoints); err != nil {
		return err
	}
	return writeCreators(w, d.Creators)
}

func (d *Data) UnmarshalBorsh(r *borsh.Reader) (err error) {
	for _, s := range []*string{&d.Name, &d.Symbol, &d.URI} {
		if *s, err = r.ReadString(); err != nil {
			return err
		}
	}
	if d.SellerFeeBasisPoints, err = r.ReadUint16(); err != nil {
		return err
	}
	d.Creators, err = readCreators(r)
	return err
}

// Trimmed strips the NUL padding the program stores after name, symbol
// and uri.
func (d Data) Trimmed() Data {
	d.Name = strings.TrimRight(d.Name, "\x00")
	d.Symbol = strings.TrimRight(d.Symbol, "\x00")
	d.URI = strings.TrimRight(d.URI, "\x00")
	return d
}

// DataV2 is Data plus the collection and uses fields accepted by the
// V2 and V3 create instructions.
type DataV2 struct {
	Data
	Collection *Collection
	Uses       *Uses
}

func (d DataV2) Len() int {
	return d.Data.Len() +
		borsh.OptionalLen(d.Collection, borsh.Fixed[Collection](collectionSize)) +
		borsh.OptionalLen(d.Uses, borsh.Fixed[Uses](usesSize))
}

func (d DataV2) MarshalBorsh(w *borsh.Writer) error {
	if err := d.Data.MarshalBorsh(w); err != nil {
		return err
	}
	if err := borsh.WriteOptional(w, d.Collection, borsh.WriteValue[Collection]); err != nil {
		return err
	}
	return borsh.WriteOptional(w, d.Uses, borsh.WriteValue[Uses])
}

func (d *DataV2) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if err = d.Data.UnmarshalBorsh(r); err != nil {
		return err
	}
	if d.Collection, err = borsh.ReadOptional(r, borsh.ReadValue[Collection]); err != nil {
		return err
	}
	d.Uses, err = borsh.ReadOptional(r, borsh.ReadValue[Uses])
	return err
}

// DataV2Config collects the fields of a DataV2. Build checks them against
// the program's limits.
type DataV2Config struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
	Collection           *types.Pubkey // unverified collection mint
	Uses                 *Uses
}

// Build validates the configuration.
func (c DataV2Config) Build() (DataV2, error) {
	for _, f := range []struct {
		field, value string
		max          int
	}{
		{"name", c.Name, MaxNameLength},
		{"symbol", c.Symbol, MaxSymbolLength},
		{"uri", c.URI, MaxURILength},
	} {
		if len(f.value) > f.max {
			return DataV2{}, errors.Wrapf(ErrInvalidData, "%s is %d bytes, max %d", f.field, len(f.value), f.max)
		}
		if !utf8.ValidString(f.value) {
			return DataV2{}, errors.Wrapf(ErrInvalidData, "%s is not valid utf-8", f.field)
		}
	}
	if c.SellerFeeBasisPoints > MaxSellerFeeBasisPoints {
		return DataV2{}, errors.Wrapf(ErrInvalidData, "seller fee %d basis points", c.SellerFeeBasisPoints)
	}
	if err := checkCreators(c.Creators); err != nil {
		return DataV2{}, err
	}
	if c.Uses != nil {
		if c.Uses.UseMethod >= useMethodCount {
			return DataV2{}, errors.Wrapf(ErrInvalidData, "use method %d", c.Uses.UseMethod)
		}
		if c.Uses.Remaining > c.Uses.Total {
			return DataV2{}, errors.Wrapf(ErrInvalidData, "remaining uses %d exceed total %d", c.Uses.Remaining, c.Uses.Total)
		}
	}

	d := DataV2{
		Data: Data{
			Name:                 c.Name,
			Symbol:               c.Symbol,
			URI:                  c.URI,
			SellerFeeBasisPoints: c.SellerFeeBasisPoints,
			Creators:             c.Creators,
		},
		Uses: c.Uses,
	}
	if c.Collection != nil {
		d.Collection = &Collection{Key: *c.Collection}
	}
	return d, nil
}

func checkCreators(cs []Creator) error {
	if cs == nil {
		return nil
	}
	if len(cs) == 0 {
		return errors.Wrap(ErrInvalidData, "creators must be absent or non-empty")
	}
	if len(cs) > MaxCreatorLimit {
		return errors.Wrapf(ErrInvalidData, "%d creators, max %d", len(cs), MaxCreatorLimit)
	}
	seen := make(map[types.Pubkey]struct{}, len(cs))
	total := 0
	for _, c := range cs {
		if _, dup := seen[c.Address]; dup {
			return errors.Wrapf(ErrInvalidData, "duplicate creator %s", c.Address)
		}
		seen[c.Address] = struct{}{}
		total += int(c.Share)
	}
	if total != 100 {
		return errors.Wrapf(ErrInvalidData, "creator shares add up to %d", total)
	}
	return nil
}
