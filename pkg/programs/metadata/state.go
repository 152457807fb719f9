package metadata

import (
	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/accounts"
	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Key is the first byte of every account owned by the program and names
// its type.
type Key uint8

const (
	KeyUninitialized Key = iota
	KeyEditionV1
	KeyMasterEditionV1
	KeyReservationListV1
	KeyMetadataV1
	KeyReservationListV2
	KeyMasterEditionV2
	KeyEditionMarker
	KeyUseAuthorityRecord
	KeyCollectionAuthorityRecord
	KeyTokenOwnedEscrow
	KeyTokenRecord
	KeyMetadataDelegate
	KeyEditionMarkerV2
	KeyHolderDelegate

	keyCount = iota
)

var keyNames = [keyCount]string{
	"Uninitialized", "EditionV1", "MasterEditionV1", "ReservationListV1", "MetadataV1",
	"ReservationListV2", "MasterEditionV2", "EditionMarker", "UseAuthorityRecord",
	"CollectionAuthorityRecord", "TokenOwnedEscrow", "TokenRecord", "MetadataDelegate",
	"EditionMarkerV2", "HolderDelegate",
}

func (k Key) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return "Unknown"
}

// TokenStandard classifies the asset behind a metadata account.
type TokenStandard uint8

const (
	TokenStandardNonFungible TokenStandard = iota
	TokenStandardFungibleAsset
	TokenStandardFungible
	TokenStandardNonFungibleEdition
	TokenStandardProgrammableNonFungible
	TokenStandardProgrammableNonFungibleEdition

	tokenStandardCount = iota
)

func (s TokenStandard) String() string {
	switch s {
	case TokenStandardNonFungible:
		return "NonFungible"
	case TokenStandardFungibleAsset:
		return "FungibleAsset"
	case TokenStandardFungible:
		return "Fungible"
	case TokenStandardNonFungibleEdition:
		return "NonFungibleEdition"
	case TokenStandardProgrammableNonFungible:
		return "ProgrammableNonFungible"
	case TokenStandardProgrammableNonFungibleEdition:
		return "ProgrammableNonFungibleEdition"
	}
	return "Unknown"
}

// CollectionDetails is set on collection parent assets.
type CollectionDetails interface {
	borsh.Variant
	isCollectionDetails()
}

// CollectionDetailsV1 counts the verified members of a collection.
type CollectionDetailsV1 struct {
	Size uint64
}

func (CollectionDetailsV1) Ordinal() uint8       { return 0 }
func (CollectionDetailsV1) PayloadLen() int      { return borsh.Uint64Size }
func (CollectionDetailsV1) isCollectionDetails() {}
func (d CollectionDetailsV1) MarshalPayload(w *borsh.Writer) error {
	return w.WriteUint64(d.Size)
}
func (d *CollectionDetailsV1) UnmarshalBorsh(r *borsh.Reader) (err error) {
	d.Size, err = r.ReadUint64()
	return err
}

// CollectionDetailsV2 marks a collection whose size is no longer tracked.
type CollectionDetailsV2 struct {
	Padding [8]byte
}

func (CollectionDetailsV2) Ordinal() uint8       { return 1 }
func (CollectionDetailsV2) PayloadLen() int      { return 8 }
func (CollectionDetailsV2) isCollectionDetails() {}
func (d CollectionDetailsV2) MarshalPayload(w *borsh.Writer) error {
	return w.WriteRaw(d.Padding[:])
}
func (d *CollectionDetailsV2) UnmarshalBorsh(r *borsh.Reader) error {
	return r.ReadInto(d.Padding[:])
}

// CollectionDetailsUnion decodes CollectionDetails variants.
var CollectionDetailsUnion = borsh.NewUnion[CollectionDetails]("CollectionDetails",
	borsh.Payload(func(v CollectionDetailsV1) CollectionDetails { return v }),
	borsh.Payload(func(v CollectionDetailsV2) CollectionDetails { return v }),
)

// ProgrammableConfig holds the rule set of a programmable asset.
type ProgrammableConfig interface {
	borsh.Variant
	isProgrammableConfig()
}

// ProgrammableConfigV1 names the token auth rule set, if any.
type ProgrammableConfigV1 struct {
	RuleSet *types.Pubkey
}

func (ProgrammableConfigV1) Ordinal() uint8        { return 0 }
func (ProgrammableConfigV1) isProgrammableConfig() {}
func (c ProgrammableConfigV1) PayloadLen() int {
	return borsh.OptionalLen(c.RuleSet, borsh.Fixed[types.Pubkey](borsh.PubkeySize))
}
func (c ProgrammableConfigV1) MarshalPayload(w *borsh.Writer) error {
	return borsh.WriteOptional(w, c.RuleSet, (*borsh.Writer).WritePublicKey)
}
func (c *ProgrammableConfigV1) UnmarshalBorsh(r *borsh.Reader) (err error) {
	c.RuleSet, err = borsh.ReadOptional(r, (*borsh.Reader).ReadPublicKey)
	return err
}

// ProgrammableConfigUnion decodes ProgrammableConfig variants.
var ProgrammableConfigUnion = borsh.NewUnion[ProgrammableConfig]("ProgrammableConfig",
	borsh.Payload(func(v ProgrammableConfigV1) ProgrammableConfig { return v }),
)

func optionalVariantLen(v borsh.Variant) int {
	if v == nil {
		return 1
	}
	return 1 + borsh.VariantLen(v)
}

func writeOptionalVariant(w *borsh.Writer, v borsh.Variant) error {
	if v == nil {
		return w.WriteUint8(0)
	}
	if err := w.WriteUint8(1); err != nil {
		return err
	}
	return borsh.WriteVariant(w, v)
}

func readOptionalVariant[T any](r *borsh.Reader, u *borsh.Union[T]) (T, error) {
	v, err := borsh.ReadOptional(r, u.Read)
	if err != nil || v == nil {
		var zero T
		return zero, err
	}
	return *v, nil
}

// Metadata account field offsets
const (
	KeyOffset             = 0
	UpdateAuthorityOffset = 1
	MintOffset            = 33
	DataOffset            = 65
)

// MaxMetadataSize is the allocation of a metadata account. The encoded
// record is followed by zero padding up to this size.
const MaxMetadataSize = 679

// ErrInvalidKey is returned when account data does not start with the
// expected Key.
var ErrInvalidKey = errors.New("metadata: unexpected account key")

// Metadata is the metadata account attached to a mint.
type Metadata struct {
	Key                 Key
	UpdateAuthority     types.Pubkey
	Mint                types.Pubkey
	Data                Data
	PrimarySaleHappened bool
	IsMutable           bool
	EditionNonce        *uint8
	TokenStandard       *TokenStandard
	Collection          *Collection
	Uses                *Uses
	CollectionDetails   CollectionDetails  // nil when absent
	ProgrammableConfig  ProgrammableConfig // nil when absent
}

func (m Metadata) Len() int {
	return 1 + 2*borsh.PubkeySize + m.Data.Len() + 2 +
		borsh.OptionalLen(m.EditionNonce, borsh.Fixed[uint8](1)) +
		borsh.OptionalLen(m.TokenStandard, borsh.Fixed[TokenStandard](1)) +
		borsh.OptionalLen(m.Collection, borsh.Fixed[Collection](collectionSize)) +
		borsh.OptionalLen(m.Uses, borsh.Fixed[Uses](usesSize)) +
		optionalVariantLen(m.CollectionDetails) +
		optionalVariantLen(m.ProgrammableConfig)
}

func (m Metadata) MarshalBorsh(w *borsh.Writer) error {
	if err := borsh.WriteEnum(w, m.Key); err != nil {
		return err
	}
	if err := w.WritePublicKey(m.UpdateAuthority); err != nil {
		return err
	}
	if err := w.WritePublicKey(m.Mint); err != nil {
		return err
	}
	if err := m.Data.MarshalBorsh(w); err != nil {
		return err
	}
	if err := w.WriteBool(m.PrimarySaleHappened); err != nil {
		return err
	}
	if err := w.WriteBool(m.IsMutable); err != nil {
		return err
	}
	if err := borsh.WriteOptional(w, m.EditionNonce, (*borsh.Writer).WriteUint8); err != nil {
		return err
	}
	if err := borsh.WriteOptional(w, m.TokenStandard, borsh.WriteEnum[TokenStandard]); err != nil {
		return err
	}
	if err := borsh.WriteOptional(w, m.Collection, borsh.WriteValue[Collection]); err != nil {
		return err
	}
	if err := borsh.WriteOptional(w, m.Uses, borsh.WriteValue[Uses]); err != nil {
		return err
	}
	if err := writeOptionalVariant(w, m.CollectionDetails); err != nil {
		return err
	}
	return writeOptionalVariant(w, m.ProgrammableConfig)
}

// UnmarshalBorsh decodes a metadata record. Accounts written before the
// trailing optional fields existed simply end early; a field past the end
// of the data decodes as absent.
func (m *Metadata) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if m.Key, err = borsh.ReadEnum[Key](r, "Key", keyCount); err != nil {
		return err
	}
	if m.UpdateAuthority, err = r.ReadPublicKey(); err != nil {
		return err
	}
	if m.Mint, err = r.ReadPublicKey(); err != nil {
		return err
	}
	if err = m.Data.UnmarshalBorsh(r); err != nil {
		return errors.Wrap(err, "data")
	}
	if m.PrimarySaleHappened, err = r.ReadBool(); err != nil {
		return err
	}
	if m.IsMutable, err = r.ReadBool(); err != nil {
		return err
	}
	if r.Remaining() == 0 {
		return nil
	}
	if m.EditionNonce, err = borsh.ReadOptional(r, (*borsh.Reader).ReadUint8); err != nil {
		return err
	}
	if r.Remaining() == 0 {
		return nil
	}
	if m.TokenStandard, err = borsh.ReadOptional(r, readTokenStandard); err != nil {
		return err
	}
	if r.Remaining() == 0 {
		return nil
	}
	if m.Collection, err = borsh.ReadOptional(r, borsh.ReadValue[Collection]); err != nil {
		return err
	}
	if r.Remaining() == 0 {
		return nil
	}
	if m.Uses, err = borsh.ReadOptional(r, borsh.ReadValue[Uses]); err != nil {
		return err
	}
	if r.Remaining() == 0 {
		return nil
	}
	if m.CollectionDetails, err = readOptionalVariant(r, CollectionDetailsUnion); err != nil {
		return err
	}
	if r.Remaining() == 0 {
		return nil
	}
	m.ProgrammableConfig, err = readOptionalVariant(r, ProgrammableConfigUnion)
	return err
}

func readTokenStandard(r *borsh.Reader) (TokenStandard, error) {
	return borsh.ReadEnum[TokenStandard](r, "TokenStandard", tokenStandardCount)
}

// DecodeMetadata decodes metadata account data, ignoring the zero padding
// after the record.
func DecodeMetadata(data []byte) (*Metadata, error) {
	if len(data) == 0 || Key(data[0]) != KeyMetadataV1 {
		return nil, errors.Wrapf(ErrInvalidKey, "want %s", KeyMetadataV1)
	}
	m := new(Metadata)
	if err := borsh.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(err, "decode metadata")
	}
	return m, nil
}

// Account filters, in the shape nodes accept for program account queries.

func KeyFilter(key Key) accounts.Filter {
	return accounts.NewMemcmpFilter(KeyOffset, []byte{byte(key)})
}

func UpdateAuthorityFilter(updateAuthority types.Pubkey) accounts.Filter {
	return accounts.NewPubkeyFilter(UpdateAuthorityOffset, updateAuthority)
}

func MintFilter(mint types.Pubkey) accounts.Filter {
	return accounts.NewPubkeyFilter(MintOffset, mint)
}
