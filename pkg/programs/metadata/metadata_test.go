package metadata

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sava-software/anchor-programs-sub010/pkg/accounts"
	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/instruction"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

func key(seed string) types.Pubkey {
	return types.Pubkey(types.SHA256Multi([]byte(seed)))
}

func testConfig() DataV2Config {
	collection := key("collection")
	return DataV2Config{
		Name:                 "Sava",
		Symbol:               "SAVA",
		URI:                  "https://example.com/sava.json",
		SellerFeeBasisPoints: 500,
		Creators: []Creator{
			{Address: key("alice"), Verified: true, Share: 60},
			{Address: key("bob"), Share: 40},
		},
		Collection: &collection,
		Uses:       &Uses{UseMethod: UseMethodMultiple, Remaining: 3, Total: 5},
	}
}

func TestDataCreatorsOption(t *testing.T) {
	none := Data{Name: "a"}
	b, err := borsh.Marshal(none)
	require.NoError(t, err)
	assert.Equal(t, byte(0), b[len(b)-1], "absent creators")

	empty := Data{Name: "a", Creators: []Creator{}}
	b2, err := borsh.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 0}, b2[len(b2)-5:])

	var back Data
	require.NoError(t, borsh.UnmarshalStrict(b, &back))
	assert.Nil(t, back.Creators)
	require.NoError(t, borsh.UnmarshalStrict(b2, &back))
	assert.NotNil(t, back.Creators)
	assert.Empty(t, back.Creators)
}

func TestDataV2ConfigBuild(t *testing.T) {
	d, err := testConfig().Build()
	require.NoError(t, err)
	require.NotNil(t, d.Collection)
	assert.False(t, d.Collection.Verified)
	assert.Equal(t, key("collection"), d.Collection.Key)

	b, err := borsh.Marshal(d)
	require.NoError(t, err)
	var back DataV2
	require.NoError(t, borsh.UnmarshalStrict(b, &back))
	assert.Equal(t, d, back)

	for name, mutate := range map[string]func(*DataV2Config){
		"long name":      func(c *DataV2Config) { c.Name = strings.Repeat("n", MaxNameLength+1) },
		"long symbol":    func(c *DataV2Config) { c.Symbol = "ABCDEFGHIJK" },
		"long uri":       func(c *DataV2Config) { c.URI = strings.Repeat("u", MaxURILength+1) },
		"invalid utf-8":  func(c *DataV2Config) { c.Name = "\xff" },
		"fee":            func(c *DataV2Config) { c.SellerFeeBasisPoints = MaxSellerFeeBasisPoints + 1 },
		"no creators":    func(c *DataV2Config) { c.Creators = []Creator{} },
		"shares":         func(c *DataV2Config) { c.Creators[1].Share = 39 },
		"duplicate":      func(c *DataV2Config) { c.Creators[1].Address = c.Creators[0].Address },
		"use method":     func(c *DataV2Config) { c.Uses = &Uses{UseMethod: 3} },
		"remaining uses": func(c *DataV2Config) { c.Uses = &Uses{Remaining: 2, Total: 1} },
		"too many creators": func(c *DataV2Config) {
			c.Creators = make([]Creator, MaxCreatorLimit+1)
			for i := range c.Creators {
				c.Creators[i] = Creator{Address: key(string(rune('a' + i))), Share: 10}
			}
		},
	} {
		c := testConfig()
		mutate(&c)
		_, err := c.Build()
		assert.ErrorIs(t, err, ErrInvalidData, name)
	}

	c := testConfig()
	c.Creators, c.Collection, c.Uses = nil, nil, nil
	d, err = c.Build()
	require.NoError(t, err)
	assert.Equal(t, 4+4+4+4+4+29+2+1+1+1, d.Len())
}

func TestCreateMetadataAccountV3(t *testing.T) {
	data, err := testConfig().Build()
	require.NoError(t, err)
	args := CreateMetadataAccountArgsV3{
		Data:              data,
		IsMutable:         true,
		CollectionDetails: CollectionDetailsV1{Size: 0},
	}
	a := CreateMetadataAccounts{
		Mint:            key("mint"),
		MintAuthority:   key("mint-authority"),
		Payer:           key("payer"),
		UpdateAuthority: key("update-authority"),
	}
	ix, err := CreateMetadataAccountV3Instruction(a, args)
	require.NoError(t, err)

	metadata, err := MetadataAddress(a.Mint)
	require.NoError(t, err)
	assert.Equal(t, types.TokenMetadataProgramID, ix.Program)
	assert.Equal(t, []instruction.AccountMeta{
		instruction.Writable(metadata.Key),
		instruction.ReadOnly(a.Mint),
		instruction.ReadOnlySigner(a.MintAuthority),
		instruction.WritableSigner(a.Payer),
		instruction.ReadOnly(a.UpdateAuthority),
		instruction.ReadOnly(types.SystemProgramID),
		instruction.ReadOnly(types.TokenMetadataProgramID),
	}, ix.Accounts)

	require.Len(t, ix.Data, 1+args.Len())
	assert.Equal(t, InstructionCreateMetadataAccountV3, ix.Data[0])
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(ix.Data[1:]))
	assert.Equal(t, "Sava", string(ix.Data[5:9]))
	// is_mutable, Some, V1, size
	assert.Equal(t, []byte{1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0}, ix.Data[len(ix.Data)-11:])

	back, err := DecodeCreateMetadataAccountV3(ix)
	require.NoError(t, err)
	if diff := cmp.Diff(args, back); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}

	rent := types.SysvarRentID
	a.Rent = &rent
	a.UpdateAuthorityIsSigner = true
	ix, err = CreateMetadataAccountV3Instruction(a, CreateMetadataAccountArgsV3{Data: data})
	require.NoError(t, err)
	assert.Equal(t, instruction.ReadOnlySigner(a.UpdateAuthority), ix.Accounts[4])
	assert.Equal(t, instruction.ReadOnly(rent), ix.Accounts[6])
	assert.Equal(t, byte(0), ix.Data[len(ix.Data)-1], "no collection details")

	ix.Data[0] = 15
	_, err = DecodeCreateMetadataAccountV3(ix)
	require.ErrorIs(t, err, ErrInvalidInstruction)

	ix.Program = types.TokenProgramID
	_, err = DecodeCreateMetadataAccountV3(ix)
	require.ErrorIs(t, err, instruction.ErrProgramMismatch)
}

func testMetadata() *Metadata {
	nonce := uint8(254)
	standard := TokenStandardProgrammableNonFungible
	ruleSet := key("rule-set")
	return &Metadata{
		Key:             KeyMetadataV1,
		UpdateAuthority: key("update-authority"),
		Mint:            key("mint"),
		Data: Data{
			Name:                 "Sava" + strings.Repeat("\x00", MaxNameLength-4),
			Symbol:               "SAVA" + strings.Repeat("\x00", MaxSymbolLength-4),
			URI:                  "https://example.com",
			SellerFeeBasisPoints: 250,
			Creators:             []Creator{{Address: key("alice"), Verified: true, Share: 100}},
		},
		IsMutable:          true,
		EditionNonce:       &nonce,
		TokenStandard:      &standard,
		Collection:         &Collection{Verified: true, Key: key("collection")},
		CollectionDetails:  CollectionDetailsV2{},
		ProgrammableConfig: ProgrammableConfigV1{RuleSet: &ruleSet},
	}
}

func padded(t *testing.T, m *Metadata) []byte {
	t.Helper()
	data := make([]byte, MaxMetadataSize)
	_, err := borsh.MarshalInto(data, 0, m)
	require.NoError(t, err)
	return data
}

func TestDecodeMetadata(t *testing.T) {
	m := testMetadata()
	data := padded(t, m)
	assert.Equal(t, byte(KeyMetadataV1), data[KeyOffset])
	assert.Equal(t, m.Mint[:], data[MintOffset:DataOffset])

	got, err := DecodeMetadata(data)
	require.NoError(t, err)
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Sava", got.Data.Trimmed().Name)
	assert.Equal(t, "SAVA", got.Data.Trimmed().Symbol)
	assert.Equal(t, "Sava"+strings.Repeat("\x00", MaxNameLength-4), got.Data.Name, "trim returns a copy")

	_, err = DecodeMetadata(append([]byte{byte(KeyMasterEditionV2)}, data[1:]...))
	require.ErrorIs(t, err, ErrInvalidKey)

	bad := padded(t, m)
	bad[m.Len()-34] = 2 // ProgrammableConfig ordinal
	_, err = DecodeMetadata(bad)
	require.ErrorIs(t, err, borsh.ErrUnknownOrdinal)
}

func TestDecodeLegacyMetadata(t *testing.T) {
	m := testMetadata()
	m.EditionNonce, m.TokenStandard, m.Collection, m.Uses = nil, nil, nil, nil
	m.CollectionDetails, m.ProgrammableConfig = nil, nil
	full, err := borsh.Marshal(m)
	require.NoError(t, err)

	// written before edition nonce and the later options existed
	legacy := full[:len(full)-6]
	got, err := DecodeMetadata(legacy)
	require.NoError(t, err)
	assert.Nil(t, got.EditionNonce)
	assert.Nil(t, got.ProgrammableConfig)
	assert.Equal(t, m.Data, got.Data)

	_, err = DecodeMetadata(legacy[:DataOffset+10])
	require.ErrorIs(t, err, borsh.ErrBufferUnderrun)
}

func TestAddresses(t *testing.T) {
	mint := key("mint")
	program := solana.PublicKey(types.TokenMetadataProgramID)

	got, err := MetadataAddress(mint)
	require.NoError(t, err)
	want, bump, err := solana.FindProgramAddress([][]byte{[]byte("metadata"), program[:], mint[:]}, program)
	require.NoError(t, err)
	assert.Equal(t, types.Pubkey(want), got.Key)
	assert.Equal(t, bump, got.Bump)

	edition, err := MasterEditionAddress(mint)
	require.NoError(t, err)
	want, _, err = solana.FindProgramAddress([][]byte{[]byte("metadata"), program[:], mint[:], []byte("edition")}, program)
	require.NoError(t, err)
	assert.Equal(t, types.Pubkey(want), edition.Key)
}

func TestScan(t *testing.T) {
	store := accounts.NewMemoryDB()
	first := testMetadata()
	second := testMetadata()
	second.Mint = key("other-mint")
	second.UpdateAuthority = key("other-authority")

	for name, m := range map[string]*Metadata{"first": first, "second": second} {
		require.NoError(t, store.SetAccount(key(name), types.NewAccountWithData(1, padded(t, m), types.TokenMetadataProgramID)))
	}
	edition := make([]byte, 282)
	edition[0] = byte(KeyMasterEditionV2)
	require.NoError(t, store.SetAccount(key("edition"), types.NewAccountWithData(1, edition, types.TokenMetadataProgramID)))

	all, err := Scan(store)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := Scan(store, UpdateAuthorityFilter(key("other-authority")))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, key("second"), found[0].Address)
	assert.Equal(t, second.Mint, found[0].Value.Mint)

	found, err = Scan(store, MintFilter(first.Mint))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "MetadataV1", found[0].Name)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "HolderDelegate", KeyHolderDelegate.String())
	assert.Equal(t, "Unknown", Key(keyCount).String())
	assert.Equal(t, "Fungible", TokenStandardFungible.String())
	assert.Equal(t, "Single", UseMethodSingle.String())

	_, err := CollectionDetailsUnion.Decode([]byte{2})
	require.ErrorIs(t, err, borsh.ErrUnknownOrdinal)
}
