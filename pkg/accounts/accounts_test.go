package accounts

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/discriminator"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Helper function to create test pubkeys
func testPubkey(seed string) types.Pubkey {
	hash := sha256.Sum256([]byte(seed))
	var pk types.Pubkey
	copy(pk[:], hash[:])
	return pk
}

// Helper function to create test accounts
func testAccount(lamports types.Lamports, data []byte, owner types.Pubkey) *types.Account {
	return &types.Account{
		Lamports:   lamports,
		Data:       data,
		Owner:      owner,
		Executable: false,
		RentEpoch:  0,
	}
}

// forEachStore runs fn against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, db Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryDB())
	})
	t.Run("badger", func(t *testing.T) {
		db, err := NewInMemoryBadgerDB()
		if err != nil {
			t.Fatalf("NewInMemoryBadgerDB failed: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		fn(t, db)
	})
}

func TestStore_SetAndGetAccount(t *testing.T) {
	forEachStore(t, func(t *testing.T, db Store) {
		pubkey := testPubkey("test_account")
		account := testAccount(1_000_000_000, []byte("test_data"), types.SystemProgramID)
		account.RentEpoch = 361
		account.Executable = true

		if err := db.SetAccount(pubkey, account); err != nil {
			t.Fatalf("SetAccount failed: %v", err)
		}

		retrieved, err := db.GetAccount(pubkey)
		if err != nil {
			t.Fatalf("GetAccount failed: %v", err)
		}
		if retrieved == nil {
			t.Fatal("GetAccount returned nil for existing account")
		}
		if retrieved.Lamports != account.Lamports {
			t.Errorf("expected lamports %d, got %d", account.Lamports, retrieved.Lamports)
		}
		if !bytes.Equal(retrieved.Data, account.Data) {
			t.Errorf("expected data %v, got %v", account.Data, retrieved.Data)
		}
		if retrieved.Owner != account.Owner {
			t.Errorf("expected owner %s, got %s", account.Owner, retrieved.Owner)
		}
		if !retrieved.Executable || retrieved.RentEpoch != 361 {
			t.Errorf("flags not preserved: %+v", retrieved)
		}
	})
}

func TestStore_GetAccount_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, db Store) {
		account, err := db.GetAccount(testPubkey("nonexistent"))
		if err != nil {
			t.Fatalf("GetAccount should not error for nonexistent account: %v", err)
		}
		if account != nil {
			t.Error("GetAccount should return nil for nonexistent account")
		}
	})
}

func TestStore_DeleteAccount(t *testing.T) {
	forEachStore(t, func(t *testing.T, db Store) {
		pubkey := testPubkey("test_account")
		_ = db.SetAccount(pubkey, testAccount(1000, nil, types.SystemProgramID))

		if !db.HasAccount(pubkey) {
			t.Fatal("HasAccount should return true for existing account")
		}
		if err := db.DeleteAccount(pubkey); err != nil {
			t.Fatalf("DeleteAccount failed: %v", err)
		}
		if db.HasAccount(pubkey) {
			t.Error("account should be deleted")
		}

		// Should not error when deleting nonexistent account
		if err := db.DeleteAccount(pubkey); err != nil {
			t.Errorf("DeleteAccount should not error for nonexistent account: %v", err)
		}
		if db.GetAccountsCount() != 0 {
			t.Errorf("expected 0 accounts, got %d", db.GetAccountsCount())
		}
	})
}

func TestStore_GetAccountsCount(t *testing.T) {
	forEachStore(t, func(t *testing.T, db Store) {
		for i := 0; i < 10; i++ {
			pubkey := testPubkey("account_" + string(rune('a'+i)))
			_ = db.SetAccount(pubkey, testAccount(types.Lamports(i*1000), nil, types.SystemProgramID))
		}
		if db.GetAccountsCount() != 10 {
			t.Errorf("expected 10 accounts, got %d", db.GetAccountsCount())
		}

		// Overwrite does not change the count
		_ = db.SetAccount(testPubkey("account_b"), testAccount(5, []byte("x"), types.TokenProgramID))
		_ = db.DeleteAccount(testPubkey("account_a"))

		if db.GetAccountsCount() != 9 {
			t.Errorf("expected 9 accounts after delete, got %d", db.GetAccountsCount())
		}
	})
}

func TestStore_DataIsolation(t *testing.T) {
	forEachStore(t, func(t *testing.T, db Store) {
		pubkey := testPubkey("test_account")
		originalData := []byte("original_data")
		_ = db.SetAccount(pubkey, testAccount(1000, originalData, types.SystemProgramID))

		// Modify the original data
		originalData[0] = 'X'

		retrieved, _ := db.GetAccount(pubkey)
		if retrieved.Data[0] == 'X' {
			t.Error("modifying original data should not affect stored data")
		}

		retrieved.Data[0] = 'Y'
		retrieved2, _ := db.GetAccount(pubkey)
		if retrieved2.Data[0] == 'Y' {
			t.Error("modifying retrieved data should not affect stored data")
		}
	})
}

func TestStore_ForEachOwned(t *testing.T) {
	forEachStore(t, func(t *testing.T, db Store) {
		program := testPubkey("program")
		for i := 0; i < 5; i++ {
			_ = db.SetAccount(testPubkey(fmt.Sprintf("owned_%d", i)), testAccount(1, []byte{byte(i)}, program))
			_ = db.SetAccount(testPubkey(fmt.Sprintf("other_%d", i)), testAccount(1, []byte{byte(i)}, types.SystemProgramID))
		}
		// Reassigning ownership moves the account out of the program
		_ = db.SetAccount(testPubkey("owned_4"), testAccount(1, nil, types.SystemProgramID))

		var seen []types.Pubkey
		err := db.ForEachOwned(program, func(pk types.Pubkey, account *types.Account) error {
			if account.Owner != program {
				t.Errorf("account %s has owner %s", pk, account.Owner)
			}
			seen = append(seen, pk)
			return nil
		})
		if err != nil {
			t.Fatalf("ForEachOwned failed: %v", err)
		}
		if len(seen) != 4 {
			t.Fatalf("expected 4 owned accounts, got %d", len(seen))
		}
		for i := 1; i < len(seen); i++ {
			if bytes.Compare(seen[i-1][:], seen[i][:]) >= 0 {
				t.Errorf("accounts not in pubkey order at %d", i)
			}
		}
	})
}

func TestMemoryDB_Concurrent(t *testing.T) {
	db := NewMemoryDB()
	var wg sync.WaitGroup

	// Concurrent writes
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pubkey := testPubkey("account_" + string(rune(i)))
			account := testAccount(types.Lamports(i*1000), nil, types.SystemProgramID)
			_ = db.SetAccount(pubkey, account)
		}(i)
	}

	// Concurrent reads
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pubkey := testPubkey("account_" + string(rune(i)))
			_, _ = db.GetAccount(pubkey)
		}(i)
	}

	wg.Wait()

	if count := db.GetAccountsCount(); count != 100 {
		t.Errorf("expected 100 accounts, got %d", count)
	}
}

func TestMemoryDB_RejectsNil(t *testing.T) {
	if err := NewMemoryDB().SetAccount(testPubkey("x"), nil); err == nil {
		t.Error("storing a nil account should fail")
	}
}

func TestBadgerDB_Reopen(t *testing.T) {
	dir := t.TempDir()
	program := testPubkey("program")

	db, err := NewBadgerDB(dir)
	require.NoError(t, err)
	require.NoError(t, db.SetAccount(testPubkey("a"), testAccount(7, []byte{1, 2}, program)))
	require.NoError(t, db.SetAccount(testPubkey("b"), testAccount(8, nil, program)))
	require.NoError(t, db.Close())

	db, err = NewBadgerDB(dir)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, uint64(2), db.GetAccountsCount())
	got, err := db.GetAccount(testPubkey("a"))
	require.NoError(t, err)
	assert.Equal(t, testAccount(7, []byte{1, 2}, program), got)
}

func TestSerializeAccount(t *testing.T) {
	account := testAccount(42, []byte{9, 8, 7}, types.TokenProgramID)
	account.RentEpoch = 3

	data, err := SerializeAccount(account)
	require.NoError(t, err)
	assert.Len(t, data, 53+3)
	assert.Equal(t, []byte{3, 0, 0, 0, 9, 8, 7}, data[8:15])

	got, err := DeserializeAccount(data)
	require.NoError(t, err)
	assert.Equal(t, account, got)

	_, err = DeserializeAccount(data[:20])
	require.ErrorIs(t, err, ErrInvalidAccountData)
	require.ErrorIs(t, err, borsh.ErrBufferUnderrun)

	_, err = SerializeAccount(nil)
	require.Error(t, err)
}

func TestFilters(t *testing.T) {
	pk := testPubkey("owner")
	data := make([]byte, 48)
	copy(data[8:], pk[:])

	assert.True(t, NewDataSizeFilter(48).Matches(data))
	assert.False(t, NewDataSizeFilter(47).Matches(data))
	assert.True(t, NewPubkeyFilter(8, pk).Matches(data))
	assert.False(t, NewPubkeyFilter(9, pk).Matches(data))
	assert.False(t, NewPubkeyFilter(40, pk).Matches(data), "window past the end")
	assert.True(t, NewMemcmpFilter(0, make([]byte, 8)).Matches(data))
}

// vault is a minimal Anchor account used to exercise Scan.
type vault struct {
	Owner  types.Pubkey
	Amount uint64
}

var vaultDiscriminator = discriminator.Account("Vault")

func (v vault) Len() int { return borsh.PubkeySize + borsh.Uint64Size }

func (v vault) MarshalBorsh(w *borsh.Writer) error {
	if err := w.WritePublicKey(v.Owner); err != nil {
		return err
	}
	return w.WriteUint64(v.Amount)
}

func (v *vault) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if v.Owner, err = r.ReadPublicKey(); err != nil {
		return err
	}
	v.Amount, err = r.ReadUint64()
	return err
}

func vaultAccount(t *testing.T, program types.Pubkey, v vault) *types.Account {
	data, err := discriminator.Frame(vaultDiscriminator, v)
	require.NoError(t, err)
	return testAccount(1, data, program)
}

func vaultRegistry(t *testing.T, program types.Pubkey) *discriminator.Registry[vault] {
	r := discriminator.NewRegistry[vault](program, "account")
	require.NoError(t, discriminator.RegisterValue(r, vaultDiscriminator, "Vault", func(v vault) vault { return v }))
	return r
}

func TestScan(t *testing.T) {
	forEachStore(t, func(t *testing.T, db Store) {
		program := testPubkey("program")
		alice, bob := testPubkey("alice"), testPubkey("bob")

		require.NoError(t, db.SetAccount(testPubkey("v1"), vaultAccount(t, program, vault{Owner: alice, Amount: 1})))
		require.NoError(t, db.SetAccount(testPubkey("v2"), vaultAccount(t, program, vault{Owner: bob, Amount: 2})))
		require.NoError(t, db.SetAccount(testPubkey("v3"), vaultAccount(t, program, vault{Owner: alice, Amount: 3})))
		require.NoError(t, db.SetAccount(testPubkey("foreign"), vaultAccount(t, testPubkey("elsewhere"), vault{Owner: alice})))

		registry := vaultRegistry(t, program)

		all, err := Scan(db, registry)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		mine, err := Scan(db, registry, NewDataSizeFilter(48), NewPubkeyFilter(8, alice))
		require.NoError(t, err)
		require.Len(t, mine, 2)
		var total uint64
		for _, d := range mine {
			assert.Equal(t, "Vault", d.Name)
			assert.Equal(t, alice, d.Value.Owner)
			total += d.Value.Amount
		}
		assert.Equal(t, uint64(4), total)

		loaded, err := Load(db, registry, testPubkey("v2"))
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, vault{Owner: bob, Amount: 2}, loaded.Value)

		missing, err := Load(db, registry, testPubkey("nope"))
		require.NoError(t, err)
		assert.Nil(t, missing)

		_, err = Load(db, registry, testPubkey("foreign"))
		require.Error(t, err)
	})
}

func TestScanAbortsOnUnknownDiscriminator(t *testing.T) {
	db := NewMemoryDB()
	program := testPubkey("program")
	require.NoError(t, db.SetAccount(testPubkey("v1"), vaultAccount(t, program, vault{Amount: 1})))
	require.NoError(t, db.SetAccount(testPubkey("junk"), testAccount(1, make([]byte, 48), program)))

	_, err := Scan(db, vaultRegistry(t, program))
	require.ErrorIs(t, err, discriminator.ErrUnknownDiscriminator)

	// A discriminator filter keeps foreign account types out of the scan.
	got, err := Scan(db, vaultRegistry(t, program), NewDiscriminatorFilter(vaultDiscriminator))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func BenchmarkMemoryDB_SetAccount(b *testing.B) {
	db := NewMemoryDB()
	account := testAccount(1000, make([]byte, 128), types.SystemProgramID)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pubkey := testPubkey("account_" + string(rune(i)))
		_ = db.SetAccount(pubkey, account)
	}
}

func BenchmarkScan(b *testing.B) {
	db := NewMemoryDB()
	program := testPubkey("program")
	r := discriminator.NewRegistry[vault](program, "account")
	_ = discriminator.RegisterValue(r, vaultDiscriminator, "Vault", func(v vault) vault { return v })
	for i := 0; i < 1000; i++ {
		data, _ := discriminator.Frame(vaultDiscriminator, vault{Amount: uint64(i)})
		_ = db.SetAccount(testPubkey(fmt.Sprintf("v%d", i)), testAccount(1, data, program))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Scan(db, r)
	}
}
