package accounts

import (
	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Stored layout, Borsh encoded:
// - lamports:   u64
// - data:       Vec<u8> (u32 length + bytes)
// - owner:      Pubkey
// - executable: bool
// - rent_epoch: u64
//
// Total fixed size: 8 + 4 + 32 + 1 + 8 = 53 bytes + variable data

// ErrInvalidAccountData is returned when a stored record is malformed.
var ErrInvalidAccountData = errors.New("accounts: invalid account data")

type record struct {
	*types.Account
}

func (r record) Len() int {
	return borsh.Uint64Size + borsh.ByteVecLen(r.Data) + borsh.PubkeySize + borsh.BoolSize + borsh.Uint64Size
}

func (r record) MarshalBorsh(w *borsh.Writer) error {
	if err := w.WriteUint64(uint64(r.Lamports)); err != nil {
		return err
	}
	if err := w.WriteByteVec(r.Data); err != nil {
		return err
	}
	if err := w.WritePublicKey(r.Owner); err != nil {
		return err
	}
	if err := w.WriteBool(r.Executable); err != nil {
		return err
	}
	return w.WriteUint64(uint64(r.RentEpoch))
}

func (r record) UnmarshalBorsh(rd *borsh.Reader) error {
	lamports, err := rd.ReadUint64()
	if err != nil {
		return err
	}
	data, err := rd.ReadByteVec()
	if err != nil {
		return err
	}
	owner, err := rd.ReadPublicKey()
	if err != nil {
		return err
	}
	executable, err := rd.ReadBool()
	if err != nil {
		return err
	}
	rentEpoch, err := rd.ReadUint64()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		data = nil
	}
	*r.Account = types.Account{
		Lamports:   types.Lamports(lamports),
		Data:       data,
		Owner:      owner,
		Executable: executable,
		RentEpoch:  types.Epoch(rentEpoch),
	}
	return nil
}

// SerializeAccount encodes an account for storage.
func SerializeAccount(account *types.Account) ([]byte, error) {
	if account == nil {
		return nil, errors.New("cannot serialize nil account")
	}
	return borsh.Marshal(record{account})
}

// DeserializeAccount decodes a stored account.
func DeserializeAccount(data []byte) (*types.Account, error) {
	account := new(types.Account)
	if err := borsh.UnmarshalStrict(data, record{account}); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "deserialize account"), ErrInvalidAccountData)
	}
	return account, nil
}
