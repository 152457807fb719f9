// Package metadata binds the Metaplex token metadata program: the DataV2
// record attached to a mint, the metadata account and the instruction that
// creates it.
package metadata

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/sava-software/anchor-programs-sub010/pkg/accounts"
	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/instruction"
	"github.com/sava-software/anchor-programs-sub010/pkg/log"
	"github.com/sava-software/anchor-programs-sub010/pkg/pda"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Seeds of the program's derived accounts.
const (
	MetadataSeed = "metadata"
	EditionSeed  = "edition"
)

// InstructionCreateMetadataAccountV3 is the ordinal of
// CreateMetadataAccountV3. The program tags instructions with a single
// byte, not an Anchor discriminator.
const InstructionCreateMetadataAccountV3 uint8 = 33

// ErrInvalidInstruction is returned when instruction data is not the
// expected instruction.
var ErrInvalidInstruction = errors.New("metadata: invalid instruction")

// MetadataAddress derives the metadata account of mint.
func MetadataAddress(mint types.Pubkey) (pda.Address, error) {
	program := types.TokenMetadataProgramID
	return pda.FindProgramAddress([][]byte{[]byte(MetadataSeed), program[:], mint[:]}, program)
}

// MasterEditionAddress derives the master edition account of mint.
func MasterEditionAddress(mint types.Pubkey) (pda.Address, error) {
	program := types.TokenMetadataProgramID
	return pda.FindProgramAddress([][]byte{[]byte(MetadataSeed), program[:], mint[:], []byte(EditionSeed)}, program)
}

// CreateMetadataAccountArgsV3 are the arguments of CreateMetadataAccountV3.
type CreateMetadataAccountArgsV3 struct {
	Data              DataV2
	IsMutable         bool
	CollectionDetails CollectionDetails // nil when absent
}

func (a CreateMetadataAccountArgsV3) Len() int {
	return a.Data.Len() + borsh.BoolSize + optionalVariantLen(a.CollectionDetails)
}

func (a CreateMetadataAccountArgsV3) MarshalBorsh(w *borsh.Writer) error {
	if err := a.Data.MarshalBorsh(w); err != nil {
		return err
	}
	if err := w.WriteBool(a.IsMutable); err != nil {
		return err
	}
	return writeOptionalVariant(w, a.CollectionDetails)
}

func (a *CreateMetadataAccountArgsV3) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if err = a.Data.UnmarshalBorsh(r); err != nil {
		return err
	}
	if a.IsMutable, err = r.ReadBool(); err != nil {
		return err
	}
	a.CollectionDetails, err = readOptionalVariant(r, CollectionDetailsUnion)
	return err
}

// CreateMetadataAccountV3 is the instruction variant carrying the args.
type CreateMetadataAccountV3 struct {
	Args CreateMetadataAccountArgsV3
}

func (CreateMetadataAccountV3) Ordinal() uint8 { return InstructionCreateMetadataAccountV3 }
func (i CreateMetadataAccountV3) PayloadLen() int {
	return i.Args.Len()
}
func (i CreateMetadataAccountV3) MarshalPayload(w *borsh.Writer) error {
	return i.Args.MarshalBorsh(w)
}

// CreateMetadataAccounts are the accounts of CreateMetadataAccountV3.
type CreateMetadataAccounts struct {
	Metadata        types.Pubkey // zero derives it from Mint
	Mint            types.Pubkey
	MintAuthority   types.Pubkey
	Payer           types.Pubkey
	UpdateAuthority types.Pubkey
	// UpdateAuthorityIsSigner marks the update authority as a signer,
	// needed when it differs from the mint authority.
	UpdateAuthorityIsSigner bool
	SystemProgram           types.Pubkey // zero means the system program
	Rent                    *types.Pubkey
}

// CreateMetadataAccountV3Instruction builds CreateMetadataAccountV3.
// Accounts:
//
//	[0] metadata (writable)
//	[1] mint
//	[2] mint_authority (signer)
//	[3] payer (writable, signer)
//	[4] update_authority
//	[5] system_program
//	[6] rent, the program id when absent
func CreateMetadataAccountV3Instruction(a CreateMetadataAccounts, args CreateMetadataAccountArgsV3) (instruction.Instruction, error) {
	if a.Metadata.IsZero() {
		addr, err := MetadataAddress(a.Mint)
		if err != nil {
			return instruction.Instruction{}, err
		}
		a.Metadata = addr.Key
	}
	updateAuthority := instruction.ReadOnly(a.UpdateAuthority)
	if a.UpdateAuthorityIsSigner {
		updateAuthority = instruction.ReadOnlySigner(a.UpdateAuthority)
	}
	systemProgram := a.SystemProgram
	if systemProgram.IsZero() {
		systemProgram = types.SystemProgramID
	}
	rent := types.TokenMetadataProgramID
	if a.Rent != nil {
		rent = *a.Rent
	}
	return instruction.NewOrdinal(types.TokenMetadataProgramID, []instruction.AccountMeta{
		instruction.Writable(a.Metadata),
		instruction.ReadOnly(a.Mint),
		instruction.ReadOnlySigner(a.MintAuthority),
		instruction.WritableSigner(a.Payer),
		updateAuthority,
		instruction.ReadOnly(systemProgram),
		instruction.ReadOnly(rent),
	}, CreateMetadataAccountV3{Args: args})
}

// DecodeCreateMetadataAccountV3 decodes the arguments of a
// CreateMetadataAccountV3 instruction.
func DecodeCreateMetadataAccountV3(ix instruction.Instruction) (CreateMetadataAccountArgsV3, error) {
	var args CreateMetadataAccountArgsV3
	if ix.Program != types.TokenMetadataProgramID {
		return args, errors.Wrapf(instruction.ErrProgramMismatch, "program %s", ix.Program)
	}
	if len(ix.Data) == 0 || ix.Data[0] != InstructionCreateMetadataAccountV3 {
		return args, errors.Wrap(ErrInvalidInstruction, "not CreateMetadataAccountV3")
	}
	if err := borsh.UnmarshalStrict(ix.Data[1:], &args); err != nil {
		return args, errors.Mark(errors.Wrap(err, "decode CreateMetadataAccountV3"), ErrInvalidInstruction)
	}
	return args, nil
}

// Decoded is a metadata account with its address.
type Decoded = accounts.Decoded[*Metadata]

// Scan decodes every metadata account in store that passes filters.
func Scan(store accounts.Store, filters ...accounts.Filter) ([]Decoded, error) {
	filters = append([]accounts.Filter{KeyFilter(KeyMetadataV1)}, filters...)
	var out []Decoded
	err := store.ForEachOwned(types.TokenMetadataProgramID, func(pubkey types.Pubkey, account *types.Account) error {
		for _, f := range filters {
			if !f.Matches(account.Data) {
				return nil
			}
		}
		m, err := DecodeMetadata(account.Data)
		if err != nil {
			return errors.Wrapf(err, "account %s", pubkey)
		}
		out = append(out, Decoded{Address: pubkey, Name: KeyMetadataV1.String(), Value: m})
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Named("metadata").Debug("scanned metadata accounts", zap.Int("decoded", len(out)))
	return out, nil
}
