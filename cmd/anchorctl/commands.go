package main

import (
	"encoding/binary"
	"encoding/hex"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sava-software/anchor-programs-sub010/pkg/accounts"
	"github.com/sava-software/anchor-programs-sub010/pkg/discriminator"
	"github.com/sava-software/anchor-programs-sub010/pkg/encoding"
	"github.com/sava-software/anchor-programs-sub010/pkg/pda"
	"github.com/sava-software/anchor-programs-sub010/pkg/programs/merkle"
	"github.com/sava-software/anchor-programs-sub010/pkg/programs/metadata"
	"github.com/sava-software/anchor-programs-sub010/pkg/programs/token"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

var errUsage = errors.New("invalid arguments")

var builtinPrograms = map[string]types.Pubkey{
	"system":           types.SystemProgramID,
	"token":            types.TokenProgramID,
	"token-2022":       types.Token2022ProgramID,
	"associated-token": types.AssociatedTokenProgramID,
	"metadata":         types.TokenMetadataProgramID,
	"memo":             types.MemoProgramID,
	"compute-budget":   types.ComputeBudgetProgramID,
}

// resolvePubkey accepts a configured alias, a built-in program name or a
// base58 key.
func (e *env) resolvePubkey(s string) (types.Pubkey, error) {
	if id, ok := e.cfg.Programs[s]; ok {
		return types.PubkeyFromBase58(id)
	}
	if id, ok := builtinPrograms[s]; ok {
		return id, nil
	}
	pk, err := types.PubkeyFromBase58(s)
	if err != nil {
		return pk, errors.Wrapf(err, "%q is neither an alias nor a public key", s)
	}
	return pk, nil
}

// parseSeed decodes one seed argument. Seeds are typed by prefix:
// pubkey:, hex:, u8:, u16:, u32:, u64: (little-endian) and str:. A seed
// without a prefix is a string.
func (e *env) parseSeed(s string) ([]byte, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		return []byte(s), nil
	}
	width := map[string]int{"u8": 1, "u16": 2, "u32": 4, "u64": 8}
	switch kind {
	case "str":
		return []byte(value), nil
	case "pubkey":
		pk, err := e.resolvePubkey(value)
		return pk[:], err
	case "hex":
		b, err := hex.DecodeString(value)
		return b, errors.Wrap(err, "hex seed")
	case "u8", "u16", "u32", "u64":
		n := width[kind]
		v, err := strconv.ParseUint(value, 10, n*8)
		if err != nil {
			return nil, errors.Wrapf(err, "%s seed", kind)
		}
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v)
		return b[:n], nil
	}
	return []byte(s), nil
}

var deriveCommand = command{
	usage: "derive <program> <seed>... - find a program derived address",
	run: func(e *env, args []string) error {
		if len(args) < 1 {
			return errors.Wrap(errUsage, "derive needs a program")
		}
		program, err := e.resolvePubkey(args[0])
		if err != nil {
			return err
		}
		seeds := make([][]byte, 0, len(args)-1)
		for _, arg := range args[1:] {
			seed, err := e.parseSeed(arg)
			if err != nil {
				return err
			}
			seeds = append(seeds, seed)
		}
		addr, err := pda.FindProgramAddress(seeds, program)
		if err != nil {
			return err
		}
		return e.print(map[string]any{"address": addr.Key, "bump": addr.Bump, "program": program})
	},
}

var ataCommand = command{
	usage: "ata <wallet> <mint> - associated token account address",
	flags: func(fs *pflag.FlagSet, o *options) {
		fs.BoolVar(&o.token2022, "token-2022", false, "derive under the Token-2022 program")
	},
	run: func(e *env, args []string) error {
		if len(args) != 2 {
			return errors.Wrap(errUsage, "ata needs a wallet and a mint")
		}
		wallet, err := e.resolvePubkey(args[0])
		if err != nil {
			return err
		}
		mint, err := e.resolvePubkey(args[1])
		if err != nil {
			return err
		}
		tokenProgram := types.TokenProgramID
		if e.opts.token2022 {
			tokenProgram = types.Token2022ProgramID
		}
		addr, err := pda.AssociatedTokenAddress(wallet, mint, tokenProgram)
		if err != nil {
			return err
		}
		return e.print(map[string]any{"address": addr.Key, "bump": addr.Bump})
	},
}

var discriminatorCommand = command{
	usage: "discriminator <name>... - Anchor discriminators",
	flags: func(fs *pflag.FlagSet, o *options) {
		fs.StringVarP(&o.namespace, "namespace", "n", discriminator.NamespaceGlobal, "global, account or event")
	},
	run: func(e *env, args []string) error {
		if len(args) == 0 {
			return errors.Wrap(errUsage, "discriminator needs at least one name")
		}
		var discriminate func(string) discriminator.Discriminator
		switch e.opts.namespace {
		case discriminator.NamespaceGlobal:
			discriminate = discriminator.Instruction
		case discriminator.NamespaceAccount:
			discriminate = discriminator.Account
		case discriminator.NamespaceEvent:
			discriminate = discriminator.Event
		default:
			return errors.Wrapf(errUsage, "unknown namespace %q", e.opts.namespace)
		}
		type entry struct {
			Name  string  `yaml:"name"`
			Hex   string  `yaml:"hex"`
			Bytes []uint8 `yaml:"bytes,flow"`
		}
		out := make([]entry, 0, len(args))
		for _, name := range args {
			d := discriminate(name)
			out = append(out, entry{Name: name, Hex: d.String(), Bytes: d.Bytes()})
		}
		return e.print(out)
	},
}

// decodeAccount decodes data as an account of the named program.
func (e *env) decodeAccount(program string, data []byte) (string, any, error) {
	switch program {
	case "token", "token-2022":
		switch {
		case len(data) == token.MintSize, len(data) > token.AccountSize && data[token.AccountSize] == 1:
			m, err := token.DeserializeMint(data)
			return "Mint", m, err
		case len(data) == token.MultisigSize:
			m, err := token.DeserializeMultisig(data)
			return "Multisig", m, err
		default:
			a, err := token.DeserializeAccount(data)
			return "Account", a, err
		}
	case "metadata":
		m, err := metadata.DecodeMetadata(data)
		return metadata.KeyMetadataV1.String(), m, err
	case "merkle":
		p, err := e.merkleProgram()
		if err != nil {
			return "", nil, err
		}
		v, name, err := p.Accounts().DecodeNamed(data)
		return name, v, err
	}
	return "", nil, errors.Wrapf(errUsage, "no account decoder for %q", program)
}

func (e *env) merkleProgram() (*merkle.Program, error) {
	id := e.opts.programID
	if id == "" {
		id = "merkle"
	}
	pk, err := e.resolvePubkey(id)
	if err != nil {
		return nil, errors.Wrap(err, "merkle distributor program id: set --program-id or a \"merkle\" alias")
	}
	return merkle.New(pk), nil
}

func (e *env) dataEncoding() (encoding.Encoding, error) {
	return encoding.Parse(e.cfg.Encoding)
}

var decodeCommand = command{
	usage: "decode <token|metadata|merkle> <data> - decode account data",
	flags: func(fs *pflag.FlagSet, o *options) {
		fs.StringVar(&o.programID, "program-id", "", "merkle distributor program id or alias")
	},
	run: func(e *env, args []string) error {
		if len(args) != 2 {
			return errors.Wrap(errUsage, "decode needs a program and the account data")
		}
		enc, err := e.dataEncoding()
		if err != nil {
			return err
		}
		data, err := encoding.Decode(args[1], enc)
		if err != nil {
			return err
		}
		name, v, err := e.decodeAccount(args[0], data)
		if err != nil {
			return err
		}
		return e.print(map[string]any{"type": name, "value": v})
	},
}

func (e *env) openStore() (*accounts.BadgerDB, error) {
	db, err := accounts.NewBadgerDB(e.cfg.Store)
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", e.cfg.Store)
	}
	return db, nil
}

var putCommand = command{
	usage: "put <data> --pubkey <key> --owner <program> - store an account",
	flags: func(fs *pflag.FlagSet, o *options) {
		fs.StringVar(&o.pubkey, "pubkey", "", "account address")
		fs.StringVar(&o.owner, "owner", "", "owning program id or alias")
		fs.Uint64Var(&o.lamports, "lamports", 0, "account balance; zero stores the rent-exempt minimum")
	},
	run: func(e *env, args []string) error {
		if len(args) != 1 || e.opts.pubkey == "" || e.opts.owner == "" {
			return errors.Wrap(errUsage, "put needs data, --pubkey and --owner")
		}
		pubkey, err := e.resolvePubkey(e.opts.pubkey)
		if err != nil {
			return err
		}
		owner, err := e.resolvePubkey(e.opts.owner)
		if err != nil {
			return err
		}
		enc, err := e.dataEncoding()
		if err != nil {
			return err
		}
		data, err := encoding.Decode(args[0], enc)
		if err != nil {
			return err
		}
		lamports := types.Lamports(e.opts.lamports)
		if lamports == 0 {
			lamports = types.RentExemptMinimum(uint64(len(data)))
		}

		db, err := e.openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SetAccount(pubkey, types.NewAccountWithData(lamports, data, owner)); err != nil {
			return err
		}
		e.logger.Info("stored account",
			zap.Stringer("pubkey", pubkey),
			zap.Stringer("owner", owner),
			zap.Int("data_len", len(data)),
		)
		return nil
	},
}

// optionalKey appends a pubkey filter when flag is set.
func (e *env) optionalKey(filters []accounts.Filter, flag string, build func(types.Pubkey) accounts.Filter) ([]accounts.Filter, error) {
	if flag == "" {
		return filters, nil
	}
	pk, err := e.resolvePubkey(flag)
	if err != nil {
		return nil, err
	}
	return append(filters, build(pk)), nil
}

type scanResult struct {
	Address types.Pubkey `yaml:"address"`
	Type    string       `yaml:"type"`
	Value   any          `yaml:"value"`
}

func (e *env) scanTokenAccounts(store accounts.Store) ([]scanResult, error) {
	filters := []accounts.Filter{token.AccountSizeFilter()}
	filters, err := e.optionalKey(filters, e.opts.mint, token.MintFilter)
	if err != nil {
		return nil, err
	}
	if filters, err = e.optionalKey(filters, e.opts.owner, token.OwnerFilter); err != nil {
		return nil, err
	}
	var out []scanResult
	for _, program := range []types.Pubkey{types.TokenProgramID, types.Token2022ProgramID} {
		err := store.ForEachOwned(program, func(pubkey types.Pubkey, account *types.Account) error {
			for _, f := range filters {
				if !f.Matches(account.Data) {
					return nil
				}
			}
			ta, err := token.LoadAccount(account)
			if err != nil {
				return errors.Wrapf(err, "account %s", pubkey)
			}
			out = append(out, scanResult{Address: pubkey, Type: "Account", Value: ta})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *env) scanMerkle(store accounts.Store, kind string) ([]scanResult, error) {
	p, err := e.merkleProgram()
	if err != nil {
		return nil, err
	}
	var out []scanResult
	switch kind {
	case "claim-status":
		var filters []accounts.Filter
		if filters, err = e.optionalKey(filters, e.opts.claimant, merkle.ClaimantFilter); err != nil {
			return nil, err
		}
		if filters, err = e.optionalKey(filters, e.opts.distributor, merkle.DistributorFilter); err != nil {
			return nil, err
		}
		found, err := p.ClaimStatuses(store, filters...)
		if err != nil {
			return nil, err
		}
		for _, d := range found {
			out = append(out, scanResult{Address: d.Address, Type: d.Name, Value: d.Value})
		}
	default:
		var filters []accounts.Filter
		if filters, err = e.optionalKey(filters, e.opts.mint, merkle.MintFilter); err != nil {
			return nil, err
		}
		if filters, err = e.optionalKey(filters, e.opts.admin, merkle.AdminFilter); err != nil {
			return nil, err
		}
		found, err := p.Distributors(store, filters...)
		if err != nil {
			return nil, err
		}
		for _, d := range found {
			out = append(out, scanResult{Address: d.Address, Type: d.Name, Value: d.Value})
		}
	}
	return out, nil
}

func (e *env) scanMetadata(store accounts.Store) ([]scanResult, error) {
	var filters []accounts.Filter
	filters, err := e.optionalKey(filters, e.opts.mint, metadata.MintFilter)
	if err != nil {
		return nil, err
	}
	if filters, err = e.optionalKey(filters, e.opts.updateAuthority, metadata.UpdateAuthorityFilter); err != nil {
		return nil, err
	}
	found, err := metadata.Scan(store, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]scanResult, 0, len(found))
	for _, d := range found {
		out = append(out, scanResult{Address: d.Address, Type: d.Name, Value: d.Value})
	}
	return out, nil
}

var scanCommand = command{
	usage: "scan <token-accounts|claim-status|distributor|metadata> - list stored accounts",
	flags: func(fs *pflag.FlagSet, o *options) {
		fs.StringVar(&o.programID, "program-id", "", "merkle distributor program id or alias")
		fs.StringVar(&o.mint, "mint", "", "filter by mint")
		fs.StringVar(&o.owner, "owner", "", "filter token accounts by owner")
		fs.StringVar(&o.claimant, "claimant", "", "filter claim statuses by claimant")
		fs.StringVar(&o.distributor, "distributor", "", "filter claim statuses by distributor")
		fs.StringVar(&o.admin, "admin", "", "filter distributors by admin")
		fs.StringVar(&o.updateAuthority, "update-authority", "", "filter metadata by update authority")
	},
	run: func(e *env, args []string) error {
		if len(args) != 1 {
			return errors.Wrap(errUsage, "scan needs an account kind")
		}
		db, err := e.openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		var out []scanResult
		switch args[0] {
		case "token-accounts":
			out, err = e.scanTokenAccounts(db)
		case "claim-status", "distributor":
			out, err = e.scanMerkle(db, args[0])
		case "metadata":
			out, err = e.scanMetadata(db)
		default:
			return errors.Wrapf(errUsage, "unknown account kind %q", args[0])
		}
		if err != nil {
			return err
		}
		e.logger.Debug("scan complete", zap.String("kind", args[0]), zap.Int("accounts", len(out)))
		return e.print(out)
	},
}

// allocation is one entry of a proof allocation file.
type allocation struct {
	Claimant string `yaml:"claimant"`
	Unlocked uint64 `yaml:"unlocked"`
	Locked   uint64 `yaml:"locked"`
}

type claimProof struct {
	Claimant types.Pubkey `yaml:"claimant"`
	Index    int          `yaml:"index"`
	Proof    []string     `yaml:"proof"`
}

var proofCommand = command{
	usage: "proof <allocations.yaml> - merkle root and claim proofs for an airdrop",
	flags: func(fs *pflag.FlagSet, o *options) {
		fs.BoolVar(&o.legacy, "legacy", false, "index-keyed keccak leaves; the amount is unlocked only")
	},
	run: func(e *env, args []string) error {
		if len(args) != 1 {
			return errors.Wrap(errUsage, "proof needs an allocation file")
		}
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "read allocations")
		}
		var allocs []allocation
		if err := yaml.Unmarshal(raw, &allocs); err != nil {
			return errors.Wrap(err, "parse allocations")
		}

		scheme := merkle.DistributorScheme
		if e.opts.legacy {
			scheme = merkle.LegacyScheme
		}
		claimants := make([]types.Pubkey, len(allocs))
		leaves := make([][32]byte, len(allocs))
		for i, a := range allocs {
			if claimants[i], err = e.resolvePubkey(a.Claimant); err != nil {
				return errors.Wrapf(err, "allocation %d", i)
			}
			if e.opts.legacy {
				leaves[i] = merkle.LegacyClaimLeaf(uint64(i), claimants[i], a.Unlocked)
			} else {
				leaves[i] = merkle.ClaimLeaf(claimants[i], a.Unlocked, a.Locked)
			}
		}
		tree, err := merkle.NewTree(scheme, leaves)
		if err != nil {
			return err
		}

		root := tree.Root()
		out := struct {
			Root   string       `yaml:"root"`
			Claims []claimProof `yaml:"claims"`
		}{Root: hex.EncodeToString(root[:])}
		for i := range leaves {
			proof, err := tree.Proof(i)
			if err != nil {
				return err
			}
			nodes := make([]string, len(proof))
			for j, n := range proof {
				nodes[j] = hex.EncodeToString(n)
			}
			out.Claims = append(out.Claims, claimProof{Claimant: claimants[i], Index: i, Proof: nodes})
		}
		e.logger.Debug("built merkle tree", zap.Int("leaves", tree.Len()), zap.Bool("legacy", e.opts.legacy))
		return e.print(out)
	},
}
