package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/discriminator"
	"github.com/sava-software/anchor-programs-sub010/pkg/programs/merkle"
	"github.com/sava-software/anchor-programs-sub010/pkg/programs/metadata"
	"github.com/sava-software/anchor-programs-sub010/pkg/programs/token"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

func key(seed string) types.Pubkey {
	return types.Pubkey(types.SHA256Multi([]byte(seed)))
}

var merkleProgramID = key("merkle-distributor")

// writeConfig writes a config file pointing at a fresh store and returns
// the flags selecting it.
func writeConfig(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		LogLevel: "error",
		Store:    filepath.Join(dir, "accounts"),
		Encoding: "base64",
		Programs: map[string]string{"merkle": merkleProgramID.String()},
	}
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return []string{"--config", path}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(args, &stdout, &stderr), stderr.String())
	return stdout.String()
}

func decodeOutput[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, yaml.Unmarshal([]byte(out), &v), out)
	return v
}

func TestUsage(t *testing.T) {
	out := execute(t)
	for name := range commands {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, execute(t, "version"), Version)

	err := run([]string{"frobnicate"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")

	err = run([]string{"derive", "--help"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorIs(t, err, pflag.ErrHelp)
}

func TestDiscriminatorCommand(t *testing.T) {
	flags := writeConfig(t)
	out := decodeOutput[[]map[string]any](t, execute(t, append([]string{"discriminator", "newClaim", "new_claim"}, flags...)...))
	require.Len(t, out, 2)
	assert.Equal(t, merkle.NewClaimDiscriminator.String(), out[0]["hex"])
	assert.Equal(t, out[0]["hex"], out[1]["hex"])

	out = decodeOutput[[]map[string]any](t, execute(t, append([]string{"discriminator", "-n", "account", "ClaimStatus"}, flags...)...))
	assert.Equal(t, merkle.ClaimStatusDiscriminator.String(), out[0]["hex"])

	err := run(append([]string{"discriminator", "-n", "bogus", "x"}, flags...), &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorIs(t, err, errUsage)
}

func TestDeriveCommands(t *testing.T) {
	flags := writeConfig(t)
	wallet, mint := key("wallet"), key("mint")

	out := decodeOutput[map[string]any](t, execute(t, append([]string{"ata", wallet.String(), mint.String()}, flags...)...))
	want, _, err := solana.FindAssociatedTokenAddress(solana.PublicKey(wallet), solana.PublicKey(mint))
	require.NoError(t, err)
	assert.Equal(t, want.String(), out["address"])

	out = decodeOutput[map[string]any](t, execute(t, append([]string{"derive", "metadata", "metadata", "pubkey:metadata", "pubkey:" + mint.String()}, flags...)...))
	addr, err := metadata.MetadataAddress(mint)
	require.NoError(t, err)
	assert.Equal(t, addr.Key.String(), out["address"])
	assert.Equal(t, int(addr.Bump), out["bump"])

	base := key("base")
	out = decodeOutput[map[string]any](t, execute(t, append([]string{"derive", "merkle", "str:MerkleDistributor", "pubkey:" + base.String(), "pubkey:" + mint.String(), "u64:7"}, flags...)...))
	distributor, err := merkle.New(merkleProgramID).DistributorAddress(base, mint, 7)
	require.NoError(t, err)
	assert.Equal(t, distributor.Key.String(), out["address"])

	err = run(append([]string{"derive", "merkle", "u8:256"}, flags...), &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestParseSeed(t *testing.T) {
	e := &env{cfg: defaultConfig()}
	for in, want := range map[string][]byte{
		"plain":    []byte("plain"),
		"str:a:b":  []byte("a:b"),
		"hex:0aff": {0x0a, 0xff},
		"u8:7":     {7},
		"u16:258":  {2, 1},
		"u32:1":    {1, 0, 0, 0},
		"u64:1":    {1, 0, 0, 0, 0, 0, 0, 0},
		"other:x":  []byte("other:x"),
	} {
		got, err := e.parseSeed(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := e.parseSeed("hex:zz")
	require.Error(t, err)
}

func TestDecodeCommand(t *testing.T) {
	flags := writeConfig(t)
	authority := key("authority")
	mint := token.NewMint(6, &authority, nil)
	mint.Supply = 1_000_000
	data, err := borsh.Marshal(mint)
	require.NoError(t, err)

	out := decodeOutput[map[string]any](t, execute(t, append([]string{"decode", "token", base64.StdEncoding.EncodeToString(data)}, flags...)...))
	assert.Equal(t, "Mint", out["type"])
	value := out["value"].(map[string]any)
	assert.Equal(t, 1_000_000, value["supply"])
	assert.Equal(t, authority.String(), value["mintauthority"])

	cs := merkle.ClaimStatus{Claimant: key("claimant"), LockedAmount: 5}
	framed, err := discriminator.Frame(merkle.ClaimStatusDiscriminator, cs)
	require.NoError(t, err)
	out = decodeOutput[map[string]any](t, execute(t, append([]string{"decode", "merkle", base64.StdEncoding.EncodeToString(framed)}, flags...)...))
	assert.Equal(t, "ClaimStatus", out["type"])

	err = run(append([]string{"decode", "token", "!!"}, flags...), &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	err = run(append([]string{"decode", "stake", "AA=="}, flags...), &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorIs(t, err, errUsage)
}

func TestPutAndScan(t *testing.T) {
	flags := writeConfig(t)
	put := func(pubkey types.Pubkey, owner string, data []byte) {
		execute(t, append([]string{"put", base64.StdEncoding.EncodeToString(data), "--pubkey", pubkey.String(), "--owner", owner}, flags...)...)
	}

	mine := merkle.ClaimStatus{Claimant: key("me"), Distributor: key("distributor"), LockedAmount: 10}
	other := merkle.ClaimStatus{Claimant: key("other"), Distributor: key("distributor")}
	for addr, cs := range map[string]merkle.ClaimStatus{"cs-mine": mine, "cs-other": other} {
		data, err := discriminator.Frame(merkle.ClaimStatusDiscriminator, cs)
		require.NoError(t, err)
		put(key(addr), "merkle", data)
	}

	holder := key("holder")
	ta := token.NewAccount(key("mint"), holder)
	ta.Amount = 42
	data, err := borsh.Marshal(ta)
	require.NoError(t, err)
	put(key("token-account"), "token", data)

	out := decodeOutput[[]scanResultOut](t, execute(t, append([]string{"scan", "claim-status"}, flags...)...))
	assert.Len(t, out, 2)

	out = decodeOutput[[]scanResultOut](t, execute(t, append([]string{"scan", "claim-status", "--claimant", mine.Claimant.String()}, flags...)...))
	require.Len(t, out, 1)
	assert.Equal(t, key("cs-mine").String(), out[0].Address)

	out = decodeOutput[[]scanResultOut](t, execute(t, append([]string{"scan", "token-accounts", "--owner", holder.String()}, flags...)...))
	require.Len(t, out, 1)
	assert.Equal(t, "Account", out[0].Type)

	out = decodeOutput[[]scanResultOut](t, execute(t, append([]string{"scan", "token-accounts", "--owner", key("nobody").String()}, flags...)...))
	assert.Empty(t, out)
}

type scanResultOut struct {
	Address string `yaml:"address"`
	Type    string `yaml:"type"`
}

func TestConfigPrecedence(t *testing.T) {
	flags := writeConfig(t)

	var g globalFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	g.register(fs)
	require.NoError(t, fs.Parse(append([]string{"--store", "/tmp/override"}, flags...)))
	cfg, err := g.resolve(fs)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override", cfg.Store, "flag beats file")
	assert.Equal(t, "error", cfg.LogLevel, "file beats default")
	assert.Equal(t, merkleProgramID.String(), cfg.Programs["merkle"])

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), true)
	require.Error(t, err)
	cfg, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig().LogLevel, cfg.LogLevel)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("programs:\n  x: not-a-key\n"), 0o600))
	_, err = loadConfig(bad, true)
	require.Error(t, err)
}

func TestProofCommand(t *testing.T) {
	flags := writeConfig(t)
	claimants := []types.Pubkey{key("a"), key("b"), key("c")}
	allocs := []allocation{
		{Claimant: claimants[0].String(), Unlocked: 100},
		{Claimant: claimants[1].String(), Unlocked: 200, Locked: 50},
		{Claimant: claimants[2].String(), Unlocked: 300},
	}
	raw, err := yaml.Marshal(allocs)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "allocations.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	type result struct {
		Root   string `yaml:"root"`
		Claims []struct {
			Claimant string   `yaml:"claimant"`
			Proof    []string `yaml:"proof"`
		} `yaml:"claims"`
	}
	out := decodeOutput[result](t, execute(t, append([]string{"proof", path}, flags...)...))
	require.Len(t, out.Claims, 3)

	rootBytes, err := hex.DecodeString(out.Root)
	require.NoError(t, err)
	root := [32]byte(rootBytes)
	for i, c := range out.Claims {
		assert.Equal(t, claimants[i].String(), c.Claimant)
		proof := make([][]byte, len(c.Proof))
		for j, n := range c.Proof {
			proof[j], err = hex.DecodeString(n)
			require.NoError(t, err)
		}
		claim := merkle.Claim{AmountUnlocked: allocs[i].Unlocked, AmountLocked: allocs[i].Locked, Proof: proof}
		assert.True(t, claim.Verify(root, claimants[i]), "claim %d", i)
	}

	legacy := decodeOutput[result](t, execute(t, append([]string{"proof", "--legacy", path}, flags...)...))
	assert.NotEqual(t, out.Root, legacy.Root)

	err = run(append([]string{"proof", filepath.Join(t.TempDir(), "missing.yaml")}, flags...), &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
}
