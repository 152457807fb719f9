package accounts

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/sava-software/anchor-programs-sub010/pkg/discriminator"
	"github.com/sava-software/anchor-programs-sub010/pkg/log"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Decoded is a decoded account record together with its address.
type Decoded[T any] struct {
	Address types.Pubkey
	Name    string
	Value   T
}

// Scan decodes every account owned by the registry's program that passes
// all filters. The first account that fails to decode, including one with
// an unregistered discriminator, aborts the scan.
func Scan[T any](store Store, registry *discriminator.Registry[T], filters ...Filter) ([]Decoded[T], error) {
	program := registry.Program()
	logger := log.Named("accounts")

	var (
		out     []Decoded[T]
		skipped int
	)
	err := store.ForEachOwned(program, func(pubkey types.Pubkey, account *types.Account) error {
		if !matchAll(account.Data, filters) {
			skipped++
			return nil
		}
		v, name, err := registry.DecodeNamed(account.Data)
		if err != nil {
			return errors.Wrapf(err, "account %s", pubkey)
		}
		out = append(out, Decoded[T]{Address: pubkey, Name: name, Value: v})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("scanned program accounts",
		zap.Stringer("program", program),
		zap.Int("decoded", len(out)),
		zap.Int("filtered", skipped),
	)
	return out, nil
}

// Load reads one account and decodes it through the registry. A missing
// account returns nil.
func Load[T any](store Store, registry *discriminator.Registry[T], pubkey types.Pubkey) (*Decoded[T], error) {
	account, err := store.GetAccount(pubkey)
	if err != nil || account == nil {
		return nil, err
	}
	if !account.OwnedBy(registry.Program()) {
		return nil, errors.Newf("account %s is owned by %s, not %s", pubkey, account.Owner, registry.Program())
	}
	v, name, err := registry.DecodeNamed(account.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "account %s", pubkey)
	}
	return &Decoded[T]{Address: pubkey, Name: name, Value: v}, nil
}
