package merkle

import (
	"github.com/cockroachdb/errors"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// ErrInvalidParams is returned by DistributorConfig.Build.
var ErrInvalidParams = errors.New("merkle: invalid distributor params")

// NewDistributorParams are the arguments of new_distributor.
type NewDistributorParams struct {
	Version              uint64
	Root                 [32]byte
	MaxTotalClaim        uint64
	MaxNumNodes          uint64
	StartVestingTs       int64
	EndVestingTs         int64
	ClawbackStartTs      int64
	ActivationPoint      uint64
	ActivationType       ActivationType
	Closable             bool
	TotalBonus           uint64
	BonusVestingDuration uint64
	ClaimType            uint8
	Operator             types.Pubkey
	Locker               types.Pubkey
}

// NewDistributorParamsSize is the encoded size of NewDistributorParams.
const NewDistributorParamsSize = 171

func (p NewDistributorParams) Len() int { return NewDistributorParamsSize }

func (p NewDistributorParams) MarshalBorsh(w *borsh.Writer) error {
	if err := w.WriteUint64(p.Version); err != nil {
		return err
	}
	if err := w.WriteRaw(p.Root[:]); err != nil {
		return err
	}
	if err := w.WriteUint64(p.MaxTotalClaim); err != nil {
		return err
	}
	if err := w.WriteUint64(p.MaxNumNodes); err != nil {
		return err
	}
	for _, ts := range []int64{p.StartVestingTs, p.EndVestingTs, p.ClawbackStartTs} {
		if err := w.WriteInt64(ts); err != nil {
			return err
		}
	}
	if err := w.WriteUint64(p.ActivationPoint); err != nil {
		return err
	}
	if err := borsh.WriteEnum(w, p.ActivationType); err != nil {
		return err
	}
	if err := w.WriteBool(p.Closable); err != nil {
		return err
	}
	if err := w.WriteUint64(p.TotalBonus); err != nil {
		return err
	}
	if err := w.WriteUint64(p.BonusVestingDuration); err != nil {
		return err
	}
	if err := w.WriteUint8(p.ClaimType); err != nil {
		return err
	}
	if err := w.WritePublicKey(p.Operator); err != nil {
		return err
	}
	return w.WritePublicKey(p.Locker)
}

func (p *NewDistributorParams) UnmarshalBorsh(r *borsh.Reader) (err error) {
	if p.Version, err = r.ReadUint64(); err != nil {
		return err
	}
	if err = r.ReadInto(p.Root[:]); err != nil {
		return err
	}
	if p.MaxTotalClaim, err = r.ReadUint64(); err != nil {
		return err
	}
	if p.MaxNumNodes, err = r.ReadUint64(); err != nil {
		return err
	}
	for _, ts := range []*int64{&p.StartVestingTs, &p.EndVestingTs, &p.ClawbackStartTs} {
		if *ts, err = r.ReadInt64(); err != nil {
			return err
		}
	}
	if p.ActivationPoint, err = r.ReadUint64(); err != nil {
		return err
	}
	if p.ActivationType, err = borsh.ReadEnum[ActivationType](r, "ActivationType", 2); err != nil {
		return err
	}
	if p.Closable, err = r.ReadBool(); err != nil {
		return err
	}
	if p.TotalBonus, err = r.ReadUint64(); err != nil {
		return err
	}
	if p.BonusVestingDuration, err = r.ReadUint64(); err != nil {
		return err
	}
	if p.ClaimType, err = r.ReadUint8(); err != nil {
		return err
	}
	if p.Operator, err = r.ReadPublicKey(); err != nil {
		return err
	}
	p.Locker, err = r.ReadPublicKey()
	return err
}

// DistributorConfig collects the settings of a new distributor. Build
// checks them and produces the instruction arguments.
type DistributorConfig struct {
	Version         uint64
	Root            [32]byte
	MaxTotalClaim   uint64
	MaxNumNodes     uint64
	StartVestingTs  int64
	EndVestingTs    int64
	ClawbackStartTs int64

	// Zero activates immediately.
	ActivationPoint uint64
	ActivationType  ActivationType
	Closable        bool

	TotalBonus           uint64
	BonusVestingDuration uint64
	ClaimType            uint8

	// Zero means claims do not need an operator signature.
	Operator types.Pubkey
	Locker   types.Pubkey
}

// Build validates the configuration.
func (c DistributorConfig) Build() (NewDistributorParams, error) {
	switch {
	case c.Root == [32]byte{}:
		return NewDistributorParams{}, errors.Wrap(ErrInvalidParams, "root is empty")
	case c.MaxTotalClaim == 0:
		return NewDistributorParams{}, errors.Wrap(ErrInvalidParams, "max total claim is zero")
	case c.MaxNumNodes == 0:
		return NewDistributorParams{}, errors.Wrap(ErrInvalidParams, "max num nodes is zero")
	case c.EndVestingTs < c.StartVestingTs:
		return NewDistributorParams{}, errors.Wrapf(ErrInvalidParams, "vesting ends at %d before it starts at %d", c.EndVestingTs, c.StartVestingTs)
	case c.ClawbackStartTs <= c.EndVestingTs:
		return NewDistributorParams{}, errors.Wrapf(ErrInvalidParams, "clawback starts at %d, not after vesting end %d", c.ClawbackStartTs, c.EndVestingTs)
	case c.ActivationType > ActivationTypeTimestamp:
		return NewDistributorParams{}, errors.Wrapf(ErrInvalidParams, "activation type %d", c.ActivationType)
	case c.TotalBonus > c.MaxTotalClaim:
		return NewDistributorParams{}, errors.Wrapf(ErrInvalidParams, "bonus %d exceeds max total claim %d", c.TotalBonus, c.MaxTotalClaim)
	}
	return NewDistributorParams{
		Version:              c.Version,
		Root:                 c.Root,
		MaxTotalClaim:        c.MaxTotalClaim,
		MaxNumNodes:          c.MaxNumNodes,
		StartVestingTs:       c.StartVestingTs,
		EndVestingTs:         c.EndVestingTs,
		ClawbackStartTs:      c.ClawbackStartTs,
		ActivationPoint:      c.ActivationPoint,
		ActivationType:       c.ActivationType,
		Closable:             c.Closable,
		TotalBonus:           c.TotalBonus,
		BonusVestingDuration: c.BonusVestingDuration,
		ClaimType:            c.ClaimType,
		Operator:             c.Operator,
		Locker:               c.Locker,
	}, nil
}
