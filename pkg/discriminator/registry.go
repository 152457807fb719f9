package discriminator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/sava-software/anchor-programs-sub010/pkg/borsh"
	"github.com/sava-software/anchor-programs-sub010/pkg/log"
	"github.com/sava-software/anchor-programs-sub010/pkg/types"
)

// Registry errors.
var (
	// ErrUnknownDiscriminator is returned when a tag has no registered decoder.
	ErrUnknownDiscriminator = errors.New("discriminator: unknown discriminator")

	// ErrDuplicateDiscriminator is returned when a tag is registered twice.
	ErrDuplicateDiscriminator = errors.New("discriminator: duplicate discriminator")
)

// UnknownDiscriminatorError reports the program and the unmatched tag.
type UnknownDiscriminatorError struct {
	Program       types.Pubkey
	Discriminator Discriminator
}

func (e *UnknownDiscriminatorError) Error() string {
	return fmt.Sprintf("discriminator: unknown discriminator %s for program %s", e.Discriminator, e.Program)
}

// Unwrap makes the error match ErrUnknownDiscriminator.
func (e *UnknownDiscriminatorError) Unwrap() error {
	return ErrUnknownDiscriminator
}

// Decoder builds a value from the payload that follows the discriminator.
type Decoder[T any] func(r *borsh.Reader) (T, error)

// Entry describes one registered type.
type Entry struct {
	Name          string
	Discriminator Discriminator
}

type registration[T any] struct {
	name   string
	decode Decoder[T]
}

// Registry is the closed set of types one program can emit for one kind of
// payload (instructions, accounts or events). Program bindings populate it
// at init time; afterwards it only dispatches, and is safe for concurrent
// use.
type Registry[T any] struct {
	program types.Pubkey
	kind    string

	mu      sync.RWMutex
	entries map[Discriminator]registration[T]
}

// NewRegistry creates an empty registry for program. kind names the payload
// family in logs and errors, e.g. "account".
func NewRegistry[T any](program types.Pubkey, kind string) *Registry[T] {
	return &Registry[T]{
		program: program,
		kind:    kind,
		entries: make(map[Discriminator]registration[T]),
	}
}

// Program returns the program the registry belongs to.
func (r *Registry[T]) Program() types.Pubkey {
	return r.program
}

// Register adds a decoder for d. Registering a tag twice is an error even
// when the name matches.
func (r *Registry[T]) Register(d Discriminator, name string, decode Decoder[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.entries[d]; ok {
		return errors.Wrapf(ErrDuplicateDiscriminator, "%s %s collides with %s on %s", r.kind, name, prev.name, d)
	}
	r.entries[d] = registration[T]{name: name, decode: decode}

	log.Named("discriminator").Debug("registered",
		zap.Stringer("program", r.program),
		zap.String("kind", r.kind),
		zap.String("name", name),
		zap.Stringer("discriminator", d),
	)
	return nil
}

// MustRegister is Register for package initialization; it panics on error.
func (r *Registry[T]) MustRegister(d Discriminator, name string, decode Decoder[T]) {
	if err := r.Register(d, name, decode); err != nil {
		panic(err)
	}
}

// Lookup returns the name registered for d.
func (r *Registry[T]) Lookup(d Discriminator) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[d]
	return e.name, ok
}

// Entries returns every registration, sorted by name.
func (r *Registry[T]) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for d, e := range r.entries {
		out = append(out, Entry{Name: e.name, Discriminator: d})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Decode reads the discriminator at the start of data and decodes the
// payload with the matching decoder.
func (r *Registry[T]) Decode(data []byte) (T, error) {
	v, _, err := r.DecodeNamed(data)
	return v, err
}

// DecodeNamed is Decode that also returns the registered name.
func (r *Registry[T]) DecodeNamed(data []byte) (T, string, error) {
	var zero T
	d, err := FromBytes(data)
	if err != nil {
		return zero, "", err
	}

	r.mu.RLock()
	e, ok := r.entries[d]
	r.mu.RUnlock()
	if !ok {
		return zero, "", &UnknownDiscriminatorError{Program: r.program, Discriminator: d}
	}

	v, err := e.decode(borsh.NewReaderAt(data, Size))
	if err != nil {
		return zero, e.name, errors.Wrapf(err, "decode %s %s", r.kind, e.name)
	}
	return v, e.name, nil
}

// RegisterValue registers a record type whose pointer implements
// borsh.Unmarshaler, converting it to T with wrap.
func RegisterValue[T any, V any, PV interface {
	*V
	borsh.Unmarshaler
}](r *Registry[T], d Discriminator, name string, wrap func(V) T) error {
	return r.Register(d, name, func(rd *borsh.Reader) (T, error) {
		v, err := borsh.ReadValue[V, PV](rd)
		if err != nil {
			var zero T
			return zero, err
		}
		return wrap(v), nil
	})
}
