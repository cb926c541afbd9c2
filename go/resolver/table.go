package resolver

import (
	stderrors "errors"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/statemap"
	"github.com/rmmh/blockbridge/go/version"
)

type Direction uint8

const (
	Decode Direction = 1 << iota
	Encode
	Both = Decode | Encode
)

func (d Direction) String() string {
	switch d {
	case Decode:
		return "decode"
	case Encode:
		return "encode"
	case Both:
		return "both"
	}
	return "none"
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "decode", "read", "reader":
		return Decode, nil
	case "encode", "write", "writer":
		return Encode, nil
	case "both", "":
		return Both, nil
	}
	return 0, errors.Errorf("unknown direction %q", s)
}

type config struct {
	direction   Direction
	allowCustom bool
	vanilla     string
}

type Option func(*config)

// WithDirection limits which index is built. A reader only needs decode, a
// writer only encode.
func WithDirection(d Direction) Option { return func(c *config) { c.direction = d } }

// AllowCustom lets non-vanilla identifiers missing from the table pass
// through decode and encode unchanged.
func AllowCustom(allow bool) Option { return func(c *config) { c.allowCustom = allow } }

// VanillaNamespace changes the namespace never treated as custom.
func VanillaNamespace(ns string) Option { return func(c *config) { c.vanilla = ns } }

// Table collects registrations for one platform, version and direction.
// It is not safe for concurrent use; Build freezes it into a Resolver.
type Table[T canonical.Kind] struct {
	version version.Version
	cfg     config

	decode map[string]index[string, T]
	encode map[T]index[canonical.Property, T]
	extras []*statemap.Group

	errs   []error
	frozen bool
}

func NewTable[T canonical.Kind](v version.Version, opts ...Option) *Table[T] {
	cfg := config{direction: Both, vanilla: identifier.VanillaNamespace}
	for _, o := range opts {
		o(&cfg)
	}
	return &Table[T]{
		version: v,
		cfg:     cfg,
		decode:  map[string]index[string, T]{},
		encode:  map[T]index[canonical.Property, T]{},
	}
}

func (t *Table[T]) Version() version.Version { return t.version }

func (t *Table[T]) fail(err error) {
	t.errs = append(t.errs, err)
}

func (t *Table[T]) usable() bool {
	if t.frozen {
		t.fail(ErrFrozen)
		return false
	}
	return true
}

func (t *Table[T]) newEntry(m Mapping[T], r role) *entry[T] {
	g := statemap.Empty
	if m.Source != nil {
		if resolved := m.Source.Resolve(t.version); resolved != nil {
			g = resolved
		}
	}
	return &entry[T]{m: m, group: g, role: r}
}

// putDecode stores e under its native name and states. With replace set the
// slot must already be taken; without it the slot must be free.
func (t *Table[T]) putDecode(e *entry[T], replace bool) {
	if t.cfg.direction&Decode == 0 {
		return
	}
	keys, vals, err := nativeKeys(e.m.States)
	if err != nil {
		t.fail(errors.Wrapf(err, "decode %v", e.m.native()))
		return
	}
	var g *grouping[string, T]
	t.decode[e.m.Name], g = t.decode[e.m.Name].with(keys)
	prev := g.entries[vals]
	switch {
	case replace && prev == nil:
		t.fail(errors.Wrapf(ErrNoOverrideTarget, "decode %v", e.m.native()))
	case !replace && prev != nil:
		t.fail(errors.Wrapf(ErrAmbiguous, "%v decodes to both %v%v and %v%v",
			e.m.native(), prev.m.Type, prev.m.Canonical, e.m.Type, e.m.Canonical))
	default:
		g.entries[vals] = e
	}
}

func (t *Table[T]) putEncode(e *entry[T], replace bool) {
	if t.cfg.direction&Encode == 0 {
		return
	}
	keys, vals, err := canonicalKeys(e.m.Canonical)
	if err != nil {
		t.fail(errors.Wrapf(err, "encode %v", e.m.Type))
		return
	}
	var g *grouping[canonical.Property, T]
	t.encode[e.m.Type], g = t.encode[e.m.Type].with(keys)
	prev := g.entries[vals]
	switch {
	case replace && prev == nil:
		t.fail(errors.Wrapf(ErrNoOverrideTarget, "encode %v%v", e.m.Type, e.m.Canonical))
	case replace || prev == nil:
		g.entries[vals] = e
	case e.role == roleDuplicateOutput:
		slog.Debug("duplicate output shadowed", "type", e.m.Type, "canonical", e.m.Canonical,
			"kept", prev.m.native(), "dropped", e.m.native())
	case prev.role == roleDuplicateOutput:
		g.entries[vals] = e
	default:
		t.fail(errors.Wrapf(ErrDuplicate, "%v%v encodes to both %v and %v",
			e.m.Type, e.m.Canonical, prev.m.native(), e.m.native()))
	}
}

// Register adds canonical mappings, used for both decode and encode.
// Collisions with earlier registrations are errors.
func (t *Table[T]) Register(ms ...Mapping[T]) {
	if !t.usable() {
		return
	}
	for _, m := range ms {
		e := t.newEntry(m, roleCanonical)
		t.putDecode(e, false)
		t.putEncode(e, false)
	}
}

// RegisterDuplicateInput adds decode paths that are never used for encode.
func (t *Table[T]) RegisterDuplicateInput(d DuplicateInputs[T]) {
	if !t.usable() {
		return
	}
	for _, m := range d.ms {
		t.putDecode(t.newEntry(m, roleDuplicateInput), false)
	}
}

// RegisterDuplicateOutput adds encode candidates without decode paths. A
// canonical registration for the same type and states always wins.
func (t *Table[T]) RegisterDuplicateOutput(d DuplicateOutputs[T]) {
	if !t.usable() {
		return
	}
	for _, m := range d.ms {
		t.putEncode(t.newEntry(m, roleDuplicateOutput), false)
	}
}

// RegisterOverrideInput replaces the decode mapping for the same native name
// and states.
func (t *Table[T]) RegisterOverrideInput(ms ...Mapping[T]) {
	if !t.usable() {
		return
	}
	for _, m := range ms {
		t.putDecode(t.newEntry(m, roleOverride), true)
	}
}

// RegisterOverrideOutput replaces the encode mapping for the same canonical
// type and states.
func (t *Table[T]) RegisterOverrideOutput(ms ...Mapping[T]) {
	if !t.usable() {
		return
	}
	for _, m := range ms {
		t.putEncode(t.newEntry(m, roleOverride), true)
	}
}

func (t *Table[T]) RegisterOverrideInputOutput(ms ...Mapping[T]) {
	if !t.usable() {
		return
	}
	for _, m := range ms {
		e := t.newEntry(m, roleOverride)
		t.putDecode(e, true)
		t.putEncode(e, true)
	}
}

// RegisterExtra adds a group applied to every resolution after the
// mapping's own group. Its default native inputs also stand in for missing
// discriminating states on decode.
func (t *Table[T]) RegisterExtra(src statemap.Source) {
	if !t.usable() {
		return
	}
	if g := src.Resolve(t.version); g != nil {
		t.extras = append(t.extras, g)
	}
}

// RemoveOutput drops every encode mapping for ty, for types the platform
// has no equivalent of.
func (t *Table[T]) RemoveOutput(ty T) {
	if !t.usable() {
		return
	}
	delete(t.encode, ty)
}

// Err returns the registration errors so far.
func (t *Table[T]) Err() error {
	return stderrors.Join(t.errs...)
}

// Build freezes the table. Any registration error, including ones that
// could only show up at lookup time, fails the build.
func (t *Table[T]) Build() (*Resolver[T], error) {
	if !t.usable() {
		return nil, t.Err()
	}
	t.frozen = true
	for name, ix := range t.decode {
		if err := ix.ambiguity(); err != nil {
			t.fail(errors.Wrapf(ErrAmbiguous, "decode %s: %v", name, err))
		}
	}
	for ty, ix := range t.encode {
		if err := ix.ambiguity(); err != nil {
			t.fail(errors.Wrapf(ErrAmbiguous, "encode %v: %v", ty, err))
		}
	}
	if len(t.errs) > 0 {
		return nil, t.Err()
	}
	r := &Resolver[T]{
		version: t.version,
		cfg:     t.cfg,
		decode:  t.decode,
		encode:  t.encode,
		extras:  t.extras,
	}
	st := r.Stats()
	slog.Debug("resolver built", "version", t.version, "direction", t.cfg.direction,
		"names", st.Names, "decode", st.DecodeEntries, "types", st.Types, "encode", st.EncodeEntries)
	return r, nil
}

// MustBuild is for built-in mapping data, where an error is a bug.
func (t *Table[T]) MustBuild() *Resolver[T] {
	r, err := t.Build()
	if err != nil {
		panic(err)
	}
	return r
}
