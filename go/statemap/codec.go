// Package statemap translates native block properties to canonical ones
// and back.
//
// A Group is a set of rules, each pairing one or more native property names
// with one or more canonical properties through a Codec. Groups are built
// once with a GroupBuilder and are immutable afterwards, so a single Group
// may be shared by any number of goroutines.
package statemap

import (
	stderrors "errors"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/identifier"
)

const MaxArity = 4

// Tuple is a fixed-size, comparable list of state values.
type Tuple struct {
	n uint8
	v [MaxArity]identifier.StateValue
}

// T builds a tuple. It panics on more than MaxArity values, which is a
// programming error in mapping data.
func T(vals ...identifier.StateValue) Tuple {
	if len(vals) > MaxArity {
		panic(errors.Errorf("tuple of %d values exceeds max arity %d", len(vals), MaxArity))
	}
	var t Tuple
	t.n = uint8(len(vals))
	copy(t.v[:], vals)
	return t
}

func (t Tuple) Len() int                       { return int(t.n) }
func (t Tuple) At(i int) identifier.StateValue { return t.v[i] }

func (t Tuple) String() string {
	parts := make([]string, t.n)
	for i := range parts {
		parts[i] = t.v[i].String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Codec converts between native and canonical tuples. ok is false when the
// input has no mapping; callers then leave the outputs unset.
type Codec interface {
	Decode(native Tuple) (canonical Tuple, ok bool)
	Encode(canonical Tuple) (native Tuple, ok bool)
	// Arity returns the native and canonical tuple sizes, 0 meaning any.
	Arity() (native, canonical int)
	// Total reports whether Encode succeeds for every input, so Build can
	// skip the exhaustive check.
	Total() bool
}

type identity struct{}

// Identity passes a single value through verbatim in both directions.
func Identity() Codec { return identity{} }

func (identity) Decode(n Tuple) (Tuple, bool) { return n, n.n == 1 }
func (identity) Encode(c Tuple) (Tuple, bool) { return c, c.n == 1 }
func (identity) Arity() (int, int)            { return 1, 1 }
func (identity) Total() bool                  { return true }

// Table is a lookup table codec. Build one with NewTable.
type Table struct {
	nativeArity, canonicalArity int

	decode map[Tuple]Tuple
	encode map[Tuple]Tuple

	decodeDefault, encodeDefault *Tuple

	nearestLower bool
	lowerKeys    []int32
}

type TableBuilder struct {
	t    *Table
	errs []error
}

func NewTable(nativeArity, canonicalArity int) *TableBuilder {
	return &TableBuilder{t: &Table{
		nativeArity:    nativeArity,
		canonicalArity: canonicalArity,
		decode:         map[Tuple]Tuple{},
		encode:         map[Tuple]Tuple{},
	}}
}

func (b *TableBuilder) check(native, canonical Tuple) bool {
	if native.Len() != b.t.nativeArity || canonical.Len() != b.t.canonicalArity {
		b.errs = append(b.errs, errors.Errorf("table entry %v -> %v does not match arity %d:%d",
			native, canonical, b.t.nativeArity, b.t.canonicalArity))
		return false
	}
	return true
}

// Map adds a two-way mapping. Each native tuple and each canonical tuple may
// be mapped at most once; extra native spellings go through DecodeOnly.
func (b *TableBuilder) Map(native, canonical Tuple) *TableBuilder {
	if !b.check(native, canonical) {
		return b
	}
	if prev, ok := b.t.encode[canonical]; ok {
		b.errs = append(b.errs, errors.Errorf("canonical %v already encodes to %v, cannot also encode to %v", canonical, prev, native))
		return b
	}
	b.t.encode[canonical] = native
	return b.DecodeOnly(native, canonical)
}

// MapOne is Map for single values.
func (b *TableBuilder) MapOne(native, canonical identifier.StateValue) *TableBuilder {
	return b.Map(T(native), T(canonical))
}

// DecodeOnly adds a native tuple that decodes to canonical but is never
// produced by Encode.
func (b *TableBuilder) DecodeOnly(native, canonical Tuple) *TableBuilder {
	if !b.check(native, canonical) {
		return b
	}
	if prev, ok := b.t.decode[native]; ok {
		b.errs = append(b.errs, errors.Errorf("native %v already decodes to %v, cannot also decode to %v", native, prev, canonical))
		return b
	}
	b.t.decode[native] = canonical
	return b
}

// EncodeOnly adds a canonical tuple that encodes to native but is never
// produced by Decode. Lossy encodings, where the native form cannot carry
// every canonical value, use this for the tuples that collapse.
func (b *TableBuilder) EncodeOnly(canonical, native Tuple) *TableBuilder {
	if !b.check(native, canonical) {
		return b
	}
	if prev, ok := b.t.encode[canonical]; ok {
		b.errs = append(b.errs, errors.Errorf("canonical %v already encodes to %v, cannot also encode to %v", canonical, prev, native))
		return b
	}
	b.t.encode[canonical] = native
	return b
}

// Default sets the fallback used in both directions for unmapped inputs.
func (b *TableBuilder) Default(native, canonical Tuple) *TableBuilder {
	if !b.check(native, canonical) {
		return b
	}
	if b.t.decodeDefault != nil {
		b.errs = append(b.errs, errors.New("table default set twice"))
		return b
	}
	b.t.decodeDefault, b.t.encodeDefault = &canonical, &native
	return b
}

// NearestLower makes unmapped single int natives decode like the greatest
// mapped int below them. It takes precedence over Default.
func (b *TableBuilder) NearestLower() *TableBuilder {
	if b.t.nativeArity != 1 {
		b.errs = append(b.errs, errors.New("nearest-lower fallback needs a single native value"))
	}
	b.t.nearestLower = true
	return b
}

func (b *TableBuilder) Build() (*Table, error) {
	if len(b.errs) > 0 {
		return nil, errors.Wrapf(joinErrors(b.errs), "building %d:%d table", b.t.nativeArity, b.t.canonicalArity)
	}
	if b.t.nearestLower {
		for k := range b.t.decode {
			if k.v[0].Kind() == identifier.KindInt {
				b.t.lowerKeys = append(b.t.lowerKeys, k.v[0].IntValue())
			}
		}
		sort.Slice(b.t.lowerKeys, func(i, j int) bool { return b.t.lowerKeys[i] < b.t.lowerKeys[j] })
	}
	return b.t, nil
}

// MustBuild is for static mapping data, where a bad table is a bug.
func (b *TableBuilder) MustBuild() *Table {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Decode(native Tuple) (Tuple, bool) {
	if c, ok := t.decode[native]; ok {
		return c, true
	}
	if t.nearestLower && native.n == 1 && native.v[0].Kind() == identifier.KindInt {
		x := native.v[0].IntValue()
		// first key > x, step back one
		i := sort.Search(len(t.lowerKeys), func(i int) bool { return t.lowerKeys[i] > x })
		if i > 0 {
			return t.decode[T(identifier.Int(t.lowerKeys[i-1]))], true
		}
	}
	if t.decodeDefault != nil {
		return *t.decodeDefault, true
	}
	return Tuple{}, false
}

func (t *Table) Encode(canonical Tuple) (Tuple, bool) {
	if n, ok := t.encode[canonical]; ok {
		return n, true
	}
	if t.encodeDefault != nil {
		return *t.encodeDefault, true
	}
	return Tuple{}, false
}

func (t *Table) Arity() (int, int) { return t.nativeArity, t.canonicalArity }

func (t *Table) Total() bool { return t.encodeDefault != nil }

// Len is the number of decodable native tuples.
func (t *Table) Len() int { return len(t.decode) }

// BoolInts maps native 0/1 ints to canonical booleans. Native booleans are
// accepted on decode too, since byte tags of 0 and 1 read back as booleans.
func BoolInts() *Table {
	return NewTable(1, 1).
		MapOne(identifier.Int(0), identifier.Bool(false)).
		MapOne(identifier.Int(1), identifier.Bool(true)).
		DecodeOnly(T(identifier.Bool(false)), T(identifier.Bool(false))).
		DecodeOnly(T(identifier.Bool(true)), T(identifier.Bool(true))).
		MustBuild()
}

// Rename maps native enum spellings to canonical enum values.
func Rename(nativeToCanonical map[string]string) *TableBuilder {
	b := NewTable(1, 1)
	keys := make([]string, 0, len(nativeToCanonical))
	for k := range nativeToCanonical {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.MapOne(identifier.Enum(k), identifier.Enum(nativeToCanonical[k]))
	}
	return b
}

// IntEnums maps native int i to canonical enum values[i].
func IntEnums(values ...string) *TableBuilder {
	b := NewTable(1, 1)
	for i, v := range values {
		b.MapOne(identifier.Int(int32(i)), identifier.Enum(v))
	}
	return b
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return stderrors.Join(errs...)
}
