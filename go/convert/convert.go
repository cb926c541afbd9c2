// Package convert translates block identifiers between platforms: an input
// identifier is decoded by the source platform's resolver to a canonical
// block and encoded by the target platform's resolver.
package convert

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/coverage"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/mappingfile"
	"github.com/rmmh/blockbridge/go/mappings"
	"github.com/rmmh/blockbridge/go/region"
	"github.com/rmmh/blockbridge/go/resolver"
	"github.com/rmmh/blockbridge/go/version"
)

type blocks = resolver.Resolver[canonical.BlockType]

// Sink receives every identifier that could not be translated.
type Sink interface {
	Report(g coverage.Gap)
}

// A Converter is safe for concurrent use.
type Converter struct {
	Reader  *blocks
	Writer  *blocks
	Mapping *mappingfile.File
	Sink    Sink

	// Legacy decodes sections stored as numeric ids, which newer Java
	// worlds still carry in chunks that were never re-saved.
	Legacy *blocks

	airOnce sync.Once
	air     identifier.Identifier
	cache   sync.Map
}

type translation struct {
	out identifier.Identifier
	gap *coverage.Gap
}

var legacyJava = mappings.Target{Platform: mappings.Java, Version: version.New(1, 12, 2)}

// New builds the resolvers for a conversion from one platform release to
// another.
func New(from, to mappings.Target, allowCustom bool) (*Converter, error) {
	reader, err := mappings.Blocks(from, resolver.WithDirection(resolver.Decode), resolver.AllowCustom(allowCustom))
	if err != nil {
		return nil, errors.Wrap(err, "source")
	}
	writer, err := mappings.Blocks(to, resolver.WithDirection(resolver.Encode), resolver.AllowCustom(allowCustom))
	if err != nil {
		return nil, errors.Wrap(err, "target")
	}
	c := &Converter{Reader: reader, Writer: writer}
	if from.Platform == mappings.Java && from.Version.AtLeast(version.New(1, 13, 0)) {
		if c.Legacy, err = mappings.Blocks(legacyJava, resolver.WithDirection(resolver.Decode)); err != nil {
			return nil, errors.Wrap(err, "legacy source")
		}
	} else if from.Platform == mappings.Java {
		c.Legacy = reader
	}
	slog.Debug("converter ready", "from", from, "to", to,
		"reader", reader.Stats(), "writer", writer.Stats())
	return c, nil
}

// Air is what untranslatable blocks become.
func (c *Converter) Air() identifier.Identifier {
	c.airOnce.Do(func() {
		air, err := c.Writer.Encode(resolver.Result[canonical.BlockType]{Type: canonical.Air})
		if err != nil {
			slog.Warn("target has no air mapping, substituting the vanilla name", "err", err)
			air = identifier.New(identifier.VanillaNamespace + ":air")
		}
		c.air = air
	})
	return c.air
}

// Translate runs id through the mapping file, the reader and the writer.
// On failure it returns the target's air alongside an error wrapping
// resolver.ErrUnresolved, and the gap goes to the Sink.
func (c *Converter) Translate(id identifier.Identifier) (identifier.Identifier, error) {
	return c.translate(c.Reader, id, "")
}

func (c *Converter) translate(r *blocks, id identifier.Identifier, where string) (identifier.Identifier, error) {
	key := id.Key()
	if r == c.Legacy && r != c.Reader {
		key = "legacy\x00" + key
	}
	var t translation
	if cached, ok := c.cache.Load(key); ok {
		t = cached.(translation)
	} else {
		t = c.resolve(r, id)
		c.cache.Store(key, t)
	}
	if t.gap == nil {
		return t.out, nil
	}
	if c.Sink != nil {
		g := *t.gap
		g.Where = where
		c.Sink.Report(g)
	}
	return t.out, errors.Wrap(resolver.ErrUnresolved, t.gap.Op+" "+t.gap.Native+": "+t.gap.Reason)
}

func (c *Converter) resolve(r *blocks, id identifier.Identifier) translation {
	in := id
	if mapped, ok := c.Mapping.ConvertBlock(id); ok {
		in = mapped
	}
	res, err := r.Decode(in)
	if err != nil {
		return translation{out: c.Air(), gap: gapOf(err, id)}
	}
	out, err := c.Writer.Encode(res)
	if err != nil {
		return translation{out: c.Air(), gap: gapOf(err, id)}
	}
	return translation{out: out}
}

func gapOf(err error, id identifier.Identifier) *coverage.Gap {
	g := &coverage.Gap{Native: id.String(), Reason: err.Error()}
	var u *resolver.UnresolvedError
	if errors.As(err, &u) {
		g.Op, g.Type, g.Reason = u.Op, u.Type, u.Reason
	}
	return g
}

// TranslateSection returns a copy of s with its palette translated; the
// indices are shared. It also returns how many palette entries fell back to
// air.
func (c *Converter) TranslateSection(s region.Section, where string) (region.Section, int) {
	r := c.Reader
	if s.Legacy && c.Legacy != nil {
		r = c.Legacy
	}
	out := region.Section{Y: s.Y, Indices: s.Indices, Palette: make([]identifier.Identifier, len(s.Palette))}
	missed := 0
	for i, id := range s.Palette {
		var err error
		if out.Palette[i], err = c.translate(r, id, where); err != nil {
			missed++
		}
	}
	return out, missed
}
