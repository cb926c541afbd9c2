// Package mappingfile loads user supplied identifier remaps. A file holds
// block and item rules; each rule turns a matching input identifier into a
// replacement before it reaches the platform resolvers.
//
// Files are YAML or JSON:
//
//	blocks:
//	  - from: {name: "minecraft:wool", states: {color: orange}}
//	    to: {states: {color: red}}
//	  - from: {name: "$custom"}
//	    to: {name: "minecraft:stone", states: {}}
package mappingfile

import (
	_ "embed"
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/rmmh/blockbridge/go/identifier"
)

// Custom matches any identifier outside the vanilla namespace that has no
// rule of its own. As a target name it keeps the input name.
const Custom = "$custom"

// KeepStates as a target's states copies every input state unchanged.
const KeepStates = "*"

//go:embed schema.json
var schemaText string

var schema = jsonschema.MustCompileString("schema.json", schemaText)

// Match selects input identifiers by name and a subset of their states.
type Match struct {
	Name   string                           `json:"name"`
	States map[string]identifier.StateValue `json:"states,omitempty"`
}

func (m Match) matches(id identifier.Identifier) bool {
	for k, want := range m.States {
		if got, ok := id.States[k]; !ok || got != want {
			return false
		}
	}
	return true
}

// States is either KeepStates or an explicit replacement state map.
type States struct {
	Keep   bool
	Values map[string]identifier.StateValue
}

func (s States) MarshalJSON() ([]byte, error) {
	if s.Keep {
		return json.Marshal(KeepStates)
	}
	if s.Values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.Values)
}

func (s *States) UnmarshalJSON(b []byte) error {
	var str string
	if json.Unmarshal(b, &str) == nil {
		if str != KeepStates {
			return errors.Errorf("states must be an object or %q, got %q", KeepStates, str)
		}
		*s = States{Keep: true}
		return nil
	}
	*s = States{}
	return errors.Wrap(json.Unmarshal(b, &s.Values), "decoding states")
}

// Target describes the replacement. An empty Name (or Custom) keeps the
// input name; nil States behaves like KeepStates.
type Target struct {
	Name   string  `json:"name,omitempty"`
	States *States `json:"states,omitempty"`
}

type Rule struct {
	From Match  `json:"from"`
	To   Target `json:"to"`
}

func (r *Rule) rewrite(id identifier.Identifier) identifier.Identifier {
	out := identifier.Identifier{Name: r.To.Name}
	if out.Name == "" || out.Name == Custom {
		out.Name = id.Name
	}
	if r.To.States == nil || r.To.States.Keep {
		out.States = id.WithStates(nil).States
	} else if len(r.To.States.Values) > 0 {
		out.States = identifier.New(out.Name).WithStates(r.To.States.Values).States
	}
	return out
}

// lookup holds the rules for each input name, most specific first.
type lookup map[string][]*Rule

func compile(rules []Rule) (lookup, error) {
	l := lookup{}
	seen := map[string]int{}
	for i := range rules {
		r := &rules[i]
		if r.From.Name == "" {
			return nil, errors.Errorf("rule %d: missing from name", i)
		}
		key := identifier.Identifier{Name: r.From.Name, States: r.From.States}.Key()
		if prev, ok := seen[key]; ok {
			return nil, errors.Errorf("rule %d: duplicates rule %d (%s)", i, prev, key)
		}
		seen[key] = i
		l[r.From.Name] = append(l[r.From.Name], r)
	}
	for _, rs := range l {
		sort.SliceStable(rs, func(i, j int) bool {
			return len(rs[i].From.States) > len(rs[j].From.States)
		})
	}
	return l, nil
}

func (l lookup) apply(id identifier.Identifier, vanilla string) (identifier.Identifier, bool) {
	rules, ok := l[id.Name]
	if !ok {
		if id.IsVanilla(vanilla) {
			return id, false
		}
		if rules, ok = l[Custom]; !ok {
			return id, false
		}
	}
	for _, r := range rules {
		if r.From.matches(id) {
			return r.rewrite(id), true
		}
	}
	return id, false
}

// File is a compiled mapping file. A nil *File maps nothing.
type File struct {
	Vanilla string `json:"vanilla,omitempty"`
	Blocks  []Rule `json:"blocks,omitempty"`
	Items   []Rule `json:"items,omitempty"`

	blocks lookup
	items  lookup
}

// Load reads and validates a mapping file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading mapping file")
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return f, nil
}

// Parse decodes a YAML or JSON document, validates it against the embedded
// schema and compiles its rules.
func Parse(data []byte) (*File, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing mapping file")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "mapping file is not JSON compatible")
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, errors.Wrap(err, "validating mapping file")
	}
	f := &File{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, errors.Wrap(err, "decoding mapping file")
	}
	if err := f.compile(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) compile() error {
	if f.Vanilla == "" {
		f.Vanilla = identifier.VanillaNamespace
	}
	var err error
	if f.blocks, err = compile(f.Blocks); err != nil {
		return errors.Wrap(err, "blocks")
	}
	if f.items, err = compile(f.Items); err != nil {
		return errors.Wrap(err, "items")
	}
	return nil
}

// ConvertBlock rewrites a block identifier, reporting whether a rule matched.
func (f *File) ConvertBlock(id identifier.Identifier) (identifier.Identifier, bool) {
	if f == nil {
		return id, false
	}
	return f.blocks.apply(id, f.Vanilla)
}

// ConvertItem rewrites an item identifier. Items without an item rule fall
// back to the block rules, since most block items share the block's name.
func (f *File) ConvertItem(id identifier.Identifier) (identifier.Identifier, bool) {
	if f == nil {
		return id, false
	}
	if out, ok := f.items.apply(id, f.Vanilla); ok {
		return out, true
	}
	return f.blocks.apply(id, f.Vanilla)
}

// Len is the total number of rules.
func (f *File) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Blocks) + len(f.Items)
}

// Inverse builds the file that undoes this one where that is possible.
// Custom rules cannot be reversed and are dropped; when two rules produce
// the same output the first one wins.
func (f *File) Inverse() *File {
	if f == nil {
		return nil
	}
	inv := &File{
		Vanilla: f.Vanilla,
		Blocks:  invertRules(f.Blocks),
		Items:   invertRules(f.Items),
	}
	if err := inv.compile(); err != nil {
		// invertRules removes duplicates, so compile cannot fail.
		panic(err)
	}
	return inv
}

func invertRules(rules []Rule) []Rule {
	var out []Rule
	seen := map[string]bool{}
	for _, r := range rules {
		if r.From.Name == Custom {
			continue
		}
		from := Match{Name: r.To.Name, States: r.From.States}
		if from.Name == "" || from.Name == Custom {
			from.Name = r.From.Name
		}
		to := Target{Name: r.From.Name}
		if r.To.States != nil && !r.To.States.Keep {
			from.States = r.To.States.Values
			to.States = &States{Values: r.From.States}
		}
		key := identifier.Identifier{Name: from.Name, States: from.States}.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Rule{From: from, To: to})
	}
	return out
}
