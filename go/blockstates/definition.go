// Package blockstates reads the block state definitions shipped in a Java
// client jar and lists every state they describe, so the Java tables can be
// checked against what the game actually has.
package blockstates

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/rmmh/blockbridge/go/identifier"
)

type ModelSpec struct {
	Model  string `json:"model"`
	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`
	UVLock *bool  `json:"uvlock,omitempty"`
	Weight *int   `json:"weight,omitempty"`
}

// SingleOrSlice is a list that is written as a bare element when it has
// exactly one.
type SingleOrSlice[T any] []T

func (s SingleOrSlice[T]) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]T(s))
}

func (s *SingleOrSlice[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]T)(s))
	}
	*s = make([]T, 1)
	return json.Unmarshal(data, &(*s)[0])
}

// When is a multipart condition: a single property match, or an AND or OR
// of several.
type When struct {
	IsOr    bool
	Clauses []map[string]any
}

func (c *When) UnmarshalJSON(data []byte) error {
	var temp map[string]json.RawMessage
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	if or, ok := temp["OR"]; ok {
		c.IsOr = true
		return json.Unmarshal(or, &c.Clauses)
	} else if and, ok := temp["AND"]; ok {
		return json.Unmarshal(and, &c.Clauses)
	}
	var single map[string]any
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	c.Clauses = append(c.Clauses[:0], single)
	return nil
}

func (c When) MarshalJSON() ([]byte, error) {
	if c.IsOr {
		return json.Marshal(map[string][]map[string]any{"OR": c.Clauses})
	} else if len(c.Clauses) != 1 {
		return json.Marshal(map[string][]map[string]any{"AND": c.Clauses})
	}
	return json.Marshal(c.Clauses[0])
}

type Part struct {
	When  *When                    `json:"when,omitempty"`
	Apply SingleOrSlice[ModelSpec] `json:"apply,omitempty"`
}

// Definition is one assets/<ns>/blockstates/<block>.json file.
type Definition struct {
	Variants  map[string]SingleOrSlice[ModelSpec] `json:"variants,omitempty"`
	Multipart []Part                              `json:"multipart,omitempty"`
}

// conditionValues splits a condition value into the property values it
// matches: "side|up" matches both.
func conditionValues(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return strings.Split(v, "|"), nil
	case bool:
		return []string{strconv.FormatBool(v)}, nil
	case float64:
		return []string{strconv.FormatInt(int64(v), 10)}, nil
	}
	return nil, errors.Errorf("unhandled condition value %#v", v)
}

// Properties lists the values each property takes in the definition,
// sorted. A property only ever tested for "true" also takes "false".
func (d *Definition) Properties() (map[string][]string, error) {
	attrs := map[string][]string{}
	add := func(name, value string) {
		if !lo.Contains(attrs[name], value) {
			attrs[name] = append(attrs[name], value)
		}
	}
	for pred := range d.Variants {
		if pred == "" || pred == "normal" {
			continue
		}
		for _, part := range strings.Split(pred, ",") {
			name, value, ok := strings.Cut(part, "=")
			if !ok {
				return nil, errors.Errorf("variant %q: %q is not name=value", pred, part)
			}
			add(name, value)
		}
	}
	for _, part := range d.Multipart {
		if part.When == nil {
			continue
		}
		for _, conj := range part.When.Clauses {
			for name, v := range conj {
				values, err := conditionValues(v)
				if err != nil {
					return nil, errors.Wrapf(err, "property %s", name)
				}
				for _, value := range values {
					add(name, value)
				}
			}
		}
	}
	for name, values := range attrs {
		if len(values) == 1 && values[0] == "true" {
			values = append(values, "false")
		}
		sort.Strings(values)
		attrs[name] = values
	}
	return attrs, nil
}

// States expands the definition of name into every combination of its
// property values. A positive limit caps the count; the bool reports whether
// every state fit.
func (d *Definition) States(name string, limit int) ([]identifier.Identifier, bool, error) {
	attrs, err := d.Properties()
	if err != nil {
		return nil, false, err
	}
	names := lo.Keys(attrs)
	sort.Strings(names)

	out := []identifier.Identifier{}
	states := map[string]identifier.StateValue{}
	var walk func(i int) bool
	walk = func(i int) bool {
		if i == len(names) {
			if limit > 0 && len(out) == limit {
				return false
			}
			out = append(out, identifier.New(name).WithStates(states))
			return true
		}
		for _, v := range attrs[names[i]] {
			states[names[i]] = identifier.ParseStateValue(v)
			if !walk(i + 1) {
				return false
			}
		}
		return true
	}
	complete := walk(0)
	return out, complete, nil
}
