package blockstates

import (
	"log/slog"

	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/resolver"
)

// DefaultLimit bounds how many states one block may expand to.
const DefaultLimit = 4096

// Decoder is satisfied by a block resolver.
type Decoder interface {
	Decode(id identifier.Identifier) (resolver.Result[canonical.BlockType], error)
}

type Miss struct {
	ID  identifier.Identifier
	Err error
}

type Result struct {
	Blocks     int
	States     int
	Truncated  []string
	Unresolved []Miss
}

// Check decodes every state the jar defines. States missing from the
// tables are collected, not returned as errors.
func (j *Jar) Check(r Decoder, limit int) (Result, error) {
	var res Result
	for _, name := range j.Names() {
		states, complete, err := j.Definitions[name].States(name, limit)
		if err != nil {
			return res, err
		}
		if !complete {
			slog.Warn("block has too many states to check", "block", name, "limit", limit)
			res.Truncated = append(res.Truncated, name)
		}
		res.Blocks++
		for _, id := range states {
			res.States++
			if _, err := r.Decode(id); err != nil {
				res.Unresolved = append(res.Unresolved, Miss{id, err})
			}
		}
	}
	return res, nil
}
