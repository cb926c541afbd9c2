package resolver

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/rmmh/blockbridge/go/identifier"
)

var (
	// ErrUnresolved is wrapped by every decode or encode failure. Callers
	// usually log it and substitute a safe default.
	ErrUnresolved = errors.New("unresolved")

	// Build-time errors.
	ErrFrozen           = errors.New("registration after build")
	ErrAmbiguous        = errors.New("ambiguous decode registration")
	ErrDuplicate        = errors.New("duplicate canonical encode registration")
	ErrNoOverrideTarget = errors.New("override of a mapping that was never registered")
)

// UnresolvedError describes a block or item that could not be translated.
type UnresolvedError struct {
	Op         string // "decode" or "encode"
	Identifier identifier.Identifier
	Type       string
	Reason     string
}

func (e *UnresolvedError) Error() string {
	subject := e.Type
	if e.Op == "decode" || subject == "" {
		subject = e.Identifier.String()
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Op, subject, ErrUnresolved, e.Reason)
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }
