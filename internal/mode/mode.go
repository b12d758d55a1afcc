package mode

import (
	"context"
	"fmt"

	"github.com/specialistvlad/axisgrid/internal/synth"
)

// ValueType is the type a mode's raw axis text is converted to.
type ValueType int

const (
	Text ValueType = iota
	Integer
	Decimal
	Boolean
)

func (t ValueType) String() string {
	switch t {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	case Boolean:
		return "boolean"
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// Env is what mode hooks act on: the request being built for the current
// coordinate, the backend's shared options, and the backend itself.
type Env struct {
	Request *synth.Request
	Options *synth.Options
	Backend synth.Backend
}

// ApplyFunc makes a cleaned value take effect.
type ApplyFunc func(ctx context.Context, env Env, value any) error

// CleanFunc normalizes or rejects a typed value. name is the parameter
// name as written on the axis.
type CleanFunc func(ctx context.Context, env Env, name string, value any) (any, error)

// ValuesFunc enumerates acceptable values from live backend state.
type ValuesFunc func(ctx context.Context, env Env) ([]string, error)

// ListEntry is one value of a structured axis after ParseList. Params maps
// parameter names to raw values; a nil Params means the axis' own mode
// takes Title as its value.
type ListEntry struct {
	Title  string
	Params map[string]string
}

// ParseListFunc rewrites the raw values of an axis before they are
// enumerated.
type ParseListFunc func(values []string) []ListEntry

// Substitution replaces literal Match text with Replace in the request's
// prompts.
type Substitution struct {
	Match   string
	Replace string
}

// SubstitutionsFunc expands a deferred mode's value into substitutions.
type SubstitutionsFunc func(value any) ([]Substitution, error)

// Mode describes one controllable parameter. A Mode is immutable once
// registered.
type Mode struct {
	Name string
	Type ValueType
	Min  *float64
	Max  *float64

	// Dry marks modes that are safe to apply during a dry run and whose
	// effect can be judged from metadata. Modes that reload shared backend
	// state are not dry.
	Dry bool

	Apply       ApplyFunc
	Clean       CleanFunc
	ValidValues ValuesFunc
	ParseList   ParseListFunc

	// Substitutions is set on deferred modes. Their values are not applied
	// directly; the lifecycle replays the substitutions after every direct
	// parameter of the coordinate has been applied.
	Substitutions SubstitutionsFunc
}

// Deferred reports whether m is a text-substitution mode.
func (m *Mode) Deferred() bool {
	return m.Substitutions != nil
}

// Key returns the normalized registry key of m.
func (m *Mode) Key() string {
	return Normalize(m.Name)
}

// Bound is a convenience for Min/Max literals.
func Bound(v float64) *float64 {
	return &v
}

// Module contributes modes to a Registry.
type Module interface {
	Register(r *Registry) error
}

// Extension is a Module for a companion extension of the backend. Its modes
// are only registered when Probe reports the extension present.
type Extension interface {
	Module
	Probe(ctx context.Context, b synth.Backend) bool
}
