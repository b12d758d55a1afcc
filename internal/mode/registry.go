package mode

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/axisgrid/internal/ctxlog"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

// Registry is the catalog of setting modes, keyed by normalized name.
type Registry struct {
	mu    sync.RWMutex
	modes map[string]*Mode
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modes: make(map[string]*Mode)}
}

// Register adds m. A second mode whose name normalizes to the same key is
// rejected with a ConfigurationError.
func (r *Registry) Register(m *Mode) error {
	if m == nil || m.Name == "" {
		return &ConfigurationError{Name: "", Reason: "mode must have a name"}
	}
	key := m.Key()
	if key == "" {
		return &ConfigurationError{Name: m.Name, Reason: "name normalizes to nothing"}
	}
	if m.Apply == nil && m.Substitutions == nil {
		return &ConfigurationError{Name: m.Name, Reason: "mode has neither an apply nor a substitution hook"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.modes[key]; ok {
		return &ConfigurationError{Name: m.Name, Reason: fmt.Sprintf("already registered as '%s'", existing.Name)}
	}
	r.modes[key] = m
	r.order = append(r.order, key)
	return nil
}

// Install registers every module. Extensions whose probe reports the
// companion extension absent are skipped without error.
func (r *Registry) Install(ctx context.Context, b synth.Backend, modules ...Module) error {
	logger := ctxlog.FromContext(ctx)
	for _, m := range modules {
		if ext, ok := m.(Extension); ok && !ext.Probe(ctx, b) {
			logger.Debug("Companion extension not present, skipping its modes.", "module", fmt.Sprintf("%T", m))
			continue
		}
		if err := m.Register(r); err != nil {
			return fmt.Errorf("failed to register modes of %T: %w", m, err)
		}
	}
	logger.Debug("Setting modes installed.", "count", r.Len())
	return nil
}

// Lookup resolves name after normalization.
func (r *Registry) Lookup(name string) (*Mode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modes[Normalize(name)]
	return m, ok
}

// Resolve is Lookup that reports unknown names as a ConfigurationError.
func (r *Registry) Resolve(name string) (*Mode, error) {
	m, ok := r.Lookup(name)
	if !ok {
		return nil, &ConfigurationError{Name: name, Reason: "unknown setting mode"}
	}
	return m, nil
}

// Len returns the number of registered modes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modes)
}

// Modes returns all registered modes in registration order.
func (r *Registry) Modes() []*Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Mode, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.modes[key])
	}
	return out
}

// Names returns the display names of all modes, sorted.
func (r *Registry) Names() []string {
	modes := r.Modes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.Name
	}
	sort.Strings(names)
	return names
}

// ValidValues enumerates the acceptable values of m. Providers are called
// on every invocation because backend catalogs change at runtime. A mode
// with no provider returns nil, except boolean modes.
func (r *Registry) ValidValues(ctx context.Context, env Env, m *Mode) ([]string, error) {
	if m.ValidValues != nil {
		values, err := m.ValidValues(ctx, env)
		if err != nil {
			return nil, fmt.Errorf("failed to list valid values of '%s': %w", m.Name, err)
		}
		return values, nil
	}
	if m.Type == Boolean {
		return []string{"true", "false"}, nil
	}
	return nil, nil
}

// Clean types raw according to m, checks bounds and catalogs, and runs the
// mode's own clean hook. Any refusal is a *ValidationError.
func (r *Registry) Clean(ctx context.Context, env Env, m *Mode, name, raw string) (any, error) {
	value, err := parseTyped(m.Type, raw)
	if err != nil {
		return nil, &ValidationError{Param: name, Value: raw, Reason: err.Error()}
	}
	if err := checkBounds(m, value); err != nil {
		return nil, &ValidationError{Param: name, Value: raw, Reason: err.Error()}
	}

	if m.Clean != nil {
		cleaned, err := m.Clean(ctx, env, name, value)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return nil, err
			}
			return nil, &ValidationError{Param: name, Value: raw, Reason: err.Error()}
		}
		return cleaned, nil
	}

	if m.Type == Text && m.ValidValues != nil {
		valid, err := r.ValidValues(ctx, env, m)
		if err != nil {
			return nil, err
		}
		best := BestInList(value.(string), valid)
		if best == "" {
			return nil, &ValidationError{Param: name, Value: raw, Reason: "value not recognized", Valid: valid}
		}
		return best, nil
	}
	return value, nil
}
