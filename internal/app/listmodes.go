package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

// ListModes writes every installed mode with its value type and current
// valid values. Catalogs are read live from the backend.
func (a *App) ListModes(ctx context.Context, w io.Writer) error {
	env := mode.Env{Request: synth.NewRequest(), Options: a.options, Backend: a.backend}
	for _, m := range a.registry.Modes() {
		line := fmt.Sprintf("%s (%s)", m.Name, m.Type)
		switch {
		case m.Min != nil && m.Max != nil:
			line += fmt.Sprintf(" [%g..%g]", *m.Min, *m.Max)
		case m.Min != nil:
			line += fmt.Sprintf(" [%g..]", *m.Min)
		case m.Max != nil:
			line += fmt.Sprintf(" [..%g]", *m.Max)
		}

		values, err := a.registry.ValidValues(ctx, env, m)
		if err != nil {
			a.logger.Warn("Could not list valid values.", "mode", m.Name, "error", err)
		}
		if len(values) > 0 {
			line += ": " + strings.Join(values, ", ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
