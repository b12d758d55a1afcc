// Package gridfile reads grid definitions from HCL and YAML files into the
// format-agnostic config model, and run settings from an HCL run-config.
package gridfile

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/axisgrid/internal/config"
	"github.com/specialistvlad/axisgrid/internal/ctxlog"
	"github.com/specialistvlad/axisgrid/internal/fsutil"
	"github.com/specialistvlad/axisgrid/internal/mode"
)

// Extensions lists the file types Load picks up.
var Extensions = []string{".hcl", ".yml", ".yaml"}

// DefaultFormat is the image format of grids that do not name one.
const DefaultFormat = "png"

// Loader implements config.Loader for HCL and YAML grid files.
type Loader struct {
	registry *mode.Registry
}

// NewLoader creates a loader. Shorthand axis values are expanded through
// the ParseList hook of their mode in registry; a nil registry leaves them
// as written.
func NewLoader(registry *mode.Registry) *Loader {
	return &Loader{registry: registry}
}

var _ config.Loader = (*Loader)(nil)

// rawAxis is an axis as read from a file, before shorthand expansion.
type rawAxis struct {
	mode      string
	title     string
	shorthand []string
	values    []*config.AxisValue
}

// rawGrid is what a format-specific parser returns. A nil rawGrid means
// the file holds no grid.
type rawGrid struct {
	grid *config.Grid
	axes []*rawAxis
}

// Load reads every grid file under paths.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := &config.Model{}

	seen := make(map[string]struct{})
	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, Extensions...)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if _, ok := seen[file]; ok {
				continue
			}
			seen[file] = struct{}{}

			grid, err := l.loadFile(file)
			if err != nil {
				return nil, err
			}
			if grid == nil {
				logger.Debug("File holds no grid, skipping.", "file", file)
				continue
			}
			model.Grids = append(model.Grids, grid)
		}
	}

	logger.Debug("Grid loading complete.", "grids", len(model.Grids))
	return model, nil
}

func (l *Loader) loadFile(file string) (*config.Grid, error) {
	var (
		raw *rawGrid
		err error
	)
	switch strings.ToLower(filepath.Ext(file)) {
	case ".hcl":
		raw, err = parseHCL(file)
	default:
		raw, err = parseYAML(file)
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	grid := raw.grid
	grid.Source = file
	if grid.Title == "" {
		grid.Title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	if grid.Format == "" {
		grid.Format = DefaultFormat
	}
	for _, ra := range raw.axes {
		axis, err := l.expand(ra)
		if err != nil {
			return nil, fmt.Errorf("grid file %s: %w", file, err)
		}
		grid.Axes = append(grid.Axes, axis)
	}
	return grid, nil
}

// expand turns shorthand values into full axis values.
func (l *Loader) expand(ra *rawAxis) (*config.Axis, error) {
	axis := &config.Axis{Mode: ra.mode, Title: ra.title, Values: ra.values}
	if axis.Title == "" {
		axis.Title = ra.mode
	}

	if len(ra.shorthand) > 0 {
		entries := l.parseList(ra.mode, ra.shorthand)
		for _, e := range entries {
			v := &config.AxisValue{Key: e.Title, Title: e.Title}
			if e.Params == nil {
				v.Params = []config.Param{{Name: ra.mode, Value: e.Title}}
			} else {
				v.Params = sortedParams(e.Params)
			}
			axis.Values = append(axis.Values, v)
		}
	}

	if len(axis.Values) == 0 {
		return nil, fmt.Errorf("axis '%s' has no values", ra.mode)
	}
	for _, v := range axis.Values {
		if v.Title == "" {
			v.Title = v.Key
		}
		if len(v.Params) == 0 {
			v.Params = []config.Param{{Name: ra.mode, Value: v.Title}}
		}
	}
	return axis, nil
}

func (l *Loader) parseList(modeName string, values []string) []mode.ListEntry {
	if l.registry != nil {
		if m, ok := l.registry.Lookup(modeName); ok && m.ParseList != nil {
			return m.ParseList(values)
		}
	}
	entries := make([]mode.ListEntry, len(values))
	for i, v := range values {
		entries[i] = mode.ListEntry{Title: v}
	}
	return entries
}

// SplitShorthand splits a one-line list of values. "||" separates values
// when present, so values may contain commas; otherwise commas do.
func SplitShorthand(s string) []string {
	sep := ","
	if strings.Contains(s, "||") {
		sep = "||"
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
