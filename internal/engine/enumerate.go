package engine

import (
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/axisgrid/internal/artifact"
	"github.com/specialistvlad/axisgrid/internal/config"
	"github.com/specialistvlad/axisgrid/internal/lifecycle"
)

// MaxCells bounds the coordinates of a single grid.
const MaxCells = 100000

// Cells returns every coordinate of grid in axis order: the last axis
// varies fastest. Skipped values take no part. Grid-level params come
// first in every coordinate so axis values override them.
func Cells(grid *config.Grid, dir, format string, dry bool) ([]lifecycle.Cell, error) {
	axes := make([][]*config.AxisValue, 0, len(grid.Axes))
	total := int64(1)
	for _, a := range grid.Axes {
		var values []*config.AxisValue
		for _, v := range a.Values {
			if !v.Skip {
				values = append(values, v)
			}
		}
		total *= int64(len(values))
		if total > MaxCells {
			return nil, fmt.Errorf("grid '%s' exceeds the limit of %d cells", grid.Title, MaxCells)
		}
		axes = append(axes, values)
	}
	if total == 0 {
		return nil, nil
	}

	root := filepath.Join(dir, artifact.CleanSegment(grid.Title))
	cells := make([]lifecycle.Cell, 0, total)
	picks := make([]int, len(axes))
	for {
		cell := lifecycle.Cell{Dry: dry}
		for _, p := range grid.Params {
			cell.Params = append(cell.Params, lifecycle.Param{Name: p.Name, Value: p.Value})
		}
		keys := make([]string, len(axes))
		for i, values := range axes {
			v := values[picks[i]]
			keys[i] = v.Key
			for _, p := range v.Params {
				cell.Params = append(cell.Params, lifecycle.Param{Name: p.Name, Value: p.Value})
			}
		}
		cell.Path = artifact.CellPath(root, keys, format)
		cells = append(cells, cell)

		// Advance like an odometer, last axis first.
		i := len(axes) - 1
		for ; i >= 0; i-- {
			picks[i]++
			if picks[i] < len(axes[i]) {
				break
			}
			picks[i] = 0
		}
		if i < 0 {
			return cells, nil
		}
	}
}
