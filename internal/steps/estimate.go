// Package steps estimates how many sampling steps a grid run will take, so
// progress can be reported against a fixed total.
package steps

import (
	"iter"

	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

// Normalized parameter names the estimate reads.
const (
	keySteps         = "steps"
	keyEnableHighRes = "enablehighresfix"
	keyHighResSteps  = "highressteps"
)

// ForCell returns the steps one coordinate costs. params yields the
// coordinate's name/value pairs in application order, so a later spelling
// of the same parameter wins. Coordinate values win over base; unparsable
// values fall back to base, since they were already validated by the time
// anything is counted.
func ForCell(base *synth.Request, params iter.Seq2[string, string]) int {
	normalized := make(map[string]string)
	for name, v := range params {
		normalized[mode.Normalize(name)] = v
	}

	steps := base.Steps
	if raw, ok := normalized[keySteps]; ok {
		if v, err := mode.ParseInt(raw); err == nil {
			steps = int(v)
		}
	}

	highRes := base.EnableHR
	if raw, ok := normalized[keyEnableHighRes]; ok {
		if v, err := mode.ParseBool(raw); err == nil {
			highRes = v
		}
	}
	if !highRes {
		return steps
	}

	if raw, ok := normalized[keyHighResSteps]; ok {
		if v, err := mode.ParseInt(raw); err == nil {
			return steps + int(v)
		}
	}
	if base.HRSecondPassSteps != 0 {
		return steps + base.HRSecondPassSteps
	}
	return steps * 2
}

// Total sums ForCell over every coordinate.
func Total(base *synth.Request, cells []iter.Seq2[string, string]) int {
	total := 0
	for _, params := range cells {
		total += ForCell(base, params)
	}
	return total
}
