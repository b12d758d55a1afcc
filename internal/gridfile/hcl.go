package gridfile

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/axisgrid/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// hclRoot decodes every top-level block a grid file may hold. Anything
// else is left in Remain, so run-config files sitting next to grids are
// ignored rather than rejected.
type hclRoot struct {
	Grid   *hclGrid   `hcl:"grid,block"`
	Axes   []*hclAxis `hcl:"axis,block"`
	Remain hcl.Body   `hcl:",remain"`
}

type hclGrid struct {
	Title       string         `hcl:"title,optional"`
	Description string         `hcl:"description,optional"`
	Author      string         `hcl:"author,optional"`
	Format      string         `hcl:"format,optional"`
	Params      hcl.Expression `hcl:"params,optional"`
}

type hclAxis struct {
	Mode    string      `hcl:"mode,label"`
	Title   string      `hcl:"title,optional"`
	Values  []string    `hcl:"values,optional"`
	Entries []*hclValue `hcl:"value,block"`
}

type hclValue struct {
	Key    string         `hcl:"key,label"`
	Title  string         `hcl:"title,optional"`
	Params hcl.Expression `hcl:"params,optional"`
	Skip   bool           `hcl:"skip,optional"`
}

func parseHCL(file string) (*rawGrid, error) {
	f, diags := hclparse.NewParser().ParseHCLFile(file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
	}
	if root.Grid == nil && len(root.Axes) == 0 {
		return nil, nil
	}
	if root.Grid == nil {
		root.Grid = &hclGrid{}
	}

	params, err := orderedParams(root.Grid.Params)
	if err != nil {
		return nil, fmt.Errorf("grid file %s: grid params: %w", file, err)
	}
	raw := &rawGrid{grid: &config.Grid{
		Title:       root.Grid.Title,
		Description: root.Grid.Description,
		Author:      root.Grid.Author,
		Format:      root.Grid.Format,
		Params:      params,
	}}

	for _, a := range root.Axes {
		ra := &rawAxis{mode: a.Mode, title: a.Title, shorthand: a.Values}
		for _, e := range a.Entries {
			params, err := orderedParams(e.Params)
			if err != nil {
				return nil, fmt.Errorf("grid file %s: axis '%s' value '%s': %w", file, a.Mode, e.Key, err)
			}
			ra.values = append(ra.values, &config.AxisValue{Key: e.Key, Title: e.Title, Params: params, Skip: e.Skip})
		}
		raw.axes = append(raw.axes, ra)
	}
	return raw, nil
}

// orderedParams reads an object expression into parameter assignments in
// source order. Values of any primitive type are converted to text.
func orderedParams(expr hcl.Expression) ([]config.Param, error) {
	if expr == nil {
		return nil, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if v.IsNull() {
		return nil, nil
	}

	pairs, diags := hcl.ExprMap(expr)
	if diags.HasErrors() {
		return nil, diags
	}
	params := make([]config.Param, 0, len(pairs))
	for _, pair := range pairs {
		name, err := exprString(pair.Key)
		if err != nil {
			return nil, fmt.Errorf("parameter name: %w", err)
		}
		value, err := exprString(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("parameter '%s': %w", name, err)
		}
		params = append(params, config.Param{Name: name, Value: value})
	}
	return params, nil
}

func exprString(expr hcl.Expression) (string, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", err
	}
	if s.IsNull() || !s.IsKnown() {
		return "", fmt.Errorf("value must be set")
	}
	return s.AsString(), nil
}

func sortedParams(m map[string]string) []config.Param {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	params := make([]config.Param, len(names))
	for i, name := range names {
		params[i] = config.Param{Name: name, Value: m[name]}
	}
	return params
}
