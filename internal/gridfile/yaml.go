package gridfile

import (
	"fmt"
	"os"

	"github.com/specialistvlad/axisgrid/internal/config"
	"gopkg.in/yaml.v3"
)

type yamlRoot struct {
	Grid *struct {
		Title       string    `yaml:"title"`
		Description string    `yaml:"description"`
		Author      string    `yaml:"author"`
		Format      string    `yaml:"format"`
		Params      yaml.Node `yaml:"params"`
	} `yaml:"grid"`
	Axes yaml.Node `yaml:"axes"`
}

func parseYAML(file string) (*rawGrid, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid file %s: %w", file, err)
	}
	var root yamlRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", file, err)
	}
	if root.Grid == nil && root.Axes.Kind == 0 {
		return nil, nil
	}

	raw := &rawGrid{grid: &config.Grid{}}
	if g := root.Grid; g != nil {
		params, err := yamlParams(&g.Params)
		if err != nil {
			return nil, fmt.Errorf("grid file %s: grid params: %w", file, err)
		}
		raw.grid.Title = g.Title
		raw.grid.Description = g.Description
		raw.grid.Author = g.Author
		raw.grid.Format = g.Format
		raw.grid.Params = params
	}

	if root.Axes.Kind == 0 {
		return raw, nil
	}
	if root.Axes.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("grid file %s: 'axes' must be a mapping (line %d)", file, root.Axes.Line)
	}
	for i := 0; i+1 < len(root.Axes.Content); i += 2 {
		name, body := root.Axes.Content[i].Value, root.Axes.Content[i+1]
		ra, err := yamlAxis(name, body)
		if err != nil {
			return nil, fmt.Errorf("grid file %s: axis '%s': %w", file, name, err)
		}
		raw.axes = append(raw.axes, ra)
	}
	return raw, nil
}

// yamlAxis accepts a list of values, a one-line list, or a mapping with
// a title and values.
func yamlAxis(name string, node *yaml.Node) (*rawAxis, error) {
	ra := &rawAxis{mode: name}
	switch node.Kind {
	case yaml.SequenceNode, yaml.ScalarNode:
		values, err := yamlShorthand(node)
		if err != nil {
			return nil, err
		}
		ra.shorthand = values
		return ra, nil
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("unsupported axis form (line %d)", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "title":
			ra.title = val.Value
		case "values":
			if val.Kind != yaml.MappingNode {
				values, err := yamlShorthand(val)
				if err != nil {
					return nil, err
				}
				ra.shorthand = values
				continue
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				v, err := yamlValue(val.Content[j].Value, val.Content[j+1])
				if err != nil {
					return nil, err
				}
				ra.values = append(ra.values, v)
			}
		default:
			return nil, fmt.Errorf("unknown axis key '%s' (line %d)", key, node.Content[i].Line)
		}
	}
	return ra, nil
}

func yamlShorthand(node *yaml.Node) ([]string, error) {
	if node.Kind == yaml.ScalarNode {
		return SplitShorthand(node.Value), nil
	}
	values := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("axis values must be plain values (line %d)", item.Line)
		}
		values = append(values, item.Value)
	}
	return values, nil
}

func yamlValue(key string, node *yaml.Node) (*config.AxisValue, error) {
	v := &config.AxisValue{Key: key}
	if node.Kind == yaml.ScalarNode {
		v.Title = node.Value
		return v, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("value '%s' must be a title or a mapping (line %d)", key, node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		field, val := node.Content[i].Value, node.Content[i+1]
		switch field {
		case "title":
			v.Title = val.Value
		case "skip":
			if err := val.Decode(&v.Skip); err != nil {
				return nil, fmt.Errorf("value '%s': skip: %w", key, err)
			}
		case "params":
			params, err := yamlParams(val)
			if err != nil {
				return nil, fmt.Errorf("value '%s': %w", key, err)
			}
			v.Params = params
		default:
			return nil, fmt.Errorf("value '%s': unknown key '%s' (line %d)", key, field, node.Content[i].Line)
		}
	}
	return v, nil
}

func yamlParams(node *yaml.Node) ([]config.Param, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("params must be a mapping (line %d)", node.Line)
	}
	params := make([]config.Param, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, val := node.Content[i].Value, node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("parameter '%s' must be a plain value (line %d)", name, val.Line)
		}
		params = append(params, config.Param{Name: name, Value: val.Value})
	}
	return params, nil
}
