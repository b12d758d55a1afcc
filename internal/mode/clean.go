package mode

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var boolAliases = map[string]string{
	"true": "true", "yes": "true", "on": "true", "1": "true",
	"false": "false", "no": "false", "off": "false", "0": "false",
}

// parseTyped converts trimmed raw text to the Go value of t: string, int64,
// float64 or bool.
func parseTyped(t ValueType, raw string) (any, error) {
	s := strings.TrimSpace(raw)
	switch t {
	case Text:
		return s, nil
	case Integer:
		v, err := convert.Convert(cty.StringVal(s), cty.Number)
		if err != nil {
			return nil, fmt.Errorf("must be an integer: %w", err)
		}
		var i int64
		if err := gocty.FromCtyValue(v, &i); err != nil {
			return nil, fmt.Errorf("must be an integer: %w", err)
		}
		return i, nil
	case Decimal:
		v, err := convert.Convert(cty.StringVal(s), cty.Number)
		if err != nil {
			return nil, fmt.Errorf("must be a number: %w", err)
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("must be a number: %w", err)
		}
		return f, nil
	case Boolean:
		alias, ok := boolAliases[strings.ToLower(s)]
		if !ok {
			return nil, fmt.Errorf("must be true or false")
		}
		v, err := convert.Convert(cty.StringVal(alias), cty.Bool)
		if err != nil {
			return nil, fmt.Errorf("must be true or false: %w", err)
		}
		return v.True(), nil
	}
	return nil, fmt.Errorf("unsupported value type %s", t)
}

// ParseBool is the boolean parser modes use, exported for collaborators
// that read raw coordinate values (such as the step estimator).
func ParseBool(raw string) (bool, error) {
	v, err := parseTyped(Boolean, raw)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// ParseInt is the integer parser modes use.
func ParseInt(raw string) (int64, error) {
	v, err := parseTyped(Integer, raw)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func checkBounds(m *Mode, value any) error {
	var f float64
	switch v := value.(type) {
	case int64:
		f = float64(v)
	case float64:
		f = v
	default:
		return nil
	}
	if m.Min != nil && f < *m.Min {
		return fmt.Errorf("must be at least %v", *m.Min)
	}
	if m.Max != nil && f > *m.Max {
		return fmt.Errorf("must be at most %v", *m.Max)
	}
	return nil
}
