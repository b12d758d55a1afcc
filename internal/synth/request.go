package synth

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Request is one generation request. Fields carry a `synth` tag naming the
// parameter the way setting modes refer to it; SetField resolves through
// those tags. Parameters without a struct field (companion extensions) land
// in Extra.
type Request struct {
	Prompt         string   `synth:"prompt"`
	NegativePrompt string   `synth:"negative_prompt"`
	Styles         []string `synth:"styles"`

	SamplerName string  `synth:"sampler_name"`
	Scheduler   string  `synth:"scheduler"`
	Steps       int     `synth:"steps"`
	CFGScale    float64 `synth:"cfg_scale"`
	Width       int     `synth:"width"`
	Height      int     `synth:"height"`

	Seed            int64   `synth:"seed"`
	Subseed         int64   `synth:"subseed"`
	SubseedStrength float64 `synth:"subseed_strength"`

	DenoisingStrength    *float64 `synth:"denoising_strength"`
	Eta                  float64  `synth:"eta"`
	SChurn               float64  `synth:"s_churn"`
	STmin                float64  `synth:"s_tmin"`
	STmax                float64  `synth:"s_tmax"`
	SNoise               float64  `synth:"s_noise"`
	RestoreFaces         bool     `synth:"restore_faces"`
	Tiling               bool     `synth:"tiling"`
	InpaintingMaskWeight float64  `synth:"inpainting_mask_weight"`
	ImageCFGScale        float64  `synth:"image_cfg_scale"`

	EnableHR          bool    `synth:"enable_hr"`
	HRScale           float64 `synth:"hr_scale"`
	HRSecondPassSteps int     `synth:"hr_second_pass_steps"`
	HRResizeX         int     `synth:"hr_resize_x"`
	HRResizeY         int     `synth:"hr_resize_y"`
	HRUpscaleToX      int     `synth:"hr_upscale_to_x"`
	HRUpscaleToY      int     `synth:"hr_upscale_to_y"`
	HRUpscaler        string  `synth:"hr_upscaler"`
	HRSamplerName     string  `synth:"hr_sampler_name"`
	HRCheckpointName  string  `synth:"hr_checkpoint_name"`

	BatchSize int `synth:"batch_size"`
	NIter     int `synth:"n_iter"`

	// Grid-only output controls. Zero means unset.
	OutWidth    int `synth:"out_width"`
	OutHeight   int `synth:"out_height"`
	ResultIndex int `synth:"result_index"`

	// OverrideSettings are per-request overrides of backend options.
	OverrideSettings map[string]any `synth:"-"`
	// Extra holds parameters with no dedicated field.
	Extra map[string]any `synth:"-"`
}

// NewRequest returns a request with the defaults a fresh generation would use.
func NewRequest() *Request {
	return &Request{
		SamplerName: "Euler a",
		Steps:       20,
		CFGScale:    7,
		Width:       512,
		Height:      512,
		Seed:        -1,
		Subseed:     -1,
		BatchSize:   1,
		NIter:       1,
		SNoise:      1,
		HRScale:     2,
	}
}

// Clone returns a deep copy of r.
func (r *Request) Clone() *Request {
	c := *r
	c.Styles = slices.Clone(r.Styles)
	c.OverrideSettings = maps.Clone(r.OverrideSettings)
	c.Extra = maps.Clone(r.Extra)
	if r.DenoisingStrength != nil {
		v := *r.DenoisingStrength
		c.DenoisingStrength = &v
	}
	return &c
}

// SetOverride records a per-request backend option override.
func (r *Request) SetOverride(key string, value any) {
	if r.OverrideSettings == nil {
		r.OverrideSettings = make(map[string]any)
	}
	r.OverrideSettings[key] = value
}

// ExtraValue returns an Extra parameter.
func (r *Request) ExtraValue(name string) (any, bool) {
	v, ok := r.Extra[name]
	return v, ok
}

var (
	fieldIndexOnce sync.Once
	fieldIndex     map[string]int
)

func requestFields() map[string]int {
	fieldIndexOnce.Do(func() {
		fieldIndex = make(map[string]int)
		t := reflect.TypeOf(Request{})
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("synth")
			if tag == "" || tag == "-" {
				continue
			}
			fieldIndex[tag] = i
		}
	})
	return fieldIndex
}

// Params flattens r into the parameter map a remote backend receives: every
// tagged field under its tag, Extra entries alongside them, and overrides
// under "override_settings".
func (r *Request) Params() map[string]any {
	out := make(map[string]any, len(requestFields())+len(r.Extra)+1)
	v := reflect.ValueOf(r).Elem()
	for name, idx := range requestFields() {
		f := v.Field(idx)
		if f.Kind() == reflect.Pointer {
			if f.IsNil() {
				continue
			}
			f = f.Elem()
		}
		out[name] = f.Interface()
	}
	maps.Copy(out, r.Extra)
	if len(r.OverrideSettings) > 0 {
		out["override_settings"] = maps.Clone(r.OverrideSettings)
	}
	return out
}

// HasField reports whether name maps to a dedicated request field.
func HasField(name string) bool {
	_, ok := requestFields()[name]
	return ok
}

// SetField assigns value to the request parameter called name, converting
// between the cleaned value kinds (string, int64, float64, bool) and the
// field's Go type. Unknown names are stored in Extra.
func SetField(r *Request, name string, value any) error {
	idx, ok := requestFields()[name]
	if !ok {
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[name] = value
		return nil
	}

	field := reflect.ValueOf(r).Elem().Field(idx)
	if err := assign(field, value); err != nil {
		return fmt.Errorf("cannot set request field %q: %w", name, err)
	}
	return nil
}

func assign(field reflect.Value, value any) error {
	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := assign(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(fmt.Sprint(value))
		return nil
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected a boolean, got %T", value)
		}
		field.SetBool(b)
		return nil
	case reflect.Int, reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("expected a whole number, got %v", v)
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected an integer, got %T", value)
		}
		return nil
	case reflect.Float64:
		switch v := value.(type) {
		case float64:
			field.SetFloat(v)
		case int64:
			field.SetFloat(float64(v))
		case int:
			field.SetFloat(float64(v))
		default:
			return fmt.Errorf("expected a number, got %T", value)
		}
		return nil
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			break
		}
		switch v := value.(type) {
		case []string:
			field.Set(reflect.ValueOf(slices.Clone(v)))
		case string:
			parts := strings.Split(v, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		default:
			return fmt.Errorf("expected a list of strings, got %T", value)
		}
		return nil
	}
	return fmt.Errorf("unsupported field kind %s", field.Kind())
}
