package synth

import (
	"maps"
	"sync"
)

// Option keys of the backend's process-wide configuration.
const (
	OptModel                = "sd_model_checkpoint"
	OptVAE                  = "sd_vae"
	OptCodeFormerWeight     = "code_former_weight"
	OptFaceRestorationModel = "face_restoration_model"
	OptClipSkip             = "CLIP_stop_at_last_layers"
	OptEtaNoiseSeedDelta    = "eta_noise_seed_delta"
)

// VAE option values with special meaning.
const (
	VAENone      = "None"
	VAEAutomatic = "Automatic"
)

// Settings is a capture of the shared configuration a grid run must give
// back unchanged: the active model and VAE and the face-restoration pair.
type Settings struct {
	Model                string
	VAE                  string
	CodeFormerWeight     float64
	FaceRestorationModel string
}

// Options is the explicit handle to a backend's shared, mutable
// configuration. It is safe for concurrent use; the grid layer guarantees a
// single writer at a time.
type Options struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewOptions returns an Options handle seeded with initial values.
func NewOptions(initial map[string]any) *Options {
	o := &Options{values: make(map[string]any, len(initial)+6)}
	o.values[OptVAE] = VAEAutomatic
	o.values[OptCodeFormerWeight] = 0.5
	o.values[OptClipSkip] = 1
	o.values[OptEtaNoiseSeedDelta] = 0
	maps.Copy(o.values, initial)
	return o
}

// Get returns the raw value stored under key.
func (o *Options) Get(key string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.values[key]
	return v, ok
}

// Set stores value under key.
func (o *Options) Set(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[key] = value
}

// String returns the value under key as a string, or "" if absent.
func (o *Options) String(key string) string {
	v, _ := o.Get(key)
	s, _ := v.(string)
	return s
}

// Float returns the value under key as a float64, or 0 if absent.
func (o *Options) Float(key string) float64 {
	v, _ := o.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

// Int returns the value under key as an int, or 0 if absent.
func (o *Options) Int(key string) int {
	v, _ := o.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Bool returns the value under key as a bool, or false if absent.
func (o *Options) Bool(key string) bool {
	v, _ := o.Get(key)
	b, _ := v.(bool)
	return b
}

// Snapshot captures the settings a transaction restores.
func (o *Options) Snapshot() Settings {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := Settings{}
	s.Model, _ = o.values[OptModel].(string)
	s.VAE, _ = o.values[OptVAE].(string)
	s.FaceRestorationModel, _ = o.values[OptFaceRestorationModel].(string)
	switch w := o.values[OptCodeFormerWeight].(type) {
	case float64:
		s.CodeFormerWeight = w
	case int:
		s.CodeFormerWeight = float64(w)
	}
	return s
}

// Restore writes s back in one critical section.
func (o *Options) Restore(s Settings) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[OptModel] = s.Model
	o.values[OptVAE] = s.VAE
	o.values[OptCodeFormerWeight] = s.CodeFormerWeight
	o.values[OptFaceRestorationModel] = s.FaceRestorationModel
}

// All returns a copy of every option.
func (o *Options) All() map[string]any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return maps.Clone(o.values)
}
