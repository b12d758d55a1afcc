package config

import "context"

// Loader is the interface for a format-specific grid loader.
type Loader interface {
	// Load reads every grid definition under the given paths and
	// translates it into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
