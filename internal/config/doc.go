// Package config defines the format-agnostic model of grid definitions and
// run settings, along with the Loader interface that format-specific
// readers implement.
//
// The `config.Model` is the single source of truth for the engine.
// Concrete loaders for HCL and YAML live in the gridfile package.
package config
