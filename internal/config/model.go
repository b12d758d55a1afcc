package config

import "time"

// Model is every grid loaded for one invocation.
type Model struct {
	Grids []*Grid
}

// Run holds the settings of a run-config file. Pointer fields
// are unset when the file does not mention them, so flags can take over.
type Run struct {
	Backend         *Backend
	OutputDir       string
	Format          string
	Index           string
	ValidateReplace *bool
	SkipInvalid     *bool
	Overwrite       *bool
	PublishMetadata *bool
}

// Backend selects and addresses the synthesis backend.
type Backend struct {
	Kind      string
	URL       string
	Namespace string
	Timeout   time.Duration
}

// Grid is one grid definition.
type Grid struct {
	// Source is the file the grid was read from.
	Source      string
	Title       string
	Description string
	Author      string
	Format      string
	// Params are base parameter values every coordinate starts from.
	Params []Param
	Axes   []*Axis
}

// Axis is one dimension of a grid. Mode names the setting mode its values
// target; values may still set other parameters through their Params.
type Axis struct {
	Mode   string
	Title  string
	Values []*AxisValue
}

// AxisValue is one position along an axis.
type AxisValue struct {
	// Key names the value in output paths.
	Key   string
	Title string
	// Params are the raw parameter values this position sets, in order.
	Params []Param
	Skip   bool
}

// Param is a raw parameter assignment as written in the grid file.
type Param struct {
	Name  string
	Value string
}
