package lifecycle

import (
	"fmt"
	"sync"

	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

// State is a step of the per-coordinate lifecycle.
type State int

const (
	StateInit State = iota
	StateParamApply
	StatePreDry
	StateDryOrRender
	StatePostProcess
	StateRestore
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateParamApply:
		return "PARAM_APPLY"
	case StatePreDry:
		return "PRE_DRY"
	case StateDryOrRender:
		return "DRY_OR_RENDER"
	case StatePostProcess:
		return "POST_PROCESS"
	case StateRestore:
		return "RESTORE"
	case StateDone:
		return "DONE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Grid is the state shared by every coordinate of one grid: the base
// request and the smallest image dimensions any coordinate asked for.
type Grid struct {
	Base   *synth.Request
	Format string

	mu        sync.Mutex
	minWidth  int
	minHeight int
	seeded    bool
}

// NewGrid creates a grid over base, writing images in format.
func NewGrid(base *synth.Request, format string) *Grid {
	return &Grid{Base: base, Format: format}
}

// MinDimensions returns the smallest width and height observed so far. Both
// are zero until a coordinate has added a parameter.
func (g *Grid) MinDimensions() (width, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.minWidth, g.minHeight
}

func (g *Grid) observe(key string, value any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.seeded {
		g.minWidth, g.minHeight = g.Base.Width, g.Base.Height
		g.seeded = true
	}
	v, ok := value.(int64)
	if !ok {
		return
	}
	switch key {
	case "width", "outwidth":
		g.minWidth = min(g.minWidth, int(v))
	case "height", "outheight":
		g.minHeight = min(g.minHeight, int(v))
	}
}

// OpKind tags an entry of a coordinate's op queue.
type OpKind int

const (
	// DirectField applies one cleaned value through its mode.
	DirectField OpKind = iota
	// TextSubstitution replaces literal text in the prompts.
	TextSubstitution
)

// Op is one queued operation.
type Op struct {
	Kind  OpKind
	Mode  *mode.Mode
	Param string
	Value any
	mode.Substitution
}

// CallState is the per-coordinate state, discarded when the coordinate is
// done.
type CallState struct {
	Grid    *Grid
	Request *synth.Request
	Ops     []Op
	State   State

	snapshot synth.Settings
}

// Substitutions returns the queued text substitutions in order.
func (c *CallState) Substitutions() []mode.Substitution {
	var subs []mode.Substitution
	for _, op := range c.Ops {
		if op.Kind == TextSubstitution {
			subs = append(subs, op.Substitution)
		}
	}
	return subs
}
