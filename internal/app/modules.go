package app

import (
	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/modules/controlnet"
	"github.com/specialistvlad/axisgrid/modules/core"
	"github.com/specialistvlad/axisgrid/modules/dynthres"
)

// defaultModules returns every mode module compiled into the binary.
// Extension modules register only when their backend extension is present.
func defaultModules() []mode.Module {
	return []mode.Module{
		&core.Module{},
		&dynthres.Module{},
		&controlnet.Module{},
	}
}
