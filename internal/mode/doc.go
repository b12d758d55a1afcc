// Package mode holds the typed catalog of controllable generation
// parameters.
//
// A Mode describes one parameter: how raw axis text is typed and validated
// (Clean), which values are acceptable (ValidValues, queried live from the
// backend), and how a cleaned value takes effect (Apply, or Substitutions
// for deferred text-substitution modes). Modes are registered once at start
// up into a Registry, which resolves them by a normalized name so "CFG Scale",
// "cfg_scale" and " cfgscale " are the same parameter.
//
// Modes are contributed by Module implementations (see modules/...). A
// Module that also implements Extension is only installed when its Probe
// reports the companion extension present on the backend.
package mode
