// Package app wires a grid run together: it picks and connects the
// synthesis backend, installs the setting modes, loads grid files, and
// drives the engine while serving health and progress over HTTP. It is
// decoupled from any entrypoint like a CLI.
package app
