// Package synth defines the contract between the grid layer and an
// image-synthesis backend: the generation Request, the shared Options handle
// that stands in for the backend's process-wide configuration, and the
// Backend interface itself.
//
// Nothing in this package renders images. Concrete backends live in
// internal/localbackend (in-process, deterministic) and internal/remote
// (socket.io client).
package synth
