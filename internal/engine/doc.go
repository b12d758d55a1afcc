// Package engine is the reference grid runner. It validates a grid's axis
// values up front, enumerates the coordinates in axis order, skips outputs
// that already exist, and drives every remaining coordinate through the
// lifecycle inside one whole-run settings guard.
package engine
