// Package cli parses command-line arguments, validates user input, and
// defines process-level concerns like exit codes. It translates flags into
// the application's configuration.
package cli
