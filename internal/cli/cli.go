package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/axisgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("axisgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
AxisGrid - Render every combination of generation parameters as an image grid.

Usage:
  axisgrid [options] [GRID_PATH]

Arguments:
  GRID_PATH
    Path to a single grid file (.hcl, .yaml, .yml) or a directory of them.

Options:
`)
		flagSet.PrintDefaults()
	}

	gridFlag := flagSet.String("grid", "", "Path to the grid file or directory.")
	gFlag := flagSet.String("g", "", "Path to the grid file or directory (shorthand).")
	outFlag := flagSet.String("out", "grids", "Directory images are written to.")
	formatFlag := flagSet.String("format", "", "Image format overriding the grids' own (png, jpg, gif, bmp, tiff).")
	configFlag := flagSet.String("config", "", "Path to an HCL run-config file.")
	backendFlag := flagSet.String("backend", app.BackendLocal, "Synthesis backend. Options: 'local' or 'socketio'.")
	backendURLFlag := flagSet.String("backend-url", "", "URL of the socket.io synthesis server.")
	namespaceFlag := flagSet.String("backend-namespace", "", "socket.io namespace of the synthesis server.")
	timeoutFlag := flagSet.Duration("backend-timeout", 0, "Timeout of a single backend request. 0 uses the default.")
	insecureFlag := flagSet.Bool("insecure-skip-verify", false, "Skip TLS certificate verification for the backend.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Validate and walk the grid without rendering.")
	overwriteFlag := flagSet.Bool("overwrite", false, "Render cells whose image already exists.")
	skipInvalidFlag := flagSet.Bool("skip-invalid", false, "Drop invalid axis values instead of failing.")
	validateReplaceFlag := flagSet.Bool("validate-replace", true, "Fail when a prompt replace finds nothing to replace.")
	publishFlag := flagSet.Bool("publish-metadata", true, "Embed generation parameters in written images.")
	indexFlag := flagSet.String("index", "", "Path of an SQLite database recording every written cell.")
	listModesFlag := flagSet.Bool("list-modes", false, "Print every setting mode with its valid values and exit.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health and progress server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	explicit := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	path := ""
	if *gridFlag != "" {
		path = *gridFlag
	} else if *gFlag != "" {
		path = *gFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Grid path determined.", "path", path)

	if path == "" && !*listModesFlag {
		slog.Debug("No grid path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	backend := strings.ToLower(*backendFlag)
	if backend != app.BackendLocal && backend != app.BackendSocketIO {
		return nil, false, &ExitError{Code: 2, Message: "invalid backend: must be 'local' or 'socketio'"}
	}

	config, err := app.NewConfig(app.Config{
		GridPath:           path,
		RunConfigPath:      *configFlag,
		OutDir:             *outFlag,
		Format:             *formatFlag,
		IndexPath:          *indexFlag,
		DryRun:             *dryRunFlag,
		Overwrite:          *overwriteFlag,
		ListModes:          *listModesFlag,
		Backend:            backend,
		BackendURL:         *backendURLFlag,
		BackendNamespace:   *namespaceFlag,
		BackendTimeout:     *timeoutFlag,
		InsecureSkipVerify: *insecureFlag,
		SkipInvalid:        *skipInvalidFlag,
		ValidateReplace:    *validateReplaceFlag,
		PublishMetadata:    *publishFlag,
		LogFormat:          logFormat,
		LogLevel:           logLevel,
		HealthcheckPort:    *healthPortFlag,
		Explicit:           explicit,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
