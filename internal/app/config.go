package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/axisgrid/internal/config"
	"github.com/specialistvlad/axisgrid/internal/gridfile"
)

// Backend kinds.
const (
	BackendLocal    = "local"
	BackendSocketIO = "socketio"
)

// Config holds everything an App needs for one invocation.
type Config struct {
	GridPath      string // grid file or directory
	RunConfigPath string // optional HCL run-config file

	OutDir    string
	Format    string
	IndexPath string
	DryRun    bool
	Overwrite bool
	ListModes bool

	Backend            string
	BackendURL         string
	BackendNamespace   string
	BackendTimeout     time.Duration
	InsecureSkipVerify bool

	SkipInvalid     bool
	ValidateReplace bool
	PublishMetadata bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// Explicit names the command-line flags that were given. Their values
	// win over the run-config file.
	Explicit map[string]bool
}

// NewConfig checks the fields that do not depend on the run-config file.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" && !cfg.ListModes {
		return nil, errors.New("GridPath is a required configuration field and cannot be empty")
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendLocal
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "grids"
	}
	return &cfg, nil
}

// loadRunFile merges the run-config file, if any, into c.
func (c *Config) loadRunFile() error {
	if c.RunConfigPath == "" {
		return nil
	}
	run, err := gridfile.LoadRun(c.RunConfigPath)
	if err != nil {
		return err
	}
	c.merge(run)
	return nil
}

func (c *Config) merge(run *config.Run) {
	str := func(dst *string, flag, v string) {
		if v != "" && !c.Explicit[flag] {
			*dst = v
		}
	}
	boolean := func(dst *bool, flag string, v *bool) {
		if v != nil && !c.Explicit[flag] {
			*dst = *v
		}
	}

	if b := run.Backend; b != nil {
		str(&c.Backend, "backend", b.Kind)
		str(&c.BackendURL, "backend-url", b.URL)
		str(&c.BackendNamespace, "backend-namespace", b.Namespace)
		if b.Timeout > 0 && !c.Explicit["backend-timeout"] {
			c.BackendTimeout = b.Timeout
		}
	}
	str(&c.OutDir, "out", run.OutputDir)
	str(&c.Format, "format", run.Format)
	str(&c.IndexPath, "index", run.Index)
	boolean(&c.ValidateReplace, "validate-replace", run.ValidateReplace)
	boolean(&c.SkipInvalid, "skip-invalid", run.SkipInvalid)
	boolean(&c.Overwrite, "overwrite", run.Overwrite)
	boolean(&c.PublishMetadata, "publish-metadata", run.PublishMetadata)
}

// validate checks the merged configuration.
func (c *Config) validate() error {
	switch c.Backend {
	case BackendLocal:
	case BackendSocketIO:
		if c.BackendURL == "" {
			return errors.New("the socketio backend requires a backend URL")
		}
	default:
		return fmt.Errorf("unknown backend '%s': must be '%s' or '%s'", c.Backend, BackendLocal, BackendSocketIO)
	}
	return nil
}
