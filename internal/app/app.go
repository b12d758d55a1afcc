package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/axisgrid/internal/ctxlog"
	"github.com/specialistvlad/axisgrid/internal/lifecycle"
	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	ctx    context.Context
	config *Config

	modules  []mode.Module
	registry *mode.Registry
	progress *lifecycle.Progress

	backend      synth.Backend
	options      *synth.Options
	closeBackend func()

	httpServer *http.Server
}

// NewApp creates an App with its own logger. The run-config file named by
// cfg is merged here, so a broken file fails before anything connects.
// Without modules every built-in mode module is installed.
func NewApp(outW io.Writer, cfg *Config, modules ...mode.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	if err := cfg.loadRunFile(); err != nil {
		return nil, fmt.Errorf("failed to load run configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if len(modules) == 0 {
		modules = defaultModules()
	}
	return &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctxlog.WithLogger(context.Background(), logger),
		config:   cfg,
		modules:  modules,
		registry: mode.NewRegistry(),
		progress: &lifecycle.Progress{},
	}, nil
}

// Registry returns the application's mode registry. This is primarily for testing.
func (a *App) Registry() *mode.Registry {
	return a.registry
}

// setup connects the backend unless one was injected and installs the
// mode modules against it.
func (a *App) setup(ctx context.Context) error {
	if a.backend == nil {
		if err := a.openBackend(ctx); err != nil {
			return err
		}
	}
	if a.options == nil {
		a.options = synth.NewOptions(nil)
	}
	if a.closeBackend == nil {
		a.closeBackend = func() {}
	}
	if err := a.registry.Install(ctx, a.backend, a.modules...); err != nil {
		return fmt.Errorf("failed to install setting modes: %w", err)
	}
	return nil
}
