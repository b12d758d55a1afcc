package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/axisgrid/internal/localbackend"
	"github.com/specialistvlad/axisgrid/internal/remote"
	"github.com/specialistvlad/axisgrid/internal/synth"
	"github.com/specialistvlad/axisgrid/modules/controlnet"
	"github.com/specialistvlad/axisgrid/modules/dynthres"
)

// localExtensions are the companion extensions the local backend reports,
// so every built-in mode is available without a server.
func localExtensions() map[string]*synth.Extension {
	return map[string]*synth.Extension{
		dynthres.ExtensionName: {
			Name: dynthres.ExtensionName,
		},
		controlnet.ExtensionName: {
			Name: controlnet.ExtensionName,
			Catalogs: map[string][]string{
				"preprocessors": {"none", "canny", "depth_midas", "openpose"},
				"models":        {"control_v11p_sd15_canny [d14c016b]", "control_v11f1p_sd15_depth [cfd03158]"},
				"images":        {},
			},
		},
	}
}

func (a *App) openBackend(ctx context.Context) error {
	switch a.config.Backend {
	case BackendSocketIO:
		client, closeFn, err := remote.Dial(ctx, remote.DialConfig{
			URL:                a.config.BackendURL,
			Namespace:          a.config.BackendNamespace,
			InsecureSkipVerify: a.config.InsecureSkipVerify,
			Timeout:            a.config.BackendTimeout,
		})
		if err != nil {
			return err
		}
		// The server lists its active checkpoint first.
		models, err := client.Catalog(ctx, synth.CatalogModels)
		if err != nil {
			closeFn()
			return fmt.Errorf("failed to read the backend model catalog: %w", err)
		}
		initial := map[string]any{}
		if len(models) > 0 {
			initial[synth.OptModel] = models[0]
		}
		a.backend, a.options, a.closeBackend = client, synth.NewOptions(initial), closeFn
	default:
		a.backend = localbackend.New(localbackend.Config{Extensions: localExtensions()})
		a.options = synth.NewOptions(map[string]any{
			synth.OptModel: localbackend.DefaultCatalogs[synth.CatalogModels][0],
		})
		a.closeBackend = func() {}
	}
	a.logger.Info("Synthesis backend ready.", "backend", a.config.Backend)
	return nil
}
