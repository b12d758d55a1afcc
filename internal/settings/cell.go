package settings

import (
	"context"
	"fmt"

	"github.com/specialistvlad/axisgrid/internal/synth"
)

// RestoreCell writes snapshot back into opts. The model and VAE are only
// reloaded when the coordinate actually changed them.
func RestoreCell(ctx context.Context, opts *synth.Options, b synth.Backend, snapshot synth.Settings) error {
	current := opts.Snapshot()
	opts.Restore(snapshot)

	if current.Model != snapshot.Model {
		if err := b.ReloadModel(ctx, opts); err != nil {
			return fmt.Errorf("failed to reload model '%s': %w", snapshot.Model, err)
		}
	}
	if current.VAE != snapshot.VAE {
		if err := b.ReloadVAE(ctx, opts); err != nil {
			return fmt.Errorf("failed to reload VAE '%s': %w", snapshot.VAE, err)
		}
	}
	return nil
}
