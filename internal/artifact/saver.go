package artifact

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/specialistvlad/axisgrid/internal/ctxlog"
	"github.com/specialistvlad/axisgrid/internal/fsutil"
	"golang.org/x/sync/errgroup"
)

// Record is the metadata of one written cell. It is complete when handed
// to the saver; the save never reads shared state.
type Record struct {
	Path   string
	Axes   map[string]string
	Params map[string]any
	Info   string
	Seed   int64
}

// Recorder is notified after every successful write.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Encoder writes an image in a format with embedded generation info.
type Encoder interface {
	Encode(w io.Writer, img image.Image, format, info string) error
}

// Saver writes images in the background.
type Saver struct {
	ctx      context.Context
	enc      Encoder
	recorder Recorder
	group    errgroup.Group
}

// NewSaver creates a saver. limit bounds concurrent writes; zero or less
// means no bound. recorder may be nil.
func NewSaver(ctx context.Context, enc Encoder, recorder Recorder, limit int) *Saver {
	s := &Saver{ctx: context.WithoutCancel(ctx), enc: enc, recorder: recorder}
	if limit > 0 {
		s.group.SetLimit(limit)
	}
	return s
}

// Save schedules img to be written to rec.Path and returns immediately.
func (s *Saver) Save(img image.Image, format string, rec Record) {
	s.group.Go(func() error {
		logger := ctxlog.FromContext(s.ctx).With("path", rec.Path)
		if err := s.write(img, format, rec); err != nil {
			logger.Error("Failed to save image.", "error", err)
			return err
		}
		logger.Debug("💾 Saved image.")
		if s.recorder != nil {
			if err := s.recorder.Record(s.ctx, rec); err != nil {
				logger.Error("Failed to record image metadata.", "error", err)
				return fmt.Errorf("failed to record %s: %w", rec.Path, err)
			}
		}
		return nil
	})
}

func (s *Saver) write(img image.Image, format string, rec Record) (err error) {
	if err := fsutil.EnsureParentDir(rec.Path); err != nil {
		return err
	}
	tmp := rec.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err := s.enc.Encode(f, img, format, rec.Info); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode %s: %w", rec.Path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	return os.Rename(tmp, rec.Path)
}

// Wait blocks until every scheduled save finished and returns the first
// failure.
func (s *Saver) Wait() error {
	return s.group.Wait()
}
