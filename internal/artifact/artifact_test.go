package artifact

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/axisgrid/internal/imagecodec"
	"github.com/specialistvlad/axisgrid/internal/localbackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellPath(t *testing.T) {
	got := CellPath("out", []string{"Euler a", "20", "cat / dog"}, "png")
	assert.Equal(t, filepath.Join("out", "euler_a", "20", "cat___dog.png"), got)

	assert.Equal(t, filepath.Join("out", "_.jpg"), CellPath("out", nil, "jpg"))
	assert.Equal(t, filepath.Join("out", "_", "x.png"), CellPath("out", []string{"..", "x"}, "png"))
}

func TestResize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 32))
	out := Resize(src, 16, 8)
	assert.Equal(t, image.Rect(0, 0, 16, 8), out.Bounds())
	assert.Same(t, src, Resize(src, 64, 32).(*image.RGBA))
}

type memRecorder struct {
	mu   sync.Mutex
	recs []Record
	err  error
}

func (m *memRecorder) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return m.err
}

func TestSaver_WritesAndRecords(t *testing.T) {
	dir := t.TempDir()
	rec := &memRecorder{}
	s := NewSaver(context.Background(), localbackend.New(localbackend.Config{}), rec, 2)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.White)
	for _, name := range []string{"a", "b", "c"} {
		s.Save(img, "png", Record{Path: filepath.Join(dir, "nested", name+".png"), Info: "steps: 20"})
	}
	require.NoError(t, s.Wait())

	data, err := os.ReadFile(filepath.Join(dir, "nested", "b.png"))
	require.NoError(t, err)
	info, ok := imagecodec.ReadText(data, imagecodec.InfoKey)
	require.True(t, ok)
	assert.Equal(t, "steps: 20", info)
	assert.Len(t, rec.recs, 3)

	_, err = os.Stat(filepath.Join(dir, "nested", "b.png.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestSaver_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	rec := &memRecorder{err: errors.New("index locked")}
	s := NewSaver(context.Background(), localbackend.New(localbackend.Config{}), rec, 0)

	s.Save(image.NewRGBA(image.Rect(0, 0, 2, 2)), "png", Record{Path: filepath.Join(dir, "x.png")})
	assert.ErrorContains(t, s.Wait(), "index locked")

	s = NewSaver(context.Background(), localbackend.New(localbackend.Config{}), nil, 0)
	s.Save(image.NewRGBA(image.Rect(0, 0, 2, 2)), "webp", Record{Path: filepath.Join(dir, "y.webp")})
	assert.Error(t, s.Wait())
	_, err := os.Stat(filepath.Join(dir, "y.webp.tmp"))
	assert.True(t, os.IsNotExist(err))
}

type gatedEncoder struct {
	inner Encoder
	gate  chan struct{}
}

func (g *gatedEncoder) Encode(w io.Writer, img image.Image, format, info string) error {
	<-g.gate
	return g.inner.Encode(w, img, format, info)
}

func TestSaver_UnboundedSaveNeverBlocks(t *testing.T) {
	dir := t.TempDir()
	enc := &gatedEncoder{inner: localbackend.New(localbackend.Config{}), gate: make(chan struct{})}
	s := NewSaver(context.Background(), enc, nil, 0)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	pending := 4*runtime.NumCPU() + 4

	scheduled := make(chan struct{})
	go func() {
		for i := range pending {
			s.Save(img, "png", Record{Path: filepath.Join(dir, fmt.Sprintf("%d.png", i))})
		}
		close(scheduled)
	}()

	select {
	case <-scheduled:
	case <-time.After(5 * time.Second):
		t.Fatal("Save blocked while writes were pending")
	}

	close(enc.gate)
	require.NoError(t, s.Wait())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, pending)
}
