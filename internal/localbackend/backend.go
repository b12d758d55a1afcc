// Package localbackend is an in-process synth.Backend that renders flat
// images whose color is derived from the request seed. It keeps track of
// which model and VAE are loaded and of every call made to it, which makes
// it the backend of choice for dry runs, demos and tests.
package localbackend

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/specialistvlad/axisgrid/internal/imagecodec"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

// maxSide caps rendered image dimensions to keep memory flat.
const maxSide = 256

// DefaultCatalogs are served when Config.Catalogs does not name a kind.
var DefaultCatalogs = map[synth.CatalogKind][]string{
	synth.CatalogModels:        {"v1-5-pruned-emaonly.safetensors [6ce0161689]", "sd_xl_base_1.0.safetensors [31e35c80fc]"},
	synth.CatalogVAEs:          {"vae-ft-mse-840000-ema-pruned.safetensors"},
	synth.CatalogSamplers:      {"Euler a", "Euler", "DPM++ 2M", "DDIM"},
	synth.CatalogSchedulers:    {"Automatic", "Karras", "Exponential"},
	synth.CatalogUpscalers:     {"Lanczos", "R-ESRGAN 4x+"},
	synth.CatalogLatentModes:   {"Latent", "Latent (nearest)"},
	synth.CatalogStyles:        {"cinematic", "watercolor"},
	synth.CatalogFaceRestorers: {"CodeFormer", "GFPGAN"},
}

// RenderFunc replaces the default renderer.
type RenderFunc func(ctx context.Context, opts *synth.Options, req *synth.Request) (*synth.Result, error)

// Config tunes the backend.
type Config struct {
	Catalogs   map[synth.CatalogKind][]string
	Extensions map[string]*synth.Extension
	// ImagesPerRender overrides batch size times iterations when positive.
	ImagesPerRender int
	Render          RenderFunc
}

// RenderCall records one Render invocation.
type RenderCall struct {
	Request *synth.Request
	Options map[string]any
	Model   string
	VAE     string
}

// Backend is the in-process backend.
type Backend struct {
	cfg Config

	mu           sync.Mutex
	loadedModel  string
	loadedVAE    string
	modelReloads int
	vaeReloads   int
	renders      []RenderCall
}

// New creates a backend.
func New(cfg Config) *Backend {
	return &Backend{cfg: cfg}
}

// Render implements synth.Backend.
func (b *Backend) Render(ctx context.Context, opts *synth.Options, req *synth.Request) (*synth.Result, error) {
	b.mu.Lock()
	b.renders = append(b.renders, RenderCall{
		Request: req.Clone(),
		Options: opts.All(),
		Model:   b.loadedModel,
		VAE:     b.loadedVAE,
	})
	b.mu.Unlock()

	if b.cfg.Render != nil {
		return b.cfg.Render(ctx, opts, req)
	}

	count := b.cfg.ImagesPerRender
	if count <= 0 {
		count = max(req.BatchSize, 1) * max(req.NIter, 1)
	}

	res := &synth.Result{Info: req.Prompt}
	for i := 0; i < count; i++ {
		seed := req.Seed + int64(i)
		res.Images = append(res.Images, flatImage(req.Width, req.Height, seed))
		res.Seeds = append(res.Seeds, seed)
		res.Subseeds = append(res.Subseeds, req.Subseed+int64(i))
	}
	return res, nil
}

// ReloadModel implements synth.Backend.
func (b *Backend) ReloadModel(_ context.Context, opts *synth.Options) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadedModel = opts.String(synth.OptModel)
	b.modelReloads++
	return nil
}

// ReloadVAE implements synth.Backend.
func (b *Backend) ReloadVAE(_ context.Context, opts *synth.Options) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadedVAE = opts.String(synth.OptVAE)
	b.vaeReloads++
	return nil
}

// Catalog implements synth.Backend.
func (b *Backend) Catalog(_ context.Context, kind synth.CatalogKind) ([]string, error) {
	if values, ok := b.cfg.Catalogs[kind]; ok {
		return slices.Clone(values), nil
	}
	if values, ok := DefaultCatalogs[kind]; ok {
		return slices.Clone(values), nil
	}
	return nil, fmt.Errorf("unknown catalog %q", kind)
}

// Encode implements synth.Backend.
func (b *Backend) Encode(w io.Writer, img image.Image, format, info string) error {
	return imagecodec.Encode(w, img, format, info)
}

// ProbeExtension implements synth.ExtensionProber.
func (b *Backend) ProbeExtension(_ context.Context, name string) (*synth.Extension, bool, error) {
	ext, ok := b.cfg.Extensions[name]
	if !ok {
		return nil, false, nil
	}
	cp := *ext
	cp.Catalogs = maps.Clone(ext.Catalogs)
	return &cp, true, nil
}

// Loaded returns the model and VAE made active by the last reloads.
func (b *Backend) Loaded() (model, vae string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadedModel, b.loadedVAE
}

// Reloads returns how often the model and the VAE were reloaded.
func (b *Backend) Reloads() (model, vae int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modelReloads, b.vaeReloads
}

// Renders returns the recorded Render calls.
func (b *Backend) Renders() []RenderCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.renders)
}

func flatImage(width, height int, seed int64) image.Image {
	w := min(max(width, 1), maxSide)
	h := min(max(height, 1), maxSide)

	hash := fnv.New32a()
	fmt.Fprintf(hash, "%d", seed)
	sum := hash.Sum32()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := color.RGBA{R: uint8(sum >> 16), G: uint8(sum >> 8), B: uint8(sum), A: 255}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)
	return img
}
