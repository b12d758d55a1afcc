package synth

import (
	"context"
	"image"
	"io"
)

// CatalogKind names one of the backend's live catalogs.
type CatalogKind string

const (
	CatalogModels        CatalogKind = "models"
	CatalogVAEs          CatalogKind = "vaes"
	CatalogSamplers      CatalogKind = "samplers"
	CatalogSchedulers    CatalogKind = "schedulers"
	CatalogUpscalers     CatalogKind = "upscalers"
	CatalogLatentModes   CatalogKind = "latent_upscale_modes"
	CatalogStyles        CatalogKind = "styles"
	CatalogFaceRestorers CatalogKind = "face_restorers"
)

// Result is what one Render call produced.
type Result struct {
	Images   []image.Image
	Seeds    []int64
	Subseeds []int64
	Info     string
}

// Backend is the synthesis engine the grid drives. Every call receives the
// shared Options handle explicitly; a backend must not keep its own copy of
// the model/VAE selection.
type Backend interface {
	// Render runs one generation for req under opts.
	Render(ctx context.Context, opts *Options, req *Request) (*Result, error)

	// ReloadModel makes the model named by opts active.
	ReloadModel(ctx context.Context, opts *Options) error

	// ReloadVAE makes the VAE named by opts active.
	ReloadVAE(ctx context.Context, opts *Options) error

	// Catalog lists the current entries of a live catalog.
	Catalog(ctx context.Context, kind CatalogKind) ([]string, error)

	// Encode writes img in the given format ("png", "jpg", ...) with the
	// generation info embedded where the format allows it.
	Encode(w io.Writer, img image.Image, format string, info string) error
}

// Extension describes a companion extension discovered on the backend.
type Extension struct {
	Name     string
	Catalogs map[string][]string
}

// ExtensionProber is implemented by backends that can report companion
// extensions. Absence of an extension is not an error.
type ExtensionProber interface {
	ProbeExtension(ctx context.Context, name string) (*Extension, bool, error)
}
