package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"

	// PNG is the wire format for rendered images.
	_ "image/png"

	"github.com/specialistvlad/axisgrid/internal/imagecodec"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

const (
	eventRender      = "render"
	eventReloadModel = "reload_model"
	eventReloadVAE   = "reload_vae"
	eventCatalog     = "catalog"
	eventExtension   = "extension"
)

type renderResult struct {
	Images   []string `json:"images"`
	Seeds    []int64  `json:"seeds"`
	Subseeds []int64  `json:"subseeds"`
	Info     string   `json:"info"`
}

type catalogResult struct {
	Values []string `json:"values"`
}

type extensionResult struct {
	Present  bool                `json:"present"`
	Catalogs map[string][]string `json:"catalogs"`
}

// Render sends the request parameters together with the current options.
func (c *Client) Render(ctx context.Context, opts *synth.Options, req *synth.Request) (*synth.Result, error) {
	var res renderResult
	err := c.call(ctx, eventRender, map[string]any{
		"request": req.Params(),
		"options": opts.All(),
	}, &res)
	if err != nil {
		return nil, err
	}

	out := &synth.Result{Seeds: res.Seeds, Subseeds: res.Subseeds, Info: res.Info}
	for i, enc := range res.Images {
		img, err := decodeImage(enc)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		out.Images = append(out.Images, img)
	}
	return out, nil
}

func decodeImage(enc string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}
	return img, nil
}

func (c *Client) ReloadModel(ctx context.Context, opts *synth.Options) error {
	return c.call(ctx, eventReloadModel, map[string]any{"model": opts.String(synth.OptModel)}, nil)
}

func (c *Client) ReloadVAE(ctx context.Context, opts *synth.Options) error {
	return c.call(ctx, eventReloadVAE, map[string]any{"vae": opts.String(synth.OptVAE)}, nil)
}

func (c *Client) Catalog(ctx context.Context, kind synth.CatalogKind) ([]string, error) {
	var res catalogResult
	if err := c.call(ctx, eventCatalog, map[string]any{"kind": string(kind)}, &res); err != nil {
		return nil, err
	}
	return res.Values, nil
}

// Encode happens locally; the server only ever sends raw PNG.
func (c *Client) Encode(w io.Writer, img image.Image, format string, info string) error {
	return imagecodec.Encode(w, img, format, info)
}

// ProbeExtension asks the server whether a companion extension is installed.
func (c *Client) ProbeExtension(ctx context.Context, name string) (*synth.Extension, bool, error) {
	var res extensionResult
	if err := c.call(ctx, eventExtension, map[string]any{"name": name}, &res); err != nil {
		return nil, false, err
	}
	if !res.Present {
		return nil, false, nil
	}
	return &synth.Extension{Name: name, Catalogs: res.Catalogs}, true, nil
}

var (
	_ synth.Backend         = (*Client)(nil)
	_ synth.ExtensionProber = (*Client)(nil)
)
