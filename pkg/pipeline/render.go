package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/matzehuels/atlaspack/pkg/atlas"
	"github.com/matzehuels/atlaspack/pkg/sink"
	"github.com/matzehuels/atlaspack/pkg/sprite"
)

// Render generates output artifacts in the requested formats. Source
// images are decoded from the frame paths only when a PNG is requested.
func Render(ctx context.Context, l atlas.Layout, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}
		data, err := renderFormat(ctx, l, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, l atlas.Layout, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatPNG:
		images, err := decodeFrames(ctx, l, opts)
		if err != nil {
			return nil, err
		}
		return sink.RenderPNG(l, images, sink.WithBackground(opts.Background))
	case FormatJSON:
		return sink.RenderJSON(l)
	case FormatBSON:
		return sink.RenderBSON(l)
	case FormatHeader:
		var hopts []sink.HeaderOption
		if opts.HeaderName != "" {
			hopts = append(hopts, sink.WithEnumName(opts.HeaderName))
		}
		return sink.RenderHeader(l, hopts...)
	case FormatText:
		return sink.RenderText(l), nil
	case FormatDOT:
		p, blocks, err := Repack(l)
		if err != nil {
			return nil, err
		}
		return sink.RenderDOT(p.Root(), blocks), nil
	case FormatTree:
		p, blocks, err := Repack(l)
		if err != nil {
			return nil, err
		}
		return sink.RenderTreeSVG(ctx, p.Root(), blocks)
	}
	return nil, ValidateFormat(format)
}

func decodeFrames(ctx context.Context, l atlas.Layout, opts Options) ([]image.Image, error) {
	sprites := make([]sprite.Sprite, len(l.Frames))
	for i, f := range l.Frames {
		sprites[i] = sprite.Sprite{Name: f.Name, Path: f.Path, Width: f.W, Height: f.H}
	}
	opts.Logger.Debug("decoding images", "count", len(sprites))
	return sprite.DecodeAll(ctx, sprites)
}
