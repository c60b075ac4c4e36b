package pipeline

import (
	"fmt"

	"github.com/matzehuels/atlaspack/pkg/atlas"
	"github.com/matzehuels/atlaspack/pkg/errors"
	"github.com/matzehuels/atlaspack/pkg/packer"
	"github.com/matzehuels/atlaspack/pkg/sprite"
)

// Pack places sprites on a canvas. It is the uncached core of the layout
// stage.
//
// Padding is added to the right and bottom of every block before packing,
// and the trailing padding of the canvas is trimmed afterwards, so frames
// are separated by exactly Padding pixels. Frames are returned in sprite
// order. Frame names are the sprite names made unique by a numeric suffix.
func Pack(sprites []sprite.Sprite, opts Options) (atlas.Layout, *packer.Packer, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return atlas.Layout{}, nil, err
	}
	if len(sprites) == 0 {
		return atlas.Layout{}, nil, errors.New(errors.ErrCodeInvalidInput, "no sprites to pack")
	}

	l := atlas.Layout{
		Padding: opts.Padding,
		Pow2:    opts.Pow2,
		Growth:  opts.Growth,
		Order:   opts.Order,
		Frames:  make([]atlas.Frame, len(sprites)),
	}
	names := uniqueNames(sprites)
	for i, s := range sprites {
		l.Frames[i] = atlas.Frame{
			Name: names[i],
			Path: s.Path,
			Hash: s.Hash,
			W:    s.Width,
			H:    s.Height,
		}
	}

	p, blocks, err := fitFrames(l)
	if err != nil {
		return atlas.Layout{}, nil, err
	}
	for i, b := range blocks {
		l.Frames[i].X, l.Frames[i].Y = b.X, b.Y
	}
	l.Width = p.Width() - l.Padding
	l.Height = p.Height() - l.Padding
	return l, p, nil
}

// Repack rebuilds the packing tree of a layout. Packing is deterministic,
// so the tree matches the one Pack built for the same frames and options.
// The returned blocks carry the frame names as Data.
func Repack(l atlas.Layout) (*packer.Packer, []*packer.Block, error) {
	return fitFrames(l)
}

func fitFrames(l atlas.Layout) (*packer.Packer, []*packer.Block, error) {
	growth, err := packer.ParseGrowth(l.Growth)
	if err != nil {
		return nil, nil, err
	}
	order, err := packer.ParseOrder(l.Order)
	if err != nil {
		return nil, nil, err
	}

	blocks := make([]*packer.Block, len(l.Frames))
	for i, f := range l.Frames {
		blocks[i] = packer.NewBlock(f.W+l.Padding, f.H+l.Padding, f.Name)
	}
	p := packer.New(packer.WithGrowth(growth), packer.WithOrder(order))
	if err := p.Fit(blocks); err != nil {
		return nil, nil, err
	}
	return p, blocks, nil
}

func uniqueNames(sprites []sprite.Sprite) []string {
	names := make([]string, len(sprites))
	seen := make(map[string]bool, len(sprites))
	for i, s := range sprites {
		base := s.Name
		if base == "" {
			base = sprite.Name(s.Path)
		}
		name := base
		for n := 2; seen[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}
