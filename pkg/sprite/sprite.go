// Package sprite finds and loads the source images of an atlas.
//
// [Scan] reads only image headers, which is enough to pack; pixels are
// decoded later by [DecodeAll] when a PNG sheet is rendered. Every sprite
// carries the SHA-256 of its file so packing results can be cached by
// content.
//
// PNG, JPEG and GIF are decoded by the standard library; BMP, TIFF and WebP
// by golang.org/x/image.
package sprite

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"unicode"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/matzehuels/atlaspack/pkg/errors"
)

// Extensions lists the file extensions Discover accepts, lower case.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Sprite is one source image.
type Sprite struct {
	Name   string // C identifier derived from the file name
	Path   string
	Hash   string // hex SHA-256 of the file contents
	Width  int
	Height int
	Format string // decoder name: "png", "jpeg", ...
}

// Decode reads and fully decodes the image file.
func (s Sprite) Decode() (image.Image, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fileError(s.Path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDecode, err, "decode %s", s.Path)
	}
	return img, nil
}

// Options controls Scan.
type Options struct {
	// Concurrency bounds parallel reads. Zero means runtime.NumCPU().
	Concurrency int
}

// Discover expands paths into image files. Directories contribute their
// supported image files (not recursively) sorted by name; file arguments
// are kept as given even if their extension is unknown. Duplicates are
// dropped, keeping the first occurrence.
func Discover(paths []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := filepath.Clean(p)
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		if err := apperrors.ValidatePath(p); err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fileError(p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fileError(p, err)
		}
		for _, e := range entries {
			if e.IsDir() || !Supported(e.Name()) {
				continue
			}
			add(filepath.Join(p, e.Name()))
		}
	}

	if len(out) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "no images found in %s", strings.Join(paths, ", "))
	}
	return out, nil
}

// Supported reports whether name has an extension Discover picks up.
func Supported(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// Scan reads every file, hashing its contents and decoding its header.
// Results are in input order.
func Scan(ctx context.Context, paths []string, opts Options) ([]Sprite, error) {
	sprites := make([]Sprite, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency(opts.Concurrency))
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := scanFile(p)
			if err != nil {
				return err
			}
			sprites[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sprites, nil
}

func scanFile(path string) (Sprite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sprite{}, fileError(path, err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Sprite{}, apperrors.Wrap(apperrors.ErrCodeDecode, err, "read image header of %s", path)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Sprite{}, apperrors.New(apperrors.ErrCodeInvalidDimension,
			"%s has size %dx%d", path, cfg.Width, cfg.Height)
	}
	sum := sha256.Sum256(data)
	return Sprite{
		Name:   Name(path),
		Path:   path,
		Hash:   hex.EncodeToString(sum[:]),
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}, nil
}

// DecodeAll decodes every sprite in parallel. Results are in input order.
func DecodeAll(ctx context.Context, sprites []Sprite) ([]image.Image, error) {
	images := make([]image.Image, len(sprites))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency(0))
	for i, s := range sprites {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := s.Decode()
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// Name turns a file path into a C identifier: the base name without its
// extension, with every character that is not a letter, digit or
// underscore replaced by '_' and a leading digit prefixed with '_'.
//
//	Name("art/player-idle.png") == "player_idle"
//	Name("2x/coin.png")         == "coin"
//	Name("9patch.png")          == "_9patch"
func Name(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range base {
		if r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" {
		return "_"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

func concurrency(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func fileError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "%s does not exist", path)
	}
	return apperrors.Wrap(apperrors.ErrCodeInvalidPath, err, "cannot read %s", path)
}
