package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atlaspack/pkg/atlas"
	"github.com/matzehuels/atlaspack/pkg/cache"
	"github.com/matzehuels/atlaspack/pkg/observability"
	"github.com/matzehuels/atlaspack/pkg/sprite"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching logic lives in one place.
//
// The Runner holds no per-run state, so multiple goroutines can share one
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides cache.TTLLayout and cache.TTLArtifact when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete scan → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.Logger.Debug("running pipeline", "options", opts.String())

	result := &Result{}

	// Stage 1: Scan
	scanStart := time.Now()
	sprites, err := r.Scan(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	result.Stats.ScanTime = time.Since(scanStart)
	result.Stats.SpriteCount = len(sprites)

	r.Logger.Info("scanned sprites",
		"count", len(sprites),
		"duration", result.Stats.ScanTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	layout, layoutHit, err := r.GenerateLayoutWithCacheInfo(ctx, sprites, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = layout
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("packed sprites",
		"frames", len(layout.Frames),
		"width", layout.Width,
		"height", layout.Height,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, layout, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit
	if data, err := atlas.Marshal(layout); err == nil {
		result.LayoutHash = cache.Hash(data)
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Scan discovers the input images and reads their headers. Scans are not
// cached: hashing the files is what makes the later stages cacheable.
func (r *Runner) Scan(ctx context.Context, opts Options) ([]sprite.Sprite, error) {
	hooks := observability.Pipeline()
	hooks.OnScanStart(ctx, len(opts.Inputs))
	start := time.Now()

	sprites, err := r.scan(ctx, opts)
	hooks.OnScanComplete(ctx, len(sprites), time.Since(start), err)
	return sprites, err
}

func (r *Runner) scan(ctx context.Context, opts Options) ([]sprite.Sprite, error) {
	paths, err := sprite.Discover(opts.Inputs)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("discovered images", "count", len(paths))
	return sprite.Scan(ctx, paths, sprite.Options{Concurrency: opts.Concurrency})
}

// GenerateLayoutWithCacheInfo packs sprites with caching and reports
// whether the layout came from cache. Refresh skips the lookup but still
// stores the new layout.
func (r *Runner) GenerateLayoutWithCacheInfo(ctx context.Context, sprites []sprite.Sprite, opts Options) (atlas.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return atlas.Layout{}, false, err
	}

	hashes := make([]string, len(sprites))
	for i, s := range sprites {
		hashes[i] = s.Hash
	}
	cacheKey := r.Keyer.LayoutKey(hashes, opts.LayoutKeyOpts())
	cacheHooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := atlas.Unmarshal(data); err == nil && len(cached.Frames) == len(sprites) {
				cacheHooks.OnCacheHit(ctx, "layout")
				return relabel(cached, sprites), true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		cacheHooks.OnCacheMiss(ctx, "layout")
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(sprites))
	start := time.Now()
	layout, _, err := Pack(sprites, opts)
	hooks.OnLayoutComplete(ctx, layout.Width, layout.Height, time.Since(start), err)
	if err != nil {
		return atlas.Layout{}, false, err
	}

	if data, err := atlas.Marshal(layout); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLLayout)); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			cacheHooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return layout, false, nil
}

// GenerateLayout calls GenerateLayoutWithCacheInfo and discards the cache
// hit info.
func (r *Runner) GenerateLayout(ctx context.Context, sprites []sprite.Sprite, opts Options) (atlas.Layout, error) {
	layout, _, err := r.GenerateLayoutWithCacheInfo(ctx, sprites, opts)
	return layout, err
}

// RenderWithCacheInfo renders artifacts with caching and reports whether
// every artifact came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, layout atlas.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutData, err := atlas.Marshal(layout)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)
	cacheHooks := observability.Cache()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if _, ok := artifacts[format]; ok {
			continue
		}
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				cacheHooks.OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			cacheHooks.OnCacheMiss(ctx, "artifact")
		}
		if !slices.Contains(missing, format) {
			missing = append(missing, format)
		}
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, missing)
	start := time.Now()
	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, layout, renderOpts)
	hooks.OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
		} else {
			cacheHooks.OnCacheSet(ctx, "artifact", len(data))
		}
		artifacts[format] = data
	}
	return artifacts, false, nil
}

// RenderArtifacts calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) RenderArtifacts(ctx context.Context, layout atlas.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, layout, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// relabel points a cached layout at the current files. The cache key only
// covers file contents, so the same sheet may have been packed from files
// at other paths.
func relabel(l atlas.Layout, sprites []sprite.Sprite) atlas.Layout {
	names := uniqueNames(sprites)
	frames := make([]atlas.Frame, len(l.Frames))
	for i, f := range l.Frames {
		f.Name, f.Path, f.Hash = names[i], sprites[i].Path, sprites[i].Hash
		frames[i] = f
	}
	l.Frames = frames
	return l
}
