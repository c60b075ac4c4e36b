package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements
// PipelineHooks, CacheHooks and HTTPHooks.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through logger (log.Default() if nil).
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnScanStart(_ context.Context, inputs int) {
	h.logger.Debug("scan start", "inputs", inputs)
}

func (h *LogHooks) OnScanComplete(_ context.Context, sprites int, d time.Duration, err error) {
	h.logger.Debug("scan complete", "sprites", sprites, "duration", d, "err", err)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, blocks int) {
	h.logger.Debug("layout start", "blocks", blocks)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, w, hgt int, d time.Duration, err error) {
	h.logger.Debug("layout complete", "width", w, "height", hgt, "duration", d, "err", err)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("render complete", "formats", formats, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
