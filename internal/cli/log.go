package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with short timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took.
// It is not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Packed 42 sprites (31ms)".
func (p *progress) done(msg string) {
	p.logger.Debugf("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
