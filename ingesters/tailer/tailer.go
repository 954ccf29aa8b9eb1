// Package tailer follows a live auth log file, yielding security event
// records as lines are appended.
package tailer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nxadm/tail"
	"go.uber.org/zap"

	"github.com/logtally/authtab/internal/health"
	"github.com/logtally/authtab/internal/metrics"
	"github.com/logtally/authtab/processors/authlog"
)

// ComponentName is the health readiness key for this ingester.
const ComponentName = "tail-ingester"

// Callback receives each record as it is parsed. Returning a non-nil
// error stops the tail and is propagated by Ingest.
type Callback func(authlog.Record) error

// Ingester follows a log file, re-opening it across rotations, and
// applies the parsing pipeline to every appended line.
type Ingester struct {
	FilePath string
	Proc     *authlog.Processor
	Logger   *zap.SugaredLogger
	Health   *health.Health
	Metrics  *metrics.Provider
}

// Ingest tails the file until ctx is cancelled or cb returns an error.
// Per-line parse failures are dropped silently, matching the one-shot
// ingester.
func (i *Ingester) Ingest(ctx context.Context, cb Callback) error {
	t, err := tail.TailFile(i.FilePath, tail.Config{
		Follow: true,
		ReOpen: true,
		Logger: tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail '%s': %w", i.FilePath, err)
	}
	defer t.Cleanup()

	if i.Logger != nil {
		i.Logger.Infow("following log file", "path", i.FilePath, "year", i.Proc.Year())
	}

	if i.Health != nil {
		i.Health.OnReady(ComponentName)
	}

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return ctx.Err()
		case line, open := <-t.Lines:
			if !open {
				return fmt.Errorf("tail channel for '%s' closed", i.FilePath)
			}

			if line.Err != nil {
				if i.Logger != nil {
					i.Logger.Debugw("tail line error", "path", i.FilePath, "error", line.Err)
				}
				continue
			}

			if i.Metrics != nil {
				i.Metrics.IncLines()
			}

			text := strings.ToValidUTF8(line.Text, string(utf8.RuneError))

			rec, ok := i.Proc.ParseLine(text)
			if !ok {
				continue
			}

			if err := cb(rec); err != nil {
				_ = t.Stop()
				return err
			}
		}
	}
}
