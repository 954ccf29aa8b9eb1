// Package logfile provides a single lazy pass over an auth log file,
// yielding only the lines that classify as security events.
package logfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/logtally/authtab/internal/health"
	"github.com/logtally/authtab/internal/metrics"
	"github.com/logtally/authtab/processors/authlog"
)

const (
	// ComponentName is the health readiness key for this ingester.
	ComponentName = "logfile-ingester"

	// maxLineSize bounds a single input line. Auth log lines are
	// short; anything beyond this is not a line we can classify.
	maxLineSize = 1024 * 1024

	initialBufSize = 64 * 1024
)

// Callback receives each record in file order. Returning a non-nil
// error stops the scan and is propagated by Ingest; the underlying
// file is closed either way.
type Callback func(authlog.Record) error

// Ingester drives the parsing pipeline over one file. Each call to
// Ingest re-opens the file, so an Ingester is restartable.
type Ingester struct {
	FilePath string
	Proc     *authlog.Processor
	Logger   *zap.SugaredLogger
	Health   *health.Health
	Metrics  *metrics.Provider
}

// Ingest scans the file line by line, applying the parsing pipeline
// and invoking cb for every classified record. Lines that fail any
// pipeline stage are dropped silently. Invalid byte sequences are
// replaced, not rejected. Failure to open the file is fatal and
// returned to the caller.
func (i *Ingester) Ingest(ctx context.Context, cb Callback) error {
	f, err := os.Open(i.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if i.Logger != nil {
		i.Logger.Infow("parsing log file", "path", i.FilePath, "year", i.Proc.Year())
	}

	if i.Health != nil {
		i.Health.OnReady(ComponentName)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, initialBufSize), maxLineSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if i.Metrics != nil {
			i.Metrics.IncLines()
		}

		line := strings.ToValidUTF8(scanner.Text(), string(utf8.RuneError))

		rec, ok := i.Proc.ParseLine(line)
		if !ok {
			continue
		}

		if err := cb(rec); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed reading '%s': %w", i.FilePath, err)
	}

	return nil
}

// ReadAll collects the whole file into memory. Convenient for small
// files and tests; use Ingest for streaming.
func (i *Ingester) ReadAll(ctx context.Context) ([]authlog.Record, error) {
	var recs []authlog.Record

	err := i.Ingest(ctx, func(rec authlog.Record) error {
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return recs, nil
}
