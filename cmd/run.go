package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-logr/zapr"
	"github.com/metal-toolbox/auditevent"
	"github.com/metal-toolbox/auditevent/helpers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/logtally/authtab/ingesters/logfile"
	"github.com/logtally/authtab/ingesters/spool"
	"github.com/logtally/authtab/ingesters/tailer"
	"github.com/logtally/authtab/internal/auditsink"
	"github.com/logtally/authtab/internal/config"
	"github.com/logtally/authtab/internal/health"
	"github.com/logtally/authtab/internal/metrics"
	"github.com/logtally/authtab/internal/store"
	"github.com/logtally/authtab/internal/table"
	"github.com/logtally/authtab/processors/authlog"
)

// Run executes the authtab command: it parses flags (plus the optional
// YAML config file), builds the requested sinks, and drives one of the
// three ingestion modes until completion or cancellation.
func Run(ctx context.Context, osArgs []string, h *health.Health, optLoggerConfig *zap.Config) error {
	appCfg, err := parseFlags(osArgs)
	if err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	if appCfg.configPath != "" {
		fileCfg, err := config.Load(appCfg.configPath)
		if err != nil {
			return err
		}

		appCfg.applyFile(fileCfg)
	}

	if err := appCfg.validate(); err != nil {
		return err
	}

	if optLoggerConfig == nil {
		cfg := zap.NewProductionConfig()
		optLoggerConfig = &cfg
	}

	optLoggerConfig.Level = zap.NewAtomicLevelAt(appCfg.logLevel)

	l, err := optLoggerConfig.Build()
	if err != nil {
		return err
	}

	defer func() {
		_ = l.Sync() //nolint
	}()

	logger := l.Sugar()

	pprov := metrics.NewProvider()
	proc := authlog.NewProcessor(appCfg.year, logger, pprov)

	eg, groupCtx := errgroup.WithContext(ctx)

	handleMetricsAndHealth(groupCtx, appCfg, eg, h, logger)

	var sinks []func(authlog.Record) error
	var closers []func() error

	csvPath := appCfg.csvPath
	if csvPath == "" && appCfg.inputPath != "" {
		csvPath = appCfg.inputPath + ".csv"
	}

	var tw *table.Writer

	switch {
	case csvPath == "-":
		tw = table.NewWriter(os.Stdout)
	case csvPath != "":
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("failed to create CSV output '%s': %w", csvPath, err)
		}

		closers = append(closers, f.Close)
		tw = table.NewWriter(f)
	}

	if tw != nil {
		// In the streaming modes rows must become visible as they
		// happen, not when the process exits.
		flushEach := appCfg.follow || appCfg.spoolDir != ""

		sinks = append(sinks, func(rec authlog.Record) error {
			if err := tw.Write(rec); err != nil {
				return err
			}

			if flushEach {
				return tw.Flush()
			}

			return nil
		})
		closers = append(closers, tw.Flush)
	}

	if appCfg.sqlitePath != "" {
		st, err := store.Open(groupCtx, appCfg.sqlitePath)
		if err != nil {
			return err
		}

		closers = append(closers, st.Close)
		sinks = append(sinks, func(rec authlog.Record) error {
			return st.Insert(groupCtx, rec)
		})
	}

	if appCfg.auditLogPath != "" {
		auf, err := helpers.OpenAuditLogFileUntilSuccessWithContext(
			groupCtx, appCfg.auditLogPath, zapr.NewLogger(l))
		if err != nil {
			return fmt.Errorf("failed to open audit log file: %w", err)
		}

		closers = append(closers, auf.Close)
		sinks = append(sinks, auditsink.New(auditevent.NewDefaultAuditEventWriter(auf)).Write)
	}

	if len(sinks) == 0 {
		return errors.New("no output sinks configured")
	}

	emit := func(rec authlog.Record) error {
		for _, sink := range sinks {
			if err := sink(rec); err != nil {
				return err
			}
		}

		return nil
	}

	logger.Infoln("starting workers...")

	switch {
	case appCfg.spoolDir != "":
		h.AddReadiness(spool.ComponentName)

		eg.Go(func() error {
			w := &spool.Watcher{
				Dir:     appCfg.spoolDir,
				Proc:    proc,
				Logger:  logger,
				Health:  h,
				Metrics: pprov,
			}

			err := w.Watch(groupCtx, emit)
			logger.Infof("spool watcher exited (%v)", err)
			return err
		})
	case appCfg.follow:
		h.AddReadiness(tailer.ComponentName)

		eg.Go(func() error {
			t := &tailer.Ingester{
				FilePath: appCfg.inputPath,
				Proc:     proc,
				Logger:   logger,
				Health:   h,
				Metrics:  pprov,
			}

			err := t.Ingest(groupCtx, emit)
			logger.Infof("tail ingester exited (%v)", err)
			return err
		})
	default:
		h.AddReadiness(logfile.ComponentName)

		eg.Go(func() error {
			i := &logfile.Ingester{
				FilePath: appCfg.inputPath,
				Proc:     proc,
				Logger:   logger,
				Health:   h,
				Metrics:  pprov,
			}

			err := i.Ingest(groupCtx, emit)
			logger.Infof("logfile ingester exited (%v)", err)
			return err
		})
	}

	if err := eg.Wait(); err != nil {
		_ = closeAll(closers)

		// The group context is cancelled whenever any worker fails,
		// so context.Canceled cannot be assumed to be a clean
		// shutdown and is reported like any other error.
		return fmt.Errorf("workers finished with error: %w", err)
	}

	// Flushes the CSV writer (header included, so unparseable input
	// still produces a valid header-only table) and closes every sink.
	// A failure here means the output must not be trusted as complete;
	// whether to remove a partial file is the operator's call.
	if err := closeAll(closers); err != nil {
		return fmt.Errorf("failed to finalize outputs: %w", err)
	}

	logger.Infoln("all workers finished without error")

	return nil
}

// closeAll runs closers newest-first, like deferred calls.
func closeAll(closers []func() error) error {
	var errs []error

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
