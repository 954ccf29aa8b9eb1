// Package cmd wires the parsing pipeline, ingesters, and sinks into
// the authtab command.
package cmd

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/logtally/authtab/internal/config"
	"github.com/logtally/authtab/internal/health"
)

const usage = `authtab

DESCRIPTION
  authtab parses syslog-style SSH authentication logs into a structured
  security event table. Records are written as CSV and, optionally, to
  a SQLite database and an audit event log. Besides one-shot parsing it
  can follow a live log file or watch a spool directory.

OPTIONS
`

const (
	// DefaultHTTPServerReadTimeout is the default HTTP server read timeout.
	DefaultHTTPServerReadTimeout = 1 * time.Second
	// DefaultHTTPServerReadHeaderTimeout is the default HTTP server read header timeout.
	DefaultHTTPServerReadHeaderTimeout = 5 * time.Second
)

type appConfig struct {
	configPath                  string
	inputPath                   string
	csvPath                     string
	year                        int
	follow                      bool
	spoolDir                    string
	sqlitePath                  string
	auditLogPath                string
	enableMetrics               bool
	enableHealthz               bool
	httpServerReadTimeout       time.Duration
	httpServerReadHeaderTimeout time.Duration
	logLevel                    zapcore.Level
}

func parseFlags(osArgs []string) (*appConfig, error) {
	flagSet := flag.NewFlagSet(osArgs[0], flag.ContinueOnError)

	cfg := &appConfig{
		logLevel: zapcore.InfoLevel,
	}

	flagSet.StringVar(&cfg.configPath, "config", "",
		"Optional YAML config file; file values fill flags left at their defaults")
	flagSet.StringVar(&cfg.inputPath, "input", "", "Path to the auth log file to parse")
	flagSet.StringVar(&cfg.csvPath, "output", "",
		"Path to the CSV output file ('-' for stdout, default '<input>.csv')")
	flagSet.IntVar(&cfg.year, "year", 0,
		"Fallback year for syslog timestamps (default: current year; "+
			"a file spanning a Dec-Jan boundary must be split per year)")
	flagSet.BoolVar(&cfg.follow, "follow", false, "Follow the input file instead of parsing it once")
	flagSet.StringVar(&cfg.spoolDir, "spool-dir", "",
		"Watch this directory and ingest *.log files dropped into it")
	flagSet.StringVar(&cfg.sqlitePath, "sqlite", "", "Also write records to this SQLite database")
	flagSet.StringVar(&cfg.auditLogPath, "audit-log-path", "",
		"Also write records as audit events to this file")
	flagSet.BoolVar(&cfg.enableMetrics, "metrics", false, "Enable Prometheus HTTP /metrics server")
	flagSet.BoolVar(&cfg.enableHealthz, "healthz", false, "Enable HTTP health endpoints server")
	flagSet.DurationVar(&cfg.httpServerReadTimeout, "http-server-read-timeout",
		DefaultHTTPServerReadTimeout, "HTTP server read timeout")
	flagSet.DurationVar(&cfg.httpServerReadHeaderTimeout, "http-server-read-header-timeout",
		DefaultHTTPServerReadHeaderTimeout, "HTTP server read header timeout")
	flagSet.Var(&cfg.logLevel, "log-level", "Set the log level according to zapcore.Level")

	flagSet.Usage = func() {
		os.Stderr.WriteString(usage)
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	if err := flagSet.Parse(osArgs[1:]); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFile overlays config file values onto flags left at their defaults.
func (c *appConfig) applyFile(f *config.File) {
	if c.inputPath == "" {
		c.inputPath = f.Input.Path
	}
	if c.year == 0 {
		c.year = f.Input.Year
	}
	if !c.follow {
		c.follow = f.Input.Follow
	}
	if c.spoolDir == "" {
		c.spoolDir = f.Input.SpoolDir
	}
	if c.csvPath == "" {
		c.csvPath = f.Output.CSVPath
	}
	if c.sqlitePath == "" {
		c.sqlitePath = f.Output.SQLitePath
	}
	if c.auditLogPath == "" {
		c.auditLogPath = f.Output.AuditLogPath
	}
	if !c.enableMetrics {
		c.enableMetrics = f.Serve.Metrics
	}
	if !c.enableHealthz {
		c.enableHealthz = f.Serve.Healthz
	}
}

func (c *appConfig) validate() error {
	if c.inputPath == "" && c.spoolDir == "" {
		return errors.New("either -input or -spool-dir is required")
	}

	if c.inputPath != "" && c.spoolDir != "" {
		return errors.New("-input and -spool-dir are mutually exclusive")
	}

	if c.follow && c.inputPath == "" {
		return errors.New("-follow requires -input")
	}

	return nil
}

// handleMetricsAndHealth starts a HTTP server on port 2112 to serve
// metrics and health endpoints.
//
// If metrics are disabled, the /metrics endpoint will return 404.
// If health is disabled, the /readyz endpoint will return 404.
// If both are disabled, the HTTP server will not be started.
func handleMetricsAndHealth(
	ctx context.Context,
	appCfg *appConfig,
	eg *errgroup.Group,
	h *health.Health,
	logger *zap.SugaredLogger,
) {
	server := &http.Server{
		Addr:              ":2112",
		ReadTimeout:       appCfg.httpServerReadTimeout,
		ReadHeaderTimeout: appCfg.httpServerReadHeaderTimeout,
	}

	if appCfg.enableMetrics {
		http.Handle("/metrics", promhttp.Handler())
	}

	if appCfg.enableHealthz {
		http.Handle("/readyz", h.ReadyzHandler())
	}

	if appCfg.enableMetrics || appCfg.enableHealthz {
		eg.Go(func() error {
			logger.Infof("starting HTTP server on address '%s'...", server.Addr)
			return server.ListenAndServe()
		})

		eg.Go(func() error {
			<-ctx.Done()
			logger.Infoln("stopping HTTP server...")
			return server.Shutdown(ctx)
		})
	}
}
