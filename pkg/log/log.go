// Package log builds the process logger for hackteam.
package log

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rgeron/next-hackaton/pkg/config"
)

// NewLogger returns a logger configured from cfg. The returned file is
// non-nil when logs are written to cfg.Log.Path and must be closed by the
// caller.
func NewLogger(cfg *config.Config) (*log.Logger, *os.File, error) {
	if cfg == nil {
		return nil, nil, config.ErrNilConfig
	}

	opts := log.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.Log.TimeFormat,
		Level:           log.InfoLevel,
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = config.DefaultConfig().Log.TimeFormat
	}

	switch {
	case config.IsVerbose():
		opts.ReportCaller = true
		fallthrough
	case config.IsDebug():
		opts.Level = log.DebugLevel
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	default:
		opts.Formatter = log.TextFormatter
	}

	var f *os.File
	out := os.Stderr
	if cfg.Log.Path != "" {
		var err error
		f, err = os.OpenFile(cfg.Log.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
		if err != nil {
			return nil, nil, err //nolint:wrapcheck
		}
		out = f
	}

	return log.NewWithOptions(out, opts), f, nil
}
