package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

// newLogger builds the CLI logger. Terminals get the styled text format,
// pipes and files get logfmt with timestamps.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	opts := log.Options{
		Level:  log.InfoLevel,
		Prefix: "reflector",
	}
	if debug {
		opts.Level = log.DebugLevel
	}
	if !isTerminal(w) {
		opts.Formatter = log.LogfmtFormatter
		opts.ReportTimestamp = true
	}
	return slog.New(log.NewWithOptions(w, opts))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
