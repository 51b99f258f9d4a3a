package cli

import (
	"io"

	"github.com/hashicorp/go-hclog"
)

// logLevel applies --verbose and --quiet on top of the configured level.
func logLevel(base hclog.Level, verbose, quiet bool) hclog.Level {
	switch {
	case quiet:
		return hclog.Error
	case verbose && base > hclog.Debug:
		return hclog.Debug
	default:
		return base
	}
}

func newLogger(w io.Writer, level hclog.Level) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "swatch",
		Output: w,
		Level:  level,
	})
}
