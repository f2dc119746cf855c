// Package logging provides the shared go-kit/log setup both the operator
// and scheduler binaries use, so the two processes emit identically shaped
// logfmt lines.
package logging

import (
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// The valid values for the --log-level flag.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var validLevels = []string{LevelDebug, LevelInfo, LevelWarn, LevelError}

// New builds a logfmt logger writing to w, filtered to lvl, with a UTC
// timestamp and caller field on every line.
func New(w io.Writer, lvl string) (log.Logger, error) {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))

	switch lvl {
	case LevelDebug:
		logger = level.NewFilter(logger, level.AllowDebug())
	case LevelInfo:
		logger = level.NewFilter(logger, level.AllowInfo())
	case LevelWarn:
		logger = level.NewFilter(logger, level.AllowWarn())
	case LevelError:
		logger = level.NewFilter(logger, level.AllowError())
	default:
		return nil, errors.Errorf("log level %q unknown, must be one of (%s)", lvl, strings.Join(validLevels, ", "))
	}

	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)
	return logger, nil
}
