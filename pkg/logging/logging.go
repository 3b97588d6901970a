// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/sirupsen/logrus"
)

// New returns a logrus logger writing to out (stderr when nil). format is
// "json" or "text"; text output carries full timestamps.
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, apperr.Config("configure logging", "invalid log level %q", level)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		return nil, apperr.Config("configure logging", "invalid log format %q", format)
	}
	return logger, nil
}
