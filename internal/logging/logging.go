// Package logging builds the logrus logger used by the rkexpr command.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/zephyrtronium/rkexpr/internal/config"
)

// New creates a logger from c. The returned function releases any log file
// and is never nil.
func New(c *config.Logger) (*logrus.Logger, func(), error) {
	l := logrus.New()
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, err
	}
	l.SetLevel(level)

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{})
	}

	cleanup := func() {}
	var out io.Writer
	switch c.Output {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	case "file":
		if c.OutputFile == "" {
			return nil, nil, fmt.Errorf("log output is file but no output file is configured")
		}
		if err := os.MkdirAll(filepath.Dir(c.OutputFile), 0o777); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(c.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, nil, err
		}
		out = f
		cleanup = func() { _ = f.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown log output %q", c.Output)
	}
	l.SetOutput(out)
	return l, cleanup, nil
}
