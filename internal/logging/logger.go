package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logrus logger: human-readable text in development, JSON otherwise.
// An unparsable level falls back to info.
func New(env, level string) *logrus.Logger {
	return newWithOutput(os.Stdout, env, level)
}

func newWithOutput(out io.Writer, env, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if env == "development" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
