// Package corelog provides the structured logging surface shared by every
// component of the connection-processing engine, wrapping a single
// logrus.Logger so call sites stay uniform.
package corelog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the shared structured logger type; every collaborator takes one
// explicitly rather than reaching for a package-level global.
type Logger = logrus.Logger

// Fields is an alias for logrus.Fields so callers don't need to import
// logrus directly just to build a field set.
type Fields = logrus.Fields

// New builds a logger writing JSON lines to stderr at the given level name
// ("debug", "info", "warn", "error"); an unrecognized level falls back to
// info.
func New(levelName string) *Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}

// ForConnection returns a logger entry pre-populated with a connection id,
// the field every connection-scoped log line carries.
func ForConnection(log *Logger, connectionID string) *logrus.Entry {
	return log.WithField("connection_id", connectionID)
}

// ForWorker returns a logger entry pre-populated with a worker index, the
// field every job-scoped log line carries.
func ForWorker(log *Logger, workerIndex int) *logrus.Entry {
	return log.WithField("worker", workerIndex)
}
