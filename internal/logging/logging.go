// Package logging provides the structured logger used for the engine's
// lifecycle events: page deletion in the buffer pool (debug), failures
// to deallocate merged-away pages after a delete, and failures to
// remove an in-memory tree's temporary file on Close. Tree open/close,
// root swaps, evictions and buffer starvation are not logged. It is
// distinct from the per-access
// tracing a CLI debug harness would do, which is out of scope for this
// library: callers that want that kind of tracing build it on top of
// the programmatic surface.
package logging

import (
	"os"

	logrus "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// L is the package-wide logger, preconfigured the way the go-dbms
// reference configures its util/logger package.
var L = &logrus.Logger{
	Out:   os.Stderr,
	Level: logrus.WarnLevel,
	Formatter: &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	},
}

// SetLevel adjusts the logger's verbosity; callers embedding the
// library in a CLI or service typically raise this to DebugLevel.
func SetLevel(level logrus.Level) {
	L.Level = level
}
