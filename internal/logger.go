package internal

import (
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogger initializes the logger with optional file output.
// Diagnostics go to stderr unless logfile is set.
func InitLogger(logfile, level string) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableQuote:  true,
		PadLevelText:  true,
	})
	logrus.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		logrus.Warnf("Unknown log level %q, using info", level)
	}
	logrus.SetLevel(lvl)

	if logfile != "" {
		file, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			logrus.SetOutput(file)
		} else {
			logrus.Warn("Failed to open log file, logging to stderr")
		}
	}
}

// LogDiagnostic is the default diagnostic sink.
func LogDiagnostic(d Diagnostic) {
	entry := logrus.WithFields(logrus.Fields{"path": d.Path, "err": d.Err})
	if !d.Failure() {
		entry.Debug("Skip: ", d.Kind)
		return
	}
	entry.Warn(d.Kind)
}
