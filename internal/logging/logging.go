package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
	logFileMaxAgeDays = 28
)

type Options struct {
	Debug bool
	Trace bool
	// File, when set, receives a copy of every log line and is
	// rotated by size
	File  string
}

// Setup configures logger and returns a function that releases
// the log file, if any.
func Setup(logger *log.Logger, opts Options) (closer func() error) {
	switch {
	case opts.Trace || os.Getenv("UPDATECTL_TRACE") != "":
		logger.SetLevel(log.TraceLevel)
	case opts.Debug || os.Getenv("UPDATECTL_DEBUG") != "":
		logger.SetLevel(log.DebugLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if opts.File == "" {
		logger.SetOutput(os.Stderr)
		return func() error { return nil }
	}
	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
		MaxAge:     logFileMaxAgeDays,
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator.Close
}
