package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// configureLogging sends the standard logrus logger to the log file. The
// terminal is owned by the UI, so nothing is logged to stdout. The returned
// closer closes the file.
func configureLogging(config Config) (io.Closer, error) {
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", config.LogLevel)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})

	if config.LogFile == "" {
		log.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(config.LogFile), 0o700); err != nil {
		return nil, errors.Wrap(err, "create log dir")
	}
	f, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	log.SetOutput(f)
	return f, nil
}
