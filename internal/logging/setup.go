package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation settings for --log-file.
const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
	logFileMaxAgeDays = 28
)

// Setup configures the default logger from a level name and an optional
// log file. When file is set, lines go to both stderr and a rotating file.
// The returned closer releases the file and is never nil.
func Setup(level, file string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nopCloser{}, err
	}
	SetLevel(lvl)

	if file == "" {
		SetOutput(log.New(os.Stderr, "", log.LstdFlags))
		return nopCloser{}, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
		MaxAge:     logFileMaxAgeDays,
	}
	SetOutput(log.New(io.MultiWriter(os.Stderr, rotator), "", log.LstdFlags))
	return rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
