// Package logging routes the standard logger to a rotated file when
// one is configured, keeping stderr output for local runs.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures log output. An empty path keeps plain stderr.
func Setup(path string) {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	if path == "" {
		return
	}
	rotated := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotated))
}
