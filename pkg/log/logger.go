// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package log

import (
	"fmt"
	"log"
	"os"
)

// Logger describes a logger used by the memory reservation code and the
// boot placement flow.
type Logger interface {
	// Infof logs an informational message.
	Infof(format string, args ...interface{})

	// Warnf logs an warning message.
	Warnf(format string, args ...interface{})

	// Errorf logs an error message.
	Errorf(format string, args ...interface{})

	// Fatalf logs a fatal message and immediately exits the application
	// with os.Exit.
	Fatalf(format string, args ...interface{})
}

// DefaultLogger is the logger used by default everywhere within this module.
var DefaultLogger Logger

func init() {
	DefaultLogger = logWrapper{Logger: log.New(os.Stderr, "", log.LstdFlags)}
}

type logWrapper struct {
	Logger *log.Logger
}

// Infof implements Logger.
func (logger logWrapper) Infof(format string, args ...interface{}) {
	logger.Logger.Printf("[lmb][INFO] "+format, args...)
}

// Warnf implements Logger.
func (logger logWrapper) Warnf(format string, args ...interface{}) {
	logger.Logger.Printf("[lmb][WARN] "+format, args...)
}

// Errorf implements Logger.
func (logger logWrapper) Errorf(format string, args ...interface{}) {
	logger.Logger.Printf("[lmb][ERROR] "+format, args...)
}

// Fatalf implements Logger.
func (logger logWrapper) Fatalf(format string, args ...interface{}) {
	logger.Logger.Fatalf("[lmb][FATAL] "+format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...interface{}) {
	DefaultLogger.Infof(format, args...)
}

// Warnf logs an warning message.
func Warnf(format string, args ...interface{}) {
	DefaultLogger.Warnf(format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	DefaultLogger.Errorf(format, args...)
}

// Fatalf logs a fatal message and immediately exits the application
// with os.Exit (which is expected to be called by the DefaultLogger.Fatalf).
func Fatalf(format string, args ...interface{}) {
	DefaultLogger.Fatalf(format, args...)
}

// Recorder is a Logger which keeps the formatted messages in memory. It
// never exits the application.
type Recorder struct {
	Messages []string
}

func (r *Recorder) record(level, format string, args ...interface{}) {
	r.Messages = append(r.Messages, "["+level+"] "+fmt.Sprintf(format, args...))
}

// Infof implements Logger.
func (r *Recorder) Infof(format string, args ...interface{}) { r.record("INFO", format, args...) }

// Warnf implements Logger.
func (r *Recorder) Warnf(format string, args ...interface{}) { r.record("WARN", format, args...) }

// Errorf implements Logger.
func (r *Recorder) Errorf(format string, args ...interface{}) { r.record("ERROR", format, args...) }

// Fatalf implements Logger.
func (r *Recorder) Fatalf(format string, args ...interface{}) { r.record("FATAL", format, args...) }
