// Copyright (C) 2025 Josh Simonot
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package logger provides prefixed, leveled logging to stdout plus an
// optional log file, with a runtime debug toggle.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

type Logger struct {
	prefix string
}

var (
	mu      sync.RWMutex
	base    = log.New(os.Stdout, "", log.LstdFlags)
	logFile *os.File
	debug   bool
)

// Init routes all loggers to stdout plus the given log file. Loggers
// created before Init pick up the new destination. Safe to skip in
// tests; output then goes to stdout only.
func Init(logPath string) error {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	base = log.New(io.MultiWriter(os.Stdout, f), "", log.LstdFlags)

	if os.Getenv("DEBUG") != "" {
		debug = true
	}
	return nil
}

// Close releases the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// EnableDebug toggles debug logging at runtime.
func EnableDebug(on bool) {
	mu.Lock()
	debug = on
	mu.Unlock()
}

// IsDebug reports the current debug state.
func IsDebug() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debug
}

// New returns a logger whose lines carry the given prefix.
func New(prefix string) *Logger {
	return &Logger{prefix: prefix}
}

func output(prefix, level, msg string) {
	mu.RLock()
	out := base
	mu.RUnlock()
	out.Printf("[%s] %s: %s", prefix, level, msg)
}

func (l *Logger) Info(format string, v ...any) {
	output(l.prefix, "INFO", fmt.Sprintf(format, v...))
}

func (l *Logger) Debug(format string, v ...any) {
	if !IsDebug() {
		return
	}
	output(l.prefix, "DEBUG", fmt.Sprintf(format, v...))
}

func (l *Logger) Error(format string, v ...any) {
	output(l.prefix, "ERROR", callsite()+fmt.Sprintf(format, v...))
}

// Fatal logs the message and panics, letting the service runner's
// recover handler shut the application down.
func (l *Logger) Fatal(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	output(l.prefix, "FATAL", callsite()+msg)
	panic(msg)
}

func callsite() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return ""
	}
	return fmt.Sprintf("(%s:%d) ", filepath.Base(file), line)
}
