// Package logging wraps logrus in the component-scoped shape used across
// the retrieved reconciliation-service corpus
// (pramudityad/golang-reconciliation-service's internal/logger,
// dydanz/recon-engine's internal/logger): a single global logger,
// narrowed per package with WithComponent, and structured fields
// attached with WithFields before every Debug/Info/Warn/Error call.
package logging

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields is a structured-logging field set.
type Fields map[string]interface{}

// Logger is the narrow logging surface the rest of this repo depends on.
type Logger struct {
	entry *logrus.Entry
}

var (
	global     *Logger
	globalOnce sync.Once
)

// GetGlobalLogger returns the process-wide logger, initializing it with
// JSON output and info level on first use.
func GetGlobalLogger() *Logger {
	globalOnce.Do(func() {
		base := logrus.New()
		base.SetFormatter(&logrus.JSONFormatter{})
		base.SetLevel(logrus.InfoLevel)
		global = &Logger{entry: logrus.NewEntry(base)}
	})
	return global
}

// SetLevel adjusts the global logger's minimum level (e.g. "debug" for
// verbose CLI runs).
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	GetGlobalLogger().entry.Logger.SetLevel(lvl)
	return nil
}

// WithComponent scopes subsequent log lines to a named component (e.g.
// "matching_engine", "worker", "upload_handler").
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{entry: l.entry.WithField("component", name)}
}

// WithFields attaches structured fields to the next log call.
func (l *Logger) WithFields(f Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(f))}
}

// WithError attaches an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

func (l *Logger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *Logger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *Logger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *Logger) Error(args ...interface{}) { l.entry.Error(args...) }
