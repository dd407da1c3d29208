// Package logrus adapts a logrus logger to the core.Logger interface, for
// deployments already standardized on logrus.
package logrus

import (
	"github.com/raykavin/optifolio/core"

	"github.com/sirupsen/logrus"
)

// Adapter exposes a logrus logger through the core.Logger interface.
type Adapter struct {
	entry *logrus.Entry
}

func NewAdapter(logger *logrus.Logger) *Adapter {
	return &Adapter{entry: logrus.NewEntry(logger)}
}

// GetLevel implements core.Logger.
func (l *Adapter) GetLevel() core.Level {
	return toLevel(l.entry.Logger.GetLevel())
}

// SetLevel implements core.Logger.
func (l *Adapter) SetLevel(level core.Level) {
	l.entry.Logger.SetLevel(toLogrusLevel(level))
}

// Print implements core.Logger.
func (l *Adapter) Print(args ...any) {
	l.entry.Print(args...)
}

// Trace implements core.Logger.
func (l *Adapter) Trace(args ...any) {
	l.entry.Trace(args...)
}

// Debug implements core.Logger.
func (l *Adapter) Debug(args ...any) {
	l.entry.Debug(args...)
}

// Info implements core.Logger.
func (l *Adapter) Info(args ...any) {
	l.entry.Info(args...)
}

// Warn implements core.Logger.
func (l *Adapter) Warn(args ...any) {
	l.entry.Warn(args...)
}

// Error implements core.Logger.
func (l *Adapter) Error(args ...any) {
	l.entry.Error(args...)
}

// Fatal implements core.Logger.
func (l *Adapter) Fatal(args ...any) {
	l.entry.Fatal(args...)
}

// Panic implements core.Logger.
func (l *Adapter) Panic(args ...any) {
	l.entry.Panic(args...)
}

// Printf implements core.Logger.
func (l *Adapter) Printf(format string, args ...any) {
	l.entry.Printf(format, args...)
}

// Tracef implements core.Logger.
func (l *Adapter) Tracef(format string, args ...any) {
	l.entry.Tracef(format, args...)
}

// Debugf implements core.Logger.
func (l *Adapter) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

// Infof implements core.Logger.
func (l *Adapter) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

// Warnf implements core.Logger.
func (l *Adapter) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

// Errorf implements core.Logger.
func (l *Adapter) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

// Fatalf implements core.Logger.
func (l *Adapter) Fatalf(format string, args ...any) {
	l.entry.Fatalf(format, args...)
}

// Panicf implements core.Logger.
func (l *Adapter) Panicf(format string, args ...any) {
	l.entry.Panicf(format, args...)
}

// WithError implements core.Logger.
func (l *Adapter) WithError(err error) core.Logger {
	return &Adapter{entry: l.entry.WithError(err)}
}

// WithField implements core.Logger.
func (l *Adapter) WithField(key string, value any) core.Logger {
	return &Adapter{entry: l.entry.WithField(key, value)}
}

// WithFields implements core.Logger.
func (l *Adapter) WithFields(fields map[string]any) core.Logger {
	return &Adapter{entry: l.entry.WithFields(fields)}
}

// toLevel converts logrus.Level to core.Level.
func toLevel(level logrus.Level) core.Level {
	switch level {
	case logrus.TraceLevel:
		return core.TraceLevel
	case logrus.DebugLevel:
		return core.DebugLevel
	case logrus.InfoLevel:
		return core.InfoLevel
	case logrus.WarnLevel:
		return core.WarnLevel
	case logrus.ErrorLevel:
		return core.ErrorLevel
	case logrus.FatalLevel:
		return core.FatalLevel
	case logrus.PanicLevel:
		return core.PanicLevel
	default:
		return core.NoLevel
	}
}

// toLogrusLevel converts core.Level to logrus.Level.
func toLogrusLevel(level core.Level) logrus.Level {
	switch level {
	case core.TraceLevel:
		return logrus.TraceLevel
	case core.DebugLevel:
		return logrus.DebugLevel
	case core.InfoLevel:
		return logrus.InfoLevel
	case core.WarnLevel:
		return logrus.WarnLevel
	case core.ErrorLevel:
		return logrus.ErrorLevel
	case core.FatalLevel:
		return logrus.FatalLevel
	case core.PanicLevel:
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}
