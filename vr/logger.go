package vr

import (
	"fmt"

	"github.com/misalcedo/vr/xlog"
)

// Logger is the logging sink used by this package. It is satisfied by
// *xlog.Logger; tests substitute discardLogger to keep output quiet.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Panicf(format string, args ...interface{})
}

// defaultLogger wraps a package-level *xlog.Logger obtained from the
// shared registry, the same pattern xlog itself recommends to callers.
type defaultLogger struct {
	l *xlog.Logger
}

func newDefaultLogger() Logger {
	return &defaultLogger{l: xlog.NewLogger("vr", xlog.INFO)}
}

func (d *defaultLogger) Debugf(format string, args ...interface{})   { d.l.Debugf(format, args...) }
func (d *defaultLogger) Infof(format string, args ...interface{})    { d.l.Infof(format, args...) }
func (d *defaultLogger) Warningf(format string, args ...interface{}) { d.l.Warningf(format, args...) }
func (d *defaultLogger) Errorf(format string, args ...interface{})   { d.l.Errorf(format, args...) }
func (d *defaultLogger) Panicf(format string, args ...interface{})   { d.l.Panicf(format, args...) }

// discardLogger silently drops everything; used where tests want a Logger
// but not its output.
type discardLogger struct{}

func (discardLogger) Debugf(string, ...interface{})   {}
func (discardLogger) Infof(string, ...interface{})    {}
func (discardLogger) Warningf(string, ...interface{}) {}
func (discardLogger) Errorf(string, ...interface{})   {}
func (discardLogger) Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}
