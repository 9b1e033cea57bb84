// Package xlog is the structured logger used by this module's packages
// that log: vr and vrsnap each obtain a *Logger via NewLogger and log
// through it rather than the standard log package directly. vrpb and
// idutil do not log.
package xlog

import (
	"log"
	"os"
)

type stdLogWriter struct {
	l *Logger
}

func (s stdLogWriter) Write(b []byte) (int, error) {
	s.l.log(INFO, string(b))
	return len(b), nil
}

func init() {
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(stdLogWriter{l: NewLogger("", INFO)})

	SetFormatter(NewDefaultFormatter(os.Stderr))
}
