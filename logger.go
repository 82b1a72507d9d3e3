package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Logger is the console status collaborator. The engine reports every step,
// fallback and failure through it and never assumes how the lines are
// rendered.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	debug bool
}

var (
	infoTag    = color.New(color.FgCyan).Sprint("[INFO]")
	warnTag    = color.New(color.FgYellow).Sprint("[WARN]")
	errorTag   = color.New(color.FgRed).Sprint("[ERROR]")
	successTag = color.New(color.FgGreen, color.Bold).Sprint("[OK]")
	urgentTag  = color.New(color.FgMagenta, color.Bold).Sprint("[URGENT]")
	queuedTag  = color.New(color.FgBlue).Sprint("[QUEUE]")
	debugTag   = color.New(color.Faint).Sprint("[DEBUG]")
)

func NewLogger(debug bool) *Logger {
	return &Logger{out: os.Stdout, debug: debug}
}

func (l *Logger) emit(tag, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.out, "%s %s %s\n", ts, tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.emit(infoTag, format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.emit(warnTag, format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.emit(errorTag, format, args...)
}

func (l *Logger) Successf(format string, args ...interface{}) {
	l.emit(successTag, format, args...)
}

// Urgentf marks the latency-sensitive moments (sale detected, buy control
// found) so they stand out in a fast-scrolling console.
func (l *Logger) Urgentf(format string, args ...interface{}) {
	l.emit(urgentTag, format, args...)
}

// Queuedf reports holding-state status while the queue gate is closed.
func (l *Logger) Queuedf(format string, args ...interface{}) {
	l.emit(queuedTag, format, args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit(debugTag, format, args...)
}
