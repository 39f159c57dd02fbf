// Package logger writes user-facing console output with quiet and debug switches.
package logger

import (
	"fmt"
	"io"
)

type Logger struct {
	out   io.Writer
	err   io.Writer
	quiet bool
	debug bool
}

func New(out io.Writer, err io.Writer, quiet bool, debug bool) *Logger {
	return &Logger{
		out:   out,
		err:   err,
		quiet: quiet,
		debug: debug,
	}
}

// Log prints to stdout. Quiet mode hides it unless forceShow or debug is set.
func (logger *Logger) Log(message string, forceShow bool) {
	if logger.quiet && !forceShow && !logger.debug {
		return
	}
	logger.write(logger.out, message)
}

func (logger *Logger) Logf(forceShow bool, format string, args ...any) {
	logger.Log(fmt.Sprintf(format, args...), forceShow)
}

func (logger *Logger) Debug(message string) {
	if !logger.debug {
		return
	}
	logger.write(logger.out, message)
}

func (logger *Logger) Debugf(format string, args ...any) {
	if !logger.debug {
		return
	}
	logger.write(logger.out, fmt.Sprintf(format, args...))
}

// Error always prints, quiet or not.
func (logger *Logger) Error(message string) {
	logger.write(logger.err, message)
}

func (logger *Logger) Errorf(format string, args ...any) {
	if _, err := fmt.Fprintf(logger.err, format, args...); err != nil {
		return
	}
}

func (logger *Logger) IsDebug() bool {
	return logger.debug
}

func (logger *Logger) write(target io.Writer, message string) {
	if _, err := fmt.Fprintln(target, message); err != nil {
		return
	}
}
