// Package logger provides leveled logging (debug, info, warn, error) on top
// of the standard log package, with level filtering configured once at
// startup. When Init has not been called, output is suppressed, which keeps
// library tests quiet.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	// DebugLevel logs are voluminous and usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default priority.
	InfoLevel
	// WarnLevel marks degraded-but-continuing conditions.
	WarnLevel
	// ErrorLevel marks failures that need attention.
	ErrorLevel
)

var defaultLogger *leveledLogger

type leveledLogger struct {
	level Level
	out   *log.Logger
}

// Init configures the default logger. Format "text" includes the caller
// file:line; anything else keeps timestamps only.
func Init(level, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.EqualFold(format, "text") {
		flags |= log.Lshortfile
	}
	defaultLogger = &leveledLogger{
		level: parseLevel(level),
		out:   log.New(os.Stderr, "", flags),
	}
}

func parseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func emit(at Level, tag, format string, args ...interface{}) {
	if defaultLogger == nil || defaultLogger.level > at {
		return
	}
	_ = defaultLogger.out.Output(3, fmt.Sprintf(tag+" "+format, args...))
}

// Debug logs a message at DebugLevel.
func Debug(format string, args ...interface{}) { emit(DebugLevel, "[DEBUG]", format, args...) }

// Info logs a message at InfoLevel.
func Info(format string, args ...interface{}) { emit(InfoLevel, "[INFO]", format, args...) }

// Warn logs a message at WarnLevel.
func Warn(format string, args ...interface{}) { emit(WarnLevel, "[WARN]", format, args...) }

// Error logs a message at ErrorLevel.
func Error(format string, args ...interface{}) { emit(ErrorLevel, "[ERROR]", format, args...) }

// Fatal logs a message and exits.
func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.out.Output(2, msg)
	} else {
		log.Print(msg)
	}
	os.Exit(1)
}
