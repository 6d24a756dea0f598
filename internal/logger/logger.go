package logger

import (
	"sync"

	"fermenstation/internal/models"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// DefaultRingCapacity is the number of entries kept for the log API.
const DefaultRingCapacity = 60

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Get returns a singleton logger configured with the provided level.
// The first call initializes the logger; subsequent calls ignore the level
// and return the already initialized instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = New(level, NewRing(DefaultRingCapacity))
	})
	return globalLogger
}

// Entries returns the buffered log records, oldest first.
func (l *Logger) Entries() []models.LogEntry {
	if l == nil || l.ring == nil {
		return nil
	}
	return l.ring.Entries()
}
