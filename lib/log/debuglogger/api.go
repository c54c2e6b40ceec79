package debuglogger

import (
	"log"
)

type Logger struct {
	level int16
	*log.Logger
}

// New will create a Logger from a standard library logger. The debug level is
// initially -1, which suppresses all debug messages.
func New(logger *log.Logger) *Logger {
	return &Logger{level: -1, Logger: logger}
}

// Debug will log if the level is less than or equal to the debug level.
func (l *Logger) Debug(level uint8, v ...interface{}) {
	l.debug(level, v...)
}

// Debugf is similar to Debug, with formatting support.
func (l *Logger) Debugf(level uint8, format string, v ...interface{}) {
	l.debugf(level, format, v...)
}

// Debugln is similar to Debug.
func (l *Logger) Debugln(level uint8, v ...interface{}) {
	l.debugln(level, v...)
}

// GetLevel returns the current debug level.
func (l *Logger) GetLevel() int16 {
	return l.level
}

// SetLevel sets the debug level. Supported range: -1 to 255.
func (l *Logger) SetLevel(maxLevel int16) {
	l.level = maxLevel
}
