package testlogger

import (
	"sync"
)

// TestLogger defines an interface for a type that can be used for logging by
// tests. The testing.T type from the standard library satisfies this interface.
type TestLogger interface {
	Fatal(v ...interface{})
	Log(v ...interface{})
}

// Logger adapts a TestLogger to the log.DebugLogger interface. Every message
// is also retained so that tests may inspect what was logged.
type Logger struct {
	logger   TestLogger
	mutex    sync.Mutex
	messages []string
}

// New will create a Logger from a TestLogger. Debug messages are logged
// regardless of level. Trailing newlines are removed.
func New(logger TestLogger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Debug(level uint8, v ...interface{}) {
	l.log(sprint(v...))
}

func (l *Logger) Debugf(level uint8, format string, v ...interface{}) {
	l.log(sprintf(format, v...))
}

func (l *Logger) Debugln(level uint8, v ...interface{}) {
	l.log(sprint(v...))
}

func (l *Logger) Fatal(v ...interface{}) {
	l.fatal(sprint(v...))
}

func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.fatal(sprintf(format, v...))
}

func (l *Logger) Fatalln(v ...interface{}) {
	l.fatal(sprint(v...))
}

// Messages returns a copy of all messages logged so far.
func (l *Logger) Messages() []string {
	return l.getMessages()
}

func (l *Logger) Panic(v ...interface{}) {
	s := sprint(v...)
	l.fatal(s)
	panic(s)
}

func (l *Logger) Panicf(format string, v ...interface{}) {
	s := sprintf(format, v...)
	l.fatal(s)
	panic(s)
}

func (l *Logger) Panicln(v ...interface{}) {
	s := sprint(v...)
	l.fatal(s)
	panic(s)
}

func (l *Logger) Print(v ...interface{}) {
	l.log(sprint(v...))
}

func (l *Logger) Printf(format string, v ...interface{}) {
	l.log(sprintf(format, v...))
}

func (l *Logger) Println(v ...interface{}) {
	l.log(sprint(v...))
}
