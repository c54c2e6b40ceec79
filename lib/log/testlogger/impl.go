package testlogger

import (
	"fmt"
	"strings"
)

func sprint(v ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprint(v...), "\n")
}

func sprintf(format string, v ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprintf(format, v...), "\n")
}

func (l *Logger) fatal(message string) {
	l.record(message)
	l.logger.Fatal(message)
}

func (l *Logger) getMessages() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]string(nil), l.messages...)
}

func (l *Logger) log(message string) {
	l.record(message)
	l.logger.Log(message)
}

func (l *Logger) record(message string) {
	l.mutex.Lock()
	l.messages = append(l.messages, message)
	l.mutex.Unlock()
}
