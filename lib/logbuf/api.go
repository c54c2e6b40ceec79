package logbuf

import (
	"io"
	"os"
	"sync"
)

// LogBuffer holds log lines in memory. It is used while no writable
// file-system is available; the lines may later be appended to a file.
type LogBuffer struct {
	mutex   sync.Mutex
	lines   []string
	partial []byte
	options Options
}

type Options struct {
	AlsoLogToStderr bool
	Stderr          io.Writer // Default: os.Stderr.
}

// GetStandardOptions returns the options used when running as the initial
// process: lines are mirrored to stderr, which is the console.
func GetStandardOptions() Options {
	return Options{AlsoLogToStderr: true, Stderr: os.Stderr}
}

// New will create a LogBuffer with default options.
func New() *LogBuffer {
	return newLogBuffer(Options{})
}

// NewWithOptions will create a LogBuffer with the specified options.
func NewWithOptions(options Options) *LogBuffer {
	return newLogBuffer(options)
}

// Dump will write the complete lines from index from onwards to writer. It
// returns the number of complete lines in the buffer, which may be passed as
// from in a later call to write only the lines logged since.
func (lb *LogBuffer) Dump(writer io.Writer, from int) (int, error) {
	return lb.dump(writer, from)
}

// Write implements io.Writer. Data are split into lines; a trailing partial
// line is held until completed.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	return lb.write(p)
}
