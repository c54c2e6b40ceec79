package logbuf

import (
	"bufio"
	"bytes"
	"io"
	"os"
)

func newLogBuffer(options Options) *LogBuffer {
	if options.AlsoLogToStderr && options.Stderr == nil {
		options.Stderr = os.Stderr
	}
	return &LogBuffer{options: options}
}

func (lb *LogBuffer) dump(writer io.Writer, from int) (int, error) {
	lines := lb.getLines()
	if from < 0 {
		from = 0
	}
	if from >= len(lines) {
		return len(lines), nil
	}
	w := bufio.NewWriter(writer)
	for _, line := range lines[from:] {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return from, err
		}
	}
	if err := w.Flush(); err != nil {
		return from, err
	}
	return len(lines), nil
}

func (lb *LogBuffer) getLines() []string {
	lb.mutex.Lock()
	defer lb.mutex.Unlock()
	return append([]string(nil), lb.lines...)
}

func (lb *LogBuffer) write(p []byte) (int, error) {
	lb.mutex.Lock()
	defer lb.mutex.Unlock()
	if lb.options.AlsoLogToStderr {
		lb.options.Stderr.Write(p)
	}
	data := append(lb.partial, p...)
	for {
		index := bytes.IndexByte(data, '\n')
		if index < 0 {
			break
		}
		lb.lines = append(lb.lines, string(data[:index]))
		data = data[index+1:]
	}
	lb.partial = append([]byte(nil), data...)
	return len(p), nil
}
