package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Marker prefixes every outbound event line
const Marker = ".OUT"

// Output defines the interface for event output mechanisms
type Output interface {
	// WriteEvent writes one event as a single line
	WriteEvent(category string, body any) error

	// Flush pushes buffered lines to the underlying stream
	Flush() error
}

// LineWriter writes "<Marker> <category> <json>" lines to a stream.
// Each line is fully serialized before any byte is written.
type LineWriter struct {
	w  *bufio.Writer
	mu sync.Mutex
}

// NewLineWriter creates a LineWriter on top of w
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriter(w)}
}

// WriteEvent serializes body and writes it as one flushed line
func (l *LineWriter) WriteEvent(category string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", category, err)
	}

	var line bytes.Buffer
	line.Grow(len(Marker) + len(category) + len(payload) + 3)
	line.WriteString(Marker)
	line.WriteByte(' ')
	line.WriteString(category)
	line.WriteByte(' ')
	line.Write(payload)
	line.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.w.Write(line.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s event: %w", category, err)
	}
	return l.w.Flush()
}

// Flush flushes any buffered output
func (l *LineWriter) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Flush()
}
