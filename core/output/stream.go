package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	arrayOpen  = "{\"fulltexts\": [\n"
	arrayClose = "{}\n]}\n"
)

// ArrayWriter streams documents into a {"fulltexts": [...]} object.
// The array always ends with an empty {} placeholder, which downstream
// readers expect. Close must be called on every exit path; it is
// idempotent.
type ArrayWriter struct {
	w      *bufio.Writer
	closer io.Closer
	count  int
	closed bool
}

// NewArrayWriter writes the array header to w. If w is an io.Closer it is
// closed by Close.
func NewArrayWriter(w io.Writer) (*ArrayWriter, error) {
	a := &ArrayWriter{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		a.closer = c
	}
	if _, err := a.w.WriteString(arrayOpen); err != nil {
		return nil, fmt.Errorf("writing array header: %w", err)
	}
	return a, nil
}

// Append adds one JSON document. Invalid JSON is rejected without
// touching the output.
func (a *ArrayWriter) Append(doc []byte) error {
	if a.closed {
		return fmt.Errorf("append after close")
	}
	var buf bytes.Buffer
	if a.count > 0 {
		buf.WriteString(",\n")
	}
	if err := json.Compact(&buf, doc); err != nil {
		return fmt.Errorf("compacting document: %w", err)
	}
	if _, err := a.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("appending document: %w", err)
	}
	a.count++
	return nil
}

// Count returns the number of documents appended.
func (a *ArrayWriter) Count() int {
	return a.count
}

// Close writes the placeholder and closing brackets, flushes, and closes
// the underlying writer.
func (a *ArrayWriter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	footer := arrayClose
	if a.count > 0 {
		footer = ",\n" + arrayClose
	}
	_, werr := a.w.WriteString(footer)
	ferr := a.w.Flush()
	var cerr error
	if a.closer != nil {
		cerr = a.closer.Close()
	}
	switch {
	case werr != nil:
		return fmt.Errorf("writing array footer: %w", werr)
	case ferr != nil:
		return fmt.Errorf("flushing output: %w", ferr)
	case cerr != nil:
		return fmt.Errorf("closing output: %w", cerr)
	}
	return nil
}

// StreamSink writes every fetched document into one fulltexts file.
type StreamSink struct {
	path string
	aw   *ArrayWriter
}

// NewStreamSink creates (or truncates) path and opens the array.
func NewStreamSink(path string) (*StreamSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	aw, err := NewArrayWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &StreamSink{path: path, aw: aw}, nil
}

// Write appends payload. The identifier is already embedded in the
// document.
func (s *StreamSink) Write(_ string, payload []byte) error {
	return s.aw.Append(payload)
}

// Close finalizes the file.
func (s *StreamSink) Close() error {
	return s.aw.Close()
}

// Path returns the output file path.
func (s *StreamSink) Path() string {
	return s.path
}
