// Package jsonl writes detection results as JSON lines.
package jsonl

import (
	"encoding/json"
	"io"

	gmio "github.com/voyara-ai/gofraudml/pkg/io"
)

// Writer encodes one Result per line to an underlying writer.
type Writer struct {
	w   io.Writer
	enc *json.Encoder
}

// NewWriter creates a JSON-lines writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, enc: json.NewEncoder(w)}
}

// Write outputs a single result.
func (w *Writer) Write(result gmio.Result) error {
	return w.enc.Encode(result)
}

// WriteAll outputs multiple results.
func (w *Writer) WriteAll(results []gmio.Result) error {
	for _, result := range results {
		if err := w.enc.Encode(result); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying writer when it supports closing.
func (w *Writer) Close() error {
	if c, ok := w.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
