// Package csv provides CSV file reading for tabular feature data.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/voyara-ai/gofraudml/pkg/detectors"
)

// Reader reads feature vectors from CSV files. With a header row the
// column names become the feature schema; without one, columns are named
// f0, f1, ... in order.
type Reader struct {
	file      *os.File
	reader    *csv.Reader
	hasHeader bool
	headers   []string
}

// Option configures a CSV reader.
type Option func(*Reader)

// WithHeader indicates the CSV has a header row.
func WithHeader(has bool) Option {
	return func(r *Reader) {
		r.hasHeader = has
	}
}

// NewReader creates a new CSV reader.
func NewReader(filename string, opts ...Option) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:      file,
		reader:    csv.NewReader(file),
		hasHeader: true,
	}

	for _, opt := range opts {
		opt(r)
	}

	// Read header if present
	if r.hasHeader {
		headers, err := r.reader.Read()
		if err != nil {
			file.Close()
			return nil, err
		}
		r.headers = headers
	}

	return r, nil
}

// Headers returns the feature names. Without a header row, names are only
// known after the first record has been read.
func (r *Reader) Headers() []string {
	return r.headers
}

// Read returns all rows as feature vectors.
func (r *Reader) Read() ([]detectors.FeatureVector, error) {
	var data []detectors.FeatureVector

	for {
		record, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		point, err := r.vectorize(record)
		if err != nil {
			continue // Skip malformed rows
		}
		data = append(data, point)
	}

	return data, nil
}

// Stream returns a channel of vectors for real-time processing.
func (r *Reader) Stream(ctx context.Context) (<-chan detectors.FeatureVector, error) {
	out := make(chan detectors.FeatureVector, 100)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				record, err := r.reader.Read()
				if err == io.EOF {
					return
				}
				if err != nil {
					continue
				}

				point, err := r.vectorize(record)
				if err != nil {
					continue
				}

				select {
				case out <- point:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close releases resources.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// vectorize converts a CSV record into a named feature vector.
func (r *Reader) vectorize(record []string) (detectors.FeatureVector, error) {
	if len(record) == 0 {
		return nil, fmt.Errorf("empty row")
	}

	if r.headers == nil {
		r.headers = make([]string, len(record))
		for i := range record {
			r.headers[i] = fmt.Sprintf("f%d", i)
		}
	}
	if len(record) != len(r.headers) {
		return nil, fmt.Errorf("row has %d fields, want %d", len(record), len(r.headers))
	}

	point := make(detectors.FeatureVector, len(record))
	for i, val := range record {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, err
		}
		point[r.headers[i]] = f
	}
	return point, nil
}
