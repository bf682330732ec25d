// Package io provides input/output utilities for data ingestion.
package io

import (
	"context"

	"github.com/voyara-ai/gofraudml/pkg/detectors"
)

// Reader is the interface for reading feature vectors from a data source.
type Reader interface {
	// Read returns the complete dataset.
	Read() ([]detectors.FeatureVector, error)

	// Stream returns a channel of vectors for real-time processing.
	Stream(ctx context.Context) (<-chan detectors.FeatureVector, error)

	// Close releases resources.
	Close() error
}

// Writer is the interface for writing detection results.
type Writer interface {
	// Write outputs a single result.
	Write(result Result) error

	// WriteAll outputs multiple results.
	WriteAll(results []Result) error

	// Close releases resources.
	Close() error
}

// Result represents an anomaly detection result as written to a sink.
type Result struct {
	Timestamp  int64                   `json:"timestamp"`
	Score      float64                 `json:"score"`
	IsAnomaly  bool                    `json:"is_anomaly"`
	Confidence float64                 `json:"confidence"`
	Features   detectors.FeatureVector `json:"features,omitempty"`
	Metadata   map[string]any          `json:"metadata,omitempty"`
}
