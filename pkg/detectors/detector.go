// Package detectors provides unsupervised anomaly detection algorithms.
package detectors

import "context"

// FeatureVector maps feature names to numeric values. The set of names is
// fixed at training time; every vector passed to a trained detector must
// carry exactly that set. Order is irrelevant, names must match exactly.
type FeatureVector map[string]float64

// Clone returns an independent copy of the vector.
func (v FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(v))
	for name, val := range v {
		out[name] = val
	}
	return out
}

// AnomalyResult is the outcome of scoring a single feature vector.
type AnomalyResult struct {
	// Score is the calibrated anomaly score in [0, 1]; higher means more
	// anomalous, values near 0.5 are typical points.
	Score float64
	// IsAnomaly indicates the score exceeded the detector's threshold.
	IsAnomaly bool
	// Confidence measures how far the score sits from the threshold,
	// scaled to [0, 1].
	Confidence float64
}

// Detection is one element of a batch or stream detection. Exactly one of
// Result and Err is meaningful.
type Detection struct {
	Result AnomalyResult
	Err    error
}

// Detector is the common interface for all anomaly detection algorithms.
type Detector interface {
	// Train fits the detector on historical data. A successful call fully
	// replaces any previously trained state.
	Train(points []FeatureVector) error

	// Detect scores a single feature vector against the trained model.
	Detect(point FeatureVector) (AnomalyResult, error)

	// DetectBatch scores many vectors independently, returning one
	// Detection per input in the same order. A bad input fails its own
	// slot without aborting the rest of the batch.
	DetectBatch(points []FeatureVector) []Detection

	// Save serializes the trained model to bytes.
	Save() ([]byte, error)

	// Load deserializes a trained model from bytes.
	Load(data []byte) error
}

// StreamDetector extends Detector with streaming capabilities.
type StreamDetector interface {
	Detector

	// DetectStream scores vectors from a channel until the input closes
	// or the context is cancelled. The output channel is not closed.
	DetectStream(ctx context.Context, in <-chan FeatureVector, out chan<- Detection) error
}
