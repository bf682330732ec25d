package detectors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTrainingSet is returned by Train when called with zero points.
// No partial model is retained after this error.
var ErrEmptyTrainingSet = errors.New("detectors: empty training set")

// ErrNotTrained is returned by Detect, DetectBatch and DetectStream when
// the detector has not completed a successful Train call.
var ErrNotTrained = errors.New("detectors: model not trained")

// FeatureMismatchError reports a feature vector whose name set differs
// from the schema fixed at training time.
type FeatureMismatchError struct {
	// Missing lists trained feature names absent from the vector.
	Missing []string
	// Unexpected lists vector feature names unknown to the schema.
	Unexpected []string
}

func (e *FeatureMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing features: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected features: %s", strings.Join(e.Unexpected, ", ")))
	}
	return "detectors: feature mismatch: " + strings.Join(parts, "; ")
}
