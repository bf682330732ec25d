// Package iforest implements the Isolation Forest algorithm for anomaly
// detection. Anomalies are points that random recursive partitioning
// isolates in few splits; the forest averages per-tree path lengths and
// normalizes them into a bounded score.
package iforest

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/voyara-ai/gofraudml/pkg/detectors"
)

const (
	defaultNumTrees   = 100
	defaultSampleSize = 256
	defaultThreshold  = 0.6
)

// Forest is an ensemble of isolation trees. The zero value is not usable;
// create one with New. A Forest is safe for concurrent Detect calls once
// trained.
type Forest struct {
	mu sync.RWMutex

	// Configuration
	nTrees        int
	sampleSize    int
	maxDepth      int
	threshold     float64
	contamination float64
	workers       int
	rng           *rand.Rand

	// Trained model
	trees   []tree
	schema  []string
	norm    float64 // c(S) for the per-tree sample size actually used
	trained bool
}

// Option configures a Forest.
type Option func(*Forest)

// WithTrees sets the number of isolation trees.
func WithTrees(n int) Option {
	return func(f *Forest) {
		f.nTrees = n
	}
}

// WithSampleSize sets the per-tree subsample size. The effective size is
// clamped to the training set size.
func WithSampleSize(n int) Option {
	return func(f *Forest) {
		f.sampleSize = n
	}
}

// WithThreshold sets the anomaly score threshold in (0, 1).
func WithThreshold(t float64) Option {
	return func(f *Forest) {
		f.threshold = t
	}
}

// WithMaxDepth overrides the tree depth limit, which otherwise derives
// from the sample size as ceil(log2(sampleSize)).
func WithMaxDepth(d int) Option {
	return func(f *Forest) {
		f.maxDepth = d
	}
}

// WithContamination sets the expected proportion of anomalies in the
// training data. When positive, Train recalibrates the threshold to the
// matching quantile of the training scores.
func WithContamination(c float64) Option {
	return func(f *Forest) {
		f.contamination = c
	}
}

// WithSeed makes training reproducible. Without it the forest draws from
// a time-seeded source and repeated builds on identical data may differ.
func WithSeed(seed int64) Option {
	return func(f *Forest) {
		f.rng = rand.New(rand.NewSource(seed))
	}
}

// WithWorkers sets how many goroutines build trees during Train. Results
// are identical for any worker count given the same seed.
func WithWorkers(n int) Option {
	return func(f *Forest) {
		f.workers = n
	}
}

// New creates a Forest with the given options.
func New(opts ...Option) *Forest {
	f := &Forest{
		nTrees:     defaultNumTrees,
		sampleSize: defaultSampleSize,
		threshold:  defaultThreshold,
		workers:    1,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.nTrees <= 0 {
		f.nTrees = defaultNumTrees
	}
	if f.sampleSize <= 0 {
		f.sampleSize = defaultSampleSize
	}
	if f.workers < 1 {
		f.workers = 1
	}

	return f
}

// Train builds the ensemble from the given points. The feature schema is
// fixed from the first point; every other point must carry the same names.
// A successful call fully replaces any prior model; on error no partial
// model is retained.
func (f *Forest) Train(points []detectors.FeatureVector) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(points) == 0 {
		return detectors.ErrEmptyTrainingSet
	}

	schema := schemaOf(points[0])
	data := make([][]float64, len(points))
	for i, p := range points {
		row, err := alignToSchema(p, schema)
		if err != nil {
			return err
		}
		data[i] = row
	}

	sampleSize := f.sampleSize
	if sampleSize > len(data) {
		sampleSize = len(data)
	}
	maxDepth := f.maxDepth
	if maxDepth <= 0 {
		maxDepth = int(math.Ceil(math.Log2(float64(sampleSize))))
	}

	// One seed per tree, drawn sequentially up front, so a parallel build
	// produces the same forest as a sequential one.
	seeds := make([]int64, f.nTrees)
	for i := range seeds {
		seeds[i] = f.rng.Int63()
	}

	trees := make([]tree, f.nTrees)
	nFeatures := len(schema)

	buildOne := func(i int) {
		rng := rand.New(rand.NewSource(seeds[i]))
		indices := rng.Perm(len(data))[:sampleSize]
		sample := make([][]float64, sampleSize)
		for j, idx := range indices {
			sample[j] = data[idx]
		}
		trees[i] = buildTree(sample, nFeatures, maxDepth, rng)
	}

	if f.workers > 1 {
		var wg sync.WaitGroup
		sem := make(chan struct{}, f.workers)
		for i := range trees {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				buildOne(i)
				<-sem
			}(i)
		}
		wg.Wait()
	} else {
		for i := range trees {
			buildOne(i)
		}
	}

	f.trees = trees
	f.schema = schema
	f.norm = avgPathLength(float64(sampleSize))
	f.trained = true

	if f.contamination > 0 {
		f.threshold = f.calibrateThreshold(data)
	}

	return nil
}

// Detect scores a single point against the trained forest. The computation
// is pure: the same point against the same forest always yields the same
// result.
func (f *Forest) Detect(point detectors.FeatureVector) (detectors.AnomalyResult, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return detectors.AnomalyResult{}, detectors.ErrNotTrained
	}

	row, err := alignToSchema(point, f.schema)
	if err != nil {
		return detectors.AnomalyResult{}, err
	}

	return f.classify(f.score(row)), nil
}

// DetectBatch scores each point independently, returning one Detection per
// input in the same order. A point with a mismatched schema fails its own
// slot; the rest of the batch proceeds.
func (f *Forest) DetectBatch(points []detectors.FeatureVector) []detectors.Detection {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]detectors.Detection, len(points))

	if !f.trained {
		for i := range out {
			out[i].Err = detectors.ErrNotTrained
		}
		return out
	}

	for i, p := range points {
		row, err := alignToSchema(p, f.schema)
		if err != nil {
			out[i].Err = err
			continue
		}
		out[i].Result = f.classify(f.score(row))
	}

	return out
}

// DetectStream scores points from a channel until the input closes or the
// context is cancelled. The output channel is left open for the caller.
func (f *Forest) DetectStream(ctx context.Context, in <-chan detectors.FeatureVector, out chan<- detectors.Detection) error {
	f.mu.RLock()
	trained := f.trained
	f.mu.RUnlock()

	if !trained {
		return detectors.ErrNotTrained
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case point, ok := <-in:
			if !ok {
				return nil
			}

			result, err := f.Detect(point)

			select {
			case out <- detectors.Detection{Result: result, Err: err}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// score computes the normalized anomaly score for a schema-aligned row.
func (f *Forest) score(row []float64) float64 {
	var total float64
	for _, t := range f.trees {
		total += t.pathLength(row)
	}
	avg := total / float64(len(f.trees))

	if f.norm <= 0 {
		// Single-sample training leaves no path to normalize against;
		// every point scores as typical.
		return 0.5
	}

	return math.Pow(2, -avg/f.norm)
}

// classify turns a score into a thresholded result with confidence.
func (f *Forest) classify(score float64) detectors.AnomalyResult {
	isAnomaly := score > f.threshold

	var confidence float64
	if isAnomaly {
		confidence = (score - f.threshold) / (1 - f.threshold)
	} else {
		confidence = 1 - score/f.threshold
	}

	return detectors.AnomalyResult{
		Score:      score,
		IsAnomaly:  isAnomaly,
		Confidence: clamp01(confidence),
	}
}

// calibrateThreshold places the threshold at the (1 - contamination)
// quantile of the training scores.
func (f *Forest) calibrateThreshold(data [][]float64) float64 {
	scores := make([]float64, len(data))
	for i, row := range data {
		scores[i] = f.score(row)
	}
	sort.Float64s(scores)
	return stat.Quantile(1-f.contamination, stat.Empirical, scores, nil)
}

// Threshold returns the current anomaly threshold.
func (f *Forest) Threshold() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.threshold
}

// SetThreshold updates the anomaly threshold.
func (f *Forest) SetThreshold(t float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threshold = t
}

// Schema returns a copy of the trained feature schema, or nil before
// training.
func (f *Forest) Schema() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil
	}
	out := make([]string, len(f.schema))
	copy(out, f.schema)
	return out
}

// schemaOf returns a vector's feature names in sorted order.
func schemaOf(point detectors.FeatureVector) []string {
	names := make([]string, 0, len(point))
	for name := range point {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// alignToSchema orders a vector's values to match the schema, reporting
// missing and unexpected feature names.
func alignToSchema(point detectors.FeatureVector, schema []string) ([]float64, error) {
	row := make([]float64, len(schema))
	var missing []string
	for i, name := range schema {
		v, ok := point[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		row[i] = v
	}

	matched := len(schema) - len(missing)
	var unexpected []string
	if len(point) != matched {
		known := make(map[string]struct{}, len(schema))
		for _, name := range schema {
			known[name] = struct{}{}
		}
		for name := range point {
			if _, ok := known[name]; !ok {
				unexpected = append(unexpected, name)
			}
		}
		sort.Strings(unexpected)
	}

	if len(missing) > 0 || len(unexpected) > 0 {
		return nil, &detectors.FeatureMismatchError{Missing: missing, Unexpected: unexpected}
	}

	return row, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
