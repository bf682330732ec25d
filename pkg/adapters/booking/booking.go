// Package booking maps raw travel-booking records onto the numeric feature
// schema consumed by the anomaly detectors, and turns raw anomaly results
// into risk assessments with human-readable reasons.
package booking

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/voyara-ai/gofraudml/pkg/detectors"
)

// Feature names produced by the extractor.
const (
	FeatureAmount          = "amount"
	FeatureLeadTimeDays    = "lead_time_days"
	FeaturePassengers      = "passengers"
	FeaturePaymentAttempts = "payment_attempts"
	FeatureAccountAgeDays  = "account_age_days"
	FeatureCardsUsed       = "cards_used"
)

// Record is a raw booking as received from the reservation system.
type Record struct {
	ID              string
	Amount          float64
	LeadTimeDays    float64
	Passengers      int
	PaymentAttempts int
	AccountAgeDays  float64
	CardsUsed       int
}

// RiskLevel buckets an anomaly result for human consumption.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Assessment is the adapter-facing view of a single detection.
type Assessment struct {
	BookingID string
	Result    detectors.AnomalyResult
	Level     RiskLevel
	Reasons   []string
}

// featureStats holds per-feature mean and standard deviation over the
// training records.
type featureStats struct {
	mean float64
	std  float64
}

// Extractor converts booking records into feature vectors. After FitStats
// it can also explain which features drive a detection.
type Extractor struct {
	stats map[string]featureStats
}

// NewExtractor creates a booking feature extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract converts a booking record into a feature vector.
func (e *Extractor) Extract(r Record) detectors.FeatureVector {
	return detectors.FeatureVector{
		FeatureAmount:          r.Amount,
		FeatureLeadTimeDays:    r.LeadTimeDays,
		FeaturePassengers:      float64(r.Passengers),
		FeaturePaymentAttempts: float64(r.PaymentAttempts),
		FeatureAccountAgeDays:  r.AccountAgeDays,
		FeatureCardsUsed:       float64(r.CardsUsed),
	}
}

// ExtractAll converts many records at once.
func (e *Extractor) ExtractAll(records []Record) []detectors.FeatureVector {
	points := make([]detectors.FeatureVector, len(records))
	for i, r := range records {
		points[i] = e.Extract(r)
	}
	return points
}

// FeatureNames returns the names of extracted features in sorted order.
func (e *Extractor) FeatureNames() []string {
	names := []string{
		FeatureAccountAgeDays,
		FeatureAmount,
		FeatureCardsUsed,
		FeatureLeadTimeDays,
		FeaturePassengers,
		FeaturePaymentAttempts,
	}
	return names
}

// FitStats records per-feature mean and standard deviation over the
// training records, used by Assess to name the features driving a
// detection.
func (e *Extractor) FitStats(records []Record) {
	cols := make(map[string][]float64)
	for _, r := range records {
		for name, v := range e.Extract(r) {
			cols[name] = append(cols[name], v)
		}
	}

	e.stats = make(map[string]featureStats, len(cols))
	for name, vals := range cols {
		mean, std := stat.MeanStdDev(vals, nil)
		e.stats[name] = featureStats{mean: mean, std: std}
	}
}

// zScoreReasonLimit is the deviation, in training standard deviations,
// beyond which a feature is named as a reason.
const zScoreReasonLimit = 3.0

// Assess combines a record and its anomaly result into a risk assessment.
func (e *Extractor) Assess(r Record, result detectors.AnomalyResult) Assessment {
	return Assessment{
		BookingID: r.ID,
		Result:    result,
		Level:     riskLevel(result),
		Reasons:   e.reasons(r),
	}
}

// riskLevel buckets a result by confidence.
func riskLevel(result detectors.AnomalyResult) RiskLevel {
	switch {
	case !result.IsAnomaly:
		return RiskLow
	case result.Confidence >= 0.75:
		return RiskCritical
	case result.Confidence >= 0.4:
		return RiskHigh
	default:
		return RiskMedium
	}
}

// reasons names the features that sit far outside the training
// distribution. Empty before FitStats has been called.
func (e *Extractor) reasons(r Record) []string {
	if e.stats == nil {
		return nil
	}

	var reasons []string
	for name, v := range e.Extract(r) {
		s, ok := e.stats[name]
		if !ok || s.std == 0 {
			continue
		}
		z := (v - s.mean) / s.std
		if z >= zScoreReasonLimit {
			reasons = append(reasons, fmt.Sprintf("%s is unusually high (%.1f vs typical %.1f)", name, v, s.mean))
		} else if z <= -zScoreReasonLimit {
			reasons = append(reasons, fmt.Sprintf("%s is unusually low (%.1f vs typical %.1f)", name, v, s.mean))
		}
	}
	sort.Strings(reasons)
	return reasons
}
