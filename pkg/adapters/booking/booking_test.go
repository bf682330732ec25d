package booking

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyara-ai/gofraudml/pkg/detectors"
	"github.com/voyara-ai/gofraudml/pkg/detectors/iforest"
)

func normalRecord(id string) Record {
	return Record{
		ID:              id,
		Amount:          300,
		LeadTimeDays:    21,
		Passengers:      2,
		PaymentAttempts: 1,
		AccountAgeDays:  400,
		CardsUsed:       1,
	}
}

func TestExtract(t *testing.T) {
	e := NewExtractor()
	point := e.Extract(normalRecord("BK-1"))

	assert.Equal(t, detectors.FeatureVector{
		FeatureAmount:          300,
		FeatureLeadTimeDays:    21,
		FeaturePassengers:      2,
		FeaturePaymentAttempts: 1,
		FeatureAccountAgeDays:  400,
		FeatureCardsUsed:       1,
	}, point)

	assert.Len(t, e.FeatureNames(), len(point))
}

func TestExtractAll(t *testing.T) {
	e := NewExtractor()
	records := []Record{normalRecord("BK-1"), normalRecord("BK-2")}

	points := e.ExtractAll(records)
	require.Len(t, points, 2)
	assert.Equal(t, e.Extract(records[0]), points[0])
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		name   string
		result detectors.AnomalyResult
		want   RiskLevel
	}{
		{
			name:   "not anomalous",
			result: detectors.AnomalyResult{Score: 0.4, IsAnomaly: false, Confidence: 0.9},
			want:   RiskLow,
		},
		{
			name:   "borderline anomaly",
			result: detectors.AnomalyResult{Score: 0.62, IsAnomaly: true, Confidence: 0.05},
			want:   RiskMedium,
		},
		{
			name:   "clear anomaly",
			result: detectors.AnomalyResult{Score: 0.78, IsAnomaly: true, Confidence: 0.45},
			want:   RiskHigh,
		},
		{
			name:   "extreme anomaly",
			result: detectors.AnomalyResult{Score: 0.95, IsAnomaly: true, Confidence: 0.88},
			want:   RiskCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, riskLevel(tt.result))
		})
	}
}

func TestAssessReasons(t *testing.T) {
	e := NewExtractor()

	training := make([]Record, 100)
	for i := range training {
		r := normalRecord("BK")
		r.Amount = 250 + float64(i)          // 250..349
		r.AccountAgeDays = 300 + float64(i)  // 300..399
		r.LeadTimeDays = 10 + float64(i%20)  // 10..29
		training[i] = r
	}
	e.FitStats(training)

	t.Run("typical record has no reasons", func(t *testing.T) {
		a := e.Assess(normalRecord("BK-9"), detectors.AnomalyResult{Score: 0.45})
		assert.Empty(t, a.Reasons)
	})

	t.Run("outlier features are named", func(t *testing.T) {
		suspect := normalRecord("BK-F")
		suspect.Amount = 12000
		suspect.AccountAgeDays = 0

		a := e.Assess(suspect, detectors.AnomalyResult{Score: 0.85, IsAnomaly: true, Confidence: 0.8})
		assert.Equal(t, "BK-F", a.BookingID)
		assert.Equal(t, RiskCritical, a.Level)

		require.Len(t, a.Reasons, 2)
		assert.Contains(t, a.Reasons[0], FeatureAccountAgeDays)
		assert.Contains(t, a.Reasons[1], FeatureAmount)
		assert.Contains(t, a.Reasons[1], "unusually high")
	})

	t.Run("no stats means no reasons", func(t *testing.T) {
		fresh := NewExtractor()
		a := fresh.Assess(normalRecord("BK-1"), detectors.AnomalyResult{})
		assert.Nil(t, a.Reasons)
	})
}

func TestAdapterEndToEnd(t *testing.T) {
	e := NewExtractor()

	rng := rand.New(rand.NewSource(123))
	training := make([]Record, 500)
	for i := range training {
		training[i] = Record{
			ID:              "BK",
			Amount:          150 + rng.Float64()*500,
			LeadTimeDays:    3 + rng.Float64()*60,
			Passengers:      1 + rng.Intn(4),
			PaymentAttempts: 1 + rng.Intn(2),
			AccountAgeDays:  100 + rng.Float64()*900,
			CardsUsed:       1 + rng.Intn(2),
		}
	}
	e.FitStats(training)

	forest := iforest.New(iforest.WithTrees(50), iforest.WithSeed(42))
	require.NoError(t, forest.Train(e.ExtractAll(training)))

	fraud := Record{
		ID:              "TX-BAD",
		Amount:          50000,
		LeadTimeDays:    0,
		Passengers:      1,
		PaymentAttempts: 9,
		AccountAgeDays:  0,
		CardsUsed:       6,
	}
	fraudResult, err := forest.Detect(e.Extract(fraud))
	require.NoError(t, err)

	normalResult, err := forest.Detect(e.Extract(training[250]))
	require.NoError(t, err)

	assert.Greater(t, fraudResult.Score, normalResult.Score)
	assert.False(t, normalResult.IsAnomaly)

	assessment := e.Assess(fraud, fraudResult)
	assert.NotEmpty(t, assessment.Reasons)
}
