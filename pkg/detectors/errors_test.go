package detectors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureMismatchError(t *testing.T) {
	tests := []struct {
		name string
		err  *FeatureMismatchError
		want string
	}{
		{
			name: "missing only",
			err:  &FeatureMismatchError{Missing: []string{"a", "b"}},
			want: "detectors: feature mismatch: missing features: a, b",
		},
		{
			name: "unexpected only",
			err:  &FeatureMismatchError{Unexpected: []string{"z"}},
			want: "detectors: feature mismatch: unexpected features: z",
		},
		{
			name: "both",
			err:  &FeatureMismatchError{Missing: []string{"a"}, Unexpected: []string{"z"}},
			want: "detectors: feature mismatch: missing features: a; unexpected features: z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorsAs(t *testing.T) {
	var err error = &FeatureMismatchError{Missing: []string{"a"}}

	var mismatch *FeatureMismatchError
	assert.True(t, errors.As(err, &mismatch))
	assert.Equal(t, []string{"a"}, mismatch.Missing)
}

func TestFeatureVectorClone(t *testing.T) {
	original := FeatureVector{"a": 1, "b": 2}
	clone := original.Clone()

	clone["a"] = 99
	assert.Equal(t, 1.0, original["a"])
	assert.Equal(t, 99.0, clone["a"])
}
