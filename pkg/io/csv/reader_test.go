package csv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyara-ai/gofraudml/pkg/detectors"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRead(t *testing.T) {
	path := writeTempCSV(t, "amount,lead_time\n100.5,7\n200,14\n")

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"amount", "lead_time"}, r.Headers())

	data, err := r.Read()
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, detectors.FeatureVector{"amount": 100.5, "lead_time": 7}, data[0])
	assert.Equal(t, detectors.FeatureVector{"amount": 200, "lead_time": 14}, data[1])
}

func TestReadSkipsMalformedRows(t *testing.T) {
	path := writeTempCSV(t, "a,b\n1,2\nx,y\n3,4\n")

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	data, err := r.Read()
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, detectors.FeatureVector{"a": 1, "b": 2}, data[0])
	assert.Equal(t, detectors.FeatureVector{"a": 3, "b": 4}, data[1])
}

func TestReadWithoutHeader(t *testing.T) {
	path := writeTempCSV(t, "1,2,3\n4,5,6\n")

	r, err := NewReader(path, WithHeader(false))
	require.NoError(t, err)
	defer r.Close()

	data, err := r.Read()
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, detectors.FeatureVector{"f0": 1, "f1": 2, "f2": 3}, data[0])
	assert.Equal(t, []string{"f0", "f1", "f2"}, r.Headers())
}

func TestReadMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestStream(t *testing.T) {
	path := writeTempCSV(t, "a,b\n1,2\n3,4\n5,6\n")

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := r.Stream(ctx)
	require.NoError(t, err)

	var got []detectors.FeatureVector
	for point := range ch {
		got = append(got, point)
	}

	require.Len(t, got, 3)
	assert.Equal(t, detectors.FeatureVector{"a": 5, "b": 6}, got[2])
}
