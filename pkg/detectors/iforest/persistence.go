package iforest

import (
	"bytes"
	"encoding/gob"

	"github.com/voyara-ai/gofraudml/pkg/detectors"
)

// forestSnapshot is the gob wire form of a trained forest. The snapshot is
// an opaque, version-bound blob: it round-trips through the same binary,
// not across schema changes.
type forestSnapshot struct {
	NumTrees   int
	SampleSize int
	Threshold  float64
	Norm       float64
	Schema     []string
	Trees      []treeSnapshot
}

type treeSnapshot struct {
	Nodes []nodeSnapshot
}

type nodeSnapshot struct {
	Feature   int32
	Left      int32
	Right     int32
	Size      int32
	Threshold float64
}

// Save serializes the trained model.
func (f *Forest) Save() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, detectors.ErrNotTrained
	}

	snap := forestSnapshot{
		NumTrees:   f.nTrees,
		SampleSize: f.sampleSize,
		Threshold:  f.threshold,
		Norm:       f.norm,
		Schema:     f.schema,
		Trees:      make([]treeSnapshot, len(f.trees)),
	}
	for i, t := range f.trees {
		nodes := make([]nodeSnapshot, len(t.nodes))
		for j, nd := range t.nodes {
			nodes[j] = nodeSnapshot{
				Feature:   nd.feature,
				Left:      nd.left,
				Right:     nd.right,
				Size:      nd.size,
				Threshold: nd.threshold,
			}
		}
		snap.Trees[i] = treeSnapshot{Nodes: nodes}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load deserializes a trained model, replacing the receiver's state.
func (f *Forest) Load(data []byte) error {
	var snap forestSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return err
	}

	trees := make([]tree, len(snap.Trees))
	for i, ts := range snap.Trees {
		nodes := make([]treeNode, len(ts.Nodes))
		for j, ns := range ts.Nodes {
			nodes[j] = treeNode{
				feature:   ns.Feature,
				left:      ns.Left,
				right:     ns.Right,
				size:      ns.Size,
				threshold: ns.Threshold,
			}
		}
		trees[i] = tree{nodes: nodes}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nTrees = snap.NumTrees
	f.sampleSize = snap.SampleSize
	f.threshold = snap.Threshold
	f.norm = snap.Norm
	f.schema = snap.Schema
	f.trees = trees
	f.trained = true

	return nil
}
