package iforest

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// eulerGamma is the Euler-Mascheroni constant used in the harmonic-number
// approximation of the average path length.
const eulerGamma = 0.5772156649

// noChild marks a leaf node in the arena.
const noChild = int32(-1)

// tree is a single isolation tree stored as a flat arena of nodes indexed
// by position; index 0 is the root. The arena form keeps traversal
// iterative, so no stack depth depends on the configured maximum depth.
type tree struct {
	nodes []treeNode
}

// treeNode is a tagged variant: an internal split when left >= 0, otherwise
// a leaf recording how many training samples were isolated there.
type treeNode struct {
	feature   int32
	left      int32
	right     int32
	size      int32
	threshold float64
}

func leafNode(size int) treeNode {
	return treeNode{left: noChild, right: noChild, size: int32(size)}
}

type buildFrame struct {
	rows  [][]float64
	depth int
	slot  int32
}

// buildTree grows an isolation tree over the sample using an explicit work
// stack. Rows that cannot be split further (one point left, depth limit
// reached, or a zero-range feature) become leaves.
func buildTree(sample [][]float64, nFeatures, maxDepth int, rng *rand.Rand) tree {
	t := tree{nodes: make([]treeNode, 1, 2*len(sample))}
	stack := []buildFrame{{rows: sample, depth: 0, slot: 0}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := len(frame.rows)
		if n <= 1 || frame.depth >= maxDepth || nFeatures == 0 {
			t.nodes[frame.slot] = leafNode(n)
			continue
		}

		feature := rng.Intn(nFeatures)

		col := make([]float64, n)
		for i, row := range frame.rows {
			col[i] = row[feature]
		}
		minVal, maxVal := floats.Min(col), floats.Max(col)
		if minVal == maxVal {
			t.nodes[frame.slot] = leafNode(n)
			continue
		}

		threshold := minVal + rng.Float64()*(maxVal-minVal)

		var left, right [][]float64
		for _, row := range frame.rows {
			if row[feature] < threshold {
				left = append(left, row)
			} else {
				right = append(right, row)
			}
		}

		leftSlot := int32(len(t.nodes))
		rightSlot := leftSlot + 1
		t.nodes = append(t.nodes, treeNode{}, treeNode{})
		t.nodes[frame.slot] = treeNode{
			feature:   int32(feature),
			threshold: threshold,
			left:      leftSlot,
			right:     rightSlot,
		}

		stack = append(stack,
			buildFrame{rows: left, depth: frame.depth + 1, slot: leftSlot},
			buildFrame{rows: right, depth: frame.depth + 1, slot: rightSlot},
		)
	}

	return t
}

// pathLength walks the point from the root to a leaf and returns its
// estimated path length, including the leaf-size correction c(k).
func (t tree) pathLength(point []float64) float64 {
	idx := int32(0)
	depth := 0
	for {
		nd := t.nodes[idx]
		if nd.left == noChild {
			return float64(depth) + avgPathLength(float64(nd.size))
		}
		if point[nd.feature] < nd.threshold {
			idx = nd.left
		} else {
			idx = nd.right
		}
		depth++
	}
}

// avgPathLength returns c(n), the expected path length of an unsuccessful
// search in a binary search tree over n points.
func avgPathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	// c(n) = 2*H(n-1) - 2*(n-1)/n, with H(m) approximated as ln(m) + gamma
	return 2*(math.Log(n-1)+eulerGamma) - 2*(n-1)/n
}
