// Package metrics scores a predicted clustering against a verified one by
// comparing, for every node, the set of nodes it was clustered with.
package metrics

import (
	"fmt"

	"github.com/agenthands/clustercheck/internal/core/cluster"
	"github.com/agenthands/clustercheck/internal/core/model"
)

// Counts are the neighbor-set overlap counts of a single node.
type Counts struct {
	TruePositives  int `json:"tp"`
	FalsePositives int `json:"fp"`
	FalseNegatives int `json:"fn"`
}

// Score converts counts into precision, recall and F1. A node without a
// single true positive scores zero on all three.
func (c Counts) Score() model.Score {
	if c.TruePositives == 0 {
		return model.Score{}
	}
	tp := float64(c.TruePositives)
	precision := tp / (tp + float64(c.FalsePositives))
	recall := tp / (tp + float64(c.FalseNegatives))
	return model.Score{
		Precision: precision,
		Recall:    recall,
		F1:        2 * precision * recall / (precision + recall),
	}
}

type NodeResult struct {
	Counts
	Score model.Score `json:"score"`
}

type Report struct {
	Nodes     map[string]NodeResult `json:"nodes,omitempty"`
	Aggregate model.Score           `json:"aggregate"`
}

// CountNode compares name's neighbors in both graphs. Lookups go through the
// graphs' name index, so cost is linear in the two class sizes.
func CountNode(actual, predicted *cluster.Graph, name string) (Counts, error) {
	actualNeighbors, err := actual.NeighborsOf(name)
	if err != nil {
		return Counts{}, fmt.Errorf("actual: %w", err)
	}
	predictedNeighbors, err := predicted.NeighborsOf(name)
	if err != nil {
		return Counts{}, fmt.Errorf("predicted: %w", err)
	}

	tp := 0
	for _, n := range predictedNeighbors {
		if actual.Connected(name, n) {
			tp++
		}
	}
	return Counts{
		TruePositives:  tp,
		FalsePositives: len(predictedNeighbors) - tp,
		FalseNegatives: len(actualNeighbors) - tp,
	}, nil
}

// Evaluate scores every node of actual and averages each component. Every
// actual node must exist in predicted.
func Evaluate(actual, predicted *cluster.Graph) (Report, error) {
	names := actual.Names()
	report := Report{Nodes: make(map[string]NodeResult, len(names))}
	if len(names) == 0 {
		return report, nil
	}

	var sum model.Score
	for _, name := range names {
		counts, err := CountNode(actual, predicted, name)
		if err != nil {
			return Report{}, err
		}
		score := counts.Score()
		report.Nodes[name] = NodeResult{Counts: counts, Score: score}
		sum = sum.Add(score)
	}
	report.Aggregate = sum.Div(float64(len(names)))
	return report, nil
}
