// Package testutil provides common fixtures and helpers for testing.
package testutil

import (
	"github.com/grmpy/grmpy-go/pkg/model"
)

// ThreeAgentDeterministic is the hand-checkable scenario: one outcome
// coefficient of 1.0 in both states, a zero cost coefficient, unit variances,
// zero covariances, three agents, deterministic mode on.
func ThreeAgentDeterministic() model.ModelParameters {
	return model.ModelParameters{
		Untreated: []float64{1.0},
		Treated:   []float64{1.0},
		Cost:      []float64{0.0},
		Distribution: model.Distribution{
			VarU0: 1, VarU1: 1, VarUC: 1,
		},
		Agents:        3,
		Deterministic: true,
	}
}

// Stochastic is a small non-degenerate parameterization with correlated
// latents and one Bernoulli outcome regressor.
func Stochastic(agents int) model.ModelParameters {
	return model.ModelParameters{
		Untreated: []float64{0.5, 0.25, -0.1},
		Treated:   []float64{1.0, 0.5, 0.3},
		Cost:      []float64{0.2, 0.4},
		Distribution: model.Distribution{
			VarU0: 1.0, VarU1: 1.5, VarUC: 0.8,
			CovU0U1: 0.3, CovU0UC: 0.1, CovU1UC: -0.2,
		},
		OutcomeColumns: []model.CovariateColumn{{}, {}, {Binary: true, Probability: 0.4}},
		Agents:         agents,
	}
}

// Float64sEqual reports whether two slices are element-wise identical.
func Float64sEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
