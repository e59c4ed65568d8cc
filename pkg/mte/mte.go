// Package mte computes the marginal treatment effect of the normal Roy model
// at quantiles of the net-surplus unobservable V = U0 - U1 + Uc.
package mte

import (
	"fmt"
	"iter"

	"github.com/grmpy/grmpy-go/pkg/model"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Point is one (quantile, effect) pair of an MTE profile.
type Point struct {
	Quantile float64 `json:"quantile"`
	Effect   float64 `json:"effect"`
}

// VarianceV returns Var(U0 - U1 + Uc).
func VarianceV(d model.Distribution) float64 {
	return d.VarU0 + d.VarU1 + d.VarUC - 2*d.CovU0U1 + 2*d.CovU0UC - 2*d.CovU1UC
}

// ProjectionCoefficients returns Cov(V,U1)/Var(V) and Cov(V,U0)/Var(V).
// Both are zero when Var(V) is zero.
func ProjectionCoefficients(d model.Distribution) (onU1, onU0 float64) {
	varV := VarianceV(d)
	if varV == 0 {
		return 0, 0
	}
	covVU1 := d.CovU0U1 - d.VarU1 + d.CovU1UC
	covVU0 := d.VarU0 - d.CovU0U1 + d.CovU0UC
	return covVU1 / varV, covVU0 / varV
}

// Computer evaluates MTE(q) = mean(X*(b1 - b0)) - (p1 - p0) * Phi^-1(q).
type Computer struct {
	meanEffect float64
	slope      float64
}

// NewComputer prepares the MTE for the given coefficients, distribution and
// outcome design. A nil design contributes a zero mean effect.
func NewComputer(untreated, treated []float64, dist model.Distribution, x *mat.Dense) (*Computer, error) {
	if len(untreated) != len(treated) {
		return nil, fmt.Errorf("%w: %d untreated and %d treated coefficients", model.ErrMalformedParameters, len(untreated), len(treated))
	}

	meanEffect := 0.0
	if x != nil {
		n, k := x.Dims()
		if k != len(treated) {
			return nil, fmt.Errorf("%w: outcome design has %d columns but %d coefficients", model.ErrMalformedParameters, k, len(treated))
		}
		diff := make([]float64, k)
		for j := range diff {
			diff[j] = treated[j] - untreated[j]
		}
		var effects mat.VecDense
		effects.MulVec(x, mat.NewVecDense(k, diff))
		meanEffect = mat.Sum(&effects) / float64(n)
	}

	onU1, onU0 := ProjectionCoefficients(dist)
	return &Computer{meanEffect: meanEffect, slope: onU1 - onU0}, nil
}

// MeanEffect is the average of X*(b1 - b0) over agents.
func (c *Computer) MeanEffect() float64 {
	return c.meanEffect
}

// At returns the MTE at quantile q, which must lie in (0, 1).
func (c *Computer) At(q float64) float64 {
	return c.meanEffect - c.slope*distuv.UnitNormal.Quantile(q)
}

// Profile returns a lazy sequence of (quantile, effect) pairs in the order
// given. The sequence can be ranged over any number of times.
func (c *Computer) Profile(quantiles []float64) (iter.Seq2[float64, float64], error) {
	for i, q := range quantiles {
		if !(q > 0 && q < 1) {
			return nil, fmt.Errorf("%w: quantile %d (%v) outside (0, 1)", model.ErrMalformedParameters, i, q)
		}
	}
	qs := append([]float64(nil), quantiles...)

	return func(yield func(float64, float64) bool) {
		for _, q := range qs {
			if !yield(q, c.At(q)) {
				return
			}
		}
	}, nil
}

// Collect materializes a profile.
func Collect(profile iter.Seq2[float64, float64]) []Point {
	var points []Point
	for q, effect := range profile {
		points = append(points, Point{Quantile: q, Effect: effect})
	}
	return points
}
