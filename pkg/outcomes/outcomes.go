// Package outcomes evaluates the outcome and cost equations and applies the
// Roy selection rule.
package outcomes

import (
	"fmt"

	"github.com/grmpy/grmpy-go/pkg/model"
	"gonum.org/v1/gonum/mat"
)

// Coefficients are the linear coefficients of the three equations.
type Coefficients struct {
	Untreated []float64
	Treated   []float64
	Cost      []float64
}

// Result holds potential outcomes, cost, treatment and the observed outcome
// for every agent.
type Result struct {
	Y    []float64
	D    []int
	Y1   []float64
	Y0   []float64
	Cost []float64
}

// Treated counts the agents with D == 1.
func (r *Result) Treated() int {
	count := 0
	for _, d := range r.D {
		count += d
	}
	return count
}

// Simulate computes
//
//	Y0 = X*b0 + U0, Y1 = X*b1 + U1, C = Z*g + Uc
//	D  = 1 iff (Y1 - Y0) - C > 0
//	Y  = D*Y1 + (1-D)*Y0
//
// The row count is taken from u (n x 3). A nil x or z is an empty design and
// contributes nothing to its equations; the matching coefficients are ignored.
func Simulate(x, z *mat.Dense, u mat.Matrix, coeffs Coefficients) (*Result, error) {
	n, c := u.Dims()
	if c != 3 {
		return nil, fmt.Errorf("%w: latent matrix has %d columns, expected 3", model.ErrMalformedParameters, c)
	}

	xb0, err := linearIndex(x, coeffs.Untreated, n, "untreated")
	if err != nil {
		return nil, err
	}
	xb1, err := linearIndex(x, coeffs.Treated, n, "treated")
	if err != nil {
		return nil, err
	}
	zg, err := linearIndex(z, coeffs.Cost, n, "cost")
	if err != nil {
		return nil, err
	}

	res := &Result{
		Y:    make([]float64, n),
		D:    make([]int, n),
		Y1:   make([]float64, n),
		Y0:   make([]float64, n),
		Cost: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		res.Y0[i] = xb0[i] + u.At(i, 0)
		res.Y1[i] = xb1[i] + u.At(i, 1)
		res.Cost[i] = zg[i] + u.At(i, 2)

		benefit := res.Y1[i] - res.Y0[i]
		if benefit-res.Cost[i] > 0 {
			res.D[i] = 1
			res.Y[i] = res.Y1[i]
		} else {
			res.Y[i] = res.Y0[i]
		}
	}
	return res, nil
}

// linearIndex returns design * coeff as a slice of length n.
func linearIndex(design *mat.Dense, coeff []float64, n int, name string) ([]float64, error) {
	out := make([]float64, n)
	if design == nil {
		return out, nil
	}

	r, k := design.Dims()
	if r != n {
		return nil, fmt.Errorf("%w: %s design has %d rows, latents have %d", model.ErrMalformedParameters, name, r, n)
	}
	if k != len(coeff) {
		return nil, fmt.Errorf("%w: %s design has %d columns but %d coefficients", model.ErrMalformedParameters, name, k, len(coeff))
	}

	mat.NewVecDense(n, out).MulVec(design, mat.NewVecDense(k, coeff))
	return out, nil
}
