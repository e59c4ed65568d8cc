// Package unobservables draws the latent terms (U0, U1, Uc) of the Roy model
// and derives the net-surplus unobservable V.
package unobservables

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/grmpy/grmpy-go/pkg/constants"
	"github.com/grmpy/grmpy-go/pkg/model"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CovarianceMatrix builds the symmetric 3x3 covariance matrix of (U0, U1, Uc).
func CovarianceMatrix(dist model.Distribution) *mat.SymDense {
	v := dist.Variances()
	c := dist.Covariances()
	return mat.NewSymDense(3, []float64{
		v[0], c[0], c[1],
		c[0], v[1], c[2],
		c[1], c[2], v[2],
	})
}

// CheckPositiveSemiDefinite returns ErrInvalidCovariance unless every
// eigenvalue of cov is non-negative, up to rounding.
func CheckPositiveSemiDefinite(cov *mat.SymDense) error {
	_, err := eigen(cov)
	return err
}

type decomposition struct {
	values  []float64
	vectors *mat.Dense
	floor   float64
}

func eigen(cov *mat.SymDense) (decomposition, error) {
	var es mat.EigenSym
	if ok := es.Factorize(cov, true); !ok {
		return decomposition{}, fmt.Errorf("%w: eigen-decomposition failed", model.ErrInvalidCovariance)
	}
	values := es.Values(nil)

	scale := 1.0
	for _, v := range values {
		scale = math.Max(scale, math.Abs(v))
	}
	for _, v := range values {
		if v < -constants.EigenvalueTolerance*scale || math.IsNaN(v) {
			return decomposition{}, fmt.Errorf("%w: covariance matrix has negative eigenvalue %g", model.ErrInvalidCovariance, v)
		}
	}

	var vectors mat.Dense
	es.VectorsTo(&vectors)
	return decomposition{values: values, vectors: &vectors, floor: constants.EigenvalueTolerance * scale}, nil
}

// Sample draws n rows of (U0, U1, Uc) from a zero-mean joint normal with the
// covariance described by dist, and returns them with V = U0 - U1 + Uc.
//
// The matrix is checked before anything is drawn. Draws are a single joint
// n x 3 standard normal block mapped through Q*sqrt(Lambda) from the
// eigen-decomposition, so singular (but valid) matrices are supported.
func Sample(src *rand.Rand, dist model.Distribution, n int) (*mat.Dense, []float64, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("%w: row count must be positive, got %d", model.ErrMalformedParameters, n)
	}
	dec, err := eigen(CovarianceMatrix(dist))
	if err != nil {
		return nil, nil, err
	}

	var root mat.Dense
	root.CloneFrom(dec.vectors)
	for j, v := range dec.values {
		s := 0.0
		if v > dec.floor {
			s = math.Sqrt(v)
		}
		for i := 0; i < 3; i++ {
			root.Set(i, j, root.At(i, j)*s)
		}
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := make([]float64, n*3)
	for i := range data {
		data[i] = normal.Rand()
	}
	z := mat.NewDense(n, 3, data)

	u := mat.NewDense(n, 3, nil)
	u.Mul(z, root.T())

	return u, Surplus(u), nil
}

// Zero returns the n x 3 latent matrix and V of the degenerate distribution.
func Zero(n int) (*mat.Dense, []float64, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("%w: row count must be positive, got %d", model.ErrMalformedParameters, n)
	}
	return mat.NewDense(n, 3, nil), make([]float64, n), nil
}

// Surplus computes V = U0 - U1 + Uc for each row of u.
func Surplus(u mat.Matrix) []float64 {
	n, _ := u.Dims()
	v := make([]float64, n)
	for i := range v {
		v[i] = u.At(i, 0) - u.At(i, 1) + u.At(i, 2)
	}
	return v
}
