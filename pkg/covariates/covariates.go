// Package covariates generates the exogenous regressor matrices of the
// outcome and cost equations.
package covariates

import (
	"fmt"
	"math/rand/v2"

	"github.com/grmpy/grmpy-go/pkg/model"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Generate draws an n x len(columns) design matrix. Column 0 is the
// intercept. All other columns are a zero-mean, identity-covariance normal
// vector, after which Bernoulli columns are overwritten with independent
// Bernoulli draws.
func Generate(src *rand.Rand, n int, columns []model.CovariateColumn) (*mat.Dense, error) {
	if err := checkShape(n, columns); err != nil {
		return nil, err
	}
	k := len(columns)

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := make([]float64, n*k)
	for i := range data {
		data[i] = normal.Rand()
	}
	x := mat.NewDense(n, k, data)

	for j := 1; j < k; j++ {
		if !columns[j].Binary {
			continue
		}
		bernoulli := distuv.Bernoulli{P: columns[j].Probability, Src: src}
		for i := 0; i < n; i++ {
			x.Set(i, j, bernoulli.Rand())
		}
	}

	for i := 0; i < n; i++ {
		x.Set(i, 0, 1.0)
	}
	return x, nil
}

// Means returns the n x len(columns) matrix whose rows all equal the column
// means. It is the degenerate design used in deterministic mode and does not
// consume any randomness.
func Means(n int, columns []model.CovariateColumn) (*mat.Dense, error) {
	if err := checkShape(n, columns); err != nil {
		return nil, err
	}
	k := len(columns)

	x := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1.0)
		for j := 1; j < k; j++ {
			x.Set(i, j, columns[j].Mean())
		}
	}
	return x, nil
}

func checkShape(n int, columns []model.CovariateColumn) error {
	if n <= 0 {
		return fmt.Errorf("%w: row count must be positive, got %d", model.ErrMalformedParameters, n)
	}
	if len(columns) == 0 {
		return fmt.Errorf("%w: design needs at least the intercept column", model.ErrMalformedParameters)
	}
	return nil
}
