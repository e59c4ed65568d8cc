package unobservables

import (
	"errors"
	"testing"

	"github.com/grmpy/grmpy-go/pkg/model"
	"github.com/grmpy/grmpy-go/pkg/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestCovarianceMatrixPlacement(t *testing.T) {
	dist := model.Distribution{
		VarU0: 1, VarU1: 2, VarUC: 3,
		CovU0U1: 0.1, CovU0UC: 0.2, CovU1UC: 0.3,
	}
	cov := CovarianceMatrix(dist)

	want := [][]float64{
		{1, 0.1, 0.2},
		{0.1, 2, 0.3},
		{0.2, 0.3, 3},
	}
	for i := range want {
		for j := range want[i] {
			assert.Equal(t, want[i][j], cov.At(i, j), "entry (%d,%d)", i, j)
		}
	}
}

func TestCheckPositiveSemiDefinite(t *testing.T) {
	tests := []struct {
		name    string
		dist    model.Distribution
		wantErr bool
	}{
		{"identity", model.Distribution{VarU0: 1, VarU1: 1, VarUC: 1}, false},
		{"zero matrix", model.Degenerate(), false},
		{"singular rank one", model.Distribution{VarU0: 1, VarU1: 1, VarUC: 1, CovU0U1: 1, CovU0UC: 1, CovU1UC: 1}, false},
		{"large covariances", model.Distribution{VarU0: 1, VarU1: 1, VarUC: 1, CovU0U1: 5, CovU0UC: 5, CovU1UC: 5}, true},
		{"negative variance", model.Distribution{VarU0: -1, VarU1: 1, VarUC: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPositiveSemiDefinite(CovarianceMatrix(tt.dist))
			if tt.wantErr {
				assert.True(t, errors.Is(err, model.ErrInvalidCovariance), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSampleInvalidCovarianceDrawsNothing(t *testing.T) {
	dist := model.Distribution{VarU0: 1, VarU1: 1, VarUC: 1, CovU0U1: 5, CovU0UC: 5, CovU1UC: 5}
	src := rng.New(5)
	reference := rng.New(5)

	u, v, err := Sample(src, dist, 10)
	require.ErrorIs(t, err, model.ErrInvalidCovariance)
	assert.Nil(t, u)
	assert.Nil(t, v)
	assert.Equal(t, reference.Uint64(), src.Uint64(), "stream was consumed")
}

func TestSampleEmpiricalCovarianceConverges(t *testing.T) {
	const n = 100000
	dist := model.Distribution{
		VarU0: 1.0, VarU1: 2.0, VarUC: 0.5,
		CovU0U1: 0.4, CovU0UC: -0.2, CovU1UC: 0.3,
	}
	u, _, err := Sample(rng.New(2024), dist, n)
	require.NoError(t, err)

	want := CovarianceMatrix(dist)
	var got mat.SymDense
	stat.CovarianceMatrix(&got, u, nil)

	for i := 0; i < 3; i++ {
		mean := stat.Mean(mat.Col(nil, i, u), nil)
		assert.InDelta(t, 0.0, mean, 0.02, "mean of column %d", i)
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want.At(i, j), got.At(i, j), 0.04, "covariance (%d,%d)", i, j)
		}
	}
}

func TestSampleSingularMatrix(t *testing.T) {
	dist := model.Distribution{VarU0: 1, VarU1: 1, VarUC: 1, CovU0U1: 1, CovU0UC: 1, CovU1UC: 1}
	u, v, err := Sample(rng.New(8), dist, 100)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		assert.InDelta(t, u.At(i, 0), u.At(i, 1), 1e-9)
		assert.InDelta(t, u.At(i, 0), u.At(i, 2), 1e-9)
		assert.InDelta(t, u.At(i, 0), v[i], 1e-9)
	}
}

func TestSampleSurplus(t *testing.T) {
	dist := model.Distribution{VarU0: 1, VarU1: 1, VarUC: 1}
	u, v, err := Sample(rng.New(3), dist, 20)
	require.NoError(t, err)

	for i := range v {
		assert.Equal(t, u.At(i, 0)-u.At(i, 1)+u.At(i, 2), v[i])
	}
}

func TestSampleReproducible(t *testing.T) {
	dist := model.Distribution{VarU0: 1, VarU1: 1, VarUC: 1, CovU0U1: 0.5}
	a, _, err := Sample(rng.New(77), dist, 30)
	require.NoError(t, err)
	b, _, err := Sample(rng.New(77), dist, 30)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
}

func TestZero(t *testing.T) {
	u, v, err := Zero(3)
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(3, 3, nil), u))
	assert.Equal(t, []float64{0, 0, 0}, v)

	_, _, err = Zero(0)
	assert.ErrorIs(t, err, model.ErrMalformedParameters)
}
