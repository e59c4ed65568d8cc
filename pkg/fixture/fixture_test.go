package fixture

import (
	"regexp"
	"testing"

	"github.com/grmpy/grmpy-go/pkg/model"
	"github.com/grmpy/grmpy-go/pkg/rng"
	"github.com/grmpy/grmpy-go/pkg/unobservables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratedFixturesAreValid(t *testing.T) {
	src := rng.New(1)
	for i := 0; i < 300; i++ {
		c, err := NewConstraints(src, DefaultOptions())
		require.NoError(t, err)
		f := Generate(src, c)

		require.NoError(t, f.Params.Validate(), "fixture %d", i)
		require.NoError(t, unobservables.CheckPositiveSemiDefinite(unobservables.CovarianceMatrix(f.Params.Distribution)), "fixture %d", i)

		_, _, err = unobservables.Sample(rng.New(f.Seed), f.Params.Distribution, 5)
		require.NoError(t, err, "fixture %d", i)

		assert.Len(t, f.Params.Untreated, len(f.Params.Treated))
		assert.GreaterOrEqual(t, len(f.Params.Treated), 1)
		assert.LessOrEqual(t, len(f.Params.Treated), maxCoefficients)
		assert.GreaterOrEqual(t, len(f.Params.Cost), 1)
		assert.LessOrEqual(t, len(f.Params.Cost), maxCoefficients)
		assert.False(t, f.Params.OutcomeSpec()[0].Binary, "intercept marked binary")
	}
}

func TestDeterministicFixtureIsDegenerate(t *testing.T) {
	src := rng.New(2)
	c, err := NewConstraints(src, Options{DeterministicProbability: 0.999999})
	require.NoError(t, err)
	require.True(t, c.Deterministic)
	assert.False(t, c.ZeroCoefficients)

	f := Generate(src, c)
	assert.True(t, f.Params.Deterministic)
	assert.Equal(t, model.Degenerate(), f.Params.Distribution)
}

func TestZeroCoefficients(t *testing.T) {
	src := rng.New(3)
	found := false
	for i := 0; i < 50 && !found; i++ {
		// p/(1-p) == 1, so every non-deterministic draw has zero coefficients.
		c, err := NewConstraints(src, Options{DeterministicProbability: 0.5, AllowZeroCoefficients: true})
		require.NoError(t, err)
		if c.Deterministic {
			continue
		}
		require.True(t, c.ZeroCoefficients)
		found = true

		f := Generate(src, c)
		for _, coeff := range [][]float64{f.Params.Untreated, f.Params.Treated, f.Params.Cost} {
			for _, v := range coeff {
				assert.Zero(t, v)
			}
		}
		assert.NotEqual(t, model.Degenerate(), f.Params.Distribution)
	}
	require.True(t, found, "no non-deterministic constraints drawn")
}

func TestZeroCoefficientsDisallowed(t *testing.T) {
	src := rng.New(4)
	for i := 0; i < 50; i++ {
		c, err := NewConstraints(src, Options{DeterministicProbability: 0.5})
		require.NoError(t, err)
		assert.False(t, c.ZeroCoefficients)
	}
}

func TestConstraintsHonorExplicitValues(t *testing.T) {
	c, err := NewConstraints(rng.New(5), Options{Agents: 42, Seed: 1234})
	require.NoError(t, err)
	assert.Equal(t, 42, c.Agents)
	assert.Equal(t, uint64(1234), c.Seed)
	assert.False(t, c.Deterministic)
}

func TestConstraintsDrawnRanges(t *testing.T) {
	src := rng.New(6)
	for i := 0; i < 200; i++ {
		c, err := NewConstraints(src, DefaultOptions())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, c.Agents, 1)
		assert.LessOrEqual(t, c.Agents, maxAgents)
		assert.GreaterOrEqual(t, c.Seed, uint64(1))
		assert.LessOrEqual(t, c.Seed, uint64(maxSeed))
	}
}

func TestConstraintsRejectBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"probability one", Options{DeterministicProbability: 1}},
		{"negative probability", Options{DeterministicProbability: -0.1}},
		{"negative agents", Options{Agents: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConstraints(rng.New(1), tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestGenerateReproducible(t *testing.T) {
	c := Constraints{Agents: 10, Seed: 3}
	a := Generate(rng.New(99), c)
	b := Generate(rng.New(99), c)
	assert.Equal(t, a, b)
}

func TestLabelFormat(t *testing.T) {
	f := Generate(rng.New(7), Constraints{Agents: 1, Seed: 1})
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{8}$`), f.Label)
}
