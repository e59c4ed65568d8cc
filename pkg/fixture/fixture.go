// Package fixture generates random but valid model parameterizations for
// property-based tests.
package fixture

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/grmpy/grmpy-go/pkg/model"
	"github.com/grmpy/grmpy-go/pkg/rng"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultDeterministicProbability is the share of deterministic fixtures under DefaultOptions.
	DefaultDeterministicProbability = 0.1

	maxCoefficients  = 9
	maxAgents        = 999
	maxSeed          = 9999
	coefficientSigma = 2.0
	binaryColumnRate = 0.2
	labelLength      = 8
)

// Options control how constraints are drawn. Zero Agents or Seed means
// "draw one".
type Options struct {
	DeterministicProbability float64
	AllowZeroCoefficients    bool
	Agents                   int
	Seed                     uint64
}

// DefaultOptions mirrors the usual test setup: 10% deterministic fixtures,
// zero coefficients allowed.
func DefaultOptions() Options {
	return Options{
		DeterministicProbability: DefaultDeterministicProbability,
		AllowZeroCoefficients:    true,
	}
}

// Constraints are the realized characteristics of one fixture.
type Constraints struct {
	Deterministic    bool
	ZeroCoefficients bool
	Agents           int
	Seed             uint64
}

// Fixture is a generated parameterization plus its identifying label and the
// seed intended for simulating it.
type Fixture struct {
	Label  string
	Seed   uint64
	Params model.ModelParameters
}

// NewConstraints draws constraints. The deterministic flag is set with the
// given probability; zero coefficients are then drawn with probability
// p/(1-p) when allowed and the fixture is not deterministic.
func NewConstraints(src *rand.Rand, opts Options) (Constraints, error) {
	p := opts.DeterministicProbability
	if p < 0 || p >= 1 {
		return Constraints{}, fmt.Errorf("deterministic probability must lie in [0, 1), got %v", p)
	}
	if opts.Agents < 0 {
		return Constraints{}, fmt.Errorf("agents must not be negative, got %d", opts.Agents)
	}

	c := Constraints{Deterministic: src.Float64() < p}
	if !c.Deterministic && opts.AllowZeroCoefficients {
		c.ZeroCoefficients = src.Float64() < p/(1-p)
	}

	c.Agents = opts.Agents
	if c.Agents == 0 {
		c.Agents = 1 + src.IntN(maxAgents)
	}
	c.Seed = opts.Seed
	if c.Seed == 0 {
		c.Seed = 1 + src.Uint64N(maxSeed)
	}
	return c, nil
}

// Generate draws a parameterization satisfying c. The latent covariance is
// A*A' for a uniform random 3x3 A (or zero in deterministic mode), so it is
// positive semi-definite by construction.
func Generate(src *rand.Rand, c Constraints) Fixture {
	nOutcome := 1 + src.IntN(maxCoefficients)
	nCost := 1 + src.IntN(maxCoefficients)

	params := model.ModelParameters{
		Untreated:      coefficients(src, nOutcome, c.ZeroCoefficients),
		Treated:        coefficients(src, nOutcome, c.ZeroCoefficients),
		Cost:           coefficients(src, nCost, c.ZeroCoefficients),
		OutcomeColumns: columns(src, nOutcome),
		CostColumns:    columns(src, nCost),
		Agents:         c.Agents,
		Deterministic:  c.Deterministic,
	}

	if c.Deterministic {
		params.Distribution = model.Degenerate()
	} else {
		params.Distribution = productDistribution(src)
	}

	return Fixture{
		Label:  label(src),
		Seed:   c.Seed,
		Params: params,
	}
}

func coefficients(src *rand.Rand, n int, zero bool) []float64 {
	coeff := make([]float64, n)
	if zero {
		return coeff
	}
	normal := distuv.Normal{Mu: 0, Sigma: coefficientSigma, Src: src}
	for i := range coeff {
		coeff[i] = normal.Rand()
	}
	return coeff
}

func columns(src *rand.Rand, n int) []model.CovariateColumn {
	cols := make([]model.CovariateColumn, n)
	for j := 1; j < n; j++ {
		if src.Float64() < binaryColumnRate {
			cols[j] = model.CovariateColumn{Binary: true, Probability: src.Float64()}
		}
	}
	return cols
}

func productDistribution(src *rand.Rand) model.Distribution {
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: src}
	data := make([]float64, 9)
	for i := range data {
		data[i] = uniform.Rand()
	}
	a := mat.NewDense(3, 3, data)

	var b mat.SymDense
	b.SymOuterK(1, a)

	return model.Distribution{
		VarU0:   b.At(0, 0),
		VarU1:   b.At(1, 1),
		VarUC:   b.At(2, 2),
		CovU0U1: b.At(1, 0),
		CovU0UC: b.At(2, 0),
		CovU1UC: b.At(2, 1),
	}
}

func label(src *rand.Rand) string {
	id := uuid.Must(uuid.NewRandomFromReader(rng.Reader(src)))
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))[:labelLength]
}
