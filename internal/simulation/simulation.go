// Package simulation runs the generalized Roy model forward from known
// parameters and assembles the simulated dataset.
package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/grmpy/grmpy-go/pkg/covariates"
	"github.com/grmpy/grmpy-go/pkg/model"
	"github.com/grmpy/grmpy-go/pkg/mte"
	"github.com/grmpy/grmpy-go/pkg/outcomes"
	"github.com/grmpy/grmpy-go/pkg/rng"
	"github.com/grmpy/grmpy-go/pkg/unobservables"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Dataset is the struct-of-arrays result of one run. It is not modified
// after Run returns.
type Dataset struct {
	X    *mat.Dense
	Z    *mat.Dense
	U    *mat.Dense
	V    []float64
	Y    []float64
	D    []int
	Y1   []float64
	Y0   []float64
	Cost []float64
}

// Record is the view of a single agent.
type Record struct {
	X    []float64
	Z    []float64
	U0   float64
	U1   float64
	UC   float64
	V    float64
	Y0   float64
	Y1   float64
	Cost float64
	D    int
	Y    float64
}

// Len is the number of agents.
func (d *Dataset) Len() int {
	return len(d.Y)
}

// Treated is the number of agents with D == 1.
func (d *Dataset) Treated() int {
	count := 0
	for _, v := range d.D {
		count += v
	}
	return count
}

// Record returns a copy of agent i.
func (d *Dataset) Record(i int) Record {
	return Record{
		X:    mat.Row(nil, i, d.X),
		Z:    mat.Row(nil, i, d.Z),
		U0:   d.U.At(i, 0),
		U1:   d.U.At(i, 1),
		UC:   d.U.At(i, 2),
		V:    d.V[i],
		Y0:   d.Y0[i],
		Y1:   d.Y1[i],
		Cost: d.Cost[i],
		D:    d.D[i],
		Y:    d.Y[i],
	}
}

// Effects returns Y1 - Y0 per agent.
func (d *Dataset) Effects() []float64 {
	effects := make([]float64, d.Len())
	for i := range effects {
		effects[i] = d.Y1[i] - d.Y0[i]
	}
	return effects
}

// Simulator runs simulations and logs their progress.
type Simulator struct {
	logger *zap.Logger
}

// NewSimulator creates a Simulator; a nil logger discards output.
func NewSimulator(logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{logger: logger}
}

// Run simulates one population from params, drawing from src. In
// deterministic mode covariates collapse to their means, latents are zero and
// src is not consumed.
func (s *Simulator) Run(params model.ModelParameters, src *rand.Rand) (*Dataset, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	n := params.Agents

	var (
		ds  Dataset
		err error
	)
	if params.Deterministic {
		s.logger.Debug("deterministic mode, collapsing covariates and latents to their means",
			zap.String("op", "simulation.Run"),
			zap.Int("agents", n),
		)
		if ds.X, err = covariates.Means(n, params.OutcomeSpec()); err != nil {
			return nil, err
		}
		if ds.Z, err = covariates.Means(n, params.CostSpec()); err != nil {
			return nil, err
		}
		if ds.U, ds.V, err = unobservables.Zero(n); err != nil {
			return nil, err
		}
	} else {
		if ds.X, err = covariates.Generate(src, n, params.OutcomeSpec()); err != nil {
			return nil, fmt.Errorf("outcome covariates: %w", err)
		}
		if ds.Z, err = covariates.Generate(src, n, params.CostSpec()); err != nil {
			return nil, fmt.Errorf("cost covariates: %w", err)
		}
		if ds.U, ds.V, err = unobservables.Sample(src, params.Distribution, n); err != nil {
			return nil, fmt.Errorf("unobservables: %w", err)
		}
	}

	res, err := outcomes.Simulate(ds.X, ds.Z, ds.U, outcomes.Coefficients{
		Untreated: params.Untreated,
		Treated:   params.Treated,
		Cost:      params.Cost,
	})
	if err != nil {
		return nil, fmt.Errorf("outcomes: %w", err)
	}
	ds.Y, ds.D, ds.Y1, ds.Y0, ds.Cost = res.Y, res.D, res.Y1, res.Y0, res.Cost

	s.logger.Info("simulation complete",
		zap.String("op", "simulation.Run"),
		zap.Int("agents", n),
		zap.Int("treated", ds.Treated()),
		zap.Bool("deterministic", params.Deterministic),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &ds, nil
}

// RunSeeded runs one simulation on a fresh stream created from seed.
func (s *Simulator) RunSeeded(params model.ModelParameters, seed uint64) (*Dataset, error) {
	return s.Run(params, rng.New(seed))
}

// RunReplications runs count independent simulations. Replication i draws
// from rng.Derive(seed, i), so the result does not depend on workers. A
// workers value below one uses GOMAXPROCS.
func (s *Simulator) RunReplications(ctx context.Context, params model.ModelParameters, seed uint64, count, workers int) ([]*Dataset, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: replication count must be positive, got %d", model.ErrMalformedParameters, count)
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	s.logger.Info("starting replications",
		zap.String("op", "simulation.RunReplications"),
		zap.Int("replications", count),
		zap.Int("workers", workers),
		zap.Uint64("seed", seed),
	)

	results := make([]*Dataset, count)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ds, err := s.Run(params, rng.Derive(seed, i))
			if err != nil {
				return fmt.Errorf("replication %d: %w", i, err)
			}
			results[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MTE computes the marginal treatment effect profile of a dataset at the
// given quantiles. Deterministic runs use the degenerate distribution.
func MTE(params model.ModelParameters, ds *Dataset, quantiles []float64) ([]mte.Point, error) {
	dist := params.Distribution
	if params.Deterministic {
		dist = model.Degenerate()
	}
	computer, err := mte.NewComputer(params.Untreated, params.Treated, dist, ds.X)
	if err != nil {
		return nil, err
	}
	profile, err := computer.Profile(quantiles)
	if err != nil {
		return nil, err
	}
	return mte.Collect(profile), nil
}
