// Package model defines the parameter structures of the generalized Roy
// model and the error kinds shared by the simulation packages.
package model

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidCovariance indicates that the latent covariance matrix is not
	// positive semi-definite.
	ErrInvalidCovariance = errors.New("invalid covariance")

	// ErrMalformedParameters indicates a dimension mismatch or an otherwise
	// unusable parameter value.
	ErrMalformedParameters = errors.New("malformed parameters")
)

// CovariateColumn describes how a single regressor column is generated.
// Column 0 is always the intercept regardless of its description.
type CovariateColumn struct {
	Binary      bool
	Probability float64
}

// Mean is the population mean of the column when it is not the intercept.
func (c CovariateColumn) Mean() float64 {
	if c.Binary {
		return c.Probability
	}
	return 0
}

// Distribution holds the variances and covariances of (U0, U1, Uc).
type Distribution struct {
	VarU0   float64
	VarU1   float64
	VarUC   float64
	CovU0U1 float64
	CovU0UC float64
	CovU1UC float64
}

// Variances returns (Var U0, Var U1, Var Uc).
func (d Distribution) Variances() [3]float64 {
	return [3]float64{d.VarU0, d.VarU1, d.VarUC}
}

// Covariances returns (Cov(U0,U1), Cov(U0,Uc), Cov(U1,Uc)).
func (d Distribution) Covariances() [3]float64 {
	return [3]float64{d.CovU0U1, d.CovU0UC, d.CovU1UC}
}

// Coefficients returns the six distribution parameters in init-file order.
func (d Distribution) Coefficients() []float64 {
	return []float64{d.VarU0, d.VarU1, d.VarUC, d.CovU0U1, d.CovU0UC, d.CovU1UC}
}

// DistributionFromCoefficients builds a Distribution from the six init-file values.
func DistributionFromCoefficients(coeff []float64) (Distribution, error) {
	if len(coeff) != 6 {
		return Distribution{}, fmt.Errorf("%w: expected 6 distribution parameters, got %d", ErrMalformedParameters, len(coeff))
	}
	return Distribution{
		VarU0:   coeff[0],
		VarU1:   coeff[1],
		VarUC:   coeff[2],
		CovU0U1: coeff[3],
		CovU0UC: coeff[4],
		CovU1UC: coeff[5],
	}, nil
}

// Degenerate is the zero-variance distribution used in deterministic mode.
func Degenerate() Distribution {
	return Distribution{}
}

// ModelParameters is the read-only configuration of one simulation run.
type ModelParameters struct {
	Untreated      []float64
	Treated        []float64
	Cost           []float64
	Distribution   Distribution
	OutcomeColumns []CovariateColumn
	CostColumns    []CovariateColumn
	Agents         int
	Deterministic  bool
}

// OutcomeSpec returns the outcome covariate columns, defaulting every column
// to a standard normal draw when none were configured.
func (p ModelParameters) OutcomeSpec() []CovariateColumn {
	return columnSpec(p.OutcomeColumns, len(p.Treated))
}

// CostSpec returns the cost covariate columns with the same defaulting rule.
func (p ModelParameters) CostSpec() []CovariateColumn {
	return columnSpec(p.CostColumns, len(p.Cost))
}

func columnSpec(columns []CovariateColumn, n int) []CovariateColumn {
	if len(columns) == n {
		return columns
	}
	spec := make([]CovariateColumn, n)
	copy(spec, columns)
	return spec
}

// Validate checks dimensions and value ranges. It does not check the
// covariance matrix for positive semi-definiteness; the sampler does.
func (p ModelParameters) Validate() error {
	var errs []error

	if p.Agents <= 0 {
		errs = append(errs, fmt.Errorf("number of agents must be positive, got %d", p.Agents))
	}
	if len(p.Treated) == 0 {
		errs = append(errs, errors.New("treated outcome equation has no coefficients"))
	}
	if len(p.Untreated) != len(p.Treated) {
		errs = append(errs, fmt.Errorf("treated and untreated coefficient counts differ (%d != %d)", len(p.Treated), len(p.Untreated)))
	}
	if len(p.Cost) == 0 {
		errs = append(errs, errors.New("cost equation has no coefficients"))
	}
	if len(p.OutcomeColumns) > len(p.Treated) {
		errs = append(errs, fmt.Errorf("%d outcome covariate types for %d coefficients", len(p.OutcomeColumns), len(p.Treated)))
	}
	if len(p.CostColumns) > len(p.Cost) {
		errs = append(errs, fmt.Errorf("%d cost covariate types for %d coefficients", len(p.CostColumns), len(p.Cost)))
	}
	for i, c := range append(append([]CovariateColumn{}, p.OutcomeColumns...), p.CostColumns...) {
		if c.Binary && (c.Probability < 0 || c.Probability > 1 || math.IsNaN(c.Probability)) {
			errs = append(errs, fmt.Errorf("covariate %d: binary probability %v outside [0, 1]", i, c.Probability))
		}
	}
	for i, v := range p.Distribution.Variances() {
		if v < 0 || math.IsNaN(v) {
			errs = append(errs, fmt.Errorf("variance %d is negative or NaN (%v)", i, v))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrMalformedParameters, errors.Join(errs...))
}
