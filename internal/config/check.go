package config

import (
	"errors"
	"fmt"

	"github.com/grmpy/grmpy-go/pkg/validation"
)

// Check performs the consistency checks on the configuration. Problems that
// make a run impossible are returned as a single joined error; oddities that
// still allow a run are returned as warnings.
func (c *Configuration) Check() ([]string, error) {
	var warnings []string
	var errs []error

	if c.Simulation.Agents <= 0 {
		errs = append(errs, fmt.Errorf("simulation.agents must be positive, got %d", c.Simulation.Agents))
	}
	if c.Simulation.Replications < 0 {
		errs = append(errs, fmt.Errorf("simulation.replications must not be negative, got %d", c.Simulation.Replications))
	}
	if len(c.Treated.Coeff) == 0 {
		errs = append(errs, errors.New("treated.coeff must not be empty"))
	}
	if len(c.Treated.Coeff) != len(c.Untreated.Coeff) {
		errs = append(errs, fmt.Errorf("treated and untreated must have the same number of coefficients (%d != %d)",
			len(c.Treated.Coeff), len(c.Untreated.Coeff)))
	}
	if len(c.Cost.Coeff) == 0 {
		errs = append(errs, errors.New("cost.coeff must not be empty"))
	}
	if len(c.Dist.Coeff) != 6 {
		errs = append(errs, fmt.Errorf("dist.coeff must have 6 entries, got %d", len(c.Dist.Coeff)))
	} else {
		for i, v := range c.Dist.Coeff[:3] {
			if v < 0 {
				errs = append(errs, fmt.Errorf("dist.coeff[%d] is a variance and must not be negative, got %v", i, v))
			}
		}
	}

	for _, eq := range []struct {
		name string
		cfg  EquationConfig
	}{{"treated", c.Treated}, {"cost", c.Cost}} {
		columns, err := ParseCovariateTypes(eq.cfg.Types)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.types: %w", eq.name, err))
			continue
		}
		if len(columns) > len(eq.cfg.Coeff) {
			errs = append(errs, fmt.Errorf("%s.types has %d entries for %d coefficients", eq.name, len(columns), len(eq.cfg.Coeff)))
		}
		for i, col := range columns {
			if col.Binary && (col.Probability < 0 || col.Probability > 1) {
				errs = append(errs, fmt.Errorf("%s.types[%d]: binary probability %v outside [0, 1]", eq.name, i, col.Probability))
			}
		}
		if len(columns) > 0 && columns[0].Binary {
			warnings = append(warnings, fmt.Sprintf("%s.types[0] is the intercept; the binary marker is ignored", eq.name))
		}
	}
	if len(c.Untreated.Types) > 0 {
		warnings = append(warnings, "untreated.types is ignored; outcome covariate types are read from treated.types")
	}

	for _, eq := range []struct {
		name  string
		coeff []float64
	}{{"treated", c.Treated.Coeff}, {"untreated", c.Untreated.Coeff}, {"cost", c.Cost.Coeff}} {
		if len(eq.coeff) > 0 && allZero(eq.coeff) {
			warnings = append(warnings, fmt.Sprintf("all %s coefficients are zero", eq.name))
		}
	}

	if err := validation.ValidateOutputFormat(c.OutputFormat()); err != nil {
		errs = append(errs, err)
	}
	if err := validation.ValidateQuantiles(c.Output.Quantiles); err != nil {
		errs = append(errs, err)
	}

	return warnings, errors.Join(errs...)
}

func allZero(x []float64) bool {
	for _, v := range x {
		if v != 0 {
			return false
		}
	}
	return true
}
