package config

import (
	"fmt"
	"strings"

	"github.com/grmpy/grmpy-go/pkg/constants"
	"github.com/grmpy/grmpy-go/pkg/model"
	"github.com/spf13/cast"
)

// ParseCovariateTypes converts raw type entries into covariate columns.
// A nil entry is treated as nonbinary.
func ParseCovariateTypes(raw []interface{}) ([]model.CovariateColumn, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	columns := make([]model.CovariateColumn, len(raw))
	for i, entry := range raw {
		switch v := entry.(type) {
		case nil:
		case string:
			if !strings.EqualFold(strings.TrimSpace(v), constants.CovariateNonBinary) {
				return nil, fmt.Errorf("column %d: unknown covariate type %q", i, v)
			}
		default:
			m, err := cast.ToStringMapE(v)
			if err != nil {
				return nil, fmt.Errorf("column %d: unsupported covariate type %v", i, v)
			}
			p, ok := m[constants.CovariateBinary]
			if !ok || len(m) != 1 {
				return nil, fmt.Errorf("column %d: expected a single %q key, got %v", i, constants.CovariateBinary, v)
			}
			prob, err := cast.ToFloat64E(p)
			if err != nil {
				return nil, fmt.Errorf("column %d: binary probability: %w", i, err)
			}
			columns[i] = model.CovariateColumn{Binary: true, Probability: prob}
		}
	}
	return columns, nil
}

// FormatCovariateTypes is the inverse of ParseCovariateTypes.
func FormatCovariateTypes(columns []model.CovariateColumn) []interface{} {
	if len(columns) == 0 {
		return nil
	}
	raw := make([]interface{}, len(columns))
	for i, c := range columns {
		if c.Binary {
			raw[i] = map[string]interface{}{constants.CovariateBinary: c.Probability}
		} else {
			raw[i] = constants.CovariateNonBinary
		}
	}
	return raw
}
