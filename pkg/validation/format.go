// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/grmpy/grmpy-go/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatText && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatText, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidateQuantiles checks that every quantile lies strictly between 0 and 1.
func ValidateQuantiles(quantiles []float64) error {
	for i, q := range quantiles {
		if !(q > 0 && q < 1) {
			return fmt.Errorf("quantile %d (%v) must lie strictly between 0 and 1", i, q)
		}
	}
	return nil
}
