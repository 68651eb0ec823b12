// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/fplopt/squad-optimizer/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidatePoolSource checks if the pool source is one of the supported sources.
func ValidatePoolSource(source string) error {
	if source != constants.PoolSourceFile && source != constants.PoolSourceAPI {
		return fmt.Errorf("expected pool source of %s or %s, got %s",
			constants.PoolSourceFile, constants.PoolSourceAPI, source)
	}
	return nil
}
