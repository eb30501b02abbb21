package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrNoData        = errors.New("no data")
	ErrMissingColumn = errors.New("missing column")
	ErrEmptyPayload  = errors.New("empty payload")

	// Aggregation errors
	ErrInvalidOutcome = errors.New("invalid outcome value")
	ErrInvalidWeight  = errors.New("invalid weight")
	ErrNonNumeric     = errors.New("non-numeric value")
	ErrRowWidth       = errors.New("row width does not match columns")
)

// NewMissingColumnError reports a required column that is absent from a table.
func NewMissingColumnError(role, column string) error {
	return fmt.Errorf("%w: %s column %q", ErrMissingColumn, role, column)
}

func NewInvalidOutcomeError(column string, row int, raw string) error {
	return fmt.Errorf("%w: column %q row %d value %q", ErrInvalidOutcome, column, row, raw)
}

func NewNonNumericError(column string, row int, raw string) error {
	return fmt.Errorf("%w: column %q row %d value %q", ErrNonNumeric, column, row, raw)
}

// Error checking helpers
func IsMissingColumnError(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}

func IsNoDataError(err error) bool {
	return errors.Is(err, ErrNoData)
}
