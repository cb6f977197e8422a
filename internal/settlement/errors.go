package settlement

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate    = errors.New("invalid sale date")
	ErrInvalidField   = errors.New("invalid field")
	ErrInvalidTaxRate = errors.New("invalid tax rate")
)

// InvalidFieldError names the raw field that could not be used.
type InvalidFieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid field %s (%q): %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidFieldError) Unwrap() error { return ErrInvalidField }

type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid sale date %q: expected YYYY-MM-DD", e.Value)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }

type InvalidTaxRateError struct {
	Value string
}

func (e *InvalidTaxRateError) Error() string {
	return fmt.Sprintf("invalid tax rate %q: must be a fraction in [0, 1]", e.Value)
}

func (e *InvalidTaxRateError) Unwrap() error { return ErrInvalidTaxRate }

// IsRecordError reports whether err is a per-record computation failure.
func IsRecordError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidField) ||
		errors.Is(err, ErrInvalidTaxRate)
}
