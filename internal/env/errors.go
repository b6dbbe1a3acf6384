package env

import (
	"errors"
	"fmt"
)

var (
	// ErrMissing is returned when a declared variable is absent.
	ErrMissing = errors.New("environment variable is not set")
	// ErrUndeclared is returned for names outside the contract.
	ErrUndeclared = errors.New("environment variable is not part of the contract")
)

func missingError(k Key) error {
	return fmt.Errorf("%s: %w", k, ErrMissing)
}

func undeclaredError(k Key) error {
	return fmt.Errorf("%s: %w", k, ErrUndeclared)
}
