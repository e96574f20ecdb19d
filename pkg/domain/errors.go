package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration      = errors.New("configuration error")
	ErrModelUnavailable   = errors.New("classification unavailable")
	ErrPersistence        = errors.New("persistence failure")
	ErrResetFailed        = errors.New("administrative reset failure")
	ErrOriginBlocked      = errors.New("origin blocked")
	ErrInvalidObservation = errors.New("invalid observation")
)

type modelUnavailableError struct {
	Detector string
	Cause    error
}

func (e *modelUnavailableError) Error() string {
	return fmt.Sprintf("detector '%s' unavailable: %v", e.Detector, e.Cause)
}

func (e *modelUnavailableError) Unwrap() []error {
	return []error{ErrModelUnavailable, e.Cause}
}

func NewModelUnavailableError(detector string, cause error) error {
	return &modelUnavailableError{
		Detector: detector,
		Cause:    cause,
	}
}

// FailedDetector returns the name of the detector that caused a ModelUnavailable error.
func FailedDetector(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var unavailable *modelUnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.Detector, true
	}
	return "", false
}

func NewConfigurationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func NewPersistenceError(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, cause)
}

func NewResetError(cause error) error {
	return fmt.Errorf("%w: %w", ErrResetFailed, cause)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
