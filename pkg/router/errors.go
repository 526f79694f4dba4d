package router

import (
	"errors"
	"fmt"

	"github.com/starline-networks/pwa-gateway/pkg/policy"
)

// ErrOriginUnreachable is returned when the origin fetch failed and no
// cached fallback could serve the request.
var ErrOriginUnreachable = errors.New("origin unreachable")

// GatewayError represents a request failure with strategy context.
type GatewayError struct {
	Strategy   policy.Strategy
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s error (status %d): %s: %v",
			e.Strategy, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway %s error (status %d): %s",
		e.Strategy, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *GatewayError) Unwrap() error {
	return e.Err
}

func unreachable(strategy policy.Strategy, err error) error {
	return &GatewayError{
		Strategy: strategy,
		Message:  "origin fetch failed",
		Err:      fmt.Errorf("%w: %w", ErrOriginUnreachable, err),
	}
}
