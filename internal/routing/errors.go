package routing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRequestKind is returned for request kinds with no routing policy.
var ErrUnknownRequestKind = errors.New("unknown request kind")

// AllProvidersFailedError is the terminal routing failure: every candidate in
// the fallback order failed. It carries the original triggering error, the
// first failure that started the fallback walk, and the list of attempted
// provider names.
type AllProvidersFailedError struct {
	Kind      string
	Attempted []string
	Cause     error
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all providers failed for %s (attempted: %s): %v",
		e.Kind, strings.Join(e.Attempted, ", "), e.Cause)
}

func (e *AllProvidersFailedError) Unwrap() error {
	return e.Cause
}
