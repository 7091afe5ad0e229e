package quote

import (
	"errors"
	"fmt"
)

var (
	// ErrSimulationUnavailable means no quote can be computed for the input yet.
	// It is distinct from a quote that computed to zero.
	ErrSimulationUnavailable = errors.New("simulation unavailable")
	ErrFetchFailed           = errors.New("fetch failed")
)

// fetchError wraps a collaborator failure as ErrFetchFailed unless the
// collaborator already reported the input as unquotable.
func fetchError(what string, err error) error {
	if errors.Is(err, ErrSimulationUnavailable) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrFetchFailed, what, err)
}
