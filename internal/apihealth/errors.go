// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package apihealth

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Faults raised by the tracker and the remote client. Test with errors.Is.
var (
	// ErrInvalidRequest marks a request the API rejected (400/403) or a
	// sustained client-error rate. It concerns one record only.
	ErrInvalidRequest = eris.New("invalid request")

	// ErrRateLimited means 429 responses persisted past the tolerated count.
	ErrRateLimited = eris.New("rate limited")

	// ErrServerError means 5xx responses or timeouts persisted.
	ErrServerError = eris.New("server error")

	// ErrAPIHealth means too many consecutive failures or too high an
	// overall failure rate.
	ErrAPIHealth = eris.New("api health check failed")
)

// IsRunLevel reports whether err must stop the whole run rather than
// just the current record.
func IsRunLevel(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrServerError) ||
		errors.Is(err, ErrAPIHealth)
}

// IsInvalidRequest reports whether err is a record-level request fault.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}
