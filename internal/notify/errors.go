package notify

import "errors"

// Sentinel errors for notification delivery.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTransportUnavailable indicates the TLS connection could not be
	// established or failed mid-exchange. Retry policy lives at the call
	// site; Send never retries internally.
	ErrTransportUnavailable = errors.New("notify: transport unavailable")

	// ErrResponseTimeout indicates no complete status line arrived within
	// the configured response timeout.
	ErrResponseTimeout = errors.New("notify: response timeout")

	// ErrNonSuccessStatus indicates the endpoint answered with a status
	// code outside 2xx. The error message carries the raw response for
	// diagnostics.
	ErrNonSuccessStatus = errors.New("notify: non-success status")
)
