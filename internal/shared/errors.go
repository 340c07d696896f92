package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Request errors
	ErrBadRequest = fmt.Errorf("bad request")
	ErrForbidden  = fmt.Errorf("forbidden")

	// Credential errors. ErrConfiguration is an operator mistake (missing client id/secret),
	// ErrUpstreamAuth is a failed or malformed token endpoint exchange.
	ErrConfiguration = fmt.Errorf("missing credentials")
	ErrUpstreamAuth  = fmt.Errorf("token request failed")

	// Upstream API errors
	ErrUpstreamHTTP    = fmt.Errorf("upstream returned an error status")
	ErrUpstreamNetwork = fmt.Errorf("upstream request failed")
)
