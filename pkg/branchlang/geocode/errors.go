package geocode

import "fmt"

// NetworkError reports a failed radius-search request: unreachable service,
// non-2xx status, service-level error status, or a malformed body.
type NetworkError struct {
	PostalCode string
	// Status is the HTTP status code, zero when no response was received.
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("geocoding %s: HTTP %d: %v", e.PostalCode, e.Status, e.Err)
	}
	return fmt.Sprintf("geocoding %s: %v", e.PostalCode, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// LookupError reports a successful response that carried no county.
type LookupError struct {
	PostalCode string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("geocoding %s: no county in response", e.PostalCode)
}
