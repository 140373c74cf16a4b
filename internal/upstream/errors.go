// Package upstream holds error types shared by the clients that talk to the
// BOM websites. Kept separate so the scraper and the weather API client can
// report fetch failures in one shape without depending on each other.
package upstream

import "fmt"

// StatusError reports a non-success HTTP status from an upstream call,
// carrying the status code and reason text for passthrough to clients.
type StatusError struct {
	Status int
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Reason)
}
