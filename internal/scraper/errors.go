// Package scraper implements the extraction engine: the
// scroll-extract-deduplicate control loop that runs one job against a
// rendering session and produces the tabular artifact.
package scraper

import "fmt"

// SessionExpiredError reports that the rendering session landed on a login
// or checkpoint page. Callers use it to prompt for fresh session tokens
// instead of retrying.
type SessionExpiredError struct {
	Location string
}

func (e *SessionExpiredError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("session expired: landed on %s", e.Location)
	}
	return "session expired: login markers present on page"
}

// NavigationError reports that navigation failed after exhausting the retry
// budget.
type NavigationError struct {
	URL      string
	Attempts int
	Cause    error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Cause)
}

func (e *NavigationError) Unwrap() error {
	return e.Cause
}
