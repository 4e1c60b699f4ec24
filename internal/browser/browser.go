// Package browser wraps the headless-browser rendering engine behind a small
// session interface so the extraction engine can be driven against fakes.
package browser

import (
	"context"
)

// Cookie is one opaque session token supplied by the caller. Attributes
// beyond name and value are optional and passed through to the browser.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	SameSite string `json:"sameSite,omitempty"`
	// Expires is seconds since the epoch; browser exports emit it with a
	// fractional part.
	Expires float64 `json:"expirationDate,omitempty"`
}

// Session is one live rendering session. All methods honor ctx for
// cancellation; implementations add their own per-call timeouts.
type Session interface {
	// Navigate loads url and waits for the page to be ready.
	Navigate(ctx context.Context, url string) error
	// Evaluate runs a JavaScript expression and unmarshals its result
	// into out. Pass nil to discard the result.
	Evaluate(ctx context.Context, js string, out any) error
	// SetCookie applies one session token to the browser profile.
	SetCookie(ctx context.Context, c Cookie) error
	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)
	// Close releases the session and its browser resources.
	Close()
}

// Launcher acquires rendering sessions. The chromedp implementation spawns a
// fresh headless Chrome per session; tests return fakes.
type Launcher interface {
	NewSession(ctx context.Context) (Session, error)
}
