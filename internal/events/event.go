// Package events provides the per-job progress bus: a single-writer,
// multi-reader publish point for log, progress and terminal events.
package events

// Type identifies the kind of event carried on a bus.
type Type string

const (
	// TypeLog is a free-text log line from the extraction engine.
	TypeLog Type = "log"
	// TypeProgress reports per-iteration counters.
	TypeProgress Type = "progress"
	// TypeDone is the terminal success event carrying the download reference.
	TypeDone Type = "done"
	// TypeError is the terminal failure event.
	TypeError Type = "error"
)

// ErrKindSessionExpired marks errors callers should treat as "refresh your
// session tokens" rather than a retryable failure.
const ErrKindSessionExpired = "session-expired"

// Event is the discriminated record published on a job's bus. Fields are
// populated according to Type; everything else is left zero.
type Event struct {
	Type Type `json:"type"`

	// TypeLog
	Message string `json:"message,omitempty"`

	// TypeProgress
	Iteration  int `json:"i,omitempty"`
	Total      int `json:"total,omitempty"`
	FoundPosts int `json:"foundPosts,omitempty"`
	FoundNums  int `json:"foundNumbers,omitempty"`

	// TypeDone
	DownloadURL string `json:"downloadUrl,omitempty"`
	FileName    string `json:"fileName,omitempty"`

	// TypeError
	ErrKind string `json:"kind,omitempty"`
}

// Terminal reports whether the event closes the bus for business traffic.
func (e Event) Terminal() bool {
	return e.Type == TypeDone || e.Type == TypeError
}

// Log builds a log event.
func Log(msg string) Event {
	return Event{Type: TypeLog, Message: msg}
}

// Progress builds a progress event.
func Progress(iteration, total, foundPosts, foundNums int) Event {
	return Event{
		Type:       TypeProgress,
		Iteration:  iteration,
		Total:      total,
		FoundPosts: foundPosts,
		FoundNums:  foundNums,
	}
}

// Done builds the terminal success event.
func Done(downloadURL, fileName string) Event {
	return Event{Type: TypeDone, DownloadURL: downloadURL, FileName: fileName}
}

// Error builds a terminal failure event. kind may be empty for generic
// failures; use ErrKindSessionExpired for authentication expiry.
func Error(message, kind string) Event {
	return Event{Type: TypeError, Message: message, ErrKind: kind}
}
