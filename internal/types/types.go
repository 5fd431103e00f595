package types

import "time"

// Request represents a one-shot HTTP request.
//
// Headers are raw "Name: Value" lines. Their order is preserved on the wire
// and duplicate names are allowed. Body is attached to the outgoing request
// whenever it is non-empty, regardless of method.
type Request struct {
	URL     string   `json:"url" yaml:"url"`
	Method  string   `json:"method" yaml:"method"`
	Headers []string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string   `json:"body,omitempty" yaml:"body,omitempty"`
}

// Response contains the result of an executed request.
//
// Headers holds the response header lines (status line first) with empty
// lines filtered out. Body is always valid UTF-8; execution fails otherwise.
type Response struct {
	Status  int      `json:"status" yaml:"status"`
	Headers []string `json:"headers" yaml:"headers"`
	Body    string   `json:"body" yaml:"body"`
}

// Handle identifies an open connection in a manager's registry.
//
// Handles are allocated from a monotonic counter and stay valid until the
// connection is closed; closing one connection never renumbers the others.
type Handle int64

// ConnState describes where a connection is in its lifecycle.
type ConnState string

const (
	// StateConnecting covers the dial/handshake window, before the
	// connection is visible in the registry.
	StateConnecting ConnState = "connecting"
	// StateOpen means the connection is registered and reachable by handle.
	StateOpen ConnState = "open"
	// StateClosed means the connection was removed from the registry.
	StateClosed ConnState = "closed"
)

// ConnectionInfo is a point-in-time snapshot of a registered connection.
type ConnectionInfo struct {
	Handle    Handle    `json:"handle"`
	URL       string    `json:"url"`
	Proto     string    `json:"proto"`
	State     ConnState `json:"state"`
	OpenedAt  time.Time `json:"openedAt"`
	SentCount int64     `json:"sentCount"`
}

// HistoryEntry represents a saved request/response pair.
type HistoryEntry struct {
	ID              int64    `json:"id"`
	Timestamp       string   `json:"timestamp"`
	Method          string   `json:"method"`
	URL             string   `json:"url"`
	Headers         []string `json:"headers,omitempty"`
	Body            string   `json:"body,omitempty"`
	ResponseStatus  int      `json:"responseStatus"`
	ResponseHeaders []string `json:"responseHeaders,omitempty"`
	ResponseBody    string   `json:"responseBody,omitempty"`
	Duration        int64    `json:"duration"` // milliseconds
	Error           string   `json:"error,omitempty"`
}
