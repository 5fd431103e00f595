// Package transport provides the per-protocol stream primitives behind the
// connection manager: dial, send, receive, close. Every protocol hides
// behind the same Stream interface so the registry machinery stays
// protocol-agnostic.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultHandshakeTimeout bounds the dial/handshake when no timeout is
// configured.
const DefaultHandshakeTimeout = 45 * time.Second

// Stream is an open network connection with the minimal capability set the
// manager needs. Implementations are safe for one concurrent reader and one
// concurrent writer; Send may be called concurrently.
type Stream interface {
	// Send writes one message/frame to the peer.
	Send(ctx context.Context, payload []byte) error

	// Receive reads the next message/frame from the peer.
	Receive(ctx context.Context) ([]byte, error)

	// Close terminates the connection. WebSocket streams attempt a
	// graceful close frame first.
	Close() error

	// URL returns the dial target.
	URL() string

	// Proto returns the protocol tag: "ws", "tcp" or "udp".
	Proto() string
}

// Options configure a dial.
type Options struct {
	// HandshakeTimeout bounds connection establishment. Zero means
	// DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration

	// Header carries extra headers for the WebSocket handshake.
	Header http.Header

	// Subprotocols lists WebSocket subprotocols to negotiate.
	Subprotocols []string
}

func (o *Options) handshakeTimeout() time.Duration {
	if o != nil && o.HandshakeTimeout > 0 {
		return o.HandshakeTimeout
	}
	return DefaultHandshakeTimeout
}

// Dial opens a stream for rawURL, choosing the protocol by scheme:
// ws/wss, tcp, or udp.
func Dial(ctx context.Context, rawURL string, opts *Options) (Stream, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		return dialWebSocket(ctx, rawURL, opts)
	case "tcp":
		return dialTCP(ctx, u, opts)
	case "udp":
		return dialUDP(ctx, u, opts)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

// deadlineFromContext translates a context deadline into a net-style
// deadline; the zero time clears any previous one.
func deadlineFromContext(ctx context.Context) time.Time {
	if deadline, ok := ctx.Deadline(); ok {
		return deadline
	}
	return time.Time{}
}
