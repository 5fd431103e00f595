package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsStream wraps a gorilla websocket connection. Payloads are sent as text
// frames, matching what API-testing peers expect.
type wsStream struct {
	rawURL string
	conn   *websocket.Conn

	// gorilla allows at most one concurrent writer
	writeMu sync.Mutex
}

func dialWebSocket(ctx context.Context, rawURL string, opts *Options) (Stream, error) {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.handshakeTimeout(),
	}
	var header http.Header
	if opts != nil {
		header = opts.Header
		dialer.Subprotocols = opts.Subprotocols
	}

	conn, resp, err := dialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	return &wsStream{rawURL: rawURL, conn: conn}, nil
}

func (s *wsStream) Send(ctx context.Context, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(deadlineFromContext(ctx)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *wsStream) Receive(ctx context.Context) ([]byte, error) {
	if err := s.conn.SetReadDeadline(deadlineFromContext(ctx)); err != nil {
		return nil, err
	}
	_, message, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (s *wsStream) Close() error {
	s.writeMu.Lock()
	// Best effort; the peer may already be gone.
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()
	return s.conn.Close()
}

func (s *wsStream) URL() string {
	return s.rawURL
}

func (s *wsStream) Proto() string {
	return "ws"
}
