package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
)

const tcpReadBufferSize = 4096

// tcpStream wraps a raw TCP connection. Receive returns whatever bytes the
// next read yields; TCP has no message framing of its own.
type tcpStream struct {
	rawURL string
	conn   net.Conn
}

func dialTCP(ctx context.Context, u *url.URL, opts *Options) (Stream, error) {
	d := net.Dialer{Timeout: opts.handshakeTimeout()}
	conn, err := d.DialContext(ctx, "tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return &tcpStream{rawURL: u.String(), conn: conn}, nil
}

func (s *tcpStream) Send(ctx context.Context, payload []byte) error {
	if err := s.conn.SetWriteDeadline(deadlineFromContext(ctx)); err != nil {
		return err
	}
	_, err := s.conn.Write(payload)
	return err
}

func (s *tcpStream) Receive(ctx context.Context) ([]byte, error) {
	if err := s.conn.SetReadDeadline(deadlineFromContext(ctx)); err != nil {
		return nil, err
	}
	buf := make([]byte, tcpReadBufferSize)
	n, err := s.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (s *tcpStream) Close() error {
	return s.conn.Close()
}

func (s *tcpStream) URL() string {
	return s.rawURL
}

func (s *tcpStream) Proto() string {
	return "tcp"
}
