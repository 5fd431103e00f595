package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
)

// Large enough for any practical datagram.
const udpReadBufferSize = 65535

// udpStream is a connected UDP socket: sends go to the dial target and only
// datagrams from that target are received.
type udpStream struct {
	rawURL string
	conn   net.Conn
}

func dialUDP(ctx context.Context, u *url.URL, opts *Options) (Stream, error) {
	d := net.Dialer{Timeout: opts.handshakeTimeout()}
	conn, err := d.DialContext(ctx, "udp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return &udpStream{rawURL: u.String(), conn: conn}, nil
}

func (s *udpStream) Send(ctx context.Context, payload []byte) error {
	if err := s.conn.SetWriteDeadline(deadlineFromContext(ctx)); err != nil {
		return err
	}
	_, err := s.conn.Write(payload)
	return err
}

func (s *udpStream) Receive(ctx context.Context) ([]byte, error) {
	if err := s.conn.SetReadDeadline(deadlineFromContext(ctx)); err != nil {
		return nil, err
	}
	buf := make([]byte, udpReadBufferSize)
	n, err := s.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (s *udpStream) Close() error {
	return s.conn.Close()
}

func (s *udpStream) URL() string {
	return s.rawURL
}

func (s *udpStream) Proto() string {
	return "udp"
}
