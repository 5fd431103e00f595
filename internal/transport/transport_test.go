package transport

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// newEchoWebSocketServer starts a ws server that echoes every message back
func newEchoWebSocketServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msgType, message, err := conn.ReadMessage()
			if err != nil {
				break
			}
			conn.WriteMessage(msgType, message)
		}
	}))
	return server, "ws" + strings.TrimPrefix(server.URL, "http")
}

// TestDial_WebSocketEcho tests the ws stream end to end
func TestDial_WebSocketEcho(t *testing.T) {
	server, wsURL := newEchoWebSocketServer(t)
	defer server.Close()

	ctx := context.Background()
	stream, err := Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer stream.Close()

	if stream.Proto() != "ws" {
		t.Errorf("Expected proto 'ws', got: %s", stream.Proto())
	}
	if stream.URL() != wsURL {
		t.Errorf("Expected URL %s, got: %s", wsURL, stream.URL())
	}

	if err := stream.Send(ctx, []byte("ping")); err != nil {
		t.Fatalf("Expected no send error, got: %v", err)
	}

	msg, err := stream.Receive(ctx)
	if err != nil {
		t.Fatalf("Expected no receive error, got: %v", err)
	}
	if string(msg) != "ping" {
		t.Errorf("Expected echo 'ping', got: %s", msg)
	}
}

// TestDial_WebSocketHandshakeHeaders tests handshake header propagation
func TestDial_WebSocketHandshakeHeaders(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Custom-Header")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{}
	header.Set("X-Custom-Header", "test-value")

	stream, err := Dial(context.Background(), wsURL, &Options{Header: header})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	stream.Close()

	if got != "test-value" {
		t.Errorf("Expected handshake header 'test-value', got: %q", got)
	}
}

// TestDial_WebSocketRefused tests handshake failure
func TestDial_WebSocketRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Dial(ctx, "ws://localhost:1", nil)
	if err == nil {
		t.Fatal("Expected connection error, got none")
	}
	if !strings.Contains(err.Error(), "connection failed") {
		t.Errorf("Expected 'connection failed' error, got: %v", err)
	}
}

// TestDial_TCPEcho tests the tcp stream end to end
func TestDial_TCPEcho(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer listener.Close()

	go func() {
		for {
			c, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 1024)
				for {
					n, err := c.Read(buf)
					if err != nil {
						return
					}
					c.Write(buf[:n])
				}
			}(c)
		}
	}()

	ctx := context.Background()
	stream, err := Dial(ctx, "tcp://"+listener.Addr().String(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer stream.Close()

	if stream.Proto() != "tcp" {
		t.Errorf("Expected proto 'tcp', got: %s", stream.Proto())
	}

	if err := stream.Send(ctx, []byte("hello tcp")); err != nil {
		t.Fatalf("Expected no send error, got: %v", err)
	}
	msg, err := stream.Receive(ctx)
	if err != nil {
		t.Fatalf("Expected no receive error, got: %v", err)
	}
	if string(msg) != "hello tcp" {
		t.Errorf("Expected echo 'hello tcp', got: %s", msg)
	}
}

// TestDial_UDPEcho tests the udp stream end to end
func TestDial_UDPEcho(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer pc.Close()

	go func() {
		buf := make([]byte, 2048)
		for {
			n, addr, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			pc.WriteTo(buf[:n], addr)
		}
	}()

	ctx := context.Background()
	stream, err := Dial(ctx, "udp://"+pc.LocalAddr().String(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer stream.Close()

	if stream.Proto() != "udp" {
		t.Errorf("Expected proto 'udp', got: %s", stream.Proto())
	}

	if err := stream.Send(ctx, []byte("hello udp")); err != nil {
		t.Fatalf("Expected no send error, got: %v", err)
	}
	msg, err := stream.Receive(ctx)
	if err != nil {
		t.Fatalf("Expected no receive error, got: %v", err)
	}
	if string(msg) != "hello udp" {
		t.Errorf("Expected echo 'hello udp', got: %s", msg)
	}
}

// TestDial_UnsupportedScheme tests scheme validation
func TestDial_UnsupportedScheme(t *testing.T) {
	_, err := Dial(context.Background(), "ftp://example.com", nil)
	if err == nil {
		t.Fatal("Expected error for unsupported scheme, got none")
	}
	if !strings.Contains(err.Error(), "unsupported scheme") {
		t.Errorf("Expected 'unsupported scheme' error, got: %v", err)
	}
}

// TestReceive_ContextDeadline tests that a read honors the ctx deadline
func TestReceive_ContextDeadline(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer listener.Close()

	go func() {
		c, err := listener.Accept()
		if err != nil {
			return
		}
		// Hold the connection open without sending anything
		defer c.Close()
		time.Sleep(2 * time.Second)
	}()

	stream, err := Dial(context.Background(), "tcp://"+listener.Addr().String(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = stream.Receive(ctx)
	if err == nil {
		t.Fatal("Expected deadline error, got none")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected timely failure, took: %v", elapsed)
	}
}
