package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/studiowebux/reqly/internal/transport"
	"github.com/studiowebux/reqly/internal/types"
)

const (
	// commandQueueSize bounds the actor's inbox; a full queue blocks
	// enqueuers (backpressure).
	commandQueueSize = 32

	// writeTimeout bounds a single network write inside the actor so one
	// stalled peer cannot wedge the command loop forever.
	writeTimeout = 10 * time.Second
)

var (
	// ErrClosed is returned once the manager has been shut down.
	ErrClosed = errors.New("conn: manager closed")

	// ErrUnknownHandle is returned on acknowledged operations that address
	// a handle not present in the registry.
	ErrUnknownHandle = errors.New("conn: unknown handle")
)

// DialFunc opens a stream for a URL. It exists so tests can substitute
// transports for the real dialer.
type DialFunc func(ctx context.Context, rawURL string, opts *transport.Options) (transport.Stream, error)

// Config configures a Manager.
type Config struct {
	// Logger receives registry events and dropped delivery failures.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Dial opens streams. Defaults to transport.Dial.
	Dial DialFunc

	// Transport options passed through to every dial.
	Transport *transport.Options

	// QueueSize overrides the command queue capacity. Defaults to 32.
	QueueSize int
}

// connection pairs a stream with its registry bookkeeping.
type connection struct {
	handle    types.Handle
	stream    transport.Stream
	openedAt  time.Time
	sentCount atomic.Int64
}

// command is one actor message. The actor is the only goroutine that
// mutates the registry, so apply methods never race each other.
type command interface {
	apply(m *Manager)
}

type registerCmd struct {
	stream transport.Stream
	reply  chan types.Handle
}

type sendCmd struct {
	handle  types.Handle
	payload []byte
	ack     chan error // nil for fire-and-forget
}

type closeCmd struct {
	handle types.Handle
	ack    chan error // nil for fire-and-forget
}

// Manager owns a registry of open connections addressed by handle.
//
// All mutation flows through a single actor goroutine fed by a bounded FIFO
// queue: Connect registers the freshly dialed stream through the queue and
// waits for its handle, Send and Close enqueue and return. The strict FIFO
// gives a total order across all send/close commands, so two sends on the
// same handle reach the wire in issue order, and a send enqueued after a
// close observes the closed registry.
type Manager struct {
	logger *slog.Logger
	dial   DialFunc
	topts  *transport.Options

	commands chan command
	done     chan struct{} // closed when the actor exits

	mu    sync.RWMutex
	conns map[types.Handle]*connection
	next  types.Handle // next handle to assign; starts at 1, never reused

	closeOnce sync.Once
	closed    chan struct{}
	enqueueMu sync.RWMutex // excludes enqueue while the queue is being closed
}

// NewManager creates a manager and starts its actor.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dial := cfg.Dial
	if dial == nil {
		dial = transport.Dial
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = commandQueueSize
	}

	m := &Manager{
		logger:   logger,
		dial:     dial,
		topts:    cfg.Transport,
		commands: make(chan command, queueSize),
		done:     make(chan struct{}),
		conns:    make(map[types.Handle]*connection),
		next:     1,
		closed:   make(chan struct{}),
	}
	go m.run()
	return m
}

// run is the actor loop: it consumes commands in arrival order until the
// queue is closed, then closes every remaining connection.
func (m *Manager) run() {
	defer close(m.done)

	for cmd := range m.commands {
		cmd.apply(m)
	}

	m.mu.Lock()
	remaining := make([]*connection, 0, len(m.conns))
	for h, cn := range m.conns {
		remaining = append(remaining, cn)
		delete(m.conns, h)
	}
	m.mu.Unlock()

	for _, cn := range remaining {
		if err := cn.stream.Close(); err != nil {
			m.logger.Debug("close on shutdown failed",
				"handle", cn.handle, "url", cn.stream.URL(), "error", err)
		}
	}
}

func (m *Manager) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

// enqueue places cmd on the actor's queue, blocking while the queue is
// full. It fails once the manager is shut down or ctx is done.
func (m *Manager) enqueue(ctx context.Context, cmd command) error {
	m.enqueueMu.RLock()
	defer m.enqueueMu.RUnlock()

	if m.isClosed() {
		return ErrClosed
	}
	select {
	case m.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connect dials rawURL, registers the resulting stream and returns its
// handle. The call blocks for the whole handshake; concurrent Connect calls
// receive handles in the order their registrations reach the actor, not the
// order the handshakes started.
func (m *Manager) Connect(ctx context.Context, rawURL string) (types.Handle, error) {
	stream, err := m.dial(ctx, rawURL, m.topts)
	if err != nil {
		return 0, fmt.Errorf("connect %s: %w", rawURL, err)
	}

	reply := make(chan types.Handle, 1)
	if err := m.enqueue(ctx, &registerCmd{stream: stream, reply: reply}); err != nil {
		_ = stream.Close()
		return 0, err
	}

	// The registration is already queued and will be applied; waiting on
	// the reply cannot deadlock because the actor never blocks on reply
	// channels.
	handle := <-reply
	return handle, nil
}

// Send enqueues a message for handle and returns once the command is
// queued. Delivery is fire-and-forget: a later write failure is logged and
// dropped, and a send to an unknown handle has no effect. Use SendAck for
// delivery confirmation.
func (m *Manager) Send(ctx context.Context, handle types.Handle, payload []byte) error {
	return m.enqueue(ctx, &sendCmd{handle: handle, payload: payload})
}

// SendAck is Send with delivery confirmation: the returned channel yields
// nil after the write succeeds, the write error if it fails, or
// ErrUnknownHandle if the handle is not registered.
func (m *Manager) SendAck(ctx context.Context, handle types.Handle, payload []byte) (<-chan error, error) {
	ack := make(chan error, 1)
	if err := m.enqueue(ctx, &sendCmd{handle: handle, payload: payload, ack: ack}); err != nil {
		return nil, err
	}
	return ack, nil
}

// Close enqueues removal of handle. Closing an unknown or already-closed
// handle has no effect and reports no error.
func (m *Manager) Close(ctx context.Context, handle types.Handle) error {
	return m.enqueue(ctx, &closeCmd{handle: handle})
}

// Receive reads the next message from handle's stream. The read happens in
// the caller, not the actor, so a quiet peer never stalls the command loop.
func (m *Manager) Receive(ctx context.Context, handle types.Handle) ([]byte, error) {
	m.mu.RLock()
	cn := m.conns[handle]
	m.mu.RUnlock()

	if cn == nil {
		return nil, ErrUnknownHandle
	}
	return cn.stream.Receive(ctx)
}

// ListConnections returns a point-in-time snapshot of the registry, sorted
// by handle.
func (m *Manager) ListConnections() []types.ConnectionInfo {
	m.mu.RLock()
	infos := make([]types.ConnectionInfo, 0, len(m.conns))
	for _, cn := range m.conns {
		infos = append(infos, types.ConnectionInfo{
			Handle:    cn.handle,
			URL:       cn.stream.URL(),
			Proto:     cn.stream.Proto(),
			State:     types.StateOpen,
			OpenedAt:  cn.openedAt,
			SentCount: cn.sentCount.Load(),
		})
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Handle < infos[j].Handle })
	return infos
}

// Shutdown stops accepting commands, lets the actor drain its queue and
// closes every remaining connection. It is idempotent.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.closeOnce.Do(func() {
		m.enqueueMu.Lock()
		close(m.closed)
		close(m.commands)
		m.enqueueMu.Unlock()
	})

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *registerCmd) apply(m *Manager) {
	m.mu.Lock()
	handle := m.next
	m.next++
	m.conns[handle] = &connection{
		handle:   handle,
		stream:   c.stream,
		openedAt: time.Now(),
	}
	m.mu.Unlock()

	c.reply <- handle
	m.logger.Info("connection opened",
		"handle", handle, "proto", c.stream.Proto(), "url", c.stream.URL())
}

func (c *sendCmd) apply(m *Manager) {
	m.mu.RLock()
	cn := m.conns[c.handle]
	m.mu.RUnlock()

	if cn == nil {
		if c.ack != nil {
			c.ack <- ErrUnknownHandle
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	err := cn.stream.Send(ctx, c.payload)
	cancel()

	if err != nil {
		// Fire-and-forget: the caller already returned, so the failure
		// is only logged unless an ack was requested.
		m.logger.Warn("send failed", "handle", c.handle, "error", err)
	} else {
		cn.sentCount.Add(1)
	}
	if c.ack != nil {
		c.ack <- err
	}
}

func (c *closeCmd) apply(m *Manager) {
	m.mu.Lock()
	cn, ok := m.conns[c.handle]
	if ok {
		delete(m.conns, c.handle)
	}
	m.mu.Unlock()

	if !ok {
		if c.ack != nil {
			c.ack <- ErrUnknownHandle
		}
		return
	}

	err := cn.stream.Close()
	if err != nil {
		m.logger.Warn("close failed", "handle", c.handle, "error", err)
	} else {
		m.logger.Info("connection closed", "handle", c.handle, "url", cn.stream.URL())
	}
	if c.ack != nil {
		c.ack <- err
	}
}
