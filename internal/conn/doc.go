/*
Package conn tracks open network connections and addresses them by handle.

# Overview

A Manager owns the authoritative registry of open connections. Callers
interact with it through four operations:

  - Connect: dial a URL (ws/wss, tcp, udp by scheme), register the stream,
    get back a handle
  - Send: queue a payload for a handle (fire-and-forget, or SendAck for a
    delivery confirmation channel)
  - Close: queue removal of a handle
  - ListConnections: point-in-time snapshot of the registry

# Concurrency Model

One actor goroutine per manager is the only mutator of the registry. Every
mutating operation travels through a bounded FIFO command queue (capacity
32): enqueueing blocks while the queue is full, which is the backpressure
callers feel, and fails with ErrClosed after shutdown.

Strict single-consumer FIFO gives a total order across all send/close
commands. Two sends on the same handle reach the wire in issue order, and a
send enqueued after a close deterministically sees the handle gone.

Connect performs the protocol handshake in the calling goroutine, then
registers through the same queue, so registration order (and therefore
handle order) is actor arrival order, not handshake start order.

Reads (ListConnections, Receive lookup) take a read lock only and never
queue behind commands. Receive performs the blocking network read in the
caller so a quiet peer cannot stall the command loop.

# Handles

Handles come from a monotonic counter. Closing a connection never renumbers
the others; a closed handle is never reused.

# Fire-and-Forget

Send returns once its command is queued. A write that fails afterwards is
logged and dropped; callers that need the outcome use SendAck. A send or
close addressed to an unknown handle is a silent no-op on the
fire-and-forget path and ErrUnknownHandle on the acknowledged path.

# Shutdown

Shutdown stops intake, drains the queue, then closes every remaining
stream. In-flight connections are not abandoned.
*/
package conn
