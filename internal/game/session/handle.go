// Package session provides the session directory binding client-held tokens
// to identities and rooms, the reconnect grace period, and the connection
// handle used to push events to one client.
package session

import (
	"fmt"
	"sync"
)

// Conn is the transport-facing handle for pushing serialized events to one
// connected client. Implementations must be safe for concurrent use.
type Conn interface {
	// Push enqueues data for delivery to the client.
	Push(data []byte) error
	// Close releases the handle; further Push calls fail.
	Close() error
}

// Handle routes push calls to a Go channel, bridging the session system to
// the transport's write loop. It implements Conn.
type Handle struct {
	id     string
	events chan []byte
	mu     sync.Mutex
	closed bool
}

// NewHandle creates a Handle for the given identity ID.
//
// Precondition: id must be non-empty.
// Postcondition: Returns a Handle with an open events channel.
func NewHandle(id string, bufferSize int) *Handle {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Handle{
		id:     id,
		events: make(chan []byte, bufferSize),
	}
}

// ID returns the identity the handle belongs to.
func (h *Handle) ID() string {
	return h.id
}

// Push sends data to the events channel.
//
// Postcondition: Data is enqueued, or an error if the handle is closed or
// its buffer is full. A full buffer drops the event rather than blocking the
// room's operation.
func (h *Handle) Push(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return fmt.Errorf("handle %s is closed", h.id)
	}
	select {
	case h.events <- data:
		return nil
	default:
		return fmt.Errorf("handle %s event buffer full", h.id)
	}
}

// Events returns the read-only events channel. The transport's write
// goroutine drains this channel to the wire.
func (h *Handle) Events() <-chan []byte {
	return h.events
}

// Close marks the handle as closed and closes the events channel.
//
// Postcondition: The events channel is closed. Further Push calls return an
// error. Safe to call multiple times.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.closed {
		h.closed = true
		close(h.events)
	}
	return nil
}

// IsClosed reports whether the handle has been closed.
func (h *Handle) IsClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
