// Package guacd implements the per-connection client runtime: the
// Connection object (§4.5 / C5), the event loop that drives it (§4.6 / C6),
// and the pause/resume handoff coordinator that transfers I/O ownership
// between sockets without restarting the backend session (§4.7 / C7).
package guacd

import (
	"github.com/google/uuid"

	"guacd/internal/protocol"
)

// Mouse button bits (§4.5).
const (
	ButtonLeft      = 1
	ButtonMiddle    = 2
	ButtonRight     = 4
	ButtonWheelUp   = 8
	ButtonWheelDown = 16
)

// HandleMessagesFunc is called once per event-loop iteration to give the
// backend driver a chance to push frame updates (§4.5 handle_messages). A
// non-nil return is fatal for the connection.
type HandleMessagesFunc func(c *Client) error

// MouseHandlerFunc handles a `mouse` instruction.
type MouseHandlerFunc func(c *Client, x, y, buttonMask int) error

// KeyHandlerFunc handles a `key` instruction. pressed is true for key-down.
type KeyHandlerFunc func(c *Client, keysym int, pressed bool) error

// ClipboardHandlerFunc handles a `clipboard` instruction; text has already
// been unescaped.
type ClipboardHandlerFunc func(c *Client, text string) error

// FreeHandlerFunc releases backend-managed state stored in Client.Data when
// the connection terminates.
type FreeHandlerFunc func(c *Client) error

// Client is one live connection: its identity, its current Stream, its
// backend handler slots, and whatever opaque state the backend driver
// attached. Per §3/§5, a Client is conceptually owned by its event-loop
// goroutine: only the stream reference is mutated by a foreign goroutine
// (the handoff coordinator), and only through the channel-mediated protocol
// in handoff.go so the owning loop observes a new stream only between
// iterations.
type Client struct {
	id uuid.UUID

	stream *protocol.Stream

	// newStream delivers a replacement Stream from the handoff coordinator
	// to the owning event loop. Buffered 1: at most one handoff can be
	// in flight at a time, enforced by released below.
	newStream chan *protocol.Stream

	// released is the binary handoff semaphore (§3 "Handoff signal").
	// A pending value means "released"; empty means "owned". pause sends
	// (non-blocking); resume receives (blocking).
	released chan struct{}

	// Data is arbitrary backend-managed state, read/written only by the
	// owning event-loop goroutine (§5).
	Data interface{}

	HandleMessages   HandleMessagesFunc
	MouseHandler     MouseHandlerFunc
	KeyHandler       KeyHandlerFunc
	ClipboardHandler ClipboardHandlerFunc
	FreeHandler      FreeHandlerFunc
}

// NewClient creates a Client bound to stream, generating a fresh v4 UUID
// (§3 "a v4 UUID, generated at construction").
func NewClient(stream *protocol.Stream) *Client {
	return &Client{
		id:        uuid.New(),
		stream:    stream,
		newStream: make(chan *protocol.Stream, 1),
		released:  make(chan struct{}, 1),
	}
}

// ID satisfies registry.Entry.
func (c *Client) ID() uuid.UUID { return c.id }

// Stream returns the connection's current Stream. Only the owning
// event-loop goroutine may call this between handoff checkpoints.
func (c *Client) Stream() *protocol.Stream { return c.stream }
