package guacd

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"

	"guacd/internal/metrics"
	"guacd/internal/protocol"
	"guacd/internal/registry"
)

// ErrUnknownConnection is returned when a resume handshake names a UUID not
// present in the registry (§7 "Handoff" error kind).
var ErrUnknownConnection = errors.New("guacd: resume for unknown connection")

// ErrBadHandshake is returned when the first instruction on a new socket is
// neither connect nor resume, or is otherwise malformed.
var ErrBadHandshake = errors.New("guacd: invalid handshake")

// pause releases the I/O-ownership semaphore (owned→released), the only
// legal transition out of "owned" (§3, §4.7). It is non-blocking: if
// already released, the send is dropped rather than double-buffered.
func (c *Client) pause() {
	select {
	case c.released <- struct{}{}:
	default:
	}
}

// adoptPendingStream checks for a stream delivered by a resume handshake
// and, if present, installs it as c.stream and closes the previous one.
// Called from the owning event loop between iterations (§4.6 step 1). It
// never blocks: it only drains a handoff if one is already pending.
func (c *Client) adoptPendingStream() error {
	select {
	case next := <-c.newStream:
		old := c.stream
		c.stream = next
		if old != nil {
			return old.Close()
		}
		return nil
	default:
		return nil
	}
}

// resumeHandoff is the new socket's half of a resume handshake (§4.7): it
// blocks on the released→owned transition (waiting for the prior loop to
// reach a `pause`), then swaps in the new stream and returns. The existing
// event loop — not this goroutine — continues driving the connection.
func resumeHandoff(c *Client, newStream *protocol.Stream) error {
	<-c.released // blocks until the owning loop pauses
	select {
	case c.newStream <- newStream:
		return nil
	default:
		// Buffer full should be unreachable: the semaphore serializes
		// resumes to one in flight at a time.
		return fmt.Errorf("guacd: handoff already pending for %s", c.id)
	}
}

// Daemon ties the registry, backend driver registry, and connect/resume
// handshake together (§4.7 "Handoff coordinator"). It is the entry point
// for every newly accepted socket.
type Daemon struct {
	Registry *registry.Registry
	Drivers  *DriverRegistry
}

// NewDaemon creates a Daemon with a fresh registry.
func NewDaemon(drivers *DriverRegistry) *Daemon {
	return &Daemon{
		Registry: registry.New(),
		Drivers:  drivers,
	}
}

// HandleConn runs the handshake for a freshly accepted socket and, on a
// successful connect, the event loop itself (blocking until the connection
// terminates). On a successful resume it returns promptly once the handoff
// completes, leaving the original connection's loop running in its own
// goroutine.
func (d *Daemon) HandleConn(conn net.Conn, driverName string, driverArgs []string) error {
	stream := protocol.Open(conn)

	instr, result, err := protocol.ReadInstruction(stream)
	for err == nil && result == protocol.NeedMore {
		instr, result, err = protocol.ReadInstruction(stream)
	}
	if err != nil || result != protocol.Complete {
		stream.Close()
		return fmt.Errorf("%w: handshake read failed", ErrBadHandshake)
	}

	switch instr.Opcode {
	case "connect":
		return d.handleConnect(stream, driverName, driverArgs)
	case "resume":
		return d.handleResume(stream, instr.Args)
	default:
		metrics.HandshakeRejections.WithLabelValues("bad_opcode").Inc()
		stream.Close()
		return fmt.Errorf("%w: opcode %q", ErrBadHandshake, instr.Opcode)
	}
}

func (d *Daemon) handleConnect(stream *protocol.Stream, driverName string, driverArgs []string) error {
	client := NewClient(stream)
	d.Registry.Register(client)

	encoded := base64.StdEncoding.EncodeToString(client.id[:])
	if err := protocol.SendID(stream, encoded); err != nil {
		d.Registry.Remove(client.id)
		stream.Close()
		return fmt.Errorf("guacd: send id: %w", err)
	}
	if err := stream.Flush(); err != nil {
		d.Registry.Remove(client.id)
		stream.Close()
		return fmt.Errorf("guacd: flush id: %w", err)
	}

	driver, ok := d.Drivers.Lookup(driverName)
	if !ok {
		d.Registry.Remove(client.id)
		stream.Close()
		metrics.Errors.WithLabelValues("unknown_driver").Inc()
		return fmt.Errorf("guacd: unknown driver %q", driverName)
	}

	if err := driver.Init(client, driverArgs); err != nil {
		d.Registry.Remove(client.id)
		stream.Close()
		metrics.Errors.WithLabelValues("driver_init").Inc()
		return fmt.Errorf("guacd: driver init: %w", err)
	}

	metrics.Connects.Inc()
	return RunLoop(client, d.Registry)
}

func (d *Daemon) handleResume(stream *protocol.Stream, args []string) error {
	if len(args) != 1 {
		stream.Close()
		return fmt.Errorf("%w: resume requires exactly one argument", ErrBadHandshake)
	}

	raw, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil || len(raw) != 16 {
		stream.Close()
		return fmt.Errorf("%w: malformed uuid", ErrBadHandshake)
	}

	id, err := uuid.FromBytes(raw)
	if err != nil {
		stream.Close()
		return fmt.Errorf("%w: malformed uuid", ErrBadHandshake)
	}

	entry, ok := d.Registry.Find(id)
	if !ok {
		metrics.HandshakeRejections.WithLabelValues("unknown_uuid").Inc()
		stream.Close()
		return fmt.Errorf("%w: %s", ErrUnknownConnection, id)
	}

	client, ok := entry.(*Client)
	if !ok {
		stream.Close()
		return fmt.Errorf("guacd: registry entry %s is not a Client", id)
	}

	if err := resumeHandoff(client, stream); err != nil {
		return err
	}
	metrics.Resumes.Inc()
	return nil
}
