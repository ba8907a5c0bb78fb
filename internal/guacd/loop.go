package guacd

import (
	"fmt"
	"strconv"

	"guacd/internal/metrics"
	"guacd/internal/protocol"
	"guacd/internal/registry"
)

// RunLoop drives client's event loop (§4.6) until termination, then frees
// it and removes it from reg. One thread (goroutine) per connection, for
// the connection's lifetime (§5).
func RunLoop(client *Client, reg *registry.Registry) error {
	metrics.ActiveConnections.Inc()
	defer func() {
		metrics.ActiveConnections.Dec()
		reg.Remove(client.ID())
		if client.FreeHandler != nil {
			_ = client.FreeHandler(client)
		}
	}()

	for {
		// Step 1: adopt any stream handed off since the last iteration,
		// closing the one it replaces.
		if err := client.adoptPendingStream(); err != nil {
			return fmt.Errorf("guacd: closing prior stream: %w", err)
		}

		stream := client.stream

		// Step 2: let the backend push frame updates, then flush them.
		if client.HandleMessages != nil {
			if err := client.HandleMessages(client); err != nil {
				return fmt.Errorf("guacd: handle_messages: %w", err)
			}
		}
		metrics.BytesOut.Add(float64(stream.Buffered()))
		if err := stream.Flush(); err != nil {
			return fmt.Errorf("guacd: flush: %w", err)
		}

		// Steps 3-5: drain as many complete inbound instructions as are
		// currently available, dispatching each by opcode.
		for {
			instr, result, err := protocol.ReadInstruction(stream)
			if err != nil {
				return fmt.Errorf("guacd: read instruction: %w", err)
			}
			if result == protocol.NeedMore {
				break
			}

			metrics.InstructionsDispatched.WithLabelValues(instr.Opcode).Inc()
			done, err := dispatch(client, instr)
			if err != nil {
				metrics.Errors.WithLabelValues("dispatch").Inc()
				return fmt.Errorf("guacd: dispatch %s: %w", instr.Opcode, err)
			}
			if done {
				return nil
			}
		}
	}
}

// dispatch handles one parsed instruction per §4.6 step 4. It returns
// (true, nil) when the loop should terminate cleanly (disconnect).
func dispatch(client *Client, instr protocol.Instruction) (bool, error) {
	switch instr.Opcode {

	case "mouse":
		if len(instr.Args) < 3 {
			return false, fmt.Errorf("mouse: expected 3 arguments, got %d", len(instr.Args))
		}
		if client.MouseHandler == nil {
			return false, nil
		}
		x := atoi(instr.Args[0])
		y := atoi(instr.Args[1])
		mask := atoi(instr.Args[2])
		return false, client.MouseHandler(client, x, y, mask)

	case "key":
		if len(instr.Args) < 2 {
			return false, fmt.Errorf("key: expected 2 arguments, got %d", len(instr.Args))
		}
		if client.KeyHandler == nil {
			return false, nil
		}
		keysym := atoi(instr.Args[0])
		pressed := atoi(instr.Args[1]) != 0
		return false, client.KeyHandler(client, keysym, pressed)

	case "clipboard":
		if len(instr.Args) < 1 {
			return false, fmt.Errorf("clipboard: expected 1 argument, got %d", len(instr.Args))
		}
		if client.ClipboardHandler == nil {
			return false, nil
		}
		text := protocol.Unescape(instr.Args[0])
		return false, client.ClipboardHandler(client, text)

	case "pause":
		client.pause()
		return false, nil

	case "disconnect":
		return true, nil

	default:
		// Unknown opcodes are ignored rather than fatal; the wire
		// protocol may grow new instructions a given backend doesn't
		// need to react to.
		return false, nil
	}
}

// atoi parses a decimal integer argument, returning 0 on malformed input
// rather than erroring the whole dispatch — matching the original's use of
// libc atoi, which has the same silently-lenient behavior.
func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
