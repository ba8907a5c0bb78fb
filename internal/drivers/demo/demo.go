// Package demo is a minimal illustrative BackendDriver exercising the full
// plugin boundary end to end (§6). It is NOT an RFB implementation — RFB
// translation is explicitly out of scope for the core (spec.md §1); this
// driver exists only so the daemon, registry, and event loop can be
// exercised without a real remote-desktop backend, loosely shaped after
// original_source/guacamole/proxy/vnc_client.c's init pattern (allocate
// backend state, set all five handlers, send initial name/size).
package demo

import (
	"fmt"
	"image"
	"image/color"

	"guacd/internal/guacd"
	"guacd/internal/protocol"
)

// Name is the `-p` value that selects this driver.
const Name = "demo"

// state is the backend-managed data stored in Client.Data, analogous to
// vnc_client.c's vnc_guac_client_data.
type state struct {
	width, height int
	frame         int
}

// Driver implements guacd.BackendDriver.
type Driver struct {
	DesktopName   string
	Width, Height int
}

// New returns a Driver with sensible defaults.
func New() *Driver {
	return &Driver{DesktopName: "demo desktop", Width: 640, Height: 480}
}

// Init sends the initial name/size handshake instructions and installs all
// five handler slots (§6, §4.5).
func (d *Driver) Init(conn *guacd.Client, args []string) error {
	conn.Data = &state{width: d.Width, height: d.Height}

	stream := conn.Stream()
	if err := protocol.SendName(stream, d.DesktopName); err != nil {
		return fmt.Errorf("demo: send name: %w", err)
	}
	if err := protocol.SendSize(stream, d.Width, d.Height); err != nil {
		return fmt.Errorf("demo: send size: %w", err)
	}
	if err := stream.Flush(); err != nil {
		return fmt.Errorf("demo: flush init: %w", err)
	}

	conn.HandleMessages = handleMessages
	conn.MouseHandler = handleMouse
	conn.KeyHandler = handleKey
	conn.ClipboardHandler = handleClipboard
	conn.FreeHandler = handleFree

	return nil
}

// handleMessages stands in for a backend's frame pump: every tenth call it
// emits a single-pixel PNG update so the png encoder path in
// internal/protocol gets exercised by anything driving this demo driver.
func handleMessages(conn *guacd.Client) error {
	st, ok := conn.Data.(*state)
	if !ok {
		return fmt.Errorf("demo: unexpected backend state type")
	}
	st.frame++
	if st.frame%10 != 0 {
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 0x20, G: 0x80, B: 0xF0, A: 0xFF})
	return protocol.SendPNG(conn.Stream(), 0, 0, img)
}

func handleMouse(conn *guacd.Client, x, y, buttonMask int) error {
	return nil
}

func handleKey(conn *guacd.Client, keysym int, pressed bool) error {
	return nil
}

func handleClipboard(conn *guacd.Client, text string) error {
	return nil
}

func handleFree(conn *guacd.Client) error {
	conn.Data = nil
	return nil
}
