package protocol

import (
	"fmt"
	"image"
	"image/png"
)

// base64Writer adapts Stream.WriteBase64 to an io.Writer so the stdlib PNG
// encoder can be pointed directly at the base64 sub-stream, the same way
// guac_send_png (protocol.c) redirects libpng's output through
// guac_write_base64 via png_set_write_fn.
type base64Writer struct {
	s   *Stream
	err error
}

func (w *base64Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if err := w.s.WriteBase64(p); err != nil {
		w.err = err
		return 0, err
	}
	return len(p), nil
}

// SendPNG emits png:x,y,<base64 png>; streaming the PNG encoding of img
// directly through the stream's base64 sub-stream. On an encoder error the
// caller must terminate the connection (§4.3).
func SendPNG(s *Stream, x, y int, img image.Image) error {
	if err := s.WriteString("png:"); err != nil {
		return err
	}
	if err := s.WriteInt(x); err != nil {
		return err
	}
	if err := s.WriteString(","); err != nil {
		return err
	}
	if err := s.WriteInt(y); err != nil {
		return err
	}
	if err := s.WriteString(","); err != nil {
		return err
	}

	bw := &base64Writer{s: s}
	if err := png.Encode(bw, img); err != nil {
		return fmt.Errorf("protocol: png encode: %w", err)
	}
	if bw.err != nil {
		return fmt.Errorf("protocol: png stream: %w", bw.err)
	}

	if err := s.FlushBase64(); err != nil {
		return err
	}
	return s.WriteString(";")
}
