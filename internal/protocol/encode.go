package protocol

// The Send* functions emit well-formed outbound display-protocol
// instructions (§4.3). Each writes its opcode, arguments, and terminating
// ';' directly to the Stream's outbound buffer; callers are responsible for
// calling Flush when a batch of instructions is ready to go out.

// SendID emits the connect handshake reply: id:<base64-uuid>;
func SendID(s *Stream, base64UUID string) error {
	if err := s.WriteString("id:"); err != nil {
		return err
	}
	if err := s.WriteString(base64UUID); err != nil {
		return err
	}
	return s.WriteString(";")
}

// SendName emits name:desktop_name;, escaping the name. (The original
// guac_send_name computed an escaped copy but sent the raw name — see
// DESIGN.md Open Questions; this implementation sends the escaped form,
// since spec.md §4.3 requires it.)
func SendName(s *Stream, name string) error {
	if err := s.WriteString("name:"); err != nil {
		return err
	}
	if err := s.WriteString(Escape(name)); err != nil {
		return err
	}
	return s.WriteString(";")
}

// SendSize emits size:width,height;
func SendSize(s *Stream, w, h int) error {
	if err := s.WriteString("size:"); err != nil {
		return err
	}
	if err := s.WriteInt(w); err != nil {
		return err
	}
	if err := s.WriteString(","); err != nil {
		return err
	}
	if err := s.WriteInt(h); err != nil {
		return err
	}
	return s.WriteString(";")
}

// SendCopy emits copy:srcx,srcy,w,h,dstx,dsty;
func SendCopy(s *Stream, srcx, srcy, w, h, dstx, dsty int) error {
	if err := s.WriteString("copy:"); err != nil {
		return err
	}
	ints := []int{srcx, srcy, w, h, dstx, dsty}
	for i, v := range ints {
		if i > 0 {
			if err := s.WriteString(","); err != nil {
				return err
			}
		}
		if err := s.WriteInt(v); err != nil {
			return err
		}
	}
	return s.WriteString(";")
}

// SendCursor emits cursor:x,y,<base64 rgba png>;
func SendCursor(s *Stream, x, y int, pngRGBA []byte) error {
	if err := sendXYBase64(s, "cursor", x, y, pngRGBA); err != nil {
		return err
	}
	return nil
}

// SendClipboard emits clipboard:text;, escaping the text.
func SendClipboard(s *Stream, text string) error {
	if err := s.WriteString("clipboard:"); err != nil {
		return err
	}
	if err := s.WriteString(Escape(text)); err != nil {
		return err
	}
	return s.WriteString(";")
}

// SendError emits error:message;, escaping the message, on a best-effort
// basis before the connection closes (§7).
func SendError(s *Stream, message string) error {
	if err := s.WriteString("error:"); err != nil {
		return err
	}
	if err := s.WriteString(Escape(message)); err != nil {
		return err
	}
	return s.WriteString(";")
}

func sendXYBase64(s *Stream, opcode string, x, y int, payload []byte) error {
	if err := s.WriteString(opcode + ":"); err != nil {
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
	if err := s.WriteBase64(payload); err != nil {
		return err
	}
	if err := s.FlushBase64(); err != nil {
		return err
	}
	return s.WriteString(";")
}
