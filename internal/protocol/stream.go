// Package protocol implements the display-protocol wire codec: framed
// text instructions with an embedded base64 sub-stream for binary payloads.
package protocol

import (
	"net"
	"time"
)

const (
	outBufCap     = 8192
	inBufInitSize = 4096

	// selectInterval is the read-deadline granularity used while waiting
	// for more instruction bytes; it doubles as the event loop's heartbeat
	// (§5 "Reads use a 1 ms poll as a heartbeat").
	selectInterval = time.Millisecond
)

var base64Alphabet = [64]byte{
	'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P',
	'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z', 'a', 'b', 'c', 'd', 'e', 'f',
	'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v',
	'w', 'x', 'y', 'z', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '+', '/',
}

// Stream is the buffered bidirectional I/O adapter on top of a single
// net.Conn. It owns an outbound buffer, a 3-byte base64 accumulator, and a
// growable inbound buffer, matching §4.1 of the display protocol.
//
// A Stream is not safe for concurrent reads and writes from multiple
// goroutines; §5 assigns a Stream's read side to exactly one event-loop
// goroutine at a time, with ownership transferred only between loop
// iterations by the handoff coordinator.
type Stream struct {
	conn net.Conn

	outBuf []byte

	b64acc  [3]byte
	b64fill int

	inBuf  []byte
	inUsed int
}

// Open wraps conn in a Stream ready for use.
func Open(conn net.Conn) *Stream {
	return &Stream{
		conn:   conn,
		outBuf: make([]byte, 0, outBufCap),
		inBuf:  make([]byte, inBufInitSize),
	}
}

// WriteString appends raw bytes to the outbound buffer, flushing first if
// the write would overflow the buffer's capacity.
func (s *Stream) WriteString(str string) error {
	return s.writeRaw([]byte(str))
}

// WriteInt appends the ASCII decimal representation of v.
func (s *Stream) WriteInt(v int) error {
	var buf [20]byte
	n := formatInt(buf[:], v)
	return s.writeRaw(buf[:n])
}

func (s *Stream) writeRaw(b []byte) error {
	if len(b)+len(s.outBuf) > cap(s.outBuf) {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	if len(b) > cap(s.outBuf) {
		// Larger than the whole buffer: write through directly.
		_, err := s.conn.Write(b)
		return err
	}
	s.outBuf = append(s.outBuf, b...)
	return nil
}

// WriteBase64 feeds bytes into the 3-byte accumulator, emitting one
// 4-character base64 group to the outbound buffer each time it fills.
func (s *Stream) WriteBase64(data []byte) error {
	for _, c := range data {
		s.b64acc[s.b64fill] = c
		s.b64fill++
		if s.b64fill == 3 {
			if err := s.writeBase64Group(int(s.b64acc[0]), int(s.b64acc[1]), int(s.b64acc[2])); err != nil {
				return err
			}
			s.b64fill = 0
		}
	}
	return nil
}

// FlushBase64 emits the final base64 group (with `=` padding as needed from
// the 1- or 2-byte residue), resets the accumulator, and leaves the stream
// position on a base64-group boundary. Must be called before writing
// non-base64 data after a base64 region.
func (s *Stream) FlushBase64() error {
	switch s.b64fill {
	case 0:
		return nil
	case 1:
		err := s.writeBase64Group(int(s.b64acc[0]), -1, -1)
		s.b64fill = 0
		return err
	case 2:
		err := s.writeBase64Group(int(s.b64acc[0]), int(s.b64acc[1]), -1)
		s.b64fill = 0
		return err
	}
	return nil
}

// writeBase64Group encodes one triplet, using -1 for bytes b/c that are not
// yet available (the tail-padding case), mirroring guacio.c's
// __write_base64_triplet bit slicing exactly.
func (s *Stream) writeBase64Group(a, b, c int) error {
	var group [4]byte

	group[0] = base64Alphabet[(a&0xFC)>>2]

	if b >= 0 {
		group[1] = base64Alphabet[((a&0x03)<<4)|((b&0xF0)>>4)]
		if c >= 0 {
			group[2] = base64Alphabet[((b&0x0F)<<2)|((c&0xC0)>>6)]
			group[3] = base64Alphabet[c&0x3F]
		} else {
			group[2] = base64Alphabet[(b&0x0F)<<2]
			group[3] = '='
		}
	} else {
		group[1] = base64Alphabet[(a&0x03)<<4]
		group[2] = '='
		group[3] = '='
	}

	return s.writeRaw(group[:])
}

// Buffered reports how many outbound bytes are waiting for the next Flush.
func (s *Stream) Buffered() int { return len(s.outBuf) }

// Flush writes the outbound buffer to the underlying connection and clears
// it.
func (s *Stream) Flush() error {
	if len(s.outBuf) == 0 {
		return nil
	}
	_, err := s.conn.Write(s.outBuf)
	s.outBuf = s.outBuf[:0]
	return err
}

// fillInbound waits up to d for more bytes, appending whatever arrives to
// the inbound buffer and doubling its capacity once more than half of it is
// used. It folds guac's select()+recv() pair into the one syscall-pair Go
// naturally offers (SetReadDeadline + Read). Returns the number of bytes
// appended; 0 with a nil error means the deadline elapsed with nothing to
// read (NeedMore, not fatal).
func (s *Stream) fillInbound(d time.Duration) (int, error) {
	if s.inUsed > len(s.inBuf)/2 {
		grown := make([]byte, len(s.inBuf)*2)
		copy(grown, s.inBuf[:s.inUsed])
		s.inBuf = grown
	}

	if err := s.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
		return 0, err
	}
	n, err := s.conn.Read(s.inBuf[s.inUsed:])
	s.inUsed += n
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, nil
		}
		return n, err
	}
	return n, nil
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying net.Conn.
func (s *Stream) Conn() net.Conn { return s.conn }

func formatInt(buf []byte, v int) int {
	if v == 0 {
		buf[0] = '0'
		return 1
	}
	neg := v < 0
	if neg {
		v = -v
	}
	start := len(buf)
	i := start
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return copy(buf, buf[i:start])
}
