package protocol

import (
	"net"
	"testing"
)

func pipeStreams() (*Stream, *Stream) {
	a, b := net.Pipe()
	return Open(a), Open(b)
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain text",
		"a;b,c\\d",
		"\\s\\c\\\\",
		"trailing backslash\\",
	}
	for _, c := range cases {
		got := Unescape(Escape(c))
		if got != c {
			t.Fatalf("round trip mismatch: input %q escaped %q unescaped %q", c, Escape(c), got)
		}
	}
}

func TestEscapeProducesNoRawDelimiters(t *testing.T) {
	in := "a;b,c\\d"
	out := Escape(in)
	for i := 0; i < len(out); i++ {
		switch out[i] {
		case ';', ',':
			t.Fatalf("escaped output still contains a raw delimiter: %q", out)
		}
	}
}

func TestReadInstructionSimple(t *testing.T) {
	server, client := pipeStreams()
	defer server.Close()
	defer client.Close()

	go func() {
		client.WriteString("mouse:10,20,1;")
		client.Flush()
	}()

	instr, result, err := ReadInstruction(server)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != Complete {
		t.Fatalf("expected Complete, got %v", result)
	}
	if instr.Opcode != "mouse" {
		t.Fatalf("opcode = %q, want mouse", instr.Opcode)
	}
	if len(instr.Args) != 3 || instr.Args[0] != "10" || instr.Args[1] != "20" || instr.Args[2] != "1" {
		t.Fatalf("args = %v, want [10 20 1]", instr.Args)
	}
}

func TestReadInstructionNoArgs(t *testing.T) {
	server, client := pipeStreams()
	defer server.Close()
	defer client.Close()

	go func() {
		client.WriteString("disconnect;")
		client.Flush()
	}()

	instr, result, err := ReadInstruction(server)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != Complete {
		t.Fatalf("expected Complete, got %v", result)
	}
	if instr.Opcode != "disconnect" {
		t.Fatalf("opcode = %q, want disconnect", instr.Opcode)
	}
	if len(instr.Args) != 0 {
		t.Fatalf("args = %v, want none", instr.Args)
	}
}

func TestReadInstructionNeedMoreThenComplete(t *testing.T) {
	server, client := pipeStreams()
	defer server.Close()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		client.WriteString("clip")
		client.Flush()
		<-done
		client.WriteString("board:hello;")
		client.Flush()
	}()

	instr, result, err := ReadInstruction(server)
	if err != nil {
		t.Fatalf("unexpected error on partial read: %v", err)
	}
	if result != NeedMore {
		t.Fatalf("expected NeedMore on partial instruction, got %v (%v)", result, instr)
	}

	close(done)

	instr, result, err = ReadInstruction(server)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != Complete {
		t.Fatalf("expected Complete, got %v", result)
	}
	if instr.Opcode != "clipboard" || len(instr.Args) != 1 || instr.Args[0] != "hello" {
		t.Fatalf("unexpected instruction: %+v", instr)
	}
}

func TestReadInstructionEscapedArgument(t *testing.T) {
	server, client := pipeStreams()
	defer server.Close()
	defer client.Close()

	go func() {
		client.WriteString("clipboard:a\\cb\\sc;")
		client.Flush()
	}()

	instr, result, err := ReadInstruction(server)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != Complete {
		t.Fatalf("expected Complete, got %v", result)
	}
	got := Unescape(instr.Args[0])
	want := "a,b;c"
	if got != want {
		t.Fatalf("unescaped arg = %q, want %q", got, want)
	}
}
