package protocol

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestSendNameEscapesArgument(t *testing.T) {
	server, client := pipeStreams()
	defer server.Close()
	defer client.Close()

	go func() {
		SendName(client, "a;b")
		client.Flush()
	}()

	instr, result, err := ReadInstruction(server)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != Complete {
		t.Fatalf("expected Complete, got %v", result)
	}
	if instr.Opcode != "name" {
		t.Fatalf("opcode = %q, want name", instr.Opcode)
	}
	if Unescape(instr.Args[0]) != "a;b" {
		t.Fatalf("unescaped name = %q, want a;b", Unescape(instr.Args[0]))
	}
}

func TestSendSize(t *testing.T) {
	server, client := pipeStreams()
	defer server.Close()
	defer client.Close()

	go func() {
		SendSize(client, 1024, 768)
		client.Flush()
	}()

	instr, result, err := ReadInstruction(server)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != Complete || instr.Opcode != "size" {
		t.Fatalf("unexpected instruction: %+v result=%v err=%v", instr, result, err)
	}
	if len(instr.Args) != 2 || instr.Args[0] != "1024" || instr.Args[1] != "768" {
		t.Fatalf("args = %v, want [1024 768]", instr.Args)
	}
}

func TestSendPNGRoundTrip(t *testing.T) {
	server, client := pipeStreams()
	defer server.Close()
	defer client.Close()

	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 0xFF, A: 0xFF})
	img.Set(1, 0, color.RGBA{G: 0xFF, A: 0xFF})

	errc := make(chan error, 1)
	go func() {
		err := SendPNG(client, 0, 0, img)
		if err == nil {
			err = client.Flush()
		}
		errc <- err
	}()

	instr, result, err := ReadInstruction(server)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("SendPNG: %v", err)
	}
	if result != Complete || instr.Opcode != "png" {
		t.Fatalf("unexpected instruction: %+v result=%v", instr, result)
	}
	if len(instr.Args) != 3 {
		t.Fatalf("args = %v, want 3 elements", instr.Args)
	}
	if instr.Args[0] != "0" || instr.Args[1] != "0" {
		t.Fatalf("x,y = %s,%s, want 0,0", instr.Args[0], instr.Args[1])
	}

	decoded, err := base64.StdEncoding.DecodeString(instr.Args[2])
	if err != nil {
		t.Fatalf("base64 decode: %v", err)
	}

	got, err := png.Decode(bytes.NewReader(decoded))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	if got.Bounds().Dx() != 2 || got.Bounds().Dy() != 1 {
		t.Fatalf("decoded size = %v, want 2x1", got.Bounds())
	}
	r, g, _, a := got.At(0, 0).RGBA()
	if r>>8 != 0xFF || a>>8 != 0xFF || g>>8 != 0 {
		t.Fatalf("pixel (0,0) decoded wrong: r=%d g=%d a=%d", r>>8, g>>8, a>>8)
	}
}
