package protocol

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

// drip feeds its payload to readers a few bytes at a time, simulating
// partial socket reads.
type drip struct {
	data []byte
	step int
}

func (d *drip) Read(p []byte) (int, error) {
	if len(d.data) == 0 {
		return 0, io.EOF
	}
	n := d.step
	if n > len(d.data) {
		n = len(d.data)
	}
	copy(p, d.data[:n])
	d.data = d.data[n:]
	return n, nil
}

func TestReadMessage_WholeDocument(t *testing.T) {
	raw := `{"status": "success", "results": [1, 2]}`
	msg, err := ReadMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if string(msg) != raw {
		t.Errorf("got %q", msg)
	}
}

func TestReadMessage_PartialReads(t *testing.T) {
	raw := `{"cmds": ["one", "two", "three"]}`
	msg, err := ReadMessage(&drip{data: []byte(raw), step: 3})
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if string(msg) != raw {
		t.Errorf("got %q, want %q", msg, raw)
	}
}

func TestReadMessage_BareTokenNewline(t *testing.T) {
	msg, err := ReadMessage(&drip{data: []byte("get_image_bitmap\n"), step: 5})
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if string(msg) != "get_image_bitmap" {
		t.Errorf("got %q", msg)
	}
}

func TestReadMessage_BareTokenEOF(t *testing.T) {
	msg, err := ReadMessage(strings.NewReader("disable_auto_disconnect"))
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if string(msg) != "disable_auto_disconnect" {
		t.Errorf("got %q", msg)
	}
}

func TestReadMessage_EmptyEOF(t *testing.T) {
	_, err := ReadMessage(strings.NewReader(""))
	if err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestWriteMessage_Chunked(t *testing.T) {
	// Larger than one chunk: the writer must deliver all of it.
	payload := bytes.Repeat([]byte("x"), writeChunkSize*3+17)
	var buf bytes.Buffer
	if err := WriteMessage(&buf, payload); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Errorf("payload corrupted: got %d bytes, want %d", buf.Len(), len(payload))
	}
}

func TestWriteResponse_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, Success([]string{"ok"})); err != nil {
		t.Fatalf("WriteResponse failed: %v", err)
	}
	msg, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(msg, &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != StatusSuccess {
		t.Errorf("status: got %q", resp.Status)
	}
}
