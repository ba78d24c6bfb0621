package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const (
	readChunkSize  = 4096
	writeChunkSize = 8192
)

// ReadMessage accumulates bytes from r until they form one complete
// message: a parseable JSON document, or a bare token terminated by a
// newline or EOF. Partial socket reads are expected; the reader simply
// keeps appending until the buffer parses.
func ReadMessage(r io.Reader) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, readChunkSize)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if msg := completeMessage(buf); msg != nil {
				return msg, nil
			}
		}
		if err != nil {
			msg := bytes.TrimSpace(buf)
			if len(msg) > 0 {
				return msg, nil
			}
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading message: %w", err)
		}
	}
}

// completeMessage returns the trimmed message if buf holds a full one,
// nil otherwise.
func completeMessage(buf []byte) []byte {
	msg := bytes.TrimSpace(buf)
	if len(msg) == 0 {
		return nil
	}
	if json.Valid(msg) {
		return msg
	}
	// A bare control token is complete once a newline arrives.
	if msg[0] != '{' && msg[0] != '[' && msg[0] != '"' && bytes.ContainsRune(buf, '\n') {
		return msg
	}
	return nil
}

// WriteMessage sends data in bounded chunks. Bitmap responses can run
// to several megabytes of base64; chunking keeps each write below the
// typical socket buffer size.
func WriteMessage(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > writeChunkSize {
			n = writeChunkSize
		}
		if _, err := w.Write(data[:n]); err != nil {
			return fmt.Errorf("writing message: %w", err)
		}
		data = data[n:]
	}
	return nil
}

// WriteResponse marshals and sends a response envelope.
func WriteResponse(w io.Writer, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	return WriteMessage(w, data)
}
