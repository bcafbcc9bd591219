package stream

import (
	"bytes"
	"strings"
)

// SSEDecoder frames Server-Sent Events streams. It emits the payload of
// every `data:` line as one frame, drops comments and event-type lines,
// and carries a partial trailing line across reads.
type SSEDecoder struct {
	carry []byte
}

func NewSSEDecoder() *SSEDecoder {
	return &SSEDecoder{}
}

func (d *SSEDecoder) Feed(p []byte) [][]byte {
	d.carry = append(d.carry, p...)

	var frames [][]byte

	for {
		idx := bytes.IndexByte(d.carry, '\n')
		if idx < 0 {
			break
		}

		line := d.carry[:idx]
		d.carry = d.carry[idx+1:]

		if frame, ok := sseDataPayload(line); ok {
			frames = append(frames, frame)
		}
	}

	return frames
}

// Flush drains a final unterminated line. Some upstreams close the
// connection without a trailing newline after the last event.
func (d *SSEDecoder) Flush() [][]byte {
	if len(d.carry) == 0 {
		return nil
	}

	line := d.carry
	d.carry = nil

	if frame, ok := sseDataPayload(line); ok {
		return [][]byte{frame}
	}

	return nil
}

func sseDataPayload(line []byte) ([]byte, bool) {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" || strings.HasPrefix(trimmed, ":") {
		return nil, false
	}

	if !strings.HasPrefix(trimmed, "data:") {
		// event:/id:/retry: lines carry no payload for our purposes
		return nil, false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(trimmed, "data:"))
	if payload == "" {
		return nil, false
	}

	return []byte(payload), true
}
