package stream

import "bytes"

// LineDecoder frames newline-delimited payloads (NDJSON and the plain
// token lines some TGI deployments emit). Each non-empty line is one
// frame; a partial trailing line is carried over to the next read.
type LineDecoder struct {
	carry []byte
}

func NewLineDecoder() *LineDecoder {
	return &LineDecoder{}
}

func (d *LineDecoder) Feed(p []byte) [][]byte {
	d.carry = append(d.carry, p...)

	var frames [][]byte

	for {
		idx := bytes.IndexByte(d.carry, '\n')
		if idx < 0 {
			break
		}

		line := bytes.TrimSpace(d.carry[:idx])
		d.carry = d.carry[idx+1:]

		if len(line) > 0 {
			frame := make([]byte, len(line))
			copy(frame, line)
			frames = append(frames, frame)
		}
	}

	return frames
}

func (d *LineDecoder) Flush() [][]byte {
	line := bytes.TrimSpace(d.carry)
	d.carry = nil

	if len(line) == 0 {
		return nil
	}

	return [][]byte{line}
}
