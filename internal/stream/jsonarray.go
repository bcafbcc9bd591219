package stream

// JSONArrayDecoder frames a JSON array emitted incrementally, the shape
// Gemini uses for streamGenerateContent: the response opens with `[`,
// elements arrive comma-separated, and the array closes with `]`. Element
// boundaries can land anywhere relative to network reads, so the decoder
// tracks brace depth and string state byte by byte and emits each
// complete top-level object as one frame.
type JSONArrayDecoder struct {
	buf      []byte
	depth    int
	inString bool
	escaped  bool
	started  bool
}

func NewJSONArrayDecoder() *JSONArrayDecoder {
	return &JSONArrayDecoder{}
}

func (d *JSONArrayDecoder) Feed(p []byte) [][]byte {
	var frames [][]byte

	for _, b := range p {
		if d.inString {
			d.buf = append(d.buf, b)

			switch {
			case d.escaped:
				d.escaped = false
			case b == '\\':
				d.escaped = true
			case b == '"':
				d.inString = false
			}

			continue
		}

		switch b {
		case '{':
			d.depth++
			d.started = true
			d.buf = append(d.buf, b)
		case '}':
			d.depth--
			d.buf = append(d.buf, b)

			if d.depth == 0 && d.started {
				frames = append(frames, d.take())
			}
		case '"':
			if d.started {
				d.inString = true
				d.buf = append(d.buf, b)
			}
		case '[', ']', ',':
			// array punctuation between elements
			if d.depth > 0 {
				d.buf = append(d.buf, b)
			}
		default:
			if d.depth > 0 {
				d.buf = append(d.buf, b)
			}
		}
	}

	return frames
}

func (d *JSONArrayDecoder) Flush() [][]byte {
	// A well-formed array never leaves a partial element behind; anything
	// buffered here is truncated JSON and is dropped rather than emitted.
	d.buf = nil
	d.depth = 0
	d.inString = false
	d.escaped = false

	return nil
}

func (d *JSONArrayDecoder) take() []byte {
	frame := make([]byte, len(d.buf))
	copy(frame, d.buf)
	d.buf = d.buf[:0]
	d.started = false

	return frame
}
