package providers

import (
	"errors"
	"io"

	"github.com/chefstream/chefstream/internal/stream"
)

// Stream is the lazy, finite, non-restartable sequence of chunks one
// generation call produces. It is consumed sequentially by a single
// caller; Close aborts the underlying network stream so the upstream
// connection is not left open.
type Stream struct {
	provider string
	body     io.ReadCloser
	dec      stream.Decoder
	parse    frameFunc

	pending  []stream.Chunk
	readBuf  []byte
	finished bool
	doneSent bool
	closed   bool
}

func newStream(provider string, body io.ReadCloser, dec stream.Decoder, parse frameFunc) *Stream {
	return &Stream{
		provider: provider,
		body:     body,
		dec:      dec,
		parse:    parse,
		readBuf:  make([]byte, 4096),
	}
}

// Next returns the next chunk. After the terminal Done chunk it returns
// io.EOF.
func (s *Stream) Next() (stream.Chunk, error) {
	for {
		if len(s.pending) > 0 {
			chunk := s.pending[0]
			s.pending = s.pending[1:]

			return chunk, nil
		}

		if s.doneSent {
			return stream.Chunk{}, io.EOF
		}

		if s.finished {
			s.doneSent = true
			s.close()

			return stream.Chunk{Done: true}, nil
		}

		if err := s.fill(); err != nil {
			s.close()
			return stream.Chunk{}, err
		}
	}
}

// fill reads from the network once and converts any completed frames
// into pending chunks.
func (s *Stream) fill() error {
	n, err := s.body.Read(s.readBuf)
	if n > 0 {
		s.consume(s.dec.Feed(s.readBuf[:n]))
	}

	if err != nil {
		if !errors.Is(err, io.EOF) {
			return err
		}

		s.consume(s.dec.Flush())
		s.finished = true
	}

	return nil
}

func (s *Stream) consume(frames [][]byte) {
	if s.finished {
		return
	}

	for _, frame := range frames {
		chunk, skip, done := s.parse(frame)

		if done {
			s.finished = true
			return
		}

		if skip {
			continue
		}

		if chunk.Content != "" {
			s.pending = append(s.pending, chunk)
		}
	}
}

// Close aborts the stream. Safe to call at any point, including after the
// stream is exhausted.
func (s *Stream) Close() error {
	return s.close()
}

func (s *Stream) close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	return s.body.Close()
}

// Collect drains the stream and returns the concatenated text. Intended
// for one-shot callers and tests.
func (s *Stream) Collect() (string, error) {
	defer s.Close()

	var out []byte

	for {
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) || (err == nil && chunk.Done) {
			return string(out), nil
		}

		if err != nil {
			return string(out), err
		}

		out = append(out, chunk.Content...)
	}
}
