// Package stream implements incremental decoders for the streaming wire
// formats used by LLM vendors. A decoder turns an arbitrary sequence of
// byte reads into discrete frames, independent of where the network split
// the data. Frame payloads are vendor JSON; interpreting them is the
// adapter's job.
package stream

// Chunk is one unit of generated text surfaced to the caller. A stream
// ends with exactly one chunk where Done is true and Content is empty.
type Chunk struct {
	Content string
	Done    bool
}

// Decoder converts raw network reads into complete protocol frames.
// Feed may be called with any byte slicing of the input; partial frames
// are buffered until completed by a later read. Flush drains whatever
// remains buffered once the input is exhausted.
type Decoder interface {
	Feed(p []byte) [][]byte
	Flush() [][]byte
}
