// Package chunked implements the chunked HTTP body streamer spec.md §4.5
// describes, ported from Netty's HttpChunkedInput: it wraps a lazy
// byte-chunk Source and appends exactly one terminator chunk once the
// source is exhausted.
package chunked

// Allocator stands in for Netty's ByteBufAllocator. The streamer never
// allocates itself; it only threads this through to Source.ReadChunk.
type Allocator interface{}

// Source is a lazy producer of byte chunks. ReadChunk may return
// ok=false with no error to mean "no chunk is ready yet, but the source
// is not exhausted" (spec.md §4.5's "source returns none, not yet
// ready").
type Source interface {
	// IsEnd reports whether the source is permanently exhausted.
	IsEnd() (bool, error)
	// ReadChunk returns the next chunk, or ok=false if none is ready yet.
	ReadChunk(alloc Allocator) (chunk []byte, ok bool, err error)
	// Length returns the total size in bytes if known, or -1.
	Length() int64
	// Progress returns the number of bytes produced so far.
	Progress() int64
	// Close releases the source's resources.
	Close() error
}

// HttpContent is the unit the streamer produces: either a data chunk, or
// the terminator (Last == true), which always carries the trailing
// headers if any were configured.
type HttpContent struct {
	Data     []byte
	Trailers map[string][]string
	Last     bool
}

// Streamer turns a Source into a sequence of HttpContent chunks followed
// by exactly one terminator.
type Streamer struct {
	source         Source
	terminator     HttpContent
	sentTerminator bool
}

// New wraps source, terminating with a zero-length, trailer-free chunk.
func New(source Source) *Streamer {
	return &Streamer{source: source, terminator: HttpContent{Last: true}}
}

// NewWithTerminator wraps source, terminating with last instead of the
// default empty terminator — use this to carry trailing headers.
func NewWithTerminator(source Source, last HttpContent) *Streamer {
	last.Last = true
	return &Streamer{source: source, terminator: last}
}

// IsEnd reports true iff the source is exhausted and the terminator has
// already been emitted (spec.md §4.5 / §8: exactly one terminator, only
// after exhaustion).
func (s *Streamer) IsEnd() (bool, error) {
	end, err := s.source.IsEnd()
	if err != nil {
		return false, err
	}
	if !end {
		return false, nil
	}
	return s.sentTerminator, nil
}

// ReadChunk returns the next HttpContent. ok is false if nothing is
// ready yet and the stream is not finished (the source's "transient
// none"); once the source is exhausted, the first ReadChunk call returns
// the terminator and every call after that returns ok=false forever.
func (s *Streamer) ReadChunk(alloc Allocator) (content HttpContent, ok bool, err error) {
	end, err := s.source.IsEnd()
	if err != nil {
		return HttpContent{}, false, err
	}
	if end {
		if s.sentTerminator {
			return HttpContent{}, false, nil
		}
		s.sentTerminator = true
		return s.terminator, true, nil
	}

	buf, ready, err := s.source.ReadChunk(alloc)
	if err != nil {
		return HttpContent{}, false, err
	}
	if !ready {
		return HttpContent{}, false, nil
	}
	return HttpContent{Data: buf}, true, nil
}

// Length delegates directly to the wrapped source.
func (s *Streamer) Length() int64 { return s.source.Length() }

// Progress delegates directly to the wrapped source.
func (s *Streamer) Progress() int64 { return s.source.Progress() }

// Close delegates directly to the wrapped source.
func (s *Streamer) Close() error { return s.source.Close() }
