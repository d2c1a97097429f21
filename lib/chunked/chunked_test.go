package chunked

import "testing"

// sliceSource hands out one chunk per ReadChunk call, with an optional
// run of "not ready yet" responses interspersed to exercise the transient
// none behavior.
type sliceSource struct {
	chunks   [][]byte
	notReady map[int]int // index -> number of not-ready responses before the real chunk
	idx      int
	progress int64
	closed   bool
}

func (s *sliceSource) IsEnd() (bool, error) {
	return s.idx >= len(s.chunks), nil
}

func (s *sliceSource) ReadChunk(Allocator) ([]byte, bool, error) {
	if n := s.notReady[s.idx]; n > 0 {
		s.notReady[s.idx] = n - 1
		return nil, false, nil
	}
	c := s.chunks[s.idx]
	s.idx++
	s.progress += int64(len(c))
	return c, true, nil
}

func (s *sliceSource) Length() int64   { return -1 }
func (s *sliceSource) Progress() int64 { return s.progress }
func (s *sliceSource) Close() error    { s.closed = true; return nil }

func TestStreamerYieldsChunksThenTerminator(t *testing.T) {
	src := &sliceSource{chunks: [][]byte{[]byte("a"), []byte("b")}}
	st := New(src)

	first, ok, err := st.ReadChunk(nil)
	if err != nil || !ok || string(first.Data) != "a" || first.Last {
		t.Fatalf("unexpected first chunk: %+v ok=%v err=%v", first, ok, err)
	}
	if end, _ := st.IsEnd(); end {
		t.Fatal("should not be at end after first chunk")
	}

	second, ok, err := st.ReadChunk(nil)
	if err != nil || !ok || string(second.Data) != "b" || second.Last {
		t.Fatalf("unexpected second chunk: %+v ok=%v err=%v", second, ok, err)
	}

	term, ok, err := st.ReadChunk(nil)
	if err != nil || !ok || !term.Last || len(term.Data) != 0 {
		t.Fatalf("unexpected terminator: %+v ok=%v err=%v", term, ok, err)
	}
	if end, _ := st.IsEnd(); !end {
		t.Fatal("expected IsEnd() true after the terminator was read")
	}

	_, ok, err = st.ReadChunk(nil)
	if err != nil || ok {
		t.Fatal("expected no further chunks after the terminator")
	}
}

func TestStreamerHandlesTransientNotReady(t *testing.T) {
	src := &sliceSource{
		chunks:   [][]byte{[]byte("x")},
		notReady: map[int]int{0: 2},
	}
	st := New(src)

	for i := 0; i < 2; i++ {
		_, ok, err := st.ReadChunk(nil)
		if err != nil || ok {
			t.Fatalf("expected a transient not-ready response, got ok=%v err=%v", ok, err)
		}
		if end, _ := st.IsEnd(); end {
			t.Fatal("should not report end while the source is merely not ready")
		}
	}

	chunk, ok, err := st.ReadChunk(nil)
	if err != nil || !ok || string(chunk.Data) != "x" {
		t.Fatalf("expected the real chunk after the not-ready run, got %+v ok=%v err=%v", chunk, ok, err)
	}
}

func TestStreamerCustomTerminatorCarriesTrailers(t *testing.T) {
	src := &sliceSource{chunks: [][]byte{[]byte("a")}}
	trailers := map[string][]string{"X-Checksum": {"abc123"}}
	st := NewWithTerminator(src, HttpContent{Trailers: trailers})

	st.ReadChunk(nil)
	term, ok, err := st.ReadChunk(nil)
	if err != nil || !ok || !term.Last {
		t.Fatalf("expected terminator, got %+v ok=%v err=%v", term, ok, err)
	}
	if term.Trailers["X-Checksum"][0] != "abc123" {
		t.Fatal("expected custom terminator's trailers to be preserved")
	}
}

func TestStreamerDelegatesLengthProgressAndClose(t *testing.T) {
	src := &sliceSource{chunks: [][]byte{[]byte("abc")}}
	st := New(src)

	if st.Length() != -1 {
		t.Fatalf("expected Length() to delegate to source, got %d", st.Length())
	}
	st.ReadChunk(nil)
	if st.Progress() != 3 {
		t.Fatalf("expected Progress() == 3, got %d", st.Progress())
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !src.closed {
		t.Fatal("expected Close() to delegate to the source")
	}
}

func TestEmptySourceYieldsOnlyTerminator(t *testing.T) {
	src := &sliceSource{chunks: nil}
	st := New(src)

	content, ok, err := st.ReadChunk(nil)
	if err != nil || !ok || !content.Last {
		t.Fatalf("expected an immediate terminator for an empty source, got %+v ok=%v err=%v", content, ok, err)
	}
}
