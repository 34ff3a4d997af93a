package output

import (
	"fmt"
	"io"
	"sync"
)

// EmitSink writes an additional structured stream (see --emit), usually to
// stdout next to the console sink.
type EmitSink struct {
	mu     sync.Mutex
	stream *stream
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	st, err := newStream(w, format)
	if err != nil {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{stream: st}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream.write(v)
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream.close()
}
