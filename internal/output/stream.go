package output

import (
	"encoding/json"
	"fmt"
	"io"

	"policygate/internal/gate"
)

// stream is the structured encoding shared by the console, emit and file
// sinks. In json mode results are buffered and written as one array on close;
// in ndjson mode every Event (results wrapped as check.result) is written and
// flushed immediately. Callers serialise access.
type stream struct {
	w       io.Writer
	format  string
	results []gate.Result
}

func newStream(w io.Writer, format string) (*stream, error) {
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported structured format: %s", format)
	}
	return &stream{w: w, format: format}, nil
}

func (s *stream) write(v any) error {
	if s.format == "json" {
		if r, ok := v.(gate.Result); ok {
			s.results = append(s.results, r)
		}
		return nil
	}

	var e Event
	switch t := v.(type) {
	case Event:
		e = t
	case gate.Result:
		e = eventFromResult(t)
	default:
		return nil
	}
	if err := json.NewEncoder(s.w).Encode(e); err != nil {
		return err
	}
	return flushIfPossible(s.w)
}

func (s *stream) close() error {
	if s.format != "json" {
		return nil
	}
	results := s.results
	if results == nil {
		results = []gate.Result{}
	}
	encoder := json.NewEncoder(s.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return err
	}
	return flushIfPossible(s.w)
}
