package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"policygate/internal/gate"
)

type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	stream          *stream // json and ndjson formats
	allowedStatuses map[string]bool
	colors          map[gate.Status]*color.Color
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}
	if format != "text" {
		// An unsupported format surfaces on the first Write.
		s.stream, _ = newStream(w, format)
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[string]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[strings.ToUpper(st)] = true
		}
	}

	return s
}

// EnableColor colours the status prefix of text lines.
func (s *ConsoleSink) EnableColor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colors = map[gate.Status]*color.Color{
		gate.StatusPass:  color.New(color.FgGreen),
		gate.StatusFail:  color.New(color.FgRed, color.Bold),
		gate.StatusWarn:  color.New(color.FgYellow),
		gate.StatusError: color.New(color.FgMagenta, color.Bold),
	}
	for _, c := range s.colors {
		c.EnableColor()
	}
}

func (s *ConsoleSink) status(st gate.Status) string {
	if c, ok := s.colors[st]; ok {
		return c.Sprint(string(st))
	}
	return string(st)
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	printf := func(format string, args ...any) error {
		_, err := fmt.Fprintf(s.writer, format, args...)
		return err
	}

	// Apply filtering if configured
	if len(s.allowedStatuses) > 0 {
		if r, ok := v.(gate.Result); ok {
			if !s.allowedStatuses[string(r.Status)] {
				return nil
			}
		}
	}

	switch s.format {
	case "json", "ndjson":
		return s.stream.write(v)
	case "text":
		switch t := v.(type) {
		case gate.Result:
			msg := t.Message
			if msg == "" {
				msg = t.Location()
			}
			if err := printf("%s %s\n", s.status(t.Status), msg); err != nil {
				return err
			}
		case Event:
			switch t.Type {
			case EventCheckFinished:
				if err := printf("%s %s\n", s.status(t.Verdict), t.Summary); err != nil {
					return err
				}
			case EventCheckError:
				if err := printf("%s %s: %s\n", s.status(gate.StatusError), t.CheckID, t.Error); err != nil {
					return err
				}
			case EventRunFinished:
				if t.Checks <= 1 {
					return nil
				}
				if err := printf("Summary: %d/%d checks passed\n", t.Passed, t.Checks); err != nil {
					return err
				}
			default:
				return nil
			}
		default:
			return nil
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "text":
		return nil
	case "json", "ndjson":
		return s.stream.close()
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}
