package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"policygate/internal/gate"
)

func TestConsoleSink_Filtering(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		filterStatuses []string
		input          gate.Result
		shouldWrite    bool
	}{
		{
			name:           "text - no filter - pass",
			format:         "text",
			filterStatuses: nil,
			input:          gate.Result{Status: gate.StatusPass, CheckID: "c", Message: "ok"},
			shouldWrite:    true,
		},
		{
			name:           "text - filter FAIL - input PASS",
			format:         "text",
			filterStatuses: []string{"FAIL"},
			input:          gate.Result{Status: gate.StatusPass, CheckID: "c", Message: "ok"},
			shouldWrite:    false,
		},
		{
			name:           "text - filter FAIL - input FAIL",
			format:         "text",
			filterStatuses: []string{"FAIL"},
			input:          gate.Result{Status: gate.StatusFail, CheckID: "c", Message: "bad"},
			shouldWrite:    true,
		},
		{
			name:           "text - filter FAIL,WARN - input WARN",
			format:         "text",
			filterStatuses: []string{"FAIL", "WARN"},
			input:          gate.Result{Status: gate.StatusWarn, CheckID: "c", Message: "legacy"},
			shouldWrite:    true,
		},
		{
			name:           "json - filter FAIL - input PASS",
			format:         "json",
			filterStatuses: []string{"FAIL"},
			input:          gate.Result{Status: gate.StatusPass, CheckID: "c"},
			shouldWrite:    false,
		},
		{
			name:           "json - filter FAIL - input FAIL",
			format:         "json",
			filterStatuses: []string{"FAIL"},
			input:          gate.Result{Status: gate.StatusFail, CheckID: "c"},
			shouldWrite:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sink := NewConsoleSink(&buf, tt.format, tt.filterStatuses)

			if err := sink.Write(tt.input); err != nil {
				t.Fatalf("Write error: %v", err)
			}

			if tt.format == "json" {
				// JSON output is buffered until Close.
				want := 0
				if tt.shouldWrite {
					want = 1
				}
				if len(sink.stream.results) != want {
					t.Errorf("expected %d results buffered, got %d", want, len(sink.stream.results))
				}
				return
			}

			wroteSomething := buf.Len() > 0
			if tt.shouldWrite && !wroteSomething {
				t.Errorf("expected output, got none")
			}
			if !tt.shouldWrite && wroteSomething {
				t.Errorf("expected no output, got: %q", buf.String())
			}
		})
	}
}

func TestConsoleSink_Filtering_CaseInsensitive(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", []string{"fail"})

	if err := sink.Write(gate.Result{Status: gate.StatusFail, CheckID: "c", Message: "bad"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected output for case-insensitive match, got none")
	}
}

func TestConsoleSink_Filtering_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "ndjson", []string{"FAIL"})

	if err := sink.Write(gate.Result{Status: gate.StatusPass, CheckID: "c"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if buf.Len() > 0 {
		t.Errorf("expected no output for PASS, got: %s", buf.String())
	}

	if err := sink.Write(gate.Result{Status: gate.StatusFail, CheckID: "c"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), `"status":"FAIL"`) {
		t.Errorf("expected output for FAIL, got: %s", buf.String())
	}
}

func TestConsoleSink_TextLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil)

	outcome := gate.NewOutcome("backend-coverage")
	outcome.Pass("lines", "Lines: 81%% (threshold 80%%)")
	outcome.Fail("functions", "Functions: 76%% (threshold 80%%)")

	writes := []any{Event{Type: EventRunStarted, Checks: 2}, Event{Type: EventCheckStarted, CheckID: "backend-coverage"}}
	for _, r := range outcome.Results {
		writes = append(writes, r)
	}
	writes = append(writes,
		FinishedEvent(outcome),
		ErrorEvent("bundle-budget", errors.New("missing-artifact: dist/assets: build output directory does not exist")),
		Event{Type: EventRunFinished, Checks: 2, Passed: 0, ExitCode: 1},
	)
	for _, w := range writes {
		if err := sink.Write(w); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}

	want := strings.Join([]string{
		"PASS Lines: 81% (threshold 80%)",
		"FAIL Functions: 76% (threshold 80%)",
		"FAIL backend-coverage: 1 failure(s), 0 warning(s)",
		"ERROR bundle-budget: missing-artifact: dist/assets: build output directory does not exist",
		"Summary: 0/2 checks passed",
	}, "\n") + "\n"
	if buf.String() != want {
		t.Fatalf("unexpected console output:\n got: %q\nwant: %q", buf.String(), want)
	}
}

func TestConsoleSink_SingleCheckHasNoSummary(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil)
	if err := sink.Write(Event{Type: EventRunFinished, Checks: 1, Passed: 1}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no summary for a single check, got %q", buf.String())
	}
}

func TestConsoleSink_EnableColor(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil)
	sink.EnableColor()

	if err := sink.Write(gate.Result{Status: gate.StatusFail, Message: "bad"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected ANSI escape in coloured output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "FAIL") || !strings.HasSuffix(buf.String(), " bad\n") {
		t.Fatalf("unexpected coloured line %q", buf.String())
	}
}

func TestConsoleSink_JSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "json", nil)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %q", buf.String())
	}
}
