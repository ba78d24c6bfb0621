package executor

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// scriptedBackend returns canned results per source fragment.
type scriptedBackend struct {
	responses map[string]scriptedResult
	calls     []string
}

type scriptedResult struct {
	value  string
	output string
	err    error
}

func (b *scriptedBackend) Run(src string) (string, string, error) {
	b.calls = append(b.calls, src)
	r, ok := b.responses[src]
	if !ok {
		return "", "", fmt.Errorf("unexpected fragment: %s", src)
	}
	return r.value, r.output, r.err
}

func TestSessionRun_ExecCollectsOutput(t *testing.T) {
	backend := &scriptedBackend{responses: map[string]scriptedResult{
		"a": {value: "1", output: "first\n"},
		"b": {value: "2", output: ""},
	}}
	s := NewSession(backend)

	results, err := s.Run(ModeExec, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 2 || results[0] != "first\n" || results[1] != "" {
		t.Errorf("exec results: got %q", results)
	}
}

func TestSessionRun_EvalCollectsValues(t *testing.T) {
	backend := &scriptedBackend{responses: map[string]scriptedResult{
		"a": {value: "1", output: "noise\n"},
		"b": {value: "2"},
	}}
	s := NewSession(backend)

	results, err := s.Run(ModeEval, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 2 || results[0] != "1" || results[1] != "2" {
		t.Errorf("eval results: got %q", results)
	}
}

func TestSessionRun_StopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	backend := &scriptedBackend{responses: map[string]scriptedResult{
		"ok":   {output: "fine\n"},
		"bad":  {err: boom},
		"next": {output: "never\n"},
	}}
	s := NewSession(backend)

	results, err := s.Run(ModeExec, []string{"ok", "bad", "next"})
	if err == nil {
		t.Fatal("Run should fail")
	}
	var ferr *FragmentError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *FragmentError, got %T", err)
	}
	if ferr.Index != 1 || ferr.Source != "bad" {
		t.Errorf("failure location: got index %d source %q", ferr.Index, ferr.Source)
	}
	if !errors.Is(err, boom) {
		t.Error("FragmentError should wrap the backend error")
	}
	// Results up to the failure are preserved; nothing after it ran.
	if len(results) != 1 || results[0] != "fine\n" {
		t.Errorf("partial results: got %q", results)
	}
	if len(backend.calls) != 2 {
		t.Errorf("fragments run: got %d, want 2", len(backend.calls))
	}
}

func TestFragmentError_TracebackIncludesStack(t *testing.T) {
	backend := &scriptedBackend{responses: map[string]scriptedResult{
		"p": {err: &PanicError{Value: "oops", Stack: "goroutine 1 [running]:"}},
	}}
	s := NewSession(backend)

	_, err := s.Run(ModeExec, []string{"p"})
	var ferr *FragmentError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *FragmentError, got %T", err)
	}
	tb := ferr.Traceback()
	if !strings.Contains(tb, "oops") || !strings.Contains(tb, "goroutine 1") {
		t.Errorf("traceback missing detail: %q", tb)
	}
}

func TestSession_AutoDisconnect(t *testing.T) {
	s := NewSession(&scriptedBackend{})
	if !s.AutoDisconnect() {
		t.Error("auto-disconnect should start enabled")
	}
	s.DisableAutoDisconnect()
	if s.AutoDisconnect() {
		t.Error("auto-disconnect should stay off once disabled")
	}
}
