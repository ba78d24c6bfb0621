// Package executor runs code fragments against one persistent
// namespace, REPL style: sequential, stop-on-error within a request,
// with bindings surviving across requests and across failures.
package executor

import (
	"fmt"
	"sync"
)

// Backend runs one source fragment against a persistent namespace.
// Bindings created by one Run call remain visible to every later call
// for the lifetime of the backend. This is the narrow seam to the host
// application's scripting console; alternative backends (such as a
// safer expression-only evaluator) plug in here without touching the
// protocol layer.
type Backend interface {
	// Run executes src. value is the string form of the result when
	// src is a bare expression (empty otherwise); output is any text
	// the fragment printed while running.
	Run(src string) (value, output string, err error)
}

// Session owns the process-wide execution state: the backend with its
// persistent namespace and the connection auto-disconnect flag. One
// Session exists per host process; its lifetime is the process
// lifetime. It is threaded explicitly through the protocol handler
// rather than living in package globals.
type Session struct {
	backend Backend

	mu             sync.Mutex
	autoDisconnect bool
}

// NewSession creates a session around the given backend with
// auto-disconnect enabled, matching the listener's default policy.
func NewSession(b Backend) *Session {
	return &Session{backend: b, autoDisconnect: true}
}

// AutoDisconnect reports whether the listener should close the client
// connection after each response.
func (s *Session) AutoDisconnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoDisconnect
}

// DisableAutoDisconnect keeps the connection open across requests.
// There is no re-enable: the flag lives until the process exits.
func (s *Session) DisableAutoDisconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoDisconnect = false
}

// Mode selects what each fragment contributes to the results sequence.
type Mode int

const (
	// ModeExec collects the text output each fragment produced.
	ModeExec Mode = iota
	// ModeEval collects each fragment's evaluated value as a string.
	ModeEval
)

// FragmentError reports the failing fragment of a run. The fragments
// before it executed and their results are preserved by the caller;
// the namespace keeps whatever state the failing fragment left behind.
type FragmentError struct {
	Index  int
	Source string
	Err    error
	Stack  string
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("fragment %d failed: %v", e.Index, e.Err)
}

func (e *FragmentError) Unwrap() error { return e.Err }

// Traceback renders a diagnostic trace for the wire error envelope.
func (e *FragmentError) Traceback() string {
	tb := fmt.Sprintf("fragment %d: %s\n%v", e.Index, e.Source, e.Err)
	if e.Stack != "" {
		tb += "\n" + e.Stack
	}
	return tb
}

// Run executes fragments in order against the session namespace.
// Execution stops at the first failing fragment; the results gathered
// up to that point are returned alongside a *FragmentError. A failed
// run never resets the namespace, so later runs still see bindings
// from earlier ones.
func (s *Session) Run(mode Mode, fragments []string) ([]string, error) {
	results := make([]string, 0, len(fragments))
	for i, src := range fragments {
		value, output, err := s.backend.Run(src)
		if err != nil {
			ferr := &FragmentError{Index: i, Source: src, Err: err}
			if perr, ok := err.(*PanicError); ok {
				ferr.Stack = perr.Stack
			}
			return results, ferr
		}
		if mode == ModeEval {
			results = append(results, value)
		} else {
			results = append(results, output)
		}
	}
	return results, nil
}

// PanicError wraps a panic recovered inside a backend, keeping the
// goroutine stack for the traceback field of the error response.
type PanicError struct {
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
