package executor

import (
	"bytes"
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// GoConsole is the default Backend: an embedded Go interpreter with a
// REPL-style persistent namespace. Imports, functions, and variables
// declared by one fragment stay available to all later fragments, in
// this request and every following one.
type GoConsole struct {
	interp *interp.Interpreter
	out    *swappableWriter
}

// NewGoConsole builds an interpreter with the standard library
// preloaded, so fragments can `import "fmt"` and friends immediately.
func NewGoConsole() (*GoConsole, error) {
	out := &swappableWriter{w: io.Discard}
	i := interp.New(interp.Options{Stdout: out, Stderr: out})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}
	return &GoConsole{interp: i, out: out}, nil
}

// Run evaluates one fragment, capturing printed output and, when the
// fragment is a bare expression, its value's string form. A panic in
// interpreted code is recovered and reported as a *PanicError so a
// single bad fragment cannot take down the listener.
func (c *GoConsole) Run(src string) (value, output string, err error) {
	var buf bytes.Buffer
	c.out.set(&buf)
	defer c.out.set(io.Discard)

	defer func() {
		if r := recover(); r != nil {
			output = buf.String()
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()

	v, err := c.interp.Eval(src)
	output = buf.String()
	if err != nil {
		return "", output, err
	}
	if v.IsValid() && v.CanInterface() {
		value = fmt.Sprintf("%v", v.Interface())
	}
	return value, output, nil
}

// swappableWriter lets the interpreter's stdout, fixed at construction
// time, be redirected to a fresh buffer for each fragment.
type swappableWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *swappableWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

func (s *swappableWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
