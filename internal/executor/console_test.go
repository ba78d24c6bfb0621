package executor

import (
	"errors"
	"strings"
	"testing"
)

func newConsole(t *testing.T) *GoConsole {
	t.Helper()
	c, err := NewGoConsole()
	if err != nil {
		t.Fatalf("NewGoConsole failed: %v", err)
	}
	return c
}

func TestGoConsole_NamespacePersists(t *testing.T) {
	c := newConsole(t)

	if _, _, err := c.Run("x := 5"); err != nil {
		t.Fatalf("declaring x: %v", err)
	}
	value, _, err := c.Run("x * 2")
	if err != nil {
		t.Fatalf("reading x back: %v", err)
	}
	if value != "10" {
		t.Errorf("value: got %q, want 10", value)
	}
}

func TestGoConsole_PersistsAcrossSessionRuns(t *testing.T) {
	c := newConsole(t)
	s := NewSession(c)

	if _, err := s.Run(ModeExec, []string{`count := 41`}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	results, err := s.Run(ModeEval, []string{"count + 1"})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(results) != 1 || results[0] != "42" {
		t.Errorf("results: got %q", results)
	}
}

func TestGoConsole_CapturesPrintedOutput(t *testing.T) {
	c := newConsole(t)

	if _, _, err := c.Run(`import "fmt"`); err != nil {
		t.Fatalf("importing fmt: %v", err)
	}
	if _, _, err := c.Run("greeting := \"hello\""); err != nil {
		t.Fatalf("declaring greeting: %v", err)
	}
	_, output, err := c.Run("fmt.Println(greeting)")
	if err != nil {
		t.Fatalf("printing: %v", err)
	}
	if strings.TrimSpace(output) != "hello" {
		t.Errorf("output: got %q", output)
	}
}

func TestGoConsole_OutputIsolatedPerFragment(t *testing.T) {
	c := newConsole(t)

	if _, _, err := c.Run(`import "fmt"`); err != nil {
		t.Fatalf("importing fmt: %v", err)
	}
	if _, _, err := c.Run(`fmt.Print("one")`); err != nil {
		t.Fatalf("first print: %v", err)
	}
	_, output, err := c.Run(`fmt.Print("two")`)
	if err != nil {
		t.Fatalf("second print: %v", err)
	}
	if output != "two" {
		t.Errorf("output leaked between fragments: got %q", output)
	}
}

func TestGoConsole_SyntaxErrorReported(t *testing.T) {
	c := newConsole(t)

	_, _, err := c.Run("func {")
	if err == nil {
		t.Fatal("malformed source should fail")
	}
}

func TestGoConsole_NamespaceSurvivesError(t *testing.T) {
	c := newConsole(t)

	if _, _, err := c.Run("kept := 7"); err != nil {
		t.Fatalf("declaring kept: %v", err)
	}
	if _, _, err := c.Run("no_such_identifier"); err == nil {
		t.Fatal("undefined identifier should fail")
	}
	value, _, err := c.Run("kept")
	if err != nil {
		t.Fatalf("reading kept after failure: %v", err)
	}
	if value != "7" {
		t.Errorf("value: got %q, want 7", value)
	}
}

func TestGoConsole_PanicBecomesError(t *testing.T) {
	c := newConsole(t)

	_, _, err := c.Run(`panic("deliberate")`)
	if err == nil {
		t.Fatal("panicking fragment should fail")
	}
	var perr *PanicError
	if errors.As(err, &perr) {
		if perr.Stack == "" {
			t.Error("panic error should carry a stack")
		}
		return
	}
	// The interpreter may surface the panic as its own error type
	// instead of unwinding into our recover; either way the message
	// must survive.
	if !strings.Contains(err.Error(), "deliberate") {
		t.Errorf("panic detail lost: %v", err)
	}
}
