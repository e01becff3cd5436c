// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

package diag_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"conchsh.dev/conch/diag"
	"conchsh.dev/conch/token"
)

func TestCollectorErr(t *testing.T) {
	t.Parallel()
	c := diag.NewCollector("t.sh", nil)
	qt.Assert(t, c.Err(), qt.IsNil)
	qt.Assert(t, c.Empty(), qt.IsTrue)

	c.Add(diag.Diagnostic{
		Severity: diag.Warning,
		Pos:      token.Position{Line: 1, Column: 1},
		Message:  "something odd",
	})
	// warnings alone do not make the parse fail
	qt.Assert(t, c.Err(), qt.IsNil)
	qt.Assert(t, c.Len(), qt.Equals, 1)

	c.Add(diag.Diagnostic{
		Severity: diag.Error,
		Pos:      token.Position{Line: 2, Column: 3},
		Message:  "something broken",
	})
	qt.Assert(t, c.Err(), qt.Not(qt.IsNil))
}

func TestErrorSummary(t *testing.T) {
	t.Parallel()
	c := diag.NewCollector("t.sh", nil)
	qt.Assert(t, c.Error(), qt.Equals, "no diagnostics")

	c.Add(diag.Diagnostic{
		Severity: diag.Error,
		Pos:      token.Position{Line: 4, Column: 2},
		Message:  "first problem",
	})
	qt.Assert(t, c.Error(), qt.Equals, "t.sh:4:2: error: first problem")

	c.Add(diag.Diagnostic{
		Severity: diag.Error,
		Pos:      token.Position{Line: 5, Column: 1},
		Message:  "second problem",
	})
	qt.Assert(t, c.Error(), qt.Equals, "t.sh:4:2: error: first problem (and 1 more)")
}

func TestLine(t *testing.T) {
	t.Parallel()
	c := diag.NewCollector("t.sh", []byte("one\ntwo\nthree"))
	qt.Assert(t, c.Line(1), qt.Equals, "one")
	qt.Assert(t, c.Line(2), qt.Equals, "two")
	qt.Assert(t, c.Line(3), qt.Equals, "three")
	qt.Assert(t, c.Line(4), qt.Equals, "")
	qt.Assert(t, c.Line(0), qt.Equals, "")
}

func TestRender(t *testing.T) {
	t.Parallel()
	src := []byte("echo ok\nif true; then\n")
	c := diag.NewCollector("script.sh", src)
	c.Add(diag.Diagnostic{
		Code:       diag.Unterminated,
		Severity:   diag.Error,
		Pos:        token.Position{Offset: 8, Line: 2, Column: 1},
		Message:    `if statement must end with "fi"`,
		Context:    []string{"the if statement"},
		Suggestion: `add "fi" to close the statement`,
	})

	var sb strings.Builder
	c.Render(&sb, false)
	want := `script.sh:2:1: error: if statement must end with "fi"
    if true; then
    ^
    while parsing the if statement
script.sh:2:1: note: add "fi" to close the statement
`
	qt.Assert(t, sb.String(), qt.Equals, want)
}

func TestRenderBreadcrumbTrail(t *testing.T) {
	t.Parallel()
	c := diag.NewCollector("", []byte("x\n"))
	c.Add(diag.Diagnostic{
		Severity: diag.Error,
		Pos:      token.Position{Line: 1, Column: 1},
		Message:  "boom",
		Context:  []string{"the if statement", "the while loop"},
	})
	var sb strings.Builder
	c.Render(&sb, false)
	out := sb.String()
	// an unnamed source renders as <input>
	qt.Assert(t, strings.HasPrefix(out, "<input>:1:1: error: boom\n"), qt.IsTrue)
	qt.Assert(t, strings.Contains(out,
		"while parsing the if statement, inside the while loop"), qt.IsTrue)
}

func TestRenderColor(t *testing.T) {
	t.Parallel()
	c := diag.NewCollector("c.sh", []byte("bad\n"))
	c.Add(diag.Diagnostic{
		Severity: diag.Error,
		Pos:      token.Position{Line: 1, Column: 1},
		Message:  "broken",
	})
	var sb strings.Builder
	c.Render(&sb, true)
	out := sb.String()
	qt.Assert(t, strings.Contains(out, "\x1b[1m"), qt.IsTrue)
	qt.Assert(t, strings.Contains(out, "\x1b[31m"), qt.IsTrue)

	sb.Reset()
	c.Render(&sb, false)
	qt.Assert(t, strings.Contains(sb.String(), "\x1b["), qt.IsFalse)
}

func TestCodeAndSeverityStrings(t *testing.T) {
	t.Parallel()
	qt.Assert(t, diag.Unterminated.String(), qt.Equals, "unterminated-construct")
	qt.Assert(t, diag.FeatureDisabled.String(), qt.Equals, "feature-disabled")
	qt.Assert(t, diag.LexError.String(), qt.Equals, "lexical-error")
	qt.Assert(t, diag.Error.String(), qt.Equals, "error")
	qt.Assert(t, diag.Warning.String(), qt.Equals, "warning")
	qt.Assert(t, diag.Note.String(), qt.Equals, "note")
}

func TestTerminalColorPlainWriter(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	qt.Assert(t, diag.TerminalColor(&sb), qt.IsFalse)
}
