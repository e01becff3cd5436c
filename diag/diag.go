// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

// Package diag implements the structured error collector shared by the
// conch parser and its front-end tools. The collector is a pure data
// sink: adding diagnostics never alters parsing control flow, and the
// parser keeps going after recoverable errors so tools can report more
// than one problem per run.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"conchsh.dev/conch/token"
)

// Code classifies a diagnostic by the grammar failure that produced it.
type Code int

const (
	UnexpectedToken Code = iota
	Unterminated
	InvalidRedirect
	InvalidArray
	InvalidFunc
	FeatureDisabled
	DepthExceeded
	LexError
)

func (c Code) String() string {
	switch c {
	case UnexpectedToken:
		return "unexpected-token"
	case Unterminated:
		return "unterminated-construct"
	case InvalidRedirect:
		return "invalid-redirection"
	case InvalidArray:
		return "invalid-array"
	case InvalidFunc:
		return "invalid-function"
	case FeatureDisabled:
		return "feature-disabled"
	case DepthExceeded:
		return "depth-exceeded"
	case LexError:
		return "lexical-error"
	}
	return "unknown"
}

// Severity is the weight of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Note:
		return "note"
	}
	return "error"
}

// Diagnostic is a single reported problem with enough context to
// render an excerpt and a breadcrumb trail.
type Diagnostic struct {
	Code       Code
	Severity   Severity
	Pos        token.Position
	Message    string
	Context    []string // innermost-last breadcrumbs, e.g. "parsing if statement"
	Suggestion string   // optional fix-it, rendered as a note: line
}

func (d *Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
}

// Collector accumulates diagnostics for one parse. It implements
// error, so a populated collector can be returned directly from Parse.
type Collector struct {
	name string
	src  []byte
	list []Diagnostic
}

// NewCollector returns a collector for the given source buffer. The
// buffer is retained for line excerpts in Render.
func NewCollector(name string, src []byte) *Collector {
	return &Collector{name: name, src: src}
}

// Name returns the source name diagnostics are reported under.
func (c *Collector) Name() string { return c.name }

// Add appends a diagnostic.
func (c *Collector) Add(d Diagnostic) { c.list = append(c.list, d) }

// Len returns the number of accumulated diagnostics.
func (c *Collector) Len() int { return len(c.list) }

// Empty reports whether no diagnostics were collected.
func (c *Collector) Empty() bool { return len(c.list) == 0 }

// Diagnostics returns the accumulated diagnostics in report order.
func (c *Collector) Diagnostics() []Diagnostic { return c.list }

// Err returns the collector itself when it holds at least one
// error-severity diagnostic, and nil otherwise.
func (c *Collector) Err() error {
	for _, d := range c.list {
		if d.Severity == Error {
			return c
		}
	}
	return nil
}

// Error summarizes the first diagnostic; the full report comes from
// Render.
func (c *Collector) Error() string {
	if len(c.list) == 0 {
		return "no diagnostics"
	}
	d := c.list[0]
	prefix := ""
	if c.name != "" {
		prefix = c.name + ":"
	}
	s := fmt.Sprintf("%s%d:%d: %s: %s", prefix, d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
	if n := len(c.list); n > 1 {
		s += fmt.Sprintf(" (and %d more)", n-1)
	}
	return s
}

// Line returns the source line with 1-based number n, without its
// trailing newline.
func (c *Collector) Line(n int) string {
	if n < 1 {
		return ""
	}
	line := 1
	start := 0
	for i := 0; i <= len(c.src); i++ {
		if i == len(c.src) || c.src[i] == '\n' {
			if line == n {
				return string(c.src[start:i])
			}
			line++
			start = i + 1
		}
	}
	return ""
}

const (
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiCyan  = "\x1b[36m"
	ansiReset = "\x1b[0m"
)

// Render writes every diagnostic to w in the stable
// "<name>:<line>:<column>: error: <message>" shape, followed by a
// source excerpt with the offending span highlighted and an optional
// note: line carrying the suggestion. Tooling scrapes the first line
// of each entry, so its format must not change.
func (c *Collector) Render(w io.Writer, color bool) {
	for i := range c.list {
		c.renderOne(w, &c.list[i], color)
	}
}

func (c *Collector) renderOne(w io.Writer, d *Diagnostic, color bool) {
	name := c.name
	if name == "" {
		name = "<input>"
	}
	head := fmt.Sprintf("%s:%d:%d: %s: %s", name, d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
	if color {
		sevColor := ansiRed
		if d.Severity != Error {
			sevColor = ansiCyan
		}
		head = fmt.Sprintf("%s%s:%d:%d:%s %s%s:%s %s", ansiBold, name,
			d.Pos.Line, d.Pos.Column, ansiReset, sevColor, d.Severity, ansiReset, d.Message)
	}
	fmt.Fprintln(w, head)
	if line := c.Line(d.Pos.Line); line != "" {
		fmt.Fprintf(w, "    %s\n", line)
		if col := d.Pos.Column; col >= 1 && col <= len(line)+1 {
			caret := "^"
			if color {
				caret = ansiRed + "^" + ansiReset
			}
			fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", col-1), caret)
		}
	}
	if len(d.Context) > 0 {
		fmt.Fprintf(w, "    while parsing %s\n", strings.Join(d.Context, ", inside "))
	}
	if d.Suggestion != "" {
		fmt.Fprintf(w, "%s:%d:%d: note: %s\n", name, d.Pos.Line, d.Pos.Column, d.Suggestion)
	}
}

// TerminalColor reports whether w is a terminal that can take ANSI
// color, honoring TERM=dumb as an opt-out.
func TerminalColor(w io.Writer) bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
