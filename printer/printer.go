// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

// Package printer serializes an ast tree back to shell source in a
// canonical layout. Printing a parsed program and reparsing the output
// yields the same tree, which is what conchfmt relies on.
package printer

import (
	"bufio"
	"io"
	"strings"

	"conchsh.dev/conch/ast"
	"conchsh.dev/conch/token"
)

// Config controls the printed layout.
type Config struct {
	// Spaces is the indentation width; 0 means tabs.
	Spaces int
}

// Fprint writes node to w under the receiver's layout.
func (c Config) Fprint(w io.Writer, node ast.Node) error {
	p := &printer{w: bufio.NewWriter(w), c: c}
	p.node(node)
	p.flushHdocs()
	return p.w.Flush()
}

// Fprint writes node to w with the default tab-indented layout.
func Fprint(w io.Writer, node ast.Node) error {
	return Config{}.Fprint(w, node)
}

type printer struct {
	w *bufio.Writer
	c Config

	level      int
	pendingHds []*ast.Redirect
}

func (p *printer) str(s string) { p.w.WriteString(s) }
func (p *printer) space()       { p.w.WriteByte(' ') }

// newline ends the current line, flushing any here-document bodies
// that were queued on it.
func (p *printer) newline() {
	p.w.WriteByte('\n')
	p.flushHdocs()
}

func (p *printer) flushHdocs() {
	hds := p.pendingHds
	p.pendingHds = nil
	for _, r := range hds {
		p.str(r.HdocBody)
		p.str(r.Word.Text())
		p.w.WriteByte('\n')
	}
}

func (p *printer) indent() {
	if p.c.Spaces == 0 {
		for i := 0; i < p.level; i++ {
			p.w.WriteByte('\t')
		}
		return
	}
	p.str(strings.Repeat(" ", p.c.Spaces*p.level))
}

func (p *printer) node(node ast.Node) {
	switch x := node.(type) {
	case *ast.Program:
		p.cmdList(x.Cmds)
	case ast.Command:
		p.command(x)
	case *ast.Word:
		p.word(x)
	}
}

// cmdList prints commands one per line at the current level.
func (p *printer) cmdList(cmds []ast.Command) {
	for _, c := range cmds {
		p.indent()
		p.command(c)
		p.newline()
	}
}

func (p *printer) body(cmds []ast.Command) {
	p.level++
	p.cmdList(cmds)
	p.level--
	p.indent()
}

func (p *printer) command(cmd ast.Command) {
	switch x := cmd.(type) {
	case *ast.SimpleCmd:
		p.simpleCmd(x)
	case *ast.Pipeline:
		if x.Negated {
			p.str("! ")
		}
		for i, c := range x.Cmds {
			if i > 0 {
				if x.StderrPipes[i-1] {
					p.str(" |& ")
				} else {
					p.str(" | ")
				}
			}
			p.command(c)
		}
	case *ast.AndOr:
		p.command(x.X)
		if x.Op == token.AndIf {
			p.str(" && ")
		} else {
			p.str(" || ")
		}
		p.command(x.Y)
	case *ast.Background:
		p.command(x.Cmd)
		p.str(" &")
	case *ast.Block:
		p.str("{")
		p.newline()
		p.body(x.Body)
		p.str("}")
		p.redirs(x.Redirs)
	case *ast.Subshell:
		p.str("(")
		p.newline()
		p.body(x.Body)
		p.str(")")
		p.redirs(x.Redirs)
	case *ast.IfClause:
		p.str("if")
		p.condThen(x.Cond, x.ThenBody)
		for _, e := range x.Elifs {
			p.str("elif")
			p.condThen(e.Cond, e.Body)
		}
		if len(x.ElseBody) > 0 {
			p.str("else")
			p.newline()
			p.body(x.ElseBody)
		}
		p.str("fi")
		p.redirs(x.Redirs)
	case *ast.WhileClause:
		if x.Until {
			p.str("until")
		} else {
			p.str("while")
		}
		p.inlineList(x.Cond)
		p.str("; do")
		p.newline()
		p.body(x.Body)
		p.str("done")
		p.redirs(x.Redirs)
	case *ast.ForClause:
		p.str("for " + x.Name)
		if x.Words != nil {
			p.str(" in")
			for _, w := range x.Words {
				p.space()
				p.word(w)
			}
		}
		p.str("; do")
		p.newline()
		p.body(x.Body)
		p.str("done")
		p.redirs(x.Redirs)
	case *ast.CForClause:
		p.str("for ((" + x.Init + "; " + x.Cond + "; " + x.Post + ")); do")
		p.newline()
		p.body(x.Body)
		p.str("done")
		p.redirs(x.Redirs)
	case *ast.SelectClause:
		p.str("select " + x.Name)
		if x.Words != nil {
			p.str(" in")
			for _, w := range x.Words {
				p.space()
				p.word(w)
			}
		}
		p.str("; do")
		p.newline()
		p.body(x.Body)
		p.str("done")
		p.redirs(x.Redirs)
	case *ast.CaseClause:
		p.str("case ")
		p.word(x.Word)
		p.str(" in")
		p.newline()
		p.level++
		for _, ci := range x.Items {
			p.indent()
			p.str(ci.Pattern + ")")
			p.newline()
			p.level++
			p.cmdList(ci.Body)
			p.indent()
			p.str(ci.Op.String())
			p.level--
			p.newline()
		}
		p.level--
		p.indent()
		p.str("esac")
		p.redirs(x.Redirs)
	case *ast.FuncDecl:
		p.str(x.Name + "(" + x.Params + ") ")
		p.command(x.Body)
	case *ast.AnonFunc:
		p.str("() ")
		p.command(x.Body)
	case *ast.Coproc:
		p.str("coproc ")
		if x.Name != "" {
			p.str(x.Name + " ")
		}
		p.command(x.Cmd)
	case *ast.TimeClause:
		p.str("time")
		if x.Cmd != nil {
			p.space()
			p.command(x.Cmd)
		}
	case *ast.ArithCmd:
		p.str("((" + x.Expr + "))")
		p.redirs(x.Redirs)
	case *ast.TestClause:
		p.str("[[ " + x.Expr + " ]]")
	}
}

func (p *printer) condThen(cond, then []ast.Command) {
	p.inlineList(cond)
	p.str("; then")
	p.newline()
	p.body(then)
}

// inlineList prints a short command list on the current line, joined
// by semicolons, as used for loop and if conditions.
func (p *printer) inlineList(cmds []ast.Command) {
	for i, c := range cmds {
		if i > 0 {
			p.str(";")
		}
		p.space()
		p.command(c)
	}
}

func (p *printer) simpleCmd(x *ast.SimpleCmd) {
	sep := false
	for _, a := range x.Assigns {
		if sep {
			p.space()
		}
		p.assign(a)
		sep = true
	}
	for _, w := range x.Args {
		if sep {
			p.space()
		}
		p.word(w)
		sep = true
	}
	for _, r := range x.Redirs {
		if sep {
			p.space()
		}
		p.redir(r)
		sep = true
	}
}

func (p *printer) assign(a *ast.Assign) {
	p.str(a.Name)
	if a.Index != "" {
		p.str("[" + a.Index + "]")
	}
	if a.Append {
		p.str("+=")
	} else {
		p.str("=")
	}
	switch {
	case a.Array != nil:
		p.str("(")
		for i, e := range a.Array.Elems {
			if i > 0 {
				p.space()
			}
			if e.Index != "" {
				p.str("[" + e.Index + "]=")
			}
			p.word(e.Value)
		}
		p.str(")")
	case a.Value != nil:
		p.word(a.Value)
	}
}

func (p *printer) redirs(rs []*ast.Redirect) {
	for _, r := range rs {
		p.space()
		p.redir(r)
	}
}

func (p *printer) redir(r *ast.Redirect) {
	p.str(r.N)
	p.str(r.Op.String())
	p.word(r.Word)
	if r.Op == token.Hdoc || r.Op == token.DashHdoc {
		p.pendingHds = append(p.pendingHds, r)
	}
}

func (p *printer) word(w *ast.Word) {
	if w == nil {
		return
	}
	for _, part := range w.Parts {
		switch x := part.(type) {
		case *ast.Lit:
			p.str(x.Value)
		case *ast.SglQuoted:
			if x.Dollar {
				p.str("$")
			}
			p.str("'" + x.Value + "'")
		case *ast.DblQuoted:
			if x.Dollar {
				p.str("$")
			}
			p.str(`"` + x.Value + `"`)
		case *ast.VarRef:
			if x.Braced {
				p.str("${" + x.Name + "}")
			} else {
				p.str("$" + x.Name)
			}
		case *ast.CmdSubst:
			if x.Backquote {
				p.str("`" + x.Text + "`")
			} else {
				p.str("$(" + x.Text + ")")
			}
		case *ast.ArithExp:
			p.str("$((" + x.Expr + "))")
		case *ast.ProcSubst:
			if x.Dir == ast.ProcOut {
				p.str(">(")
			} else {
				p.str("<(")
			}
			for i, c := range x.Body {
				if i > 0 {
					p.str("; ")
				}
				p.command(c)
			}
			p.str(")")
		}
	}
}
