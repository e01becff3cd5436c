// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

// Package ast declares the syntax tree produced by the conch parser
// and consumed by the execution engine. The tree is strictly owned:
// every child belongs to exactly one parent and nodes are never
// shared, so walking and freeing are both trivially safe.
package ast

import (
	"strings"

	"conchsh.dev/conch/token"
)

// Node is the interface implemented by every syntax tree node.
type Node interface {
	// Pos returns the position of the node's first source byte.
	Pos() token.Position
}

// Program is the root of a parsed source buffer. An empty Cmds slice
// is the explicit "empty input" result; it is not an error.
type Program struct {
	Name string // source name, for diagnostics
	Cmds []Command
}

func (p *Program) Pos() token.Position {
	if len(p.Cmds) == 0 {
		return token.Position{}
	}
	return p.Cmds[0].Pos()
}

// Empty reports whether the program contains no commands.
func (p *Program) Empty() bool { return len(p.Cmds) == 0 }

// Command is implemented by all nodes that can appear as a list
// element: simple commands, compound commands and the compositional
// wrappers around them.
type Command interface {
	Node
	commandNode()
}

func (*SimpleCmd) commandNode()    {}
func (*Pipeline) commandNode()     {}
func (*AndOr) commandNode()        {}
func (*Background) commandNode()   {}
func (*Block) commandNode()        {}
func (*Subshell) commandNode()     {}
func (*IfClause) commandNode()     {}
func (*WhileClause) commandNode()  {}
func (*ForClause) commandNode()    {}
func (*CForClause) commandNode()   {}
func (*CaseClause) commandNode()   {}
func (*SelectClause) commandNode() {}
func (*FuncDecl) commandNode()     {}
func (*AnonFunc) commandNode()     {}
func (*Coproc) commandNode()       {}
func (*TimeClause) commandNode()   {}
func (*ArithCmd) commandNode()     {}
func (*TestClause) commandNode()   {}

// SimpleCmd is a command word with its assignments, arguments and
// redirections. Args[0] is the command name; a SimpleCmd with no Args
// consists only of assignments and/or redirections.
type SimpleCmd struct {
	Position token.Position
	Assigns  []*Assign
	Args     []*Word
	Redirs   []*Redirect
}

func (c *SimpleCmd) Pos() token.Position { return c.Position }

// Name returns the flattened command name, or "" when the command has
// no command word.
func (c *SimpleCmd) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0].Text()
}

// Pipeline is two or more commands connected by | or |&. Negated
// covers a leading "!". StderrPipes[i] is true when the connection
// between Cmds[i] and Cmds[i+1] was |& rather than |.
//
// The parser collapses single-command pipelines to the bare command
// unless they are negated.
type Pipeline struct {
	Position    token.Position
	Negated     bool
	Cmds        []Command
	StderrPipes []bool
}

func (p *Pipeline) Pos() token.Position { return p.Position }

// AndOr is a && or || between two commands. Op is token.AndIf or
// token.OrIf.
type AndOr struct {
	OpPos token.Position
	Op    token.Kind
	X, Y  Command
}

func (a *AndOr) Pos() token.Position { return a.X.Pos() }

// Background marks a command to be run asynchronously via a trailing &.
type Background struct {
	AmpPos token.Position
	Cmd    Command
}

func (b *Background) Pos() token.Position { return b.Cmd.Pos() }

// Block is a { …; } brace group.
type Block struct {
	Lbrace, Rbrace token.Position
	Body           []Command
	Redirs         []*Redirect
}

func (b *Block) Pos() token.Position { return b.Lbrace }

// Subshell is a ( … ) group run in a child environment.
type Subshell struct {
	Lparen, Rparen token.Position
	Body           []Command
	Redirs         []*Redirect
}

func (s *Subshell) Pos() token.Position { return s.Lparen }

// IfClause is an if statement with optional elif and else parts.
type IfClause struct {
	If, Then, Fi token.Position
	Cond         []Command
	ThenBody     []Command
	Elifs        []*Elif
	Else         token.Position
	ElseBody     []Command
	Redirs       []*Redirect
}

func (c *IfClause) Pos() token.Position { return c.If }

// Elif is one "elif cond; then body" arm of an IfClause.
type Elif struct {
	Elif, Then token.Position
	Cond       []Command
	Body       []Command
}

func (e *Elif) Pos() token.Position { return e.Elif }

// WhileClause is a while or until loop.
type WhileClause struct {
	While, Do, Done token.Position
	Until           bool
	Cond            []Command
	Body            []Command
	Redirs          []*Redirect
}

func (w *WhileClause) Pos() token.Position { return w.While }

// ForClause is a for NAME [in WORDS] loop. Words is nil when the "in"
// list was absent, meaning iteration over the positional parameters.
type ForClause struct {
	For, Do, Done token.Position
	Name          string
	NamePos       token.Position
	InPos         token.Position
	Words         []*Word
	Body          []Command
	Redirs        []*Redirect
}

func (f *ForClause) Pos() token.Position { return f.For }

// CForClause is the C-style for ((init; cond; post)) loop. The three
// header expressions are kept as normalized text for the arithmetic
// evaluator; any of them may be empty.
type CForClause struct {
	For, Do, Done    token.Position
	Init, Cond, Post string
	Body             []Command
	Redirs           []*Redirect
}

func (f *CForClause) Pos() token.Position { return f.For }

// SelectClause is a select NAME [in WORDS] menu loop.
type SelectClause struct {
	Select, Do, Done token.Position
	Name             string
	NamePos          token.Position
	InPos            token.Position
	Words            []*Word
	Body             []Command
	Redirs           []*Redirect
}

func (s *SelectClause) Pos() token.Position { return s.Select }

// CaseOp is a case item terminator tag. It is never left undefined: a
// missing terminator before esac means Break.
type CaseOp int

const (
	Break       CaseOp = iota // ;;
	Fallthrough               // ;&
	Continue                  // ;;&
)

func (o CaseOp) String() string {
	switch o {
	case Fallthrough:
		return ";&"
	case Continue:
		return ";;&"
	}
	return ";;"
}

// CaseClause is a case WORD in … esac statement.
type CaseClause struct {
	Case, Esac token.Position
	Word       *Word
	Items      []*CaseItem
	Redirs     []*Redirect
}

func (c *CaseClause) Pos() token.Position { return c.Case }

// CaseItem is one "pattern[|pattern]) body TERMINATOR" arm. Pattern
// holds the alternation fragments joined by |, exactly as written.
type CaseItem struct {
	Position token.Position
	Pattern  string
	OpPos    token.Position
	Op       CaseOp
	Body     []Command
}

func (c *CaseItem) Pos() token.Position { return c.Position }

// FuncDecl is a function definition. Params is the encoded parameter
// list, e.g. "a,b=1" for name(a, b=1); it is empty for plain POSIX
// definitions.
type FuncDecl struct {
	Position token.Position
	Name     string
	NamePos  token.Position
	Params   string
	Body     Command
}

func (f *FuncDecl) Pos() token.Position { return f.Position }

// AnonFunc is an anonymous function () { … }, invoked immediately by
// the execution engine.
type AnonFunc struct {
	Position token.Position
	Body     *Block
}

func (a *AnonFunc) Pos() token.Position { return a.Position }

// Coproc is a coproc [NAME] command clause.
type Coproc struct {
	Position token.Position
	Name     string
	Cmd      Command
}

func (c *Coproc) Pos() token.Position { return c.Position }

// TimeClause wraps a command in the time keyword.
type TimeClause struct {
	Position token.Position
	Cmd      Command
}

func (t *TimeClause) Pos() token.Position { return t.Position }

// ArithCmd is an ((expression)) command. Expr is the normalized
// expression text handed to the arithmetic evaluator.
type ArithCmd struct {
	Position token.Position
	Expr     string
	Redirs   []*Redirect
}

func (a *ArithCmd) Pos() token.Position { return a.Position }

// TestClause is a [[ expression ]] extended test. Expr preserves regex
// literals verbatim.
type TestClause struct {
	Left, Right token.Position
	Expr        string
}

func (t *TestClause) Pos() token.Position { return t.Left }

// Redirect is an input/output redirection attached to a command. For
// here-documents, HdocBody holds the collected body and HdocExpand
// records whether the delimiter was unquoted.
type Redirect struct {
	OpPos      token.Position
	Op         token.Kind
	N          string // optional fd number before the operator
	Word       *Word  // target, or the here-doc delimiter
	HdocBody   string
	HdocExpand bool
}

func (r *Redirect) Pos() token.Position { return r.OpPos }

// Assign is a variable assignment: name=value, name+=value, an indexed
// element assignment name[sub]=value, or an array literal assignment
// name=(…). Exactly one of Value and Array is set unless the value is
// empty.
type Assign struct {
	NamePos token.Position
	Name    string
	Append  bool
	Index   string // subscript text for name[sub]=value
	Value   *Word
	Array   *ArrayExpr
}

func (a *Assign) Pos() token.Position { return a.NamePos }

// ArrayExpr is an indexed array literal ( … ).
type ArrayExpr struct {
	Lparen, Rparen token.Position
	Elems          []*ArrayElem
}

func (a *ArrayExpr) Pos() token.Position { return a.Lparen }

// ArrayElem is one array literal element, optionally carrying an
// explicit [index]= prefix.
type ArrayElem struct {
	Index string
	Value *Word
}

func (a *ArrayElem) Pos() token.Position { return a.Value.Pos() }

// Word is a shell word: one or more parts written adjacently with no
// intervening whitespace, such as a"b"$c.
type Word struct {
	Parts []WordPart
}

func (w *Word) Pos() token.Position {
	if len(w.Parts) == 0 {
		return token.Position{}
	}
	return w.Parts[0].Pos()
}

// Text flattens the word to plain text: quotes are dropped and
// expansions are rendered back in their source spelling. It is meant
// for diagnostics and for consumers that only care about literal
// words.
func (w *Word) Text() string {
	var sb strings.Builder
	for _, p := range w.Parts {
		switch x := p.(type) {
		case *Lit:
			sb.WriteString(x.Value)
		case *SglQuoted:
			sb.WriteString(x.Value)
		case *DblQuoted:
			sb.WriteString(x.Value)
		case *VarRef:
			sb.WriteString("$")
			if x.Braced {
				sb.WriteString("{" + x.Name + "}")
			} else {
				sb.WriteString(x.Name)
			}
		case *CmdSubst:
			if x.Backquote {
				sb.WriteString("`" + x.Text + "`")
			} else {
				sb.WriteString("$(" + x.Text + ")")
			}
		case *ArithExp:
			sb.WriteString("$((" + x.Expr + "))")
		case *ProcSubst:
			if x.Dir == ProcOut {
				sb.WriteString(">(…)")
			} else {
				sb.WriteString("<(…)")
			}
		}
	}
	return sb.String()
}

// Lit reports whether the word is a single unquoted literal, and its
// value.
func (w *Word) Lit() (string, bool) {
	if len(w.Parts) != 1 {
		return "", false
	}
	l, ok := w.Parts[0].(*Lit)
	if !ok {
		return "", false
	}
	return l.Value, true
}

// WordPart is implemented by all nodes that can form part of a word.
type WordPart interface {
	Node
	wordPartNode()
}

func (*Lit) wordPartNode()       {}
func (*SglQuoted) wordPartNode() {}
func (*DblQuoted) wordPartNode() {}
func (*VarRef) wordPartNode()    {}
func (*CmdSubst) wordPartNode()  {}
func (*ArithExp) wordPartNode()  {}
func (*ProcSubst) wordPartNode() {}

// Lit is an unquoted literal string.
type Lit struct {
	ValuePos token.Position
	Value    string
}

func (l *Lit) Pos() token.Position { return l.ValuePos }

// SglQuoted is a single-quoted literal, exempt from expansion. Dollar
// marks the $'…' ANSI-C form, whose escapes the expander decodes.
type SglQuoted struct {
	Position token.Position
	Dollar   bool
	Value    string
}

func (q *SglQuoted) Pos() token.Position { return q.Position }

// DblQuoted is a double-quoted string; its text is subject to
// parameter and command expansion but not word splitting.
type DblQuoted struct {
	Position token.Position
	Dollar   bool // the $"…" translated form
	Value    string
}

func (q *DblQuoted) Pos() token.Position { return q.Position }

// VarRef is a parameter reference, $name or ${name…}. For the braced
// form Name holds the full inner text, e.g. "foo:-default".
type VarRef struct {
	Dollar token.Position
	Braced bool
	Name   string
}

func (v *VarRef) Pos() token.Position { return v.Dollar }

// CmdSubst is a command substitution; the enclosed source is kept as
// text and parsed by the execution engine when it runs it.
type CmdSubst struct {
	Left      token.Position
	Backquote bool
	Text      string
}

func (c *CmdSubst) Pos() token.Position { return c.Left }

// ArithExp is an arithmetic expansion $((expr)).
type ArithExp struct {
	Left token.Position
	Expr string
}

func (a *ArithExp) Pos() token.Position { return a.Left }

// ProcDir is the direction of a process substitution.
type ProcDir int

const (
	ProcIn  ProcDir = iota // <(…)
	ProcOut                // >(…)
)

// ProcSubst is a process substitution; unlike command substitution its
// body is parsed eagerly into a command list.
type ProcSubst struct {
	OpPos token.Position
	Dir   ProcDir
	Body  []Command
}

func (p *ProcSubst) Pos() token.Position { return p.OpPos }
