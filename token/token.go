// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

// Package token defines the lexical tokens exchanged between the conch
// tokenizer and the parser.
package token

import "fmt"

// Kind is the set of lexical token kinds. It is a closed enumeration;
// the parser pattern-matches against it exhaustively.
type Kind int

const (
	Illegal Kind = iota // lexical-error marker
	EOF
	Newline

	// Word-like tokens. Text holds the processed payload: the quote
	// content for the quoted kinds, the parameter name for Variable,
	// and the enclosed source text for the substitution kinds.
	Word
	SglQuoted     // '…'
	DollSglQuoted // $'…'
	DblQuoted     // "…"
	Variable      // $name or ${name…}
	CmdSubst      // $(…)
	Backquoted    // `…`
	ArithExp      // $((…))
	ArithCmd      // ((…)) in command position
	ProcSubIn     // <(…)
	ProcSubOut    // >(…)

	Assign    // =
	AppAssign // +=

	Semicolon    // ;
	DblSemicolon // ;;
	SemiAmp      // ;&
	DblSemiAmp   // ;;&
	Amp          // &
	AndIf        // &&
	OrIf         // ||
	Pipe         // |
	PipeAmp      // |&
	LeftParen    // (
	RightParen   // )

	RdrIn    // <
	RdrOut   // >
	AppOut   // >>
	Hdoc     // <<
	DashHdoc // <<-
	WordHdoc // <<<
	DplIn    // <&
	DplOut   // >&
	RdrInOut // <>
	ClbOut   // >|
	RdrAll   // &>
	AppAll   // &>>

	// Reserved words, recognized only while the stream's keyword
	// recognition is enabled and only as standalone words.
	If
	Then
	Elif
	Else
	Fi
	While
	Until
	Do
	Done
	For
	In
	Case
	Esac
	Select
	Function
	Coproc
	Time
	LeftBrace     // {
	RightBrace    // }
	ExclMark      // !
	DblLeftBrack  // [[
	DblRightBrack // ]]
)

var kindStrings = map[Kind]string{
	Illegal: "illegal token",
	EOF:     "end of input",
	Newline: "newline",

	Word:          "word",
	SglQuoted:     "single-quoted string",
	DollSglQuoted: "ansi-c quoted string",
	DblQuoted:     "double-quoted string",
	Variable:      "variable reference",
	CmdSubst:      "command substitution",
	Backquoted:    "backquoted substitution",
	ArithExp:      "arithmetic expansion",
	ArithCmd:      "arithmetic command",
	ProcSubIn:     "<(",
	ProcSubOut:    ">(",

	Assign:    "=",
	AppAssign: "+=",

	Semicolon:    ";",
	DblSemicolon: ";;",
	SemiAmp:      ";&",
	DblSemiAmp:   ";;&",
	Amp:          "&",
	AndIf:        "&&",
	OrIf:         "||",
	Pipe:         "|",
	PipeAmp:      "|&",
	LeftParen:    "(",
	RightParen:   ")",

	RdrIn:    "<",
	RdrOut:   ">",
	AppOut:   ">>",
	Hdoc:     "<<",
	DashHdoc: "<<-",
	WordHdoc: "<<<",
	DplIn:    "<&",
	DplOut:   ">&",
	RdrInOut: "<>",
	ClbOut:   ">|",
	RdrAll:   "&>",
	AppAll:   "&>>",

	If:            "if",
	Then:          "then",
	Elif:          "elif",
	Else:          "else",
	Fi:            "fi",
	While:         "while",
	Until:         "until",
	Do:            "do",
	Done:          "done",
	For:           "for",
	In:            "in",
	Case:          "case",
	Esac:          "esac",
	Select:        "select",
	Function:      "function",
	Coproc:        "coproc",
	Time:          "time",
	LeftBrace:     "{",
	RightBrace:    "}",
	ExclMark:      "!",
	DblLeftBrack:  "[[",
	DblRightBrack: "]]",
}

func (k Kind) String() string {
	if s, ok := kindStrings[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

var keywords = map[string]Kind{
	"if":       If,
	"then":     Then,
	"elif":     Elif,
	"else":     Else,
	"fi":       Fi,
	"while":    While,
	"until":    Until,
	"do":       Do,
	"done":     Done,
	"for":      For,
	"in":       In,
	"case":     Case,
	"esac":     Esac,
	"select":   Select,
	"function": Function,
	"coproc":   Coproc,
	"time":     Time,
	"{":        LeftBrace,
	"}":        RightBrace,
	"!":        ExclMark,
	"[[":       DblLeftBrack,
	"]]":       DblRightBrack,
}

// KeywordKind reports whether s spells a reserved word, and its kind.
func KeywordKind(s string) (Kind, bool) {
	k, ok := keywords[s]
	return k, ok
}

// IsKeyword reports whether k is a reserved word kind.
func (k Kind) IsKeyword() bool { return k >= If && k <= DblRightBrack }

// IsRedirect reports whether k is a redirection operator.
func (k Kind) IsRedirect() bool { return k >= RdrIn && k <= AppAll }

// IsCaseTerminator reports whether k terminates a case item.
func (k Kind) IsCaseTerminator() bool {
	return k == DblSemicolon || k == SemiAmp || k == DblSemiAmp
}

// IsWordLike reports whether a token of kind k can begin or extend a
// shell word via adjacency concatenation.
func (k Kind) IsWordLike() bool {
	switch k {
	case Word, SglQuoted, DollSglQuoted, DblQuoted, Variable, CmdSubst,
		Backquoted, ArithExp, ProcSubIn, ProcSubOut:
		return true
	}
	return false
}

// Position describes a location within a source buffer. A Position is
// valid if its Line is > 0.
type Position struct {
	Offset int // byte offset, starting at 0
	Line   int // line number, starting at 1
	Column int // column number, starting at 1 (in bytes)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position carries a real source location.
func (p Position) IsValid() bool { return p.Line > 0 }

// Token is a single lexical unit. It is immutable once produced.
type Token struct {
	Kind Kind
	Text string   // processed text; see the Kind constants
	Pos  Position // position of the first source byte
	Len  int      // length of the raw source image in bytes
}

// End returns the byte offset immediately after the token's source
// image. Two tokens are adjacent, and subject to word concatenation,
// when End of the first equals Pos.Offset of the second.
func (t Token) End() int { return t.Pos.Offset + t.Len }

func (t Token) String() string {
	switch t.Kind {
	case Word, SglQuoted, DollSglQuoted, DblQuoted, Variable:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
	return t.Kind.String()
}
