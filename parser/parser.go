// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

// Package parser implements the recursive-descent syntax front end of
// the conch shell: it turns the token stream produced by the lexer
// into the ast package's node tree, accumulating structured
// diagnostics as it goes.
//
// A Parser instance is not safe for concurrent use, but independent
// instances share no state, so parses of different sources may run
// concurrently.
package parser

import (
	"fmt"
	"strings"

	"conchsh.dev/conch/ast"
	"conchsh.dev/conch/diag"
	"conchsh.dev/conch/lexer"
	"conchsh.dev/conch/token"
)

// TokenStream is the contract the parser consumes from the tokenizer.
// *lexer.Lexer implements it; tests may substitute their own.
type TokenStream interface {
	Current() token.Token
	Peek() token.Token
	Advance() token.Token
	AtEnd() bool

	// SetKeywords toggles reserved word recognition; the parser
	// disables it while scanning redirection targets.
	SetKeywords(on bool)
	// SetRegex arms one-shot regex-literal scanning, used for the
	// right-hand side of =~ inside extended tests.
	SetRegex(on bool)

	// Save and Restore provide the bounded look-ahead needed to
	// tell an anonymous function from a subshell.
	Save() lexer.State
	Restore(lexer.State)

	// Source exposes the raw source image for here-document
	// collection and operator text reconstruction; SkipRegion
	// splices collected here-document bodies out of the stream.
	Source() []byte
	SkipRegion(start, end int)
}

// Feature flag names, queried by name before parsing the construct
// they gate.
const (
	FeatArrays    = "arrays"
	FeatExtTest   = "extended-tests"
	FeatProcSubst = "process-substitution"
	FeatCoproc    = "coprocesses"
	FeatAnonFunc  = "anonymous-functions"
	FeatPosix     = "posix"
)

// Option configures a Parser.
type Option func(*Parser)

// Feature flips a shell-mode feature flag by name.
func Feature(name string, on bool) Option {
	return func(p *Parser) { p.flags[name] = on }
}

// PosixMode enables strict POSIX behaviour: bash-style extensions are
// rejected and function names must be valid identifiers.
func PosixMode(on bool) Option {
	return func(p *Parser) {
		p.flags[FeatPosix] = on
		if on {
			p.flags[FeatArrays] = false
			p.flags[FeatExtTest] = false
			p.flags[FeatProcSubst] = false
			p.flags[FeatCoproc] = false
			p.flags[FeatAnonFunc] = false
		}
	}
}

// MaxDepth sets the recursion ceiling; nesting deeper than n
// productions is reported as an error instead of overflowing the
// stack.
func MaxDepth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

const (
	defaultMaxDepth = 200
	maxContext      = 32
)

// Parser holds the options and per-parse state of the syntax front
// end. The zero value is not usable; call New.
type Parser struct {
	flags    map[string]bool
	maxDepth int

	ts  TokenStream
	col *diag.Collector

	ctx    [maxContext]string
	ctxLen int

	depth         int
	depthReported bool

	// byte offset just past the most recently collected
	// here-document terminator line
	hdocEnd int

	// set by word(): byte offset just past the last token of the
	// most recently parsed word
	wordEnd int
}

// New returns a Parser with all extensions enabled and the default
// recursion ceiling.
func New(opts ...Option) *Parser {
	p := &Parser{
		flags: map[string]bool{
			FeatArrays:    true,
			FeatExtTest:   true,
			FeatProcSubst: true,
			FeatCoproc:    true,
			FeatAnonFunc:  true,
		},
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse is a convenience wrapper around New(opts...).Parse.
func Parse(src []byte, name string, opts ...Option) (*ast.Program, error) {
	return New(opts...).Parse(src, name)
}

// Parse reads a shell program from src. On success it returns the
// root node; empty input yields a Program with no commands, which is
// not an error. On failure the program is absent and the returned
// error is the *diag.Collector holding every accumulated diagnostic,
// so a partial tree is never handed to the execution engine.
func (p *Parser) Parse(src []byte, name string) (*ast.Program, error) {
	p.ts = lexer.New(src)
	p.col = diag.NewCollector(name, src)
	p.ctxLen = 0
	p.depth = 0
	p.depthReported = false
	p.hdocEnd = 0

	prog := &ast.Program{Name: name}
	for {
		cmds, ok := p.commandList()
		prog.Cmds = append(prog.Cmds, cmds...)
		if ok && p.ts.AtEnd() {
			break
		}
		if ok {
			// the list stopped at a structural token that has
			// no construct to close at the top level
			p.reportStray(p.ts.Current())
		}
		if p.ts.AtEnd() {
			break
		}
		p.resync()
		if p.ts.AtEnd() {
			break
		}
	}
	if err := p.col.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// Diagnostics returns the collector of the most recent Parse, which
// may hold warnings even when Parse returned no error.
func (p *Parser) Diagnostics() *diag.Collector { return p.col }

func (p *Parser) flag(name string) bool { return p.flags[name] }

func (p *Parser) cur() token.Token  { return p.ts.Current() }
func (p *Parser) adv() token.Token  { return p.ts.Advance() }
func (p *Parser) peek() token.Token { return p.ts.Peek() }

func (p *Parser) got(k token.Kind) bool {
	if p.cur().Kind == k {
		p.adv()
		return true
	}
	return false
}

func (p *Parser) skipNewlines() {
	for p.cur().Kind == token.Newline {
		p.adv()
	}
}

// pushCtx and popCtx maintain the breadcrumb trail reported with each
// diagnostic; the stack is bounded, extra depth is simply not
// recorded.
func (p *Parser) pushCtx(what string) {
	if p.ctxLen < maxContext {
		p.ctx[p.ctxLen] = what
	}
	p.ctxLen++
}

func (p *Parser) popCtx() { p.ctxLen-- }

func (p *Parser) breadcrumbs() []string {
	n := p.ctxLen
	if n > maxContext {
		n = maxContext
	}
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = p.ctx[n-1-i]
	}
	return out
}

// enter guards recursion depth; productions that can nest call it on
// entry. Exceeding the ceiling reports a single diagnostic and makes
// every enclosing production fail.
func (p *Parser) enter() bool {
	p.depth++
	if p.depth > p.maxDepth {
		if !p.depthReported {
			p.depthReported = true
			p.errAt(p.cur().Pos, diag.DepthExceeded,
				"maximum nesting depth of %d exceeded", p.maxDepth)
		}
		return false
	}
	return true
}

func (p *Parser) leave() { p.depth-- }

func (p *Parser) errAt(pos token.Position, code diag.Code, format string, a ...any) {
	p.col.Add(diag.Diagnostic{
		Code:     code,
		Severity: diag.Error,
		Pos:      pos,
		Message:  fmt.Sprintf(format, a...),
		Context:  p.breadcrumbs(),
	})
}

func (p *Parser) errSuggest(pos token.Position, code diag.Code, suggestion, format string, a ...any) {
	p.col.Add(diag.Diagnostic{
		Code:       code,
		Severity:   diag.Error,
		Pos:        pos,
		Message:    fmt.Sprintf(format, a...),
		Context:    p.breadcrumbs(),
		Suggestion: suggestion,
	})
}

func (p *Parser) warnAt(pos token.Position, code diag.Code, format string, a ...any) {
	p.col.Add(diag.Diagnostic{
		Code:     code,
		Severity: diag.Warning,
		Pos:      pos,
		Message:  fmt.Sprintf(format, a...),
		Context:  p.breadcrumbs(),
	})
}

func (p *Parser) errCur(code diag.Code, format string, a ...any) {
	p.errAt(p.cur().Pos, code, format, a...)
}

// followErr reports the "X must be followed by Y" shape used
// throughout the grammar.
func (p *Parser) followErr(pos token.Position, left, right string) {
	p.errAt(pos, diag.UnexpectedToken, "%s must be followed by %s", left, right)
}

// expect consumes a token of kind k, reporting which construct needed
// it otherwise.
func (p *Parser) expect(k token.Kind, left string) (token.Position, bool) {
	t := p.cur()
	if t.Kind == k {
		p.adv()
		return t.Pos, true
	}
	p.followErr(t.Pos, left, fmt.Sprintf("%q", k.String()))
	return t.Pos, false
}

// stmtEnd consumes the closing keyword of a compound statement,
// reporting an unterminated-construct error naming both ends.
func (p *Parser) stmtEnd(openPos token.Position, start string, k token.Kind) (token.Position, bool) {
	t := p.cur()
	if t.Kind == k {
		p.adv()
		return t.Pos, true
	}
	p.errSuggest(t.Pos, diag.Unterminated,
		fmt.Sprintf("add %q to close the %s statement starting at %s", k, start, openPos),
		"%s statement must end with %q", start, k)
	return t.Pos, false
}

// reportStray diagnoses a structural token found at the top level.
func (p *Parser) reportStray(t token.Token) {
	switch t.Kind {
	case token.RightParen:
		p.errAt(t.Pos, diag.UnexpectedToken, "%s can only be used to close a subshell", t.Kind)
	case token.RightBrace:
		p.errAt(t.Pos, diag.UnexpectedToken, "%s can only be used to close a block", t.Kind)
	case token.DblSemicolon, token.SemiAmp, token.DblSemiAmp:
		p.errAt(t.Pos, diag.UnexpectedToken, "%s can only be used in a case clause", t.Kind)
	default:
		p.errAt(t.Pos, diag.UnexpectedToken, "%s is not a valid start for a statement", t.Kind)
	}
}

// resync discards tokens up to and including the next statement
// boundary so parsing can continue and report further diagnostics.
func (p *Parser) resync() {
	for {
		t := p.cur()
		switch t.Kind {
		case token.EOF:
			return
		case token.Semicolon, token.Newline,
			token.Fi, token.Done, token.Esac,
			token.RightBrace, token.RightParen:
			p.adv()
			return
		}
		p.adv()
	}
}

// listStop reports whether k terminates a command list: the closing
// keywords of every compound statement plus the case terminators.
func listStop(k token.Kind) bool {
	switch k {
	case token.EOF, token.Fi, token.Done, token.Esac, token.Elif,
		token.Else, token.Then, token.Do, token.RightBrace,
		token.RightParen, token.DblSemicolon, token.SemiAmp,
		token.DblSemiAmp:
		return true
	}
	return false
}

// commandList is the top production: commands separated by ;, & or
// newlines, stopping before any closing keyword so that callers
// embedding a list inside a compound statement can consume their own
// closer. A false result means a diagnostic was reported and the
// stream sits at the failure point for the driver to resynchronize.
func (p *Parser) commandList() ([]ast.Command, bool) {
	var cmds []ast.Command
	for {
		p.skipNewlines()
		t := p.cur()
		if listStop(t.Kind) {
			return cmds, true
		}
		switch t.Kind {
		case token.Semicolon, token.Amp, token.AndIf, token.OrIf,
			token.Pipe, token.PipeAmp:
			p.errAt(t.Pos, diag.UnexpectedToken,
				"%s can only immediately follow a statement", t.Kind)
			return nil, false
		case token.Illegal:
			p.errAt(t.Pos, diag.LexError, "%s", t.Text)
			return nil, false
		}
		c, ok := p.andOr()
		if !ok {
			return nil, false
		}
		switch t := p.cur(); t.Kind {
		case token.Amp:
			c = &ast.Background{AmpPos: t.Pos, Cmd: c}
			p.adv()
		case token.Semicolon, token.Newline:
			p.adv()
		case token.EOF:
		case token.Illegal:
			p.errAt(t.Pos, diag.LexError, "%s", t.Text)
			return nil, false
		default:
			if !listStop(t.Kind) {
				p.errAt(t.Pos, diag.UnexpectedToken,
					"statements must be separated by &, ; or a newline")
				return nil, false
			}
		}
		cmds = append(cmds, c)
	}
}

// followList parses the statement list that must follow a keyword such
// as "then" or "do"; an empty list is an error attributed to the
// keyword.
func (p *Parser) followList(left string, lpos token.Position) ([]ast.Command, bool) {
	cmds, ok := p.commandList()
	if !ok {
		return nil, false
	}
	if len(cmds) == 0 {
		p.followErr(lpos, left, "a statement list")
		return nil, false
	}
	return cmds, true
}

// andOr parses a left-associative && / || chain over pipelines. A
// newline right after the operator continues the expression.
func (p *Parser) andOr() (ast.Command, bool) {
	left, ok := p.pipeline()
	if !ok {
		return nil, false
	}
	for {
		t := p.cur()
		if t.Kind != token.AndIf && t.Kind != token.OrIf {
			return left, true
		}
		p.adv()
		p.skipNewlines()
		right, ok := p.pipeline()
		if !ok {
			return nil, false
		}
		left = &ast.AndOr{OpPos: t.Pos, Op: t.Kind, X: left, Y: right}
	}
}

// pipeline parses an optionally negated sequence of commands joined
// by | or |&. Single un-negated commands collapse to the bare command
// node.
func (p *Parser) pipeline() (ast.Command, bool) {
	first := p.cur()
	negated := false
	if first.Kind == token.ExclMark {
		negated = true
		p.adv()
	}
	c, ok := p.command()
	if !ok {
		return nil, false
	}
	cmds := []ast.Command{c}
	var stderrPipes []bool
	for {
		t := p.cur()
		if t.Kind != token.Pipe && t.Kind != token.PipeAmp {
			break
		}
		p.adv()
		p.skipNewlines()
		next, ok := p.command()
		if !ok {
			return nil, false
		}
		stderrPipes = append(stderrPipes, t.Kind == token.PipeAmp)
		cmds = append(cmds, next)
	}
	if len(cmds) == 1 && !negated {
		return c, true
	}
	return &ast.Pipeline{
		Position:    first.Pos,
		Negated:     negated,
		Cmds:        cmds,
		StderrPipes: stderrPipes,
	}, true
}

// command dispatches on the current token to the right production:
// compound statements by keyword, subshell vs anonymous function by
// bounded look-ahead, and simple commands otherwise.
func (p *Parser) command() (ast.Command, bool) {
	if !p.enter() {
		return nil, false
	}
	defer p.leave()

	t := p.cur()
	switch t.Kind {
	case token.EOF:
		p.errAt(t.Pos, diag.UnexpectedToken, "a command was expected before end of input")
		return nil, false
	case token.Illegal:
		p.errAt(t.Pos, diag.LexError, "%s", t.Text)
		return nil, false
	case token.LeftParen:
		if anon, ok := p.maybeAnonFunc(); anon != nil || !ok {
			return anon, ok
		}
		return p.subshell()
	case token.LeftBrace:
		return p.block()
	case token.ArithCmd:
		return p.arithCmd()
	case token.DblLeftBrack:
		return p.testClause()
	case token.If:
		return p.ifClause()
	case token.While:
		return p.whileClause(false)
	case token.Until:
		return p.whileClause(true)
	case token.For:
		return p.forClause()
	case token.Case:
		return p.caseClause()
	case token.Select:
		return p.selectClause()
	case token.Function:
		return p.functionDecl()
	case token.Coproc:
		return p.coprocClause()
	case token.Time:
		return p.timeClause()
	case token.In, token.DblRightBrack:
		p.errAt(t.Pos, diag.UnexpectedToken, "%s is not a valid start for a statement", t.Kind)
		return nil, false
	}
	if t.Kind == token.Word && !p.assignStart() {
		if nt := p.peek(); nt.Kind == token.LeftParen {
			return p.funcDecl(t.Pos)
		}
	}
	if wordStart(t.Kind) {
		return p.simpleCmd()
	}
	p.errAt(t.Pos, diag.UnexpectedToken, "%s is not a valid start for a statement", t.Kind)
	return nil, false
}

// wordStart reports whether a token of kind k can begin a shell word.
// Reserved words are included: they are only structural in command
// position, which the dispatcher has already ruled out.
func wordStart(k token.Kind) bool {
	return k.IsWordLike() || k.IsKeyword() || k == token.Assign || k == token.AppAssign
}

// simpleCmd parses assignment and redirection prefixes, the command
// word, and the interleaved argument/redirection suffix.
func (p *Parser) simpleCmd() (ast.Command, bool) {
	s := &ast.SimpleCmd{Position: p.cur().Pos}
prefixes:
	for {
		switch {
		case p.redirStart():
			if !p.redirect(&s.Redirs) {
				return nil, false
			}
		case p.assignStart():
			a, ok := p.assignment()
			if !ok {
				return nil, false
			}
			s.Assigns = append(s.Assigns, a)
		default:
			break prefixes
		}
	}
	for {
		t := p.cur()
		switch {
		case p.redirStart():
			if !p.redirect(&s.Redirs) {
				return nil, false
			}
		case wordStart(t.Kind):
			w, ok := p.word()
			if !ok {
				return nil, false
			}
			s.Args = append(s.Args, w)
		default:
			if len(s.Args) == 0 && len(s.Assigns) == 0 && len(s.Redirs) == 0 {
				p.errAt(t.Pos, diag.UnexpectedToken,
					"%s is not a valid start for a statement", t.Kind)
				return nil, false
			}
			return s, true
		}
	}
}

// word parses one shell word: the current token plus every following
// word-like token that is byte-adjacent to it. Any gap between tokens
// breaks concatenation and ends the word.
func (p *Parser) word() (*ast.Word, bool) {
	w := &ast.Word{}
	t := p.cur()
	for {
		part, ok := p.wordPart(t)
		if !ok {
			return nil, false
		}
		w.Parts = append(w.Parts, part)
		p.wordEnd = t.End()
		nt := p.adv()
		if nt.Pos.Offset != t.End() || !wordStart(nt.Kind) {
			break
		}
		t = nt
	}
	return w, true
}

// wordPart converts a single token into its leaf node.
func (p *Parser) wordPart(t token.Token) (ast.WordPart, bool) {
	switch t.Kind {
	case token.Word:
		return &ast.Lit{ValuePos: t.Pos, Value: t.Text}, true
	case token.Assign, token.AppAssign:
		return &ast.Lit{ValuePos: t.Pos, Value: t.Kind.String()}, true
	case token.SglQuoted:
		return &ast.SglQuoted{Position: t.Pos, Value: t.Text}, true
	case token.DollSglQuoted:
		return &ast.SglQuoted{Position: t.Pos, Dollar: true, Value: t.Text}, true
	case token.DblQuoted:
		dollar := p.ts.Source()[t.Pos.Offset] == '$'
		return &ast.DblQuoted{Position: t.Pos, Dollar: dollar, Value: t.Text}, true
	case token.Variable:
		return &ast.VarRef{Dollar: t.Pos, Braced: t.Len != len(t.Text)+1, Name: t.Text}, true
	case token.CmdSubst:
		return &ast.CmdSubst{Left: t.Pos, Text: t.Text}, true
	case token.Backquoted:
		return &ast.CmdSubst{Left: t.Pos, Backquote: true, Text: t.Text}, true
	case token.ArithExp:
		return &ast.ArithExp{Left: t.Pos, Expr: normalizeExpr(t.Text)}, true
	case token.ProcSubIn, token.ProcSubOut:
		return p.procSubst(t)
	case token.Illegal:
		p.errAt(t.Pos, diag.LexError, "%s", t.Text)
		return nil, false
	}
	if t.Kind.IsKeyword() {
		return &ast.Lit{ValuePos: t.Pos, Value: t.Text}, true
	}
	p.errAt(t.Pos, diag.UnexpectedToken, "%s cannot form part of a word", t.Kind)
	return nil, false
}

// procSubst parses the enclosed source of a <(…) or >(…) token into a
// command list using an independent parser instance.
func (p *Parser) procSubst(t token.Token) (ast.WordPart, bool) {
	if !p.flag(FeatProcSubst) {
		p.errAt(t.Pos, diag.FeatureDisabled, "process substitution is disabled")
		return nil, false
	}
	dir := ast.ProcIn
	if t.Kind == token.ProcSubOut {
		dir = ast.ProcOut
	}
	sub := New(MaxDepth(p.maxDepth - p.depth))
	for name, on := range p.flags {
		sub.flags[name] = on
	}
	prog, err := sub.Parse([]byte(t.Text), p.col.Name())
	if err != nil {
		first := sub.Diagnostics().Diagnostics()[0]
		p.errAt(t.Pos, first.Code, "in process substitution: %s", first.Message)
		return nil, false
	}
	return &ast.ProcSubst{OpPos: t.Pos, Dir: dir, Body: prog.Cmds}, true
}

// assignStart reports whether the current token begins an assignment:
// a word spelling a valid name (optionally with a subscript) followed
// immediately, with no byte gap, by = or +=.
func (p *Parser) assignStart() bool {
	t := p.cur()
	if t.Kind != token.Word {
		return false
	}
	nt := p.peek()
	if nt.Kind != token.Assign && nt.Kind != token.AppAssign {
		return false
	}
	if nt.Pos.Offset != t.End() {
		return false
	}
	name, _, hasSub := splitSubscript(t.Text)
	if hasSub && !p.flag(FeatArrays) {
		return false
	}
	return validIdent(name)
}

// assignment parses name=value, name+=value, name[sub]=value and the
// array literal form name=( … ).
func (p *Parser) assignment() (*ast.Assign, bool) {
	t := p.cur()
	name, sub, _ := splitSubscript(t.Text)
	a := &ast.Assign{NamePos: t.Pos, Name: name, Index: sub}
	op := p.adv()
	a.Append = op.Kind == token.AppAssign
	opEnd := op.End()
	nt := p.adv()
	if nt.Pos.Offset != opEnd {
		// no adjacent value: an empty assignment like FOO=
		return a, true
	}
	if nt.Kind == token.LeftParen {
		if a.Index != "" {
			p.errAt(nt.Pos, diag.InvalidArray,
				"array literals cannot be assigned to an array element")
			return nil, false
		}
		if !p.flag(FeatArrays) {
			p.errAt(nt.Pos, diag.FeatureDisabled, "arrays are disabled")
			return nil, false
		}
		arr, ok := p.arrayLiteral()
		if !ok {
			return nil, false
		}
		a.Array = arr
		return a, true
	}
	if !wordStart(nt.Kind) {
		return a, true
	}
	w, ok := p.word()
	if !ok {
		return nil, false
	}
	a.Value = w
	return a, true
}

// arrayLiteral parses ( … ) after name=, with optional [index]=value
// elements. Newlines may separate elements.
func (p *Parser) arrayLiteral() (*ast.ArrayExpr, bool) {
	lp := p.cur()
	arr := &ast.ArrayExpr{Lparen: lp.Pos}
	p.adv()
	for {
		p.skipNewlines()
		t := p.cur()
		if t.Kind == token.RightParen {
			arr.Rparen = t.Pos
			p.adv()
			return arr, true
		}
		if t.Kind == token.EOF {
			p.errAt(t.Pos, diag.Unterminated,
				"reached %s without matching ( with )", t.Kind)
			return nil, false
		}
		elem := &ast.ArrayElem{}
		if idx, ok := subscriptPrefix(t); ok {
			nt := p.peek()
			if nt.Kind == token.Assign && nt.Pos.Offset == t.End() {
				elem.Index = idx
				asg := p.adv() // the = token
				asgEnd := asg.End()
				vt := p.adv()
				if vt.Pos.Offset == asgEnd && wordStart(vt.Kind) {
					w, ok := p.word()
					if !ok {
						return nil, false
					}
					elem.Value = w
				} else {
					elem.Value = &ast.Word{}
				}
				arr.Elems = append(arr.Elems, elem)
				continue
			}
		}
		if !wordStart(t.Kind) {
			p.errAt(t.Pos, diag.InvalidArray, "array elements must be words")
			return nil, false
		}
		w, ok := p.word()
		if !ok {
			return nil, false
		}
		elem.Value = w
		arr.Elems = append(arr.Elems, elem)
	}
}

// subscriptPrefix recognizes a token spelling exactly "[index]".
func subscriptPrefix(t token.Token) (string, bool) {
	if t.Kind != token.Word || len(t.Text) < 3 {
		return "", false
	}
	if t.Text[0] != '[' || t.Text[len(t.Text)-1] != ']' {
		return "", false
	}
	return t.Text[1 : len(t.Text)-1], true
}

// redirStart reports whether the current token begins a redirection,
// including the NUMBER> form where the fd digits sit right against the
// operator.
func (p *Parser) redirStart() bool {
	t := p.cur()
	if t.Kind.IsRedirect() {
		return true
	}
	if t.Kind == token.Word && allDigits(t.Text) {
		nt := p.peek()
		return nt.Kind.IsRedirect() && nt.Pos.Offset == t.End()
	}
	return false
}

// redirect parses one redirection and appends it to redirs. Keyword
// recognition is disabled while scanning the target so that a file
// named like a reserved word stays a plain word.
func (p *Parser) redirect(redirs *[]*ast.Redirect) bool {
	r := &ast.Redirect{}
	t := p.cur()
	if t.Kind == token.Word {
		r.N = t.Text
		t = p.adv()
	}
	r.Op, r.OpPos = t.Kind, t.Pos
	p.ts.SetKeywords(false)
	nt := p.adv()
	if nt.Kind == token.Newline || nt.Kind == token.EOF {
		p.ts.SetKeywords(true)
		code := diag.InvalidRedirect
		what := "a redirection target"
		if r.Op == token.Hdoc || r.Op == token.DashHdoc {
			what = "the here-document delimiter on the same line"
		}
		p.errAt(nt.Pos, code, "%s must be followed by %s", r.Op, what)
		return false
	}
	if !wordStart(nt.Kind) {
		p.ts.SetKeywords(true)
		p.errAt(nt.Pos, diag.InvalidRedirect,
			"%s must be followed by a word", r.Op)
		return false
	}
	w, ok := p.word()
	p.ts.SetKeywords(true)
	if !ok {
		return false
	}
	r.Word = w
	if r.Op == token.Hdoc || r.Op == token.DashHdoc {
		if !p.heredoc(r) {
			return false
		}
	}
	*redirs = append(*redirs, r)
	return true
}

// heredoc collects the body for a << or <<- redirection by scanning
// the raw source line by line, then splices the body region out of
// the token stream so the rest of the command line still tokenizes.
func (p *Parser) heredoc(r *ast.Redirect) bool {
	delim := r.Word.Text()
	r.HdocExpand = true
	for _, part := range r.Word.Parts {
		switch part.(type) {
		case *ast.SglQuoted, *ast.DblQuoted:
			r.HdocExpand = false
		}
	}
	src := p.ts.Source()
	stripTabs := r.Op == token.DashHdoc

	// the body begins after the newline ending the operator's line,
	// or directly after the previous here-document of the same line
	searchFrom := p.cur().Pos.Offset
	bodyStart := len(src)
	if p.hdocEnd > searchFrom {
		bodyStart = p.hdocEnd
	} else {
		for i := searchFrom; i < len(src); i++ {
			if src[i] == '\n' {
				bodyStart = i + 1
				break
			}
		}
	}

	var body strings.Builder
	i := bodyStart
	for i < len(src) {
		lineEnd := i
		for lineEnd < len(src) && src[lineEnd] != '\n' {
			lineEnd++
		}
		line := string(src[i:lineEnd])
		if stripTabs {
			line = strings.TrimLeft(line, "\t")
		}
		if line == delim {
			end := lineEnd
			if end < len(src) {
				end++ // include the terminating newline
			}
			r.HdocBody = body.String()
			p.ts.SkipRegion(bodyStart, end)
			p.hdocEnd = end
			return true
		}
		body.WriteString(line)
		body.WriteString("\n")
		i = lineEnd + 1
	}
	// bash accepts a here-document terminated by end of file, with a
	// warning
	p.warnAt(r.OpPos, diag.Unterminated,
		"here-document at end of file delimited by end-of-file (wanted %q)", delim)
	r.HdocBody = body.String()
	p.ts.SkipRegion(bodyStart, len(src))
	p.hdocEnd = len(src)
	return true
}

// trailingRedirs attaches redirections that follow a compound
// statement to the compound node itself.
func (p *Parser) trailingRedirs(redirs *[]*ast.Redirect) bool {
	for p.redirStart() {
		if !p.redirect(redirs) {
			return false
		}
	}
	return true
}

// normalizeExpr collapses runs of whitespace in an arithmetic or test
// expression to single spaces.
func normalizeExpr(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// validIdent reports whether s is a valid shell variable or function
// name.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '_':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// splitSubscript splits "name[sub]" into its parts; hasSub is false
// when the word has no well-formed trailing subscript.
func splitSubscript(s string) (name, sub string, hasSub bool) {
	i := strings.IndexByte(s, '[')
	if i <= 0 || !strings.HasSuffix(s, "]") {
		return s, "", false
	}
	return s[:i], s[i+1 : len(s)-1], true
}
