// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

package parser

import (
	"fmt"
	"strings"

	"conchsh.dev/conch/ast"
	"conchsh.dev/conch/diag"
	"conchsh.dev/conch/token"
)

// maybeAnonFunc checks for the anonymous function shape "( ) {" with
// bounded look-ahead, rewinding the stream when the third token rules
// it out so the subshell production sees an untouched stream. A nil
// command with ok set means "not an anonymous function".
func (p *Parser) maybeAnonFunc() (ast.Command, bool) {
	lp := p.cur()
	if p.peek().Kind != token.RightParen {
		return nil, true
	}
	st := p.ts.Save()
	p.adv() // onto )
	third := p.adv()
	if third.Kind != token.LeftBrace {
		p.ts.Restore(st)
		return nil, true
	}
	if !p.flag(FeatAnonFunc) {
		p.errAt(lp.Pos, diag.FeatureDisabled, "anonymous functions are disabled")
		return nil, false
	}
	blk, ok := p.block()
	if !ok {
		return nil, false
	}
	return &ast.AnonFunc{Position: lp.Pos, Body: blk.(*ast.Block)}, true
}

func (p *Parser) block() (ast.Command, bool) {
	p.pushCtx("the brace group")
	defer p.popCtx()
	lb := p.cur()
	p.adv()
	body, ok := p.commandList()
	if !ok {
		return nil, false
	}
	b := &ast.Block{Lbrace: lb.Pos, Body: body}
	t := p.cur()
	if t.Kind != token.RightBrace {
		p.errSuggest(t.Pos, diag.Unterminated,
			fmt.Sprintf("add \"}\" to close the group starting at %s", lb.Pos),
			"reached %s without matching { with }", t.Kind)
		return nil, false
	}
	b.Rbrace = t.Pos
	p.adv()
	if !p.trailingRedirs(&b.Redirs) {
		return nil, false
	}
	return b, true
}

func (p *Parser) subshell() (ast.Command, bool) {
	p.pushCtx("the subshell")
	defer p.popCtx()
	lp := p.cur()
	p.adv()
	body, ok := p.commandList()
	if !ok {
		return nil, false
	}
	s := &ast.Subshell{Lparen: lp.Pos, Body: body}
	t := p.cur()
	if t.Kind != token.RightParen {
		p.errSuggest(t.Pos, diag.Unterminated,
			fmt.Sprintf("add \")\" to close the subshell starting at %s", lp.Pos),
			"reached %s without matching ( with )", t.Kind)
		return nil, false
	}
	if len(body) == 0 {
		p.errAt(lp.Pos, diag.UnexpectedToken,
			"a subshell must contain at least one statement")
		return nil, false
	}
	s.Rparen = t.Pos
	p.adv()
	if !p.trailingRedirs(&s.Redirs) {
		return nil, false
	}
	return s, true
}

func (p *Parser) arithCmd() (ast.Command, bool) {
	t := p.cur()
	a := &ast.ArithCmd{Position: t.Pos, Expr: normalizeExpr(t.Text)}
	p.adv()
	if !p.trailingRedirs(&a.Redirs) {
		return nil, false
	}
	return a, true
}

// testClause parses [[ … ]]. The expression is kept as normalized
// text for the test evaluator: token source images joined by single
// spaces, with byte-adjacent tokens re-joined so operators the lexer
// splits, such as =~, come back out whole. The right-hand side of =~
// is scanned in regex mode and survives verbatim.
func (p *Parser) testClause() (ast.Command, bool) {
	lt := p.cur()
	if !p.flag(FeatExtTest) {
		p.errAt(lt.Pos, diag.FeatureDisabled, "extended tests are disabled")
		return nil, false
	}
	p.pushCtx("the extended test")
	defer p.popCtx()
	src := p.ts.Source()
	tc := &ast.TestClause{Left: lt.Pos}
	p.adv()
	var frags []string
	prevEnd := -1
	for {
		t := p.cur()
		switch t.Kind {
		case token.DblRightBrack:
			if len(frags) == 0 {
				p.errAt(t.Pos, diag.UnexpectedToken,
					"a test clause requires at least one expression")
				return nil, false
			}
			tc.Expr = strings.Join(frags, " ")
			tc.Right = t.Pos
			p.adv()
			return tc, true
		case token.Newline:
			p.adv()
			prevEnd = -1
			continue
		case token.EOF:
			p.errSuggest(t.Pos, diag.Unterminated,
				fmt.Sprintf("add \"]]\" to close the test started at %s", lt.Pos),
				"reached %s without matching [[ with ]]", t.Kind)
			return nil, false
		case token.Illegal:
			p.errAt(t.Pos, diag.LexError, "%s", t.Text)
			return nil, false
		}
		raw := string(src[t.Pos.Offset:t.End()])
		if t.Pos.Offset == prevEnd && len(frags) > 0 {
			frags[len(frags)-1] += raw
		} else {
			frags = append(frags, raw)
		}
		prevEnd = t.End()
		if frags[len(frags)-1] == "=~" {
			p.ts.SetRegex(true)
		}
		p.adv()
	}
}

func (p *Parser) ifClause() (ast.Command, bool) {
	p.pushCtx("the if statement")
	defer p.popCtx()
	ip := p.cur().Pos
	p.adv()
	ic := &ast.IfClause{If: ip}
	cond, ok := p.followList(`"if"`, ip)
	if !ok {
		return nil, false
	}
	ic.Cond = cond
	thenPos, ok := p.expect(token.Then, `"if" condition`)
	if !ok {
		return nil, false
	}
	ic.Then = thenPos
	if ic.ThenBody, ok = p.followList(`"then"`, thenPos); !ok {
		return nil, false
	}
	for p.cur().Kind == token.Elif {
		e := &ast.Elif{Elif: p.cur().Pos}
		p.adv()
		if e.Cond, ok = p.followList(`"elif"`, e.Elif); !ok {
			return nil, false
		}
		if e.Then, ok = p.expect(token.Then, `"elif" condition`); !ok {
			return nil, false
		}
		if e.Body, ok = p.followList(`"then"`, e.Then); !ok {
			return nil, false
		}
		ic.Elifs = append(ic.Elifs, e)
	}
	if t := p.cur(); t.Kind == token.Else {
		ic.Else = t.Pos
		p.adv()
		if ic.ElseBody, ok = p.followList(`"else"`, t.Pos); !ok {
			return nil, false
		}
	}
	if ic.Fi, ok = p.stmtEnd(ip, "if", token.Fi); !ok {
		return nil, false
	}
	if !p.trailingRedirs(&ic.Redirs) {
		return nil, false
	}
	return ic, true
}

func (p *Parser) whileClause(until bool) (ast.Command, bool) {
	name := "while"
	if until {
		name = "until"
	}
	p.pushCtx("the " + name + " loop")
	defer p.popCtx()
	wp := p.cur().Pos
	p.adv()
	wc := &ast.WhileClause{While: wp, Until: until}
	cond, ok := p.followList(`"`+name+`"`, wp)
	if !ok {
		return nil, false
	}
	wc.Cond = cond
	if wc.Do, ok = p.expect(token.Do, `"`+name+`" condition`); !ok {
		return nil, false
	}
	if wc.Body, ok = p.followList(`"do"`, wc.Do); !ok {
		return nil, false
	}
	if wc.Done, ok = p.stmtEnd(wp, name, token.Done); !ok {
		return nil, false
	}
	if !p.trailingRedirs(&wc.Redirs) {
		return nil, false
	}
	return wc, true
}

func (p *Parser) forClause() (ast.Command, bool) {
	p.pushCtx("the for loop")
	defer p.popCtx()
	fp := p.cur().Pos
	p.adv()
	if t := p.cur(); t.Kind == token.ArithCmd {
		return p.cForClause(fp, t)
	}
	nameTok := p.cur()
	if nameTok.Kind != token.Word || !validIdent(nameTok.Text) {
		p.followErr(nameTok.Pos, `"for"`, "a valid identifier")
		return nil, false
	}
	fc := &ast.ForClause{For: fp, Name: nameTok.Text, NamePos: nameTok.Pos}
	p.adv()
	words, inPos, ok := p.wordList(`"for ` + fc.Name + `"`)
	if !ok {
		return nil, false
	}
	fc.Words, fc.InPos = words, inPos
	doPos, ok := p.expect(token.Do, `"for `+fc.Name+` [in words]"`)
	if !ok {
		return nil, false
	}
	fc.Do = doPos
	if fc.Body, ok = p.followList(`"do"`, doPos); !ok {
		return nil, false
	}
	if fc.Done, ok = p.stmtEnd(fp, "for", token.Done); !ok {
		return nil, false
	}
	if !p.trailingRedirs(&fc.Redirs) {
		return nil, false
	}
	return fc, true
}

// cForClause parses the C-style header ((init; cond; post)) already
// scanned as one arithmetic token and splits it into its three
// expressions, any of which may be empty.
func (p *Parser) cForClause(fp token.Position, header token.Token) (ast.Command, bool) {
	parts := strings.Split(header.Text, ";")
	if len(parts) != 3 {
		p.errAt(header.Pos, diag.UnexpectedToken,
			"C-style loops must have the form ((init; cond; post))")
		return nil, false
	}
	cf := &ast.CForClause{
		For:  fp,
		Init: normalizeExpr(parts[0]),
		Cond: normalizeExpr(parts[1]),
		Post: normalizeExpr(parts[2]),
	}
	p.adv()
	p.got(token.Semicolon)
	p.skipNewlines()
	doPos, ok := p.expect(token.Do, `"for ((…))"`)
	if !ok {
		return nil, false
	}
	cf.Do = doPos
	if cf.Body, ok = p.followList(`"do"`, doPos); !ok {
		return nil, false
	}
	if cf.Done, ok = p.stmtEnd(fp, "for", token.Done); !ok {
		return nil, false
	}
	if !p.trailingRedirs(&cf.Redirs) {
		return nil, false
	}
	return cf, true
}

func (p *Parser) selectClause() (ast.Command, bool) {
	p.pushCtx("the select statement")
	defer p.popCtx()
	sp := p.cur().Pos
	p.adv()
	nameTok := p.cur()
	if nameTok.Kind != token.Word || !validIdent(nameTok.Text) {
		p.followErr(nameTok.Pos, `"select"`, "a valid identifier")
		return nil, false
	}
	sc := &ast.SelectClause{Select: sp, Name: nameTok.Text, NamePos: nameTok.Pos}
	p.adv()
	words, inPos, ok := p.wordList(`"select ` + sc.Name + `"`)
	if !ok {
		return nil, false
	}
	sc.Words, sc.InPos = words, inPos
	doPos, ok := p.expect(token.Do, `"select `+sc.Name+` [in words]"`)
	if !ok {
		return nil, false
	}
	sc.Do = doPos
	if sc.Body, ok = p.followList(`"do"`, doPos); !ok {
		return nil, false
	}
	if sc.Done, ok = p.stmtEnd(sp, "select", token.Done); !ok {
		return nil, false
	}
	if !p.trailingRedirs(&sc.Redirs) {
		return nil, false
	}
	return sc, true
}

// wordList parses the optional "in WORDS" part of a for or select
// header, up to the separator before "do". A nil word slice means the
// "in" list was absent.
func (p *Parser) wordList(left string) ([]*ast.Word, token.Position, bool) {
	var inPos token.Position
	if t := p.cur(); t.Kind != token.In {
		// "for x; do" and "for x do" iterate the positional
		// parameters
		p.got(token.Semicolon)
		p.skipNewlines()
		return nil, inPos, true
	}
	inPos = p.cur().Pos
	p.adv()
	words := []*ast.Word{}
	for wordStart(p.cur().Kind) {
		w, ok := p.word()
		if !ok {
			return nil, inPos, false
		}
		words = append(words, w)
	}
	switch t := p.cur(); t.Kind {
	case token.Semicolon, token.Newline:
		p.adv()
	case token.Do:
	default:
		p.errAt(t.Pos, diag.UnexpectedToken,
			"word lists must be terminated by ; or a newline")
		return nil, inPos, false
	}
	p.skipNewlines()
	return words, inPos, true
}

func (p *Parser) caseClause() (ast.Command, bool) {
	p.pushCtx("the case statement")
	defer p.popCtx()
	cp := p.cur().Pos
	p.adv()
	cc := &ast.CaseClause{Case: cp}
	if !wordStart(p.cur().Kind) {
		p.followErr(p.cur().Pos, `"case"`, "a word")
		return nil, false
	}
	w, ok := p.word()
	if !ok {
		return nil, false
	}
	cc.Word = w
	p.skipNewlines()
	if _, ok := p.expect(token.In, `"case `+cc.Word.Text()+`"`); !ok {
		return nil, false
	}
	p.skipNewlines()
	for {
		t := p.cur()
		if t.Kind == token.Esac {
			cc.Esac = t.Pos
			p.adv()
			break
		}
		if t.Kind == token.EOF {
			if _, ok := p.stmtEnd(cp, "case", token.Esac); !ok {
				return nil, false
			}
		}
		item, ok := p.caseItem(cp)
		if !ok {
			return nil, false
		}
		cc.Items = append(cc.Items, item)
	}
	if !p.trailingRedirs(&cc.Redirs) {
		return nil, false
	}
	return cc, true
}

// caseItem parses "pattern[|pattern]) body terminator". The pattern is
// kept as source text with its alternatives joined by |; the
// terminator defaults to ;; when the item runs straight into esac.
func (p *Parser) caseItem(cp token.Position) (*ast.CaseItem, bool) {
	ci := &ast.CaseItem{Position: p.cur().Pos}
	p.got(token.LeftParen)
	src := p.ts.Source()
	var pats []string
	for {
		if !wordStart(p.cur().Kind) {
			p.errCur(diag.UnexpectedToken, "case patterns must be words")
			return nil, false
		}
		w, ok := p.word()
		if !ok {
			return nil, false
		}
		pats = append(pats, string(src[w.Pos().Offset:p.wordEnd]))
		if p.cur().Kind != token.Pipe {
			break
		}
		p.adv()
	}
	ci.Pattern = strings.Join(pats, "|")
	if _, ok := p.expect(token.RightParen, "case patterns"); !ok {
		return nil, false
	}
	body, ok := p.commandList()
	if !ok {
		return nil, false
	}
	ci.Body = body
	switch t := p.cur(); t.Kind {
	case token.DblSemiAmp:
		ci.Op, ci.OpPos = ast.Continue, t.Pos
		p.adv()
	case token.SemiAmp:
		ci.Op, ci.OpPos = ast.Fallthrough, t.Pos
		p.adv()
	case token.DblSemicolon:
		ci.Op, ci.OpPos = ast.Break, t.Pos
		p.adv()
	case token.Esac:
		ci.Op = ast.Break
	case token.EOF:
		if _, ok := p.stmtEnd(cp, "case", token.Esac); !ok {
			return nil, false
		}
	default:
		p.errAt(t.Pos, diag.UnexpectedToken,
			"case items must be terminated by ;;, ;& or ;;&")
		return nil, false
	}
	p.skipNewlines()
	return ci, true
}

// funcDecl parses a function definition from the name word onward; the
// "function" keyword form funnels here too. Parameters are kept as an
// encoded comma-separated string for the execution engine to bind.
func (p *Parser) funcDecl(declPos token.Position) (ast.Command, bool) {
	p.pushCtx("the function definition")
	defer p.popCtx()
	nameTok := p.cur()
	fd := &ast.FuncDecl{Position: declPos, Name: nameTok.Text, NamePos: nameTok.Pos}
	if p.flag(FeatPosix) && !validIdent(fd.Name) {
		p.errAt(nameTok.Pos, diag.InvalidFunc, "invalid function name %q", fd.Name)
		return nil, false
	}
	p.adv()
	if p.cur().Kind == token.LeftParen {
		params, ok := p.funcParams()
		if !ok {
			return nil, false
		}
		if params != "" && p.flag(FeatPosix) {
			p.errAt(nameTok.Pos, diag.InvalidFunc,
				"function parameters are not allowed in posix mode")
			return nil, false
		}
		fd.Params = params
	}
	p.skipNewlines()
	body, ok := p.command()
	if !ok {
		return nil, false
	}
	fd.Body = body
	return fd, true
}

// functionDecl handles the "function name [()] body" keyword form.
func (p *Parser) functionDecl() (ast.Command, bool) {
	fp := p.cur().Pos
	p.adv()
	if p.cur().Kind != token.Word {
		p.followErr(p.cur().Pos, `"function"`, "a name")
		return nil, false
	}
	return p.funcDecl(fp)
}

// funcParams consumes ( … ) after a function name and returns the
// encoded parameter string, e.g. "a,b=1" for (a, b=1).
func (p *Parser) funcParams() (string, bool) {
	lp := p.cur()
	p.adv()
	src := p.ts.Source()
	var sb strings.Builder
	prevEnd := -1
	for {
		t := p.cur()
		switch t.Kind {
		case token.RightParen:
			p.adv()
			return sb.String(), true
		case token.EOF, token.Newline:
			p.errAt(t.Pos, diag.InvalidFunc,
				"reached %s without closing the parameter list started at %s",
				t.Kind, lp.Pos)
			return "", false
		case token.Illegal:
			p.errAt(t.Pos, diag.LexError, "%s", t.Text)
			return "", false
		}
		raw := string(src[t.Pos.Offset:t.End()])
		if sb.Len() > 0 && t.Pos.Offset != prevEnd &&
			!strings.HasSuffix(sb.String(), ",") && !strings.HasPrefix(raw, ",") {
			p.errAt(t.Pos, diag.InvalidFunc,
				"function parameters must be separated by commas")
			return "", false
		}
		sb.WriteString(raw)
		prevEnd = t.End()
		p.adv()
	}
}

// compoundStart reports whether k begins a compound command, used to
// tell a coprocess name from its command.
func compoundStart(k token.Kind) bool {
	switch k {
	case token.LeftBrace, token.LeftParen, token.ArithCmd,
		token.DblLeftBrack, token.If, token.While, token.Until,
		token.For, token.Case, token.Select, token.Function:
		return true
	}
	return false
}

func (p *Parser) coprocClause() (ast.Command, bool) {
	cp := p.cur()
	if !p.flag(FeatCoproc) {
		p.errAt(cp.Pos, diag.FeatureDisabled, "coprocesses are disabled")
		return nil, false
	}
	p.pushCtx("the coproc clause")
	defer p.popCtx()
	co := &ast.Coproc{Position: cp.Pos}
	p.adv()
	if t := p.cur(); t.Kind == token.Word && validIdent(t.Text) &&
		compoundStart(p.peek().Kind) {
		co.Name = t.Text
		p.adv()
	}
	if t := p.cur(); listStop(t.Kind) || t.Kind == token.Newline ||
		t.Kind == token.Semicolon || t.Kind == token.Amp {
		p.followErr(cp.Pos, `"coproc"`, "a statement")
		return nil, false
	}
	cmd, ok := p.command()
	if !ok {
		return nil, false
	}
	co.Cmd = cmd
	return co, true
}

func (p *Parser) timeClause() (ast.Command, bool) {
	tp := p.cur().Pos
	p.adv()
	tc := &ast.TimeClause{Position: tp}
	if t := p.cur(); listStop(t.Kind) || t.Kind == token.Newline ||
		t.Kind == token.Semicolon || t.Kind == token.Amp {
		// a bare "time" reports the shell's own times
		return tc, true
	}
	cmd, ok := p.pipeline()
	if !ok {
		return nil, false
	}
	tc.Cmd = cmd
	return tc, true
}
