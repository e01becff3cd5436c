// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

// Package lexer implements the incremental token stream consumed by the
// conch parser. The scanner keeps a current token plus at most one
// token of look-ahead, and exposes the mode switches the grammar needs:
// keyword recognition can be disabled while scanning redirection
// targets, and a one-shot regex mode scans the right-hand side of =~
// inside extended tests as a single verbatim word.
package lexer

import "conchsh.dev/conch/token"

// Lexer scans a source buffer into tokens. It is not safe for
// concurrent use; each parse owns its own Lexer.
type Lexer struct {
	src []byte

	npos      int // scan cursor
	line      int // 1-based line of the cursor
	lineStart int // offset of the first byte of the current line

	cur      token.Token
	ahead    token.Token
	hasAhead bool

	keywords bool
	regex    bool // one-shot; reset after the next scanned token

	// here-document bodies registered by the parser; the cursor
	// jumps over them when it reaches their start offset
	skips []span
}

type span struct{ start, end int }

// New returns a Lexer over src with the first token already scanned.
func New(src []byte) *Lexer {
	l := &Lexer{src: src, line: 1, keywords: true}
	l.cur = l.scan()
	return l
}

// Source returns the raw source buffer. The parser reads it directly
// for here-document collection and operator text reconstruction.
func (l *Lexer) Source() []byte { return l.src }

// Current returns the token at the front of the stream.
func (l *Lexer) Current() token.Token { return l.cur }

// Peek returns the token following the current one without consuming
// anything.
func (l *Lexer) Peek() token.Token {
	if !l.hasAhead {
		l.ahead = l.scan()
		l.hasAhead = true
	}
	return l.ahead
}

// Advance discards the current token and returns the next one.
func (l *Lexer) Advance() token.Token {
	if l.hasAhead {
		l.cur = l.ahead
		l.hasAhead = false
	} else {
		l.cur = l.scan()
	}
	return l.cur
}

// AtEnd reports whether the stream has reached end of input.
func (l *Lexer) AtEnd() bool { return l.cur.Kind == token.EOF }

// SetKeywords toggles reserved word recognition. Any cached look-ahead
// is rescanned so the toggle applies to the very next token.
func (l *Lexer) SetKeywords(on bool) {
	if l.keywords == on {
		return
	}
	l.keywords = on
	l.rescanAhead()
}

// SetRegex arms regex-literal scanning for the next token. The mode
// disarms itself once a token has been produced under it.
func (l *Lexer) SetRegex(on bool) {
	if l.regex == on {
		return
	}
	l.regex = on
	l.rescanAhead()
}

func (l *Lexer) rescanAhead() {
	if !l.hasAhead {
		return
	}
	l.npos = l.ahead.Pos.Offset
	l.line = l.ahead.Pos.Line
	l.lineStart = l.npos - (l.ahead.Pos.Column - 1)
	l.hasAhead = false
}

// State is an opaque stream-position snapshot for bounded look-ahead.
type State struct {
	npos, line, lineStart int
	cur, ahead            token.Token
	hasAhead              bool
}

// Save captures the stream position so a caller can look several
// tokens ahead and rewind without desynchronizing the scanner.
func (l *Lexer) Save() State {
	return State{l.npos, l.line, l.lineStart, l.cur, l.ahead, l.hasAhead}
}

// Restore rewinds the stream to a previously saved position.
func (l *Lexer) Restore(s State) {
	l.npos, l.line, l.lineStart = s.npos, s.line, s.lineStart
	l.cur, l.ahead, l.hasAhead = s.cur, s.ahead, s.hasAhead
}

// SkipRegion registers a half-open byte range the scanner must jump
// over, used to splice here-document bodies out of the token stream.
func (l *Lexer) SkipRegion(start, end int) {
	if end <= start {
		return
	}
	l.skips = append(l.skips, span{start, end})
}

func (l *Lexer) applySkips() {
	for _, s := range l.skips {
		if l.npos >= s.start && l.npos < s.end {
			l.bump(l.npos, s.end)
			l.npos = s.end
		}
	}
}

// bump advances the line accounting over src[from:to].
func (l *Lexer) bump(from, to int) {
	for i := from; i < to && i < len(l.src); i++ {
		if l.src[i] == '\n' {
			l.line++
			l.lineStart = i + 1
		}
	}
}

// commentStart reports whether a '#' at the cursor begins a comment,
// which requires a word boundary right before it.
func (l *Lexer) commentStart() bool {
	if l.npos == 0 {
		return true
	}
	switch l.src[l.npos-1] {
	case ' ', '\t', '\r', '\n', ';', '&', '|', '(', ')', '<', '>':
		return true
	}
	return false
}

func (l *Lexer) byteAt(i int) byte {
	if i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

func (l *Lexer) position(offset int) token.Position {
	return token.Position{Offset: offset, Line: l.line, Column: offset - l.lineStart + 1}
}

func (l *Lexer) tok(kind token.Kind, text string, start int) token.Token {
	pos := l.position(start)
	t := token.Token{Kind: kind, Text: text, Pos: pos, Len: l.npos - start}
	l.bump(start, l.npos)
	return t
}

// illegal produces a lexical-error marker; the message travels in Text.
func (l *Lexer) illegal(msg string, start int) token.Token {
	return l.tok(token.Illegal, msg, start)
}

func wordBreak(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', ';', '&', '|', '(', ')', '<', '>',
		'\'', '"', '`', '$', '=':
		return true
	}
	return false
}

func (l *Lexer) scan() token.Token {
	l.applySkips()
	if l.regex {
		l.regex = false
		return l.scanRegex()
	}
skipSpace:
	for l.npos < len(l.src) {
		switch l.src[l.npos] {
		case ' ', '\t', '\r':
			l.npos++
		case '\\':
			// escaped newline is a line continuation
			if l.byteAt(l.npos+1) == '\n' {
				l.bump(l.npos, l.npos+2)
				l.npos += 2
			} else {
				break skipSpace
			}
		case '#':
			if !l.commentStart() {
				break skipSpace
			}
			for l.npos < len(l.src) && l.src[l.npos] != '\n' {
				l.npos++
			}
		default:
			break skipSpace
		}
		l.applySkips()
	}
	start := l.npos
	if l.npos >= len(l.src) {
		return token.Token{Kind: token.EOF, Pos: l.position(start)}
	}
	b := l.src[l.npos]
	switch b {
	case '\n':
		l.npos++
		t := l.tok(token.Newline, "\n", start)
		return t
	case ';':
		if l.byteAt(l.npos+1) == ';' {
			if l.byteAt(l.npos+2) == '&' {
				l.npos += 3
				return l.tok(token.DblSemiAmp, ";;&", start)
			}
			l.npos += 2
			return l.tok(token.DblSemicolon, ";;", start)
		}
		if l.byteAt(l.npos+1) == '&' {
			l.npos += 2
			return l.tok(token.SemiAmp, ";&", start)
		}
		l.npos++
		return l.tok(token.Semicolon, ";", start)
	case '&':
		switch l.byteAt(l.npos + 1) {
		case '&':
			l.npos += 2
			return l.tok(token.AndIf, "&&", start)
		case '>':
			if l.byteAt(l.npos+2) == '>' {
				l.npos += 3
				return l.tok(token.AppAll, "&>>", start)
			}
			l.npos += 2
			return l.tok(token.RdrAll, "&>", start)
		}
		l.npos++
		return l.tok(token.Amp, "&", start)
	case '|':
		switch l.byteAt(l.npos + 1) {
		case '|':
			l.npos += 2
			return l.tok(token.OrIf, "||", start)
		case '&':
			l.npos += 2
			return l.tok(token.PipeAmp, "|&", start)
		}
		l.npos++
		return l.tok(token.Pipe, "|", start)
	case '(':
		if l.byteAt(l.npos+1) == '(' {
			if inner, end, ok := l.balancedDouble(l.npos + 2); ok {
				l.npos = end
				return l.tok(token.ArithCmd, inner, start)
			}
		}
		l.npos++
		return l.tok(token.LeftParen, "(", start)
	case ')':
		l.npos++
		return l.tok(token.RightParen, ")", start)
	case '<':
		switch l.byteAt(l.npos + 1) {
		case '<':
			switch l.byteAt(l.npos + 2) {
			case '-':
				l.npos += 3
				return l.tok(token.DashHdoc, "<<-", start)
			case '<':
				l.npos += 3
				return l.tok(token.WordHdoc, "<<<", start)
			}
			l.npos += 2
			return l.tok(token.Hdoc, "<<", start)
		case '&':
			l.npos += 2
			return l.tok(token.DplIn, "<&", start)
		case '>':
			l.npos += 2
			return l.tok(token.RdrInOut, "<>", start)
		case '(':
			inner, end, ok := l.balancedParens(l.npos + 2)
			if !ok {
				l.npos = end
				return l.illegal("unterminated process substitution", start)
			}
			l.npos = end
			return l.tok(token.ProcSubIn, inner, start)
		}
		l.npos++
		return l.tok(token.RdrIn, "<", start)
	case '>':
		switch l.byteAt(l.npos + 1) {
		case '>':
			l.npos += 2
			return l.tok(token.AppOut, ">>", start)
		case '&':
			l.npos += 2
			return l.tok(token.DplOut, ">&", start)
		case '|':
			l.npos += 2
			return l.tok(token.ClbOut, ">|", start)
		case '(':
			inner, end, ok := l.balancedParens(l.npos + 2)
			if !ok {
				l.npos = end
				return l.illegal("unterminated process substitution", start)
			}
			l.npos = end
			return l.tok(token.ProcSubOut, inner, start)
		}
		l.npos++
		return l.tok(token.RdrOut, ">", start)
	case '=':
		l.npos++
		return l.tok(token.Assign, "=", start)
	case '\'':
		return l.scanSglQuoted(start, false)
	case '"':
		return l.scanDblQuoted(start, false)
	case '`':
		return l.scanBackquoted(start)
	case '$':
		return l.scanDollar(start)
	}
	return l.scanWord(start)
}

func (l *Lexer) scanSglQuoted(start int, dollar bool) token.Token {
	i := start + 1
	if dollar {
		i++ // past $'
	}
	for i < len(l.src) {
		b := l.src[i]
		if dollar && b == '\\' {
			i += 2
			continue
		}
		if b == '\'' {
			text := string(l.src[start+1 : i])
			if dollar {
				text = string(l.src[start+2 : i])
			}
			l.npos = i + 1
			kind := token.SglQuoted
			if dollar {
				kind = token.DollSglQuoted
			}
			return l.tok(kind, text, start)
		}
		i++
	}
	l.npos = len(l.src)
	return l.illegal("unterminated single-quoted string", start)
}

func (l *Lexer) scanDblQuoted(start int, dollar bool) token.Token {
	i := start + 1
	if dollar {
		i++ // past $"
	}
	from := i
	for i < len(l.src) {
		switch l.src[i] {
		case '\\':
			i += 2
			continue
		case '`':
			j, ok := l.skipBackquoted(i + 1)
			if !ok {
				l.npos = len(l.src)
				return l.illegal("unterminated command substitution", start)
			}
			i = j
			continue
		case '$':
			if l.byteAt(i+1) == '(' {
				_, j, ok := l.balancedParens(i + 2)
				if !ok {
					l.npos = len(l.src)
					return l.illegal("unterminated command substitution", start)
				}
				i = j
				continue
			}
		case '"':
			l.npos = i + 1
			return l.tok(token.DblQuoted, string(l.src[from:i]), start)
		}
		i++
	}
	l.npos = len(l.src)
	return l.illegal("unterminated double-quoted string", start)
}

func (l *Lexer) scanBackquoted(start int) token.Token {
	end, ok := l.skipBackquoted(start + 1)
	if !ok {
		l.npos = len(l.src)
		return l.illegal("unterminated backquoted substitution", start)
	}
	l.npos = end
	return l.tok(token.Backquoted, string(l.src[start+1:end-1]), start)
}

// skipBackquoted returns the offset just past the closing backtick.
func (l *Lexer) skipBackquoted(i int) (int, bool) {
	for i < len(l.src) {
		switch l.src[i] {
		case '\\':
			i += 2
			continue
		case '`':
			return i + 1, true
		}
		i++
	}
	return i, false
}

func (l *Lexer) scanDollar(start int) token.Token {
	switch l.byteAt(start + 1) {
	case '\'':
		return l.scanSglQuoted(start, true)
	case '"':
		return l.scanDblQuoted(start, true)
	case '(':
		if l.byteAt(start+2) == '(' {
			if inner, end, ok := l.balancedDouble(start + 3); ok {
				l.npos = end
				return l.tok(token.ArithExp, inner, start)
			}
		}
		inner, end, ok := l.balancedParens(start + 2)
		if !ok {
			l.npos = end
			return l.illegal("unterminated command substitution", start)
		}
		l.npos = end
		return l.tok(token.CmdSubst, inner, start)
	case '{':
		i := start + 2
		depth := 1
		for i < len(l.src) && depth > 0 {
			switch l.src[i] {
			case '\\':
				i++
			case '{':
				depth++
			case '}':
				depth--
			}
			i++
		}
		if depth > 0 {
			l.npos = i
			return l.illegal("unterminated parameter expansion", start)
		}
		l.npos = i
		return l.tok(token.Variable, string(l.src[start+2:i-1]), start)
	}
	b := l.byteAt(start + 1)
	switch {
	case b == '@' || b == '*' || b == '#' || b == '$' || b == '?' ||
		b == '!' || b == '-' || (b >= '0' && b <= '9'):
		l.npos = start + 2
		return l.tok(token.Variable, string(b), start)
	case b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z':
		i := start + 1
		for i < len(l.src) && identByte(l.src[i], i > start+1) {
			i++
		}
		l.npos = i
		return l.tok(token.Variable, string(l.src[start+1:i]), start)
	}
	// a lone dollar is a literal word
	l.npos = start + 1
	return l.tok(token.Word, "$", start)
}

func identByte(b byte, rest bool) bool {
	switch {
	case b == '_', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return rest
	}
	return false
}

func (l *Lexer) scanWord(start int) token.Token {
	i := start
	for i < len(l.src) {
		b := l.src[i]
		if b == '\\' {
			i += 2
			continue
		}
		if b == '+' && l.byteAt(i+1) == '=' {
			break
		}
		if b == '+' {
			i++
			continue
		}
		if wordBreak(b) {
			break
		}
		i++
	}
	if i > len(l.src) {
		i = len(l.src)
	}
	if i == start && l.byteAt(start) == '+' {
		// += operator
		l.npos = start + 2
		return l.tok(token.AppAssign, "+=", start)
	}
	l.npos = i
	text := string(l.src[start:i])
	if l.keywords {
		if k, ok := token.KeywordKind(text); ok {
			return l.tok(k, text, start)
		}
	}
	return l.tok(token.Word, text, start)
}

// scanRegex consumes a regex literal verbatim: it ends at unquoted
// whitespace outside any paren or bracket group, so patterns such as
// (foo|bar)+ and [[:alpha:]] survive untokenized.
func (l *Lexer) scanRegex() token.Token {
	for l.npos < len(l.src) {
		switch l.src[l.npos] {
		case ' ', '\t', '\r':
			l.npos++
			continue
		}
		break
	}
	start := l.npos
	if l.npos >= len(l.src) {
		return token.Token{Kind: token.EOF, Pos: l.position(start)}
	}
	i := start
	parens, bracks := 0, 0
	for i < len(l.src) {
		b := l.src[i]
		switch b {
		case '\\':
			i += 2
			continue
		case '(':
			parens++
		case ')':
			if parens > 0 {
				parens--
			}
		case '[':
			bracks++
		case ']':
			if bracks > 0 {
				bracks--
			}
		case ' ', '\t', '\n':
			if parens == 0 && bracks == 0 {
				goto done
			}
		}
		i++
	}
done:
	l.npos = i
	return l.tok(token.Word, string(l.src[start:i]), start)
}

// balancedParens scans from i (just past an opening paren) to the
// matching close, honoring quotes and nesting. It returns the enclosed
// text and the offset just past the closing paren.
func (l *Lexer) balancedParens(i int) (string, int, bool) {
	from := i
	depth := 0
	for i < len(l.src) {
		switch l.src[i] {
		case '\\':
			i += 2
			continue
		case '\'':
			j := i + 1
			for j < len(l.src) && l.src[j] != '\'' {
				j++
			}
			if j >= len(l.src) {
				return "", j, false
			}
			i = j + 1
			continue
		case '"':
			j := i + 1
			for j < len(l.src) && l.src[j] != '"' {
				if l.src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(l.src) {
				return "", j, false
			}
			i = j + 1
			continue
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return string(l.src[from:i]), i + 1, true
			}
			depth--
		}
		i++
	}
	return "", i, false
}

// balancedDouble scans from i (just past "((") looking for the
// matching "))". Failure means the construct was not arithmetic after
// all, such as a subshell immediately containing another subshell.
func (l *Lexer) balancedDouble(i int) (string, int, bool) {
	from := i
	depth := 0
	for i < len(l.src) {
		switch l.src[i] {
		case '\\':
			i += 2
			continue
		case '\'', '"':
			q := l.src[i]
			j := i + 1
			for j < len(l.src) && l.src[j] != q {
				if q == '"' && l.src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(l.src) {
				return "", j, false
			}
			i = j + 1
			continue
		case '(':
			depth++
		case ')':
			if depth == 0 {
				if l.byteAt(i+1) == ')' {
					return string(l.src[from:i]), i + 2, true
				}
				return "", i, false
			}
			depth--
		}
		i++
	}
	return "", i, false
}
