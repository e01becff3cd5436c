// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

package parser_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"conchsh.dev/conch/ast"
	"conchsh.dev/conch/diag"
	"conchsh.dev/conch/parser"
	"conchsh.dev/conch/token"
)

func parse(t *testing.T, src string, opts ...parser.Option) *ast.Program {
	t.Helper()
	prog, err := parser.Parse([]byte(src), "test.sh", opts...)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, prog, qt.Not(qt.IsNil))
	return prog
}

func first(t *testing.T, src string, opts ...parser.Option) ast.Command {
	t.Helper()
	prog := parse(t, src, opts...)
	qt.Assert(t, len(prog.Cmds), qt.Equals, 1)
	return prog.Cmds[0]
}

func TestEmptyInput(t *testing.T) {
	t.Parallel()
	for _, src := range []string{
		"",
		"\n",
		"\n\n\n",
		"# just a comment\n",
		"   \t  ",
		"# one\n# two\n",
	} {
		prog := parse(t, src)
		qt.Assert(t, prog.Empty(), qt.IsTrue, qt.Commentf("src: %q", src))
	}
}

func TestSimpleCmd(t *testing.T) {
	t.Parallel()
	cmd := first(t, "echo hello world")
	sc, ok := cmd.(*ast.SimpleCmd)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, sc.Name(), qt.Equals, "echo")
	qt.Assert(t, len(sc.Args), qt.Equals, 3)
	qt.Assert(t, sc.Args[1].Text(), qt.Equals, "hello")
	qt.Assert(t, sc.Args[2].Text(), qt.Equals, "world")
}

func TestArgOrderWithRedirects(t *testing.T) {
	t.Parallel()
	// a redirection in the middle of the arguments must not disturb
	// their order
	sc := first(t, "echo a >out b 2>err c").(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Args), qt.Equals, 4)
	for i, want := range []string{"echo", "a", "b", "c"} {
		qt.Assert(t, sc.Args[i].Text(), qt.Equals, want)
	}
	qt.Assert(t, len(sc.Redirs), qt.Equals, 2)
	qt.Assert(t, sc.Redirs[0].Op, qt.Equals, token.RdrOut)
	qt.Assert(t, sc.Redirs[0].Word.Text(), qt.Equals, "out")
	qt.Assert(t, sc.Redirs[1].N, qt.Equals, "2")
	qt.Assert(t, sc.Redirs[1].Word.Text(), qt.Equals, "err")
}

func TestWordConcatenation(t *testing.T) {
	t.Parallel()
	sc := first(t, `echo a"b"c`).(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Args), qt.Equals, 2)
	w := sc.Args[1]
	qt.Assert(t, len(w.Parts), qt.Equals, 3)
	qt.Assert(t, w.Text(), qt.Equals, "abc")

	sc = first(t, `echo a "b" c`).(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Args), qt.Equals, 4)
	for _, w := range sc.Args {
		qt.Assert(t, len(w.Parts), qt.Equals, 1)
	}
}

func TestWordParts(t *testing.T) {
	t.Parallel()
	sc := first(t, `echo $foo ${bar:-x} $(date) `+"`ls`"+` $((1 + 2)) $'a\n' "hi $x"`).(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Args), qt.Equals, 8)

	v := sc.Args[1].Parts[0].(*ast.VarRef)
	qt.Assert(t, v.Name, qt.Equals, "foo")
	qt.Assert(t, v.Braced, qt.IsFalse)

	v = sc.Args[2].Parts[0].(*ast.VarRef)
	qt.Assert(t, v.Name, qt.Equals, "bar:-x")
	qt.Assert(t, v.Braced, qt.IsTrue)

	cs := sc.Args[3].Parts[0].(*ast.CmdSubst)
	qt.Assert(t, cs.Text, qt.Equals, "date")
	qt.Assert(t, cs.Backquote, qt.IsFalse)

	cs = sc.Args[4].Parts[0].(*ast.CmdSubst)
	qt.Assert(t, cs.Text, qt.Equals, "ls")
	qt.Assert(t, cs.Backquote, qt.IsTrue)

	ae := sc.Args[5].Parts[0].(*ast.ArithExp)
	qt.Assert(t, ae.Expr, qt.Equals, "1 + 2")

	sq := sc.Args[6].Parts[0].(*ast.SglQuoted)
	qt.Assert(t, sq.Dollar, qt.IsTrue)
	qt.Assert(t, sq.Value, qt.Equals, `a\n`)

	dq := sc.Args[7].Parts[0].(*ast.DblQuoted)
	qt.Assert(t, dq.Value, qt.Equals, "hi $x")
}

func TestKeywordsAsArguments(t *testing.T) {
	t.Parallel()
	sc := first(t, "echo done fi in").(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Args), qt.Equals, 4)
	qt.Assert(t, sc.Args[1].Text(), qt.Equals, "done")
	qt.Assert(t, sc.Args[2].Text(), qt.Equals, "fi")
	qt.Assert(t, sc.Args[3].Text(), qt.Equals, "in")
}

func TestAssignments(t *testing.T) {
	t.Parallel()
	sc := first(t, "FOO=bar BAZ= cmd arg").(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Assigns), qt.Equals, 2)
	qt.Assert(t, sc.Assigns[0].Name, qt.Equals, "FOO")
	qt.Assert(t, sc.Assigns[0].Value.Text(), qt.Equals, "bar")
	qt.Assert(t, sc.Assigns[1].Name, qt.Equals, "BAZ")
	qt.Assert(t, sc.Assigns[1].Value, qt.IsNil)
	qt.Assert(t, sc.Name(), qt.Equals, "cmd")

	sc = first(t, "PATH+=:/usr/local/bin").(*ast.SimpleCmd)
	qt.Assert(t, sc.Assigns[0].Append, qt.IsTrue)
	qt.Assert(t, sc.Assigns[0].Value.Text(), qt.Equals, ":/usr/local/bin")

	// a=(…) with an empty command is still a statement
	sc = first(t, "arr[3]=x").(*ast.SimpleCmd)
	qt.Assert(t, sc.Assigns[0].Name, qt.Equals, "arr")
	qt.Assert(t, sc.Assigns[0].Index, qt.Equals, "3")
	qt.Assert(t, len(sc.Args), qt.Equals, 0)
}

func TestArrayLiterals(t *testing.T) {
	t.Parallel()
	sc := first(t, "a=(one two [5]=five)").(*ast.SimpleCmd)
	arr := sc.Assigns[0].Array
	qt.Assert(t, arr, qt.Not(qt.IsNil))
	qt.Assert(t, len(arr.Elems), qt.Equals, 3)
	qt.Assert(t, arr.Elems[0].Value.Text(), qt.Equals, "one")
	qt.Assert(t, arr.Elems[2].Index, qt.Equals, "5")
	qt.Assert(t, arr.Elems[2].Value.Text(), qt.Equals, "five")

	sc = first(t, "a=(\n one\n two\n)").(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Assigns[0].Array.Elems), qt.Equals, 2)
}

func TestNonAssignmentEquals(t *testing.T) {
	t.Parallel()
	// --opt=val is a single argument, not an assignment
	sc := first(t, "cmd --opt=val").(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Assigns), qt.Equals, 0)
	qt.Assert(t, sc.Args[1].Text(), qt.Equals, "--opt=val")
}

func TestPipeline(t *testing.T) {
	t.Parallel()
	pl := first(t, "a | b |& c").(*ast.Pipeline)
	qt.Assert(t, len(pl.Cmds), qt.Equals, 3)
	qt.Assert(t, pl.StderrPipes[0], qt.IsFalse)
	qt.Assert(t, pl.StderrPipes[1], qt.IsTrue)
	qt.Assert(t, pl.Negated, qt.IsFalse)

	pl = first(t, "! grep -q foo bar").(*ast.Pipeline)
	qt.Assert(t, pl.Negated, qt.IsTrue)
	qt.Assert(t, len(pl.Cmds), qt.Equals, 1)

	// single un-negated commands collapse to the command itself
	_, ok := first(t, "echo hi").(*ast.SimpleCmd)
	qt.Assert(t, ok, qt.IsTrue)
}

func TestAndOr(t *testing.T) {
	t.Parallel()
	ao := first(t, "a && b || c").(*ast.AndOr)
	qt.Assert(t, ao.Op, qt.Equals, token.OrIf)
	left := ao.X.(*ast.AndOr)
	qt.Assert(t, left.Op, qt.Equals, token.AndIf)
	qt.Assert(t, left.X.(*ast.SimpleCmd).Name(), qt.Equals, "a")
	qt.Assert(t, left.Y.(*ast.SimpleCmd).Name(), qt.Equals, "b")
	qt.Assert(t, ao.Y.(*ast.SimpleCmd).Name(), qt.Equals, "c")

	// a newline after the operator continues the expression
	ao = first(t, "a &&\nb").(*ast.AndOr)
	qt.Assert(t, ao.Y.(*ast.SimpleCmd).Name(), qt.Equals, "b")
}

func TestBackground(t *testing.T) {
	t.Parallel()
	bg := first(t, "sleep 5 &").(*ast.Background)
	qt.Assert(t, bg.Cmd.(*ast.SimpleCmd).Name(), qt.Equals, "sleep")

	prog := parse(t, "a & b &")
	qt.Assert(t, len(prog.Cmds), qt.Equals, 2)
	for _, c := range prog.Cmds {
		_, ok := c.(*ast.Background)
		qt.Assert(t, ok, qt.IsTrue)
	}
}

func TestIfClause(t *testing.T) {
	t.Parallel()
	ic := first(t, `
if test -f x; then
	echo yes
elif test -d x; then
	echo dir
else
	echo no
fi
`).(*ast.IfClause)
	qt.Assert(t, len(ic.Cond), qt.Equals, 1)
	qt.Assert(t, len(ic.ThenBody), qt.Equals, 1)
	qt.Assert(t, len(ic.Elifs), qt.Equals, 1)
	qt.Assert(t, len(ic.Elifs[0].Cond), qt.Equals, 1)
	qt.Assert(t, len(ic.ElseBody), qt.Equals, 1)
	qt.Assert(t, ic.ThenBody[0].(*ast.SimpleCmd).Args[1].Text(), qt.Equals, "yes")
	qt.Assert(t, ic.ElseBody[0].(*ast.SimpleCmd).Args[1].Text(), qt.Equals, "no")
}

func TestWhileUntil(t *testing.T) {
	t.Parallel()
	wc := first(t, "while read line; do echo $line; done").(*ast.WhileClause)
	qt.Assert(t, wc.Until, qt.IsFalse)
	qt.Assert(t, len(wc.Cond), qt.Equals, 1)
	qt.Assert(t, len(wc.Body), qt.Equals, 1)

	wc = first(t, "until kill -0 $pid; do sleep 1; done").(*ast.WhileClause)
	qt.Assert(t, wc.Until, qt.IsTrue)
}

func TestForClause(t *testing.T) {
	t.Parallel()
	fc := first(t, "for i in a b $c; do echo $i; done").(*ast.ForClause)
	qt.Assert(t, fc.Name, qt.Equals, "i")
	qt.Assert(t, len(fc.Words), qt.Equals, 3)
	v, ok := fc.Words[2].Parts[0].(*ast.VarRef)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, v.Name, qt.Equals, "c")
	body := fc.Body[0].(*ast.SimpleCmd)
	v, ok = body.Args[1].Parts[0].(*ast.VarRef)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, v.Name, qt.Equals, "i")

	// no "in" list means iterating the positional parameters
	fc = first(t, "for arg; do echo $arg; done").(*ast.ForClause)
	qt.Assert(t, fc.Words, qt.IsNil)

	// an empty "in" list is distinct from an absent one
	fc = first(t, "for x in; do :; done").(*ast.ForClause)
	qt.Assert(t, fc.Words, qt.Not(qt.IsNil))
	qt.Assert(t, len(fc.Words), qt.Equals, 0)
}

func TestCForClause(t *testing.T) {
	t.Parallel()
	cf := first(t, "for ((i = 0; i < 10; i++)); do echo $i; done").(*ast.CForClause)
	qt.Assert(t, cf.Init, qt.Equals, "i = 0")
	qt.Assert(t, cf.Cond, qt.Equals, "i < 10")
	qt.Assert(t, cf.Post, qt.Equals, "i++")
	qt.Assert(t, len(cf.Body), qt.Equals, 1)

	cf = first(t, "for ((;;)); do break; done").(*ast.CForClause)
	qt.Assert(t, cf.Init, qt.Equals, "")
	qt.Assert(t, cf.Cond, qt.Equals, "")
	qt.Assert(t, cf.Post, qt.Equals, "")
}

func TestSelectClause(t *testing.T) {
	t.Parallel()
	sc := first(t, "select opt in start stop; do echo $opt; done").(*ast.SelectClause)
	qt.Assert(t, sc.Name, qt.Equals, "opt")
	qt.Assert(t, len(sc.Words), qt.Equals, 2)
	qt.Assert(t, len(sc.Body), qt.Equals, 1)
}

func TestCaseClause(t *testing.T) {
	t.Parallel()
	cc := first(t, `
case $x in
a | b)
	echo ab
	;;
c)
	echo c
	;&
d*)
	echo d
	;;&
*)
	echo rest
esac
`).(*ast.CaseClause)
	qt.Assert(t, len(cc.Items), qt.Equals, 4)
	qt.Assert(t, cc.Items[0].Pattern, qt.Equals, "a|b")
	qt.Assert(t, cc.Items[0].Op, qt.Equals, ast.Break)
	qt.Assert(t, cc.Items[1].Op, qt.Equals, ast.Fallthrough)
	qt.Assert(t, cc.Items[2].Pattern, qt.Equals, "d*")
	qt.Assert(t, cc.Items[2].Op, qt.Equals, ast.Continue)
	// the item before esac gets the implicit ;;
	qt.Assert(t, cc.Items[3].Op, qt.Equals, ast.Break)
}

func TestCaseTerminatorPrecedence(t *testing.T) {
	t.Parallel()
	// ;;& must win over ;; followed by a stray &
	cc := first(t, "case x in a) :;;& b) :;; esac").(*ast.CaseClause)
	qt.Assert(t, len(cc.Items), qt.Equals, 2)
	qt.Assert(t, cc.Items[0].Op, qt.Equals, ast.Continue)
	qt.Assert(t, cc.Items[1].Op, qt.Equals, ast.Break)
}

func TestBlockAndSubshell(t *testing.T) {
	t.Parallel()
	b := first(t, "{ echo a; echo b; }").(*ast.Block)
	qt.Assert(t, len(b.Body), qt.Equals, 2)

	s := first(t, "(cd /tmp && ls)").(*ast.Subshell)
	qt.Assert(t, len(s.Body), qt.Equals, 1)

	// trailing redirections attach to the compound itself
	b = first(t, "{ echo a; } >log 2>&1").(*ast.Block)
	qt.Assert(t, len(b.Redirs), qt.Equals, 2)
	qt.Assert(t, b.Redirs[1].Op, qt.Equals, token.DplOut)
}

func TestFuncDecl(t *testing.T) {
	t.Parallel()
	fd := first(t, "greet() { echo hi; }").(*ast.FuncDecl)
	qt.Assert(t, fd.Name, qt.Equals, "greet")
	qt.Assert(t, fd.Params, qt.Equals, "")
	_, ok := fd.Body.(*ast.Block)
	qt.Assert(t, ok, qt.IsTrue)

	fd = first(t, "function cleanup { rm -f $tmp; }").(*ast.FuncDecl)
	qt.Assert(t, fd.Name, qt.Equals, "cleanup")
}

func TestFuncDeclParams(t *testing.T) {
	t.Parallel()
	fd := first(t, "greet(name, greeting=hello) { echo $greeting $name; }").(*ast.FuncDecl)
	qt.Assert(t, fd.Params, qt.Equals, "name,greeting=hello")
}

func TestAnonFunc(t *testing.T) {
	t.Parallel()
	af := first(t, "() { echo anon; }").(*ast.AnonFunc)
	qt.Assert(t, len(af.Body.Body), qt.Equals, 1)

	// "(" not followed by ") {" is still a subshell
	_, ok := first(t, "(echo sub)").(*ast.Subshell)
	qt.Assert(t, ok, qt.IsTrue)
}

func TestCoproc(t *testing.T) {
	t.Parallel()
	co := first(t, "coproc sleep 10").(*ast.Coproc)
	qt.Assert(t, co.Name, qt.Equals, "")
	qt.Assert(t, co.Cmd.(*ast.SimpleCmd).Name(), qt.Equals, "sleep")

	co = first(t, "coproc web { nc -l 8080; }").(*ast.Coproc)
	qt.Assert(t, co.Name, qt.Equals, "web")
	_, ok := co.Cmd.(*ast.Block)
	qt.Assert(t, ok, qt.IsTrue)
}

func TestTimeClause(t *testing.T) {
	t.Parallel()
	tc := first(t, "time sleep 1 | cat").(*ast.TimeClause)
	_, ok := tc.Cmd.(*ast.Pipeline)
	qt.Assert(t, ok, qt.IsTrue)

	tc = first(t, "time").(*ast.TimeClause)
	qt.Assert(t, tc.Cmd, qt.IsNil)
}

func TestArithCmd(t *testing.T) {
	t.Parallel()
	ac := first(t, "(( x += 1 ))").(*ast.ArithCmd)
	qt.Assert(t, ac.Expr, qt.Equals, "x += 1")

	ac = first(t, "((\n  y > 0\n))").(*ast.ArithCmd)
	qt.Assert(t, ac.Expr, qt.Equals, "y > 0")
}

func TestTestClause(t *testing.T) {
	t.Parallel()
	tc := first(t, `[[ -f $file && $x == "a b" ]]`).(*ast.TestClause)
	qt.Assert(t, tc.Expr, qt.Equals, `-f $file && $x == "a b"`)
}

func TestTestClauseRegex(t *testing.T) {
	t.Parallel()
	// the right-hand side of =~ must survive verbatim, untokenized
	tc := first(t, `[[ $x =~ ^foo(bar|baz)+[0-9]* ]]`).(*ast.TestClause)
	qt.Assert(t, tc.Expr, qt.Equals, `$x =~ ^foo(bar|baz)+[0-9]*`)
}

func TestProcSubst(t *testing.T) {
	t.Parallel()
	sc := first(t, "diff <(sort a) <(sort b)").(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Args), qt.Equals, 3)
	ps := sc.Args[1].Parts[0].(*ast.ProcSubst)
	qt.Assert(t, ps.Dir, qt.Equals, ast.ProcIn)
	qt.Assert(t, len(ps.Body), qt.Equals, 1)
	qt.Assert(t, ps.Body[0].(*ast.SimpleCmd).Name(), qt.Equals, "sort")

	sc = first(t, "tee >(gzip >log.gz)").(*ast.SimpleCmd)
	ps = sc.Args[1].Parts[0].(*ast.ProcSubst)
	qt.Assert(t, ps.Dir, qt.Equals, ast.ProcOut)
}

func TestHeredoc(t *testing.T) {
	t.Parallel()
	sc := first(t, "cat <<EOF\nhello $name\nworld\nEOF\n").(*ast.SimpleCmd)
	r := sc.Redirs[0]
	qt.Assert(t, r.Op, qt.Equals, token.Hdoc)
	qt.Assert(t, r.HdocBody, qt.Equals, "hello $name\nworld\n")
	qt.Assert(t, r.HdocExpand, qt.IsTrue)
}

func TestHeredocQuotedDelim(t *testing.T) {
	t.Parallel()
	// a quoted delimiter disables expansion of the body
	sc := first(t, "cat <<'EOF'\n$not_expanded\nEOF\n").(*ast.SimpleCmd)
	r := sc.Redirs[0]
	qt.Assert(t, r.HdocExpand, qt.IsFalse)
	qt.Assert(t, r.HdocBody, qt.Equals, "$not_expanded\n")
	qt.Assert(t, r.Word.Text(), qt.Equals, "EOF")
}

func TestHeredocDashStripsTabs(t *testing.T) {
	t.Parallel()
	sc := first(t, "cat <<-EOF\n\t\tindented\n\tEOF\n").(*ast.SimpleCmd)
	qt.Assert(t, sc.Redirs[0].HdocBody, qt.Equals, "indented\n")
}

func TestHeredocSameLineTokens(t *testing.T) {
	t.Parallel()
	// tokens after the delimiter on the same line still belong to the
	// command
	sc := first(t, "cat <<EOF >out\nbody\nEOF\n").(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Redirs), qt.Equals, 2)
	qt.Assert(t, sc.Redirs[0].HdocBody, qt.Equals, "body\n")
	qt.Assert(t, sc.Redirs[1].Op, qt.Equals, token.RdrOut)
	qt.Assert(t, sc.Redirs[1].Word.Text(), qt.Equals, "out")
}

func TestStackedHeredocs(t *testing.T) {
	t.Parallel()
	sc := first(t, "cat <<ONE <<TWO\nfirst\nONE\nsecond\nTWO\n").(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Redirs), qt.Equals, 2)
	qt.Assert(t, sc.Redirs[0].HdocBody, qt.Equals, "first\n")
	qt.Assert(t, sc.Redirs[1].HdocBody, qt.Equals, "second\n")
}

func TestRedirectVariants(t *testing.T) {
	t.Parallel()
	ops := []struct {
		src string
		op  token.Kind
	}{
		{"cmd <in", token.RdrIn},
		{"cmd >out", token.RdrOut},
		{"cmd >>log", token.AppOut},
		{"cmd <<<word", token.WordHdoc},
		{"cmd <&3", token.DplIn},
		{"cmd >&2", token.DplOut},
		{"cmd <>rw", token.RdrInOut},
		{"cmd >|clobber", token.ClbOut},
		{"cmd &>all", token.RdrAll},
		{"cmd &>>all", token.AppAll},
	}
	for _, tc := range ops {
		sc := first(t, tc.src).(*ast.SimpleCmd)
		qt.Assert(t, len(sc.Redirs), qt.Equals, 1, qt.Commentf("src: %q", tc.src))
		qt.Assert(t, sc.Redirs[0].Op, qt.Equals, tc.op, qt.Commentf("src: %q", tc.src))
	}
}

func TestRedirectKeywordTarget(t *testing.T) {
	t.Parallel()
	// a redirection target spelled like a reserved word is a plain word
	wc := first(t, "while :; do cat <done; done").(*ast.WhileClause)
	sc := wc.Body[0].(*ast.SimpleCmd)
	qt.Assert(t, sc.Redirs[0].Word.Text(), qt.Equals, "done")
}

func TestNestedCompound(t *testing.T) {
	t.Parallel()
	prog := parse(t, `
for f in *.txt; do
	if grep -q x "$f"; then
		case $f in
		a*) echo a ;;
		*) echo other ;;
		esac
	fi
done
`)
	fc := prog.Cmds[0].(*ast.ForClause)
	ic := fc.Body[0].(*ast.IfClause)
	_, ok := ic.ThenBody[0].(*ast.CaseClause)
	qt.Assert(t, ok, qt.IsTrue)
}

func TestDepthGuardSingleDiagnostic(t *testing.T) {
	t.Parallel()
	src := strings.Repeat("if :; then ", 30) + ":" + strings.Repeat("; fi", 30)
	p := parser.New(parser.MaxDepth(10))
	prog, err := p.Parse([]byte(src), "deep.sh")
	qt.Assert(t, err, qt.Not(qt.IsNil))
	qt.Assert(t, prog, qt.IsNil)
	n := 0
	for _, d := range p.Diagnostics().Diagnostics() {
		if d.Code == diag.DepthExceeded {
			n++
		}
	}
	qt.Assert(t, n, qt.Equals, 1)
}

func TestDeepNestingWithinLimit(t *testing.T) {
	t.Parallel()
	src := strings.Repeat("if :; then ", 50) + ":" + strings.Repeat("; fi", 50)
	parse(t, src)
}

func TestParseAbsentOnError(t *testing.T) {
	t.Parallel()
	prog, err := parser.Parse([]byte("if true; then"), "x.sh")
	qt.Assert(t, err, qt.Not(qt.IsNil))
	qt.Assert(t, prog, qt.IsNil)
}

func TestLineContinuation(t *testing.T) {
	t.Parallel()
	sc := first(t, "echo one \\\n two").(*ast.SimpleCmd)
	qt.Assert(t, len(sc.Args), qt.Equals, 3)
}

func TestComments(t *testing.T) {
	t.Parallel()
	prog := parse(t, "echo a # trailing comment\necho b\n")
	qt.Assert(t, len(prog.Cmds), qt.Equals, 2)

	// '#' inside a word is not a comment
	sc := first(t, "echo a#b").(*ast.SimpleCmd)
	qt.Assert(t, sc.Args[1].Text(), qt.Equals, "a#b")
}

func TestPositions(t *testing.T) {
	t.Parallel()
	prog := parse(t, "echo a\necho b\n")
	qt.Assert(t, prog.Cmds[0].Pos().Line, qt.Equals, 1)
	qt.Assert(t, prog.Cmds[1].Pos().Line, qt.Equals, 2)
	qt.Assert(t, prog.Cmds[1].Pos().Column, qt.Equals, 1)
	sc := prog.Cmds[1].(*ast.SimpleCmd)
	qt.Assert(t, sc.Args[1].Pos().Column, qt.Equals, 6)
}
