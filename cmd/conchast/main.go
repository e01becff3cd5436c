// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

// conchast inspects the token stream and syntax tree of conch shell
// scripts, mainly as a debugging aid for the parser itself.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"conchsh.dev/conch/ast"
	"conchsh.dev/conch/diag"
	"conchsh.dev/conch/lexer"
	"conchsh.dev/conch/parser"
	"conchsh.dev/conch/token"
)

var (
	posixMode bool
	maxDepth  int
	countOnly bool
)

func main() {
	root := &cobra.Command{
		Use:           "conchast",
		Short:         "inspect conch shell syntax",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&posixMode, "posix", "p", false,
		"parse in strict POSIX mode")
	root.PersistentFlags().IntVar(&maxDepth, "max-depth", 0,
		"override the parser's nesting depth ceiling")

	tokensCmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "print the token stream of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, name, err := readInput(args)
			if err != nil {
				return err
			}
			return printTokens(cmd.OutOrStdout(), src, name)
		},
	}

	treeCmd := &cobra.Command{
		Use:   "tree [file]",
		Short: "print the syntax tree of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, name, err := readInput(args)
			if err != nil {
				return err
			}
			return printTree(cmd.OutOrStdout(), src, name)
		},
	}
	treeCmd.Flags().BoolVar(&countOnly, "count", false,
		"print only the number of nodes")

	root.AddCommand(tokensCmd, treeCmd)
	if err := root.Execute(); err != nil {
		var col *diag.Collector
		if errors.As(err, &col) {
			col.Render(os.Stderr, diag.TerminalColor(os.Stderr))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func readInput(args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		src, err := io.ReadAll(os.Stdin)
		return src, "<standard input>", err
	}
	src, err := os.ReadFile(args[0])
	return src, args[0], err
}

func parseOpts() []parser.Option {
	opts := []parser.Option{parser.PosixMode(posixMode)}
	if maxDepth > 0 {
		opts = append(opts, parser.MaxDepth(maxDepth))
	}
	return opts
}

func printTokens(w io.Writer, src []byte, name string) error {
	l := lexer.New(src)
	for {
		t := l.Current()
		fmt.Fprintf(w, "%s:%s\t%s\n", name, t.Pos, t)
		if t.Kind == token.EOF || t.Kind == token.Illegal {
			break
		}
		l.Advance()
	}
	return nil
}

func printTree(w io.Writer, src []byte, name string) error {
	prog, err := parser.Parse(src, name, parseOpts()...)
	if err != nil {
		return err
	}
	if countOnly {
		n := 0
		ast.Walk(prog, func(ast.Node) bool {
			n++
			return true
		})
		fmt.Fprintln(w, n)
		return nil
	}
	dumpCmds(w, prog.Cmds, 0)
	return nil
}

func indent(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		io.WriteString(w, "  ")
	}
}

func dumpCmds(w io.Writer, cmds []ast.Command, depth int) {
	for _, c := range cmds {
		dumpCmd(w, c, depth)
	}
}

func dumpCmd(w io.Writer, cmd ast.Command, depth int) {
	indent(w, depth)
	switch x := cmd.(type) {
	case *ast.SimpleCmd:
		fmt.Fprintf(w, "SimpleCmd %s", x.Name())
		for _, a := range x.Assigns {
			fmt.Fprintf(w, " [assign %s]", a.Name)
		}
		for _, r := range x.Redirs {
			fmt.Fprintf(w, " [redir %s]", r.Op)
		}
		fmt.Fprintln(w)
	case *ast.Pipeline:
		fmt.Fprintf(w, "Pipeline negated=%v\n", x.Negated)
		dumpCmds(w, x.Cmds, depth+1)
	case *ast.AndOr:
		fmt.Fprintf(w, "AndOr %s\n", x.Op)
		dumpCmd(w, x.X, depth+1)
		dumpCmd(w, x.Y, depth+1)
	case *ast.Background:
		fmt.Fprintln(w, "Background")
		dumpCmd(w, x.Cmd, depth+1)
	case *ast.Block:
		fmt.Fprintln(w, "Block")
		dumpCmds(w, x.Body, depth+1)
	case *ast.Subshell:
		fmt.Fprintln(w, "Subshell")
		dumpCmds(w, x.Body, depth+1)
	case *ast.IfClause:
		fmt.Fprintln(w, "If")
		dumpCmds(w, x.Cond, depth+1)
		indent(w, depth)
		fmt.Fprintln(w, "Then")
		dumpCmds(w, x.ThenBody, depth+1)
		for _, e := range x.Elifs {
			indent(w, depth)
			fmt.Fprintln(w, "Elif")
			dumpCmds(w, e.Cond, depth+1)
			indent(w, depth)
			fmt.Fprintln(w, "Then")
			dumpCmds(w, e.Body, depth+1)
		}
		if len(x.ElseBody) > 0 {
			indent(w, depth)
			fmt.Fprintln(w, "Else")
			dumpCmds(w, x.ElseBody, depth+1)
		}
	case *ast.WhileClause:
		if x.Until {
			fmt.Fprintln(w, "Until")
		} else {
			fmt.Fprintln(w, "While")
		}
		dumpCmds(w, x.Cond, depth+1)
		indent(w, depth)
		fmt.Fprintln(w, "Do")
		dumpCmds(w, x.Body, depth+1)
	case *ast.ForClause:
		fmt.Fprintf(w, "For %s in=%v\n", x.Name, x.Words != nil)
		dumpCmds(w, x.Body, depth+1)
	case *ast.CForClause:
		fmt.Fprintf(w, "CFor (%s; %s; %s)\n", x.Init, x.Cond, x.Post)
		dumpCmds(w, x.Body, depth+1)
	case *ast.SelectClause:
		fmt.Fprintf(w, "Select %s\n", x.Name)
		dumpCmds(w, x.Body, depth+1)
	case *ast.CaseClause:
		fmt.Fprintf(w, "Case %s\n", x.Word.Text())
		for _, ci := range x.Items {
			indent(w, depth+1)
			fmt.Fprintf(w, "Item %s %s\n", ci.Pattern, ci.Op)
			dumpCmds(w, ci.Body, depth+2)
		}
	case *ast.FuncDecl:
		fmt.Fprintf(w, "Func %s(%s)\n", x.Name, x.Params)
		dumpCmd(w, x.Body, depth+1)
	case *ast.AnonFunc:
		fmt.Fprintln(w, "AnonFunc")
		dumpCmd(w, x.Body, depth+1)
	case *ast.Coproc:
		fmt.Fprintf(w, "Coproc %s\n", x.Name)
		dumpCmd(w, x.Cmd, depth+1)
	case *ast.TimeClause:
		fmt.Fprintln(w, "Time")
		if x.Cmd != nil {
			dumpCmd(w, x.Cmd, depth+1)
		}
	case *ast.ArithCmd:
		fmt.Fprintf(w, "Arith ((%s))\n", x.Expr)
	case *ast.TestClause:
		fmt.Fprintf(w, "Test [[ %s ]]\n", x.Expr)
	}
}
