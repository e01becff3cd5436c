// Copyright (c) 2024, the conch authors
// See LICENSE for licensing information

package ast

import "fmt"

// Walk traverses the tree rooted at node in depth-first order, calling
// f on each node. If f returns false for a node, its children are not
// visited.
func Walk(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	switch x := node.(type) {
	case *Program:
		walkCmds(x.Cmds, f)
	case *SimpleCmd:
		for _, a := range x.Assigns {
			Walk(a, f)
		}
		for _, w := range x.Args {
			Walk(w, f)
		}
		walkRedirs(x.Redirs, f)
	case *Pipeline:
		walkCmds(x.Cmds, f)
	case *AndOr:
		Walk(x.X, f)
		Walk(x.Y, f)
	case *Background:
		Walk(x.Cmd, f)
	case *Block:
		walkCmds(x.Body, f)
		walkRedirs(x.Redirs, f)
	case *Subshell:
		walkCmds(x.Body, f)
		walkRedirs(x.Redirs, f)
	case *IfClause:
		walkCmds(x.Cond, f)
		walkCmds(x.ThenBody, f)
		for _, e := range x.Elifs {
			Walk(e, f)
		}
		walkCmds(x.ElseBody, f)
		walkRedirs(x.Redirs, f)
	case *Elif:
		walkCmds(x.Cond, f)
		walkCmds(x.Body, f)
	case *WhileClause:
		walkCmds(x.Cond, f)
		walkCmds(x.Body, f)
		walkRedirs(x.Redirs, f)
	case *ForClause:
		for _, w := range x.Words {
			Walk(w, f)
		}
		walkCmds(x.Body, f)
		walkRedirs(x.Redirs, f)
	case *CForClause:
		walkCmds(x.Body, f)
		walkRedirs(x.Redirs, f)
	case *SelectClause:
		for _, w := range x.Words {
			Walk(w, f)
		}
		walkCmds(x.Body, f)
		walkRedirs(x.Redirs, f)
	case *CaseClause:
		Walk(x.Word, f)
		for _, ci := range x.Items {
			Walk(ci, f)
		}
		walkRedirs(x.Redirs, f)
	case *CaseItem:
		walkCmds(x.Body, f)
	case *FuncDecl:
		Walk(x.Body, f)
	case *AnonFunc:
		Walk(x.Body, f)
	case *Coproc:
		Walk(x.Cmd, f)
	case *TimeClause:
		Walk(x.Cmd, f)
	case *ArithCmd:
		walkRedirs(x.Redirs, f)
	case *TestClause:
	case *Redirect:
		Walk(x.Word, f)
	case *Assign:
		if x.Value != nil {
			Walk(x.Value, f)
		}
		if x.Array != nil {
			Walk(x.Array, f)
		}
	case *ArrayExpr:
		for _, e := range x.Elems {
			Walk(e, f)
		}
	case *ArrayElem:
		Walk(x.Value, f)
	case *Word:
		for _, p := range x.Parts {
			Walk(p, f)
		}
	case *Lit, *SglQuoted, *DblQuoted, *VarRef, *CmdSubst, *ArithExp:
	case *ProcSubst:
		walkCmds(x.Body, f)
	default:
		panic(fmt.Sprintf("ast.Walk: unexpected node type %T", x))
	}
}

func walkCmds(cmds []Command, f func(Node) bool) {
	for _, c := range cmds {
		Walk(c, f)
	}
}

func walkRedirs(rs []*Redirect, f func(Node) bool) {
	for _, r := range rs {
		Walk(r, f)
	}
}
