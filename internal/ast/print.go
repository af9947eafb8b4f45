package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump returns a human-readable representation of the AST.
func Dump(node Node) string {
	var sb strings.Builder
	fprintNode(&sb, node, 0)
	return sb.String()
}

func fprintBody(w io.Writer, label string, body []Stmt, indent int) {
	ind := strings.Repeat("  ", indent)
	fmt.Fprintf(w, "%s%s:\n", ind, label)
	for _, s := range body {
		fprintNode(w, s, indent+1)
	}
}

func fprintNode(w io.Writer, n Node, indent int) {
	if n == nil {
		return
	}

	ind := strings.Repeat("  ", indent)

	switch n := n.(type) {
	case *Chunk:
		fmt.Fprintf(w, "%sChunk\n", ind)
		for _, s := range n.Body {
			fprintNode(w, s, indent+1)
		}

	case *Ident:
		fmt.Fprintf(w, "%sIdent %s\n", ind, n.Name)

	case *NumberLiteral:
		fmt.Fprintf(w, "%sNumber %s\n", ind, n.Raw)

	case *StringLiteral:
		fmt.Fprintf(w, "%sString %q\n", ind, n.Value)

	case *BoolLiteral:
		fmt.Fprintf(w, "%sBool %t\n", ind, n.Value)

	case *NullLiteral:
		fmt.Fprintf(w, "%sNull\n", ind)

	case *ListLiteral:
		fmt.Fprintf(w, "%sList\n", ind)
		for _, el := range n.Elements {
			fprintNode(w, el, indent+1)
		}

	case *MapLiteral:
		fmt.Fprintf(w, "%sMap\n", ind)
		for _, e := range n.Entries {
			fmt.Fprintf(w, "%s  Entry:\n", ind)
			fprintNode(w, e.Key, indent+2)
			fprintNode(w, e.Value, indent+2)
		}

	case *FuncLiteral:
		names := make([]string, len(n.Params))
		for i, p := range n.Params {
			names[i] = p.Name
		}
		fmt.Fprintf(w, "%sFunction(%s)\n", ind, strings.Join(names, ", "))
		for _, p := range n.Params {
			if p.Default != nil {
				fmt.Fprintf(w, "%s  Default %s:\n", ind, p.Name)
				fprintNode(w, p.Default, indent+2)
			}
		}
		fprintBody(w, "Body", n.Body, indent+1)

	case *BinaryExpr:
		fmt.Fprintf(w, "%sBinary %s\n", ind, n.Op)
		fprintNode(w, n.Left, indent+1)
		fprintNode(w, n.Right, indent+1)

	case *LogicalExpr:
		fmt.Fprintf(w, "%sLogical %s\n", ind, n.Op)
		fprintNode(w, n.Left, indent+1)
		fprintNode(w, n.Right, indent+1)

	case *UnaryExpr:
		fmt.Fprintf(w, "%sUnary %s\n", ind, n.Op)
		fprintNode(w, n.X, indent+1)

	case *MemberExpr:
		fmt.Fprintf(w, "%sMember .%s\n", ind, n.Name)
		fprintNode(w, n.X, indent+1)

	case *IndexExpr:
		fmt.Fprintf(w, "%sIndex\n", ind)
		fprintNode(w, n.X, indent+1)
		fprintNode(w, n.Index, indent+1)

	case *SliceExpr:
		fmt.Fprintf(w, "%sSlice\n", ind)
		fprintNode(w, n.X, indent+1)
		if n.Low != nil {
			fmt.Fprintf(w, "%s  Low:\n", ind)
			fprintNode(w, n.Low, indent+2)
		}
		if n.High != nil {
			fmt.Fprintf(w, "%s  High:\n", ind)
			fprintNode(w, n.High, indent+2)
		}

	case *CallExpr:
		fmt.Fprintf(w, "%sCall\n", ind)
		fprintNode(w, n.Callee, indent+1)
		if len(n.Args) > 0 {
			fmt.Fprintf(w, "%s  Args:\n", ind)
			for _, a := range n.Args {
				fprintNode(w, a, indent+2)
			}
		}

	case *EnvarExpr:
		fmt.Fprintf(w, "%sEnvar %s\n", ind, n.Name)

	case *AssignStmt:
		fmt.Fprintf(w, "%sAssign %s\n", ind, n.Op)
		fprintNode(w, n.Target, indent+1)
		fprintNode(w, n.Value, indent+1)

	case *ExprStmt:
		fmt.Fprintf(w, "%sExprStmt\n", ind)
		fprintNode(w, n.X, indent+1)

	case *IfStmt:
		fmt.Fprintf(w, "%sIf\n", ind)
		for _, c := range n.Clauses {
			fmt.Fprintf(w, "%s  Cond:\n", ind)
			fprintNode(w, c.Cond, indent+2)
			fprintBody(w, "Then", c.Body, indent+1)
		}
		if n.Else != nil {
			fprintBody(w, "Else", n.Else, indent+1)
		}

	case *WhileStmt:
		fmt.Fprintf(w, "%sWhile\n", ind)
		fprintNode(w, n.Cond, indent+1)
		fprintBody(w, "Body", n.Body, indent+1)

	case *ForStmt:
		fmt.Fprintf(w, "%sFor %s\n", ind, n.Var.Name)
		fprintNode(w, n.Iter, indent+1)
		fprintBody(w, "Body", n.Body, indent+1)

	case *BreakStmt:
		fmt.Fprintf(w, "%sBreak\n", ind)

	case *ContinueStmt:
		fmt.Fprintf(w, "%sContinue\n", ind)

	case *ReturnStmt:
		fmt.Fprintf(w, "%sReturn\n", ind)
		if n.Result != nil {
			fprintNode(w, n.Result, indent+1)
		}

	case *ImportStmt:
		fmt.Fprintf(w, "%sImport %s from %q\n", ind, n.Name, n.Path)

	case *IncludeStmt:
		fmt.Fprintf(w, "%sInclude %q\n", ind, n.Path)

	case *DebuggerStmt:
		fmt.Fprintf(w, "%sDebugger\n", ind)

	default:
		fmt.Fprintf(w, "%s<unknown %T>\n", ind, n)
	}
}
