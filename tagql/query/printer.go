package query

import (
	"strconv"
	"strings"
)

// Print renders an expression as canonical query text. Parsing the
// output yields a structurally identical tree, which is what the
// round-trip tests rely on.
func Print(e Expr) string {
	var sb strings.Builder
	printExpr(&sb, e, precOr)
	return sb.String()
}

// Precedence levels, loosest first. A subexpression is parenthesized
// only when its level is looser than its context requires.
const (
	precOr = iota
	precAnd
	precNot
)

func exprPrec(e Expr) int {
	switch e.(type) {
	case Or:
		return precOr
	case And:
		return precAnd
	case Not:
		return precNot
	default:
		return precNot + 1
	}
}

func printExpr(sb *strings.Builder, e Expr, min int) {
	parens := exprPrec(e) < min
	if parens {
		sb.WriteByte('(')
	}

	switch n := e.(type) {
	case Or:
		printExpr(sb, n.Left, precOr)
		sb.WriteString(" OR ")
		// Right operand one level tighter keeps chains left-associative.
		printExpr(sb, n.Right, precAnd)
	case And:
		printExpr(sb, n.Left, precAnd)
		sb.WriteString(" AND ")
		printExpr(sb, n.Right, precNot)
	case Not:
		sb.WriteString("NOT ")
		printExpr(sb, n.Inner, precNot)
	case Comparison:
		sb.WriteString(n.Field)
		if n.Op == CmpIn {
			sb.WriteString(" IN ")
			printValue(sb, n.Value)
		} else {
			sb.WriteByte(' ')
			sb.WriteString(n.Op.String())
			sb.WriteByte(' ')
			printValue(sb, n.Value)
		}
	case FuncCall:
		sb.WriteString(n.Name)
		sb.WriteByte('(')
		sb.WriteString(n.Field)
		sb.WriteString(", ")
		printValue(sb, n.Value)
		sb.WriteByte(')')
	}

	if parens {
		sb.WriteByte(')')
	}
}

func printValue(sb *strings.Builder, v Value) {
	switch val := v.(type) {
	case Str:
		sb.WriteString(quote(val.Text))
	case Num:
		sb.WriteString(strconv.FormatFloat(val.Val, 'f', -1, 64))
	case List:
		sb.WriteByte('(')
		for i, item := range val.Values {
			if i > 0 {
				sb.WriteString(", ")
			}
			printValue(sb, item)
		}
		sb.WriteByte(')')
	}
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
