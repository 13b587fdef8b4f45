package ast

import (
	"strings"

	"github.com/sambeau/bindweed/pkg/tendril/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
}

// Decorations holds the analysis results attached to every expression node
// by Annotate: whether the value depends only on AST structure, and the set
// of sub-expressions the scope should poll as inputs for change detection.
type Decorations struct {
	Constant bool
	Watch    []Expression
}

// Decor exposes the node's decorations for the analyses and the compiler.
func (d *Decorations) Decor() *Decorations { return d }

// Expression represents expression nodes
type Expression interface {
	Node
	Decor() *Decorations
	expressionNode()
}

// Program represents the root node of every parsed expression
type Program struct {
	Decorations
	Statements []Expression
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	parts := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}

// NumberLiteral represents numeric literals like '42' or '1.5e3'
type NumberLiteral struct {
	Decorations
	Token lexer.Token
	Value float64
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string       { return nl.Token.Literal }

// StringLiteral represents quoted string literals
type StringLiteral struct {
	Decorations
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return sl.Token.Literal }

// BooleanLiteral represents 'true' and 'false'
type BooleanLiteral struct {
	Decorations
	Token lexer.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) String() string       { return bl.Token.Literal }

// NullLiteral represents 'null'
type NullLiteral struct {
	Decorations
	Token lexer.Token
}

func (nl *NullLiteral) expressionNode()      {}
func (nl *NullLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NullLiteral) String() string       { return "null" }

// UndefinedLiteral represents 'undefined'
type UndefinedLiteral struct {
	Decorations
	Token lexer.Token
}

func (ul *UndefinedLiteral) expressionNode()      {}
func (ul *UndefinedLiteral) TokenLiteral() string { return ul.Token.Literal }
func (ul *UndefinedLiteral) String() string       { return "undefined" }

// ArrayLiteral represents array literals like '[1, 2, 3]'
type ArrayLiteral struct {
	Decorations
	Token    lexer.Token // the '[' token
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) String() string {
	elements := make([]string, len(al.Elements))
	for i, e := range al.Elements {
		elements[i] = e.String()
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// ObjectProperty is a single key/value pair in an object literal. Key is an
// Identifier, StringLiteral or NumberLiteral.
type ObjectProperty struct {
	Key   Expression
	Value Expression
}

// ObjectLiteral represents object literals like '{a: 1, "b": 2}'
type ObjectLiteral struct {
	Decorations
	Token      lexer.Token // the '{' token
	Properties []*ObjectProperty
}

func (ol *ObjectLiteral) expressionNode()      {}
func (ol *ObjectLiteral) TokenLiteral() string { return ol.Token.Literal }
func (ol *ObjectLiteral) String() string {
	pairs := make([]string, len(ol.Properties))
	for i, p := range ol.Properties {
		pairs[i] = p.Key.String() + ": " + p.Value.String()
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// Identifier represents a bare name resolved against locals then scope
type Identifier struct {
	Decorations
	Token lexer.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// ThisExpression represents 'this', which resolves to the scope itself
type ThisExpression struct {
	Decorations
	Token lexer.Token
}

func (te *ThisExpression) expressionNode()      {}
func (te *ThisExpression) TokenLiteral() string { return te.Token.Literal }
func (te *ThisExpression) String() string       { return "this" }

// MemberExpression represents non-computed member access like 'a.b'
type MemberExpression struct {
	Decorations
	Token    lexer.Token // the '.' token
	Object   Expression
	Property *Identifier
}

func (me *MemberExpression) expressionNode()      {}
func (me *MemberExpression) TokenLiteral() string { return me.Token.Literal }
func (me *MemberExpression) String() string {
	return "(" + me.Object.String() + "." + me.Property.String() + ")"
}

// IndexExpression represents computed member access like 'a[b]'
type IndexExpression struct {
	Decorations
	Token  lexer.Token // the '[' token
	Object Expression
	Index  Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) String() string {
	return "(" + ie.Object.String() + "[" + ie.Index.String() + "])"
}

// CallExpression represents function invocation like 'fn(a, b)'
type CallExpression struct {
	Decorations
	Token     lexer.Token // the '(' token
	Callee    Expression
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	args := make([]string, len(ce.Arguments))
	for i, a := range ce.Arguments {
		args[i] = a.String()
	}
	return ce.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

// FilterExpression represents pipeline filter application like 'x | f:a'.
// Input is the piped-in expression; Arguments are the ':'-separated extras.
type FilterExpression struct {
	Decorations
	Token     lexer.Token // the '|' token
	Name      *Identifier
	Input     Expression
	Arguments []Expression
}

func (fe *FilterExpression) expressionNode()      {}
func (fe *FilterExpression) TokenLiteral() string { return fe.Token.Literal }
func (fe *FilterExpression) String() string {
	var sb strings.Builder
	sb.WriteString(fe.Input.String())
	sb.WriteString(" | ")
	sb.WriteString(fe.Name.String())
	for _, a := range fe.Arguments {
		sb.WriteString(":")
		sb.WriteString(a.String())
	}
	return sb.String()
}

// AssignmentExpression represents assignment like 'a.b = c'
type AssignmentExpression struct {
	Decorations
	Token lexer.Token // the '=' token
	Left  Expression
	Right Expression
}

func (ae *AssignmentExpression) expressionNode()      {}
func (ae *AssignmentExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AssignmentExpression) String() string {
	return ae.Left.String() + " = " + ae.Right.String()
}

// PrefixExpression represents unary operators: '+x', '-x', '!x'
type PrefixExpression struct {
	Decorations
	Token    lexer.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

// InfixExpression represents arithmetic, relational and equality operators
type InfixExpression struct {
	Decorations
	Token    lexer.Token
	Operator string
	Left     Expression
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// LogicalExpression represents short-circuiting '&&' and '||'
type LogicalExpression struct {
	Decorations
	Token    lexer.Token
	Operator string
	Left     Expression
	Right    Expression
}

func (le *LogicalExpression) expressionNode()      {}
func (le *LogicalExpression) TokenLiteral() string { return le.Token.Literal }
func (le *LogicalExpression) String() string {
	return "(" + le.Left.String() + " " + le.Operator + " " + le.Right.String() + ")"
}

// ConditionalExpression represents the ternary 'test ? a : b'
type ConditionalExpression struct {
	Decorations
	Token      lexer.Token // the '?' token
	Test       Expression
	Consequent Expression
	Alternate  Expression
}

func (ce *ConditionalExpression) expressionNode()      {}
func (ce *ConditionalExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *ConditionalExpression) String() string {
	return "(" + ce.Test.String() + " ? " + ce.Consequent.String() + " : " + ce.Alternate.String() + ")"
}

// ValueParameter is the synthetic right-hand side of the assignment built by
// AssignableAST. The compiler's assign stage binds it to the incoming value.
type ValueParameter struct {
	Decorations
}

func (vp *ValueParameter) expressionNode()      {}
func (vp *ValueParameter) TokenLiteral() string { return "" }
func (vp *ValueParameter) String() string       { return "" }
