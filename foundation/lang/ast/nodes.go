// File: nodes.go
// Title: AST Node Definitions
// Description: Defines the closed set of AST node types produced by the
//              parser: literals, identifiers, unary and binary operators,
//              assignment, and the if/while/print/block statements.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial AST node definitions

package ast

import (
	"strconv"
)

// Tag identifies the shape of a node
type Tag string

const (
	TagNumber     Tag = "number"
	TagIdentifier Tag = "identifier"
	TagNegate     Tag = "negate"
	TagNot        Tag = "not"
	TagAssign     Tag = "="
	TagIf         Tag = "if"
	TagWhile      Tag = "while"
	TagPrint      Tag = "print"
	TagBlock      Tag = "block"
)

// Binary operators, also used as the tag of the Binary node carrying them
const (
	OpAdd          = "+"
	OpSub          = "-"
	OpMul          = "*"
	OpDiv          = "/"
	OpLess         = "<"
	OpGreater      = ">"
	OpLessEqual    = "<="
	OpGreaterEqual = ">="
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpAnd          = "&&"
	OpOr           = "||"
)

// IsBinaryOp reports whether op is one of the binary operators
func IsBinaryOp(op string) bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv,
		OpLess, OpGreater, OpLessEqual, OpGreaterEqual, OpEqual, OpNotEqual,
		OpAnd, OpOr:
		return true
	}
	return false
}

// Node is implemented by every AST node. The set of implementations is closed.
type Node interface {
	// Tag returns the node's tag
	Tag() Tag

	// Position returns the byte offset of the token that starts the node
	Position() int

	// Accept implements the visitor pattern
	Accept(visitor Visitor) interface{}

	// String returns the S-expression form of the node
	String() string

	node()
}

// Number is a numeric literal. Value holds an int64 or a float64.
type Number struct {
	Value interface{}
	Pos   int
}

// Identifier is a variable reference
type Identifier struct {
	Name string
	Pos  int
}

// Negate is unary minus
type Negate struct {
	Operand Node
	Pos     int
}

// Not is logical negation
type Not struct {
	Operand Node
	Pos     int
}

// Binary is an arithmetic, relational or logical operator application
type Binary struct {
	Op    string
	Left  Node
	Right Node
	Pos   int
}

// Assign stores Value into Target. Target is normally an *Identifier.
type Assign struct {
	Target Node
	Value  Node
	Pos    int
}

// If is a conditional; Else is nil when absent
type If struct {
	Condition Node
	Then      Node
	Else      Node
	Pos       int
}

// While is a pre-tested loop
type While struct {
	Condition Node
	Do        Node
	Pos       int
}

// Print outputs its arguments; the list may be empty
type Print struct {
	Arguments []Node
	Pos       int
}

// Block is a statement sequence; the list may be empty
type Block struct {
	Statements []Node
	Pos        int
}

// NewInt returns an integer literal
func NewInt(v int64, pos int) *Number {
	return &Number{Value: v, Pos: pos}
}

// NewFloat returns a floating-point literal
func NewFloat(v float64, pos int) *Number {
	return &Number{Value: v, Pos: pos}
}

// IsFloat reports whether the literal was written with a decimal point
func (n *Number) IsFloat() bool {
	_, ok := n.Value.(float64)
	return ok
}

// Literal formats the value the way it would be written in source
func (n *Number) Literal() string {
	switch v := n.Value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		for _, c := range s {
			if c == '.' || c == 'e' || c == 'I' || c == 'N' {
				return s
			}
		}
		return s + ".0"
	}
	return "?"
}

func (*Number) Tag() Tag     { return TagNumber }
func (*Identifier) Tag() Tag { return TagIdentifier }
func (*Negate) Tag() Tag     { return TagNegate }
func (*Not) Tag() Tag        { return TagNot }
func (b *Binary) Tag() Tag   { return Tag(b.Op) }
func (*Assign) Tag() Tag     { return TagAssign }
func (*If) Tag() Tag         { return TagIf }
func (*While) Tag() Tag      { return TagWhile }
func (*Print) Tag() Tag      { return TagPrint }
func (*Block) Tag() Tag      { return TagBlock }

func (n *Number) Position() int     { return n.Pos }
func (n *Identifier) Position() int { return n.Pos }
func (n *Negate) Position() int     { return n.Pos }
func (n *Not) Position() int        { return n.Pos }
func (n *Binary) Position() int     { return n.Pos }
func (n *Assign) Position() int     { return n.Pos }
func (n *If) Position() int         { return n.Pos }
func (n *While) Position() int      { return n.Pos }
func (n *Print) Position() int      { return n.Pos }
func (n *Block) Position() int      { return n.Pos }

func (n *Number) Accept(v Visitor) interface{}     { return v.VisitNumber(n) }
func (n *Identifier) Accept(v Visitor) interface{} { return v.VisitIdentifier(n) }
func (n *Negate) Accept(v Visitor) interface{}     { return v.VisitNegate(n) }
func (n *Not) Accept(v Visitor) interface{}        { return v.VisitNot(n) }
func (n *Binary) Accept(v Visitor) interface{}     { return v.VisitBinary(n) }
func (n *Assign) Accept(v Visitor) interface{}     { return v.VisitAssign(n) }
func (n *If) Accept(v Visitor) interface{}         { return v.VisitIf(n) }
func (n *While) Accept(v Visitor) interface{}      { return v.VisitWhile(n) }
func (n *Print) Accept(v Visitor) interface{}      { return v.VisitPrint(n) }
func (n *Block) Accept(v Visitor) interface{}      { return v.VisitBlock(n) }

func (n *Number) String() string     { return ASTToString(n) }
func (n *Identifier) String() string { return ASTToString(n) }
func (n *Negate) String() string     { return ASTToString(n) }
func (n *Not) String() string        { return ASTToString(n) }
func (n *Binary) String() string     { return ASTToString(n) }
func (n *Assign) String() string     { return ASTToString(n) }
func (n *If) String() string         { return ASTToString(n) }
func (n *While) String() string      { return ASTToString(n) }
func (n *Print) String() string      { return ASTToString(n) }
func (n *Block) String() string      { return ASTToString(n) }

func (*Number) node()     {}
func (*Identifier) node() {}
func (*Negate) node()     {}
func (*Not) node()        {}
func (*Binary) node()     {}
func (*Assign) node()     {}
func (*If) node()         {}
func (*While) node()      {}
func (*Print) node()      {}
func (*Block) node()      {}
