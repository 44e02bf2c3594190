// File: visitor.go
// Title: AST Visitor Pattern Implementation
// Description: Implements the visitor pattern for traversing AST nodes, plus
//              the string, validation and collector visitors built on it.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial visitor pattern implementation

package ast

import (
	"fmt"
	"strings"
)

// Visitor interface for traversing AST nodes using the visitor pattern
type Visitor interface {
	VisitNumber(n *Number) interface{}
	VisitIdentifier(n *Identifier) interface{}
	VisitNegate(n *Negate) interface{}
	VisitNot(n *Not) interface{}
	VisitBinary(n *Binary) interface{}
	VisitAssign(n *Assign) interface{}
	VisitIf(n *If) interface{}
	VisitWhile(n *While) interface{}
	VisitPrint(n *Print) interface{}
	VisitBlock(n *Block) interface{}
}

// Children returns the direct children of n in source order. Absent optional
// children are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(children ...Node) {
		for _, c := range children {
			if c != nil {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *Negate:
		add(n.Operand)
	case *Not:
		add(n.Operand)
	case *Binary:
		add(n.Left, n.Right)
	case *Assign:
		add(n.Target, n.Value)
	case *If:
		add(n.Condition, n.Then, n.Else)
	case *While:
		add(n.Condition, n.Do)
	case *Print:
		add(n.Arguments...)
	case *Block:
		add(n.Statements...)
	}
	return out
}

// Inspect traverses the tree depth-first in source order. If f returns false
// the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// BaseVisitor visits every node of a tree and does nothing else. Embed it
// and override the methods of interest; set Self to the embedding visitor so
// that children are dispatched back to the overrides.
type BaseVisitor struct {
	Self Visitor
}

func (bv *BaseVisitor) walk(nodes ...Node) interface{} {
	var v Visitor = bv
	if bv.Self != nil {
		v = bv.Self
	}
	for _, n := range nodes {
		if n != nil {
			n.Accept(v)
		}
	}
	return nil
}

func (bv *BaseVisitor) VisitNumber(n *Number) interface{}         { return nil }
func (bv *BaseVisitor) VisitIdentifier(n *Identifier) interface{} { return nil }
func (bv *BaseVisitor) VisitNegate(n *Negate) interface{}         { return bv.walk(n.Operand) }
func (bv *BaseVisitor) VisitNot(n *Not) interface{}               { return bv.walk(n.Operand) }
func (bv *BaseVisitor) VisitBinary(n *Binary) interface{}         { return bv.walk(n.Left, n.Right) }
func (bv *BaseVisitor) VisitAssign(n *Assign) interface{}         { return bv.walk(n.Target, n.Value) }
func (bv *BaseVisitor) VisitIf(n *If) interface{} {
	return bv.walk(n.Condition, n.Then, n.Else)
}
func (bv *BaseVisitor) VisitWhile(n *While) interface{} { return bv.walk(n.Condition, n.Do) }
func (bv *BaseVisitor) VisitPrint(n *Print) interface{} { return bv.walk(n.Arguments...) }
func (bv *BaseVisitor) VisitBlock(n *Block) interface{} { return bv.walk(n.Statements...) }

// StringVisitor renders nodes as S-expressions: (+ (+ 1 2) 3)
type StringVisitor struct {
	buffer strings.Builder
}

// NewStringVisitor creates a new string visitor
func NewStringVisitor() *StringVisitor {
	return &StringVisitor{}
}

// String returns the built string representation
func (sv *StringVisitor) String() string {
	return sv.buffer.String()
}

// Reset clears the internal buffer
func (sv *StringVisitor) Reset() {
	sv.buffer.Reset()
}

func (sv *StringVisitor) visit(n Node) {
	if n == nil {
		sv.buffer.WriteString("<nil>")
		return
	}
	n.Accept(sv)
}

func (sv *StringVisitor) list(head string, nodes ...Node) {
	sv.buffer.WriteString("(")
	sv.buffer.WriteString(head)
	for _, n := range nodes {
		sv.buffer.WriteString(" ")
		sv.visit(n)
	}
	sv.buffer.WriteString(")")
}

func (sv *StringVisitor) VisitNumber(n *Number) interface{} {
	sv.buffer.WriteString(n.Literal())
	return nil
}

func (sv *StringVisitor) VisitIdentifier(n *Identifier) interface{} {
	sv.buffer.WriteString(n.Name)
	return nil
}

func (sv *StringVisitor) VisitNegate(n *Negate) interface{} {
	sv.list("negate", n.Operand)
	return nil
}

func (sv *StringVisitor) VisitNot(n *Not) interface{} {
	sv.list("not", n.Operand)
	return nil
}

func (sv *StringVisitor) VisitBinary(n *Binary) interface{} {
	sv.list(n.Op, n.Left, n.Right)
	return nil
}

func (sv *StringVisitor) VisitAssign(n *Assign) interface{} {
	sv.list("=", n.Target, n.Value)
	return nil
}

func (sv *StringVisitor) VisitIf(n *If) interface{} {
	if n.Else == nil {
		sv.list("if", n.Condition, n.Then)
	} else {
		sv.list("if", n.Condition, n.Then, n.Else)
	}
	return nil
}

func (sv *StringVisitor) VisitWhile(n *While) interface{} {
	sv.list("while", n.Condition, n.Do)
	return nil
}

func (sv *StringVisitor) VisitPrint(n *Print) interface{} {
	sv.list("print", n.Arguments...)
	return nil
}

func (sv *StringVisitor) VisitBlock(n *Block) interface{} {
	sv.list("block", n.Statements...)
	return nil
}

// ValidationError describes one invariant violation found in a tree
type ValidationError struct {
	Tag      Tag
	Position int
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Tag, e.Position, e.Message)
}

// ValidationVisitor checks structural invariants and collects every violation
type ValidationVisitor struct {
	errors []error
}

// NewValidationVisitor creates a new validation visitor
func NewValidationVisitor() *ValidationVisitor {
	return &ValidationVisitor{
		errors: make([]error, 0),
	}
}

// Errors returns all validation errors found
func (vv *ValidationVisitor) Errors() []error {
	return vv.errors
}

// HasErrors returns true if any validation errors were found
func (vv *ValidationVisitor) HasErrors() bool {
	return len(vv.errors) > 0
}

// Reset clears all collected errors
func (vv *ValidationVisitor) Reset() {
	vv.errors = vv.errors[:0]
}

func (vv *ValidationVisitor) addError(n Node, format string, args ...interface{}) {
	vv.errors = append(vv.errors, &ValidationError{
		Tag:      n.Tag(),
		Position: n.Position(),
		Message:  fmt.Sprintf(format, args...),
	})
}

func (vv *ValidationVisitor) require(parent Node, field string, child Node) {
	if child == nil {
		vv.addError(parent, "missing %s", field)
		return
	}
	child.Accept(vv)
}

func (vv *ValidationVisitor) VisitNumber(n *Number) interface{} {
	switch n.Value.(type) {
	case int64, float64:
	default:
		vv.addError(n, "value has type %T, want int64 or float64", n.Value)
	}
	return nil
}

func (vv *ValidationVisitor) VisitIdentifier(n *Identifier) interface{} {
	if n.Name == "" {
		vv.addError(n, "empty name")
	}
	return nil
}

func (vv *ValidationVisitor) VisitNegate(n *Negate) interface{} {
	vv.require(n, "operand", n.Operand)
	return nil
}

func (vv *ValidationVisitor) VisitNot(n *Not) interface{} {
	vv.require(n, "operand", n.Operand)
	return nil
}

func (vv *ValidationVisitor) VisitBinary(n *Binary) interface{} {
	if !IsBinaryOp(n.Op) {
		vv.addError(n, "unknown operator %q", n.Op)
	}
	vv.require(n, "left operand", n.Left)
	vv.require(n, "right operand", n.Right)
	return nil
}

func (vv *ValidationVisitor) VisitAssign(n *Assign) interface{} {
	if n.Target != nil {
		if _, ok := n.Target.(*Identifier); !ok {
			vv.addError(n, "assignment target must be an identifier, got %s", n.Target.Tag())
		}
	}
	vv.require(n, "target", n.Target)
	vv.require(n, "value", n.Value)
	return nil
}

func (vv *ValidationVisitor) VisitIf(n *If) interface{} {
	vv.require(n, "condition", n.Condition)
	vv.require(n, "then branch", n.Then)
	if n.Else != nil {
		n.Else.Accept(vv)
	}
	return nil
}

func (vv *ValidationVisitor) VisitWhile(n *While) interface{} {
	vv.require(n, "condition", n.Condition)
	vv.require(n, "body", n.Do)
	return nil
}

func (vv *ValidationVisitor) VisitPrint(n *Print) interface{} {
	for i, arg := range n.Arguments {
		vv.require(n, fmt.Sprintf("argument %d", i), arg)
	}
	return nil
}

func (vv *ValidationVisitor) VisitBlock(n *Block) interface{} {
	for i, stmt := range n.Statements {
		vv.require(n, fmt.Sprintf("statement %d", i), stmt)
	}
	return nil
}

// CollectorVisitor collects identifiers, literals and assignments from a tree
type CollectorVisitor struct {
	BaseVisitor
	Identifiers []*Identifier
	Numbers     []*Number
	Assignments []*Assign
}

// NewCollectorVisitor creates a new collector visitor
func NewCollectorVisitor() *CollectorVisitor {
	cv := &CollectorVisitor{}
	cv.Self = cv
	return cv
}

// Collect walks n and records the nodes of interest
func (cv *CollectorVisitor) Collect(n Node) {
	if n != nil {
		n.Accept(cv)
	}
}

func (cv *CollectorVisitor) VisitIdentifier(n *Identifier) interface{} {
	cv.Identifiers = append(cv.Identifiers, n)
	return nil
}

func (cv *CollectorVisitor) VisitNumber(n *Number) interface{} {
	cv.Numbers = append(cv.Numbers, n)
	return nil
}

func (cv *CollectorVisitor) VisitAssign(n *Assign) interface{} {
	cv.Assignments = append(cv.Assignments, n)
	return cv.BaseVisitor.VisitAssign(n)
}

// Names returns the distinct identifier names in first-use order
func (cv *CollectorVisitor) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, id := range cv.Identifiers {
		if !seen[id.Name] {
			seen[id.Name] = true
			names = append(names, id.Name)
		}
	}
	return names
}

// ValidateAST validates a tree and returns every violation found
func ValidateAST(node Node) []error {
	visitor := NewValidationVisitor()
	if node == nil {
		return []error{fmt.Errorf("nil tree")}
	}
	node.Accept(visitor)
	return visitor.Errors()
}

// ASTToString converts a tree to its S-expression form
func ASTToString(node Node) string {
	visitor := NewStringVisitor()
	visitor.visit(node)
	return visitor.String()
}

// CollectNodes collects identifiers, numbers and assignments from a tree
func CollectNodes(node Node) *CollectorVisitor {
	visitor := NewCollectorVisitor()
	visitor.Collect(node)
	return visitor
}
