// File: equal.go
// Title: Structural Comparison and Metrics
// Description: Position-insensitive structural equality between trees and
//              simple size metrics used by tests and the front end.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial implementation

package ast

// Equal reports whether a and b have the same shape and values. Positions
// are ignored, so trees parsed from differently spaced sources compare equal.
// An int64 literal never equals a float64 literal.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case *Number:
		y, ok := b.(*Number)
		return ok && x.Value == y.Value
	case *Identifier:
		y, ok := b.(*Identifier)
		return ok && x.Name == y.Name
	case *Negate:
		y, ok := b.(*Negate)
		return ok && Equal(x.Operand, y.Operand)
	case *Not:
		y, ok := b.(*Not)
		return ok && Equal(x.Operand, y.Operand)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Assign:
		y, ok := b.(*Assign)
		return ok && Equal(x.Target, y.Target) && Equal(x.Value, y.Value)
	case *If:
		y, ok := b.(*If)
		return ok && Equal(x.Condition, y.Condition) && Equal(x.Then, y.Then) && Equal(x.Else, y.Else)
	case *While:
		y, ok := b.(*While)
		return ok && Equal(x.Condition, y.Condition) && Equal(x.Do, y.Do)
	case *Print:
		y, ok := b.(*Print)
		return ok && equalList(x.Arguments, y.Arguments)
	case *Block:
		y, ok := b.(*Block)
		return ok && equalList(x.Statements, y.Statements)
	}
	return false
}

func equalList(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Depth returns the height of the tree; a single leaf has depth 1
func Depth(n Node) int {
	if n == nil {
		return 0
	}
	max := 0
	for _, c := range Children(n) {
		if d := Depth(c); d > max {
			max = d
		}
	}
	return max + 1
}

// Count returns the number of nodes in the tree
func Count(n Node) int {
	count := 0
	Inspect(n, func(Node) bool {
		count++
		return true
	})
	return count
}
