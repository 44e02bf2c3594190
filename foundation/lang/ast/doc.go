// File: doc.go
// Title: Package Documentation for AST
// Description: Package ast defines the abstract syntax tree produced by the
//              descent parser together with visitors, structural comparison
//              and map export.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial package documentation

// Package ast defines the syntax tree of the descent language.
//
// Nodes form a closed sum type behind the Node interface. Leaves are *Number
// and *Identifier; unary operators are *Negate and *Not; every binary
// operator is a *Binary whose tag is the operator itself; statements are
// *Assign, *If, *While, *Print and *Block. Sequences are ordered slices.
//
// Every node carries the byte offset of the token that opened it. Offsets are
// metadata only: Equal ignores them, so
//
//	ast.Equal(parse("{x=1;y=2}"), parse("{ ;x = 1 ;; y = 2 ; }"))
//
// holds.
//
// Traversal uses the visitor pattern. StringVisitor renders S-expressions,
// ValidationVisitor checks structural invariants and CollectorVisitor gathers
// identifiers, literals and assignments:
//
//	fmt.Println(node)              // (+ (+ 1 2) 3)
//	errs := ast.ValidateAST(node)  // empty for parser output
//	names := ast.CollectNodes(node).Names()
//
// ToMap exports a tree into nested maps ready for JSON, YAML or a protobuf
// Struct. With ExportOptions.Linked the print arguments and block statements
// are chained through "next" keys instead of lists.
package ast
