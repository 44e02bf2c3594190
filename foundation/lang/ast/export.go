// File: export.go
// Title: AST Map Export
// Description: Converts trees to and from generic map form for JSON, YAML
//              and protobuf Struct serialisation, in either list or linked
//              (next-chained) layout.
// Author: msto63
// Version: v0.2.1
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial implementation
// - 2026-10-18 v0.2.0: FromMap for trees received over the wire
// - 2026-10-18 v0.2.1: Float marker keeps 1.0 apart from 1

package ast

import (
	"fmt"
	"math"
)

// ExportOptions controls the map layout produced by ToMap
type ExportOptions struct {
	// Positions adds a "position" key to every node
	Positions bool

	// Linked chains print arguments and block statements through "next"
	// keys instead of emitting lists
	Linked bool
}

// ToMap converts a tree into nested maps keyed by "tag", "value", "left",
// "right", "target", "condition", "then", "else", "do", "arguments",
// "statements" (list layout) or "statement"/"next" (linked layout).
// Float literals carry "float": true so integral values such as 1.0 survive
// encodings that drop the distinction.
// Lists are []interface{} so the result feeds structpb.NewStruct directly.
func ToMap(node Node, opts ExportOptions) map[string]interface{} {
	if node == nil {
		return nil
	}

	m := map[string]interface{}{"tag": string(node.Tag())}
	if opts.Positions {
		m["position"] = node.Position()
	}

	switch n := node.(type) {
	case *Number:
		m["value"] = n.Value
		if n.IsFloat() {
			m["float"] = true
		}
	case *Identifier:
		m["value"] = n.Name
	case *Negate:
		m["value"] = ToMap(n.Operand, opts)
	case *Not:
		m["value"] = ToMap(n.Operand, opts)
	case *Binary:
		m["left"] = ToMap(n.Left, opts)
		m["right"] = ToMap(n.Right, opts)
	case *Assign:
		m["target"] = ToMap(n.Target, opts)
		m["value"] = ToMap(n.Value, opts)
	case *If:
		m["condition"] = ToMap(n.Condition, opts)
		m["then"] = ToMap(n.Then, opts)
		if n.Else != nil {
			m["else"] = ToMap(n.Else, opts)
		}
	case *While:
		m["condition"] = ToMap(n.Condition, opts)
		m["do"] = ToMap(n.Do, opts)
	case *Print:
		if opts.Linked {
			m["arguments"] = linkArguments(n.Arguments, opts)
		} else {
			m["arguments"] = listOf(n.Arguments, opts)
		}
	case *Block:
		if opts.Linked {
			linkStatements(m, n.Statements, opts)
		} else {
			m["statements"] = listOf(n.Statements, opts)
		}
	}
	return m
}

func listOf(nodes []Node, opts ExportOptions) []interface{} {
	list := make([]interface{}, 0, len(nodes))
	for _, n := range nodes {
		list = append(list, ToMap(n, opts))
	}
	return list
}

// linkArguments returns the first argument with the rest hanging off "next",
// or nil for an empty list.
func linkArguments(args []Node, opts ExportOptions) interface{} {
	var head, tail map[string]interface{}
	for _, arg := range args {
		m := ToMap(arg, opts)
		if head == nil {
			head = m
		} else {
			tail["next"] = m
		}
		tail = m
	}
	if head == nil {
		return nil
	}
	return head
}

// linkStatements stores the first statement in block and chains each
// following one in a fresh block map under "next".
func linkStatements(block map[string]interface{}, stmts []Node, opts ExportOptions) {
	current := block
	for i, stmt := range stmts {
		if i > 0 {
			next := map[string]interface{}{"tag": string(TagBlock)}
			current["next"] = next
			current = next
		}
		current["statement"] = ToMap(stmt, opts)
	}
}

// FromMap rebuilds a tree from the map form produced by ToMap. Both layouts
// are accepted. Numbers decoded from JSON or protobuf arrive as float64;
// without a "float" marker, integral values within the exact float range
// become int64 literals.
func FromMap(m map[string]interface{}) (Node, error) {
	if m == nil {
		return nil, fmt.Errorf("missing node")
	}

	tag, _ := m["tag"].(string)
	pos, err := positionOf(m)
	if err != nil {
		return nil, err
	}

	switch Tag(tag) {
	case TagNumber:
		isFloat, _ := m["float"].(bool)
		v, err := numberOf(m["value"], isFloat)
		if err != nil {
			return nil, err
		}
		return &Number{Value: v, Pos: pos}, nil

	case TagIdentifier:
		name, ok := m["value"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("identifier without name at %d", pos)
		}
		return &Identifier{Name: name, Pos: pos}, nil

	case TagNegate, TagNot:
		operand, err := childOf(m, "value")
		if err != nil {
			return nil, err
		}
		if Tag(tag) == TagNegate {
			return &Negate{Operand: operand, Pos: pos}, nil
		}
		return &Not{Operand: operand, Pos: pos}, nil

	case TagAssign:
		target, err := childOf(m, "target")
		if err != nil {
			return nil, err
		}
		value, err := childOf(m, "value")
		if err != nil {
			return nil, err
		}
		return &Assign{Target: target, Value: value, Pos: pos}, nil

	case TagIf:
		node := &If{Pos: pos}
		if node.Condition, err = childOf(m, "condition"); err != nil {
			return nil, err
		}
		if node.Then, err = childOf(m, "then"); err != nil {
			return nil, err
		}
		if _, ok := m["else"]; ok && m["else"] != nil {
			if node.Else, err = childOf(m, "else"); err != nil {
				return nil, err
			}
		}
		return node, nil

	case TagWhile:
		node := &While{Pos: pos}
		if node.Condition, err = childOf(m, "condition"); err != nil {
			return nil, err
		}
		if node.Do, err = childOf(m, "do"); err != nil {
			return nil, err
		}
		return node, nil

	case TagPrint:
		args, err := argumentsOf(m["arguments"])
		if err != nil {
			return nil, err
		}
		return &Print{Arguments: args, Pos: pos}, nil

	case TagBlock:
		stmts, err := statementsOf(m)
		if err != nil {
			return nil, err
		}
		return &Block{Statements: stmts, Pos: pos}, nil
	}

	if IsBinaryOp(tag) {
		left, err := childOf(m, "left")
		if err != nil {
			return nil, err
		}
		right, err := childOf(m, "right")
		if err != nil {
			return nil, err
		}
		return &Binary{Op: tag, Left: left, Right: right, Pos: pos}, nil
	}
	return nil, fmt.Errorf("unknown node tag %q", tag)
}

func childOf(m map[string]interface{}, key string) (Node, error) {
	child, ok := m[key].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%v node: missing %q", m["tag"], key)
	}
	return FromMap(child)
}

func listFrom(items []interface{}) ([]Node, error) {
	nodes := make([]Node, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("list item %d is not a node", i)
		}
		n, err := FromMap(m)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func argumentsOf(v interface{}) ([]Node, error) {
	switch args := v.(type) {
	case nil:
		return make([]Node, 0), nil
	case []interface{}:
		return listFrom(args)
	case map[string]interface{}:
		nodes := make([]Node, 0)
		for cur := args; cur != nil; {
			n, err := FromMap(cur)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
			cur, _ = cur["next"].(map[string]interface{})
		}
		return nodes, nil
	}
	return nil, fmt.Errorf("print node: invalid arguments %T", v)
}

func statementsOf(m map[string]interface{}) ([]Node, error) {
	if list, ok := m["statements"].([]interface{}); ok {
		return listFrom(list)
	}

	nodes := make([]Node, 0)
	for cur := m; cur != nil; cur, _ = cur["next"].(map[string]interface{}) {
		if cur["statement"] == nil {
			break
		}
		n, err := childOf(cur, "statement")
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func positionOf(m map[string]interface{}) (int, error) {
	switch p := m["position"].(type) {
	case nil:
		return 0, nil
	case int:
		return p, nil
	case int64:
		return int(p), nil
	case float64:
		return int(p), nil
	}
	return 0, fmt.Errorf("invalid position %v", m["position"])
}

// maxExactFloat is the largest integer a float64 holds exactly
const maxExactFloat = 1 << 53

func numberOf(v interface{}, isFloat bool) (interface{}, error) {
	switch n := v.(type) {
	case int:
		if isFloat {
			return float64(n), nil
		}
		return int64(n), nil
	case int64:
		if isFloat {
			return float64(n), nil
		}
		return n, nil
	case float64:
		if !isFloat && n == math.Trunc(n) && math.Abs(n) <= maxExactFloat {
			return int64(n), nil
		}
		return n, nil
	}
	return nil, fmt.Errorf("invalid number value %v", v)
}
