// File: ast_test.go
// Title: AST Unit Tests
// Description: Tests for node rendering, visitors, structural equality,
//              metrics and map export.
// Author: msto63
// Version: v0.2.1
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial test suite
// - 2026-10-18 v0.2.0: FromMap tests
// - 2026-10-18 v0.2.1: Float marker tests

package ast

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func num(v int64) *Number           { return NewInt(v, 0) }
func ident(name string) *Identifier { return &Identifier{Name: name} }
func bin(op string, l, r Node) *Binary {
	return &Binary{Op: op, Left: l, Right: r}
}

func TestASTToString(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"int", num(42), "42"},
		{"float", NewFloat(3.5, 0), "3.5"},
		{"whole float", NewFloat(3, 0), "3.0"},
		{"identifier", ident("x"), "x"},
		{"left fold", bin(OpAdd, bin(OpAdd, num(1), num(2)), num(3)), "(+ (+ 1 2) 3)"},
		{"negate", &Negate{Operand: ident("x")}, "(negate x)"},
		{"not", &Not{Operand: ident("x")}, "(not x)"},
		{"assign", &Assign{Target: ident("x"), Value: num(1)}, "(= x 1)"},
		{"if", &If{Condition: ident("c"), Then: num(1)}, "(if c 1)"},
		{"if else", &If{Condition: ident("c"), Then: num(1), Else: num(2)}, "(if c 1 2)"},
		{"while", &While{Condition: ident("c"), Do: num(1)}, "(while c 1)"},
		{"empty print", &Print{}, "(print)"},
		{"print", &Print{Arguments: []Node{num(1), num(2)}}, "(print 1 2)"},
		{"empty block", &Block{}, "(block)"},
		{"block", &Block{Statements: []Node{ident("a"), ident("b")}}, "(block a b)"},
		{"nil", nil, "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ASTToString(tt.node)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNodeTags(t *testing.T) {
	tests := []struct {
		node Node
		want Tag
	}{
		{num(1), TagNumber},
		{ident("x"), TagIdentifier},
		{&Negate{}, TagNegate},
		{&Not{}, TagNot},
		{bin(OpLessEqual, nil, nil), Tag("<=")},
		{&Assign{}, TagAssign},
		{&If{}, TagIf},
		{&While{}, TagWhile},
		{&Print{}, TagPrint},
		{&Block{}, TagBlock},
	}

	for _, tt := range tests {
		if got := tt.node.Tag(); got != tt.want {
			t.Errorf("Expected tag %q, got %q", tt.want, got)
		}
	}
}

func TestEqual(t *testing.T) {
	a := &Block{Pos: 0, Statements: []Node{
		&Assign{Pos: 2, Target: &Identifier{Name: "x", Pos: 1}, Value: NewInt(1, 3)},
	}}
	b := &Block{Pos: 5, Statements: []Node{
		&Assign{Pos: 12, Target: &Identifier{Name: "x", Pos: 9}, Value: NewInt(1, 14)},
	}}

	if !Equal(a, b) {
		t.Error("Expected trees differing only in positions to be equal")
	}

	tests := []struct {
		name string
		a, b Node
	}{
		{"int vs float", NewInt(1, 0), NewFloat(1, 0)},
		{"different op", bin(OpAdd, num(1), num(2)), bin(OpSub, num(1), num(2))},
		{"different kind", &Negate{Operand: num(1)}, &Not{Operand: num(1)}},
		{"missing else", &If{Condition: num(1), Then: num(2)}, &If{Condition: num(1), Then: num(2), Else: num(3)}},
		{"argument count", &Print{Arguments: []Node{num(1)}}, &Print{}},
		{"nil vs node", nil, num(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Equal(tt.a, tt.b) {
				t.Errorf("Expected %v and %v to differ", tt.a, tt.b)
			}
		})
	}

	if !Equal(nil, nil) {
		t.Error("Expected nil trees to be equal")
	}
}

func TestDepthAndCount(t *testing.T) {
	tree := &While{
		Condition: bin(OpLess, ident("i"), num(10)),
		Do: &Block{Statements: []Node{
			&Assign{Target: ident("i"), Value: bin(OpAdd, ident("i"), num(1))},
		}},
	}

	if got := Depth(tree); got != 5 {
		t.Errorf("Expected depth 5, got %d", got)
	}
	if got := Count(tree); got != 10 {
		t.Errorf("Expected 10 nodes, got %d", got)
	}
	if Depth(nil) != 0 || Count(nil) != 0 {
		t.Error("Expected empty tree to have depth and count 0")
	}
}

func TestValidateAST(t *testing.T) {
	valid := &If{
		Condition: bin(OpAnd, ident("a"), &Not{Operand: ident("b")}),
		Then:      &Print{Arguments: []Node{num(1)}},
		Else:      &Block{},
	}
	if errs := ValidateAST(valid); len(errs) != 0 {
		t.Errorf("Expected no validation errors, got %v", errs)
	}

	tests := []struct {
		name  string
		node  Node
		count int
	}{
		{"non-identifier target", &Assign{Target: bin(OpAdd, ident("i"), num(2)), Value: ident("i")}, 1},
		{"missing operand", &Negate{}, 1},
		{"unknown operator", bin("%", num(1), num(2)), 1},
		{"bad literal", &Number{Value: "1"}, 1},
		{"empty identifier", &Identifier{}, 1},
		{"nested problems", &Block{Statements: []Node{&While{Condition: ident("c")}, nil}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateAST(tt.node)
			if len(errs) != tt.count {
				t.Errorf("Expected %d errors, got %d: %v", tt.count, len(errs), errs)
			}
		})
	}
}

func TestCollectNodes(t *testing.T) {
	tree := &Block{Statements: []Node{
		&Assign{Target: ident("x"), Value: num(1)},
		&Assign{Target: ident("y"), Value: bin(OpMul, ident("x"), NewFloat(2.5, 0))},
		&Print{Arguments: []Node{ident("x"), ident("y")}},
	}}

	c := CollectNodes(tree)
	if len(c.Assignments) != 2 {
		t.Errorf("Expected 2 assignments, got %d", len(c.Assignments))
	}
	if len(c.Numbers) != 2 {
		t.Errorf("Expected 2 numbers, got %d", len(c.Numbers))
	}
	if len(c.Identifiers) != 5 {
		t.Errorf("Expected 5 identifiers, got %d", len(c.Identifiers))
	}
	if got := c.Names(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Expected names [x y], got %v", got)
	}
}

func TestToMap(t *testing.T) {
	print123 := &Print{Pos: 0, Arguments: []Node{NewInt(1, 6), NewInt(2, 8), NewInt(3, 10)}}

	t.Run("linked print with positions", func(t *testing.T) {
		got := ToMap(print123, ExportOptions{Linked: true, Positions: true})
		want := map[string]interface{}{
			"tag":      "print",
			"position": 0,
			"arguments": map[string]interface{}{
				"tag": "number", "value": int64(1), "position": 6,
				"next": map[string]interface{}{
					"tag": "number", "value": int64(2), "position": 8,
					"next": map[string]interface{}{
						"tag": "number", "value": int64(3), "position": 10,
					},
				},
			},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})

	t.Run("list print", func(t *testing.T) {
		got := ToMap(print123, ExportOptions{})
		args, ok := got["arguments"].([]interface{})
		if !ok || len(args) != 3 {
			t.Fatalf("Expected 3 list arguments, got %v", got["arguments"])
		}
		if _, has := got["position"]; has {
			t.Error("Expected no position key without Positions")
		}
	})

	t.Run("empty linked print", func(t *testing.T) {
		got := ToMap(&Print{}, ExportOptions{Linked: true})
		if v, has := got["arguments"]; !has || v != nil {
			t.Errorf("Expected nil arguments, got %v", v)
		}
	})

	t.Run("linked block", func(t *testing.T) {
		block := &Block{Statements: []Node{ident("a"), ident("b")}}
		got := ToMap(block, ExportOptions{Linked: true})
		want := map[string]interface{}{
			"tag":       "block",
			"statement": map[string]interface{}{"tag": "identifier", "value": "a"},
			"next": map[string]interface{}{
				"tag":       "block",
				"statement": map[string]interface{}{"tag": "identifier", "value": "b"},
			},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})

	t.Run("assign and negate", func(t *testing.T) {
		got := ToMap(&Assign{Target: ident("x"), Value: &Negate{Operand: num(2)}}, ExportOptions{})
		want := map[string]interface{}{
			"tag":    "=",
			"target": map[string]interface{}{"tag": "identifier", "value": "x"},
			"value": map[string]interface{}{
				"tag":   "negate",
				"value": map[string]interface{}{"tag": "number", "value": int64(2)},
			},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})
}

func sampleProgram() Node {
	return &Block{Pos: 0, Statements: []Node{
		&Assign{Pos: 4, Target: &Identifier{Name: "x", Pos: 2}, Value: &Negate{Pos: 6, Operand: NewFloat(2.5, 7)}},
		&While{Pos: 12, Condition: bin(OpLess, ident("x"), num(10)), Do: &Block{Statements: []Node{
			&Assign{Target: ident("x"), Value: bin(OpAdd, ident("x"), num(1))},
		}}},
		&If{Condition: &Not{Operand: bin(OpEqual, ident("x"), num(0))}, Then: &Print{Arguments: []Node{ident("x"), num(1)}}, Else: &Print{}},
		&If{Condition: bin(OpOr, ident("a"), ident("b")), Then: &Block{}},
	}}
}

func TestFromMap_RoundTrip(t *testing.T) {
	layouts := []ExportOptions{
		{},
		{Linked: true},
		{Positions: true},
		{Positions: true, Linked: true},
	}

	for _, opts := range layouts {
		node := sampleProgram()
		got, err := FromMap(ToMap(node, opts))
		if err != nil {
			t.Fatalf("FromMap(%+v) failed: %v", opts, err)
		}
		if !Equal(node, got) {
			t.Errorf("FromMap(%+v) = %s, want %s", opts, got, node)
		}
		if opts.Positions && got.(*Block).Statements[0].Position() != 4 {
			t.Errorf("FromMap(%+v) lost positions", opts)
		}
	}
}

func TestFromMap_JSON(t *testing.T) {
	node := sampleProgram()
	data, err := json.Marshal(ToMap(node, ExportOptions{Linked: true, Positions: true}))
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	got, err := FromMap(decoded)
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	if !Equal(node, got) {
		t.Errorf("FromMap = %s, want %s", got, node)
	}
}

func TestFromMap_FloatMarker(t *testing.T) {
	node := &Print{Arguments: []Node{NewFloat(1, 6), NewInt(1, 11), NewFloat(2.5, 14)}}

	m := ToMap(node, ExportOptions{})
	args := m["arguments"].([]interface{})
	if args[0].(map[string]interface{})["float"] != true {
		t.Errorf("Expected float marker on 1.0, got %v", args[0])
	}
	if _, has := args[1].(map[string]interface{})["float"]; has {
		t.Errorf("Expected no float marker on 1, got %v", args[1])
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	got, err := FromMap(decoded)
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	if !Equal(node, got) {
		t.Errorf("FromMap = %s, want %s", got, node)
	}
	if s := got.String(); s != "(print 1.0 1 2.5)" {
		t.Errorf("String() = %q, want (print 1.0 1 2.5)", s)
	}

	if n, err := FromMap(map[string]interface{}{"tag": "number", "value": int64(3), "float": true}); err != nil || !n.(*Number).IsFloat() {
		t.Errorf("Expected marked int64 to become a float literal, got %v, %v", n, err)
	}
}

func TestFromMap_Errors(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]interface{}
		want string
	}{
		{"nil", nil, "missing node"},
		{"unknown tag", map[string]interface{}{"tag": "for"}, "unknown node tag"},
		{"missing operand", map[string]interface{}{"tag": "negate"}, `missing "value"`},
		{"bad number", map[string]interface{}{"tag": "number", "value": "7"}, "invalid number"},
		{"empty identifier", map[string]interface{}{"tag": "identifier", "value": ""}, "without name"},
		{"bad arguments", map[string]interface{}{"tag": "print", "arguments": "x"}, "invalid arguments"},
		{"bad list item", map[string]interface{}{"tag": "block", "statements": []interface{}{1}}, "not a node"},
		{"bad position", map[string]interface{}{"tag": "identifier", "value": "x", "position": "0"}, "invalid position"},
		{"missing right", map[string]interface{}{"tag": "+", "left": map[string]interface{}{"tag": "identifier", "value": "x"}}, `missing "right"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(tt.m)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("FromMap error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
