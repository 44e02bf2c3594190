// File: grammar.go
// Title: Recursive Descent Grammar Rules
// Description: One function per grammar rule. Each rule consumes a prefix of
//              the token slice and returns the node it built together with
//              the remaining tokens; there is no shared cursor. Nesting is
//              bounded so pathological input fails with a NestingError
//              instead of exhausting the stack.
// Author: msto63
// Version: v0.2.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial grammar implementation
// - 2026-10-18 v0.2.0: Operator chains count toward the nesting limit

package parser

import (
	dsast "github.com/msto63/descent/foundation/lang/ast"
)

// grammar holds the nesting limit; it is immutable and safe to share
type grammar struct {
	maxDepth int
}

var defaultGrammar = grammar{maxDepth: DefaultMaxDepth}

type rule func(g grammar, tokens []Token, depth int) (dsast.Node, []Token, error)

// enter accounts for one level of nesting
func (g grammar) enter(tokens []Token, depth int) (int, error) {
	depth++
	if depth > g.maxDepth {
		return depth, &NestingError{Limit: g.maxDepth, Token: tokens[0]}
	}
	return depth, nil
}

func expect(tokens []Token, tag Tag) ([]Token, error) {
	if tokens[0].Tag != tag {
		return nil, unexpected(tokens[0], "missing "+string(tag), tag)
	}
	return tokens[1:], nil
}

func isOneOf(tag Tag, tags ...Tag) bool {
	for _, t := range tags {
		if tag == t {
			return true
		}
	}
	return false
}

// simple_expression = number | identifier | "(" expression ")" | "-" simple_expression
func (g grammar) simpleExpression(tokens []Token, depth int) (dsast.Node, []Token, error) {
	t := tokens[0]
	switch t.Tag {
	case TagNumber:
		return &dsast.Number{Value: t.Value, Pos: t.Position}, tokens[1:], nil

	case TagIdentifier:
		return &dsast.Identifier{Name: t.Lexeme(), Pos: t.Position}, tokens[1:], nil

	case TagLParen:
		node, rest, err := g.expression(tokens[1:], depth)
		if err != nil {
			return nil, nil, err
		}
		if rest, err = expect(rest, TagRParen); err != nil {
			return nil, nil, err
		}
		return node, rest, nil

	case TagMinus:
		depth, err := g.enter(tokens, depth)
		if err != nil {
			return nil, nil, err
		}
		operand, rest, err := g.simpleExpression(tokens[1:], depth)
		if err != nil {
			return nil, nil, err
		}
		return &dsast.Negate{Operand: operand, Pos: t.Position}, rest, nil
	}

	return nil, nil, unexpected(t, "unexpected token", TagNumber, TagIdentifier, TagLParen, TagMinus)
}

// factor = simple_expression
func (g grammar) factor(tokens []Token, depth int) (dsast.Node, []Token, error) {
	return g.simpleExpression(tokens, depth)
}

// binaryLoop folds operand { op operand } to the left. Every fold deepens
// the tree by one level, so each operator counts toward the nesting limit.
func (g grammar) binaryLoop(tokens []Token, depth int, operand rule, ops ...Tag) (dsast.Node, []Token, error) {
	node, rest, err := operand(g, tokens, depth)
	if err != nil {
		return nil, nil, err
	}
	for isOneOf(rest[0].Tag, ops...) {
		op := rest[0]
		if depth, err = g.enter(rest, depth); err != nil {
			return nil, nil, err
		}
		right, next, err := operand(g, rest[1:], depth)
		if err != nil {
			return nil, nil, err
		}
		node = &dsast.Binary{Op: string(op.Tag), Left: node, Right: right, Pos: op.Position}
		rest = next
	}
	return node, rest, nil
}

// term = factor { ("*" | "/") factor }
func (g grammar) term(tokens []Token, depth int) (dsast.Node, []Token, error) {
	return g.binaryLoop(tokens, depth, grammar.factor, TagStar, TagSlash)
}

// math_expression = term { ("+" | "-") term }
func (g grammar) mathExpression(tokens []Token, depth int) (dsast.Node, []Token, error) {
	return g.binaryLoop(tokens, depth, grammar.term, TagPlus, TagMinus)
}

// relational_expression = math_expression { relop math_expression }
func (g grammar) relationalExpression(tokens []Token, depth int) (dsast.Node, []Token, error) {
	return g.binaryLoop(tokens, depth, grammar.mathExpression,
		TagLess, TagGreater, TagLessEqual, TagGreaterEqual, TagEqualEqual, TagNotEqual)
}

// logical_factor = relational_expression | "!" logical_factor
func (g grammar) logicalFactor(tokens []Token, depth int) (dsast.Node, []Token, error) {
	if tokens[0].Tag != TagBang {
		return g.relationalExpression(tokens, depth)
	}

	depth, err := g.enter(tokens, depth)
	if err != nil {
		return nil, nil, err
	}
	operand, rest, err := g.logicalFactor(tokens[1:], depth)
	if err != nil {
		return nil, nil, err
	}
	return &dsast.Not{Operand: operand, Pos: tokens[0].Position}, rest, nil
}

// logical_term = logical_factor { "&&" logical_factor }
func (g grammar) logicalTerm(tokens []Token, depth int) (dsast.Node, []Token, error) {
	return g.binaryLoop(tokens, depth, grammar.logicalFactor, TagAnd)
}

// logical_expression = logical_term { "||" logical_term }
func (g grammar) logicalExpression(tokens []Token, depth int) (dsast.Node, []Token, error) {
	return g.binaryLoop(tokens, depth, grammar.logicalTerm, TagOr)
}

// expression = logical_expression [ "=" math_expression ]
func (g grammar) expression(tokens []Token, depth int) (dsast.Node, []Token, error) {
	depth, err := g.enter(tokens, depth)
	if err != nil {
		return nil, nil, err
	}

	node, rest, err := g.logicalExpression(tokens, depth)
	if err != nil {
		return nil, nil, err
	}
	if rest[0].Tag != TagAssign {
		return node, rest, nil
	}

	eq := rest[0]
	value, rest, err := g.mathExpression(rest[1:], depth)
	if err != nil {
		return nil, nil, err
	}
	return &dsast.Assign{Target: node, Value: value, Pos: eq.Position}, rest, nil
}

// expression_list = "(" [ expression { "," expression } ] ")"
func (g grammar) expressionList(tokens []Token, depth int) ([]dsast.Node, []Token, error) {
	rest, err := expect(tokens, TagLParen)
	if err != nil {
		return nil, nil, err
	}

	list := make([]dsast.Node, 0)
	if rest[0].Tag == TagRParen {
		return list, rest[1:], nil
	}

	for {
		var node dsast.Node
		node, rest, err = g.expression(rest, depth)
		if err != nil {
			return nil, nil, err
		}
		list = append(list, node)

		switch rest[0].Tag {
		case TagComma:
			rest = rest[1:]
		case TagRParen:
			return list, rest[1:], nil
		default:
			return nil, nil, unexpected(rest[0], "unterminated expression list", TagComma, TagRParen)
		}
	}
}

// print_statement = "print" expression_list
func (g grammar) printStatement(tokens []Token, depth int) (dsast.Node, []Token, error) {
	rest, err := expect(tokens, TagPrint)
	if err != nil {
		return nil, nil, err
	}
	args, rest, err := g.expressionList(rest, depth)
	if err != nil {
		return nil, nil, err
	}
	return &dsast.Print{Arguments: args, Pos: tokens[0].Position}, rest, nil
}

// condition parses "(" expression ")" after an if or while keyword
func (g grammar) condition(tokens []Token, depth int) (dsast.Node, []Token, error) {
	rest, err := expect(tokens, TagLParen)
	if err != nil {
		return nil, nil, err
	}
	cond, rest, err := g.expression(rest, depth)
	if err != nil {
		return nil, nil, err
	}
	if rest, err = expect(rest, TagRParen); err != nil {
		return nil, nil, err
	}
	return cond, rest, nil
}

// if_statement = "if" "(" expression ")" statement [ "else" statement ]
func (g grammar) ifStatement(tokens []Token, depth int) (dsast.Node, []Token, error) {
	rest, err := expect(tokens, TagIf)
	if err != nil {
		return nil, nil, err
	}
	cond, rest, err := g.condition(rest, depth)
	if err != nil {
		return nil, nil, err
	}
	then, rest, err := g.statement(rest, depth)
	if err != nil {
		return nil, nil, err
	}

	node := &dsast.If{Condition: cond, Then: then, Pos: tokens[0].Position}
	if rest[0].Tag == TagElse {
		if node.Else, rest, err = g.statement(rest[1:], depth); err != nil {
			return nil, nil, err
		}
	}
	return node, rest, nil
}

// while_statement = "while" "(" expression ")" statement
func (g grammar) whileStatement(tokens []Token, depth int) (dsast.Node, []Token, error) {
	rest, err := expect(tokens, TagWhile)
	if err != nil {
		return nil, nil, err
	}
	cond, rest, err := g.condition(rest, depth)
	if err != nil {
		return nil, nil, err
	}
	body, rest, err := g.statement(rest, depth)
	if err != nil {
		return nil, nil, err
	}
	return &dsast.While{Condition: cond, Do: body, Pos: tokens[0].Position}, rest, nil
}

// block_statement = "{" {";"} [ statement { ";" {";"} statement } {";"} ] "}"
func (g grammar) blockStatement(tokens []Token, depth int) (dsast.Node, []Token, error) {
	rest, err := expect(tokens, TagLBrace)
	if err != nil {
		return nil, nil, err
	}

	block := &dsast.Block{Statements: make([]dsast.Node, 0), Pos: tokens[0].Position}
	for {
		for rest[0].Tag == TagSemicolon {
			rest = rest[1:]
		}
		if rest[0].Tag == TagRBrace {
			return block, rest[1:], nil
		}

		var stmt dsast.Node
		if stmt, rest, err = g.statement(rest, depth); err != nil {
			return nil, nil, err
		}
		block.Statements = append(block.Statements, stmt)

		if !isOneOf(rest[0].Tag, TagSemicolon, TagRBrace) {
			return nil, nil, unexpected(rest[0], "unexpected token after statement", TagSemicolon, TagRBrace)
		}
	}
}

// statement = if_statement | while_statement | print_statement | block_statement | expression
func (g grammar) statement(tokens []Token, depth int) (dsast.Node, []Token, error) {
	depth, err := g.enter(tokens, depth)
	if err != nil {
		return nil, nil, err
	}

	switch tokens[0].Tag {
	case TagIf:
		return g.ifStatement(tokens, depth)
	case TagWhile:
		return g.whileStatement(tokens, depth)
	case TagPrint:
		return g.printStatement(tokens, depth)
	case TagLBrace:
		return g.blockStatement(tokens, depth)
	}
	return g.expression(tokens, depth)
}

// program = statement
func (g grammar) program(tokens []Token, depth int) (dsast.Node, []Token, error) {
	return g.statement(tokens, depth)
}

// parse runs program and requires the remainder to be exactly the end sentinel
func (g grammar) parse(tokens []Token) (dsast.Node, error) {
	if err := checkTokens(tokens); err != nil {
		return nil, err
	}
	node, rest, err := g.program(tokens, 0)
	if err != nil {
		return nil, err
	}
	if len(rest) != 1 || rest[0].Tag != TagEnd {
		return nil, unexpected(rest[0], "unexpected token after program", TagEnd)
	}
	return node, nil
}

// checkTokens rejects slices that do not end with the end sentinel
func checkTokens(tokens []Token) error {
	if len(tokens) == 0 {
		return unexpected(Token{}, "empty token slice", TagEnd)
	}
	if last := tokens[len(tokens)-1]; last.Tag != TagEnd {
		return unexpected(last, "token slice does not end with end", TagEnd)
	}
	return nil
}

func (g grammar) run(tokens []Token, r rule) (dsast.Node, []Token, error) {
	if err := checkTokens(tokens); err != nil {
		return nil, nil, err
	}
	return r(g, tokens, 0)
}
