// File: parser.go
// Title: Descent Parser Front End
// Description: Exposes the grammar rules as package-level entry points and
//              provides the configured Parser used by the services. The
//              Parser enforces input limits, wraps typed front-end errors
//              into structured errors and logs each run.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial parser implementation

package parser

import (
	"errors"

	dserror "github.com/msto63/descent/foundation/core/error"
	dslog "github.com/msto63/descent/foundation/core/log"
	dsast "github.com/msto63/descent/foundation/lang/ast"
)

const (
	// DefaultMaxDepth bounds recursion through nested expressions and statements
	DefaultMaxDepth = 256

	// DefaultMaxInputLength bounds the source size accepted by Parser
	DefaultMaxInputLength = 1 << 20
)

// Parse parses a complete program. The remainder after the program must be
// exactly the end sentinel.
func Parse(tokens []Token) (dsast.Node, error) {
	return defaultGrammar.parse(tokens)
}

// ParseSimpleExpression parses number | identifier | "(" expression ")" | "-" simple_expression
func ParseSimpleExpression(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.simpleExpression)
}

// ParseFactor parses a factor
func ParseFactor(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.factor)
}

// ParseTerm parses factor { ("*" | "/") factor }
func ParseTerm(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.term)
}

// ParseMathExpression parses term { ("+" | "-") term }
func ParseMathExpression(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.mathExpression)
}

// ParseRelationalExpression parses math_expression { relop math_expression }
func ParseRelationalExpression(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.relationalExpression)
}

// ParseLogicalFactor parses relational_expression | "!" logical_factor
func ParseLogicalFactor(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.logicalFactor)
}

// ParseLogicalTerm parses logical_factor { "&&" logical_factor }
func ParseLogicalTerm(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.logicalTerm)
}

// ParseLogicalExpression parses logical_term { "||" logical_term }
func ParseLogicalExpression(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.logicalExpression)
}

// ParseExpression parses logical_expression [ "=" math_expression ]
func ParseExpression(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.expression)
}

// ParseExpressionList parses "(" [ expression { "," expression } ] ")".
// An empty list yields an empty, non-nil slice.
func ParseExpressionList(tokens []Token) ([]dsast.Node, []Token, error) {
	if err := checkTokens(tokens); err != nil {
		return nil, nil, err
	}
	return defaultGrammar.expressionList(tokens, 0)
}

// ParsePrintStatement parses "print" expression_list
func ParsePrintStatement(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.printStatement)
}

// ParseIfStatement parses "if" "(" expression ")" statement [ "else" statement ]
func ParseIfStatement(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.ifStatement)
}

// ParseWhileStatement parses "while" "(" expression ")" statement
func ParseWhileStatement(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.whileStatement)
}

// ParseBlockStatement parses "{" statements separated by ";" "}"
func ParseBlockStatement(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.blockStatement)
}

// ParseStatement parses any statement
func ParseStatement(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.statement)
}

// ParseProgram parses a program without checking what follows it
func ParseProgram(tokens []Token) (dsast.Node, []Token, error) {
	return defaultGrammar.run(tokens, grammar.program)
}

// Parser is the configured front end used by the services
type Parser struct {
	logger  *dslog.Logger
	options Options
	grammar grammar
}

// Options configures parser behavior
type Options struct {
	Logger         *dslog.Logger
	MaxInputLength int
	MaxDepth       int
}

// New creates a new Parser with the given options
func New(opts Options) (*Parser, error) {
	if opts.MaxInputLength < 0 || opts.MaxDepth < 0 {
		return nil, dserror.New("limits must not be negative").
			WithCode(dserror.CodeInvalidConfig).
			WithOperation("parser.New").
			WithDetail("max_input_length", opts.MaxInputLength).
			WithDetail("max_depth", opts.MaxDepth)
	}

	// Set defaults
	if opts.Logger == nil {
		opts.Logger = dslog.GetDefault()
	}
	if opts.MaxInputLength == 0 {
		opts.MaxInputLength = DefaultMaxInputLength
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	return &Parser{
		logger:  opts.Logger.WithField("component", "lang-parser"),
		options: opts,
		grammar: grammar{maxDepth: opts.MaxDepth},
	}, nil
}

// Options returns the effective options
func (p *Parser) Options() Options {
	return p.options
}

// Tokenize tokenizes source after checking the input limit
func (p *Parser) Tokenize(source string) ([]Token, error) {
	if len(source) > p.options.MaxInputLength {
		return nil, dserror.Newf("input exceeds maximum length: %d > %d",
			len(source), p.options.MaxInputLength).
			WithCode(dserror.CodeInputTooLarge).
			WithOperation("tokenize").
			WithDetail("length", len(source)).
			WithDetail("max_length", p.options.MaxInputLength)
	}

	tokens, err := Tokenize(source)
	if err != nil {
		return nil, wrapError(err, "tokenize")
	}
	return tokens, nil
}

// Parse tokenizes and parses source into a tree
func (p *Parser) Parse(source string) (dsast.Node, error) {
	_, node, err := p.Analyze(source)
	return node, err
}

// ParseTokens parses an already tokenized program
func (p *Parser) ParseTokens(tokens []Token) (dsast.Node, error) {
	node, err := p.grammar.parse(tokens)
	if err != nil {
		return nil, wrapError(err, "parse")
	}
	return node, nil
}

// Analyze tokenizes and parses source, returning both stages. On a parse
// failure the tokens are still returned.
func (p *Parser) Analyze(source string) ([]Token, dsast.Node, error) {
	p.logger.Debug("Starting parse", dslog.Fields{
		"length": len(source),
	})
	timer := p.logger.StartTimer("parse").WithField("length", len(source))

	// rejected programs are logged by severity, which is info for
	// language errors
	tokens, err := p.Tokenize(source)
	if err != nil {
		p.logger.LogError(err)
		return nil, nil, err
	}

	node, err := p.ParseTokens(tokens)
	if err != nil {
		p.logger.LogError(err)
		return tokens, nil, err
	}

	timer.WithField("tokens", len(tokens)).
		WithField("nodes", dsast.Count(node)).
		WithField("depth", dsast.Depth(node)).
		Stop()
	return tokens, node, nil
}

// wrapError converts a typed front-end error into a structured error that
// still unwraps to the original.
func wrapError(err error, operation string) error {
	var coded interface{ Code() dserror.Code }
	code := dserror.CodeInternal
	if errors.As(err, &coded) {
		code = coded.Code()
	}

	wrapped := dserror.Wrap(err, operation+" failed").
		WithCode(code).
		WithOperation(operation)

	var lexErr *LexError
	var parseErr *ParseError
	var nestErr *NestingError
	switch {
	case errors.As(err, &lexErr):
		wrapped = wrapped.WithDetail("position", lexErr.Position).
			WithDetail("char", string(lexErr.Char))
	case errors.As(err, &parseErr):
		expected := make([]string, len(parseErr.Expected))
		for i, tag := range parseErr.Expected {
			expected[i] = string(tag)
		}
		wrapped = wrapped.WithDetail("position", parseErr.Actual.Position).
			WithDetail("expected", expected).
			WithDetail("actual", string(parseErr.Actual.Tag))
	case errors.As(err, &nestErr):
		wrapped = wrapped.WithDetail("position", nestErr.Token.Position).
			WithDetail("limit", nestErr.Limit)
	}
	return wrapped
}
