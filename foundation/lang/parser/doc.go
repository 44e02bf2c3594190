// File: doc.go
// Title: Package Documentation for Parser
// Description: Package parser implements the tokenizer and the recursive
//              descent parser of the descent language.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial package documentation

// Package parser turns descent source text into an abstract syntax tree.
//
// Processing happens in two stages. Tokenize scans the text against an
// ordered pattern table and returns tokens ending in an end sentinel; Parse
// runs the grammar over the token slice:
//
//	tokens, err := parser.Tokenize("{ x = 1; while (x < 10) x = x + 1 }")
//	if err != nil {
//		// *parser.LexError
//	}
//	tree, err := parser.Parse(tokens)
//	if err != nil {
//		// *parser.ParseError or *parser.NestingError
//	}
//
// Grammar, lowest precedence first:
//
//	program            = statement
//	statement          = if_statement | while_statement | print_statement
//	                   | block_statement | expression
//	block_statement    = "{" {";"} [ statement { ";" {";"} statement } {";"} ] "}"
//	while_statement    = "while" "(" expression ")" statement
//	if_statement       = "if" "(" expression ")" statement [ "else" statement ]
//	print_statement    = "print" expression_list
//	expression_list    = "(" [ expression { "," expression } ] ")"
//	expression         = logical_expression [ "=" math_expression ]
//	logical_expression = logical_term { "||" logical_term }
//	logical_term       = logical_factor { "&&" logical_factor }
//	logical_factor     = relational_expression | "!" logical_factor
//	relational_expr    = math_expression { ("<"|">"|"<="|">="|"=="|"!=") math_expression }
//	math_expression    = term { ("+"|"-") term }
//	term               = factor { ("*"|"/") factor }
//	factor             = simple_expression
//	simple_expression  = number | identifier | "(" expression ")" | "-" simple_expression
//
// Every rule is also exported (ParseTerm, ParseBlockStatement, ...). A rule
// takes a token slice and returns the node it built plus the unconsumed
// tokens, so rules can be tested in isolation.
//
// The Parser type wraps the same grammar with input limits, a configurable
// nesting depth and logging; its errors are structured errors from
// foundation/core/error that unwrap to the typed errors above.
package parser
