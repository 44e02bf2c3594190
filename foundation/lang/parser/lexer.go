// File: lexer.go
// Title: Pattern-Table Tokenizer
// Description: Implements the lexical analysis phase. Source text is scanned
//              against an ordered table of regular expressions compiled once
//              at package initialisation; the first pattern matching at the
//              current offset wins. The token slice always ends with an end
//              sentinel positioned at len(source).
// Author: msto63
// Version: v0.1.1
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial tokenizer implementation
// - 2026-10-18 v0.1.1: Distinct reason for float overflow

package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Tag classifies a token. Punctuation, operators and keywords use their
// lexeme as tag.
type Tag string

const (
	TagLParen       Tag = "("
	TagRParen       Tag = ")"
	TagLBrace       Tag = "{"
	TagRBrace       Tag = "}"
	TagComma        Tag = ","
	TagSemicolon    Tag = ";"
	TagStar         Tag = "*"
	TagSlash        Tag = "/"
	TagPlus         Tag = "+"
	TagMinus        Tag = "-"
	TagLess         Tag = "<"
	TagGreater      Tag = ">"
	TagLessEqual    Tag = "<="
	TagGreaterEqual Tag = ">="
	TagEqualEqual   Tag = "=="
	TagNotEqual     Tag = "!="
	TagBang         Tag = "!"
	TagAnd          Tag = "&&"
	TagOr           Tag = "||"
	TagAssign       Tag = "="

	// Keywords
	TagIf    Tag = "if"
	TagElse  Tag = "else"
	TagWhile Tag = "while"
	TagPrint Tag = "print"

	TagIdentifier Tag = "identifier"
	TagNumber     Tag = "number"
	TagEnd        Tag = "end"
)

// Token represents a single lexical unit
type Token struct {
	Tag Tag
	// Value is the lexeme for punctuation, keywords and identifiers, an int64
	// or float64 for numbers and "" for the end sentinel.
	Value    interface{}
	Position int
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Tag {
	case TagEnd:
		return fmt.Sprintf("end@%d", t.Position)
	case TagNumber, TagIdentifier:
		return fmt.Sprintf("%s(%v)@%d", t.Tag, t.Value, t.Position)
	default:
		return fmt.Sprintf("%q@%d", string(t.Tag), t.Position)
	}
}

// Lexeme returns the token's value formatted as source text
func (t Token) Lexeme() string {
	switch v := t.Value.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// Pattern kinds that do not map the lexeme straight onto the tag
const (
	tagSkip   Tag = ""
	tagLexeme Tag = "<lexeme>"
)

type pattern struct {
	re  *regexp.Regexp
	tag Tag
}

// patterns is the ordered scanning table. Order matters: two-character
// operators precede their one-character prefixes, and keywords precede
// identifiers.
var patterns = compilePatterns([]struct {
	expr string
	tag  Tag
}{
	{`\s+`, tagSkip},
	{`<=|>=|==|!=|&&|\|\|`, tagLexeme},
	{`[(){},;*/+\-<>=!]`, tagLexeme},
	{`\d+\.\d+|\d+\.|\.\d+|\d+`, TagNumber},
	{`(?:if|else|while|print)\b`, tagLexeme},
	{`[A-Za-z_][A-Za-z0-9_]*`, TagIdentifier},
})

func compilePatterns(table []struct {
	expr string
	tag  Tag
}) []pattern {
	compiled := make([]pattern, len(table))
	for i, entry := range table {
		compiled[i] = pattern{
			re:  regexp.MustCompile(`^(?:` + entry.expr + `)`),
			tag: entry.tag,
		}
	}
	return compiled
}

// Tokenize breaks source into tokens terminated by an end sentinel.
// It fails with a *LexError at the first offset no pattern matches.
func Tokenize(source string) ([]Token, error) {
	tokens := make([]Token, 0, len(source)/2+1)
	position := 0

	for position < len(source) {
		rest := source[position:]

		matched := false
		for _, p := range patterns {
			loc := p.re.FindStringIndex(rest)
			if loc == nil || loc[1] == 0 {
				continue
			}
			matched = true

			lexeme := rest[:loc[1]]
			switch p.tag {
			case tagSkip:
			case tagLexeme:
				tokens = append(tokens, Token{Tag: Tag(lexeme), Value: lexeme, Position: position})
			case TagNumber:
				value, err := numberValue(lexeme, position)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, Token{Tag: TagNumber, Value: value, Position: position})
			default:
				tokens = append(tokens, Token{Tag: p.tag, Value: lexeme, Position: position})
			}

			position += loc[1]
			break
		}

		if !matched {
			char, _ := utf8.DecodeRuneInString(rest)
			return nil, &LexError{Position: position, Char: char, Reason: "unexpected character"}
		}
	}

	tokens = append(tokens, Token{Tag: TagEnd, Value: "", Position: len(source)})
	return tokens, nil
}

// numberValue converts a number lexeme: int64 without a '.', float64 with one.
// Literals beyond the float64 range are rejected rather than becoming ±Inf,
// which JSON cannot carry.
func numberValue(lexeme string, position int) (interface{}, error) {
	if strings.Contains(lexeme, ".") {
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return nil, &LexError{Position: position, Char: rune(lexeme[0]), Reason: "float literal out of range"}
		}
		return f, nil
	}

	i, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return nil, &LexError{Position: position, Char: rune(lexeme[0]), Reason: "integer literal out of range"}
	}
	return i, nil
}
