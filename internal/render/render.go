// ============================================================================
// descent - Recursive-Descent Front End
// ============================================================================
//
// Package:     render
// Description: Terminal rendering of token streams, trees and errors
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	dsast "github.com/msto63/descent/foundation/lang/ast"
	"github.com/msto63/descent/foundation/lang/parser"
)

// Format selects how a tree is written
type Format string

const (
	FormatSExpr Format = "sexpr"
	FormatTree  Format = "tree"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported tree formats
var Formats = []Format{FormatSExpr, FormatTree, FormatJSON, FormatYAML}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want sexpr, tree, json or yaml)", name)
}

// Options controls rendering
type Options struct {
	// Plain disables all styling
	Plain bool
	// Positions shows source offsets
	Positions bool
	// Linked uses next-chained lists in JSON and YAML output
	Linked bool
}

// Renderer renders front-end results for terminals
type Renderer struct {
	opts Options
}

// New creates a new Renderer
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if r.opts.Plain {
		return text
	}
	return s.Render(text)
}

// Encode writes node in the given format
func (r *Renderer) Encode(node dsast.Node, format Format) (string, error) {
	switch format {
	case FormatSExpr:
		return dsast.ASTToString(node), nil
	case FormatTree:
		return r.Tree(node), nil
	case FormatJSON:
		data, err := json.MarshalIndent(r.export(node), "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(r.export(node))
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(data), "\n"), nil
	}
	return "", fmt.Errorf("unknown format %q", format)
}

func (r *Renderer) export(node dsast.Node) map[string]interface{} {
	return dsast.ToMap(node, dsast.ExportOptions{Positions: r.opts.Positions, Linked: r.opts.Linked})
}

// Tree draws node as an indented tree with box-drawing branches
func (r *Renderer) Tree(node dsast.Node) string {
	var b strings.Builder
	r.tree(&b, node, "", "", "")
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) tree(b *strings.Builder, node dsast.Node, label, prefix, childPrefix string) {
	b.WriteString(r.style(BranchStyle, prefix))
	if label != "" {
		b.WriteString(r.style(HelpStyle, label+": "))
	}
	b.WriteString(r.label(node))
	b.WriteString("\n")

	if node == nil {
		return
	}
	children := labelledChildren(node)
	for i, c := range children {
		branch, indent := "├── ", "│   "
		if i == len(children)-1 {
			branch, indent = "└── ", "    "
		}
		r.tree(b, c.node, c.label, childPrefix+branch, childPrefix+indent)
	}
}

func (r *Renderer) label(node dsast.Node) string {
	var text string
	switch n := node.(type) {
	case nil:
		return r.style(ErrorStyle, "<nil>")
	case *dsast.Number:
		text = r.style(LiteralStyle, n.Literal())
	case *dsast.Identifier:
		text = r.style(IdentifierStyle, n.Name)
	case *dsast.Binary, *dsast.Negate, *dsast.Not, *dsast.Assign:
		text = r.style(OperatorStyle, string(n.Tag()))
	default:
		text = r.style(StatementStyle, string(n.Tag()))
	}
	if r.opts.Positions {
		text += " " + r.style(PositionStyle, fmt.Sprintf("@%d", node.Position()))
	}
	return text
}

type labelled struct {
	label string
	node  dsast.Node
}

func labelledChildren(node dsast.Node) []labelled {
	switch n := node.(type) {
	case *dsast.Assign:
		return []labelled{{"target", n.Target}, {"value", n.Value}}
	case *dsast.If:
		out := []labelled{{"condition", n.Condition}, {"then", n.Then}}
		if n.Else != nil {
			out = append(out, labelled{"else", n.Else})
		}
		return out
	case *dsast.While:
		return []labelled{{"condition", n.Condition}, {"do", n.Do}}
	}

	var out []labelled
	for _, c := range dsast.Children(node) {
		out = append(out, labelled{node: c})
	}
	return out
}

// Tokens renders a token stream as an aligned table
func (r *Renderer) Tokens(tokens []parser.Token) string {
	rows := [][]string{{"POS", "TAG", "VALUE"}}
	for _, t := range tokens {
		value := t.Lexeme()
		switch t.Value.(type) {
		case int64:
			value += " (int)"
		case float64:
			value += " (float)"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", t.Position), string(t.Tag), value})
	}

	widths := make([]int, 3)
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, len(rows))
	for n, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			padded := cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if n == 0 {
				padded = r.style(TitleStyle, padded)
			}
			cells[i] = padded
		}
		lines[n] = strings.TrimRight(strings.Join(cells, "  "), " ")
	}
	return strings.Join(lines, "\n")
}

// Error renders an error message followed by the offending source line
// with a caret under offset position. A negative position omits the excerpt.
func (r *Renderer) Error(source, code, message string, position int) string {
	head := r.style(ErrorStyle, "error")
	if code != "" {
		head += " " + r.style(ErrorStyle, code)
	}
	out := head + ": " + message
	if position < 0 || position > len(source) {
		return out
	}

	line, column, text := locate(source, position)
	gutter := fmt.Sprintf("%d | ", line)
	out += "\n" + r.style(HelpStyle, gutter) + text
	out += "\n" + strings.Repeat(" ", len(gutter)+column) + r.style(CaretStyle, "^")
	return out
}

// tabWidth is the tab stop used when echoing source lines
const tabWidth = 4

// locate returns the 1-based line, 0-based display column and text of the
// line containing offset. Tabs are expanded so the caret lines up.
func locate(source string, offset int) (line, column int, text string) {
	start := strings.LastIndex(source[:offset], "\n") + 1
	end := strings.IndexByte(source[offset:], '\n')
	if end < 0 {
		end = len(source)
	} else {
		end += offset
	}
	line = strings.Count(source[:start], "\n") + 1
	column = len([]rune(expandTabs(source[start:offset])))
	return line, column, expandTabs(strings.TrimRight(source[start:end], "\r"))
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}
