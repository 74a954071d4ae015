// Package formula evaluates user-supplied KPI arithmetic expressions.
//
// The evaluator is deliberately closed: after tag substitution the
// expression may contain only decimal literals and + - * / ( ).
// There is no symbol table and no function call syntax, so a formula
// string can never reach anything beyond arithmetic on the
// substituted numbers. Every failure degrades to 0.
package formula

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/factory-dashboard/backend/internal/models"
)

// Evaluate substitutes tag values into a formula and computes it.
//
// Substitution order: positional placeholders T1..Tn first (highest
// index first so T12 is not clobbered by T1), then literal display
// names longest-first. Tags that are missing or non-numeric
// substitute as 0. Any parse or evaluation failure, or a non-finite
// result, yields 0; the caller never sees an error.
func Evaluate(formula string, tagIDs []models.TagID, names map[models.TagID]string, values map[models.TagID]float64) float64 {
	expr := Substitute(formula, tagIDs, names, values)

	node, err := Parse(expr)
	if err != nil {
		return 0
	}

	result := node.eval()
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0
	}
	return result
}

// Substitute replaces T1..Tn placeholders and tag display names with
// numeric values, returning the raw arithmetic expression.
func Substitute(formula string, tagIDs []models.TagID, names map[models.TagID]string, values map[models.TagID]float64) string {
	expr := formula

	for i := len(tagIDs); i >= 1; i-- {
		id := models.NormalizeTagID(tagIDs[i-1])
		placeholder := fmt.Sprintf("T%d", i)
		expr = strings.ReplaceAll(expr, placeholder, formatValue(values[id]))
	}

	// Display names longest-first so "Tank Level 10" wins over "Tank Level".
	type named struct {
		name string
		id   models.TagID
	}
	byLen := make([]named, 0, len(tagIDs))
	for _, raw := range tagIDs {
		id := models.NormalizeTagID(raw)
		if name := names[id]; name != "" {
			byLen = append(byLen, named{name: name, id: id})
		}
	}
	sort.SliceStable(byLen, func(i, j int) bool {
		return len(byLen[i].name) > len(byLen[j].name)
	})
	for _, n := range byLen {
		expr = strings.ReplaceAll(expr, n.name, formatValue(values[n.id]))
	}

	return expr
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// node is one AST node: a literal or a binary operation.
type node struct {
	op    byte // 0 for literal
	value float64
	left  *node
	right *node
}

func (n *node) eval() float64 {
	if n.op == 0 {
		return n.value
	}
	l, r := n.left.eval(), n.right.eval()
	switch n.op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	default:
		return l / r // non-finite results are caught by Evaluate
	}
}

// Parse tokenizes and parses a raw arithmetic expression into an AST.
// Grammar:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("+" | "-") unary | primary
//	primary = number | "(" expr ")"
func Parse(expr string) (*node, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected token %q", p.tokens[p.pos].text)
	}
	return n, nil
}

type token struct {
	kind byte // 'n' for number, else the operator/paren itself
	text string
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '(' || c == ')':
			tokens = append(tokens, token{kind: c, text: string(c)})
			i++
		case (c >= '0' && c <= '9') || c == '.':
			start := i
			for i < len(expr) && ((expr[i] >= '0' && expr[i] <= '9') || expr[i] == '.') {
				i++
			}
			tokens = append(tokens, token{kind: 'n', text: expr[start:i]})
		default:
			return nil, fmt.Errorf("illegal character %q", c)
		}
	}
	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseExpr() (*node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || (tok.kind != '+' && tok.kind != '-') {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &node{op: tok.kind, left: left, right: right}
	}
}

func (p *parser) parseTerm() (*node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || (tok.kind != '*' && tok.kind != '/') {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &node{op: tok.kind, left: left, right: right}
	}
}

func (p *parser) parseUnary() (*node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	if tok.kind == '-' || tok.kind == '+' {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if tok.kind == '-' {
			return &node{op: '-', left: &node{value: 0}, right: operand}, nil
		}
		return operand, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch tok.kind {
	case 'n':
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", tok.text)
		}
		p.pos++
		return &node{value: v}, nil
	case '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		tok, ok := p.peek()
		if !ok || tok.kind != ')' {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	default:
		return nil, fmt.Errorf("unexpected token %q", tok.text)
	}
}
