package expr

import (
	"strconv"
	"strings"
)

// Functions accepted in call position, by lowercase name, mapped to their
// permitted argument counts (min, max; max < 0 means unbounded). The
// whitelist is deliberately closed: equations are authored by technicians
// and every accepted construct must be enumerable.
var allowedFunctions = map[string]struct{ minArgs, maxArgs int }{
	"abs": {1, 1},
	"min": {2, -1},
	"max": {2, -1},
}

type node interface {
	eval(bindings map[string]float64) (float64, error)
	collectVars(seen map[string]struct{}, order *[]string)
}

type numberNode struct {
	value float64
}

type variableNode struct {
	name string
}

type unaryNode struct {
	op      tokenKind
	operand node
}

type binaryNode struct {
	op    tokenKind
	left  node
	right node
}

type callNode struct {
	fn   string
	args []node
}

// Expr is a parsed, grammar-verified expression. It carries no evaluation
// state; the same Expr may be evaluated any number of times against
// different binding maps.
type Expr struct {
	src  string
	root node
}

// Source returns the original expression text.
func (e *Expr) Source() string {
	return e.src
}

// FreeVariables returns the distinct identifiers referenced by the
// expression, in first-occurrence order. Function names are not variables.
func (e *Expr) FreeVariables() []string {
	seen := make(map[string]struct{})
	var order []string
	e.root.collectVars(seen, &order)
	return order
}

// Parse turns an expression string into a verified syntax tree. The grammar
// is operator-precedence arithmetic: decimal literals, identifiers,
// + - * / ^ (power, right-associative), unary minus, parentheses and calls
// to the whitelisted functions ABS, MIN and MAX (case-insensitive). Any
// construct outside that grammar is rejected here, never at evaluation time.
func Parse(src string) (*Expr, error) {
	tokens, err := lexAll(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, tokens: tokens}
	root, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, newParseError(src, tok.pos, "unexpected %q after expression", tok.text)
	}
	return &Expr{src: src, root: root}, nil
}

// Precedence levels, low to high. Unary minus sits below power so that
// -x^2 parses as -(x^2), matching spreadsheet and textbook convention.
const (
	precLowest = iota
	precAdditive
	precMultiplicative
	precUnary
	precPower
)

type parser struct {
	src    string
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func binaryPrecedence(kind tokenKind) int {
	switch kind {
	case tokenPlus, tokenMinus:
		return precAdditive
	case tokenStar, tokenSlash:
		return precMultiplicative
	case tokenCaret:
		return precPower
	default:
		return precLowest
	}
}

func (p *parser) parseExpr(minPrec int) (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		prec := binaryPrecedence(tok.kind)
		if prec == precLowest || prec < minPrec {
			return left, nil
		}
		p.advance()

		// ^ is right-associative; everything else is left-associative.
		nextMin := prec + 1
		if tok.kind == tokenCaret {
			nextMin = prec
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.kind, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenMinus:
		p.advance()
		operand, err := p.parseExpr(precUnary)
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: tokenMinus, operand: operand}, nil
	case tokenPlus:
		p.advance()
		return p.parseExpr(precUnary)
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.advance()
	switch tok.kind {
	case tokenNumber:
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, newParseError(p.src, tok.pos, "malformed number %q", tok.text)
		}
		return &numberNode{value: value}, nil

	case tokenIdent:
		if p.peek().kind == tokenLeftParen {
			return p.parseCall(tok)
		}
		return &variableNode{name: tok.text}, nil

	case tokenLeftParen:
		inner, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		closing := p.advance()
		if closing.kind != tokenRightParen {
			return nil, newParseError(p.src, closing.pos, "expected closing parenthesis")
		}
		return inner, nil

	case tokenLeftBracket:
		return nil, newParseError(p.src, tok.pos, "list literals are only allowed inside PLOT")

	case tokenEOF:
		return nil, newParseError(p.src, tok.pos, "unexpected end of expression")

	default:
		return nil, newParseError(p.src, tok.pos, "unexpected %q", tok.text)
	}
}

func (p *parser) parseCall(name token) (node, error) {
	fn := strings.ToLower(name.text)
	sig, ok := allowedFunctions[fn]
	if !ok {
		return nil, newParseError(p.src, name.pos, "function %q is not allowed; permitted functions are ABS, MIN and MAX", name.text)
	}

	p.advance() // consume '('
	var args []node
	if p.peek().kind == tokenRightParen {
		p.advance()
	} else {
		for {
			arg, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			sep := p.advance()
			if sep.kind == tokenRightParen {
				break
			}
			if sep.kind != tokenComma {
				return nil, newParseError(p.src, sep.pos, "expected ',' or ')' in %s argument list", strings.ToUpper(fn))
			}
		}
	}

	if len(args) < sig.minArgs || (sig.maxArgs >= 0 && len(args) > sig.maxArgs) {
		if sig.minArgs == sig.maxArgs {
			return nil, newParseError(p.src, name.pos, "%s takes exactly %d argument(s), got %d", strings.ToUpper(fn), sig.minArgs, len(args))
		}
		return nil, newParseError(p.src, name.pos, "%s takes at least %d arguments, got %d", strings.ToUpper(fn), sig.minArgs, len(args))
	}
	return &callNode{fn: fn, args: args}, nil
}

func (n *numberNode) collectVars(map[string]struct{}, *[]string) {}

func (n *variableNode) collectVars(seen map[string]struct{}, order *[]string) {
	if _, ok := seen[n.name]; ok {
		return
	}
	seen[n.name] = struct{}{}
	*order = append(*order, n.name)
}

func (n *unaryNode) collectVars(seen map[string]struct{}, order *[]string) {
	n.operand.collectVars(seen, order)
}

func (n *binaryNode) collectVars(seen map[string]struct{}, order *[]string) {
	n.left.collectVars(seen, order)
	n.right.collectVars(seen, order)
}

func (n *callNode) collectVars(seen map[string]struct{}, order *[]string) {
	for _, arg := range n.args {
		arg.collectVars(seen, order)
	}
}
