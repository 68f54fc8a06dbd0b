package expr

import "strings"

// maxPlotVariables caps the combined x and y series length. Report charts
// render at most six points per series.
const maxPlotVariables = 12

// Plot is a parsed PLOT([x1, x2, ...], [y1, y2, ...]) expression: a pair of
// equal-length variable-name series selected from the binding map. Plot
// reuses the expression lexer and shares its safety boundary; the only
// additional syntax it admits over Parse is the two bracketed name lists.
type Plot struct {
	src    string
	XNames []string
	YNames []string
}

// Source returns the original plot expression text.
func (p *Plot) Source() string {
	return p.src
}

// FreeVariables returns every variable the plot references, x series first,
// in order, without duplicates.
func (p *Plot) FreeVariables() []string {
	seen := make(map[string]struct{}, len(p.XNames)+len(p.YNames))
	var order []string
	for _, name := range append(append([]string(nil), p.XNames...), p.YNames...) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}
	return order
}

// ParsePlot parses a plot expression of the exact form
// PLOT([x1, x2, ...], [y1, y2, ...]) where each list element is a variable
// name. Anything else is rejected.
func ParsePlot(src string) (*Plot, error) {
	tokens, err := lexAll(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, tokens: tokens}

	name := p.advance()
	if name.kind != tokenIdent || !strings.EqualFold(name.text, "plot") {
		return nil, newParseError(src, name.pos, "plot expression must be PLOT([x1, x2, ...], [y1, y2, ...])")
	}
	if open := p.advance(); open.kind != tokenLeftParen {
		return nil, newParseError(src, open.pos, "expected '(' after PLOT")
	}
	xNames, err := p.parseNameList()
	if err != nil {
		return nil, err
	}
	if sep := p.advance(); sep.kind != tokenComma {
		return nil, newParseError(src, sep.pos, "PLOT requires two lists: [x values], [y values]")
	}
	yNames, err := p.parseNameList()
	if err != nil {
		return nil, err
	}
	if closing := p.advance(); closing.kind != tokenRightParen {
		return nil, newParseError(src, closing.pos, "expected ')' to close PLOT")
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, newParseError(src, tok.pos, "unexpected %q after PLOT expression", tok.text)
	}

	if len(xNames) != len(yNames) {
		return nil, newParseError(src, 0, "PLOT x and y lists must have the same length")
	}
	total := len(xNames) + len(yNames)
	if total == 0 {
		return nil, newParseError(src, 0, "PLOT must name at least one point")
	}
	if total > maxPlotVariables {
		return nil, newParseError(src, 0, "PLOT allows at most %d variables total, got %d", maxPlotVariables, total)
	}
	return &Plot{src: src, XNames: xNames, YNames: yNames}, nil
}

// Evaluate resolves both series against the binding map. Every named
// variable must be bound.
func (p *Plot) Evaluate(bindings map[string]float64) (xs, ys []float64, err error) {
	resolve := func(names []string) ([]float64, error) {
		values := make([]float64, len(names))
		for i, name := range names {
			value, ok := bindings[name]
			if !ok {
				return nil, &EvalError{Kind: ErrKindUnboundVariable, Variable: name}
			}
			values[i] = value
		}
		return values, nil
	}
	if xs, err = resolve(p.XNames); err != nil {
		return nil, nil, err
	}
	if ys, err = resolve(p.YNames); err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}

func (p *parser) parseNameList() ([]string, error) {
	open := p.advance()
	if open.kind != tokenLeftBracket {
		return nil, newParseError(p.src, open.pos, "PLOT arguments must be lists, e.g. PLOT([a, b], [c, d])")
	}
	var names []string
	if p.peek().kind == tokenRightBracket {
		p.advance()
		return names, nil
	}
	for {
		tok := p.advance()
		if tok.kind != tokenIdent {
			return nil, newParseError(p.src, tok.pos, "PLOT lists may contain only variable names")
		}
		names = append(names, tok.text)
		sep := p.advance()
		if sep.kind == tokenRightBracket {
			return names, nil
		}
		if sep.kind != tokenComma {
			return nil, newParseError(p.src, sep.pos, "expected ',' or ']' in PLOT list")
		}
	}
}
