package record

import (
	"fmt"
	"math"
	"strconv"

	"github.com/caltrack/caltrack/internal/domain/template"
	"github.com/caltrack/caltrack/internal/expr"
)

// EvaluateComputed derives a computed field's numeric value from its
// referenced sibling values in the binding map. The calc types are a closed
// enumeration evaluated directly, with no parsing step. A missing reference
// binding or a zero denominator is a hard error, mirroring the expression
// evaluator's taxonomy.
func EvaluateComputed(spec template.CalcSpec, bindings map[string]float64) (float64, error) {
	resolve := func(name string) (float64, error) {
		value, ok := bindings[name]
		if !ok {
			return 0, &expr.EvalError{Kind: expr.ErrKindUnboundVariable, Variable: name}
		}
		return value, nil
	}

	switch spec.Type {
	case template.CalcAbsDiff:
		a, err := resolve(spec.Refs[0])
		if err != nil {
			return 0, err
		}
		b, err := resolve(spec.Refs[1])
		if err != nil {
			return 0, err
		}
		return math.Abs(a - b), nil

	case template.CalcPctError:
		measured, err := resolve(spec.Refs[0])
		if err != nil {
			return 0, err
		}
		reference, err := resolve(spec.Refs[1])
		if err != nil {
			return 0, err
		}
		if reference == 0 {
			return 0, &expr.EvalError{Kind: expr.ErrKindDivisionByZero}
		}
		return math.Abs(measured-reference) / math.Abs(reference) * 100, nil

	case template.CalcPctDiff:
		a, err := resolve(spec.Refs[0])
		if err != nil {
			return 0, err
		}
		b, err := resolve(spec.Refs[1])
		if err != nil {
			return 0, err
		}
		mean := (math.Abs(a) + math.Abs(b)) / 2
		if mean == 0 {
			return 0, &expr.EvalError{Kind: expr.ErrKindDivisionByZero}
		}
		return math.Abs(a-b) / mean * 100, nil

	case template.CalcMinOf, template.CalcMaxOf, template.CalcRangeOf:
		values := make([]float64, 0, len(spec.Refs))
		for _, ref := range spec.Refs {
			v, err := resolve(ref)
			if err != nil {
				return 0, err
			}
			values = append(values, v)
		}
		low, high := values[0], values[0]
		for _, v := range values[1:] {
			low = math.Min(low, v)
			high = math.Max(high, v)
		}
		switch spec.Type {
		case template.CalcMinOf:
			return low, nil
		case template.CalcMaxOf:
			return high, nil
		default:
			return high - low, nil
		}

	case template.CalcNone:
		return 0, fmt.Errorf("field has no calc specification")

	default:
		return 0, fmt.Errorf("unknown calc type %q", string(spec.Type))
	}
}

// FormatValue renders a computed value for display with the given number of
// significant figures. Zero or negative sigFigs uses the default of 3.
// Exactly zero renders as "0" regardless of precision.
func FormatValue(value float64, sigFigs int) string {
	if value == 0 {
		return "0"
	}
	if sigFigs <= 0 {
		sigFigs = 3
	}
	return strconv.FormatFloat(value, 'g', sigFigs, 64)
}
