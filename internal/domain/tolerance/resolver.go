// Package tolerance resolves a field's tolerance specification into a
// concrete bound and a pass/fail verdict. Resolution is pure: the same
// inputs always produce the same Result, including its explanation text,
// which is the audit-facing artifact restated on reports.
package tolerance

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/caltrack/caltrack/internal/domain/template"
	"github.com/caltrack/caltrack/internal/expr"
)

// Result is the outcome of resolving one tolerance check.
type Result struct {
	// Bound is the resolved tolerance value.
	Bound float64
	// Passed reports the verdict. Only meaningful when Checked is true.
	Passed bool
	// Checked is false when the spec carries no tolerance check at all.
	Checked bool
	// Explanation restates variant, bound, difference and verdict. It is
	// deterministic for identical inputs.
	Explanation string
	// Caution carries a non-blocking authoring warning, e.g. a negative
	// equation bound.
	Caution string
}

// NoMatchingRangeError reports that no lookup-table interval contains the
// nominal value.
type NoMatchingRangeError struct {
	Nominal float64
}

func (e *NoMatchingRangeError) Error() string {
	return fmt.Sprintf("no lookup range contains nominal %s", formatNumber(e.Nominal))
}

// IsNoMatchingRange reports whether err is a lookup-table miss.
func IsNoMatchingRange(err error) bool {
	var target *NoMatchingRangeError
	return errors.As(err, &target)
}

// Resolve produces the bound and verdict for one field. The binding map
// supplies any additional field values an equation may reference; nominal
// and reading are added to it (without mutating the caller's map) under
// their reserved names unless already present. Any evaluation failure
// propagates as an error, never as an implicit pass or fail.
func Resolve(spec template.ToleranceSpec, nominal, reading float64, bindings map[string]float64) (Result, error) {
	diff := math.Abs(reading - nominal)

	switch spec.Type {
	case template.ToleranceNone:
		return Result{Passed: true, Explanation: "No tolerance check"}, nil

	case template.ToleranceFixed:
		bound := spec.Fixed
		passed := diff <= bound
		return Result{
			Bound:       bound,
			Passed:      passed,
			Checked:     true,
			Explanation: fmt.Sprintf("Tolerance = %s; diff = %s → %s", formatNumber(bound), formatNumber(diff), verdict(passed)),
		}, nil

	case template.TolerancePercent:
		reference, err := resolveReference(spec.Reference, nominal, bindings)
		if err != nil {
			return Result{}, err
		}
		bound := math.Abs(reference) * spec.Percent / 100
		passed := diff <= bound
		return Result{
			Bound:   bound,
			Passed:  passed,
			Checked: true,
			Explanation: fmt.Sprintf(
				"Tolerance = %s%% of |%s| = %s; |reading − nominal| = %s → %s",
				formatNumber(spec.Percent), referenceName(spec.Reference), formatNumber(bound), formatNumber(diff), verdict(passed),
			),
		}, nil

	case template.ToleranceEquation:
		parsed, err := expr.Parse(spec.Equation)
		if err != nil {
			return Result{}, fmt.Errorf("tolerance equation: %w", err)
		}
		bound, err := parsed.Evaluate(withReserved(bindings, nominal, reading))
		if err != nil {
			return Result{}, fmt.Errorf("tolerance equation: %w", err)
		}
		passed := diff <= bound
		result := Result{
			Bound:   bound,
			Passed:  passed,
			Checked: true,
			Explanation: fmt.Sprintf(
				"Tolerance (from equation) = %s; |reading − nominal| = %s → %s",
				formatNumber(bound), formatNumber(diff), verdict(passed),
			),
		}
		if bound < 0 {
			result.Caution = "equation produced a negative tolerance bound; the field can only pass at exact equality"
		}
		return result, nil

	case template.ToleranceLookup:
		for _, entry := range spec.Lookup {
			if nominal < entry.Low || nominal > entry.High {
				continue
			}
			bound := math.Abs(entry.Tolerance)
			passed := diff <= bound
			return Result{
				Bound:   bound,
				Passed:  passed,
				Checked: true,
				Explanation: fmt.Sprintf(
					"Tolerance (from lookup) = %s; |reading − nominal| = %s → %s",
					formatNumber(bound), formatNumber(diff), verdict(passed),
				),
			}, nil
		}
		return Result{}, &NoMatchingRangeError{Nominal: nominal}

	case template.ToleranceBool:
		readingBool := reading != 0
		passed := readingBool == spec.PassWhenTrue
		return Result{
			Passed:  passed,
			Checked: true,
			Explanation: fmt.Sprintf(
				"Pass when value is %s; value is %s → %s",
				boolWord(spec.PassWhenTrue), boolWord(readingBool), verdict(passed),
			),
		}, nil

	default:
		return Result{}, fmt.Errorf("unknown tolerance type %q", string(spec.Type))
	}
}

// resolveReference resolves a percent tolerance's reference value. An empty
// or "nominal" reference uses the nominal argument; anything else must be
// bound.
func resolveReference(name string, nominal float64, bindings map[string]float64) (float64, error) {
	if name == "" || name == "nominal" {
		return nominal, nil
	}
	value, ok := bindings[name]
	if !ok {
		return 0, &expr.EvalError{Kind: expr.ErrKindUnboundVariable, Variable: name}
	}
	return value, nil
}

// withReserved returns a copy of bindings with nominal and reading set
// under their reserved names unless the caller already bound them.
func withReserved(bindings map[string]float64, nominal, reading float64) map[string]float64 {
	merged := make(map[string]float64, len(bindings)+2)
	for name, value := range bindings {
		merged[name] = value
	}
	if _, ok := merged["nominal"]; !ok {
		merged["nominal"] = nominal
	}
	if _, ok := merged["reading"]; !ok {
		merged["reading"] = reading
	}
	return merged
}

func referenceName(name string) string {
	if name == "" {
		return "nominal"
	}
	return name
}

func verdict(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func boolWord(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// formatNumber renders a float the same way on every run and locale.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
