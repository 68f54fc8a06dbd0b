package tolerance

import (
	"math"
	"strings"
	"testing"

	"github.com/caltrack/caltrack/internal/domain/template"
	"github.com/caltrack/caltrack/internal/expr"
)

func TestResolveFixed(t *testing.T) {
	t.Parallel()

	spec := template.ToleranceSpec{Type: template.ToleranceFixed, Fixed: 0.5}

	result, err := Resolve(spec, 10, 10.4, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !result.Passed {
		t.Errorf("reading 10.4 within ±0.5 of 10 should pass: %s", result.Explanation)
	}

	result, err = Resolve(spec, 10, 10.6, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Passed {
		t.Errorf("reading 10.6 outside ±0.5 of 10 should fail: %s", result.Explanation)
	}
	if !strings.Contains(result.Explanation, "FAIL") {
		t.Errorf("explanation must restate the verdict, got %q", result.Explanation)
	}
}

func TestResolvePercent(t *testing.T) {
	t.Parallel()

	spec := template.ToleranceSpec{Type: template.TolerancePercent, Percent: 2, Reference: "nominal"}
	result, err := Resolve(spec, 100, 101.5, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Bound != 2.0 {
		t.Errorf("bound = %v, want 2.0", result.Bound)
	}
	if !result.Passed {
		t.Errorf("diff 1.5 within bound 2.0 should pass: %s", result.Explanation)
	}

	// A negative reference still yields a positive bound.
	spec = template.ToleranceSpec{Type: template.TolerancePercent, Percent: 10, Reference: "span"}
	result, err = Resolve(spec, 0, 1, map[string]float64{"span": -50})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Bound != 5 {
		t.Errorf("bound = %v, want 5", result.Bound)
	}

	// Unknown reference is a hard error, never a zero-filled pass.
	spec = template.ToleranceSpec{Type: template.TolerancePercent, Percent: 10, Reference: "missing"}
	if _, err := Resolve(spec, 0, 1, nil); err == nil {
		t.Fatal("Resolve with unbound reference succeeded, want error")
	}
}

func TestResolveEquation(t *testing.T) {
	t.Parallel()

	spec := template.ToleranceSpec{Type: template.ToleranceEquation, Equation: "0.02 * abs(nominal)"}
	result, err := Resolve(spec, 100, 101.5, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Bound != 2.0 {
		t.Errorf("bound = %v, want 2.0", result.Bound)
	}
	if !result.Passed {
		t.Errorf("diff 1.5 within equation bound 2.0 should pass")
	}
	if result.Caution != "" {
		t.Errorf("unexpected caution: %q", result.Caution)
	}
}

func TestResolveEquationNegativeBound(t *testing.T) {
	t.Parallel()

	spec := template.ToleranceSpec{Type: template.ToleranceEquation, Equation: "-1"}
	result, err := Resolve(spec, 10, 10, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Passed {
		t.Error("diff 0 against bound -1 must fail")
	}
	if result.Caution == "" {
		t.Error("negative bound must surface a caution")
	}
}

func TestResolveEquationErrorsPropagate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		equation string
		bindings map[string]float64
		check    func(error) bool
	}{
		{
			name:     "division by zero",
			equation: "1 / span",
			bindings: map[string]float64{"span": 0},
			check:    expr.IsDivisionByZero,
		},
		{
			name:     "unbound variable",
			equation: "span * 0.01",
			bindings: nil,
			check: func(err error) bool {
				name, ok := expr.IsUnboundVariable(err)
				return ok && name == "span"
			},
		},
		{
			name:     "syntax error",
			equation: "nominal +",
			bindings: nil,
			check:    func(err error) bool { return err != nil },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			spec := template.ToleranceSpec{Type: template.ToleranceEquation, Equation: tc.equation}
			result, err := Resolve(spec, 10, 10, tc.bindings)
			if err == nil {
				t.Fatalf("Resolve succeeded with %+v, want error", result)
			}
			if !tc.check(err) {
				t.Errorf("error %v did not match expected classification", err)
			}
		})
	}
}

func TestResolveLookup(t *testing.T) {
	t.Parallel()

	spec := template.ToleranceSpec{
		Type: template.ToleranceLookup,
		Lookup: []template.LookupEntry{
			{Low: 0, High: 10, Tolerance: 0.1},
			{Low: 10, High: 100, Tolerance: 1.0},
		},
	}

	result, err := Resolve(spec, 50, 50.5, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Bound != 1.0 {
		t.Errorf("bound = %v, want 1.0", result.Bound)
	}
	if !result.Passed {
		t.Error("diff 0.5 within lookup bound 1.0 should pass")
	}

	// Boundary values match inclusively; table order wins on overlap.
	result, err = Resolve(spec, 10, 10, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Bound != 0.1 {
		t.Errorf("bound at shared boundary = %v, want first entry's 0.1", result.Bound)
	}

	_, err = Resolve(spec, 150, 150, nil)
	if !IsNoMatchingRange(err) {
		t.Fatalf("Resolve(nominal=150) returned %v, want NoMatchingRangeError", err)
	}
}

func TestResolveBool(t *testing.T) {
	t.Parallel()

	spec := template.ToleranceSpec{Type: template.ToleranceBool, PassWhenTrue: true}

	result, err := Resolve(spec, 0, 1, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !result.Passed {
		t.Error("true reading with pass-when-true should pass")
	}

	result, err = Resolve(spec, 0, 0, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Passed {
		t.Error("false reading with pass-when-true should fail")
	}
}

func TestResolveNone(t *testing.T) {
	t.Parallel()

	result, err := Resolve(template.ToleranceSpec{}, 10, 99, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Checked {
		t.Error("no-tolerance spec must not claim a check happened")
	}
	if !result.Passed {
		t.Error("no-tolerance spec must not block the field")
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	t.Parallel()

	spec := template.ToleranceSpec{Type: template.TolerancePercent, Percent: 2, Reference: "nominal"}
	first, err := Resolve(spec, 100, 101.5, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := Resolve(spec, 100, 101.5, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first != second {
		t.Errorf("identical inputs produced different results: %+v vs %+v", first, second)
	}
	want := "Tolerance = 2% of |nominal| = 2; |reading − nominal| = 1.5 → PASS"
	if first.Explanation != want {
		t.Errorf("explanation = %q, want %q", first.Explanation, want)
	}
}

func TestResolveDoesNotMutateBindings(t *testing.T) {
	t.Parallel()

	bindings := map[string]float64{"span": 50}
	spec := template.ToleranceSpec{Type: template.ToleranceEquation, Equation: "span * 0.01 + abs(nominal - reading) * 0"}
	if _, err := Resolve(spec, 10, 10.1, bindings); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(bindings) != 1 || bindings["span"] != 50 {
		t.Errorf("caller's binding map was mutated: %v", bindings)
	}
	if _, ok := bindings["nominal"]; ok {
		t.Error("reserved names leaked into the caller's binding map")
	}
}

func TestResolveNegativeDiffSymmetry(t *testing.T) {
	t.Parallel()

	spec := template.ToleranceSpec{Type: template.ToleranceFixed, Fixed: 0.5}
	low, err := Resolve(spec, 10, 9.6, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	high, err := Resolve(spec, 10, 10.4, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !low.Passed || !high.Passed {
		t.Error("deviation is absolute; both sides of nominal must pass")
	}
	if math.Abs(low.Bound-high.Bound) != 0 {
		t.Errorf("bounds differ: %v vs %v", low.Bound, high.Bound)
	}
}
