package expr

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestParseAccepts(t *testing.T) {
	t.Parallel()

	valid := []string{
		"1 + 2",
		"0.02 * abs(nominal)",
		"nominal * 0.01",
		"ABS(nominal) + 0.1",
		"min(1, 2)",
		"MAX(span_low, span_high)",
		"2 ^ 10",
		"2 ** 10",
		"-(reading - nominal)",
		"1.5e-3 * reading",
		"(nominal + reading) / 2",
		"min(abs(a), abs(b), abs(c))",
	}
	for _, src := range valid {
		if _, err := Parse(src); err != nil {
			t.Errorf("Parse(%q) returned error: %v", src, err)
		}
	}
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"trailing operator", "1 +"},
		{"dangling power", "nominal ^"},
		{"unknown function", "sqrt(nominal)"},
		{"import-like call", "__import__(os)"},
		{"attribute access", "a.b"},
		{"subscript", "a[0]"},
		{"bare list", "[1, 2]"},
		{"assignment", "a = 1"},
		{"comparison", "reading <= nominal"},
		{"string literal", "\"abc\""},
		{"two expressions", "1 2"},
		{"unbalanced paren", "(1 + 2"},
		{"abs arity", "abs(1, 2)"},
		{"min arity", "min(1)"},
		{"empty call", "max()"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			parsed, err := Parse(tc.src)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tc.src)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse(%q) error %v is not a *ParseError", tc.src, err)
			}
			if parsed != nil {
				t.Fatalf("Parse(%q) returned a partial tree alongside an error", tc.src)
			}
		})
	}
}

func TestFreeVariables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want []string
	}{
		{"nominal + reading", []string{"nominal", "reading"}},
		{"ref1 - ref2", []string{"ref1", "ref2"}},
		{"1 + 2", nil},
		{"abs(x) + x * y", []string{"x", "y"}},
		{"min(b, a) + max(a, b)", []string{"b", "a"}},
		{"ABS(nominal) * 0.02", []string{"nominal"}},
	}
	for _, tc := range tests {
		parsed, err := Parse(tc.src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.src, err)
		}
		got := parsed.FreeVariables()
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("FreeVariables(%q) = %v, want %v", tc.src, got, tc.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src      string
		bindings map[string]float64
		want     float64
	}{
		{"2 + 3 * 4", nil, 14},
		{"abs(x - y)", map[string]float64{"x": 5, "y": 8}, 3},
		{"2 ^ 3 ^ 2", nil, 512}, // right-associative
		{"-2 ^ 2", nil, -4},     // unary binds below power
		{"(1 + 2) * 3", nil, 9},
		{"10 - 4 - 3", nil, 3}, // left-associative
		{"min(3, 1, 2)", nil, 1},
		{"max(3, 1, 2)", nil, 3},
		{"0.02 * abs(nominal)", map[string]float64{"nominal": -100}, 2},
		{"2 ^ -1", nil, 0.5},
		{"+5", nil, 5},
	}
	for _, tc := range tests {
		parsed, err := Parse(tc.src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.src, err)
		}
		got, err := parsed.Evaluate(tc.bindings)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tc.src, err)
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Evaluate(%q) = %v, want %v", tc.src, got, tc.want)
		}
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	t.Parallel()

	parsed, err := Parse("a / b")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = parsed.Evaluate(map[string]float64{"a": 1, "b": 0})
	if !IsDivisionByZero(err) {
		t.Fatalf("Evaluate returned %v, want division-by-zero", err)
	}
}

func TestEvaluateUnboundVariable(t *testing.T) {
	t.Parallel()

	parsed, err := Parse("nominal * 0.02")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = parsed.Evaluate(map[string]float64{})
	name, ok := IsUnboundVariable(err)
	if !ok {
		t.Fatalf("Evaluate returned %v, want unbound-variable", err)
	}
	if name != "nominal" {
		t.Errorf("unbound variable = %q, want %q", name, "nominal")
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	t.Parallel()

	parsed, err := Parse("abs(reading - nominal) / nominal * 100")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	bindings := map[string]float64{"reading": 101.5, "nominal": 100}
	first, err := parsed.Evaluate(bindings)
	if err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}
	second, err := parsed.Evaluate(bindings)
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if first != second {
		t.Errorf("repeated evaluation diverged: %v then %v", first, second)
	}
}

func TestParsePlot(t *testing.T) {
	t.Parallel()

	plot, err := ParsePlot("PLOT([a, b, c], [x, y, z])")
	if err != nil {
		t.Fatalf("ParsePlot: %v", err)
	}
	if !reflect.DeepEqual(plot.XNames, []string{"a", "b", "c"}) {
		t.Errorf("XNames = %v", plot.XNames)
	}
	if !reflect.DeepEqual(plot.YNames, []string{"x", "y", "z"}) {
		t.Errorf("YNames = %v", plot.YNames)
	}

	invalid := []string{
		"PLOT([a], [x, y])",        // length mismatch
		"PLOT([], [])",             // no points
		"PLOT([a, b])",             // one list
		"PLOT([1, 2], [3, 4])",     // literals, not names
		"PLOT([a], [b]) + 1",       // trailing expression
		"GRAPH([a], [b])",          // wrong function
		"PLOT([a+b], [c])",         // expression inside list
		"PLOT([a,b,c,d,e,f,g], [h,i,j,k,l,m,n])", // over the cap
	}
	for _, src := range invalid {
		if _, err := ParsePlot(src); err == nil {
			t.Errorf("ParsePlot(%q) succeeded, want error", src)
		}
	}
}

func TestPlotEvaluate(t *testing.T) {
	t.Parallel()

	plot, err := ParsePlot("plot([a, b], [c, d])")
	if err != nil {
		t.Fatalf("ParsePlot: %v", err)
	}
	xs, ys, err := plot.Evaluate(map[string]float64{"a": 1, "b": 2, "c": 3, "d": 4})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !reflect.DeepEqual(xs, []float64{1, 2}) || !reflect.DeepEqual(ys, []float64{3, 4}) {
		t.Errorf("Evaluate = %v, %v", xs, ys)
	}

	_, _, err = plot.Evaluate(map[string]float64{"a": 1, "b": 2, "c": 3})
	if _, ok := IsUnboundVariable(err); !ok {
		t.Fatalf("Evaluate with missing binding returned %v, want unbound-variable", err)
	}
}
