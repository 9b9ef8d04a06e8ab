package expr

import (
	"math"
	"testing"
)

// mustParse compiles an expression or fails the test.
func mustParse(t *testing.T, text string, vars ...string) *Function {
	t.Helper()
	f, err := Parse(text, vars...)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", text, err)
	}
	return f
}

func TestEvalDomainErrorsReturnNaN(t *testing.T) {
	tests := []struct {
		name string
		text string
		x    float64
	}{
		{"log of negative", "log(x)", -1},
		{"log of zero", "log(x)", 0},
		{"sqrt of negative", "sqrt(x)", -4},
		{"division by zero", "1/x", 0},
		{"negative division by zero", "-1/x", 0},
		{"overflow", "exp(x)*exp(x)", 1e308},
		{"asin out of range", "asin(x)", 2},
		{"fractional power of negative", "x**0.5", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustParse(t, tt.text, "x")
			got := f.Eval(tt.x)
			if !math.IsNaN(got) {
				t.Errorf("Eval(%v) = %v, want NaN sentinel", tt.x, got)
			}
		})
	}
}

func TestEvalNeverAbortsSliceEvaluation(t *testing.T) {
	f := mustParse(t, "log(x)", "x")
	xs := []float64{-1, 0, 1, math.E}
	got := f.EvalSlice(xs)

	if len(got) != len(xs) {
		t.Fatalf("EvalSlice length = %d, want %d", len(got), len(xs))
	}
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Error("undefined points should resolve to NaN independently")
	}
	if got[2] != 0 {
		t.Errorf("log(1) = %v, want 0", got[2])
	}
	if math.Abs(got[3]-1) > 1e-12 {
		t.Errorf("log(e) = %v, want 1", got[3])
	}
}

func TestEvalConstantFunction(t *testing.T) {
	f := mustParse(t, "2*pi", "x")
	if f.Arity() != 1 {
		t.Fatalf("Arity = %d, want 1", f.Arity())
	}
	for _, x := range []float64{-10, 0, 3.7} {
		if got := f.Eval(x); math.Abs(got-2*math.Pi) > 1e-12 {
			t.Errorf("Eval(%v) = %v, want 2*pi", x, got)
		}
	}
}

func TestEvalArityMismatch(t *testing.T) {
	f := mustParse(t, "sin(x)", "x")
	if got := f.Eval(); !math.IsNaN(got) {
		t.Errorf("Eval with too few args = %v, want NaN", got)
	}
	if got := f.Eval(1, 2); !math.IsNaN(got) {
		t.Errorf("Eval with too many args = %v, want NaN", got)
	}
}

func TestEvalTwoVariables(t *testing.T) {
	f := mustParse(t, "(x**2 - y**2)/4", "x", "y")
	if got := f.Eval(4, 2); math.Abs(got-3) > 1e-12 {
		t.Errorf("Eval(4, 2) = %v, want 3", got)
	}
}

func TestTextReturnsTrimmedBody(t *testing.T) {
	f := mustParse(t, "y =  sin(x) ", "x")
	if f.Text() != "sin(x)" {
		t.Errorf("Text = %q, want %q", f.Text(), "sin(x)")
	}
}
