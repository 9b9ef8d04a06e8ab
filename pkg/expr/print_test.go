package expr

import "testing"

func TestLabelPlain(t *testing.T) {
	tests := []struct {
		name string
		text string
		vars []string
		want string
	}{
		{"simple", "sin(x)", []string{"x"}, "y = sin(x)"},
		{"prefix stripped", "y = sin(x)", []string{"x"}, "y = sin(x)"},
		{"3d prefix", "z = sin(x)*cos(y)", []string{"x", "y"}, "z = sin(x)*cos(y)"},
		{"power", "x**3 - 3*x", []string{"x"}, "y = x**3-3*x"},
		{"constant pi kept symbolic", "sin(pi*x)", []string{"x"}, "y = sin(pi*x)"},
		{"sum parenthesized in product", "(x+1)*2", []string{"x"}, "y = (x+1)*2"},
		{"right assoc power", "2**3**x", []string{"x"}, "y = 2**3**x"},
		{"division chain keeps grouping", "8/(4/x)", []string{"x"}, "y = 8/(4/x)"},
		{"unary minus", "-x", []string{"x"}, "y = -x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustParse(t, tt.text, tt.vars...)
			if got := f.Label(false); got != tt.want {
				t.Errorf("Label(false) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabelTypeset(t *testing.T) {
	tests := []struct {
		name string
		text string
		vars []string
		want string
	}{
		{"sin", "sin(x)", []string{"x"}, `y = \sin\left(x\right)`},
		{"fraction", "x/2", []string{"x"}, `y = \frac{x}{2}`},
		{"power", "x**2", []string{"x"}, `y = x^{2}`},
		{"pi", "pi", []string{"x"}, `y = \pi`},
		{"sqrt", "sqrt(x)", []string{"x"}, `y = \sqrt{x}`},
		{"abs", "abs(x)", []string{"x"}, `y = \left|x\right|`},
		{"product", "2*x", []string{"x"}, `y = 2 \cdot x`},
		{"3d label", "sin(x)*cos(y)", []string{"x", "y"}, `z = \sin\left(x\right) \cdot \cos\left(y\right)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustParse(t, tt.text, tt.vars...)
			if got := f.Label(true); got != tt.want {
				t.Errorf("Label(true) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabelRoundTrips(t *testing.T) {
	// Plain output must re-parse to an equivalent function.
	inputs := []string{"sin(x)+x**2/8", "exp(-x**2)*cos(3*x)", "(x+1)*(x-1)", "8/(4/x)", "-x**2"}
	for _, src := range inputs {
		f := mustParse(t, src, "x")
		g := mustParse(t, f.Body(false), "x")
		for _, x := range []float64{-2.5, -1, 0, 0.5, 3} {
			a, b := f.Eval(x), g.Eval(x)
			if a != b && !(a != a && b != b) {
				t.Errorf("%q: reprinted form diverges at x=%v: %v vs %v", src, x, a, b)
			}
		}
	}
}
