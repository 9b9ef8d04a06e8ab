// Package expr implements the expression safety layer: it compiles untrusted
// user-supplied formula text (e.g. "exp(-x**2)*cos(3*x)") into a pure numeric
// function of one or two real variables.
//
// The package never evaluates text dynamically. A hand-written lexer and
// recursive-descent parser produce a typed AST over a closed set of node
// kinds (number, constant, variable, unary, binary, call), so the allow-list
// is structural: only the declared free variables, the constants pi/e/tau,
// and a fixed table of elementary functions are reachable. Anything else is
// rejected at parse time with a PARSE_ERROR naming the offending token.
//
// # Evaluation
//
// Evaluation is per-point and total: every domain error (log of a negative
// number, division by zero, overflow) resolves to the NaN sentinel instead
// of panicking, and element-wise evaluation of a slice never aborts partway.
//
// # Usage
//
//	f, err := expr.Parse("y = sin(x)", "x")
//	if err != nil {
//	    return err
//	}
//	v := f.Eval(1.5)            // 0.997...
//	label := f.Label(false)     // "y = sin(x)"
//	tex := f.Label(true)        // `y = \sin\left(x\right)`
package expr

import (
	"math"
)

// node is the closed interface over AST node kinds. env holds the current
// value of each free variable, indexed by declaration order.
type node interface {
	eval(env []float64) float64
}

// numberNode is a literal like 3 or 0.25.
type numberNode struct {
	val float64
}

func (n numberNode) eval([]float64) float64 { return n.val }

// constNode is a named constant (pi, e, tau). The name is kept so labels can
// print "pi" instead of 3.141592653589793.
type constNode struct {
	name string
	val  float64
}

func (n constNode) eval([]float64) float64 { return n.val }

// variableNode references a declared free variable by ordinal.
type variableNode struct {
	name  string
	index int
}

func (n variableNode) eval(env []float64) float64 { return env[n.index] }

// unaryNode is sign negation. Unary plus is dropped during parsing.
type unaryNode struct {
	operand node
}

func (n unaryNode) eval(env []float64) float64 { return -n.operand.eval(env) }

// binaryNode covers + - * / and ** (stored as '^').
type binaryNode struct {
	op          byte
	left, right node
}

func (n binaryNode) eval(env []float64) float64 {
	l := n.left.eval(env)
	r := n.right.eval(env)
	switch n.op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		return l / r
	case '^':
		return math.Pow(l, r)
	}
	return math.NaN()
}

// callNode is an invocation of an allow-listed function.
type callNode struct {
	fn   *builtin
	args []node
}

func (n callNode) eval(env []float64) float64 {
	switch n.fn.arity {
	case 1:
		return n.fn.fn1(n.args[0].eval(env))
	case 2:
		return n.fn.fn2(n.args[0].eval(env), n.args[1].eval(env))
	}
	return math.NaN()
}

// builtin describes one allow-listed function: its arity, implementation,
// and LaTeX rendering hint.
type builtin struct {
	name  string
	arity int
	fn1   func(float64) float64
	fn2   func(float64, float64) float64
	tex   string // LaTeX command; empty means the printer has a special form
}

// builtins is the complete allow-list of callable functions. Everything a
// user expression may invoke lives in this table.
var builtins = map[string]*builtin{
	"sin":   {name: "sin", arity: 1, fn1: math.Sin, tex: `\sin`},
	"cos":   {name: "cos", arity: 1, fn1: math.Cos, tex: `\cos`},
	"tan":   {name: "tan", arity: 1, fn1: math.Tan, tex: `\tan`},
	"asin":  {name: "asin", arity: 1, fn1: math.Asin, tex: `\arcsin`},
	"acos":  {name: "acos", arity: 1, fn1: math.Acos, tex: `\arccos`},
	"atan":  {name: "atan", arity: 1, fn1: math.Atan, tex: `\arctan`},
	"sinh":  {name: "sinh", arity: 1, fn1: math.Sinh, tex: `\sinh`},
	"cosh":  {name: "cosh", arity: 1, fn1: math.Cosh, tex: `\cosh`},
	"tanh":  {name: "tanh", arity: 1, fn1: math.Tanh, tex: `\tanh`},
	"exp":   {name: "exp", arity: 1, fn1: math.Exp, tex: `\exp`},
	"log":   {name: "log", arity: 1, fn1: math.Log, tex: `\ln`},
	"log2":  {name: "log2", arity: 1, fn1: math.Log2, tex: `\log_{2}`},
	"log10": {name: "log10", arity: 1, fn1: math.Log10, tex: `\log_{10}`},
	"sqrt":  {name: "sqrt", arity: 1, fn1: math.Sqrt},
	"abs":   {name: "abs", arity: 1, fn1: math.Abs},
	"floor": {name: "floor", arity: 1, fn1: math.Floor},
	"ceil":  {name: "ceil", arity: 1, fn1: math.Ceil},
	"pow":   {name: "pow", arity: 2, fn2: math.Pow},
	"min":   {name: "min", arity: 2, fn2: math.Min},
	"max":   {name: "max", arity: 2, fn2: math.Max},
}

// constants is the allow-list of named constants.
var constants = map[string]constNode{
	"pi":  {name: "pi", val: math.Pi},
	"e":   {name: "e", val: math.E},
	"tau": {name: "tau", val: 2 * math.Pi},
}

// Function is a compiled, allow-listed numeric function of one or two real
// variables. It is immutable after Parse and safe for concurrent use, though
// each render job owns the Function it compiled.
type Function struct {
	root node
	vars []string
	text string // trimmed source text (the right-hand side the user typed)
}

// Arity returns the number of free variables the function was declared with.
func (f *Function) Arity() int { return len(f.vars) }

// Text returns the trimmed source text the function was compiled from, with
// any "y =" style prefix removed. This is what gets handed to the renderer.
func (f *Function) Text() string { return f.text }

// Eval evaluates the function at a single point. Domain errors, overflow and
// division by zero all yield the NaN sentinel; Eval never panics. Passing
// the wrong number of arguments is also reported as NaN rather than a panic,
// keeping the "evaluation never raises" contract total.
func (f *Function) Eval(args ...float64) float64 {
	if len(args) != len(f.vars) {
		return math.NaN()
	}
	v := f.root.eval(args)
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// EvalSlice evaluates a one-variable function element-wise. Each point is
// resolved independently to a value or NaN; a bad point never aborts the
// rest of the slice.
func (f *Function) EvalSlice(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = f.Eval(x)
	}
	return out
}
