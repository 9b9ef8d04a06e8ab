package expr

import (
	"strconv"
	"strings"
)

// Operator precedence levels for the plain printer. Parentheses are emitted
// only when a child binds looser than its parent.
const (
	precAdd = iota + 1
	precMul
	precUnary
	precPow
	precAtom
)

// Label renders a display label for the function: "y = <body>" for one
// variable, "z = <body>" for two. With typeset true the body is LaTeX,
// otherwise plain source-style text.
func (f *Function) Label(typeset bool) string {
	prefix := "y = "
	if len(f.vars) == 2 {
		prefix = "z = "
	}
	return prefix + f.Body(typeset)
}

// Body renders the function body alone, without the "y =" prefix.
func (f *Function) Body(typeset bool) string {
	var b strings.Builder
	if typeset {
		writeLaTeX(&b, f.root)
	} else {
		writePlain(&b, f.root, precAdd)
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writePlain prints source-style text, parenthesizing children that bind
// looser than the surrounding context.
func writePlain(b *strings.Builder, n node, parent int) {
	switch t := n.(type) {
	case numberNode:
		b.WriteString(formatNumber(t.val))
	case constNode:
		b.WriteString(t.name)
	case variableNode:
		b.WriteString(t.name)
	case unaryNode:
		if parent > precUnary {
			b.WriteByte('(')
		}
		b.WriteByte('-')
		writePlain(b, t.operand, precUnary+1)
		if parent > precUnary {
			b.WriteByte(')')
		}
	case binaryNode:
		prec := precAdd
		op := string(t.op)
		switch t.op {
		case '*', '/':
			prec = precMul
		case '^':
			prec = precPow
			op = "**"
		}
		// Associativity decides which side needs parens at equal
		// precedence: a-(b-c) and a/(b/c) differ from the bare form,
		// and ** is right-associative so (a**b)**c needs them on the left.
		leftPrec, rightPrec := prec, prec
		switch t.op {
		case '-', '/':
			rightPrec = prec + 1
		case '^':
			leftPrec = prec + 1
		}
		if parent > prec {
			b.WriteByte('(')
		}
		writePlain(b, t.left, leftPrec)
		b.WriteString(op)
		writePlain(b, t.right, rightPrec)
		if parent > prec {
			b.WriteByte(')')
		}
	case callNode:
		b.WriteString(t.fn.name)
		b.WriteByte('(')
		for i, arg := range t.args {
			if i > 0 {
				b.WriteString(", ")
			}
			writePlain(b, arg, precAdd)
		}
		b.WriteByte(')')
	}
}

// writeLaTeX prints the typeset form: \frac for division, ^{...} for powers,
// \left(...\right) around call arguments, \pi and \tau for the constants.
func writeLaTeX(b *strings.Builder, n node) {
	switch t := n.(type) {
	case numberNode:
		b.WriteString(formatNumber(t.val))
	case constNode:
		switch t.name {
		case "pi":
			b.WriteString(`\pi`)
		case "tau":
			b.WriteString(`\tau`)
		default:
			b.WriteString(t.name)
		}
	case variableNode:
		b.WriteString(t.name)
	case unaryNode:
		b.WriteByte('-')
		writeLaTeXOperand(b, t.operand)
	case binaryNode:
		switch t.op {
		case '/':
			b.WriteString(`\frac{`)
			writeLaTeX(b, t.left)
			b.WriteString(`}{`)
			writeLaTeX(b, t.right)
			b.WriteString(`}`)
		case '^':
			writeLaTeXOperand(b, t.left)
			b.WriteString(`^{`)
			writeLaTeX(b, t.right)
			b.WriteString(`}`)
		case '*':
			writeLaTeXOperand(b, t.left)
			b.WriteString(` \cdot `)
			writeLaTeXOperand(b, t.right)
		default:
			writeLaTeX(b, t.left)
			b.WriteString(" " + string(t.op) + " ")
			writeLaTeX(b, t.right)
		}
	case callNode:
		switch t.fn.name {
		case "sqrt":
			b.WriteString(`\sqrt{`)
			writeLaTeX(b, t.args[0])
			b.WriteString(`}`)
		case "abs":
			b.WriteString(`\left|`)
			writeLaTeX(b, t.args[0])
			b.WriteString(`\right|`)
		case "floor":
			b.WriteString(`\lfloor `)
			writeLaTeX(b, t.args[0])
			b.WriteString(`\rfloor`)
		case "ceil":
			b.WriteString(`\lceil `)
			writeLaTeX(b, t.args[0])
			b.WriteString(`\rceil`)
		case "pow":
			writeLaTeXOperand(b, t.args[0])
			b.WriteString(`^{`)
			writeLaTeX(b, t.args[1])
			b.WriteString(`}`)
		case "min", "max":
			b.WriteString(`\` + t.fn.name + `\left(`)
			writeLaTeX(b, t.args[0])
			b.WriteString(`, `)
			writeLaTeX(b, t.args[1])
			b.WriteString(`\right)`)
		default:
			b.WriteString(t.fn.tex)
			b.WriteString(`\left(`)
			writeLaTeX(b, t.args[0])
			b.WriteString(`\right)`)
		}
	}
}

// writeLaTeXOperand wraps compound subexpressions in \left(...\right) so
// products and powers of sums stay unambiguous.
func writeLaTeXOperand(b *strings.Builder, n node) {
	if bin, ok := n.(binaryNode); ok && (bin.op == '+' || bin.op == '-') {
		b.WriteString(`\left(`)
		writeLaTeX(b, n)
		b.WriteString(`\right)`)
		return
	}
	if _, ok := n.(unaryNode); ok {
		b.WriteString(`\left(`)
		writeLaTeX(b, n)
		b.WriteString(`\right)`)
		return
	}
	writeLaTeX(b, n)
}
