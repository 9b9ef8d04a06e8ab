package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/mathmotion/mathmotion/pkg/errors"
)

// tokenKind enumerates lexer token types.
type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOperator // + - * / ^ (** is folded into ^)
	tokLeftParen
	tokRightParen
	tokComma
	tokEOF
)

// token is one lexed unit with its byte position in the source text.
type token struct {
	kind tokenKind
	text string
	pos  int
}

// parseError builds a PARSE_ERROR that names the offending token context.
func parseError(pos int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return errors.New(errors.ErrCodeParse, "%s (at position %d)", msg, pos+1)
}

// lex splits the expression text into tokens. It accepts decimal numbers
// (with optional exponent), identifiers, parentheses, commas and the
// operators + - * / ^ **. Any other rune is rejected, which is what shuts
// the door on attribute access, indexing, strings and assignment.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			seenDot := false
			for i < len(src) && (src[i] >= '0' && src[i] <= '9' || src[i] == '.') {
				if src[i] == '.' {
					if seenDot {
						return nil, parseError(i, "malformed number %q", src[start:i+1])
					}
					seenDot = true
				}
				i++
			}
			// Optional exponent: 1e-3, 2.5E+10.
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && src[j] >= '0' && src[j] <= '9' {
					i = j
					for i < len(src) && src[i] >= '0' && src[i] <= '9' {
						i++
					}
				}
			}
			toks = append(toks, token{tokNumber, src[start:i], start})
		case isIdentStart(rune(c)):
			start := i
			for i < len(src) && isIdentPart(rune(src[i])) {
				i++
			}
			toks = append(toks, token{tokIdent, src[start:i], start})
		case c == '*':
			if i+1 < len(src) && src[i+1] == '*' {
				toks = append(toks, token{tokOperator, "^", i})
				i += 2
			} else {
				toks = append(toks, token{tokOperator, "*", i})
				i++
			}
		case c == '+' || c == '-' || c == '/' || c == '^':
			toks = append(toks, token{tokOperator, string(c), i})
			i++
		case c == '(':
			toks = append(toks, token{tokLeftParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRightParen, ")", i})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		default:
			return nil, parseError(i, "unexpected character %q", string(rune(c)))
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// parser is a recursive-descent parser over the token stream.
//
// Grammar (conventional precedence, ** right-associative and binding tighter
// than unary minus on its left, looser on its right, matching Python):
//
//	expr   := term (('+'|'-') term)*
//	term   := unary (('*'|'/') unary)*
//	unary  := ('+'|'-') unary | power
//	power  := atom (('^'|'**') unary)?
//	atom   := number | constant | variable | func '(' expr {',' expr} ')' | '(' expr ')'
type parser struct {
	toks []token
	pos  int
	vars map[string]int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.peek()
	if t.kind != kind {
		if t.kind == tokEOF {
			return t, parseError(t.pos, "unexpected end of expression, expected %s", what)
		}
		return t, parseError(t.pos, "unexpected token %q, expected %s", t.text, what)
	}
	return p.next(), nil
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOperator || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.text[0], left: left, right: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOperator || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.text[0], left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	t := p.peek()
	if t.kind == tokOperator && (t.text == "+" || t.text == "-") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			return unaryNode{operand: operand}, nil
		}
		return operand, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (node, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokOperator && t.text == "^" {
		p.next()
		// The exponent goes through unary so x**-2 parses, and through
		// parseUnary's recursion into parsePower for right-associativity.
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: '^', left: base, right: exp}, nil
	}
	return base, nil
}

func (p *parser) parseAtom() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, parseError(t.pos, "malformed number %q", t.text)
		}
		return numberNode{val: v}, nil

	case tokLeftParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRightParen, `")"`); err != nil {
			return nil, err
		}
		return inner, nil

	case tokIdent:
		return p.parseIdent(t)

	case tokEOF:
		return nil, parseError(t.pos, "unexpected end of expression")
	}
	return nil, parseError(t.pos, "unexpected token %q", t.text)
}

// parseIdent resolves an identifier against declared variables, the constant
// table and the builtin function table, in that order. Anything unresolved
// is a hard parse error: the allow-list is the whole name space.
func (p *parser) parseIdent(t token) (node, error) {
	if p.peek().kind == tokLeftParen {
		fn, ok := builtins[t.text]
		if !ok {
			return nil, parseError(t.pos, "unknown function %q", t.text)
		}
		p.next() // consume "("
		args := []node{}
		if p.peek().kind != tokRightParen {
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.peek().kind != tokComma {
					break
				}
				p.next()
			}
		}
		if _, err := p.expect(tokRightParen, `")"`); err != nil {
			return nil, err
		}
		if len(args) != fn.arity {
			return nil, parseError(t.pos, "%s expects %d argument(s), got %d", fn.name, fn.arity, len(args))
		}
		return callNode{fn: fn, args: args}, nil
	}

	if idx, ok := p.vars[t.text]; ok {
		return variableNode{name: t.text, index: idx}, nil
	}
	if c, ok := constants[t.text]; ok {
		return c, nil
	}
	return nil, parseError(t.pos, "unknown identifier %q", t.text)
}

// stripLHS removes a leading "y =" / "z =" / "f(x) =" style prefix, keeping
// everything after the first "=". Users paste whole equations; the renderer
// only wants the right-hand side.
func stripLHS(text string) string {
	if i := strings.IndexByte(text, '='); i >= 0 {
		return strings.TrimSpace(text[i+1:])
	}
	return strings.TrimSpace(text)
}

// Parse compiles expression text into a Function over the declared free
// variables ("x" for 2D, "x", "y" for 3D). A constant-only expression is
// valid and yields a constant function. All failures carry the PARSE_ERROR
// code and name the offending token.
func Parse(text string, vars ...string) (*Function, error) {
	if err := errors.ValidateExpressionText(text); err != nil {
		return nil, err
	}
	body := stripLHS(text)
	if body == "" {
		return nil, errors.New(errors.ErrCodeParse, "expression is empty after removing the %q prefix", text)
	}

	varIndex := make(map[string]int, len(vars))
	for i, v := range vars {
		varIndex[v] = i
	}

	toks, err := lex(body)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, vars: varIndex}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, parseError(t.pos, "unexpected trailing token %q", t.text)
	}

	return &Function{root: root, vars: vars, text: body}, nil
}

// ParseBound parses a variable-free expression such as "2*pi" and evaluates
// it to a single finite number. Interval limits in the presentation shells
// go through this.
func ParseBound(text string) (float64, error) {
	f, err := Parse(text)
	if err != nil {
		return 0, err
	}
	v := f.Eval()
	if v != v { // NaN
		return 0, errors.New(errors.ErrCodeParse, "bound %q does not evaluate to a finite number", strings.TrimSpace(text))
	}
	return v, nil
}
