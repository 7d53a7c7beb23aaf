package decipher

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

const punctuation = "=;,.()[]+-*%"

// lex splits a function body into tokens. Anything outside identifiers,
// integers, quoted strings and the small punctuation set is rejected.
func lex(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case isSpace(c):
			i++
		case c == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*'):
			i = skipLiteral(src, i)
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{tokIdent, src[start:i], start})
		case c >= '0' && c <= '9':
			start := i
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			if i < len(src) && isIdentPart(src[i]) {
				return nil, unsupported(src[start:min(i+1, len(src))], "malformed number")
			}
			toks = append(toks, token{tokNumber, src[start:i], start})
		case c == '"' || c == '\'':
			end := stringEnd(src, i)
			if end < 0 {
				return nil, unsupported(src[i:], "unterminated string")
			}
			value, err := unquote(src[i+1 : end-1])
			if err != nil {
				return nil, unsupported(src[i:end], err.Error())
			}
			toks = append(toks, token{tokString, value, i})
			i = end
		case strings.IndexByte(punctuation, c) >= 0:
			toks = append(toks, token{tokPunct, string(c), i})
			i++
		default:
			return nil, unsupported(src[i:min(i+16, len(src))], fmt.Sprintf("unexpected character %q", c))
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

// stringEnd returns the index just past the literal opened at src[i], or
// -1 when it is not closed.
func stringEnd(src string, i int) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case src[i]:
			return j + 1
		}
	}
	return -1
}

func unquote(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("dangling escape")
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

func unsupported(fragment, reason string) *Error {
	return NewError(ErrCodeUnsupportedConstruct, reason, fragment)
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) accept(s string) bool {
	if p.isPunct(s) {
		p.pos++
		return true
	}
	return false
}

// fragment returns the source text of the statement being parsed, from
// start up to the next top-level semicolon.
func (p *parser) fragment(start int) string {
	end := len(p.src)
	for i := p.pos; i < len(p.toks); i++ {
		if t := p.toks[i]; t.kind == tokEOF || (t.kind == tokPunct && t.text == ";") {
			end = t.pos
			break
		}
	}
	if start > end {
		start = end
	}
	return strings.TrimSpace(p.src[start:end])
}

func (p *parser) fail(start int, format string, args ...any) *Error {
	return unsupported(p.fragment(start), fmt.Sprintf(format, args...))
}

func (p *parser) expect(start int, s string) error {
	if !p.accept(s) {
		return p.fail(start, "expected %q, got %q", s, p.peek().text)
	}
	return nil
}

// parseBody parses a function body into statements and fuses element-swap
// idioms. Statements are separated by semicolons; empty statements are
// dropped.
func parseBody(body string) ([]Statement, error) {
	toks, err := lex(body)
	if err != nil {
		return nil, err
	}
	p := &parser{src: body, toks: toks}
	var stmts []Statement
	for p.peek().kind != tokEOF {
		if p.accept(";") {
			continue
		}
		start := p.peek().pos
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if p.peek().kind != tokEOF && !p.accept(";") {
			return nil, p.fail(start, "unexpected %q after %q", p.peek().text, s.Source())
		}
	}
	return fuseSwaps(stmts), nil
}

func (p *parser) statement() (Statement, error) {
	start := p.peek().pos
	first := p.peek()

	if first.kind == tokIdent {
		switch first.text {
		case "return":
			p.next()
			if p.isPunct(";") || p.peek().kind == tokEOF {
				return nil, p.fail(start, "return without a value")
			}
			x, err := p.expr(start)
			if err != nil {
				return nil, err
			}
			return &ReturnStmt{Text: p.text(start), Result: x}, nil
		case "var", "let", "const":
			p.next()
			name := p.next()
			if name.kind != tokIdent || keywords[name.text] {
				return nil, p.fail(start, "expected a name after %s", first.text)
			}
			if err := p.expect(start, "="); err != nil {
				return nil, err
			}
			x, err := p.expr(start)
			if err != nil {
				return nil, err
			}
			return &AssignStmt{Text: p.text(start), Declare: true, Target: &Ident{Name: name.text}, Value: x}, nil
		}
		if keywords[first.text] {
			return nil, p.fail(start, "unsupported statement %q", first.text)
		}
	}

	lhs, err := p.expr(start)
	if err != nil {
		return nil, err
	}
	if !p.accept("=") {
		return &ExprStmt{Text: p.text(start), X: lhs}, nil
	}
	switch lhs.(type) {
	case *Ident, *IndexExpr:
	default:
		return nil, p.fail(start, "cannot assign to %s", lhs)
	}
	rhs, err := p.expr(start)
	if err != nil {
		return nil, err
	}
	return &AssignStmt{Text: p.text(start), Target: lhs, Value: rhs}, nil
}

// text returns the source consumed since start.
func (p *parser) text(start int) string {
	return strings.TrimSpace(p.src[start:p.peek().pos])
}

func (p *parser) expr(start int) (Expr, error) {
	left, err := p.term(start)
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := p.next().text[0]
		right, err := p.term(start)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) term(start int) (Expr, error) {
	left, err := p.unary(start)
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("%") {
		op := p.next().text[0]
		right, err := p.unary(start)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) unary(start int) (Expr, error) {
	if !p.accept("-") {
		return p.postfix(start)
	}
	x, err := p.unary(start)
	if err != nil {
		return nil, err
	}
	if n, ok := x.(*NumberLit); ok {
		return &NumberLit{Value: -n.Value}, nil
	}
	return &BinaryExpr{Op: '-', Left: &NumberLit{}, Right: x}, nil
}

func (p *parser) postfix(start int) (Expr, error) {
	x, err := p.primary(start)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("."):
			name := p.next()
			if name.kind != tokIdent {
				return nil, p.fail(start, "expected a member name after %s.", x)
			}
			if p.accept("(") {
				args, err := p.arguments(start)
				if err != nil {
					return nil, err
				}
				x = &MethodCall{Receiver: x, Method: name.text, Args: args}
				continue
			}
			x = &PropertyExpr{Object: x, Name: name.text}
		case p.accept("["):
			idx, err := p.expr(start)
			if err != nil {
				return nil, err
			}
			if err := p.expect(start, "]"); err != nil {
				return nil, err
			}
			x = &IndexExpr{Object: x, Index: idx}
		default:
			return x, nil
		}
	}
}

func (p *parser) primary(start int) (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, p.fail(start, "number %s out of range", t.text)
		}
		return &NumberLit{Value: n}, nil
	case tokString:
		return &StringLit{Value: t.text}, nil
	case tokIdent:
		if keywords[t.text] {
			return nil, p.fail(start, "unsupported keyword %q", t.text)
		}
		if p.accept("(") {
			args, err := p.arguments(start)
			if err != nil {
				return nil, err
			}
			return &CallExpr{Callee: t.text, Args: args}, nil
		}
		return &Ident{Name: t.text}, nil
	case tokPunct:
		if t.text == "(" {
			x, err := p.expr(start)
			if err != nil {
				return nil, err
			}
			if err := p.expect(start, ")"); err != nil {
				return nil, err
			}
			return x, nil
		}
	}
	if t.kind == tokEOF {
		return nil, p.fail(start, "unexpected end of statement")
	}
	return nil, p.fail(start, "unexpected %q", t.text)
}

// arguments parses a call argument list after its opening parenthesis.
func (p *parser) arguments(start int) ([]Expr, error) {
	args := []Expr{}
	if p.accept(")") {
		return args, nil
	}
	for {
		x, err := p.expr(start)
		if err != nil {
			return nil, err
		}
		args = append(args, x)
		if p.accept(")") {
			return args, nil
		}
		if err := p.expect(start, ","); err != nil {
			return nil, err
		}
	}
}

// fuseSwaps replaces each run of
//
//	c=a[I]; a[I]=a[J]; a[K]=c
//
// with a single SwapStmt. The hold may be declared or plain.
func fuseSwaps(stmts []Statement) []Statement {
	out := make([]Statement, 0, len(stmts))
	for i := 0; i < len(stmts); i++ {
		if i+2 < len(stmts) {
			if s := matchSwap(stmts[i], stmts[i+1], stmts[i+2]); s != nil {
				out = append(out, s)
				i += 2
				continue
			}
		}
		out = append(out, stmts[i])
	}
	return out
}

func matchSwap(s1, s2, s3 Statement) *SwapStmt {
	hold, ok1 := s1.(*AssignStmt)
	move, ok2 := s2.(*AssignStmt)
	put, ok3 := s3.(*AssignStmt)
	if !ok1 || !ok2 || !ok3 || move.Declare || put.Declare {
		return nil
	}

	holdName, ok := hold.Target.(*Ident)
	if !ok {
		return nil
	}
	arr, first, ok := indexOfIdent(hold.Value)
	if !ok || arr == holdName.Name {
		return nil
	}

	moveArr, moveIdx, ok := indexOfIdent(move.Target)
	if !ok || moveArr != arr || moveIdx.String() != first.String() {
		return nil
	}
	srcArr, source, ok := indexOfIdent(move.Value)
	if !ok || srcArr != arr {
		return nil
	}

	putArr, target, ok := indexOfIdent(put.Target)
	if !ok || putArr != arr {
		return nil
	}
	if v, ok := put.Value.(*Ident); !ok || v.Name != holdName.Name {
		return nil
	}
	for _, x := range []Expr{first, source, target} {
		if mentions(x, holdName.Name) {
			return nil
		}
	}

	return &SwapStmt{
		Text:   hold.Text + ";" + move.Text + ";" + put.Text,
		Hold:   holdName.Name,
		Array:  arr,
		First:  first,
		From:   source,
		Target: target,
	}
}

// indexOfIdent matches name[index].
func indexOfIdent(x Expr) (string, Expr, bool) {
	ix, ok := x.(*IndexExpr)
	if !ok {
		return "", nil, false
	}
	id, ok := ix.Object.(*Ident)
	if !ok {
		return "", nil, false
	}
	return id.Name, ix.Index, true
}

// mentions reports whether x references name anywhere.
func mentions(x Expr, name string) bool {
	switch e := x.(type) {
	case *Ident:
		return e.Name == name
	case *IndexExpr:
		return mentions(e.Object, name) || mentions(e.Index, name)
	case *PropertyExpr:
		return mentions(e.Object, name)
	case *BinaryExpr:
		return mentions(e.Left, name) || mentions(e.Right, name)
	case *MethodCall:
		if mentions(e.Receiver, name) {
			return true
		}
		for _, a := range e.Args {
			if mentions(a, name) {
				return true
			}
		}
	case *CallExpr:
		for _, a := range e.Args {
			if mentions(a, name) {
				return true
			}
		}
	}
	return false
}
