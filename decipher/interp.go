package decipher

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ytget/sigdecipher/internal/logger"
)

// DefaultMaxDepth bounds nested helper calls.
const DefaultMaxDepth = 32

type interpreter struct {
	table    *FunctionTable
	maxDepth int
	log      *logger.ComponentLogger
}

// run executes fn's statements in order against env and returns the value
// of the first return statement reached.
func (in *interpreter) run(fn *FunctionDescriptor, env Env, depth int) (Value, error) {
	if depth > in.maxDepth {
		return Value{}, newErrorf(ErrCodeRecursionLimit, "call depth %d exceeds %d at %s", depth, in.maxDepth, fn.Name)
	}
	stmts, err := fn.Statements()
	if err != nil {
		return Value{}, err
	}

	for _, s := range stmts {
		if in.log.Enabled(logger.TRACE) {
			in.log.Trace("exec", logger.Fields{"function": fn.Name, "depth": depth, "statement": s.Source()})
		}
		switch s := s.(type) {
		case *ReturnStmt:
			return in.eval(s.Result, env, depth)
		case *AssignStmt:
			v, err := in.eval(s.Value, env, depth)
			if err != nil {
				return Value{}, err
			}
			if err := in.assign(s, v, env, depth); err != nil {
				return Value{}, err
			}
		case *SwapStmt:
			if err := in.swap(s, env, depth); err != nil {
				return Value{}, err
			}
		case *ExprStmt:
			if _, err := in.eval(s.X, env, depth); err != nil {
				return Value{}, err
			}
		default:
			return Value{}, unsupported(s.Source(), "unknown statement")
		}
	}
	return Value{}, newErrorf(ErrCodeMissingReturn, "%s ended after %d statements without returning", fn.Name, len(stmts))
}

func (in *interpreter) assign(s *AssignStmt, v Value, env Env, depth int) error {
	switch t := s.Target.(type) {
	case *Ident:
		env[t.Name] = v
		return nil
	case *IndexExpr:
		arr, err := in.arrayOf(t.Object, env, s.Text)
		if err != nil {
			return err
		}
		i, err := in.index(t.Index, env, depth)
		if err != nil {
			return err
		}
		elem, err := elementText(v, s.Text)
		if err != nil {
			return err
		}
		if !arr.set(i, elem) {
			return unsupported(s.Text, fmt.Sprintf("index %d out of range", i))
		}
		return nil
	}
	return unsupported(s.Text, "unsupported assignment target")
}

// swap evaluates the fused idiom in source order: First, then From, then
// Target after the first write.
func (in *interpreter) swap(s *SwapStmt, env Env, depth int) error {
	arr, err := in.arrayOf(&Ident{Name: s.Array}, env, s.Text)
	if err != nil {
		return err
	}
	subject := env[s.Array]

	i, err := in.index(s.First, env, depth)
	if err != nil {
		return err
	}
	held, ok := subject.element(i)
	if !ok {
		return unsupported(s.Text, fmt.Sprintf("index %d out of range", i))
	}
	j, err := in.index(s.From, env, depth)
	if err != nil {
		return err
	}
	moved, ok := subject.element(j)
	if !ok {
		return unsupported(s.Text, fmt.Sprintf("index %d out of range", j))
	}
	if !arr.set(i, moved) {
		return unsupported(s.Text, fmt.Sprintf("index %d out of range", i))
	}
	k, err := in.index(s.Target, env, depth)
	if err != nil {
		return err
	}
	if !arr.set(k, held) {
		return unsupported(s.Text, fmt.Sprintf("index %d out of range", k))
	}
	env[s.Hold] = StringValue(held)
	return nil
}

func (in *interpreter) arrayOf(x Expr, env Env, fragment string) (*charArray, error) {
	id, ok := x.(*Ident)
	if !ok {
		return nil, unsupported(fragment, "indexed write to "+x.String())
	}
	v, ok := env[id.Name]
	if !ok {
		return nil, newErrorf(ErrCodeUnboundArgument, "%s is not bound in %q", id.Name, fragment)
	}
	if v.kind != KindArray {
		return nil, unsupported(fragment, fmt.Sprintf("indexed write to %s %s", v.kind, id.Name))
	}
	return v.arr, nil
}

func (in *interpreter) index(x Expr, env Env, depth int) (int, error) {
	v, err := in.eval(x, env, depth)
	if err != nil {
		return 0, err
	}
	n, ok := v.Number()
	if !ok {
		return 0, unsupported(x.String(), fmt.Sprintf("index is a %s", v.kind))
	}
	return n, nil
}

func elementText(v Value, fragment string) (string, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindNumber:
		return v.String(), nil
	}
	return "", unsupported(fragment, "cannot store an array as an element")
}

func (in *interpreter) eval(x Expr, env Env, depth int) (Value, error) {
	switch e := x.(type) {
	case *Ident:
		v, ok := env[e.Name]
		if !ok {
			return Value{}, newErrorf(ErrCodeUnboundArgument, "%s is not bound", e.Name)
		}
		return v, nil
	case *NumberLit:
		return NumberValue(e.Value), nil
	case *StringLit:
		return StringValue(e.Value), nil
	case *IndexExpr:
		obj, err := in.eval(e.Object, env, depth)
		if err != nil {
			return Value{}, err
		}
		i, err := in.index(e.Index, env, depth)
		if err != nil {
			return Value{}, err
		}
		s, ok := obj.element(i)
		if !ok {
			return Value{}, unsupported(e.String(), fmt.Sprintf("index %d out of range for %s", i, obj.kind))
		}
		return StringValue(s), nil
	case *PropertyExpr:
		obj, err := in.eval(e.Object, env, depth)
		if err != nil {
			return Value{}, err
		}
		if e.Name == "length" {
			if n, ok := obj.length(); ok {
				return NumberValue(n), nil
			}
		}
		return Value{}, unsupported(e.String(), fmt.Sprintf("property %s of %s", e.Name, obj.kind))
	case *BinaryExpr:
		return in.arith(e, env, depth)
	case *MethodCall:
		return in.method(e, env, depth)
	case *CallExpr:
		fn, callee, err := resolveCall(env, e.Callee, e.Args, in.table)
		if err != nil {
			return Value{}, err
		}
		return in.run(fn, callee, depth+1)
	}
	return Value{}, unsupported(x.String(), "unknown expression")
}

func (in *interpreter) arith(e *BinaryExpr, env Env, depth int) (Value, error) {
	l, err := in.eval(e.Left, env, depth)
	if err != nil {
		return Value{}, err
	}
	r, err := in.eval(e.Right, env, depth)
	if err != nil {
		return Value{}, err
	}
	a, okA := l.Number()
	b, okB := r.Number()
	if !okA || !okB {
		return Value{}, unsupported(e.String(), fmt.Sprintf("arithmetic on %s and %s", l.kind, r.kind))
	}
	switch e.Op {
	case '+':
		return NumberValue(a + b), nil
	case '-':
		return NumberValue(a - b), nil
	case '*':
		return NumberValue(a * b), nil
	case '%':
		if b == 0 {
			return Value{}, unsupported(e.String(), "modulo by zero")
		}
		return NumberValue(a % b), nil
	}
	return Value{}, unsupported(e.String(), "unknown operator")
}

func (in *interpreter) method(e *MethodCall, env Env, depth int) (Value, error) {
	// Methods on an unknown object (Xy.ab(a,2)) are a helper-object layout,
	// not a missing argument.
	if id, ok := e.Receiver.(*Ident); ok {
		if _, bound := env[id.Name]; !bound {
			return Value{}, unsupported(e.String(), "method call on unknown object "+id.Name)
		}
	}
	recv, err := in.eval(e.Receiver, env, depth)
	if err != nil {
		return Value{}, err
	}
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		if args[i], err = in.eval(a, env, depth); err != nil {
			return Value{}, err
		}
	}
	bad := func(reason string) (Value, error) {
		return Value{}, unsupported(e.String(), reason)
	}

	switch e.Method {
	case "split":
		if recv.kind != KindString || len(args) != 1 || args[0].kind != KindString {
			return bad("split needs a string receiver and a string separator")
		}
		if args[0].str == "" {
			return arrayValue(splitChars(recv.str)), nil
		}
		return arrayValue(strings.Split(recv.str, args[0].str)), nil
	case "join":
		if recv.kind != KindArray || len(args) > 1 {
			return bad("join needs an array receiver")
		}
		sep := ","
		if len(args) == 1 {
			if args[0].kind != KindString {
				return bad("join separator must be a string")
			}
			sep = args[0].str
		}
		return StringValue(strings.Join(recv.arr.elems, sep)), nil
	case "reverse":
		if recv.kind != KindArray || len(args) != 0 {
			return bad("reverse needs an array receiver and no arguments")
		}
		slices.Reverse(recv.arr.elems)
		return recv, nil
	case "slice":
		n, ok := recv.length()
		if !ok || len(args) < 1 || len(args) > 2 {
			return bad("slice needs a string or array receiver and one or two bounds")
		}
		start, ok := args[0].Number()
		if !ok {
			return bad("slice bound must be a number")
		}
		end := n
		if len(args) == 2 {
			if end, ok = args[1].Number(); !ok {
				return bad("slice bound must be a number")
			}
		}
		start, end = sliceBounds(n, start, end)
		if recv.kind == KindString {
			return StringValue(strings.Join(splitChars(recv.str)[start:end], "")), nil
		}
		return arrayValue(slices.Clone(recv.arr.elems[start:end])), nil
	case "splice":
		if recv.kind != KindArray || len(args) != 2 {
			return bad("splice needs an array receiver, a start and a count")
		}
		start, ok1 := args[0].Number()
		count, ok2 := args[1].Number()
		if !ok1 || !ok2 {
			return bad("splice arguments must be numbers")
		}
		n := len(recv.arr.elems)
		start, _ = sliceBounds(n, start, n)
		end := start + max(0, min(count, n-start))
		removed := slices.Clone(recv.arr.elems[start:end])
		recv.arr.elems = slices.Delete(recv.arr.elems, start, end)
		return arrayValue(removed), nil
	}
	return bad("unknown method " + e.Method)
}
