package decipher

// resolveCall binds the arguments of a call to callee's parameters. Numeric
// literals bind as numbers and identifiers bind to the caller's current
// value; arrays stay shared with the caller.
func resolveCall(caller Env, callee string, args []Expr, table *FunctionTable) (*FunctionDescriptor, Env, error) {
	fn, ok := table.Lookup(callee)
	if !ok {
		return nil, nil, NewError(ErrCodeHelperNotFound, "no function "+callee+" in table", callee)
	}

	values := make([]Value, len(args))
	for i, arg := range args {
		switch a := arg.(type) {
		case *NumberLit:
			values[i] = NumberValue(a.Value)
		case *Ident:
			v, ok := caller[a.Name]
			if !ok {
				return nil, nil, newErrorf(ErrCodeUnboundArgument, "argument %d of %s: %s is not bound", i+1, callee, a.Name)
			}
			values[i] = v
		default:
			return nil, nil, unsupported(arg.String(), "call arguments must be numbers or names")
		}
	}

	if len(values) != len(fn.Parameters) {
		return nil, nil, newErrorf(ErrCodeArityMismatch, "%s takes %d arguments, called with %d",
			callee, len(fn.Parameters), len(values))
	}

	env := make(Env, len(values))
	for i, name := range fn.Parameters {
		env[name] = values[i]
	}
	return fn, env, nil
}
