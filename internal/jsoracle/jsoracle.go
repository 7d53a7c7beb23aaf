// Package jsoracle evaluates an extracted FunctionTable with real JavaScript
// engines so the decipher interpreter can be cross-checked against them.
package jsoracle

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"
	"github.com/robertkrimen/otto"

	"github.com/ytget/sigdecipher/decipher"
	"github.com/ytget/sigdecipher/internal/logger"
)

// Evaluator runs the entry function of a table on a token.
type Evaluator interface {
	Name() string
	Eval(table *decipher.FunctionTable, token string) (string, error)
}

// Otto evaluates with github.com/robertkrimen/otto.
type Otto struct{}

// Name implements Evaluator.
func (Otto) Name() string { return "otto" }

// Eval implements Evaluator.
func (Otto) Eval(table *decipher.FunctionTable, token string) (string, error) {
	vm := otto.New()
	if _, err := vm.Run(table.Source()); err != nil {
		return "", fmt.Errorf("failed to run table in otto: %v", err)
	}
	value, err := vm.Call(table.Main.Name, nil, token)
	if err != nil {
		return "", fmt.Errorf("failed to call %s: %v", table.Main.Name, err)
	}
	result, err := value.ToString()
	if err != nil {
		return "", fmt.Errorf("%s did not return a string: %v", table.Main.Name, err)
	}
	return result, nil
}

// Goja evaluates with github.com/dop251/goja.
type Goja struct{}

// Name implements Evaluator.
func (Goja) Name() string { return "goja" }

// Eval implements Evaluator.
func (Goja) Eval(table *decipher.FunctionTable, token string) (string, error) {
	vm := goja.New()
	if _, err := vm.RunScript("table.js", table.Source()); err != nil {
		return "", fmt.Errorf("run table: %w", err)
	}
	fn, ok := goja.AssertFunction(vm.Get(table.Main.Name))
	if !ok {
		return "", fmt.Errorf("%s is not a function", table.Main.Name)
	}
	res, err := fn(goja.Undefined(), vm.ToValue(token))
	if err != nil {
		return "", fmt.Errorf("%s error: %w", table.Main.Name, err)
	}
	if goja.IsUndefined(res) || goja.IsNull(res) {
		return "", fmt.Errorf("%s returned undefined/null", table.Main.Name)
	}
	return res.String(), nil
}

// Check parses the rendered table with goja's parser. A table that does not
// parse was extracted with a truncated or merged body.
func Check(table *decipher.FunctionTable) error {
	if _, err := parser.ParseFile(nil, "table.js", table.Source(), 0); err != nil {
		return fmt.Errorf("rendered table does not parse: %w", err)
	}
	return nil
}

// MismatchError reports an evaluator that disagreed with the interpreter.
type MismatchError struct {
	Engine string
	Token  string
	Want   string
	Got    string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: token %q decoded to %q, interpreter gave %q", e.Engine, e.Token, e.Got, e.Want)
}

// Verify runs every evaluator on token and compares the results with want,
// the interpreter's output. All evaluators run; their failures are joined.
// With no evaluators, Otto and Goja are used.
func Verify(table *decipher.FunctionTable, token, want string, evals ...Evaluator) error {
	if len(evals) == 0 {
		evals = []Evaluator{Otto{}, Goja{}}
	}
	log := logger.WithComponent(logger.ComponentOracle)

	var errs []error
	for _, ev := range evals {
		got, err := ev.Eval(table, token)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ev.Name(), err))
			continue
		}
		if got != want {
			log.Warn("oracle mismatch", logger.Fields{"engine": ev.Name(), "entry": table.Main.Name, "want": want, "got": got})
			errs = append(errs, &MismatchError{Engine: ev.Name(), Token: token, Want: want, Got: got})
			continue
		}
		log.Debug("oracle agrees", logger.Fields{"engine": ev.Name(), "entry": table.Main.Name})
	}
	return errors.Join(errs...)
}
