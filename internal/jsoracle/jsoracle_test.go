package jsoracle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/sigdecipher/decipher"
)

const swapSafeScript = `var x={};
function m(a){a=a.split("");a=s(a,3);a=a.slice(2);a.reverse();a=s(a,13);return a.join("")}
function s(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c;return a}
x.sig||m(y)`

func resolveSwapSafe(t *testing.T) (*decipher.Engine, *decipher.FunctionTable) {
	t.Helper()
	engine := decipher.New()
	table, err := engine.Resolve("swap-safe", swapSafeScript)
	require.NoError(t, err)
	return engine, table
}

func TestEvaluatorsAgreeWithInterpreter(t *testing.T) {
	engine, table := resolveSwapSafe(t)

	for _, token := range []string{"abcdefghij", "0123456789ABCDEFGH", "xyzw"} {
		want, err := engine.Decode("swap-safe", token)
		require.NoError(t, err)
		for _, ev := range []Evaluator{Otto{}, Goja{}} {
			t.Run(ev.Name()+"/"+token, func(t *testing.T) {
				got, err := ev.Eval(table, token)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			})
		}
	}

	want, err := engine.Decode("swap-safe", "abcdefghij")
	require.NoError(t, err)
	assert.Equal(t, "eihgfjac", want)
	assert.NoError(t, Verify(table, "abcdefghij", want))
}

type constEvaluator string

func (c constEvaluator) Name() string { return "const" }

func (c constEvaluator) Eval(*decipher.FunctionTable, string) (string, error) {
	return string(c), nil
}

func TestVerifyMismatch(t *testing.T) {
	_, table := resolveSwapSafe(t)

	err := Verify(table, "abcdefghij", "eihgfjac", Goja{}, constEvaluator("nope"))
	require.Error(t, err)

	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, "const", mm.Engine)
	assert.Equal(t, "nope", mm.Got)
	assert.Equal(t, "eihgfjac", mm.Want)
}

func TestCheck(t *testing.T) {
	_, table := resolveSwapSafe(t)
	assert.NoError(t, Check(table))

	broken := decipher.NewFunctionDescriptor("m", []string{"a"}, `return a.join(""`)
	bad := &decipher.FunctionTable{Main: broken, Functions: map[string]*decipher.FunctionDescriptor{"m": broken}}
	assert.Error(t, Check(bad))
}

func TestOttoMissingEntry(t *testing.T) {
	fn := decipher.NewFunctionDescriptor("m", []string{"a"}, `return q(a)`)
	table := &decipher.FunctionTable{Main: fn, Functions: map[string]*decipher.FunctionDescriptor{"m": fn}}

	_, err := Otto{}.Eval(table, "abc")
	assert.Error(t, err)
	_, err = Goja{}.Eval(table, "abc")
	assert.Error(t, err)
}
