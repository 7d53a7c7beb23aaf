package decipher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchBalanced(t *testing.T) {
	tests := []struct {
		name string
		src  string
		open int
		want int
	}{
		{"parens", "f(a,(b))x", 1, 8},
		{"nested braces", "{a{b}{c{d}}}", 0, 12},
		{"string with brace", `{a="}";b='{'}`, 0, 13},
		{"template literal", "{a=`}`}", 0, 7},
		{"escaped quote", `{a="\"}";}`, 0, 10},
		{"block comment", "{/* } */a}", 0, 10},
		{"line comment", "{// }\na}", 0, 8},
		{"regex with brace", "{var r=/}/;a}", 0, 13},
		{"regex with quote", `{r=/"/g;a}`, 0, 10},
		{"regex class with slash", "{r=/[/}]/;a}", 0, 12},
		{"regex after return", "{return /}/.test(a)}", 0, 20},
		{"division", "{a=b/2;c=d/e}", 0, 13},
		{"division after paren", "{a=(b)/2}", 0, 9},
		{"unterminated regex", "{a=/}\n}", 0, -1},
		{"mismatched", "{(}", 0, -1},
		{"unterminated", "{a{b}", 0, -1},
		{"not a bracket", "abc", 0, -1},
		{"out of range", "{}", 5, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchBalanced(tt.src, tt.open), "matchBalanced(%q, %d)", tt.src, tt.open)
		})
	}
}

func TestScanCalls(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"sample main", `a=a.split("");a=fkr(a,59);a=a.slice(1);a=fkr(a,66);return a.join("")`, []string{"fkr"}},
		{"dollar names", "a=f$(12,34);b=f$(56,67)", []string{"f$"}},
		{"first seen order", "a=b(a);a=c(a);a=b(a,1)", []string{"b", "c"}},
		{"space before paren", "a=g (a,3)", []string{"g"}},
		{"method calls ignored", "a=x.y(2);a=a.reverse()", nil},
		{"keywords ignored", "if(a)return(a)", nil},
		{"calls in strings ignored", `a="q(1)";b='r(2)'`, nil},
		{"calls in comments ignored", "/* h(1) */a=k(a)", []string{"k"}},
		{"digit led words ignored", "a=9x(1)", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanCalls(tt.body))
		})
	}
}

func TestFindDefinition(t *testing.T) {
	tests := []struct {
		name   string
		script string
		fn     string
		params []string
		body   string
	}{
		{"declaration", "function  f$(x,y){var X=x[1];var Y=y[1];return X;}", "f$", []string{"x", "y"}, "var X=x[1];var Y=y[1];return X;"},
		{"var expression", "var k=function(a){return a};", "k", []string{"a"}, "return a"},
		{"object member", "var o={k:function(a,b){a.splice(0,b)},m:1};", "k", []string{"a", "b"}, "a.splice(0,b)"},
		{"nested blocks", "function n(a){if(a){a={b:{}}}return a}", "n", []string{"a"}, "if(a){a={b:{}}}return a"},
		{"no parameters", "function z(){return 1}", "z", []string{}, "return 1"},
		{"skips property assignment", "x.q=function(a){return 1};function q(a){return 2}", "q", []string{"a"}, "return 2"},
		{"regex literal in body", `function m(a){a=a.split("");var r=/}/;return a.join("")}`, "m", []string{"a"}, `a=a.split("");var r=/}/;return a.join("")`},
		{"whitespace trimmed", "function w( a ){ \n return a \n}", "w", []string{"a"}, "return a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := findDefinition(tt.script, tt.fn)
			require.NoError(t, err)
			assert.Equal(t, tt.fn, fn.Name)
			assert.Equal(t, tt.params, fn.Parameters)
			assert.Equal(t, tt.body, fn.Body)
		})
	}
}

func TestFindDefinitionErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		fn     string
		found  bool
	}{
		{"absent", "function other(a){return a}", "fkr", false},
		{"property only", "x.fkr=function(a){return a}", "fkr", false},
		{"prefix name", "function fkrx(a){return a}", "fkr", false},
		{"duplicate parameters", "function d(a,a){return a}", "d", true},
		{"destructured parameter", "function d({a}){return a}", "d", true},
		{"unbalanced body", "function u(a){return a", "u", true},
		{"missing body", "function u(a);", "u", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := findDefinition(tt.script, tt.fn)
			require.Error(t, err)
			var de *definitionError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.found, de.found)
		})
	}
}
