package decipher

import (
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind tags a Value.
type Kind int

const (
	KindString Kind = iota
	KindArray
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindNumber:
		return "number"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// charArray is the mutable working view of a token. Values holding the same
// *charArray alias it, as arrays do in the scripts being interpreted.
type charArray struct {
	elems []string
}

// Value is a string, a character array or an integer.
type Value struct {
	kind Kind
	str  string
	arr  *charArray
	num  int
}

// StringValue returns an immutable character sequence.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue returns an integer value.
func NumberValue(n int) Value { return Value{kind: KindNumber, num: n} }

func arrayValue(elems []string) Value {
	return Value{kind: KindArray, arr: &charArray{elems: elems}}
}

// Kind reports the value's variant.
func (v Value) Kind() Kind { return v.kind }

// Number returns the integer and whether v is a number.
func (v Value) Number() (int, bool) { return v.num, v.kind == KindNumber }

// Text returns strings as-is and arrays joined without a separator.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindArray:
		return strings.Join(v.arr.elems, ""), true
	}
	return "", false
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.Itoa(v.num)
	case KindArray:
		return "[" + strings.Join(v.arr.elems, ",") + "]"
	}
	return strconv.Quote(v.str)
}

// length is the element count of a string or array.
func (v Value) length() (int, bool) {
	switch v.kind {
	case KindString:
		return len(splitChars(v.str)), true
	case KindArray:
		return len(v.arr.elems), true
	}
	return 0, false
}

// element returns the i-th character of a string or array.
func (v Value) element(i int) (string, bool) {
	var elems []string
	switch v.kind {
	case KindString:
		elems = splitChars(v.str)
	case KindArray:
		elems = v.arr.elems
	default:
		return "", false
	}
	if i < 0 || i >= len(elems) {
		return "", false
	}
	return elems[i], true
}

// set writes elems[i]. Writing at or past the end appends; holes are not
// modelled.
func (a *charArray) set(i int, s string) bool {
	switch {
	case i < 0:
		return false
	case i < len(a.elems):
		a.elems[i] = s
	default:
		a.elems = append(a.elems, s)
	}
	return true
}

// splitChars splits s into characters. Valid UTF-8 splits by rune; anything
// else splits by byte so joining the parts gives back s unchanged.
func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	if !utf8.ValidString(s) {
		for i := 0; i < len(s); i++ {
			out = append(out, s[i:i+1])
		}
		return out
	}
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// sliceBounds clamps start and end the way Array.prototype.slice does.
func sliceBounds(n, start, end int) (int, int) {
	clamp := func(i int) int {
		if i < 0 {
			i += n
		}
		return max(0, min(i, n))
	}
	start, end = clamp(start), clamp(end)
	if end < start {
		end = start
	}
	return start, end
}

// Env binds parameter and local names to values.
type Env map[string]Value

// Clone copies the bindings. Arrays stay shared.
func (e Env) Clone() Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Names returns the bound names in sorted order.
func (e Env) Names() []string {
	names := make([]string, 0, len(e))
	for k := range e {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
