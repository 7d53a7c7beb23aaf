package decipher

import (
	"slices"
	"sort"
	"strings"
	"sync"
)

// MainEntry is the reserved name under which a FunctionTable exposes its
// entry function. It is looked up before any name-keyed function.
const MainEntry = "mainfunction"

// FunctionDescriptor is one extracted function. Name, Parameters and Body are
// fixed at extraction; the statement list is parsed from Body on first use
// and reused afterwards.
type FunctionDescriptor struct {
	Name       string
	Parameters []string
	Body       string

	once     sync.Once
	stmts    []Statement
	parseErr error
}

// NewFunctionDescriptor returns a descriptor with a trimmed body.
func NewFunctionDescriptor(name string, params []string, body string) *FunctionDescriptor {
	return &FunctionDescriptor{
		Name:       name,
		Parameters: slices.Clone(params),
		Body:       strings.TrimSpace(body),
	}
}

// Statements parses Body once and returns the cached statement list.
func (d *FunctionDescriptor) Statements() ([]Statement, error) {
	d.once.Do(func() {
		d.stmts, d.parseErr = parseBody(d.Body)
	})
	return d.stmts, d.parseErr
}

// Equal compares the extracted text of two descriptors.
func (d *FunctionDescriptor) Equal(o *FunctionDescriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Name == o.Name && d.Body == o.Body && slices.Equal(d.Parameters, o.Parameters)
}

// Source renders the descriptor as a JavaScript function declaration.
func (d *FunctionDescriptor) Source() string {
	return "function " + d.Name + "(" + strings.Join(d.Parameters, ",") + "){" + d.Body + "}"
}

// FunctionTable holds the functions of one script version.
type FunctionTable struct {
	Main      *FunctionDescriptor
	Functions map[string]*FunctionDescriptor
}

func newFunctionTable(main *FunctionDescriptor) *FunctionTable {
	return &FunctionTable{
		Main:      main,
		Functions: map[string]*FunctionDescriptor{main.Name: main},
	}
}

// Lookup returns the function called name. MainEntry always yields Main.
func (t *FunctionTable) Lookup(name string) (*FunctionDescriptor, bool) {
	if name == MainEntry {
		return t.Main, t.Main != nil
	}
	fn, ok := t.Functions[name]
	return fn, ok
}

// Helpers returns every function except Main, sorted by name.
func (t *FunctionTable) Helpers() []*FunctionDescriptor {
	out := make([]*FunctionDescriptor, 0, len(t.Functions))
	for _, name := range t.Names() {
		if fn := t.Functions[name]; fn != t.Main {
			out = append(out, fn)
		}
	}
	return out
}

// Names returns the name-keyed entries in sorted order.
func (t *FunctionTable) Names() []string {
	names := make([]string, 0, len(t.Functions))
	for name := range t.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both tables hold the same extracted functions.
func (t *FunctionTable) Equal(o *FunctionTable) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !t.Main.Equal(o.Main) || len(t.Functions) != len(o.Functions) {
		return false
	}
	for name, fn := range t.Functions {
		if !fn.Equal(o.Functions[name]) {
			return false
		}
	}
	return true
}

// Source renders the table as standalone JavaScript, main first.
func (t *FunctionTable) Source() string {
	var b strings.Builder
	b.WriteString(t.Main.Source())
	b.WriteString(";\n")
	for _, fn := range t.Helpers() {
		b.WriteString(fn.Source())
		b.WriteString(";\n")
	}
	return b.String()
}
