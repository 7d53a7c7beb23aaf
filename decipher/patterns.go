package decipher

import (
	"fmt"
	"io"
	"slices"
	"time"

	simplejson "github.com/bitly/go-simplejson"
	"github.com/dlclark/regexp2"
)

// EntryGroup is the named group every entry pattern must capture.
const EntryGroup = "sig"

const defaultMatchTimeout = 2 * time.Second

// Pattern recognises one observed way the platform calls or declares the
// entry transform. Expr is a regexp2 expression with a (?<sig>...) group.
type Pattern struct {
	Name string `json:"name"`
	Expr string `json:"expr"`
}

// defaultPatterns are tried in order and the first match wins. New layouts
// are appended; old ones stay so archived scripts still resolve.
var defaultPatterns = []Pattern{
	{Name: "set-encode-cs", Expr: `\b[cs]\s*&&\s*[adf]\.set\([^,]+\s*,\s*encodeURIComponent\s*\(\s*(?<sig>[a-zA-Z0-9$]+)\(`},
	{Name: "set-encode", Expr: `\b[a-zA-Z0-9]+\s*&&\s*[a-zA-Z0-9]+\.set\([^,]+\s*,\s*encodeURIComponent\s*\(\s*(?<sig>[a-zA-Z0-9$]+)\(`},
	{Name: "split-assign", Expr: `\b(?<sig>[a-zA-Z0-9$]{2,})\s*=\s*function\(\s*(?<arg>[a-zA-Z0-9$]+)\s*\)\s*\{\s*\k<arg>\s*=\s*\k<arg>\.split\(\s*""\s*\)`},
	{Name: "split-declaration", Expr: `\bfunction\s+(?<sig>[a-zA-Z0-9$]+)\s*\(\s*(?<arg>[a-zA-Z0-9$]+)\s*\)\s*\{\s*\k<arg>\s*=\s*\k<arg>\.split\(\s*""\s*\)`},
	{Name: "signature-literal", Expr: `(?<q>["'])signature\k<q>\s*,\s*(?<sig>[a-zA-Z0-9$]+)\(`},
	{Name: "sig-or", Expr: `\.sig\|\|(?<sig>[a-zA-Z0-9$]+)\(`},
	{Name: "token-assign", Expr: `\b[a-zA-Z0-9$]+\s*=\s*(?<sig>[a-zA-Z0-9$]+)\(\s*decodeURIComponent\(`},
}

// PatternTable is an immutable, ordered set of compiled entry patterns.
type PatternTable struct {
	patterns []Pattern
	compiled []*regexp2.Regexp
	timeout  time.Duration
}

// NewPatternTable compiles patterns in order. Every pattern needs a
// non-empty name and a "sig" group.
func NewPatternTable(patterns ...Pattern) (*PatternTable, error) {
	t := &PatternTable{timeout: defaultMatchTimeout}
	return t.Append(patterns...)
}

// DefaultPatterns returns a table of the built-in historical patterns.
func DefaultPatterns() *PatternTable {
	t, err := NewPatternTable(defaultPatterns...)
	if err != nil {
		panic(fmt.Sprintf("decipher: built-in pattern table: %v", err))
	}
	return t
}

// Append returns a new table with patterns compiled after the existing ones.
func (t *PatternTable) Append(patterns ...Pattern) (*PatternTable, error) {
	out := &PatternTable{
		patterns: slices.Clone(t.patterns),
		compiled: slices.Clone(t.compiled),
		timeout:  t.timeout,
	}
	for _, p := range patterns {
		re, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		re.MatchTimeout = out.timeout
		out.patterns = append(out.patterns, p)
		out.compiled = append(out.compiled, re)
	}
	return out, nil
}

// WithTimeout returns a copy whose patterns abort a single match after d.
func (t *PatternTable) WithTimeout(d time.Duration) *PatternTable {
	if d <= 0 {
		d = defaultMatchTimeout
	}
	out, err := (&PatternTable{timeout: d}).Append(t.patterns...)
	if err != nil {
		// t's patterns already compiled once.
		panic(fmt.Sprintf("decipher: recompile pattern table: %v", err))
	}
	return out
}

// Patterns returns the table's patterns in match order.
func (t *PatternTable) Patterns() []Pattern { return slices.Clone(t.patterns) }

// Len returns the number of patterns.
func (t *PatternTable) Len() int { return len(t.patterns) }

func compilePattern(p Pattern) (*regexp2.Regexp, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("pattern %q: missing name", p.Expr)
	}
	re, err := regexp2.Compile(p.Expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("pattern %s: %w", p.Name, err)
	}
	if !slices.Contains(re.GetGroupNames(), EntryGroup) {
		return nil, fmt.Errorf("pattern %s: no (?<%s>...) group", p.Name, EntryGroup)
	}
	return re, nil
}

// LoadPatterns reads a pattern document of the form
//
//	{"patterns": [{"name": "...", "expr": "..."}]}
//
// and compiles it into a new table, preserving document order.
func LoadPatterns(r io.Reader) (*PatternTable, error) {
	doc, err := simplejson.NewFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse pattern document: %w", err)
	}
	list, ok := doc.CheckGet("patterns")
	if !ok {
		return nil, fmt.Errorf("pattern document has no \"patterns\" list")
	}
	items, err := list.Array()
	if err != nil {
		return nil, fmt.Errorf("\"patterns\" is not a list: %w", err)
	}

	patterns := make([]Pattern, 0, len(items))
	for i := range items {
		item := list.GetIndex(i)
		expr, err := item.Get("expr").String()
		if err != nil {
			return nil, fmt.Errorf("pattern %d: \"expr\" must be a string", i)
		}
		name := item.Get("name").MustString(fmt.Sprintf("pattern-%d", i))
		patterns = append(patterns, Pattern{Name: name, Expr: expr})
	}
	return NewPatternTable(patterns...)
}

// match returns the entry name captured by the first matching pattern.
func (t *PatternTable) match(script string) (name string, pattern string, err error) {
	for i, re := range t.compiled {
		m, err := re.FindStringMatch(script)
		if err != nil {
			return "", t.patterns[i].Name, fmt.Errorf("pattern %s: %w", t.patterns[i].Name, err)
		}
		if m == nil {
			continue
		}
		if g := m.GroupByName(EntryGroup); g != nil && g.Length > 0 {
			return g.String(), t.patterns[i].Name, nil
		}
	}
	return "", "", nil
}
