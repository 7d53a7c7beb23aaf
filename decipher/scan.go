package decipher

import (
	"fmt"
	"regexp"
	"strings"
)

var closers = map[byte]byte{'(': ')', '[': ']', '{': '}'}

var keywords = map[string]bool{
	"break": true, "case": true, "catch": true, "const": true, "continue": true,
	"delete": true, "do": true, "else": true, "for": true, "function": true,
	"if": true, "in": true, "instanceof": true, "let": true, "new": true,
	"of": true, "return": true, "switch": true, "throw": true, "try": true,
	"typeof": true, "var": true, "void": true, "while": true, "with": true,
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}

// skipLiteral returns the index just past the string literal, regular
// expression literal or comment that starts at i, or i when none starts
// there. Unterminated literals run to the end of src.
func skipLiteral(src string, i int) int {
	if i >= len(src) {
		return i
	}
	switch c := src[i]; c {
	case '"', '\'', '`':
		j := i + 1
		for j < len(src) {
			switch src[j] {
			case '\\':
				j += 2
				continue
			case c:
				return j + 1
			}
			j++
		}
		return len(src)
	case '/':
		if i+1 >= len(src) {
			return i
		}
		switch src[i+1] {
		case '/':
			if end := strings.IndexByte(src[i:], '\n'); end >= 0 {
				return i + end + 1
			}
			return len(src)
		case '*':
			if end := strings.Index(src[i+2:], "*/"); end >= 0 {
				return i + 2 + end + 2
			}
			return len(src)
		}
		if regexAllowed(src, i) {
			return regexEnd(src, i)
		}
	}
	return i
}

// regexKeywords may directly precede a regular expression literal.
var regexKeywords = map[string]bool{
	"case": true, "delete": true, "in": true, "instanceof": true, "new": true,
	"of": true, "return": true, "throw": true, "typeof": true, "void": true,
}

// regexAllowed reports whether a "/" at i opens a regular expression
// literal rather than a division, judged by the token before it.
func regexAllowed(src string, i int) bool {
	j := i - 1
	for j >= 0 && isSpace(src[j]) {
		j--
	}
	if j < 0 {
		return true
	}
	c := src[j]
	if c == ')' || c == ']' || c == '}' || c == '"' || c == '\'' || c == '`' {
		return false
	}
	if !isIdentPart(c) {
		return true
	}
	end := j + 1
	for j >= 0 && isIdentPart(src[j]) {
		j--
	}
	return regexKeywords[src[j+1:end]]
}

// regexEnd returns the index just past the regular expression literal at i,
// including its flags. A literal that is not closed on its own line runs to
// the end of src, so the enclosing brackets fail to balance.
func regexEnd(src string, i int) int {
	inClass := false
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '\n', '\r':
			return len(src)
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if inClass {
				continue
			}
			j++
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			return j
		}
	}
	return len(src)
}

// matchBalanced returns the index just past the bracket that closes
// src[open]. Nested (), [] and {} must pair up; string literals and comments
// are skipped. It returns -1 when the brackets do not balance.
func matchBalanced(src string, open int) int {
	if open >= len(src) {
		return -1
	}
	if _, ok := closers[src[open]]; !ok {
		return -1
	}
	stack := []byte{closers[src[open]]}
	for i := open + 1; i < len(src); {
		if j := skipLiteral(src, i); j != i {
			i = j
			continue
		}
		c := src[i]
		if closer, ok := closers[c]; ok {
			stack = append(stack, closer)
		} else if c == ')' || c == ']' || c == '}' {
			if stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1
			}
		}
		i++
	}
	return -1
}

func skipSpace(src string, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

// scanCalls returns the distinct names called as free functions in body, in
// first-seen order. Method calls (x.f()), keywords and names starting with a
// digit are ignored.
func scanCalls(body string) []string {
	var names []string
	seen := make(map[string]bool)
	prev := byte(0)
	for i := 0; i < len(body); {
		if j := skipLiteral(body, i); j != i {
			i, prev = j, '"'
			continue
		}
		c := body[i]
		if isSpace(c) {
			i++
			continue
		}
		if !isIdentPart(c) {
			i, prev = i+1, c
			continue
		}
		start := i
		for i < len(body) && isIdentPart(body[i]) {
			i++
		}
		word := body[start:i]
		after := skipSpace(body, i)
		if prev != '.' && isIdentStart(word[0]) && !keywords[word] &&
			after < len(body) && body[after] == '(' && !seen[word] {
			seen[word] = true
			names = append(names, word)
		}
		prev = 'a'
	}
	return names
}

// definitionHeaders builds the pattern locating the "(" that opens the
// parameter list of a definition of name.
func definitionHeaders(name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?:^|[^\w$.])(?:function\s+` + q + `\s*\(|` + q + `\s*[=:]\s*function\s*\()`)
}

type definitionError struct {
	found  bool
	reason string
}

func (e *definitionError) Error() string { return e.reason }

// findDefinition extracts the declaration of name from script. A
// definitionError with found=false means no header matched at all;
// found=true means a header matched but its parameters or body did not
// scan.
func findDefinition(script, name string) (*FunctionDescriptor, error) {
	locs := definitionHeaders(name).FindAllStringIndex(script, -1)
	if len(locs) == 0 {
		return nil, &definitionError{reason: fmt.Sprintf("no definition of %s", name)}
	}

	var lastReason string
	for _, loc := range locs {
		open := loc[1] - 1
		closeParams := matchBalanced(script, open)
		if closeParams < 0 {
			lastReason = fmt.Sprintf("unbalanced parameter list for %s at offset %d", name, open)
			continue
		}
		params, err := splitParameters(script[open+1 : closeParams-1])
		if err != nil {
			lastReason = fmt.Sprintf("%s: %v", name, err)
			continue
		}
		brace := skipSpace(script, closeParams)
		if brace >= len(script) || script[brace] != '{' {
			lastReason = fmt.Sprintf("no body after parameters of %s at offset %d", name, closeParams)
			continue
		}
		end := matchBalanced(script, brace)
		if end < 0 {
			lastReason = fmt.Sprintf("unbalanced body for %s at offset %d", name, brace)
			continue
		}
		return NewFunctionDescriptor(name, params, script[brace+1:end-1]), nil
	}
	return nil, &definitionError{found: true, reason: lastReason}
}

func splitParameters(list string) ([]string, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return []string{}, nil
	}
	parts := strings.Split(list, ",")
	params := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if !isIdentifier(p) || keywords[p] {
			return nil, fmt.Errorf("unsupported parameter %q", p)
		}
		if seen[p] {
			return nil, fmt.Errorf("duplicate parameter %q", p)
		}
		seen[p] = true
		params = append(params, p)
	}
	return params, nil
}
