// Package auxmap mines key/value data from the JSON and script blobs that
// sit next to the player script, such as stream maps and numeric config
// values.
package auxmap

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/valyala/fastjson"

	"github.com/ytget/sigdecipher/errs"
	"github.com/ytget/sigdecipher/internal/logger"
)

// Field is one name/value pair of a map entry, in source order.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Entry is one element of a comma-separated map.
type Entry []Field

// Get returns the first value for name.
func (e Entry) Get(name string) (string, bool) {
	for _, f := range e {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Value is a scalar found under a key.
type Value struct {
	Text     string  `json:"text"`
	Number   float64 `json:"number,omitempty"`
	IsNumber bool    `json:"is_number"`
}

// Int returns the value as an integer when it is a whole number.
func (v Value) Int() (int, bool) {
	if !v.IsNumber || v.Number != float64(int(v.Number)) {
		return 0, false
	}
	return int(v.Number), true
}

var jsUnescaper = strings.NewReplacer(`\/`, `/`, `\'`, `'`)

// ExtractMap returns the entries of the comma-separated map stored under
// key. JSON sources are walked with dotted keys; anything else is scanned
// for key:"value", key='value' or key=value. Each element is decoded as a
// URL query. A missing key yields no entries and no error.
func ExtractMap(source, key string) ([]Entry, error) {
	log := logger.WithComponent(logger.ComponentAuxMap)

	if doc, err := fastjson.Parse(source); err == nil {
		v := doc.Get(strings.Split(key, ".")...)
		if v == nil {
			log.Debug("map key absent", logger.Fields{"key": key, "source": "json"})
			return []Entry{}, nil
		}
		return jsonEntries(v)
	}

	m, err := keyPattern(key).FindStringMatch(source)
	if err != nil {
		return nil, fmt.Errorf("scan for %s: %w", key, err)
	}
	if m == nil {
		log.Debug("map key absent", logger.Fields{"key": key, "source": "text"})
		return []Entry{}, nil
	}
	if s, ok := quoted(m); ok {
		return splitMap(s), nil
	}
	raw := group(m, "num") + group(m, "bare")
	if unescaped, err := url.QueryUnescape(raw); err == nil {
		raw = unescaped
	}
	return splitMap(raw), nil
}

// GetValue returns the number or string stored under key. It fails with
// errs.ErrValueNotFound when key is absent or holds anything else.
func GetValue(source, key string) (Value, error) {
	if doc, err := fastjson.Parse(source); err == nil {
		v := doc.Get(strings.Split(key, ".")...)
		if v != nil {
			switch v.Type() {
			case fastjson.TypeNumber:
				f, err := v.Float64()
				if err == nil {
					return Value{Text: v.String(), Number: f, IsNumber: true}, nil
				}
			case fastjson.TypeString:
				return Value{Text: string(v.GetStringBytes())}, nil
			}
		}
		return Value{}, fmt.Errorf("%w: %s", errs.ErrValueNotFound, key)
	}

	m, err := keyPattern(key).FindStringMatch(source)
	if err != nil {
		return Value{}, fmt.Errorf("scan for %s: %w", key, err)
	}
	if m != nil {
		if s, ok := quoted(m); ok {
			return Value{Text: s}, nil
		}
		if num := group(m, "num"); num != "" {
			f, err := strconv.ParseFloat(num, 64)
			if err == nil {
				return Value{Text: num, Number: f, IsNumber: true}, nil
			}
		}
	}
	return Value{}, fmt.Errorf("%w: %s", errs.ErrValueNotFound, key)
}

func jsonEntries(v *fastjson.Value) ([]Entry, error) {
	switch v.Type() {
	case fastjson.TypeString:
		return splitMap(string(v.GetStringBytes())), nil
	case fastjson.TypeArray:
		items, _ := v.Array()
		out := make([]Entry, 0, len(items))
		for _, item := range items {
			switch item.Type() {
			case fastjson.TypeString:
				out = append(out, parseEntry(string(item.GetStringBytes())))
			case fastjson.TypeObject:
				out = append(out, objectEntry(item))
			}
		}
		return out, nil
	case fastjson.TypeObject:
		return []Entry{objectEntry(v)}, nil
	}
	return nil, fmt.Errorf("%w: map value is a %s", errs.ErrValueNotFound, v.Type())
}

func objectEntry(v *fastjson.Value) Entry {
	obj, _ := v.Object()
	entry := Entry{}
	obj.Visit(func(k []byte, fv *fastjson.Value) {
		value := fv.String()
		if fv.Type() == fastjson.TypeString {
			value = string(fv.GetStringBytes())
		}
		entry = append(entry, Field{Name: string(k), Value: value})
	})
	return entry
}

func splitMap(s string) []Entry {
	out := []Entry{}
	for _, part := range strings.Split(s, ",") {
		if e := parseEntry(part); len(e) > 0 {
			out = append(out, e)
		}
	}
	return out
}

// parseEntry decodes a URL query keeping field order.
func parseEntry(s string) Entry {
	entry := Entry{}
	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		if n, err := url.QueryUnescape(name); err == nil {
			name = n
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		entry = append(entry, Field{Name: name, Value: value})
	}
	return entry
}

// keyPattern matches the last segment of key followed by ":" or "=" and a
// quoted string, a number or a bare token.
func keyPattern(key string) *regexp2.Regexp {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	re := regexp2.MustCompile(
		`(?:^|[^\w$])["']?`+regexp2.Escape(key)+`["']?\s*[:=]\s*`+
			`(?:"(?<dq>(?:[^"\\]|\\.)*)"|'(?<sq>(?:[^'\\]|\\.)*)'|(?<num>-?\d+(?:\.\d+)?)(?![\w.])|(?<bare>[^&;,\s"'}\]]+))`,
		regexp2.None)
	return re
}

func group(m *regexp2.Match, name string) string {
	if g := m.GroupByName(name); g != nil && g.Length > 0 {
		return g.String()
	}
	return ""
}

// quoted returns the unescaped string literal of a match, if it had one.
func quoted(m *regexp2.Match) (string, bool) {
	for _, name := range []string{"dq", "sq"} {
		g := m.GroupByName(name)
		if g == nil || len(g.Captures) == 0 {
			continue
		}
		raw := g.String()
		if s, err := strconv.Unquote(`"` + jsUnescaper.Replace(raw) + `"`); err == nil {
			return s, true
		}
		return raw, true
	}
	return "", false
}
