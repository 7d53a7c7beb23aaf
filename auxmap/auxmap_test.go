package auxmap

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ytget/sigdecipher/errs"
)

func TestExtractMap(t *testing.T) {
	tests := []struct {
		name   string
		source string
		key    string
		want   []Entry
	}{
		{
			name:   "missing key in text",
			source: "bcd",
			key:    "a",
			want:   []Entry{},
		},
		{
			name:   "missing key in json",
			source: `{"b": 1}`,
			key:    "a",
			want:   []Entry{},
		},
		{
			name:   "json string value with dotted key",
			source: `{"streamingData": {"fmts": "itag=18&url=http%3A%2F%2Fx,itag=22&url=y"}}`,
			key:    "streamingData.fmts",
			want: []Entry{
				{{Name: "itag", Value: "18"}, {Name: "url", Value: "http://x"}},
				{{Name: "itag", Value: "22"}, {Name: "url", Value: "y"}},
			},
		},
		{
			name:   "json array of objects",
			source: `{"formats": [{"itag": 18, "url": "a"}, {"itag": 22, "sig": "s"}]}`,
			key:    "formats",
			want: []Entry{
				{{Name: "itag", Value: "18"}, {Name: "url", Value: "a"}},
				{{Name: "itag", Value: "22"}, {Name: "sig", Value: "s"}},
			},
		},
		{
			name:   "script object literal",
			source: `ytplayer.config = {args: {fmt_map: "itag=5&q=small,itag=6"}};`,
			key:    "fmt_map",
			want: []Entry{
				{{Name: "itag", Value: "5"}, {Name: "q", Value: "small"}},
				{{Name: "itag", Value: "6"}},
			},
		},
		{
			name:   "single quoted",
			source: `var m = {'smap': 'a=1&b=2'}`,
			key:    "smap",
			want:   []Entry{{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}},
		},
		{
			name:   "query string",
			source: "status=ok&url_encoded_fmt_stream_map=itag%3D18%26url%3Dx%2Citag%3D22&other=1",
			key:    "url_encoded_fmt_stream_map",
			want: []Entry{
				{{Name: "itag", Value: "18"}, {Name: "url", Value: "x"}},
				{{Name: "itag", Value: "22"}},
			},
		},
		{
			name:   "empty value",
			source: `{"fmts": ""}`,
			key:    "fmts",
			want:   []Entry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractMap(tt.source, tt.key)
			if err != nil {
				t.Fatalf("ExtractMap() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractMap() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractMapNonMapJSON(t *testing.T) {
	_, err := ExtractMap(`{"n": 5}`, "n")
	if !errors.Is(err, errs.ErrValueNotFound) {
		t.Errorf("expected ErrValueNotFound, got %v", err)
	}
}

func TestEntryGet(t *testing.T) {
	e := Entry{{Name: "itag", Value: "18"}, {Name: "itag", Value: "22"}}
	if v, ok := e.Get("itag"); !ok || v != "18" {
		t.Errorf("Get(itag) = %q, %v", v, ok)
	}
	if _, ok := e.Get("url"); ok {
		t.Error("Get(url) should be absent")
	}
}

func TestGetValue(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		key      string
		text     string
		isNumber bool
		number   float64
	}{
		{"json number", `{"length_seconds": 1838, "title": "T"}`, "length_seconds", "1838", true, 1838},
		{"json string", `{"length_seconds": 1838, "title": "T"}`, "title", "T", false, 0},
		{"json nested", `{"a": {"b": 3.5}}`, "a.b", "3.5", true, 3.5},
		{"script number", `var cfg={sts:19834,name:'x'}`, "sts", "19834", true, 19834},
		{"script string", `var cfg={sts:19834,name:'x'}`, "name", "x", false, 0},
		{"negative", `x = {"off": -12}; y`, "off", "-12", true, -12},
		{"escaped string", `cfg = {"url": "a\/b&c"};`, "url", "a/b&c", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetValue(tt.source, tt.key)
			if err != nil {
				t.Fatalf("GetValue() error = %v", err)
			}
			want := Value{Text: tt.text, IsNumber: tt.isNumber, Number: tt.number}
			if got != want {
				t.Errorf("GetValue() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestGetValueNotFound(t *testing.T) {
	tests := []struct {
		name   string
		source string
		key    string
	}{
		{"no digits", "88", "no_digits_here"},
		{"absent in text", "no_digits_here", "88"},
		{"object value", `{"a": {"b": 1}}`, "a"},
		{"bare token", "mode=fast&x=1", "mode"},
		{"array value", `{"a": [1]}`, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GetValue(tt.source, tt.key)
			if !errors.Is(err, errs.ErrValueNotFound) {
				t.Errorf("GetValue(%q, %q) error = %v, want ErrValueNotFound", tt.source, tt.key, err)
			}
		})
	}
}

func TestValueInt(t *testing.T) {
	if n, ok := (Value{IsNumber: true, Number: 42}).Int(); !ok || n != 42 {
		t.Errorf("Int() = %d, %v", n, ok)
	}
	if _, ok := (Value{IsNumber: true, Number: 1.5}).Int(); ok {
		t.Error("1.5 is not an integer")
	}
	if _, ok := (Value{Text: "7"}).Int(); ok {
		t.Error("strings are not numbers")
	}
}
