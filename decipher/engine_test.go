package decipher

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/sigdecipher/errs"
)

const sampleScript = `function mthr(a){a=a.split("");a=fkr(a,59);a=a.slice(1);a=fkr(a,66);a=a.slice(3);a=fkr(a,10);a=a.reverse();a=fkr(a,55);a=fkr(a,70);a=a.slice(1);return a.join("")};

function fkr(a,b){var c=a[0];a[0]=a[b%a.length];a[b]=c;return a};

z.sig||mthr(aaa.bbb)
`

const sampleKey = "player-1a2b3c"

func TestEngineSample(t *testing.T) {
	engine := New()
	table, err := engine.Resolve(sampleKey, sampleScript)
	require.NoError(t, err)

	assert.Equal(t, "mthr", table.Main.Name)
	assert.Equal(t, []string{"a"}, table.Main.Parameters)
	assert.Contains(t, table.Main.Body, "return")
	assert.Equal(t, []string{"fkr", "mthr"}, table.Names())

	fkr, ok := table.Lookup("fkr")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, fkr.Parameters)
	main, ok := table.Lookup(MainEntry)
	require.True(t, ok)
	assert.Same(t, table.Main, main)

	for i := 0; i < 3; i++ {
		got, err := engine.Decode(sampleKey, "1234567890")
		require.NoError(t, err)
		assert.Equal(t, "2109876752", got)
	}
}

func TestEngineExtractHelpersDollarName(t *testing.T) {
	js := "function  f$(x,y){var X=x[1];var Y=y[1];return X;}"
	main := NewFunctionDescriptor("main", []string{"a"}, "a=f$(12,34);b=f$(56,67)")

	table, err := ExtractHelpers(main, js)
	require.NoError(t, err)

	helpers := table.Helpers()
	require.Len(t, helpers, 1)
	assert.Equal(t, "f$", helpers[0].Name)
	assert.Equal(t, []string{"x", "y"}, helpers[0].Parameters)
	assert.Equal(t, "var X=x[1];var Y=y[1];return X;", helpers[0].Body)
	assert.Same(t, main, table.Main)
}

func TestEngineExtractHelpersTransitive(t *testing.T) {
	script := `function m(a){a=a.split("");a=p(a,1);return a.join("")}
var p=function(a,b){a=q(a);return a.slice(b)};
var o={q:function(a){a.reverse();return a}};
z.sig||m(x)`

	engine := New()
	table, err := engine.Resolve("transitive", script)
	require.NoError(t, err)
	assert.Equal(t, []string{"m", "p", "q"}, table.Names())

	got, err := engine.Decode("transitive", "abcd")
	require.NoError(t, err)
	assert.Equal(t, "cba", got)
}

func TestEngineLayoutChanges(t *testing.T) {
	tests := []struct {
		name   string
		script string
		decode string
	}{
		{
			name:   "unknown method",
			script: strings.Replace(sampleScript, "a=a.reverse()", "a=a.peverse()", 1),
			decode: ErrCodeUnsupportedConstruct,
		},
		{
			name:   "return removed",
			script: strings.Replace(sampleScript, "return ", "a=", 1),
			decode: ErrCodeMissingReturn,
		},
		{
			name:   "two parameter entry",
			script: strings.Replace(sampleScript, "function mthr(a)", "function mthr(a,b)", 1),
			decode: ErrCodeArityMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := New()
			_, err := engine.Resolve(tt.name, tt.script)
			require.NoError(t, err)

			got, err := engine.Decode(tt.name, "1234567890")
			require.Error(t, err, "decoded %q", got)
			assert.Equal(t, tt.decode, CodeOf(err), err.Error())
			assert.Empty(t, got)
		})
	}
}

func TestEngineHelperObjectIsLayoutError(t *testing.T) {
	script := `var Xy={ab:function(a,b){a.splice(0,b)},cd:function(a){a.reverse()}};
function m(a){a=a.split("");Xy.ab(a,2);Xy.cd(a);return a.join("")}
z.sig||m(x)`

	engine := New()
	_, err := engine.Resolve("object", script)
	require.NoError(t, err)

	_, err = engine.Decode("object", "abcdef")
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnsupportedConstruct, CodeOf(err))
	assert.True(t, IsLayoutError(err))
	assert.False(t, IsGrammarError(err))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Xy.ab(a,2)", e.Details)
}

func TestEngineResolveErrors(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		code     string
		sentinel error
	}{
		{"no pattern", "var x=1;", ErrCodeEntryNotFound, errs.ErrEntryNotFound},
		{"no definition", "z.sig||qq(x)", ErrCodeEntryBodyMalformed, errs.ErrEntryBodyMalformed},
		{"unbalanced entry", "function qq(a){a=a.split(\"\");return a.join(\"\")\nz.sig||qq(x)", ErrCodeEntryBodyMalformed, errs.ErrEntryBodyMalformed},
		{"unterminated regex", "function qq(a){var r=/}\nreturn a}\nz.sig||qq(x)", ErrCodeEntryBodyMalformed, errs.ErrEntryBodyMalformed},
		{"missing helper", "function qq(a){a=zz(a,1);return a}\nz.sig||qq(x)", ErrCodeHelperNotFound, errs.ErrHelperNotFound},
		{"malformed helper", "function qq(a){a=zz(a,1);return a}\nfunction zz(a,a){return a}\nz.sig||qq(x)", ErrCodeEntryBodyMalformed, errs.ErrEntryBodyMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := New()
			table, err := engine.Resolve(tt.name, tt.script)
			require.Error(t, err)
			assert.Nil(t, table)
			assert.Equal(t, tt.code, CodeOf(err))
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.True(t, IsLayoutError(err))

			assert.Equal(t, 0, engine.Cache().Len(), "failed resolves must not be cached")
			_, ok := engine.Lookup(tt.name)
			assert.False(t, ok)
		})
	}
}

func TestEngineHelperNotFoundNamesIdentifier(t *testing.T) {
	_, err := New().Resolve("k", "function qq(a){a=zz9(a,1);return a}\nz.sig||qq(x)")
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "zz9", e.Details)
}

func TestEngineResolveScansOnce(t *testing.T) {
	engine := New()
	first, err := engine.Resolve(sampleKey, sampleScript)
	require.NoError(t, err)
	second, err := engine.Resolve(sampleKey, sampleScript)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("tables differ (-first +second):\n%s", diff)
	}
	assert.Same(t, first, second)

	// A different script under a cached key is ignored.
	third, err := engine.Resolve(sampleKey, "garbage")
	require.NoError(t, err)
	assert.Same(t, first, third)

	stats := engine.Stats()
	assert.Equal(t, int64(1), stats.Scans)
	assert.Equal(t, int64(3), stats.Resolves)
	assert.Equal(t, int64(2), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
}

func TestEngineUnknownVersion(t *testing.T) {
	engine := New()
	_, err := engine.Decode("never-resolved", "1234567890")
	require.Error(t, err)
	assert.True(t, IsUnknownVersion(err))
	assert.True(t, errors.Is(err, errs.ErrUnknownVersion))
	assert.Equal(t, int64(0), engine.Stats().Scans)
}

func TestEngineConcurrentResolve(t *testing.T) {
	engine := New()
	const workers = 16

	tables := make([]*FunctionTable, workers)
	outputs := make([]string, workers)
	errCh := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			table, err := engine.Resolve(sampleKey, sampleScript)
			if err != nil {
				errCh <- err
				return
			}
			tables[i] = table
			out, err := engine.Decode(sampleKey, "1234567890")
			if err != nil {
				errCh <- err
				return
			}
			outputs[i] = out
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	for i := range tables {
		assert.Same(t, tables[0], tables[i])
		assert.Equal(t, "2109876752", outputs[i])
	}
	assert.Equal(t, int64(1), engine.Stats().Scans)
}

func TestEngineSharedCache(t *testing.T) {
	vc := NewVersionCache()
	a := NewWith(Config{Cache: vc})
	b := NewWith(Config{Cache: vc, MaxDepth: 8})

	_, err := a.Resolve(sampleKey, sampleScript)
	require.NoError(t, err)

	got, err := b.Decode(sampleKey, "1234567890")
	require.NoError(t, err)
	assert.Equal(t, "2109876752", got)
	assert.Equal(t, int64(0), b.Stats().Scans)
	assert.Equal(t, []string{sampleKey}, vc.Keys())
}

func TestEngineCustomPatterns(t *testing.T) {
	patterns, err := NewPatternTable(Pattern{Name: "run", Expr: `run\((?<sig>[\w$]+)\)`})
	require.NoError(t, err)
	engine := NewWith(Config{Patterns: patterns, MatchTimeout: 500 * time.Millisecond})

	script := strings.Replace(sampleScript, "z.sig||mthr(aaa.bbb)", "run(mthr)", 1)
	_, err = engine.Resolve("custom", script)
	require.NoError(t, err)
	got, err := engine.Decode("custom", "1234567890")
	require.NoError(t, err)
	assert.Equal(t, "2109876752", got)

	_, err = New().Resolve("custom", "run(mthr)")
	assert.Equal(t, ErrCodeEntryNotFound, CodeOf(err))
}

func TestEngineStats(t *testing.T) {
	engine := New()
	_, err := engine.Resolve(sampleKey, sampleScript)
	require.NoError(t, err)

	_, err = engine.Decode(sampleKey, "1234567890")
	require.NoError(t, err)
	_, err = engine.Decode("missing", "1234567890")
	require.Error(t, err)

	stats := engine.Stats()
	assert.Equal(t, int64(2), stats.Decodes)
	assert.Equal(t, int64(1), stats.Failures)
	assert.GreaterOrEqual(t, stats.TotalDecodeTime, stats.AverageDecodeTime)
	t.Logf("Total decode time: %v", stats.TotalDecodeTime)
	t.Logf("Average decode time: %v", stats.AverageDecodeTime)
}
