package decipher

import (
	"time"

	"github.com/ytget/sigdecipher/internal/logger"
)

// Config holds optional engine parameters. Zero values use defaults.
type Config struct {
	// MaxDepth caps nested helper calls. Default DefaultMaxDepth.
	MaxDepth int
	// MatchTimeout aborts one entry-pattern match. Default 2s.
	MatchTimeout time.Duration
	// Patterns is the entry pattern table. Default DefaultPatterns().
	Patterns *PatternTable
	// Cache stores resolved versions. Default a private NewVersionCache().
	Cache *VersionCache
	// Logger receives engine logs. Default the global logger.
	Logger *logger.Logger
}

// Engine resolves script versions into function tables and decodes tokens
// against them. It is safe for concurrent use.
type Engine struct {
	maxDepth int
	patterns *PatternTable
	cache    *VersionCache
	locator  *Locator

	log       *logger.ComponentLogger
	extractor *logger.ComponentLogger
	interp    *logger.ComponentLogger
	cacheLog  *logger.ComponentLogger

	metrics metrics
}

// New creates an Engine with default settings and its own cache.
func New() *Engine {
	return NewWith(Config{})
}

// NewWith creates an Engine with the provided config. Zero values use defaults.
func NewWith(cfg Config) *Engine {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	patterns := cfg.Patterns
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	if cfg.MatchTimeout > 0 {
		patterns = patterns.WithTimeout(cfg.MatchTimeout)
	}
	vc := cfg.Cache
	if vc == nil {
		vc = NewVersionCache()
	}
	l := cfg.Logger
	if l == nil {
		l = logger.GetGlobalLogger()
	}

	return &Engine{
		maxDepth:  maxDepth,
		patterns:  patterns,
		cache:     vc,
		locator:   &Locator{patterns: patterns, log: l.WithComponent(logger.ComponentLocator)},
		log:       l.WithComponent(logger.ComponentEngine),
		extractor: l.WithComponent(logger.ComponentExtractor),
		interp:    l.WithComponent(logger.ComponentInterpreter),
		cacheLog:  l.WithComponent(logger.ComponentCache),
	}
}

// Cache returns the engine's version cache.
func (e *Engine) Cache() *VersionCache { return e.cache }

// Patterns returns the engine's entry pattern table.
func (e *Engine) Patterns() *PatternTable { return e.patterns }

// Resolve returns the function table for versionKey, scanning script only
// when the version is not cached yet.
func (e *Engine) Resolve(versionKey, script string) (*FunctionTable, error) {
	e.metrics.resolves.Add(1)

	table, built, err := e.cache.Populate(versionKey, func() (*FunctionTable, error) {
		e.metrics.scans.Add(1)
		main, err := e.locator.Locate(script)
		if err != nil {
			return nil, err
		}
		return extractHelpers(main, script, e.extractor)
	})
	if err != nil {
		e.metrics.cacheMisses.Add(1)
		e.log.Warn("resolve failed", logger.Fields{"version": versionKey, "code": CodeOf(err), "error": err.Error()})
		return nil, err
	}
	if !built {
		e.metrics.cacheHits.Add(1)
		e.cacheLog.Trace("version cache hit", logger.Fields{"version": versionKey})
		return table, nil
	}

	e.metrics.cacheMisses.Add(1)
	e.log.Info("version resolved", logger.Fields{
		"version": versionKey,
		"entry":   table.Main.Name,
		"helpers": len(table.Functions) - 1,
	})
	return table, nil
}

// Lookup returns the cached table for versionKey without scanning.
func (e *Engine) Lookup(versionKey string) (*FunctionTable, bool) {
	return e.cache.Get(versionKey)
}

// Decode deciphers token with the table previously resolved for versionKey.
func (e *Engine) Decode(versionKey, token string) (string, error) {
	start := time.Now()
	table, ok := e.cache.Get(versionKey)
	if !ok {
		err := NewError(ErrCodeUnknownVersion, "version was never resolved", versionKey)
		e.metrics.observeDecode(time.Since(start), err)
		return "", err
	}
	out, err := e.decode(table, token)
	e.metrics.observeDecode(time.Since(start), err)
	if err != nil {
		e.log.Debug("decode failed", logger.Fields{"version": versionKey, "code": CodeOf(err), "error": err.Error()})
	}
	return out, err
}

// DecodeWith deciphers token with table directly, bypassing the cache.
func (e *Engine) DecodeWith(table *FunctionTable, token string) (string, error) {
	start := time.Now()
	out, err := e.decode(table, token)
	e.metrics.observeDecode(time.Since(start), err)
	return out, err
}

func (e *Engine) decode(table *FunctionTable, token string) (string, error) {
	main, ok := table.Lookup(MainEntry)
	if !ok {
		return "", NewError(ErrCodeEntryNotFound, "table has no entry function")
	}
	if len(main.Parameters) != 1 {
		return "", newErrorf(ErrCodeArityMismatch, "entry %s takes %d parameters, want 1", main.Name, len(main.Parameters))
	}

	in := &interpreter{table: table, maxDepth: e.maxDepth, log: e.interp}
	env := Env{main.Parameters[0]: StringValue(token)}
	v, err := in.run(main, env, 0)
	if err != nil {
		return "", err
	}
	out, ok := v.Text()
	if !ok {
		return "", unsupported(main.Name, "entry returned a "+v.Kind().String())
	}
	return out, nil
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats { return e.metrics.snapshot() }
