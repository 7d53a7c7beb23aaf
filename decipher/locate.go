package decipher

import (
	"github.com/ytget/sigdecipher/internal/logger"
)

// Locator finds the entry transform in script text.
type Locator struct {
	patterns *PatternTable
	log      *logger.ComponentLogger
}

// NewLocator returns a Locator over patterns. A nil table uses
// DefaultPatterns.
func NewLocator(patterns *PatternTable) *Locator {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &Locator{patterns: patterns, log: logger.WithComponent(logger.ComponentLocator)}
}

// Locate returns the entry function named by the first matching pattern.
func (l *Locator) Locate(script string) (*FunctionDescriptor, error) {
	name, pattern, err := l.patterns.match(script)
	if err != nil {
		return nil, NewError(ErrCodeEntryNotFound, "pattern match aborted", err.Error())
	}
	if name == "" {
		l.log.Debug("no entry pattern matched", logger.Fields{"patterns": l.patterns.Len(), "script_len": len(script)})
		return nil, NewError(ErrCodeEntryNotFound, "no entry pattern matched", l.patterns.Len())
	}
	l.log.Debug("entry pattern matched", logger.Fields{"pattern": pattern, "name": name})

	fn, err := findDefinition(script, name)
	if err != nil {
		return nil, NewError(ErrCodeEntryBodyMalformed, err.Error(), name)
	}
	return fn, nil
}
