// Package sigdecipher deciphers stream-access tokens with the transform
// found in a video platform's player script.
//
// The package-level functions share one process-wide engine, so a script
// version resolved anywhere in the process is reused by every caller:
//
//	if err := sigdecipher.ResolveURL(playerURL, playerJS); err != nil {
//		return err
//	}
//	sig, err := sigdecipher.DecodeURL(playerURL, ciphered)
//
// Fetching the player script is the caller's job.
package sigdecipher

import (
	"sync"

	"github.com/ytget/sigdecipher/decipher"
	"github.com/ytget/sigdecipher/internal/source"
)

var (
	defaultMu     sync.RWMutex
	defaultEngine = decipher.New()
)

// Default returns the process-wide engine.
func Default() *decipher.Engine {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultEngine
}

// SetDefault replaces the process-wide engine and returns the previous one.
// Versions resolved by the previous engine are not carried over unless both
// share a VersionCache.
func SetDefault(e *decipher.Engine) *decipher.Engine {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultEngine
	defaultEngine = e
	return prev
}

// Resolve parses script for versionKey on the default engine.
func Resolve(versionKey, script string) error {
	_, err := Default().Resolve(versionKey, script)
	return err
}

// Decode deciphers token on the default engine.
func Decode(versionKey, token string) (string, error) {
	return Default().Decode(versionKey, token)
}

// ResolveURL is Resolve keyed by the version embedded in playerURL.
func ResolveURL(playerURL, script string) error {
	return Resolve(source.VersionKey(playerURL), script)
}

// DecodeURL is Decode keyed by the version embedded in playerURL.
func DecodeURL(playerURL, token string) (string, error) {
	return Decode(source.VersionKey(playerURL), token)
}
