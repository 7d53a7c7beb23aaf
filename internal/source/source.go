// Package source loads player script text for the decipher engine and keeps
// an archive of scripts by version key.
package source

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/andybalholm/brotli"
)

// BrotliExt marks script files stored brotli-compressed.
const BrotliExt = ".br"

var playerPathRe = regexp.MustCompile(`/s/player/([A-Za-z0-9_-]+)/`)

// Load reads a script file. Files ending in BrotliExt are decompressed.
func Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open script %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Read(f, strings.HasSuffix(path, BrotliExt))
}

// Read returns all of r as script text, decompressing it first when
// compressed is set.
func Read(r io.Reader, compressed bool) (string, error) {
	if compressed {
		r = brotli.NewReader(r)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(b), nil
}

// Compress returns script brotli-encoded at the default quality.
func Compress(script string) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := io.WriteString(w, script); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// VersionKey derives a version key from a player script URL. Player URLs
// carry the revision as /s/player/<id>/; the key is the id plus the rest of
// the path, so variants of one revision stay distinct. Other URLs key on
// their path. Query strings and hosts are ignored.
func VersionKey(playerURL string) string {
	u, err := url.Parse(playerURL)
	path := playerURL
	if err == nil {
		path = u.Path
	}
	if loc := playerPathRe.FindStringSubmatchIndex(path); loc != nil {
		return path[loc[2]:loc[3]] + "/" + path[loc[1]:]
	}
	return path
}

// ContentKey derives a version key from script text, for scripts whose URL
// is unknown.
func ContentKey(script string) string {
	h := sha1.Sum([]byte(script))
	return "sha1-" + hex.EncodeToString(h[:8])
}
