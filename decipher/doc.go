/*
Package decipher reverses the stream-token transform shipped in a video
platform's obfuscated player script.

The package never executes the script. It finds the transform's entry
function with a table of structural patterns, extracts the entry and every
helper it calls with a brace-balancing scanner, parses the bodies into a small
statement AST and interprets that AST against a token.

# Architecture

1. Locator
  - Ordered PatternTable, first match wins
  - Patterns are regexp2 expressions with a (?<sig>...) group
  - LoadPatterns reads extra patterns from JSON; Append keeps old ones

2. Extractor
  - Free calls in a body are resolved against the whole script
  - Helpers calling helpers are followed until the table is closed
  - A call with no declaration is a HELPER_NOT_FOUND error

3. Interpreter
  - Values are strings, shared character arrays or integers
  - split, join, reverse, slice, splice and length
  - The hold/overwrite/restore element swap is fused into one statement
  - Nested calls bind numeric literals and names positionally

4. Cache
  - VersionCache maps a version key to its FunctionTable
  - Entries never expire; each key is scanned at most once per cache
  - Readers do not take the populate lock

# Usage

	engine := decipher.New()
	if _, err := engine.Resolve(versionKey, playerJS); err != nil {
		return err
	}
	token, err := engine.Decode(versionKey, ciphered)

Sharing one cache between engines:

	vc := decipher.NewVersionCache()
	a := decipher.NewWith(decipher.Config{Cache: vc})
	b := decipher.NewWith(decipher.Config{Cache: vc, MaxDepth: 8})

Error handling:

	if err != nil {
		switch {
		case decipher.IsUnknownVersion(err):
			// Resolve the version first
		case decipher.IsLayoutError(err):
			// The script layout changed; a new pattern or grammar rule is needed
		case errors.Is(err, errs.ErrArityMismatch):
			// Call site and declaration disagree
		}
	}

# Metrics

Engine.Stats reports resolve, cache hit/miss, scan, decode and failure counts
plus total and average decode time.
*/
package decipher
