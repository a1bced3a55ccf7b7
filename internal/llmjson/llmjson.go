// Package llmjson repairs generative-model output into parseable JSON.
//
// Models asked for "only JSON" still routinely wrap their answer in markdown
// code fences, prepend prose, or trail commentary. This package strips the
// fences and extracts the first balanced JSON object or array so callers can
// attempt a strict parse. It never guesses at content: when no balanced
// candidate exists the extract functions return "", and the caller applies
// its deterministic fallback.
package llmjson

import "strings"

// fenceMarkers are the markdown fence variants commonly emitted by models,
// longest first so "```json" is removed before "```". Only triple-backtick
// fences: single backticks are inline code spans inside question text and
// must survive untouched.
var fenceMarkers = []string{"```json", "```JSON", "```yaml", "```text", "```"}

// CleanFences removes markdown code-fence markers and trims surrounding
// whitespace. Newlines and inline code spans inside the payload are
// preserved.
func CleanFences(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, m := range fenceMarkers {
		s = strings.ReplaceAll(s, m, "")
	}
	return strings.TrimSpace(s)
}

// ExtractObject returns the first balanced JSON object in s, or "" when none
// exists. Braces inside string literals are ignored.
func ExtractObject(s string) string {
	return extractBalanced(s, '{', '}')
}

// ExtractArray returns the first balanced JSON array in s, or "" when none
// exists. Brackets inside string literals are ignored.
func ExtractArray(s string) string {
	return extractBalanced(s, '[', ']')
}

// extractBalanced scans for the first open rune and returns the substring up
// to its matching close rune, tracking string literals and escapes.
func extractBalanced(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}

	// No balanced candidate found.
	return ""
}
