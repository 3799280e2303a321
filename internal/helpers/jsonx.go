package helpers

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
)

// ErrNoJSON reports that no JSON object could be located in a model response.
var ErrNoJSON = errors.New("no JSON object found")

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// ExtractJSONObject pulls the first JSON object out of free-form model
// output. Strict path: a ```json fenced block. Fallback: the first
// balanced brace-delimited substring. Callers map ErrNoJSON to their own
// documented fallback; nothing here guesses at content.
func ExtractJSONObject(s string) (string, error) {
	if m := fencedJSON.FindStringSubmatch(s); m != nil {
		if json.Valid([]byte(m[1])) {
			return m[1], nil
		}
	}
	if obj, ok := firstBalancedObject(s); ok {
		return obj, nil
	}
	return "", ErrNoJSON
}

// firstBalancedObject scans for the first '{' and returns the substring
// up to its matching '}', respecting string literals and escapes.
func firstBalancedObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if start == -1 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				obj := s[start : i+1]
				if json.Valid([]byte(obj)) {
					return obj, true
				}
				// Malformed candidate: keep scanning past it.
				start = -1
				inString = false
				escaped = false
			}
		}
	}
	return "", false
}

var firstInt = regexp.MustCompile(`\d+`)

// ExtractFirstInt parses the first integer substring in s.
func ExtractFirstInt(s string) (int, bool) {
	m := firstInt.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}
