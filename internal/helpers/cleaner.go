package helpers

import (
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("no balanced JSON object found")

// ExtractJSON returns the first balanced JSON object in s. Model output often
// wraps the object in a Markdown fence or surrounds it with prose; both are
// tolerated. Braces inside string literals are ignored.
func ExtractJSON(s string) (string, error) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
	if inner, ok := unfence(s); ok {
		s = strings.TrimSpace(inner)
	}
	for i := strings.IndexByte(s, '{'); i >= 0; {
		if end, ok := matchBrace(s, i); ok {
			return s[i : end+1], nil
		}
		next := strings.IndexByte(s[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return "", ErrNoJSON
}

// unfence returns the body of a leading ``` or ~~~ block, skipping the
// optional language tag.
func unfence(s string) (string, bool) {
	for _, fence := range []string{"```", "~~~"} {
		if !strings.HasPrefix(s, fence) {
			continue
		}
		rest := s[len(fence):]
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return "", false
		}
		rest = rest[nl+1:]
		end := strings.Index(rest, fence)
		if end < 0 {
			return "", false
		}
		return rest[:end], true
	}
	return "", false
}

// matchBrace returns the index of the brace closing the object opened at start.
func matchBrace(s string, start int) (int, bool) {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
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
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return 0, false
			}
			open := stack[len(stack)-1]
			if (open == '{' && c != '}') || (open == '[' && c != ']') {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
