// Package translation compiles translation bundles into accessor modules.
//
// A bundle maps language codes to flat key/template tables. Templates may
// contain "%(param)" placeholders; a key prefixed with '*' is the plural form
// of the same key without it. Each language compiles into one module whose
// default export holds one accessor per key.
package translation

import (
	"regexp"
	"strings"
)

// PluralPrefix marks the plural form of a key.
const PluralPrefix = "*"

var (
	keyPattern = regexp.MustCompile(`^[_$a-zA-Z\x{00A0}-\x{FFFF}][_$a-zA-Z0-9\x{00A0}-\x{FFFF}]*$`)
	jsIdent    = regexp.MustCompile(`^[_$a-zA-Z][_$a-zA-Z0-9]*$`)
)

// Segment is a piece of a parsed template: literal text or a parameter.
type Segment struct {
	Text    string
	Param   string
	IsParam bool
}

// Template is a parsed translation value.
type Template struct {
	Raw      string
	Segments []Segment
}

// HasData reports whether the template references at least one parameter.
func (t Template) HasData() bool {
	for _, s := range t.Segments {
		if s.IsParam {
			return true
		}
	}
	return false
}

// Params returns the parameter names in order of first appearance.
func (t Template) Params() []string {
	var params []string
	seen := make(map[string]bool)

	for _, s := range t.Segments {
		if s.IsParam && !seen[s.Param] {
			seen[s.Param] = true
			params = append(params, s.Param)
		}
	}

	return params
}

// ParseTemplate splits value into text and "%(param)" segments. An
// unterminated or empty placeholder is kept as literal text.
func ParseTemplate(value string) Template {
	t := Template{Raw: value}
	rest := value
	var text strings.Builder

	flushText := func() {
		if text.Len() > 0 {
			t.Segments = append(t.Segments, Segment{Text: text.String()})
			text.Reset()
		}
	}

	for {
		idx := strings.Index(rest, "%(")
		if idx < 0 {
			text.WriteString(rest)
			break
		}

		text.WriteString(rest[:idx])
		rest = rest[idx+2:]

		end := strings.Index(rest, ")")
		if end <= 0 {
			text.WriteString("%(")
			if end == 0 {
				text.WriteString(")")
				rest = rest[1:]
				continue
			}
			text.WriteString(rest)
			break
		}

		flushText()
		t.Segments = append(t.Segments, Segment{Param: rest[:end], IsParam: true})
		rest = rest[end+1:]
	}

	flushText()

	return t
}

// SplitKey strips the plural prefix of a key.
func SplitKey(key string) (base string, plural bool) {
	if strings.HasPrefix(key, PluralPrefix) {
		return key[len(PluralPrefix):], true
	}
	return key, false
}

// IsValidKey reports whether key, once its plural prefix is removed, is a
// valid accessor name.
func IsValidKey(key string) bool {
	base, _ := SplitKey(key)
	return keyPattern.MatchString(base)
}
