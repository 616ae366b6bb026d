package translation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ohler55/ojg/oj"
	"golang.org/x/text/language"

	"github.com/conneroisu/jopilink/internal/types"
)

// DefaultLanguage is used when a group declares no "<lang>.default" file.
const DefaultLanguage = "en-us"

// Bundle is the translation group declared by one or more modules.
type Bundle struct {
	Group string
	// DefaultLang is the fallback language; empty when none was declared.
	DefaultLang string
	// Langs maps a lowercase language code to its key/template table. Plural
	// keys keep their '*' prefix.
	Langs    map[string]map[string]string
	Priority types.PriorityLevel
}

// EffectiveDefaultLang returns the declared default language or fallback.
func (b *Bundle) EffectiveDefaultLang(fallback string) string {
	if b.DefaultLang != "" {
		return b.DefaultLang
	}
	if fallback != "" {
		return fallback
	}
	return DefaultLanguage
}

// LangCodes returns the languages of the bundle, sorted.
func (b *Bundle) LangCodes() []string {
	codes := make([]string, 0, len(b.Langs))
	for code := range b.Langs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (b *Bundle) clone() *Bundle {
	c := &Bundle{
		Group:       b.Group,
		DefaultLang: b.DefaultLang,
		Priority:    b.Priority,
		Langs:       make(map[string]map[string]string, len(b.Langs)),
	}

	for lang, messages := range b.Langs {
		copied := make(map[string]string, len(messages))
		for k, v := range messages {
			copied[k] = v
		}
		c.Langs[lang] = copied
	}

	return c
}

// Merge combines two declarations of the same group. The strictly higher
// priority bundle is the master, existing wins ties. The other bundle only
// fills languages and keys the master lacks, it never overrides one. The
// master adopts the other default language when it declared none. Inputs are
// left untouched.
func Merge(existing, incoming *Bundle) *Bundle {
	master, aux := existing, incoming
	if incoming.Priority > existing.Priority {
		master, aux = incoming, existing
	}

	merged := master.clone()

	if merged.DefaultLang == "" {
		merged.DefaultLang = aux.DefaultLang
	}

	for lang, auxMessages := range aux.Langs {
		masterMessages, ok := merged.Langs[lang]
		if !ok {
			masterMessages = make(map[string]string, len(auxMessages))
			merged.Langs[lang] = masterMessages
		}

		for key, value := range auxMessages {
			if _, present := masterMessages[key]; !present {
				masterMessages[key] = value
			}
		}
	}

	return merged
}

// ParseLangFile decodes a flat JSON translation table. Invalid keys and
// non-string values are skipped and reported as warnings; an unreadable
// document is an error.
func ParseLangFile(data []byte) (map[string]string, []string, error) {
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	table, ok := doc.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("translation file must hold a JSON object")
	}

	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	messages := make(map[string]string, len(table))
	var warnings []string

	for _, key := range keys {
		if !IsValidKey(key) {
			warnings = append(warnings, fmt.Sprintf("key %q is not a valid identifier", key))
			continue
		}

		value, ok := table[key].(string)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("key %q has an incorrect value", key))
			continue
		}

		messages[key] = value
	}

	return messages, warnings, nil
}

// NormalizeLang validates a language code and returns its lowercase form.
// The code is kept as written (modulo case) since it names generated files.
func NormalizeLang(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}

	if _, err := language.Parse(code); err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}

	return strings.ToLower(code), nil
}
