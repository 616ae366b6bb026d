package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/jopilink/internal/types"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		segments []Segment
		hasData  bool
	}{
		{"plain", "Hello", []Segment{{Text: "Hello"}}, false},
		{"empty", "", nil, false},
		{"param first", "%(name) arrived", []Segment{
			{Param: "name", IsParam: true}, {Text: " arrived"},
		}, true},
		{"two params", "Hi %(first) %(last)!", []Segment{
			{Text: "Hi "}, {Param: "first", IsParam: true}, {Text: " "},
			{Param: "last", IsParam: true}, {Text: "!"},
		}, true},
		{"unterminated", "Hello %(name", []Segment{{Text: "Hello %(name"}}, false},
		{"empty placeholder", "a %() b", []Segment{{Text: "a %() b"}}, false},
		{"adjacent", "%(a)%(b)", []Segment{
			{Param: "a", IsParam: true}, {Param: "b", IsParam: true},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := ParseTemplate(tt.input)
			assert.Equal(t, tt.input, tpl.Raw)
			assert.Equal(t, tt.segments, tpl.Segments)
			assert.Equal(t, tt.hasData, tpl.HasData())
		})
	}
}

func TestKeys(t *testing.T) {
	base, plural := SplitKey("*greet")
	assert.Equal(t, "greet", base)
	assert.True(t, plural)

	assert.True(t, IsValidKey("greet"))
	assert.True(t, IsValidKey("*greet"))
	assert.True(t, IsValidKey("$élan_2"))
	assert.False(t, IsValidKey("1abc"))
	assert.False(t, IsValidKey("with space"))
	assert.False(t, IsValidKey("**greet"))
	assert.False(t, IsValidKey(""))
}

func TestParseLangFile(t *testing.T) {
	messages, warnings, err := ParseLangFile([]byte(`{
		"greet": "Hello %(name)",
		"*greet": "Hello all %(name)",
		"1abc": "bad key",
		"count": 3
	}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"greet":  "Hello %(name)",
		"*greet": "Hello all %(name)",
	}, messages)
	assert.Len(t, warnings, 2)

	_, _, err = ParseLangFile([]byte(`{oops`))
	assert.Error(t, err)

	_, _, err = ParseLangFile([]byte(`["a"]`))
	assert.Error(t, err)
}

func TestNormalizeLang(t *testing.T) {
	lang, err := NormalizeLang("fr-FR")
	require.NoError(t, err)
	assert.Equal(t, "fr-fr", lang)

	_, err = NormalizeLang("not a language")
	assert.Error(t, err)

	_, err = NormalizeLang("")
	assert.Error(t, err)
}

func TestCompileTyped(t *testing.T) {
	out := Compile("en-us", map[string]string{
		"greet":  "Hello %(name)",
		"*greet": "Hello all %(name)",
		"title":  "Home",
		"*item":  "items",
		"item":   "item",
		"bye":    "Bye %(name), see you %(when)",
	}, true)

	assert.Equal(t, `interface I0 {
    name: string|number;
    when: string|number;
}

function fs_0(data: I0): string { return "Bye " + data.name + ", see you " + data.when; }

interface I1 {
    name: string|number;
}

function fs_1(data: I1): string { return "Hello " + data.name; }

function fp_1(data: I1): string { return "Hello all " + data.name; }

export const lang = "en-us";

export default {
    bye(data: I0) { return fs_0(data); },
    greet_plural(count: number, data: I1) {
        if (count > 1) return fp_1(data);
        return fs_1(data);
    },
    item_plural(count: number) {
        if (count > 1) return "items";
        return "item";
    },
    title() { return "Home"; },
};
`, out)
}

func TestCompileUntyped(t *testing.T) {
	out := Compile("fr", map[string]string{
		"greet":  "%(name)!",
		"*greet": "%(name) et %(other)",
	}, false)

	assert.NotContains(t, out, "interface")
	assert.NotContains(t, out, ": string")
	assert.Contains(t, out, `function fs_0(data) { return "" + data.name + "!"; }`)
	assert.Contains(t, out, `function fp_0(data) { return "" + data.name + " et " + data.other; }`)
	assert.Contains(t, out, "    greet_plural(count, data) {\n")
}

func TestCompilePluralOnly(t *testing.T) {
	out := Compile("en", map[string]string{"*apples": "%(n) apples"}, true)

	assert.Contains(t, out, "function fs_0(data: I0): string { return \"\" + data.n + \" apples\"; }")
	assert.Contains(t, out, "function fp_0(data: I0): string")
	assert.Contains(t, out, "apples_plural(count: number, data: I0)")
}

func TestCompileQuotesParamNames(t *testing.T) {
	out := Compile("en", map[string]string{"k": "%(first-name)"}, true)

	assert.Contains(t, out, `"first-name": string|number;`)
	assert.Contains(t, out, `data["first-name"]`)
}

func TestDefaultModule(t *testing.T) {
	assert.Equal(t, "import D from \"./fr-fr.ts\";\nexport default D;\n", DefaultModule("fr-fr", false))
	assert.Equal(t, "import D from \"./fr-fr.js\";\nexport default D;\n", DefaultModule("fr-fr", true))
}

func TestMerge(t *testing.T) {
	low := &Bundle{
		Group:       "home",
		DefaultLang: "fr-fr",
		Priority:    types.PriorityDefault,
		Langs: map[string]map[string]string{
			"en-us": {"title": "Low title", "subtitle": "Low subtitle"},
			"fr-fr": {"title": "Titre"},
		},
	}
	high := &Bundle{
		Group:    "home",
		Priority: types.PriorityHigh,
		Langs: map[string]map[string]string{
			"en-us": {"title": "High title"},
		},
	}

	merged := Merge(low, high)

	assert.Equal(t, types.PriorityHigh, merged.Priority)
	assert.Equal(t, "High title", merged.Langs["en-us"]["title"])
	assert.Equal(t, "Low subtitle", merged.Langs["en-us"]["subtitle"])
	assert.Equal(t, "Titre", merged.Langs["fr-fr"]["title"])
	assert.Equal(t, "fr-fr", merged.DefaultLang)
	assert.Equal(t, []string{"en-us", "fr-fr"}, merged.LangCodes())

	// Inputs are untouched.
	assert.Len(t, high.Langs, 1)
	assert.Len(t, high.Langs["en-us"], 1)
}

func TestMergeTieKeepsExisting(t *testing.T) {
	first := &Bundle{DefaultLang: "en-us", Langs: map[string]map[string]string{"en-us": {"k": "first"}}}
	second := &Bundle{DefaultLang: "de", Langs: map[string]map[string]string{"en-us": {"k": "second", "x": "y"}}}

	merged := Merge(first, second)

	assert.Equal(t, "first", merged.Langs["en-us"]["k"])
	assert.Equal(t, "y", merged.Langs["en-us"]["x"])
	assert.Equal(t, "en-us", merged.DefaultLang)
}

func TestEffectiveDefaultLang(t *testing.T) {
	assert.Equal(t, "fr", (&Bundle{DefaultLang: "fr"}).EffectiveDefaultLang("de"))
	assert.Equal(t, "de", (&Bundle{}).EffectiveDefaultLang("de"))
	assert.Equal(t, DefaultLanguage, (&Bundle{}).EffectiveDefaultLang(""))
}
