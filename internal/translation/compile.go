package translation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/conneroisu/jopilink/internal/codegen"
)

type accessor struct {
	key    string
	single *Template
	plural *Template
}

func (a *accessor) hasData() bool {
	return a.single.HasData() || (a.plural != nil && a.plural.HasData())
}

// params is the union of the singular and plural parameters, sorted.
func (a *accessor) params() []string {
	seen := make(map[string]bool)
	var params []string

	for _, t := range []*Template{a.single, a.plural} {
		if t == nil {
			continue
		}
		for _, p := range t.Params() {
			if !seen[p] {
				seen[p] = true
				params = append(params, p)
			}
		}
	}

	sort.Strings(params)

	return params
}

func groupAccessors(messages map[string]string) []*accessor {
	byKey := make(map[string]*accessor)

	for key, value := range messages {
		base, plural := SplitKey(key)
		t := ParseTemplate(value)

		a, ok := byKey[base]
		if !ok {
			a = &accessor{key: base}
			byKey[base] = a
		}

		if plural {
			a.plural = &t
		} else {
			a.single = &t
		}
	}

	accessors := make([]*accessor, 0, len(byKey))
	for _, a := range byKey {
		if a.single == nil {
			a.single = a.plural
		}
		accessors = append(accessors, a)
	}

	sort.Slice(accessors, func(i, j int) bool { return accessors[i].key < accessors[j].key })

	return accessors
}

// Compile returns the module of one language. typed selects the TypeScript
// variant, with parameter interfaces and annotations; otherwise plain
// JavaScript is produced. Keys are emitted sorted and function ids restart at
// zero for every module, so the output only depends on its input.
func Compile(lang string, messages map[string]string, typed bool) string {
	var header, body strings.Builder

	body.WriteString("export const lang = " + codegen.StringLiteral(lang) + ";\n\n")
	body.WriteString("export default {\n")

	nextID := 0

	for _, a := range groupAccessors(messages) {
		if !a.hasData() {
			writeConstantAccessor(&body, a, typed)
			continue
		}

		id := nextID
		nextID++

		singleFn := fmt.Sprintf("fs_%d", id)
		pluralFn := fmt.Sprintf("fp_%d", id)
		paramsType := fmt.Sprintf("I%d", id)

		dataParam := "data"
		if typed {
			dataParam = "data: " + paramsType
			header.WriteString("interface " + paramsType + " {\n")
			for _, p := range a.params() {
				header.WriteString("    " + propertyName(p) + ": string|number;\n")
			}
			header.WriteString("}\n\n")
		}

		returnType := ""
		if typed {
			returnType = ": string"
		}

		header.WriteString(fmt.Sprintf("function %s(%s)%s { return %s; }\n\n",
			singleFn, dataParam, returnType, concatExpression(a.single.Segments)))

		if a.plural != nil {
			header.WriteString(fmt.Sprintf("function %s(%s)%s { return %s; }\n\n",
				pluralFn, dataParam, returnType, concatExpression(a.plural.Segments)))

			countParam := "count"
			if typed {
				countParam = "count: number"
			}

			body.WriteString(fmt.Sprintf("    %s_plural(%s, %s) {\n", a.key, countParam, dataParam))
			body.WriteString(fmt.Sprintf("        if (count > 1) return %s(data);\n", pluralFn))
			body.WriteString(fmt.Sprintf("        return %s(data);\n", singleFn))
			body.WriteString("    },\n")
		} else {
			body.WriteString(fmt.Sprintf("    %s(%s) { return %s(data); },\n", a.key, dataParam, singleFn))
		}
	}

	body.WriteString("};\n")

	return header.String() + body.String()
}

func writeConstantAccessor(body *strings.Builder, a *accessor, typed bool) {
	single := codegen.StringLiteral(a.single.Raw)

	if a.plural == nil {
		body.WriteString(fmt.Sprintf("    %s() { return %s; },\n", a.key, single))
		return
	}

	countParam := "count"
	if typed {
		countParam = "count: number"
	}

	body.WriteString(fmt.Sprintf("    %s_plural(%s) {\n", a.key, countParam))
	body.WriteString(fmt.Sprintf("        if (count > 1) return %s;\n", codegen.StringLiteral(a.plural.Raw)))
	body.WriteString(fmt.Sprintf("        return %s;\n", single))
	body.WriteString("    },\n")
}

// concatExpression builds the string expression of a template. A leading
// empty string forces string concatenation when the template starts with a
// parameter.
func concatExpression(segments []Segment) string {
	if len(segments) == 0 {
		return `""`
	}

	parts := make([]string, 0, len(segments)+1)
	if segments[0].IsParam {
		parts = append(parts, `""`)
	}

	for _, s := range segments {
		if s.IsParam {
			parts = append(parts, dataAccess(s.Param))
		} else {
			parts = append(parts, codegen.StringLiteral(s.Text))
		}
	}

	return strings.Join(parts, " + ")
}

func dataAccess(param string) string {
	if jsIdent.MatchString(param) {
		return "data." + param
	}
	return "data[" + codegen.StringLiteral(param) + "]"
}

func propertyName(param string) string {
	if jsIdent.MatchString(param) {
		return param
	}
	return codegen.StringLiteral(param)
}

// DefaultModule returns the module re-exporting the default language.
func DefaultModule(defaultLang string, forDist bool) string {
	return "import D from " + codegen.StringLiteral(codegen.ToPathForImport(defaultLang+".ts", forDist)) +
		";\nexport default D;\n"
}
