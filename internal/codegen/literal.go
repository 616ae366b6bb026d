package codegen

import (
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

var (
	compactJSON  = &ojg.Options{Sort: true}
	indentedJSON = &ojg.Options{Sort: true, Indent: 4}
)

// Literal renders v as a JavaScript literal. Map keys are sorted so that the
// output is stable across runs. v must be made of generic JSON values
// (map[string]any, []any, string, numbers, bool, nil).
func Literal(v any) string {
	return oj.JSON(v, compactJSON)
}

// IndentedLiteral is Literal with a four space indentation.
func IndentedLiteral(v any) string {
	return oj.JSON(v, indentedJSON)
}

// StringLiteral quotes s as a JavaScript string.
func StringLiteral(s string) string {
	return oj.JSON(s, compactJSON)
}
