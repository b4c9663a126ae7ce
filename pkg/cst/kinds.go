package cst

import "strings"

// KindFunc classifies node kinds.
type KindFunc func(kind string) bool

// compositeKinds name "literal" but hold arbitrary grammar, not quoted
// content: closures, struct and array literals, their bodies.
var compositeKinds = map[string]struct{}{
	"func_literal":                {},
	"function_literal":            {},
	"lambda_literal":              {},
	"composite_literal":           {},
	"literal_value":               {},
	"literal_element":             {},
	"compound_literal_expression": {},
	"literal_type":                {},
	"object_literal":              {},
	"array_literal":               {},
	"map_literal":                 {},
	"collection_literal":          {},
}

// IsLiteralKind reports kinds that name literal content. Literal nodes may
// contain nested grammar (escapes, interpolation) that would otherwise
// shadow the literal as a whole. Composite kinds such as func_literal are
// not literals.
func IsLiteralKind(kind string) bool {
	if _, ok := compositeKinds[kind]; ok {
		return false
	}

	return strings.Contains(kind, "literal")
}

// LiteralKinds returns a KindFunc matching IsLiteralKind plus the given
// extra kinds.
func LiteralKinds(extra ...string) KindFunc {
	if len(extra) == 0 {
		return IsLiteralKind
	}

	set := make(map[string]struct{}, len(extra))
	for _, k := range extra {
		set[k] = struct{}{}
	}

	return func(kind string) bool {
		if _, ok := set[kind]; ok {
			return true
		}

		return IsLiteralKind(kind)
	}
}
