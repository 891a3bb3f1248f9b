package schema

import (
	"strings"

	language "github.com/hanpama/booksgraph/internal/language"
)

// BatchDirective marks a field definition as resolved through
// Runtime.BatchResolveAsync. It only exists at build time: the executable
// schema records it as Field.Async and never exposes the directive itself.
const BatchDirective = "batch"

// BatchDirectiveSDL declares BatchDirective. BuildFromSDL always loads it
// ahead of the user sources.
const BatchDirectiveSDL = `directive @batch on FIELD_DEFINITION`

var buildDirectiveSource = &language.Source{Name: "build.graphql", Input: BatchDirectiveSDL, BuiltIn: true}

var buildDirectives = map[string]struct{}{
	BatchDirective: {},
}

func isBuildDirective(name string) bool {
	_, ok := buildDirectives[name]
	return ok
}

// IsIntrospectionName reports whether name is reserved for introspection.
func IsIntrospectionName(name string) bool {
	return strings.HasPrefix(name, "__")
}
