package language

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// ParseQuery parses source without validating it against a schema.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadQuery parses source and validates it against sch. All validation
// failures are returned, not just the first one.
func LoadQuery(sch *ast.Schema, source string) (*QueryDocument, ErrorList) {
	doc, errs := gqlparser.LoadQuery(sch, source)
	if len(errs) > 0 {
		return nil, errs
	}
	return doc, nil
}

// LoadSchema parses one or more SDL sources into a validated schema. The
// gqlparser prelude (built-in scalars, directives and introspection types)
// is always included.
func LoadSchema(sources ...*Source) (*ast.Schema, error) {
	sch, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// Validate runs the query validation rules against an already parsed document.
func Validate(sch *ast.Schema, doc *QueryDocument) ErrorList {
	return validator.Validate(sch, doc)
}
