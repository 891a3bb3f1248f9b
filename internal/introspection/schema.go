package introspection

import (
	"errors"
	"strings"

	schema "github.com/hanpama/booksgraph/internal/schema"
)

var errNoAST = errors.New("introspection: schema was not built from SDL")

// extendSchemaWithIntrospection returns a copy of original that also holds
// the introspection types and the __schema and __type root fields. The
// introspection type definitions come from the gqlparser prelude of
// original.AST.
func extendSchemaWithIntrospection(original *schema.Schema) (*schema.Schema, error) {
	if original.AST == nil {
		return nil, errNoAST
	}

	extended := &schema.Schema{
		QueryType:        original.QueryType,
		MutationType:     original.MutationType,
		SubscriptionType: original.SubscriptionType,
		Types:            make(map[string]*schema.Type, len(original.Types)+8),
		Directives:       original.Directives,
		Description:      original.Description,
		AST:              original.AST,
	}
	for name, typ := range original.Types {
		extended.Types[name] = typ
	}

	for name, def := range original.AST.Types {
		if strings.HasPrefix(name, "__") {
			extended.Types[name] = schema.FromDefinition(original.AST, def)
		}
	}

	if queryType := extended.GetQueryType(); queryType != nil {
		queryTypeCopy := &schema.Type{
			Name:        queryType.Name,
			Kind:        queryType.Kind,
			Description: queryType.Description,
			Fields:      make([]*schema.Field, len(queryType.Fields)),
			Interfaces:  queryType.Interfaces,
		}
		copy(queryTypeCopy.Fields, queryType.Fields)

		queryTypeCopy.Fields = append(queryTypeCopy.Fields,
			schema.NewField("__schema", "Access the current type schema of this server.",
				schema.NonNullType(schema.NamedType("__Schema"))),
			schema.NewField("__type", "Request the type information of a single type.",
				schema.NamedType("__Type")).
				AddArgument(schema.NewInputValue("name", "The name of the type to look up.",
					schema.NonNullType(schema.NamedType("String")))),
		)
		extended.Types[queryType.Name] = queryTypeCopy
	}

	return extended, nil
}
