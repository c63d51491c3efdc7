package language

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSchemas parses every source into a single document. The built-in
// prelude (scalars, @skip, @include, introspection types) is parsed first.
func ParseSchemas(sources ...*Source) (*SchemaDocument, error) {
	inputs := make([]*Source, 0, len(sources)+1)
	inputs = append(inputs, validator.Prelude)
	inputs = append(inputs, sources...)
	doc, err := parser.ParseSchemas(inputs...)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ValidateSchema merges extensions into their base definitions and validates
// the resulting type system. Every extension needs a base definition in doc.
func ValidateSchema(doc *SchemaDocument) (*Schema, error) {
	for _, ext := range doc.Extensions {
		if doc.Definitions.ForName(ext.Name) == nil {
			return nil, gqlerror.ErrorPosf(ext.Position, "Cannot extend type %q because it is not defined.", ext.Name)
		}
	}
	s, err := validator.ValidateSchemaDocument(doc)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// LoadQuery parses a query and validates it against s.
func LoadQuery(s *Schema, source string) (*QueryDocument, ErrorList) {
	return gqlparser.LoadQuery(s, source)
}
