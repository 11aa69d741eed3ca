// Package validator checks JSON documents against JSON Schemas.
package validator

// A JSONDocument is a parsed JSON document, as produced by ParseJSON.
type JSONDocument interface{}

// Validator validates a JSON document against a compiled schema.
type Validator interface {
	Validate(doc JSONDocument) error
}

// Compiler turns registered JSON Schemas into Validators.
type Compiler interface {
	// AddSchema registers a parsed JSON Schema under the given id.
	AddSchema(id string, schema JSONDocument) error

	// Compile creates a Validator from the schema previously added with the given id.
	Compile(id string) (Validator, error)
}
