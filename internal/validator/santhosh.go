package validator

import (
	"bytes"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// NewSanthoshCompiler returns a Compiler backed by santhosh-tekuri/jsonschema/v6.
func NewSanthoshCompiler() Compiler {
	return &santhoshCompiler{c: jsonschema.NewCompiler()}
}

// ParseJSON decodes a JSON document in the form the compiler and validators expect.
// Numbers are preserved as json.Number.
func ParseJSON(r io.Reader) (JSONDocument, error) {
	return jsonschema.UnmarshalJSON(r)
}

// CompileBytes parses a raw schema, registers it under id and compiles it.
func CompileBytes(c Compiler, id string, schema []byte) (Validator, error) {
	doc, err := ParseJSON(bytes.NewReader(schema))
	if err != nil {
		return nil, err
	}
	if err := c.AddSchema(id, doc); err != nil {
		return nil, err
	}
	return c.Compile(id)
}

type santhoshValidator struct {
	v *jsonschema.Schema
}

func (sv *santhoshValidator) Validate(doc JSONDocument) error {
	return sv.v.Validate(doc)
}

type santhoshCompiler struct {
	mu sync.Mutex
	c  *jsonschema.Compiler
}

func (s *santhoshCompiler) AddSchema(id string, schema JSONDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.AddResource(id, schema)
}

func (s *santhoshCompiler) Compile(id string) (Validator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.c.Compile(id)
	if err != nil {
		return nil, err
	}
	return &santhoshValidator{v: v}, nil
}
