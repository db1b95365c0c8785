package fs

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed app_data.schema.json
var appDataSchema string

const schemaURL = "app_data.schema.json"

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	if err := compiler.AddResource(schemaURL, strings.NewReader(appDataSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
}

// SchemaError lists every violation found in a document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "schema violation: " + strings.Join(e.Violations, "; ")
}

func validateDocument(schema *jsonschema.Schema, raw []byte) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}

	err := schema.Validate(doc)
	if err == nil {
		return nil
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}
	se := &SchemaError{}
	collectViolations(se, ve)
	return se
}

func collectViolations(se *SchemaError, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		se.Violations = append(se.Violations, fmt.Sprintf("%s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectViolations(se, cause)
	}
}
