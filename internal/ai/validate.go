package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	candidateSchemaOnce sync.Once
	candidateSchema     *jsonschema.Schema
	candidateSchemaErr  error
)

// compiledCandidateSchema compiles the candidate field schema once per
// process; the schema is static so recompiling per document buys nothing.
func compiledCandidateSchema() (*jsonschema.Schema, error) {
	candidateSchemaOnce.Do(func() {
		b, err := json.Marshal(BuildCandidateJSONSchema())
		if err != nil {
			candidateSchemaErr = fmt.Errorf("marshal candidate schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("candidates.json", bytes.NewReader(b)); err != nil {
			candidateSchemaErr = fmt.Errorf("add candidate schema: %w", err)
			return
		}
		candidateSchema, candidateSchemaErr = compiler.Compile("candidates.json")
	})
	return candidateSchema, candidateSchemaErr
}

// ValidateCandidateJSON checks the model's candidate payload against the
// candidate field schema before the reconciler sees it.
func ValidateCandidateJSON(data []byte) error {
	schema, err := compiledCandidateSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode candidates: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("candidates do not match schema: %w", err)
	}
	return nil
}
