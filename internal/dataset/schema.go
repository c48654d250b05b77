package dataset

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sells-group/ocr-bench/internal/model"
)

// ValidateGroundTruth checks that an input's true JSON output conforms to
// its JSON schema. Inputs missing either side are accepted.
func ValidateGroundTruth(in model.Input) error {
	if in.JSONSchema == nil || in.TrueJSONOutput == nil {
		return nil
	}

	raw, err := json.Marshal(in.JSONSchema)
	if err != nil {
		return eris.Wrap(err, "dataset: marshal schema")
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return eris.Wrap(err, "dataset: add schema")
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return eris.Wrap(err, "dataset: compile schema")
	}

	// Round-trip so numbers and nested values have the decoded JSON types
	// the validator expects.
	data, err := json.Marshal(in.TrueJSONOutput)
	if err != nil {
		return eris.Wrap(err, "dataset: marshal true_json_output")
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return eris.Wrap(err, "dataset: unmarshal true_json_output")
	}
	if err := schema.Validate(v); err != nil {
		return eris.Wrap(err, "dataset: true_json_output does not match json_schema")
	}
	return nil
}
