// internal/cli/options.go
package modelmux

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// samplingOptionsSchema describes the sampling options accepted on the
// command line. Unknown keys are allowed here; each backend forwards only the
// options it recognizes.
var samplingOptionsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"temperature":       map[string]any{"type": "number", "minimum": 0},
		"max_tokens":        map[string]any{"type": "integer"},
		"top_p":             map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"frequency_penalty": map[string]any{"type": "number"},
	},
}

// parseSamplingOptions decodes the --options JSON document and validates it
// against the sampling options schema.
func parseSamplingOptions(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	schemaLoader := gojsonschema.NewGoLoader(samplingOptionsSchema)
	documentLoader := gojsonschema.NewStringLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("could not parse options: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("invalid options: %s", strings.Join(problems, "; "))
	}

	var options map[string]any
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil, fmt.Errorf("could not parse options: %w", err)
	}
	return options, nil
}
