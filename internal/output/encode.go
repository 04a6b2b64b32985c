package output

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Format names accepted by the --output flag.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Encode serializes value in the requested machine-readable format.
func Encode(value any, format string) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("encode yaml: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported output format: %q", format)
	}
}
