package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaID is the $id of the generated configuration schema.
const SchemaID = "https://github.com/ariel-frischer/k-releaser/k-releaser.schema.json"

// Schema returns the JSON schema of the configuration file, keyed by the
// same names the file uses. Every key is optional.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		FieldNameTag:               "koanf",
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(&Configuration{})
	schema.ID = SchemaID
	schema.Title = "k-releaser configuration"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return data, nil
}
