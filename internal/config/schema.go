package config

import "github.com/invopop/jsonschema"

// Schema renders the settings tree as a JSON Schema document, the Go
// equivalent of config.rs's schema_fields() (there hand-rolled per
// field; here derived once via reflection over the `json` tags, since
// this repo carries a real schema-generation library the original
// didn't have available).
func Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	return reflector.Reflect(&Settings{})
}
