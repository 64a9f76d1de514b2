package platform

import "github.com/invopop/jsonschema"

// WireFormat names the well-known keys of TaskDefinition the core
// touches; everything else in a real payload is platform-specific and
// opaque to us. Morph uses the JSON Schema generated from this struct to
// validate a task definition's shape after rewriting it.
type WireFormat struct {
	Routes       []string       `json:"routes,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Requires     string         `json:"requires,omitempty"`
	TaskGroupID  string         `json:"taskGroupId,omitempty"`
	Extra        map[string]any `json:"-"`
}

// Schema returns the JSON Schema document generated from WireFormat.
func Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{ExpandedStruct: true, AllowAdditionalProperties: true}
	return reflector.Reflect(&WireFormat{})
}
