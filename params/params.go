// Package params implements Parameters: the typed, validated,
// immutable key->value bundle describing the triggering event.
package params

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
	"github.com/zclconf/go-cty/cty"

	"github.com/taskforge-dev/taskforge/internal/ctyconv"
	taskforgeerrors "github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/schema"
)

// CoreSchema is the base schema every Parameters must satisfy. Projects
// compose an additional schema.Object at registration time.
var CoreSchema = schema.Object{
	"base_repository":       schema.Required(schema.Field{Type: schema.TypeString}),
	"head_repository":       schema.Required(schema.Field{Type: schema.TypeString}),
	"head_rev":              schema.Required(schema.Field{Type: schema.TypeString}),
	"head_ref":              schema.Required(schema.Field{Type: schema.TypeString}),
	"base_rev":              schema.Required(schema.Field{Type: schema.TypeString}),
	"base_ref":              schema.Required(schema.Field{Type: schema.TypeString}),
	"owner":                 schema.Required(schema.Field{Type: schema.TypeString}),
	"project":               schema.Required(schema.Field{Type: schema.TypeString}),
	"level":                 schema.Required(schema.Field{Type: schema.TypeString}),
	"pushlog_id":            schema.Required(schema.Field{Type: schema.TypeString}),
	"pushdate":              schema.Required(schema.Field{Type: schema.TypeInt}),
	"build_date":            schema.Required(schema.Field{Type: schema.TypeInt}),
	"repository_type":       schema.Required(schema.Field{Type: schema.TypeString}),
	"tasks_for":             schema.Required(schema.Field{Type: schema.TypeString}),
	"target_tasks_method":   schema.Required(schema.Field{Type: schema.TypeString}),
	"filters":               schema.Required(schema.Field{Type: schema.TypeList, Elem: &schema.Field{Type: schema.TypeString}}),
	"optimize_target_tasks": schema.Required(schema.Field{Type: schema.TypeBool}),
	"optimize_strategies":   schema.Optional(schema.Field{Type: schema.TypeString}),
	"do_not_optimize":       schema.Required(schema.Field{Type: schema.TypeList, Elem: &schema.Field{Type: schema.TypeString}}),
	"existing_tasks":        schema.Required(schema.Field{Type: schema.TypeMap}),
	"enable_always_target":  schema.Required(schema.Field{Type: schema.TypeAny}),
	"files_changed":         schema.Required(schema.Field{Type: schema.TypeList, Elem: &schema.Field{Type: schema.TypeString}}),
	"version":               schema.Required(schema.Field{Type: schema.TypeString}),
	"next_version":          schema.Optional(schema.Field{Type: schema.TypeString}),
	"build_number":          schema.Required(schema.Field{Type: schema.TypeInt}),
}

// Parameters is the immutable, validated key->value bundle.
type Parameters struct {
	data map[string]interface{}
	cty  cty.Value
}

// New validates data against CoreSchema plus any project extension
// schemas, then freezes it into an immutable Parameters. Missing required
// parameters fail generation.
func New(data map[string]interface{}, extensions ...schema.Object) (*Parameters, error) {
	if err := schema.Validate(CoreSchema, data); err != nil {
		return nil, wrapParameterError(err)
	}

	for _, ext := range extensions {
		if err := schema.Validate(ext, data); err != nil {
			return nil, wrapParameterError(err)
		}
	}

	if err := validateVersions(data); err != nil {
		return nil, err
	}

	frozen := deepCopy(data)

	ctyVal, err := ctyconv.ToCty(frozen)
	if err != nil {
		return nil, &taskforgeerrors.ParameterError{Field: "*", Reason: err.Error()}
	}

	return &Parameters{data: frozen, cty: ctyVal}, nil
}

func wrapParameterError(err error) error {
	return &taskforgeerrors.ParameterError{Field: "schema", Reason: err.Error()}
}

// Get returns the raw value for key and whether it was present. Project-
// defined keys declared through an extension schema are retrieved the same
// way as core keys.
func (p *Parameters) Get(key string) (interface{}, bool) {
	v, ok := p.data[key]
	return v, ok
}

// MustGet panics if key is absent; used for required fields already
// guaranteed present by schema validation.
func (p *Parameters) MustGet(key string) interface{} {
	v, ok := p.data[key]
	if !ok {
		panic("params: required key missing: " + key)
	}

	return v
}

func (p *Parameters) String(key string) string {
	v, _ := p.Get(key)
	s, _ := v.(string)

	return s
}

func (p *Parameters) Bool(key string) bool {
	v, _ := p.Get(key)
	b, _ := v.(bool)

	return b
}

func (p *Parameters) StringList(key string) []string {
	v, ok := p.Get(key)
	if !ok {
		return nil
	}

	list, ok := v.([]interface{})
	if !ok {
		return nil
	}

	out := make([]string, 0, len(list))

	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}

	return out
}

// FilesChanged is a typed accessor for the files_changed parameter, read by
// the skip-unless-changed optimizer strategy.
func (p *Parameters) FilesChanged() []string { return p.StringList("files_changed") }

// ExistingTasks returns the pre-seeded label->task-id replacements the
// optimizer consumes as its seed step.
func (p *Parameters) ExistingTasks() map[string]string {
	v, ok := p.Get("existing_tasks")
	if !ok {
		return nil
	}

	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	out := make(map[string]string, len(m))

	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}

	return out
}

// DoNotOptimize returns the set of labels the optimizer must never remove
// or replace.
func (p *Parameters) DoNotOptimize() map[string]bool {
	out := map[string]bool{}

	for _, l := range p.StringList("do_not_optimize") {
		out[l] = true
	}

	return out
}

// AsMap returns a defensive copy of the full parameter set, e.g. for
// serializing a parameters.yml artifact.
func (p *Parameters) AsMap() map[string]interface{} {
	return deepCopy(p.data)
}

// Cty returns the parameters as a single cty.Value object, for transforms
// that want typed comparisons (e.g. numeric build_number arithmetic)
// rather than interface{} type assertions.
func (p *Parameters) Cty() cty.Value { return p.cty }

func deepCopy(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))

	for k, v := range m {
		out[k] = deepCopyValue(v)
	}

	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return deepCopy(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}

		return out
	default:
		return v
	}
}

// validateVersions checks that version (and next_version, when present)
// parse as versions and that next_version is actually an advance.
func validateVersions(data map[string]interface{}) error {
	raw, ok := data["version"].(string)
	if !ok {
		return nil
	}

	current, err := goversion.NewVersion(raw)
	if err != nil {
		return &taskforgeerrors.ParameterError{Field: "version", Reason: err.Error()}
	}

	rawNext, ok := data["next_version"].(string)
	if !ok || rawNext == "" {
		return nil
	}

	next, err := goversion.NewVersion(rawNext)
	if err != nil {
		return &taskforgeerrors.ParameterError{Field: "next_version", Reason: err.Error()}
	}

	if !next.GreaterThan(current) {
		return &taskforgeerrors.ParameterError{
			Field:  "next_version",
			Reason: fmt.Sprintf("%s does not advance past version %s", rawNext, raw),
		}
	}

	return nil
}
