// Package config implements GraphConfig: the repository-level
// configuration loaded once per invocation from a single config.yml and
// validated with the same declarative schema.Object the rest of the core
// uses.
package config

import (
	"os"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/schema"
)

// WorkerDescriptor is one `workers.aliases.<alias>` entry.
type WorkerDescriptor struct {
	Provisioner    string `mapstructure:"provisioner"`
	Implementation string `mapstructure:"implementation"`
	OS             string `mapstructure:"os"`
	WorkerType     string `mapstructure:"worker-type"`
}

// TaskgraphSection is the `taskgraph.*` block.
type TaskgraphSection struct {
	Register           []string          `mapstructure:"register"`
	Repositories       map[string]string `mapstructure:"repositories"`
	DecisionParameters string            `mapstructure:"decision-parameters"`
	IndexPathRegexes   []string          `mapstructure:"index-path-regexes"`
	CachedTaskPrefix   string            `mapstructure:"cached-task-prefix"`
	MaxDependencies    int               `mapstructure:"max-dependencies"`
	MaxRoutes          int               `mapstructure:"max-routes"`
}

var configSchema = schema.Object{
	"trust-domain":  schema.Required(schema.Field{Type: schema.TypeString}),
	"task-priority": schema.Required(schema.Field{Type: schema.TypeString}),
	"workers": schema.Required(schema.Field{Type: schema.TypeMap, Fields: schema.Object{
		"aliases": schema.Required(schema.Field{Type: schema.TypeMap}),
	}}),
	"taskgraph": schema.Required(schema.Field{Type: schema.TypeMap, Fields: schema.Object{
		"register":            schema.Optional(schema.Field{Type: schema.TypeList, Elem: &schema.Field{Type: schema.TypeString}}),
		"repositories":        schema.Required(schema.Field{Type: schema.TypeMap}),
		"decision-parameters": schema.Optional(schema.Field{Type: schema.TypeString}),
		"index-path-regexes":  schema.Optional(schema.Field{Type: schema.TypeList, Elem: &schema.Field{Type: schema.TypeString}}),
		"cached-task-prefix":  schema.Optional(schema.Field{Type: schema.TypeString}),
		"max-dependencies":    schema.Optional(schema.Field{Type: schema.TypeInt}),
		"max-routes":          schema.Optional(schema.Field{Type: schema.TypeInt}),
	}}),
}

// GraphConfig is the immutable repository-level configuration,
// built at Generator construction and held for the life of a generation.
type GraphConfig struct {
	raw map[string]interface{}

	TrustDomain  string
	TaskPriority string
	Workers      map[string]WorkerDescriptor
	Taskgraph    TaskgraphSection
}

// Load reads and validates a GraphConfig file. customize, when
// non-nil, may mutate the decoded raw map before validation — the
// customization hook a project may install
// at startup, e.g. to inject environment-derived defaults.
func Load(path string, customize func(map[string]interface{})) (*GraphConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.ConfigError{Path: path, Reason: err.Error()}
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &errors.ConfigError{Path: path, Reason: err.Error()}
	}

	if customize != nil {
		customize(raw)
	}

	return FromMap(path, raw)
}

// FromMap validates and builds a GraphConfig from an already-decoded map,
// used by tests and by Load.
func FromMap(path string, raw map[string]interface{}) (*GraphConfig, error) {
	if err := schema.Validate(configSchema, raw); err != nil {
		return nil, &errors.ConfigError{Path: path, Reason: err.Error()}
	}

	cfg := &GraphConfig{raw: raw}

	cfg.TrustDomain, _ = raw["trust-domain"].(string)
	cfg.TaskPriority, _ = raw["task-priority"].(string)

	if workers, ok := raw["workers"].(map[string]interface{}); ok {
		if aliases, ok := workers["aliases"].(map[string]interface{}); ok {
			cfg.Workers = map[string]WorkerDescriptor{}

			for alias, v := range aliases {
				var wd WorkerDescriptor
				if err := mapstructure.Decode(v, &wd); err != nil {
					return nil, &errors.ConfigError{Path: path, Reason: "workers.aliases." + alias + ": " + err.Error()}
				}

				cfg.Workers[alias] = wd
			}
		}
	}

	if tg, ok := raw["taskgraph"].(map[string]interface{}); ok {
		if err := mapstructure.Decode(tg, &cfg.Taskgraph); err != nil {
			return nil, &errors.ConfigError{Path: path, Reason: "taskgraph: " + err.Error()}
		}
	}

	// Fill the platform limits a config.yml leaves unset.
	if err := mergo.Merge(&cfg.Taskgraph, defaultTaskgraph); err != nil {
		return nil, &errors.ConfigError{Path: path, Reason: "taskgraph defaults: " + err.Error()}
	}

	return cfg, nil
}

// defaultTaskgraph carries the platform limits assumed when config.yml
// does not override them: 64 routes and 9,999 dependencies per task.
var defaultTaskgraph = TaskgraphSection{
	MaxDependencies:  9999,
	MaxRoutes:        64,
	CachedTaskPrefix: "cached-tasks",
}

// Get looks a value up by dotted path.
func (c *GraphConfig) Get(key string) (interface{}, bool) {
	segments := strings.Split(key, ".")

	var cur interface{} = c.raw

	for _, seg := range segments {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}

		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}

	return cur, true
}

// GetString is a typed convenience wrapper over Get.
func (c *GraphConfig) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

// GetInt is a typed convenience wrapper over Get, tolerant of the
// int/int64/float64 shapes a YAML decoder can produce.
func (c *GraphConfig) GetInt(key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}

	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(t)
		return n, err == nil
	default:
		return 0, false
	}
}

// TransformModuleRoots returns the registered transform module paths,
// i.e. taskgraph.register.
func (c *GraphConfig) TransformModuleRoots() []string {
	return c.Taskgraph.Register
}
