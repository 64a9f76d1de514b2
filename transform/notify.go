package transform

import (
	"fmt"

	"github.com/taskforge-dev/taskforge/schema"
)

// notifySchema validates the stub's `notify` key.
var notifySchema = schema.Object{
	"emails": schema.Optional(schema.Field{Type: schema.TypeList, Elem: &schema.Field{Type: schema.TypeString}}),
	"slack-channels": schema.Optional(schema.Field{
		Type: schema.TypeList,
		Elem: &schema.Field{Type: schema.TypeString},
	}),
	"content": schema.Optional(schema.Field{Type: schema.TypeMap}),
	"on-event": schema.Optional(schema.Field{
		Type: schema.TypeString,
		Enum: []string{"on-completed", "on-failed", "on-exception", "on-transition"},
	}),
}

// Notify is the built-in "notify" transform: validates the
// stub's `notify` stanza against notifySchema and copies it, unmodified,
// into `task.extra.notify`, the conventional location morphs and the
// platform's notify service read from.
func Notify() Func {
	return Map("notify", func(_ *Config, t Stub) (Stub, error) {
		raw, ok := t["notify"]
		if !ok {
			return t, nil
		}

		notify, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("notify: expected a mapping, got %T", raw)
		}

		if err := schema.Validate(notifySchema, notify); err != nil {
			return nil, err
		}

		def, _ := t["task"].(map[string]interface{})
		if def == nil {
			def = map[string]interface{}{}
		}

		extra, _ := def["extra"].(map[string]interface{})
		if extra == nil {
			extra = map[string]interface{}{}
		}

		extra["notify"] = notify
		def["extra"] = extra
		t["task"] = def

		return t, nil
	})
}
