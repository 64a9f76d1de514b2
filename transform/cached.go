package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// CachedTasks is the built-in "cached-tasks" transform:
// computes a digest over the fields named by the stub's
// `cached-task.digest-data` list (plus the task's own definition), then
// rewrites the stub to advertise that digest as an index key under
// `<prefix>.<kind>-<digest>` (the optimizer's index-search
// strategy is the conventional consumer).
func CachedTasks(prefix string) Func {
	return Map("cached-tasks", func(_ *Config, t Stub) (Stub, error) {
		spec, ok := t["cached-task"].(map[string]interface{})
		if !ok {
			return t, nil
		}

		digestFields := stringListOf(spec["digest-data"])

		digest, err := computeDigest(t, digestFields)
		if err != nil {
			return nil, err
		}

		kind, _ := t["kind"].(string)
		indexPath := fmt.Sprintf("%s.%s-%s", prefix, kind, digest)

		def, _ := t["task"].(map[string]interface{})
		if def == nil {
			def = map[string]interface{}{}
		}

		routes, _ := def["routes"].([]interface{})
		def["routes"] = append(routes, "index."+indexPath)
		t["task"] = def

		opt, _ := t["optimization"].(map[string]interface{})
		if opt == nil {
			opt = map[string]interface{}{}
		}

		opt["index-search"] = []interface{}{"index." + indexPath}
		t["optimization"] = opt

		return t, nil
	})
}

// computeDigest hashes the task's own definition plus every value located
// at the dotted paths in fields, sorted by path so the digest is
// order-independent.
func computeDigest(t Stub, fields []string) (string, error) {
	parts := map[string]interface{}{"task": t["task"]}

	for _, f := range fields {
		loc, err := locateField(t, f)
		if err != nil {
			return "", err
		}

		if loc != nil {
			parts[f] = loc.get()
		}
	}

	keys := make([]string, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	h := sha256.New()

	for _, k := range keys {
		buf, err := json.Marshal(parts[k])
		if err != nil {
			return "", fmt.Errorf("cached-tasks: digesting %q: %w", k, err)
		}

		h.Write([]byte(k))
		h.Write(buf)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
