package transform

import (
	"fmt"
	"strconv"
)

// Chunking is the built-in "chunk" transform: duplicates a
// Stub `total-chunks` times, substituting `{this_chunk}` and
// `{total_chunks}` into the fields named by substitutionFields and into
// the label.
func Chunking(substitutionFields []string) Func {
	return FanOut("chunking", func(_ *Config, t Stub) ([]Stub, error) {
		spec, ok := t["chunk"].(map[string]interface{})
		if !ok {
			return []Stub{t}, nil
		}

		total, err := chunkCount(spec)
		if err != nil {
			return nil, err
		}

		if total <= 1 {
			return []Stub{t}, nil
		}

		out := make([]Stub, 0, total)

		for i := 1; i <= total; i++ {
			values := map[string]string{
				"this_chunk":   strconv.Itoa(i),
				"total_chunks": strconv.Itoa(total),
			}

			chunk := deepCopyStub(t)

			if label, ok := chunk["label"].(string); ok {
				chunk["label"] = interpolate(label, values)
			}

			for _, field := range substitutionFields {
				loc, err := locateField(chunk, field)
				if err != nil || loc == nil {
					continue
				}

				if s, ok := loc.get().(string); ok {
					loc.set(interpolate(s, values))
				}
			}

			out = append(out, chunk)
		}

		return out, nil
	})
}

func chunkCount(spec map[string]interface{}) (int, error) {
	switch v := spec["total-chunks"].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("chunk.total-chunks must be an integer, got %T", spec["total-chunks"])
	}
}
