// Package ctyconv converts the dynamic map[string]interface{}/[]interface{}
// trees produced by decoding YAML/JSON into github.com/zclconf/go-cty
// values for typed comparison. Object/Tuple (rather than Map/List)
// cty kinds are used throughout because this domain's maps and lists are
// heterogeneously typed — config authors mix strings, numbers, and nested
// structures freely, which cty.MapVal/cty.ListVal do not allow.
package ctyconv

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ToCty converts a decoded YAML/JSON value into a cty.Value.
func ToCty(v interface{}) (cty.Value, error) {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(t), nil
	case bool:
		return cty.BoolVal(t), nil
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case float64:
		return cty.NumberFloatVal(t), nil
	case []interface{}:
		if len(t) == 0 {
			return cty.EmptyTupleVal, nil
		}

		vals := make([]cty.Value, len(t))

		for i, e := range t {
			cv, err := ToCty(e)
			if err != nil {
				return cty.NilVal, err
			}

			vals[i] = cv
		}

		return cty.TupleVal(vals), nil
	case map[string]interface{}:
		if len(t) == 0 {
			return cty.EmptyObjectVal, nil
		}

		fields := make(map[string]cty.Value, len(t))

		for k, e := range t {
			cv, err := ToCty(e)
			if err != nil {
				return cty.NilVal, err
			}

			fields[k] = cv
		}

		return cty.ObjectVal(fields), nil
	default:
		return cty.NilVal, fmt.Errorf("ctyconv: unsupported type %T", v)
	}
}

// FromCty converts a cty.Value back into a plain Go value.
func FromCty(v cty.Value) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}

	if !v.IsKnown() {
		return nil, fmt.Errorf("ctyconv: value is not known")
	}

	t := v.Type()

	switch {
	case t == cty.String:
		return v.AsString(), nil
	case t == cty.Bool:
		return v.True(), nil
	case t == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		var out []interface{}

		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()

			goVal, err := FromCty(ev)
			if err != nil {
				return nil, err
			}

			out = append(out, goVal)
		}

		return out, nil
	case t.IsObjectType() || t.IsMapType():
		out := map[string]interface{}{}

		it := v.ElementIterator()
		for it.Next() {
			kv, ev := it.Element()

			goVal, err := FromCty(ev)
			if err != nil {
				return nil, err
			}

			out[kv.AsString()] = goVal
		}

		return out, nil
	default:
		return nil, fmt.Errorf("ctyconv: unsupported cty type %s", t.FriendlyName())
	}
}
