// Package document holds the structured configuration document that the
// editor pipeline operates on, plus the YAML/JSON text converter.
// A Document is an order-irrelevant tree of mappings, sequences and
// scalars; two documents are compared structurally, never textually.
package document

import (
	"fmt"
	"reflect"
)

// Document is a resource's desired/live spec as a nested mapping tree.
// Values are always normalized: map[string]any, []any, string, bool,
// int64, float64 or nil. Normalization keeps documents parsed from YAML
// and JSON directly comparable.
type Document map[string]any

// Normalize returns a copy of the document with every scalar and
// container converted to the canonical set of types. Integral numbers
// become int64, other numbers float64.
func Normalize(doc Document) Document {
	out, _ := normalizeValue(map[string]any(doc)).(map[string]any)
	return Document(out)
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bool, string:
		return t
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = normalizeValue(val)
		}
		return m
	case map[any]any:
		// yaml.v2-style mappings; keys are stringified.
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprintf("%v", k)] = normalizeValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = normalizeValue(val)
		}
		return s
	case Document:
		return normalizeValue(map[string]any(t))
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return normalizeFloat(float64(t))
	case float64:
		return normalizeFloat(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// normalizeFloat collapses integral floats (the JSON decoder's view of
// whole numbers) into int64 so 3 and 3.0 compare equal across syntaxes.
func normalizeFloat(f float64) any {
	if f == float64(int64(f)) {
		return int64(f)
	}
	return f
}

// DeepEqual reports structural equality of two normalized documents.
func DeepEqual(a, b Document) bool {
	return reflect.DeepEqual(Normalize(a), Normalize(b))
}

// DeepCopy returns an independent copy of the document.
func DeepCopy(doc Document) Document {
	return Normalize(doc)
}

// DeepMerge merges source into target recursively: nested mappings are
// merged key by key, everything else (sequences included) is replaced
// by the source value. Neither input is mutated.
func DeepMerge(target, source Document) Document {
	out := DeepCopy(target)
	src := Normalize(source)
	for k, sv := range src {
		tv, ok := out[k]
		tm, tIsMap := tv.(map[string]any)
		sm, sIsMap := sv.(map[string]any)
		if ok && tIsMap && sIsMap {
			out[k] = map[string]any(DeepMerge(Document(tm), Document(sm)))
			continue
		}
		out[k] = sv
	}
	return out
}
