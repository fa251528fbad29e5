// Package diff implements the structural comparison between two
// configuration documents. Changes are addressed by field path
// (dot/bracket notation) rather than by text line.
package diff

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/kubedeck/kubedeck-backend/internal/document"
)

// ChangeKind classifies a single field-level change.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Removed  ChangeKind = "removed"
	Modified ChangeKind = "modified"
)

// Change is one field-level difference between two documents.
type Change struct {
	FieldPath string     `json:"field_path"`
	Kind      ChangeKind `json:"change_type"`
	Before    any        `json:"old_value"`
	After     any        `json:"new_value"`
}

// Diff compares two documents and returns the field-level changes in
// deterministic traversal order (sorted mapping keys, sequence index
// order). Changes are reported at the deepest path that fully explains
// the divergence; a subtree present on only one side is reported once
// at its root. Equal documents yield an empty result.
func Diff(original, updated document.Document) []Change {
	a := document.Normalize(original)
	b := document.Normalize(updated)
	var changes []Change
	diffValue("", map[string]any(a), map[string]any(b), &changes)
	return changes
}

func diffValue(path string, before, after any, out *[]Change) {
	bm, bIsMap := before.(map[string]any)
	am, aIsMap := after.(map[string]any)
	if bIsMap && aIsMap {
		diffMaps(path, bm, am, out)
		return
	}
	bs, bIsSeq := before.([]any)
	as, aIsSeq := after.([]any)
	if bIsSeq && aIsSeq {
		diffSequences(path, bs, as, out)
		return
	}
	if !reflect.DeepEqual(before, after) {
		*out = append(*out, Change{FieldPath: path, Kind: Modified, Before: before, After: after})
	}
}

func diffMaps(path string, before, after map[string]any, out *[]Change) {
	keys := make([]string, 0, len(before)+len(after))
	seen := make(map[string]bool, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range after {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		child := joinPath(path, k)
		bv, inBefore := before[k]
		av, inAfter := after[k]
		switch {
		case inBefore && !inAfter:
			*out = append(*out, Change{FieldPath: child, Kind: Removed, Before: bv, After: nil})
		case !inBefore && inAfter:
			*out = append(*out, Change{FieldPath: child, Kind: Added, Before: nil, After: av})
		default:
			diffValue(child, bv, av, out)
		}
	}
}

// diffSequences compares element-wise by index. There is no element
// identity tracking: a reordered sequence shows up as modified entries
// at the shifted indices, and length changes as added/removed entries
// at the tail.
func diffSequences(path string, before, after []any, out *[]Change) {
	n := len(before)
	if len(after) < n {
		n = len(after)
	}
	for i := 0; i < n; i++ {
		diffValue(indexPath(path, i), before[i], after[i], out)
	}
	for i := n; i < len(before); i++ {
		*out = append(*out, Change{FieldPath: indexPath(path, i), Kind: Removed, Before: before[i], After: nil})
	}
	for i := n; i < len(after); i++ {
		*out = append(*out, Change{FieldPath: indexPath(path, i), Kind: Added, Before: nil, After: after[i]})
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
