package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubedeck/kubedeck-backend/internal/document"
)

func TestDiffEqualDocuments(t *testing.T) {
	doc := document.Document{
		"spec": map[string]any{"replicas": int64(3), "paused": false},
	}
	assert.Empty(t, Diff(doc, document.DeepCopy(doc)))
}

func TestDiffNumericEqualityAcrossSyntaxes(t *testing.T) {
	// The same document parsed from YAML (int) and JSON (float) must
	// not produce spurious changes.
	a := document.Document{"spec": map[string]any{"replicas": int(3)}}
	b := document.Document{"spec": map[string]any{"replicas": float64(3)}}
	assert.Empty(t, Diff(a, b))
}

func TestDiffModifiedAtDeepestPath(t *testing.T) {
	before := document.Document{
		"spec": map[string]any{"replicas": int64(3), "paused": false},
	}
	after := document.Document{
		"spec": map[string]any{"replicas": int64(5), "paused": false},
	}
	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, Change{
		FieldPath: "spec.replicas",
		Kind:      Modified,
		Before:    int64(3),
		After:     int64(5),
	}, changes[0])
}

func TestDiffSubtreeReportedOnceAtRoot(t *testing.T) {
	before := document.Document{"metadata": map[string]any{"name": "web"}}
	after := document.Document{
		"metadata": map[string]any{"name": "web"},
		"spec": map[string]any{
			"replicas": int64(2),
			"template": map[string]any{"labels": map[string]any{"app": "web"}},
		},
	}
	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, "spec", changes[0].FieldPath)
	assert.Equal(t, Added, changes[0].Kind)
	assert.Nil(t, changes[0].Before)

	// And symmetrically for removal.
	removed := Diff(after, before)
	require.Len(t, removed, 1)
	assert.Equal(t, "spec", removed[0].FieldPath)
	assert.Equal(t, Removed, removed[0].Kind)
	assert.Nil(t, removed[0].After)
}

func TestDiffSortedKeyOrder(t *testing.T) {
	before := document.Document{"zeta": int64(1), "alpha": int64(1), "mid": int64(1)}
	after := document.Document{"zeta": int64(2), "alpha": int64(2), "mid": int64(2)}
	changes := Diff(before, after)
	require.Len(t, changes, 3)
	assert.Equal(t, "alpha", changes[0].FieldPath)
	assert.Equal(t, "mid", changes[1].FieldPath)
	assert.Equal(t, "zeta", changes[2].FieldPath)
}

func TestDiffSequences(t *testing.T) {
	before := document.Document{
		"spec": map[string]any{
			"containers": []any{
				map[string]any{"name": "web", "image": "nginx:1.25"},
				map[string]any{"name": "sidecar", "image": "envoy:1.29"},
			},
		},
	}
	after := document.Document{
		"spec": map[string]any{
			"containers": []any{
				map[string]any{"name": "web", "image": "nginx:1.27"},
				map[string]any{"name": "sidecar", "image": "envoy:1.29"},
				map[string]any{"name": "metrics", "image": "exporter:2"},
			},
		},
	}
	changes := Diff(before, after)
	require.Len(t, changes, 2)

	assert.Equal(t, "spec.containers[0].image", changes[0].FieldPath)
	assert.Equal(t, Modified, changes[0].Kind)

	assert.Equal(t, "spec.containers[2]", changes[1].FieldPath)
	assert.Equal(t, Added, changes[1].Kind)
}

func TestDiffSequenceReorderIsModification(t *testing.T) {
	before := document.Document{"ports": []any{int64(80), int64(443)}}
	after := document.Document{"ports": []any{int64(443), int64(80)}}
	changes := Diff(before, after)
	require.Len(t, changes, 2)
	assert.Equal(t, "ports[0]", changes[0].FieldPath)
	assert.Equal(t, Modified, changes[0].Kind)
	assert.Equal(t, "ports[1]", changes[1].FieldPath)
}

func TestDiffTypeChange(t *testing.T) {
	before := document.Document{"value": "3"}
	after := document.Document{"value": int64(3)}
	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, Modified, changes[0].Kind)
	assert.Equal(t, "3", changes[0].Before)
	assert.Equal(t, int64(3), changes[0].After)
}
