package document

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCanonicalScalars(t *testing.T) {
	doc := Document{
		"int":      int(3),
		"int32":    int32(7),
		"float":    float64(5.0),
		"realreal": float64(2.5),
		"nested": map[string]any{
			"count": uint(9),
		},
		"list": []any{int(1), float64(2.0)},
	}
	norm := Normalize(doc)

	assert.Equal(t, int64(3), norm["int"])
	assert.Equal(t, int64(7), norm["int32"])
	assert.Equal(t, int64(5), norm["float"], "integral floats collapse to int64")
	assert.Equal(t, float64(2.5), norm["realreal"])
	assert.Equal(t, int64(9), norm["nested"].(map[string]any)["count"])
	assert.Equal(t, []any{int64(1), int64(2)}, norm["list"])
}

func TestYAMLAndJSONParseEqual(t *testing.T) {
	yamlDoc, err := ToDocument(EditorText{
		Text:   "spec:\n  replicas: 3\n  weight: 0.5\n",
		Syntax: SyntaxYAML,
	})
	require.NoError(t, err)

	jsonDoc, err := ToDocument(EditorText{
		Text:   `{"spec": {"replicas": 3, "weight": 0.5}}`,
		Syntax: SyntaxJSON,
	})
	require.NoError(t, err)

	assert.True(t, DeepEqual(yamlDoc, jsonDoc), cmp.Diff(yamlDoc, jsonDoc))
}

func TestToTextDeterministic(t *testing.T) {
	doc := Document{
		"b": int64(2),
		"a": map[string]any{"z": "v", "m": []any{int64(1)}},
	}
	for _, syntax := range []Syntax{SyntaxYAML, SyntaxJSON} {
		first, err := ToText(doc, syntax)
		require.NoError(t, err)
		second, err := ToText(doc, syntax)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		parsed, err := ToDocument(first)
		require.NoError(t, err)
		assert.True(t, DeepEqual(doc, parsed))
	}
}

func TestConvertRoundTrip(t *testing.T) {
	orig := EditorText{
		Text:   "metadata:\n  name: web\nspec:\n  replicas: 3\n",
		Syntax: SyntaxYAML,
	}
	asJSON, err := Convert(orig, SyntaxJSON)
	require.NoError(t, err)
	assert.Equal(t, SyntaxJSON, asJSON.Syntax)

	backToYAML, err := Convert(asJSON, SyntaxYAML)
	require.NoError(t, err)

	a, err := ToDocument(orig)
	require.NoError(t, err)
	b, err := ToDocument(backToYAML)
	require.NoError(t, err)
	assert.True(t, DeepEqual(a, b))
}

func TestToDocumentSyntaxError(t *testing.T) {
	_, err := ToDocument(EditorText{Text: "a: [unclosed", Syntax: SyntaxYAML})
	var serr *SyntaxError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, SyntaxYAML, serr.Syntax)

	_, err = ToDocument(EditorText{Text: `{"a":`, Syntax: SyntaxJSON})
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, SyntaxJSON, serr.Syntax)
}

func TestDeepCopyIsolation(t *testing.T) {
	doc := Document{"spec": map[string]any{"replicas": int64(3)}}
	cp := DeepCopy(doc)
	cp["spec"].(map[string]any)["replicas"] = int64(5)
	assert.Equal(t, int64(3), doc["spec"].(map[string]any)["replicas"])
}

func TestDeepMerge(t *testing.T) {
	target := Document{
		"spec": map[string]any{
			"replicas": int64(3),
			"template": map[string]any{"labels": map[string]any{"app": "web"}},
			"ports":    []any{int64(80)},
		},
	}
	source := Document{
		"spec": map[string]any{
			"replicas": int64(5),
			"ports":    []any{int64(443)},
		},
	}
	merged := DeepMerge(target, source)

	spec := merged["spec"].(map[string]any)
	assert.Equal(t, int64(5), spec["replicas"])
	assert.Equal(t, []any{int64(443)}, spec["ports"], "sequences replace, not merge")
	assert.Contains(t, spec, "template", "untouched subtrees survive")

	// Inputs are not mutated.
	assert.Equal(t, int64(3), target["spec"].(map[string]any)["replicas"])
}
