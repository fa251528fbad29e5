package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubedeck/kubedeck-backend/internal/document"
)

func validDeployment() document.Document {
	return document.Document{
		"spec": map[string]any{
			"replicas": int64(3),
			"selector": map[string]any{
				"matchLabels": map[string]any{"app": "web"},
			},
			"template": map[string]any{
				"metadata": map[string]any{
					"labels": map[string]any{"app": "web"},
				},
				"spec": map[string]any{
					"containers": []any{
						map[string]any{"name": "web", "image": "nginx:1.27"},
					},
				},
			},
		},
	}
}

func TestValidDeploymentHasNoIssues(t *testing.T) {
	assert.Empty(t, Validate("deployment", validDeployment()))
}

func TestNegativeReplicas(t *testing.T) {
	doc := validDeployment()
	doc["spec"].(map[string]any)["replicas"] = int64(-1)
	issues := Validate("deployment", doc)
	require.Len(t, issues, 1)
	assert.Equal(t, "spec.replicas", issues[0].Field)
}

func TestMissingSelector(t *testing.T) {
	doc := validDeployment()
	delete(doc["spec"].(map[string]any), "selector")
	issues := Validate("deployment", doc)
	require.Len(t, issues, 1)
	assert.Equal(t, "spec.selector", issues[0].Field)
}

func TestSelectorWithoutMatchLabels(t *testing.T) {
	doc := validDeployment()
	doc["spec"].(map[string]any)["selector"] = map[string]any{}
	issues := Validate("deployment", doc)
	require.NotEmpty(t, issues)
	assert.Equal(t, "spec.selector.matchLabels", issues[0].Field)
}

func TestSelectorTemplateMismatch(t *testing.T) {
	doc := validDeployment()
	tpl := doc["spec"].(map[string]any)["template"].(map[string]any)
	tpl["metadata"].(map[string]any)["labels"] = map[string]any{"app": "other"}
	issues := Validate("deployment", doc)
	require.Len(t, issues, 1)
	assert.Equal(t, "spec.selector.matchLabels.app", issues[0].Field)
}

func TestSelectorMismatchOrderIsDeterministic(t *testing.T) {
	doc := validDeployment()
	doc["spec"].(map[string]any)["selector"] = map[string]any{
		"matchLabels": map[string]any{
			"a": "1", "b": "2", "c": "3", "d": "4", "e": "5", "f": "6",
		},
	}
	tpl := doc["spec"].(map[string]any)["template"].(map[string]any)
	tpl["metadata"].(map[string]any)["labels"] = map[string]any{"app": "web"}

	first := Validate("deployment", doc)
	require.Len(t, first, 6)
	for i, k := range []string{"a", "b", "c", "d", "e", "f"} {
		assert.Equal(t, "spec.selector.matchLabels."+k, first[i].Field)
	}
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Validate("deployment", doc))
	}
}

func TestContainerMissingImage(t *testing.T) {
	doc := validDeployment()
	podSpec := doc["spec"].(map[string]any)["template"].(map[string]any)["spec"].(map[string]any)
	podSpec["containers"] = []any{map[string]any{"name": "web"}}
	issues := Validate("deployment", doc)
	require.Len(t, issues, 1)
	assert.Equal(t, "spec.template.spec.containers[0].image", issues[0].Field)
}

func TestEmptyContainers(t *testing.T) {
	doc := validDeployment()
	podSpec := doc["spec"].(map[string]any)["template"].(map[string]any)["spec"].(map[string]any)
	podSpec["containers"] = []any{}
	issues := Validate("deployment", doc)
	require.Len(t, issues, 1)
	assert.Equal(t, "spec.template.spec.containers", issues[0].Field)
}

func TestStatefulSetRequiresServiceName(t *testing.T) {
	doc := validDeployment()
	issues := Validate("statefulset", doc)
	require.Len(t, issues, 1)
	assert.Equal(t, "spec.serviceName", issues[0].Field)

	doc["spec"].(map[string]any)["serviceName"] = "web"
	assert.Empty(t, Validate("statefulset", doc))
}

func TestServicePortNumbers(t *testing.T) {
	doc := document.Document{
		"spec": map[string]any{
			"ports": []any{
				map[string]any{"port": int64(80)},
				map[string]any{"targetPort": int64(8080)},
			},
		},
	}
	issues := Validate("service", doc)
	require.Len(t, issues, 1)
	assert.Equal(t, "spec.ports[1].port", issues[0].Field)
}

func TestUnknownTypeAndMissingSpec(t *testing.T) {
	assert.Empty(t, Validate("configmap", document.Document{"data": map[string]any{"k": "v"}}))
	assert.Empty(t, Validate("deployment", document.Document{"metadata": map[string]any{"name": "x"}}))
}

func TestValidateIsPure(t *testing.T) {
	doc := validDeployment()
	doc["spec"].(map[string]any)["replicas"] = int64(-2)

	first := Validate("deployment", doc)
	second := Validate("deployment", doc)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(-2), doc["spec"].(map[string]any)["replicas"], "input document untouched")
}
