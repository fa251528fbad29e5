package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	dynfake "k8s.io/client-go/dynamic/fake"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/kubedeck/kubedeck-backend/internal/document"
	"github.com/kubedeck/kubedeck-backend/internal/models"
)

func deploymentObject() *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata": map[string]any{
			"name":              "web",
			"namespace":         "default",
			"uid":               "abc-123",
			"resourceVersion":   "41",
			"generation":        int64(2),
			"creationTimestamp": "2026-01-01T00:00:00Z",
			"labels":            map[string]any{"app": "web"},
		},
		"spec": map[string]any{
			"replicas": int64(3),
			"selector": map[string]any{"matchLabels": map[string]any{"app": "web"}},
		},
		"status": map[string]any{"readyReplicas": int64(3)},
	}}
}

func fakeClient(objs ...runtime.Object) *Client {
	scheme := runtime.NewScheme()
	_ = appsv1.AddToScheme(scheme)
	_ = corev1.AddToScheme(scheme)
	dyn := dynfake.NewSimpleDynamicClient(scheme, objs...)
	return NewClientForTest(k8sfake.NewSimpleClientset(), dyn)
}

func webRef() models.ResourceRef {
	return models.ResourceRef{Type: "deployment", Namespace: "default", Name: "web"}
}

func TestGetConfigSanitizes(t *testing.T) {
	c := fakeClient(deploymentObject())

	doc, err := c.GetConfig(context.Background(), webRef())
	require.NoError(t, err)

	assert.NotContains(t, doc, "status")
	meta := doc["metadata"].(map[string]any)
	assert.NotContains(t, meta, "uid")
	assert.NotContains(t, meta, "resourceVersion")
	assert.NotContains(t, meta, "generation")
	assert.NotContains(t, meta, "creationTimestamp")
	assert.Equal(t, "web", meta["name"])
	assert.Equal(t, int64(3), doc["spec"].(map[string]any)["replicas"])
}

func TestGetConfigNotFound(t *testing.T) {
	c := fakeClient()
	_, err := c.GetConfig(context.Background(), webRef())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestGetConfigUnsupportedType(t *testing.T) {
	c := fakeClient()
	_, err := c.GetConfig(context.Background(), models.ResourceRef{Type: "pod", Namespace: "default", Name: "x"})
	require.Error(t, err)
}

func TestPutConfigMerge(t *testing.T) {
	c := fakeClient(deploymentObject())

	patch := document.Document{"spec": map[string]any{"replicas": int64(5)}}
	updated, previous, rv, err := c.PutConfig(context.Background(), webRef(), patch, false, models.StrategyMerge)
	require.NoError(t, err)

	assert.Equal(t, int64(3), previous["spec"].(map[string]any)["replicas"], "previous holds the pre-apply state")
	assert.Equal(t, int64(5), updated["spec"].(map[string]any)["replicas"])
	assert.Contains(t, updated["spec"].(map[string]any), "selector", "merge keeps untouched fields")
	assert.NotEmpty(t, rv)

	// The change is persisted.
	live, err := c.GetConfig(context.Background(), webRef())
	require.NoError(t, err)
	assert.Equal(t, int64(5), live["spec"].(map[string]any)["replicas"])
}

func TestPutConfigReplace(t *testing.T) {
	c := fakeClient(deploymentObject())

	full := document.Document{
		"metadata": map[string]any{"name": "web", "namespace": "default"},
		"spec": map[string]any{
			"replicas": int64(1),
		},
	}
	updated, _, _, err := c.PutConfig(context.Background(), webRef(), full, false, models.StrategyReplace)
	require.NoError(t, err)

	spec := updated["spec"].(map[string]any)
	assert.Equal(t, int64(1), spec["replicas"])
	assert.NotContains(t, spec, "selector", "replace drops fields absent from the document")
}

func TestPutConfigUnknownStrategy(t *testing.T) {
	c := fakeClient(deploymentObject())
	_, _, _, err := c.PutConfig(context.Background(), webRef(), document.Document{}, false, models.UpdateStrategy("patch"))
	require.Error(t, err)
}

func TestPutConfigNotFound(t *testing.T) {
	c := fakeClient()
	_, _, _, err := c.PutConfig(context.Background(), webRef(), document.Document{}, false, models.StrategyMerge)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestListWorkloads(t *testing.T) {
	replicas := int32(3)
	clientset := k8sfake.NewSimpleClientset(
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default", Labels: map[string]string{"app": "web"}},
			Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
			Status:     appsv1.DeploymentStatus{ReadyReplicas: 3, AvailableReplicas: 3},
		},
		&appsv1.DaemonSet{
			ObjectMeta: metav1.ObjectMeta{Name: "agent", Namespace: "kube-system"},
			Status:     appsv1.DaemonSetStatus{DesiredNumberScheduled: 4, NumberReady: 4},
		},
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "kube-system"}},
	)
	scheme := runtime.NewScheme()
	_ = appsv1.AddToScheme(scheme)
	c := NewClientForTest(clientset, dynfake.NewSimpleDynamicClient(scheme))

	deployments, err := c.ListDeployments(context.Background(), "default", "")
	require.NoError(t, err)
	require.Len(t, deployments, 1)
	assert.Equal(t, "web", deployments[0].Name)
	assert.Equal(t, int32(3), deployments[0].Status["replicas"])
	assert.Equal(t, int32(3), deployments[0].Status["ready_replicas"])

	daemonsets, err := c.ListDaemonSets(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, daemonsets, 1)
	assert.Equal(t, int32(4), daemonsets[0].Status["desired_number_scheduled"])

	namespaces, err := c.ListNamespaces(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"default", "kube-system"}, namespaces)
}
