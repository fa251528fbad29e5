package k8s

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubedeck/kubedeck-backend/internal/models"
)

// ListDeployments returns the list-view rows for deployments, across
// all namespaces when namespace is empty.
func (c *Client) ListDeployments(ctx context.Context, namespace, labelSelector string) ([]models.WorkloadInfo, error) {
	if err := c.waitRateLimit(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var list *appsv1.DeploymentList
	err := doWithRetry(ctx, defaultRetryAttempts, func() error {
		var listErr error
		list, listErr = c.Clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
		return listErr
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.WorkloadInfo, 0, len(list.Items))
	for _, d := range list.Items {
		replicas := int32(0)
		if d.Spec.Replicas != nil {
			replicas = *d.Spec.Replicas
		}
		out = append(out, models.WorkloadInfo{
			Name:      d.Name,
			Namespace: d.Namespace,
			Created:   d.CreationTimestamp.Time,
			Status: map[string]int32{
				"replicas":           replicas,
				"ready_replicas":     d.Status.ReadyReplicas,
				"updated_replicas":   d.Status.UpdatedReplicas,
				"available_replicas": d.Status.AvailableReplicas,
			},
			Labels:      d.Labels,
			Annotations: d.Annotations,
		})
	}
	return out, nil
}

// ListDaemonSets returns the list-view rows for daemonsets.
func (c *Client) ListDaemonSets(ctx context.Context, namespace, labelSelector string) ([]models.WorkloadInfo, error) {
	if err := c.waitRateLimit(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var list *appsv1.DaemonSetList
	err := doWithRetry(ctx, defaultRetryAttempts, func() error {
		var listErr error
		list, listErr = c.Clientset.AppsV1().DaemonSets(namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
		return listErr
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.WorkloadInfo, 0, len(list.Items))
	for _, d := range list.Items {
		out = append(out, models.WorkloadInfo{
			Name:      d.Name,
			Namespace: d.Namespace,
			Created:   d.CreationTimestamp.Time,
			Status: map[string]int32{
				"desired_number_scheduled": d.Status.DesiredNumberScheduled,
				"current_number_scheduled": d.Status.CurrentNumberScheduled,
				"number_ready":             d.Status.NumberReady,
				"updated_number_scheduled": d.Status.UpdatedNumberScheduled,
				"number_available":         d.Status.NumberAvailable,
			},
			Labels:      d.Labels,
			Annotations: d.Annotations,
		})
	}
	return out, nil
}

// ListNamespaces returns the names of all namespaces in the cluster.
func (c *Client) ListNamespaces(ctx context.Context) ([]string, error) {
	if err := c.waitRateLimit(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var list *corev1.NamespaceList
	err := doWithRetry(ctx, defaultRetryAttempts, func() error {
		var listErr error
		list, listErr = c.Clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
		return listErr
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		names = append(names, ns.Name)
	}
	return names, nil
}
