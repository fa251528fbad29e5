package service

import (
	"context"
	"time"
)

// DashboardStats is the landing-page summary.
type DashboardStats struct {
	Deployments int       `json:"deployments"`
	DaemonSets  int       `json:"daemonsets"`
	Namespaces  int       `json:"namespaces"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Stats aggregates cluster-wide counts for the dashboard landing page.
// Counts go through the workload cache, so repeated refreshes are
// cheap.
func (s *WorkloadService) Stats(ctx context.Context) (*DashboardStats, error) {
	deployments, err := s.ListDeployments(ctx, "", "")
	if err != nil {
		return nil, err
	}
	daemonsets, err := s.ListDaemonSets(ctx, "", "")
	if err != nil {
		return nil, err
	}
	namespaces, err := s.cluster.ListNamespaces(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		Deployments: len(deployments),
		DaemonSets:  len(daemonsets),
		Namespaces:  len(namespaces),
		GeneratedAt: time.Now(),
	}, nil
}
