package service

import (
	"context"

	"eshop-service/internal/models"
	"eshop-service/internal/store"
	"eshop-service/internal/util"
)

// DashboardService aggregates storefront counters for administrators
type DashboardService struct {
	store *store.Store
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store *store.Store) *DashboardService {
	return &DashboardService{store: store}
}

// GetStats returns the aggregate dashboard counters.
func (s *DashboardService) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.GetStats")
	defer span.End()

	return s.store.GetDashboardStats(ctx)
}

// GetOrderStatusSummary returns order counts grouped by status.
func (s *DashboardService) GetOrderStatusSummary(ctx context.Context) (map[string]int64, error) {
	return s.store.GetOrderStatusSummary(ctx)
}
