package services

import "shopledger/internal/repos"

// AnalyticsService is read-only: it never mutates stock or balances.
type AnalyticsService struct {
	Rollups *repos.AnalyticsRepo

	// Products at or below this stock level count as low stock.
	LowStockAt int
}

func NewAnalyticsService(rollups *repos.AnalyticsRepo) *AnalyticsService {
	return &AnalyticsService{Rollups: rollups, LowStockAt: 5}
}

func (s *AnalyticsService) Summary() (repos.Summary, error) {
	return s.Rollups.Summary(s.LowStockAt)
}

func (s *AnalyticsService) RevenueByDay(days int) ([]repos.DayRevenue, error) {
	if days < 1 {
		days = 7
	}
	if days > 90 {
		days = 90
	}
	return s.Rollups.RevenueByDay(days)
}

func (s *AnalyticsService) TopProducts(limit int) ([]repos.TopProduct, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return s.Rollups.TopProducts(limit)
}
