package service

import (
	"time"

	"scrapyard-api/internal/repository"
	"scrapyard-api/pkg/apperr"
)

type DashboardService interface {
	GetStats() (*DashboardStats, error)
	GetMovementFlows(days int) ([]repository.DailyFlow, error)
}

// DashboardStats is the overview block of the dashboard.
type DashboardStats struct {
	Catalog        *repository.CatalogStats   `json:"catalog"`
	PurchasesToday *repository.PurchaseTotals `json:"purchases_today"`
}

type dashboardService struct {
	store repository.Store
}

func NewDashboardService(store repository.Store) DashboardService {
	return &dashboardService{store: store}
}

func (s *dashboardService) GetStats() (*DashboardStats, error) {
	catalog, err := s.store.Materials().Stats()
	if err != nil {
		return nil, apperr.FromDB(err, "material")
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.store.Transactions().TotalsSince(midnight)
	if err != nil {
		return nil, apperr.FromDB(err, "transaction")
	}

	return &DashboardStats{Catalog: catalog, PurchasesToday: today}, nil
}

func (s *dashboardService) GetMovementFlows(days int) ([]repository.DailyFlow, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	flows, err := s.store.Movements().DailyFlows(startDate, endDate)
	if err != nil {
		return nil, apperr.FromDB(err, "inventory movement")
	}
	return flows, nil
}
