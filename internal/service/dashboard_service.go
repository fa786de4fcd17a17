package service

import (
	"time"

	"go-rackstock-ws/internal/repository"
)

const maxMovementWindowDays = 90

type StockMovementReport struct {
	Start  time.Time                      `json:"start"`
	End    time.Time                      `json:"end"`
	Days   int                            `json:"days"`
	Points []repository.StockMovementData `json:"points"`
}

type DashboardService interface {
	GetStockMovement(days int) (*StockMovementReport, error)
	GetDashboardStats() (*repository.DashboardStats, error)
}

type dashboardService struct {
	txRepo repository.TransactionRepository
}

func NewDashboardService(txRepo repository.TransactionRepository) DashboardService {
	return &dashboardService{txRepo: txRepo}
}

func (s *dashboardService) GetStockMovement(days int) (*StockMovementReport, error) {
	// Clamp the window so a bad query param can't sweep the whole table
	if days < 1 {
		days = 1
	}
	if days > maxMovementWindowDays {
		days = maxMovementWindowDays
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	points, err := s.txRepo.GetStockMovement(start, end)
	if err != nil {
		return nil, err
	}

	return &StockMovementReport{
		Start:  start,
		End:    end,
		Days:   days,
		Points: points,
	}, nil
}

func (s *dashboardService) GetDashboardStats() (*repository.DashboardStats, error) {
	return s.txRepo.GetDashboardStats()
}
