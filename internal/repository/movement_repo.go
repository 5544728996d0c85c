package repository

import (
	"time"

	"scrapyard-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementRepository interface {
	// Create appends one ledger row. Movements are never updated or deleted.
	Create(movement *model.InventoryMovement) error
	FindByMaterial(materialID uuid.UUID, limit int) ([]model.InventoryMovement, error)
	DailyFlows(startDate, endDate time.Time) ([]DailyFlow, error)
}

// DailyFlow aggregates inbound/outbound kilograms per day for chart data.
type DailyFlow struct {
	Date     string          `json:"date"`
	Inbound  decimal.Decimal `json:"inbound"`
	Outbound decimal.Decimal `json:"outbound"`
}

type movementRepo struct {
	db *gorm.DB
}

func NewMovementRepo(db *gorm.DB) MovementRepository {
	return &movementRepo{db}
}

func (r *movementRepo) Create(movement *model.InventoryMovement) error {
	return r.db.Create(movement).Error
}

func (r *movementRepo) FindByMaterial(materialID uuid.UUID, limit int) ([]model.InventoryMovement, error) {
	var movements []model.InventoryMovement
	q := r.db.Where("material_id = ?", materialID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&movements).Error
	return movements, err
}

func (r *movementRepo) DailyFlows(startDate, endDate time.Time) ([]DailyFlow, error) {
	var results []DailyFlow

	rows, err := r.db.Model(&model.InventoryMovement{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN type = 'OUT' THEN ABS(quantity) ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var flow DailyFlow
		if err := rows.Scan(&flow.Date, &flow.Inbound, &flow.Outbound); err != nil {
			return nil, err
		}
		results = append(results, flow)
	}

	return results, rows.Err()
}
