package repository

import (
	"scrapyard-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MaterialRepository interface {
	Create(material *model.Material) error
	FindAll(search string) ([]model.Material, error)
	FindAllWithMovements(search string, movementLimit int) ([]model.Material, error)
	FindByID(id uuid.UUID) (*model.Material, error)
	// FindByIDForUpdate locks the material row (SELECT ... FOR UPDATE) so the
	// read-compute-write-append sequence of a stock mutation cannot interleave
	// with a concurrent posting against the same material.
	FindByIDForUpdate(id uuid.UUID) (*model.Material, error)
	FindByCode(code string) (*model.Material, error)
	ExistsByCodeOrName(code, name string) (bool, error)
	Update(material *model.Material) error
	UpdateStock(id uuid.UUID, newStock decimal.Decimal, updatedBy string) error
	Stats() (*CatalogStats, error)
}

// CatalogStats feeds the dashboard overview.
type CatalogStats struct {
	TotalMaterials int64           `json:"total_materials"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

type materialRepo struct {
	db *gorm.DB
}

func NewMaterialRepo(db *gorm.DB) MaterialRepository {
	return &materialRepo{db}
}

func (r *materialRepo) Create(material *model.Material) error {
	return r.db.Create(material).Error
}

func (r *materialRepo) FindAll(search string) ([]model.Material, error) {
	var materials []model.Material
	q := r.db.Where("is_active = ?", true)
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("code ILIKE ? OR name ILIKE ? OR category ILIKE ?", like, like, like)
	}
	err := q.Order("name ASC").Find(&materials).Error
	return materials, err
}

func (r *materialRepo) FindAllWithMovements(search string, movementLimit int) ([]model.Material, error) {
	var materials []model.Material
	q := r.db.Where("is_active = ?", true).
		Preload("Movements", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(movementLimit)
		})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("code ILIKE ? OR name ILIKE ? OR category ILIKE ?", like, like, like)
	}
	err := q.Order("name ASC").Find(&materials).Error
	return materials, err
}

func (r *materialRepo) FindByID(id uuid.UUID) (*model.Material, error) {
	var material model.Material
	err := r.db.First(&material, "id = ?", id).Error
	return &material, err
}

func (r *materialRepo) FindByIDForUpdate(id uuid.UUID) (*model.Material, error) {
	var material model.Material
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&material, "id = ?", id).Error
	return &material, err
}

func (r *materialRepo) FindByCode(code string) (*model.Material, error) {
	var material model.Material
	err := r.db.First(&material, "code = ?", code).Error
	return &material, err
}

func (r *materialRepo) ExistsByCodeOrName(code, name string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Material{}).
		Where("code = ? OR name = ?", code, name).
		Count(&count).Error
	return count > 0, err
}

func (r *materialRepo) Update(material *model.Material) error {
	return r.db.Save(material).Error
}

func (r *materialRepo) UpdateStock(id uuid.UUID, newStock decimal.Decimal, updatedBy string) error {
	return r.db.Model(&model.Material{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      newStock,
			"updated_by": updatedBy,
		}).Error
}

func (r *materialRepo) Stats() (*CatalogStats, error) {
	var stats CatalogStats

	if err := r.db.Model(&model.Material{}).Where("is_active = ?", true).
		Count(&stats.TotalMaterials).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&model.Material{}).Where("is_active = ? AND stock < ?", true, 10).
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&model.Material{}).Where("is_active = ?", true).
		Select("COALESCE(SUM(stock * price), 0)").
		Scan(&stats.TotalValuation).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
