package repository

import (
	"errors"
	"time"

	"scrapyard-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	// Create inserts the header together with its detail lines.
	Create(transaction *model.Transaction) error
	FindAll(search string, limit int) ([]model.Transaction, error)
	FindByID(id uuid.UUID) (*model.Transaction, error)
	FindLatest() (*model.Transaction, error)
	// LastFolio returns the highest folio starting with prefix, or "" when no
	// transaction of that year exists yet.
	LastFolio(prefix string) (string, error)
	TotalsSince(since time.Time) (*PurchaseTotals, error)
}

// PurchaseTotals feeds the dashboard overview.
type PurchaseTotals struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(transaction *model.Transaction) error {
	return r.db.Create(transaction).Error
}

func (r *transactionRepo) FindAll(search string, limit int) ([]model.Transaction, error) {
	var transactions []model.Transaction
	q := r.db.Preload("Client").Preload("User").Order("created_at DESC")
	if search != "" {
		like := "%" + search + "%"
		q = q.Joins("JOIN clients ON clients.id = transactions.client_id").
			Where("transactions.folio ILIKE ? OR clients.name ILIKE ? OR clients.document ILIKE ?",
				like, like, like)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByID(id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.Preload("Client").Preload("User").
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Details.Material").
		First(&transaction, "id = ?", id).Error
	return &transaction, err
}

func (r *transactionRepo) FindLatest() (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.Order("created_at DESC").First(&transaction).Error
	return &transaction, err
}

func (r *transactionRepo) LastFolio(prefix string) (string, error) {
	var transaction model.Transaction
	err := r.db.Select("folio").
		Where("folio LIKE ?", prefix+"%").
		Order("folio DESC").
		First(&transaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return transaction.Folio, nil
}

func (r *transactionRepo) TotalsSince(since time.Time) (*PurchaseTotals, error) {
	var totals PurchaseTotals

	if err := r.db.Model(&model.Transaction{}).
		Where("created_at >= ?", since).
		Count(&totals.Count).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&model.Transaction{}).
		Where("created_at >= ?", since).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totals.Amount).Error; err != nil {
		return nil, err
	}

	return &totals, nil
}
