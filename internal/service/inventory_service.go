package service

import (
	"scrapyard-api/internal/model"
	"scrapyard-api/internal/repository"
	"scrapyard-api/internal/ws"
	"scrapyard-api/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InventoryService interface {
	// PostAdjustment applies one manual stock movement. For IN/OUT the
	// quantity is the amount to move; for ADJUST it is the target balance.
	PostAdjustment(req *AdjustmentRequest, userID, userName string) (*model.InventoryMovement, error)
	ListInventory(search string) ([]model.Material, error)
	ListMovements(materialID uuid.UUID, limit int) ([]model.InventoryMovement, error)
}

type AdjustmentRequest struct {
	MaterialID uuid.UUID          `json:"material_id"`
	Type       model.MovementType `json:"type"`
	Quantity   decimal.Decimal    `json:"quantity"`
	Reference  string             `json:"reference"`
}

// recentMovements bounds the per-material history preloaded on the inventory listing.
const recentMovements = 3

type inventoryService struct {
	store repository.Store
	hub   *ws.Hub
}

func NewInventoryService(store repository.Store, hub *ws.Hub) InventoryService {
	return &inventoryService{store: store, hub: hub}
}

func (s *inventoryService) PostAdjustment(req *AdjustmentRequest, userID, userName string) (*model.InventoryMovement, error) {
	switch req.Type {
	case model.MovementIn, model.MovementOut, model.MovementAdjust:
	default:
		return nil, apperr.NewValidation("invalid movement type")
	}
	if req.MaterialID == uuid.Nil {
		return nil, apperr.NewValidation("a material must be selected")
	}
	if !req.Quantity.IsPositive() {
		return nil, apperr.NewValidation("quantity must be greater than 0")
	}

	reference := req.Reference
	if reference == "" {
		reference = "Adjustment by " + userName
	}

	var movement *model.InventoryMovement

	// The read-compute-write-append sequence runs as one locked unit so a
	// concurrent posting against the same material cannot produce a stale
	// balance snapshot or a lost update.
	err := s.store.Atomically(func(tx repository.Store) error {
		material, err := tx.Materials().FindByIDForUpdate(req.MaterialID)
		if err != nil {
			return apperr.FromDB(err, "material")
		}
		if !material.IsActive {
			return apperr.NewValidation("material is not active")
		}

		var newBalance, ledgerQty decimal.Decimal
		switch req.Type {
		case model.MovementIn:
			newBalance = material.Stock.Add(req.Quantity)
			ledgerQty = req.Quantity
		case model.MovementOut:
			if req.Quantity.GreaterThan(material.Stock) {
				return apperr.NewInsufficientStock("not enough stock for this outbound movement")
			}
			newBalance = material.Stock.Sub(req.Quantity)
			ledgerQty = req.Quantity.Neg()
		case model.MovementAdjust:
			// The input is the target balance; the ledger records the delta.
			newBalance = req.Quantity
			ledgerQty = newBalance.Sub(material.Stock)
		}

		if err := tx.Materials().UpdateStock(material.ID, newBalance, userID); err != nil {
			return apperr.FromDB(err, "material")
		}

		movement = &model.InventoryMovement{
			MaterialID: material.ID,
			Type:       req.Type,
			Quantity:   ledgerQty,
			Balance:    newBalance,
			Reference:  reference,
		}
		if err := tx.Movements().Create(movement); err != nil {
			return apperr.FromDB(err, "inventory movement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(ws.StockEvent{
		Action:     "adjustment_posted",
		MaterialID: movement.MaterialID.String(),
		Movement:   string(movement.Type),
		Balance:    movement.Balance.String(),
		Actor:      userName,
		Message:    userName + " posted a stock adjustment",
	})

	return movement, nil
}

func (s *inventoryService) ListInventory(search string) ([]model.Material, error) {
	materials, err := s.store.Materials().FindAllWithMovements(search, recentMovements)
	if err != nil {
		return nil, apperr.FromDB(err, "material")
	}
	return materials, nil
}

func (s *inventoryService) ListMovements(materialID uuid.UUID, limit int) ([]model.InventoryMovement, error) {
	if _, err := s.store.Materials().FindByID(materialID); err != nil {
		return nil, apperr.FromDB(err, "material")
	}
	movements, err := s.store.Movements().FindByMaterial(materialID, limit)
	if err != nil {
		return nil, apperr.FromDB(err, "inventory movement")
	}
	return movements, nil
}

// postPurchaseIn increments stock and appends the matching IN ledger row for
// one transaction line. Must be called inside an Atomically unit; the row
// lock on the material serializes concurrent postings (purchases always
// increase scrap inventory).
func postPurchaseIn(tx repository.Store, materialID uuid.UUID, quantity decimal.Decimal, folio, userID string) (*model.InventoryMovement, error) {
	material, err := tx.Materials().FindByIDForUpdate(materialID)
	if err != nil {
		return nil, apperr.FromDB(err, "material")
	}
	if !material.IsActive {
		return nil, apperr.NewValidation("material " + material.Code + " is not active")
	}

	newBalance := material.Stock.Add(quantity)
	if err := tx.Materials().UpdateStock(material.ID, newBalance, userID); err != nil {
		return nil, apperr.FromDB(err, "material")
	}

	movement := &model.InventoryMovement{
		MaterialID: material.ID,
		Type:       model.MovementIn,
		Quantity:   quantity,
		Balance:    newBalance,
		Reference:  folio,
	}
	if err := tx.Movements().Create(movement); err != nil {
		return nil, apperr.FromDB(err, "inventory movement")
	}
	return movement, nil
}
