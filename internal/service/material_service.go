package service

import (
	"fmt"

	"scrapyard-api/internal/model"
	"scrapyard-api/internal/repository"
	"scrapyard-api/pkg/apperr"
	"scrapyard-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MaterialService interface {
	CreateMaterial(req *model.Material, userID string) error
	UpdateMaterial(id uuid.UUID, req *model.Material, userID string) (*model.Material, error)
	DeactivateMaterial(id uuid.UUID, userID string) error
	GetAllMaterials(search string) ([]model.Material, error)
	GetMaterialByID(id uuid.UUID) (*model.Material, error)
	// SeedDefaults inserts the common scrap materials that ship with a fresh
	// install. Idempotent: existing codes/names are skipped.
	SeedDefaults(userID string) (int, error)
}

// defaultMaterials are the common recyclables preloaded on a fresh install.
var defaultMaterials = []model.Material{
	{Code: "ALUM-001", Name: "Aluminio", Category: "Metales", Price: decimal.RequireFromString("20.50")},
	{Code: "BRCE-001", Name: "Bronce", Category: "Metales", Price: decimal.RequireFromString("45.00")},
	{Code: "CBL-001", Name: "Cable de Cobre", Category: "Metales", Price: decimal.RequireFromString("120.00")},
	{Code: "CART-001", Name: "Cartón", Category: "Papel", Price: decimal.RequireFromString("1.50")},
	{Code: "COPR-001", Name: "Cobre", Category: "Metales", Price: decimal.RequireFromString("125.00")},
	{Code: "HIER-001", Name: "Hierro", Category: "Metales", Price: decimal.RequireFromString("3.50")},
	{Code: "LAT-001", Name: "Lata", Category: "Metales", Price: decimal.RequireFromString("2.00")},
	{Code: "LAT-002", Name: "Lata de Aluminio", Category: "Metales", Price: decimal.RequireFromString("15.00")},
	{Code: "PLAS-001", Name: "Plástico PET", Category: "Plásticos", Price: decimal.RequireFromString("2.50")},
	{Code: "VIDR-001", Name: "Vidrio", Category: "Vidrio", Price: decimal.RequireFromString("0.80")},
	{Code: "ZINC-001", Name: "Zinc", Category: "Metales", Price: decimal.RequireFromString("8.00")},
}

type materialService struct {
	store repository.Store
}

func NewMaterialService(store repository.Store) MaterialService {
	return &materialService{store: store}
}

func validateMaterial(req *model.Material) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return apperr.NewValidation(fmt.Sprintf("field '%s' failed on rule '%s'", firstErr.FailedField, firstErr.Tag))
	}
	if req.Price.IsNegative() {
		return apperr.NewValidation("price must be a number greater than or equal to 0")
	}
	if req.Price.GreaterThan(model.MaxMaterialPrice) {
		return apperr.NewValidation("price cannot exceed 999999.99")
	}
	return nil
}

func (s *materialService) CreateMaterial(req *model.Material, userID string) error {
	if err := validateMaterial(req); err != nil {
		return err
	}

	existing, _ := s.store.Materials().FindByCode(req.Code)
	if existing != nil && existing.ID != uuid.Nil {
		return apperr.NewConflict("material code already exists, use another code")
	}

	req.IsActive = true
	req.Stock = decimal.Zero // stock only moves through the ledger
	req.CreatedBy = userID
	req.UpdatedBy = userID

	if err := s.store.Materials().Create(req); err != nil {
		return apperr.FromDB(err, "material")
	}
	return nil
}

func (s *materialService) UpdateMaterial(id uuid.UUID, req *model.Material, userID string) (*model.Material, error) {
	if err := validateMaterial(req); err != nil {
		return nil, err
	}

	existing, err := s.store.Materials().FindByID(id)
	if err != nil {
		return nil, apperr.FromDB(err, "material")
	}

	// Stock is deliberately not editable here; it only moves through
	// ledger-producing operations.
	existing.Code = req.Code
	existing.Name = req.Name
	existing.Category = req.Category
	existing.Description = req.Description
	existing.Price = req.Price
	existing.UpdatedBy = userID

	if err := s.store.Materials().Update(existing); err != nil {
		return nil, apperr.FromDB(err, "material")
	}
	return existing, nil
}

func (s *materialService) DeactivateMaterial(id uuid.UUID, userID string) error {
	existing, err := s.store.Materials().FindByID(id)
	if err != nil {
		return apperr.FromDB(err, "material")
	}
	existing.IsActive = false
	existing.UpdatedBy = userID
	if err := s.store.Materials().Update(existing); err != nil {
		return apperr.FromDB(err, "material")
	}
	return nil
}

func (s *materialService) GetAllMaterials(search string) ([]model.Material, error) {
	materials, err := s.store.Materials().FindAll(search)
	if err != nil {
		return nil, apperr.FromDB(err, "material")
	}
	return materials, nil
}

func (s *materialService) GetMaterialByID(id uuid.UUID) (*model.Material, error) {
	material, err := s.store.Materials().FindByID(id)
	if err != nil {
		return nil, apperr.FromDB(err, "material")
	}
	return material, nil
}

func (s *materialService) SeedDefaults(userID string) (int, error) {
	created := 0
	for _, seed := range defaultMaterials {
		exists, err := s.store.Materials().ExistsByCodeOrName(seed.Code, seed.Name)
		if err != nil {
			return created, apperr.FromDB(err, "material")
		}
		if exists {
			continue
		}

		material := seed
		material.Stock = decimal.Zero
		material.IsActive = true
		material.CreatedBy = userID
		material.UpdatedBy = userID
		if err := s.store.Materials().Create(&material); err != nil {
			return created, apperr.FromDB(err, "material")
		}
		created++
	}
	return created, nil
}
