package service

import (
	"fmt"
	"strings"

	"scrapyard-api/internal/model"
	"scrapyard-api/internal/repository"
	"scrapyard-api/pkg/apperr"
	"scrapyard-api/pkg/validator"

	"github.com/google/uuid"
)

type ClientService interface {
	CreateClient(req *model.Client, userID string) error
	UpdateClient(id uuid.UUID, req *model.Client, userID string) (*model.Client, error)
	DeactivateClient(id uuid.UUID, userID string) error
	GetAllClients(search string) ([]model.Client, error)
	GetActiveClients() ([]model.Client, error)
	GetClientByID(id uuid.UUID) (*model.Client, error)
}

type clientService struct {
	store repository.Store
}

func NewClientService(store repository.Store) ClientService {
	return &clientService{store: store}
}

// normalizeClient trims the optional fields and drops empty strings so the
// unique indexes on email/document never collide on "".
func normalizeClient(req *model.Client) {
	req.Name = strings.TrimSpace(req.Name)
	for _, field := range []**string{&req.DocumentType, &req.Document, &req.Address, &req.Phone, &req.Email} {
		if *field == nil {
			continue
		}
		trimmed := strings.TrimSpace(**field)
		if trimmed == "" {
			*field = nil
		} else {
			**field = trimmed
		}
	}
}

func validateClient(req *model.Client) error {
	normalizeClient(req)
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return apperr.NewValidation(fmt.Sprintf("field '%s' failed on rule '%s'", firstErr.FailedField, firstErr.Tag))
	}
	return nil
}

func (s *clientService) CreateClient(req *model.Client, userID string) error {
	if err := validateClient(req); err != nil {
		return err
	}

	req.IsActive = true
	req.CreatedBy = userID
	req.UpdatedBy = userID

	if err := s.store.Clients().Create(req); err != nil {
		return apperr.FromDB(err, "client")
	}
	return nil
}

func (s *clientService) UpdateClient(id uuid.UUID, req *model.Client, userID string) (*model.Client, error) {
	if err := validateClient(req); err != nil {
		return nil, err
	}

	existing, err := s.store.Clients().FindByID(id)
	if err != nil {
		return nil, apperr.FromDB(err, "client")
	}

	existing.Name = req.Name
	existing.DocumentType = req.DocumentType
	existing.Document = req.Document
	existing.Address = req.Address
	existing.Phone = req.Phone
	existing.Email = req.Email
	existing.UpdatedBy = userID

	if err := s.store.Clients().Update(existing); err != nil {
		return nil, apperr.FromDB(err, "client")
	}
	return existing, nil
}

func (s *clientService) DeactivateClient(id uuid.UUID, userID string) error {
	existing, err := s.store.Clients().FindByID(id)
	if err != nil {
		return apperr.FromDB(err, "client")
	}
	existing.IsActive = false
	existing.UpdatedBy = userID
	if err := s.store.Clients().Update(existing); err != nil {
		return apperr.FromDB(err, "client")
	}
	return nil
}

func (s *clientService) GetAllClients(search string) ([]model.Client, error) {
	clients, err := s.store.Clients().FindAll(search)
	if err != nil {
		return nil, apperr.FromDB(err, "client")
	}
	return clients, nil
}

func (s *clientService) GetActiveClients() ([]model.Client, error) {
	clients, err := s.store.Clients().FindActive()
	if err != nil {
		return nil, apperr.FromDB(err, "client")
	}
	return clients, nil
}

func (s *clientService) GetClientByID(id uuid.UUID) (*model.Client, error) {
	client, err := s.store.Clients().FindByID(id)
	if err != nil {
		return nil, apperr.FromDB(err, "client")
	}
	return client, nil
}
