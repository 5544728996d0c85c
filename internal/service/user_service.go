package service

import (
	"fmt"

	"scrapyard-api/internal/model"
	"scrapyard-api/internal/repository"
	"scrapyard-api/pkg/apperr"
	"scrapyard-api/pkg/validator"

	"github.com/google/uuid"
)

type UserService interface {
	CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error)
	UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error)
	DeactivateUser(userID uuid.UUID, updaterID string) error
	GetAllUsers() ([]model.UserResponse, error)
	GetUserByID(id uuid.UUID) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type UpdateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	Name     string  `json:"name" validate:"required"`
	Role     string  `json:"role" validate:"required"`
	IsActive *bool   `json:"is_active"`
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.NewValidation(fmt.Sprintf("field '%s' failed on rule '%s'", firstErr.FailedField, firstErr.Tag))
	}

	if !model.ValidRole(req.Role) {
		return nil, apperr.NewValidation("unknown role: " + req.Role)
	}

	existing, _ := s.userRepo.FindByEmail(req.Email)
	if existing != nil {
		return nil, apperr.NewConflict("email is already registered")
	}

	user := &model.User{
		Email:    req.Email,
		Name:     req.Name,
		Role:     req.Role,
		IsActive: true,
	}
	user.CreatedBy = creatorID
	user.UpdatedBy = creatorID

	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperr.NewPersistence(err)
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	return user, nil
}

func (s *userService) UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.NewValidation(fmt.Sprintf("field '%s' failed on rule '%s'", firstErr.FailedField, firstErr.Tag))
	}

	if !model.ValidRole(req.Role) {
		return nil, apperr.NewValidation("unknown role: " + req.Role)
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}

	user.Email = req.Email
	user.Name = req.Name
	user.Role = req.Role
	user.UpdatedBy = updaterID
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, apperr.NewPersistence(err)
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	return user, nil
}

func (s *userService) DeactivateUser(userID uuid.UUID, updaterID string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return apperr.FromDB(err, "user")
	}
	user.IsActive = false
	user.UpdatedBy = updaterID
	if err := s.userRepo.Update(user); err != nil {
		return apperr.FromDB(err, "user")
	}
	return nil
}

func (s *userService) GetAllUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	responses := make([]model.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	response := user.ToResponse()
	return &response, nil
}
