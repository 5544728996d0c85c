package service

import (
	"strings"
	"time"

	"scrapyard-api/internal/model"
	"scrapyard-api/internal/repository"
	"scrapyard-api/pkg/apperr"
	"scrapyard-api/pkg/jwt"

	"github.com/google/uuid"
)

// inactivityWindow forces re-login after this much silence from the client.
const inactivityWindow = 5 * time.Minute

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	// EnsureUser idempotently provisions the local mirror of an authenticated
	// identity. Called at session start, never from business write paths.
	EnsureUser(email, name string) (*model.User, error)
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	ResetPassword(email, oldPassword, newPassword string) error
	Heartbeat(userID uuid.UUID) error
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type TokenValidationResponse struct {
	User model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, apperr.NewUnauthorized("invalid email or password")
	}

	if !user.IsActive {
		return nil, apperr.NewUnauthorized("user account is inactive")
	}

	if !user.CheckPassword(password) {
		return nil, apperr.NewUnauthorized("invalid email or password")
	}

	// Single session: rotating the token version invalidates older tokens
	now := time.Now()
	user.TokenVersion = uuid.New().String()
	user.LastSeenAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, apperr.FromDB(err, "user")
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, user.Name, user.Role, user.TokenVersion)
	if err != nil {
		return nil, apperr.NewPersistence(err)
	}

	return &LoginResponse{Token: token, User: user.ToResponse()}, nil
}

func (s *authService) EnsureUser(email, name string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, apperr.NewValidation("email is required")
	}

	user, err := s.userRepo.FindByEmail(email)
	if err == nil {
		if !user.IsActive {
			user.IsActive = true
			if err := s.userRepo.Update(user); err != nil {
				return nil, apperr.FromDB(err, "user")
			}
		}
		return user, nil
	}

	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	user = &model.User{
		Email:    email,
		Name:     name,
		Role:     model.RoleOperator,
		IsActive: true,
	}
	user.CreatedBy = "identity-sync"
	user.UpdatedBy = "identity-sync"
	// Provisioned accounts get an unusable random password until an admin
	// assigns one.
	if err := user.SetPassword(uuid.New().String()); err != nil {
		return nil, apperr.NewPersistence(err)
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	return user, nil
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, apperr.NewUnauthorized("invalid or expired token")
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, apperr.NewUnauthorized("user not found")
	}

	if !user.IsActive {
		return nil, apperr.NewUnauthorized("user account is inactive")
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, apperr.NewUnauthorized("session expired (logged in on another device)")
	}

	if user.LastSeenAt == nil || time.Since(*user.LastSeenAt) > inactivityWindow {
		return nil, apperr.NewUnauthorized("session expired due to inactivity")
	}

	return &TokenValidationResponse{User: user.ToResponse()}, nil
}

func (s *authService) ResetPassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return apperr.NewNotFound("user")
	}

	if !user.CheckPassword(oldPassword) {
		return apperr.NewUnauthorized("current password is incorrect")
	}

	if err := user.SetPassword(newPassword); err != nil {
		return apperr.NewPersistence(err)
	}

	if err := s.userRepo.Update(user); err != nil {
		return apperr.FromDB(err, "user")
	}
	return nil
}

func (s *authService) Heartbeat(userID uuid.UUID) error {
	if err := s.userRepo.UpdateLastSeen(userID); err != nil {
		return apperr.FromDB(err, "user")
	}
	return nil
}
