package service

import (
	"testing"
	"time"

	"scrapyard-api/internal/model"
	"scrapyard-api/pkg/apperr"
	"scrapyard-api/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, store *memStore, email, password, role string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: "Usuario Prueba", Role: role, IsActive: true}
	require.NoError(t, user.SetPassword(password))
	require.NoError(t, store.Users().Create(user))
	return user
}

func TestLogin(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "ana@example.com", "secreta123", model.RoleOperator)
	svc := NewAuthService(store.Users())

	resp, err := svc.Login("ana@example.com", "secreta123")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := jwt.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleOperator, claims.Role)

	// Login stamps presence and rotates the session version
	stored, err := store.Users().FindByID(user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.TokenVersion)
	assert.NotNil(t, stored.LastSeenAt)
}

func TestLoginRejections(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "ana@example.com", "secreta123", model.RoleOperator)
	inactive := seedUser(t, store, "baja@example.com", "secreta123", model.RoleOperator)
	inactive.IsActive = false
	require.NoError(t, store.Users().Update(inactive))
	svc := NewAuthService(store.Users())

	cases := []struct{ name, email, password string }{
		{"unknown email", "nadie@example.com", "secreta123"},
		{"wrong password", "ana@example.com", "incorrecta"},
		{"inactive account", "baja@example.com", "secreta123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(tc.email, tc.password)
			require.Error(t, err)
			assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
		})
	}
}

func TestSecondLoginInvalidatesFirstSession(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "ana@example.com", "secreta123", model.RoleOperator)
	svc := NewAuthService(store.Users())

	first, err := svc.Login("ana@example.com", "secreta123")
	require.NoError(t, err)
	_, err = svc.Login("ana@example.com", "secreta123")
	require.NoError(t, err)

	firstClaims, err := jwt.ValidateToken(first.Token)
	require.NoError(t, err)
	stored, err := store.Users().FindByID(user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, stored.TokenVersion, firstClaims.TokenVersion,
		"old token carries a stale session version")

	_, err = svc.ValidateToken(first.Token)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
}

func TestValidateTokenInactivityWindow(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "ana@example.com", "secreta123", model.RoleOperator)
	svc := NewAuthService(store.Users())

	resp, err := svc.Login("ana@example.com", "secreta123")
	require.NoError(t, err)

	// Fresh session validates
	_, err = svc.ValidateToken(resp.Token)
	require.NoError(t, err)

	// Silence beyond the window expires the session
	stale := time.Now().Add(-inactivityWindow - time.Minute)
	stored, err := store.Users().FindByID(user.ID)
	require.NoError(t, err)
	stored.LastSeenAt = &stale
	require.NoError(t, store.Users().Update(stored))

	_, err = svc.ValidateToken(resp.Token)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))

	// A heartbeat refreshes presence and revalidates
	require.NoError(t, svc.Heartbeat(user.ID))
	_, err = svc.ValidateToken(resp.Token)
	assert.NoError(t, err)
}

func TestEnsureUserProvisionsOperator(t *testing.T) {
	store := newMemStore()
	svc := NewAuthService(store.Users())

	user, err := svc.EnsureUser("  Nuevo@Example.COM ", "Nuevo Operador")
	require.NoError(t, err)
	assert.Equal(t, "nuevo@example.com", user.Email)
	assert.Equal(t, "Nuevo Operador", user.Name)
	assert.Equal(t, model.RoleOperator, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, user.Password, "provisioned accounts get an unusable random password")

	// Second call returns the same row
	again, err := svc.EnsureUser("nuevo@example.com", "Otro Nombre")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Nuevo Operador", again.Name)

	users, err := store.Users().FindAll()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestEnsureUserDefaultsNameAndReactivates(t *testing.T) {
	store := newMemStore()
	svc := NewAuthService(store.Users())

	user, err := svc.EnsureUser("sin.nombre@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "sin.nombre", user.Name)

	user.IsActive = false
	require.NoError(t, store.Users().Update(user))

	back, err := svc.EnsureUser("sin.nombre@example.com", "")
	require.NoError(t, err)
	assert.True(t, back.IsActive)

	_, err = svc.EnsureUser("   ", "Alguien")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestResetPassword(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "ana@example.com", "vieja123", model.RoleOperator)
	svc := NewAuthService(store.Users())

	err := svc.ResetPassword("ana@example.com", "equivocada", "nueva456")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))

	require.NoError(t, svc.ResetPassword("ana@example.com", "vieja123", "nueva456"))

	stored, err := store.Users().FindByID(user.ID)
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("nueva456"))
	assert.False(t, stored.CheckPassword("vieja123"))
}
