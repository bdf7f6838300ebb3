package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sigetic/helpdesk/internal/domain"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

type stubUsers struct {
	users map[int64]*domain.User
}

func (s *stubUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUsers) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubUsers) GetEligibleTechnician(context.Context, int64) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubUsers) ListTechnicians(context.Context) ([]domain.User, error) {
	return nil, nil
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken(&domain.User{ID: 42, Role: domain.RoleTechnician})
	require.NoError(t, err)
	assert.False(t, exp.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, domain.RoleTechnician, claims.Role)
	assert.Equal(t, "42", claims.Subject)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}

func TestRolePredicates(t *testing.T) {
	assert.True(t, IsDispatcher(&domain.User{Role: domain.RoleAdmin}))
	assert.False(t, IsDispatcher(&domain.User{Role: domain.RoleTechnician}))
	assert.False(t, IsDispatcher(nil))
	assert.True(t, IsTechnician(&domain.User{Role: domain.RoleSupportLead}))
	assert.False(t, IsTechnician(&domain.User{Role: domain.RoleUser}))
}

func newTestApp(tm *TokenManager, users *stubUsers, guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	mw := NewAuthMiddleware(tm, users)
	app.Get("/protected", mw.Handle, guard, func(c *fiber.Ctx) error {
		user, _ := PrincipalFromContext(c)
		return c.SendString(user.Username)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	users := &stubUsers{users: map[int64]*domain.User{
		1: {ID: 1, Username: "admin", Role: domain.RoleAdmin, Active: true, Enabled: true},
		2: {ID: 2, Username: "tech", Role: domain.RoleTechnician, Active: true, Enabled: true},
		3: {ID: 3, Username: "gone", Role: domain.RoleAdmin, Active: true, Enabled: false},
	}}
	tokenFor := func(id int64) string {
		token, _, err := tm.GenerateToken(&domain.User{ID: id})
		require.NoError(t, err)
		return "Bearer " + token
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "unknown user", header: tokenFor(99), want: http.StatusUnauthorized},
		{name: "disabled user", header: tokenFor(3), want: http.StatusUnauthorized},
		{name: "technician forbidden", header: tokenFor(2), want: http.StatusForbidden},
		{name: "dispatcher allowed", header: tokenFor(1), want: http.StatusOK},
	}

	app := newTestApp(tm, users, RequireDispatcher())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
