package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sigetic/helpdesk/internal/auth"
	"github.com/sigetic/helpdesk/internal/config"
	"github.com/sigetic/helpdesk/internal/domain"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

func TestAuthService_Login(t *testing.T) {
	hash, err := auth.HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	accounts := map[string]*domain.User{
		"jane":     {ID: 20, Username: "jane", PasswordHash: hash, Role: domain.RoleTechnician, Active: true, Enabled: true},
		"inactive": {ID: 21, Username: "inactive", PasswordHash: hash, Role: domain.RoleUser, Active: false, Enabled: true},
		"disabled": {ID: 22, Username: "disabled", PasswordHash: hash, Role: domain.RoleUser, Active: true, Enabled: false},
	}
	users := &mockUserRepo{GetByUsernameFunc: func(_ context.Context, username string) (*domain.User, error) {
		if u, ok := accounts[username]; ok {
			return u, nil
		}
		return nil, errNoRows()
	}}
	svc := NewAuthService(config.AuthConfig{JWTSecret: "s", AccessTokenTTLMinutes: 10}, users, nil)

	result, err := svc.Login(context.Background(), " jane ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.User.ID)
	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(20), claims.UserID)

	for _, tc := range []struct{ user, pass string }{
		{"jane", "wrong"},
		{"nobody", "correct horse"},
		{"inactive", "correct horse"},
		{"disabled", "correct horse"},
	} {
		_, err := svc.Login(context.Background(), tc.user, tc.pass)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized), tc.user)
	}

	_, err = svc.Login(context.Background(), "", "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}
