package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/sigetic/helpdesk/internal/api/dto"
	"github.com/sigetic/helpdesk/internal/auth"
	"github.com/sigetic/helpdesk/internal/service"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

// Authenticator checks credentials.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
}

// AuthHandler exposes login and the current account.
type AuthHandler struct {
	auth Authenticator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authenticator Authenticator) *AuthHandler {
	return &AuthHandler{auth: authenticator}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.NewUserSummary(result.User),
	}})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserSummary(user)})
}
