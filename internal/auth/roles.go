package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sigetic/helpdesk/internal/domain"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

// IsDispatcher reports whether user may see the full backlog and assign technicians.
func IsDispatcher(user *domain.User) bool {
	return user != nil && user.Role.IsDispatcher()
}

// IsTechnician reports whether user holds a technician-eligible role.
func IsTechnician(user *domain.User) bool {
	return user != nil && user.Role.IsTechnician()
}

// RequireAuthenticated ensures a principal was loaded.
func RequireAuthenticated() fiber.Handler {
	return requirePrincipal(func(*domain.User) bool { return true }, "")
}

// RequireDispatcher restricts a route to dispatchers.
func RequireDispatcher() fiber.Handler {
	return requirePrincipal(IsDispatcher, "dispatcher role required")
}

// RequireTechnician restricts a route to technicians.
func RequireTechnician() fiber.Handler {
	return requirePrincipal(IsTechnician, "technician role required")
}

func requirePrincipal(allowed func(*domain.User) bool, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !allowed(user) {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}
