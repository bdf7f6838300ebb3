package dto

import (
	"time"

	"github.com/sigetic/helpdesk/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

// UserSummary is the public view of an account.
type UserSummary struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	FullName     string      `json:"full_name"`
	Email        string      `json:"email,omitempty"`
	Role         domain.Role `json:"role"`
	SiteID       *int64      `json:"site_id"`
	DepartmentID *int64      `json:"department_id"`
}

// NewUserSummary converts a user.
func NewUserSummary(u *domain.User) UserSummary {
	return UserSummary{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.DisplayName(),
		Email:        u.Email,
		Role:         u.Role,
		SiteID:       u.SiteID,
		DepartmentID: u.DepartmentID,
	}
}

// UserSummaries converts a list of users.
func UserSummaries(users []domain.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for i := range users {
		out = append(out, NewUserSummary(&users[i]))
	}
	return out
}
