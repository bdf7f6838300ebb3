package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sigetic/helpdesk/internal/domain"
)

// UserRepository reads accounts from the identity store.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetEligibleTechnician returns the user only when it passes the
	// assignment predicate; any other user yields pgx.ErrNoRows.
	GetEligibleTechnician(ctx context.Context, id int64) (*domain.User, error)
	ListTechnicians(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, username, password_hash, first_name, last_name, given_names, paternal_surname,
        maternal_surname, email, role, site_id, department_id, position_id, active, enabled, created_at, updated_at`

const eligibleTechnician = `role IN ('technician', 'support_lead') AND active AND enabled`

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

func (r *userRepository) GetEligibleTechnician(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1 AND `+eligibleTechnician, id)
}

// ListTechnicians returns assignable users ordered by first name, last name and username.
func (r *userRepository) ListTechnicians(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + eligibleTechnician +
		` ORDER BY first_name ASC, last_name ASC, username ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := scanUser(r.pool.QueryRow(ctx, query, arg), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanUser(row rowScanner, user *domain.User) error {
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.GivenNames,
		&user.PaternalSurname,
		&user.MaternalSurname,
		&user.Email,
		&user.Role,
		&user.SiteID,
		&user.DepartmentID,
		&user.PositionID,
		&user.Active,
		&user.Enabled,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return err
	}
	user.Normalize()
	return nil
}
