package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sigetic/helpdesk/internal/domain"
)

// DepartmentRepository reads departments.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	ListActiveBySite(ctx context.Context, siteID int64) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	const query = `
        SELECT id, site_id, name, description, active, created_at, updated_at, deleted_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.SiteID,
		&dept.Name,
		&dept.Description,
		&dept.Active,
		&dept.CreatedAt,
		&dept.UpdatedAt,
		&dept.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) ListActiveBySite(ctx context.Context, siteID int64) ([]domain.Department, error) {
	const query = `
        SELECT id, site_id, name, description, active, created_at, updated_at, deleted_at
        FROM departments WHERE site_id=$1 AND active = TRUE ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.SiteID, &dept.Name, &dept.Description, &dept.Active,
			&dept.CreatedAt, &dept.UpdatedAt, &dept.DeletedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
