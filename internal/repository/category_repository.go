package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sigetic/helpdesk/internal/domain"
)

// CategoryRepository reads ticket categories and their subcategories.
type CategoryRepository interface {
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	GetSubcategory(ctx context.Context, id int64) (*domain.Subcategory, error)
	ListActiveSubcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	const query = `
        SELECT id, name, active, created_at, updated_at, deleted_at
        FROM categories WHERE id=$1`
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Active,
		&category.CreatedAt,
		&category.UpdatedAt,
		&category.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) GetSubcategory(ctx context.Context, id int64) (*domain.Subcategory, error) {
	const query = `
        SELECT id, category_id, name, active, created_at, updated_at, deleted_at
        FROM subcategories WHERE id=$1`
	var sub domain.Subcategory
	if err := scanSubcategory(r.pool.QueryRow(ctx, query, id), &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *categoryRepository) ListActiveSubcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error) {
	const query = `
        SELECT id, category_id, name, active, created_at, updated_at, deleted_at
        FROM subcategories WHERE category_id=$1 AND active = TRUE ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Subcategory
	for rows.Next() {
		var sub domain.Subcategory
		if err := scanSubcategory(rows, &sub); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func scanSubcategory(row rowScanner, sub *domain.Subcategory) error {
	return row.Scan(&sub.ID, &sub.CategoryID, &sub.Name, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt, &sub.DeletedAt)
}
