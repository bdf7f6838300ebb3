package service

import (
	"context"

	"github.com/sigetic/helpdesk/internal/domain"
	"github.com/sigetic/helpdesk/internal/repository"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

// ReferenceService serves the cascading selections of the ticket form.
type ReferenceService struct {
	categories  repository.CategoryRepository
	departments repository.DepartmentRepository
}

// NewReferenceService constructs the service.
func NewReferenceService(categories repository.CategoryRepository, departments repository.DepartmentRepository) *ReferenceService {
	return &ReferenceService{categories: categories, departments: departments}
}

// ActiveSubcategories lists active subcategories of a category by name.
// No category yields an empty list.
func (s *ReferenceService) ActiveSubcategories(ctx context.Context, categoryID *int64) ([]domain.Subcategory, error) {
	if categoryID == nil {
		return []domain.Subcategory{}, nil
	}
	subs, err := s.categories.ListActiveSubcategories(ctx, *categoryID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if subs == nil {
		subs = []domain.Subcategory{}
	}
	return subs, nil
}

// ActiveDepartments lists active departments of a site by name.
// No site yields an empty list.
func (s *ReferenceService) ActiveDepartments(ctx context.Context, siteID *int64) ([]domain.Department, error) {
	if siteID == nil {
		return []domain.Department{}, nil
	}
	depts, err := s.departments.ListActiveBySite(ctx, *siteID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if depts == nil {
		depts = []domain.Department{}
	}
	return depts, nil
}
