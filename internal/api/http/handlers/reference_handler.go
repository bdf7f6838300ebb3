package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sigetic/helpdesk/internal/api/dto"
	"github.com/sigetic/helpdesk/internal/domain"
)

// ReferenceLookup serves dependent dropdowns of the ticket form.
type ReferenceLookup interface {
	ActiveSubcategories(ctx context.Context, categoryID *int64) ([]domain.Subcategory, error)
	ActiveDepartments(ctx context.Context, siteID *int64) ([]domain.Department, error)
}

// ReferenceHandler exposes reference data lookups.
type ReferenceHandler struct {
	lookup ReferenceLookup
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(lookup ReferenceLookup) *ReferenceHandler {
	return &ReferenceHandler{lookup: lookup}
}

// Subcategories GET /reference/subcategories?category=ID.
func (h *ReferenceHandler) Subcategories(c *fiber.Ctx) error {
	subs, err := h.lookup.ActiveSubcategories(c.UserContext(), queryID(c, "category"))
	if err != nil {
		return err
	}
	items := make([]dto.ReferenceItem, 0, len(subs))
	for _, s := range subs {
		items = append(items, dto.ReferenceItem{ID: s.ID, Name: s.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Departments GET /reference/departments?site=ID.
func (h *ReferenceHandler) Departments(c *fiber.Ctx) error {
	depts, err := h.lookup.ActiveDepartments(c.UserContext(), queryID(c, "site"))
	if err != nil {
		return err
	}
	items := make([]dto.ReferenceItem, 0, len(depts))
	for _, d := range depts {
		items = append(items, dto.ReferenceItem{ID: d.ID, Name: d.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// queryID reads an optional numeric query parameter; junk reads as absent.
func queryID(c *fiber.Ctx, name string) *int64 {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}
