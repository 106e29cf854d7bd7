package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docshelf/internal/service"
)

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListCategories returns all categories for the dashboard filter.
func ListCategories(catSvc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := catSvc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": cats, "total": len(cats)})
	}
}

// CreateCategory creates a new category from a JSON body.
func CreateCategory(catSvc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createCategoryRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		cat, err := catSvc.Create(c.UserContext(), req.Name, req.Description)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

// DeleteCategory removes a category; referencing documents keep existing
// with their category cleared.
func DeleteCategory(catSvc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := catSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
