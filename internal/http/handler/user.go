package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docshelf/internal/service"
)

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateUser registers a user record. Authentication lives in front of this
// service; this only creates the owner row documents reference.
func CreateUser(userSvc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createUserRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		u, err := userSvc.Create(c.UserContext(), req.Username, req.Email)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// DeleteUser removes a user and every document the user owns.
func DeleteUser(userSvc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := userSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
