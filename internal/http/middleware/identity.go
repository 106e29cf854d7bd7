package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const (
	// UserIDHeader carries the requester identity, set by the auth proxy in
	// front of this service. Authentication itself happens there, not here.
	UserIDHeader = "X-User-ID"
	// UserIDLocalKey is the key used to store the requester ID in Fiber's context locals.
	UserIDLocalKey = "user_id"
)

// Identity requires a requester identity on the request and stores it in
// context locals. Requests without one are rejected with 401.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(UserIDHeader)
		if id == "" {
			return fiber.ErrUnauthorized
		}

		c.Locals(UserIDLocalKey, id)

		return c.Next()
	}
}
