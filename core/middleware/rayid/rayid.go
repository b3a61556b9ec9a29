// Package rayid assigns a unique request identifier to every request.
package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header is the response header carrying the request identifier.
const Header = "X-Ray-Id"

// New returns middleware that stores a fresh ray_id in the request
// locals and echoes it in the response headers. An incoming X-Ray-Id
// header is honoured so upstream proxies can trace through.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(Header)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Locals("ray_id", rid)
		c.Set(Header, rid)

		return c.Next()
	}
}
