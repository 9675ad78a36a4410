package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// New returns a middleware that assigns every request a ray_id for log
// correlation. An incoming X-Ray-ID header is honored so upstream proxies
// can thread their own id through.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get("X-Ray-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("ray_id", rid)
		c.Set("X-Ray-ID", rid)
		return c.Next()
	}
}
