package gateway

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Cors applies an origin allow-list. An empty list means same-origin
// only; "*" allows everyone (the marketing site default).
func Cors(allowed []string) fiber.Handler {
	allowAll := false
	allowset := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
		allowset[origin] = true
	}
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		switch {
		case allowAll:
			c.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowset[origin]:
			c.Set("Access-Control-Allow-Origin", origin)
			c.Set("Vary", "Origin")
		}
		c.Set("Access-Control-Allow-Headers", "authorization, origin, content-type, accept, X-Admin-Key, X-Request-ID")
		c.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if c.Method() == http.MethodOptions {
			return c.SendStatus(http.StatusNoContent)
		}
		return c.Next()
	}
}
