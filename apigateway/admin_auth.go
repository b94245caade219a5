package gateway

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/apexgp/paddock/models"
	"github.com/gofiber/fiber/v2"
)

// RequireAdmin guards dashboard and admin mutations using X-Admin-Key
// or HTTP Basic auth. In debug mode the guard is bypassed.
func RequireAdmin(cfg models.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.IsDebug {
			return c.Next()
		}

		if cfg.AdminKey != "" {
			key := strings.TrimSpace(c.Get("X-Admin-Key"))
			if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(cfg.AdminKey)) == 1 {
				return c.Next()
			}
		}

		if cfg.AdminUser != "" && cfg.AdminPassword != "" {
			if checkBasicAuth(c.Get("Authorization"), cfg.AdminUser, cfg.AdminPassword) {
				return c.Next()
			}
		}

		if cfg.AdminKey == "" && (cfg.AdminUser == "" || cfg.AdminPassword == "") {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"code":    "admin_auth_not_configured",
				"message": "admin auth not configured",
			})
		}

		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"code":    "unauthorized",
			"message": "unauthorized",
		})
	}
}

func checkBasicAuth(header, user, pass string) bool {
	if header == "" {
		return false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "basic") {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(parts[1]))
	if err != nil {
		return false
	}
	creds := strings.SplitN(string(decoded), ":", 2)
	if len(creds) != 2 {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(creds[0]), []byte(user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds[1]), []byte(pass)) == 1
	return userOK && passOK
}
