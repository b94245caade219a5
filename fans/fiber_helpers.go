package fans

import (
	"context"
	"encoding/json"
	"time"

	"github.com/apexgp/paddock/apperr"
	"github.com/apexgp/paddock/validations"
	"github.com/gofiber/fiber/v2"
)

func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func bindJSON(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return apperr.ErrEmptyBody
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return apperr.Wrap(err, apperr.ErrBadRequest, "invalid json payload")
	}
	if err := validations.ValidateStruct(dst); err != nil {
		return apperr.WithFields(apperr.Wrap(err, apperr.ErrValidation, "validation failed"), validations.Fields(err))
	}
	return nil
}

func parseJSON(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return fiber.ErrBadRequest
	}
	return json.Unmarshal(c.Body(), dst)
}

func getMobile(c *fiber.Ctx) string {
	if v := c.Locals("mobile"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getFanID(c *fiber.Ctx) uint {
	if v := c.Locals("fan_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
