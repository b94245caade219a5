package dashboard

import (
	"encoding/json"

	"github.com/apexgp/paddock/apperr"
	"github.com/apexgp/paddock/validations"
	"github.com/gofiber/fiber/v2"
)

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
