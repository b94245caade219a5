package fans

import (
	"errors"
	"net/http"
	"strings"

	"github.com/apexgp/paddock/apperr"
	"github.com/apexgp/paddock/models"
	"github.com/apexgp/paddock/store"
	"github.com/gofiber/fiber/v2"
)

// Me returns the authenticated fan's profile.
func (s *Service) Me(c *fiber.Ctx) error {
	mobile := getMobile(c)
	if mobile == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized access", "code": "unauthorized_access"})
	}
	fan, err := models.GetFanByMobile(mobile, s.Db)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"message": err.Error(), "code": "not_found"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"fan": sanitizeFan(fan)})
}

// UpdateMe applies partial profile updates.
func (s *Service) UpdateMe(c *fiber.Ctx) error {
	mobile := getMobile(c)
	if mobile == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized access", "code": "unauthorized_access"})
	}
	var req profileUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	fan, err := models.GetFanByMobile(mobile, s.Db)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"message": err.Error(), "code": "not_found"})
	}

	updates := map[string]any{}
	if req.Fullname != nil {
		updates["fullname"] = *req.Fullname
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(*req.Email)
	}
	if req.Language != nil {
		updates["language"] = *req.Language
	}
	if req.FavoriteTeam != nil {
		updates["favorite_team"] = *req.FavoriteTeam
	}
	if req.FavoriteDriver != nil {
		updates["favorite_driver"] = *req.FavoriteDriver
	}
	if len(updates) == 0 {
		return c.Status(http.StatusOK).JSON(fiber.Map{"fan": sanitizeFan(fan)})
	}
	if err := s.Db.Model(&fan).Updates(updates).Error; err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"fan": sanitizeFan(fan)})
}

// GetLanguage returns the fan's preferred language.
func (s *Service) GetLanguage(c *fiber.Ctx) error {
	mobile := getMobile(c)
	fan, err := models.GetFanByMobile(mobile, s.Db)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"message": err.Error(), "code": "not_found"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"language": fan.Language})
}

// SetLanguage stores the fan's preferred language.
func (s *Service) SetLanguage(c *fiber.Ctx) error {
	mobile := getMobile(c)
	var req languageRequest
	if err := bindJSON(c, &req); err != nil {
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	fan, err := models.GetFanByMobile(mobile, s.Db)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"message": err.Error(), "code": "not_found"})
	}
	if err := s.Db.Model(&fan).Update("language", req.Language).Error; err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"language": req.Language})
}

// RegisterDevice stores the push token of the fan's current device.
func (s *Service) RegisterDevice(c *fiber.Ctx) error {
	mobile := getMobile(c)
	var req deviceRequest
	if err := bindJSON(c, &req); err != nil {
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	fan, err := models.GetFanByMobile(mobile, s.Db)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"message": err.Error(), "code": "not_found"})
	}
	if err := s.Db.Model(&fan).Update("device_token", req.DeviceToken).Error; err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"result": "ok"})
}

// Subscribe adds a reminder for a fixture.
func (s *Service) Subscribe(c *fiber.Ctx) error {
	mobile := getMobile(c)
	fanID := getFanID(c)
	var req reminderRequest
	if err := bindJSON(c, &req); err != nil {
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	ctx := c.UserContext()
	fixture, err := s.Store.GetFixtureByUUID(ctx, req.FixtureUUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			missing := apperr.Wrap(err, apperr.ErrNotFound, "no such fixture")
			return c.Status(apperr.Status(missing)).JSON(apperr.Payload(missing))
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	reminder := models.Reminder{FanID: int64(fanID), Mobile: mobile, FixtureID: fixture.ID}
	if err := s.Store.CreateReminder(ctx, &reminder); err != nil {
		// unique(fan_id, fixture_id) makes double-subscribes a conflict
		conflict := apperr.Wrap(err, apperr.ErrConflict, "already subscribed")
		return c.Status(apperr.Status(conflict)).JSON(apperr.Payload(conflict))
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"result": "ok", "fixture": fixture.UUID})
}

// Reminders lists the fan's fixture reminders.
func (s *Service) Reminders(c *fiber.Ctx) error {
	mobile := getMobile(c)
	reminders, err := s.Store.ListRemindersByMobile(c.UserContext(), mobile)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	if reminders == nil {
		reminders = []store.ReminderView{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"reminders": reminders})
}

// Notifications lists the fan's stored engagement messages.
func (s *Service) Notifications(c *fiber.Ctx) error {
	mobile := getMobile(c)
	if mobile == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized access", "code": "unauthorized_access"})
	}
	notifications, err := s.Store.ListNotifications(c.UserContext(), mobile)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"notifications": notifications})
}
