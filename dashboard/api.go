// Package dashboard is the admin surface: JSON endpoints for managing
// fixtures, results and news, plus a small HTML console.
package dashboard

import (
	"errors"
	"net/http"
	"time"

	"github.com/apexgp/paddock/apperr"
	"github.com/apexgp/paddock/fixtures"
	"github.com/apexgp/paddock/live"
	"github.com/apexgp/paddock/models"
	"github.com/apexgp/paddock/store"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service holds the admin endpoints. Every successful mutation
// invalidates the public fixtures cache and, for race-day changes,
// broadcasts on the live hub.
type Service struct {
	Db     *gorm.DB
	Store  *store.Store
	Cache  *fixtures.Cache
	Hub    *live.Hub
	Config models.Config
	Logger *logrus.Logger
}

type fixtureRequest struct {
	Round    int    `json:"round"`
	Date     string `json:"date" binding:"required,iso8601"`
	Location string `json:"location" binding:"required"`
	Circuit  string `json:"circuit"`
	Status   string `json:"status"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type resultEntry struct {
	Position int    `json:"position" binding:"required,min=1"`
	Driver   string `json:"driver" binding:"required"`
	Team     string `json:"team"`
	Points   int    `json:"points" binding:"min=0"`
}

type resultsRequest struct {
	Results []resultEntry `json:"results" binding:"required,min=1,dive"`
}

type articleRequest struct {
	Slug      string `json:"slug" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

// CreateFixture adds a race to the calendar.
func (s *Service) CreateFixture(c *fiber.Ctx) error {
	var req fixtureRequest
	if err := bindJSON(c, &req); err != nil {
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "date must be RFC3339", "code": "bad_request"})
	}
	if req.Status != "" && !models.ValidStatus(req.Status) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "unknown status", "code": "bad_request"})
	}
	fixture := models.Fixture{
		Round:    req.Round,
		Date:     date,
		Location: req.Location,
		Circuit:  req.Circuit,
		Status:   req.Status,
	}
	ctx := c.UserContext()
	if err := s.Store.CreateFixture(ctx, &fixture); err != nil {
		s.Logger.WithError(err).Error("create fixture failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	s.Cache.Invalidate(ctx)
	return c.Status(http.StatusCreated).JSON(fixture)
}

// UpdateFixture replaces the mutable fields of a fixture.
func (s *Service) UpdateFixture(c *fiber.Ctx) error {
	var req fixtureRequest
	if err := bindJSON(c, &req); err != nil {
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "date must be RFC3339", "code": "bad_request"})
	}
	if req.Status != "" && !models.ValidStatus(req.Status) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "unknown status", "code": "bad_request"})
	}
	fixture := models.Fixture{
		UUID:     c.Params("uuid"),
		Round:    req.Round,
		Date:     date,
		Location: req.Location,
		Circuit:  req.Circuit,
		Status:   req.Status,
	}
	if fixture.Status == "" {
		fixture.Status = models.FixtureScheduled
	}
	ctx := c.UserContext()
	if err := s.Store.UpdateFixture(ctx, &fixture); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"message": "no such fixture", "code": "not_found"})
		}
		s.Logger.WithError(err).Error("update fixture failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	s.Cache.Invalidate(ctx)
	return c.Status(http.StatusOK).JSON(fixture)
}

// SetStatus transitions a fixture (scheduled -> live -> finished, or
// cancelled) and pushes the change to live subscribers.
func (s *Service) SetStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	if !models.ValidStatus(req.Status) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": "unknown status", "code": "bad_request"})
	}
	ctx := c.UserContext()
	fixtureUUID := c.Params("uuid")
	if err := s.Store.SetFixtureStatus(ctx, fixtureUUID, req.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"message": "no such fixture", "code": "not_found"})
		}
		s.Logger.WithError(err).Error("set fixture status failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	s.Cache.Invalidate(ctx)
	s.Hub.Broadcast("fixture_status", fiber.Map{"uuid": fixtureUUID, "status": req.Status})
	return c.Status(http.StatusOK).JSON(fiber.Map{"uuid": fixtureUUID, "status": req.Status})
}

// DeleteFixture removes a fixture and its results.
func (s *Service) DeleteFixture(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := s.Store.DeleteFixture(ctx, c.Params("uuid")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"message": "no such fixture", "code": "not_found"})
		}
		s.Logger.WithError(err).Error("delete fixture failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	s.Cache.Invalidate(ctx)
	return c.Status(http.StatusOK).JSON(fiber.Map{"result": "ok"})
}

// RecordResults stores the finishing order, marks the fixture finished
// and broadcasts the classification.
func (s *Service) RecordResults(c *fiber.Ctx) error {
	var req resultsRequest
	if err := bindJSON(c, &req); err != nil {
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	ctx := c.UserContext()
	fixture, err := s.Store.GetFixtureByUUID(ctx, c.Params("uuid"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"message": "no such fixture", "code": "not_found"})
		}
		s.Logger.WithError(err).Error("fixture query failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}

	results := make([]models.Result, 0, len(req.Results))
	for _, entry := range req.Results {
		results = append(results, models.Result{
			FixtureID: fixture.ID,
			Position:  entry.Position,
			Driver:    entry.Driver,
			Team:      entry.Team,
			Points:    entry.Points,
		})
	}
	if err := s.Store.ReplaceResults(ctx, fixture.ID, results); err != nil {
		s.Logger.WithError(err).Error("record results failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	if err := s.Store.SetFixtureStatus(ctx, fixture.UUID, models.FixtureFinished); err != nil {
		s.Logger.WithError(err).Warn("mark fixture finished failed")
	}
	s.Cache.Invalidate(ctx)
	s.Hub.Broadcast("results", fiber.Map{"uuid": fixture.UUID, "results": results})
	return c.Status(http.StatusOK).JSON(fiber.Map{"fixture": fixture.UUID, "count": len(results)})
}

// UpsertArticle creates or updates a news article by slug.
func (s *Service) UpsertArticle(c *fiber.Ctx) error {
	var req articleRequest
	if err := bindJSON(c, &req); err != nil {
		return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
	}
	article := models.Article{
		Slug:      req.Slug,
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
	}
	ctx := c.UserContext()
	err := s.Store.UpdateArticle(ctx, &article)
	if errors.Is(err, store.ErrNotFound) {
		err = s.Store.CreateArticle(ctx, &article)
	}
	if err != nil {
		s.Logger.WithError(err).Error("upsert article failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	return c.Status(http.StatusOK).JSON(article)
}

// DeleteArticle removes an article by slug.
func (s *Service) DeleteArticle(c *fiber.Ctx) error {
	if err := s.Store.DeleteArticle(c.UserContext(), c.Params("slug")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"message": "no such article", "code": "not_found"})
		}
		s.Logger.WithError(err).Error("delete article failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"result": "ok"})
}

// Counts reports headline numbers for the console landing page.
func (s *Service) Counts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	fixtureCount, err := s.Store.CountFixtures(ctx)
	if err != nil {
		s.Logger.WithError(err).Error("count fixtures failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	var fanCount int64
	if err := s.Db.Model(&models.Fan{}).Count(&fanCount).Error; err != nil {
		s.Logger.WithError(err).Error("count fans failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	var recentFans int64
	weekAgo := time.Now().AddDate(0, 0, -7)
	if err := s.Db.Model(&models.Fan{}).Where("created_at >= ?", weekAgo).Count(&recentFans).Error; err != nil {
		s.Logger.WithError(err).Error("count recent fans failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": err.Error(), "code": "server_error"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"fixtures": fixtureCount, "fans": fanCount, "recent_fans": recentFans})
}
