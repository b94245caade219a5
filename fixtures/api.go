// Package fixtures serves the public race calendar: the fixtures list,
// single fixtures, results and driver standings.
package fixtures

import (
	"errors"
	"net/http"

	"github.com/apexgp/paddock/models"
	"github.com/apexgp/paddock/store"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Service holds the public fixtures endpoints.
type Service struct {
	Store  *store.Store
	Cache  *Cache
	Logger *logrus.Logger
	Clock  models.Clock
}

func (s *Service) now() models.Clock {
	if s.Clock != nil {
		return s.Clock
	}
	return models.SystemClock
}

// List returns the full fixtures collection as a JSON array. Served
// from the redis cache when warm.
func (s *Service) List(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if fixtures, ok := s.Cache.Get(ctx); ok {
		return c.Status(http.StatusOK).JSON(fixtures)
	}
	fixtures, err := s.Store.ListFixtures(ctx)
	if err != nil {
		s.Logger.WithError(err).Error("fixtures list query failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"code": "server_error", "message": "could not load fixtures"})
	}
	if fixtures == nil {
		fixtures = []models.Fixture{}
	}
	s.Cache.Set(ctx, fixtures)
	return c.Status(http.StatusOK).JSON(fixtures)
}

// Get returns a single fixture by its public uuid.
func (s *Service) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()
	fixture, err := s.Store.GetFixtureByUUID(ctx, c.Params("uuid"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{
				"code": "not_found", "message": "no such fixture"})
		}
		s.Logger.WithError(err).Error("fixture query failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"code": "server_error", "message": "could not load fixtures"})
	}
	return c.Status(http.StatusOK).JSON(fixture)
}

// Next returns the nearest upcoming scheduled fixture.
func (s *Service) Next(c *fiber.Ctx) error {
	ctx := c.UserContext()
	fixture, err := s.Store.NextFixture(ctx, s.now().Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{
				"code": "not_found", "message": "no upcoming fixture"})
		}
		s.Logger.WithError(err).Error("next fixture query failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"code": "server_error", "message": "could not load fixtures"})
	}
	return c.Status(http.StatusOK).JSON(fixture)
}

// Results returns the classified finishing order of a fixture.
func (s *Service) Results(c *fiber.Ctx) error {
	ctx := c.UserContext()
	fixture, err := s.Store.GetFixtureByUUID(ctx, c.Params("uuid"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{
				"code": "not_found", "message": "no such fixture"})
		}
		s.Logger.WithError(err).Error("fixture query failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"code": "server_error", "message": "could not load results"})
	}
	results, err := s.Store.ListResults(ctx, fixture.ID)
	if err != nil {
		s.Logger.WithError(err).Error("results query failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"code": "server_error", "message": "could not load results"})
	}
	if results == nil {
		results = []models.Result{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"fixture": fixture, "results": results})
}

// Standings returns drivers ordered by accumulated points.
func (s *Service) Standings(c *fiber.Ctx) error {
	ctx := c.UserContext()
	standings, err := s.Store.Standings(ctx)
	if err != nil {
		s.Logger.WithError(err).Error("standings query failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"code": "server_error", "message": "could not load standings"})
	}
	if standings == nil {
		standings = []models.Standing{}
	}
	return c.Status(http.StatusOK).JSON(standings)
}
