// Package news serves the marketing site's published articles.
package news

import (
	"errors"
	"net/http"

	"github.com/apexgp/paddock/models"
	"github.com/apexgp/paddock/store"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Service struct {
	Store  *store.Store
	Logger *logrus.Logger
}

// List returns published articles, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	articles, err := s.Store.ListArticles(c.UserContext(), true)
	if err != nil {
		s.Logger.WithError(err).Error("news list query failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"code": "server_error", "message": "could not load news"})
	}
	if articles == nil {
		articles = []models.Article{}
	}
	return c.Status(http.StatusOK).JSON(articles)
}

// Get returns a published article by slug. Drafts 404 here.
func (s *Service) Get(c *fiber.Ctx) error {
	article, err := s.Store.GetArticleBySlug(c.UserContext(), c.Params("slug"), true)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{
				"code": "not_found", "message": "no such article"})
		}
		s.Logger.WithError(err).Error("news query failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"code": "server_error", "message": "could not load news"})
	}
	return c.Status(http.StatusOK).JSON(article)
}
