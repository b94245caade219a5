package dashboard

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// TimeFormatter is exposed to the HTML templates.
func TimeFormatter(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Mon, 02 Jan 2006 15:04 MST")
}

// BrowserDashboard renders the fixtures console page.
func (s *Service) BrowserDashboard(c *fiber.Ctx) error {
	fixtures, err := s.Store.ListFixtures(c.UserContext())
	if err != nil {
		s.Logger.WithError(err).Error("dashboard fixtures query failed")
		return c.Status(http.StatusInternalServerError).SendString("could not load fixtures")
	}
	return c.Render("fixtures", fiber.Map{
		"Title":    "Race calendar",
		"Fixtures": fixtures,
	})
}

// NewsPage renders the article editor page, drafts included.
func (s *Service) NewsPage(c *fiber.Ctx) error {
	articles, err := s.Store.ListArticles(c.UserContext(), false)
	if err != nil {
		s.Logger.WithError(err).Error("dashboard news query failed")
		return c.Status(http.StatusInternalServerError).SendString("could not load news")
	}
	return c.Render("news", fiber.Map{
		"Title":    "News",
		"Articles": articles,
	})
}
