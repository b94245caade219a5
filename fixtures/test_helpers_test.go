package fixtures

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/apexgp/paddock/models"
	"github.com/apexgp/paddock/store"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type testEnv struct {
	app     *fiber.App
	service *Service
	store   *store.Store
	db      *store.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "paddock_test.db")
	db, err := store.OpenFromConfig("", dbPath, "sqlite3")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	service := &Service{
		Store:  store.New(db),
		Cache:  &Cache{},
		Logger: logger,
		Clock:  &models.MockClock{Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	app := fiber.New()
	app.Get("/api/fixtures", service.List)
	app.Get("/api/fixtures/next", service.Next)
	app.Get("/api/fixtures/:uuid", service.Get)
	app.Get("/api/fixtures/:uuid/results", service.Results)
	app.Get("/api/standings", service.Standings)

	return &testEnv{app: app, service: service, store: service.Store, db: db}
}

func (e *testEnv) seedFixture(t *testing.T, round int, date time.Time, location string) models.Fixture {
	t.Helper()
	fixture := models.Fixture{Round: round, Date: date, Location: location}
	if err := e.store.CreateFixture(context.Background(), &fixture); err != nil {
		t.Fatalf("seed fixture: %v", err)
	}
	return fixture
}
