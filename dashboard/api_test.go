package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	gateway "github.com/apexgp/paddock/apigateway"
	"github.com/apexgp/paddock/fixtures"
	"github.com/apexgp/paddock/live"
	"github.com/apexgp/paddock/models"
	"github.com/apexgp/paddock/store"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	app     *fiber.App
	service *Service
	store   *store.Store
	db      *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "paddock_test.db")
	storeDB, err := store.OpenFromConfig("", dbPath, "sqlite3")
	if err != nil {
		t.Fatalf("open store db: %v", err)
	}
	t.Cleanup(func() { storeDB.Close() })
	if err := store.Migrate(context.Background(), storeDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	gormDB, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		t.Fatalf("open gorm db: %v", err)
	}
	if err := gormDB.AutoMigrate(&models.Fan{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := models.Config{IsDebug: true}
	service := &Service{
		Db:     gormDB,
		Store:  store.New(storeDB),
		Cache:  &fixtures.Cache{},
		Hub:    live.NewHub(logger),
		Config: cfg,
		Logger: logger,
	}

	app := fiber.New()
	admin := app.Group("/dashboard", gateway.RequireAdmin(cfg))
	admin.Get("/counts", service.Counts)
	admin.Post("/fixtures", service.CreateFixture)
	admin.Put("/fixtures/:uuid", service.UpdateFixture)
	admin.Put("/fixtures/:uuid/status", service.SetStatus)
	admin.Delete("/fixtures/:uuid", service.DeleteFixture)
	admin.Post("/fixtures/:uuid/results", service.RecordResults)
	admin.Post("/news", service.UpsertArticle)
	admin.Delete("/news/:slug", service.DeleteArticle)

	return &testEnv{app: app, service: service, store: service.Store, db: gormDB}
}

func (e *testEnv) request(t *testing.T, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", body, err)
	}
	return out
}

func TestCreateFixture(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, "POST", "/dashboard/fixtures", map[string]any{
		"round":    1,
		"date":     "2026-03-08T14:00:00Z",
		"location": "Khartoum",
		"circuit":  "Khartoum Street Circuit",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d (%s)", resp.StatusCode, body)
	}
	got := decode(t, body)
	if got["uuid"] == "" || got["location"] != "Khartoum" {
		t.Errorf("got %v", got)
	}
	if got["status"] != models.FixtureScheduled {
		t.Errorf("status = %v", got["status"])
	}
}

func TestCreateFixtureValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing date", map[string]any{"location": "Khartoum"}},
		{"bad date", map[string]any{"date": "next sunday", "location": "Khartoum"}},
		{"missing location", map[string]any{"date": "2026-03-08T14:00:00Z"}},
		{"bad status", map[string]any{"date": "2026-03-08T14:00:00Z", "location": "Khartoum", "status": "postponed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.request(t, "POST", "/dashboard/fixtures", tt.payload)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d (%s)", resp.StatusCode, body)
			}
		})
	}
}

func TestUpdateFixture(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.request(t, "POST", "/dashboard/fixtures", map[string]any{
		"date": "2026-03-08T14:00:00Z", "location": "Khartoum",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed = %d (%s)", resp.StatusCode, body)
	}
	fixtureUUID := decode(t, body)["uuid"].(string)

	resp, body = env.request(t, "PUT", "/dashboard/fixtures/"+fixtureUUID, map[string]any{
		"round": 2, "date": "2026-03-15T14:00:00Z", "location": "Port Sudan",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update = %d (%s)", resp.StatusCode, body)
	}

	stored, err := env.store.GetFixtureByUUID(context.Background(), fixtureUUID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Location != "Port Sudan" || stored.Round != 2 {
		t.Errorf("stored = %+v", stored)
	}

	resp, _ = env.request(t, "PUT", "/dashboard/fixtures/missing", map[string]any{
		"date": "2026-03-15T14:00:00Z", "location": "Nowhere",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing = %d", resp.StatusCode)
	}
}

func TestSetStatus(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.request(t, "POST", "/dashboard/fixtures", map[string]any{
		"date": "2026-03-08T14:00:00Z", "location": "Khartoum",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed = %d (%s)", resp.StatusCode, body)
	}
	fixtureUUID := decode(t, body)["uuid"].(string)

	resp, body = env.request(t, "PUT", "/dashboard/fixtures/"+fixtureUUID+"/status", map[string]string{"status": "live"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set status = %d (%s)", resp.StatusCode, body)
	}
	stored, err := env.store.GetFixtureByUUID(context.Background(), fixtureUUID)
	if err != nil || stored.Status != models.FixtureLive {
		t.Errorf("stored status = %v, err = %v", stored, err)
	}

	resp, _ = env.request(t, "PUT", "/dashboard/fixtures/"+fixtureUUID+"/status", map[string]string{"status": "postponed"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad status = %d", resp.StatusCode)
	}
}

func TestDeleteFixture(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.request(t, "POST", "/dashboard/fixtures", map[string]any{
		"date": "2026-03-08T14:00:00Z", "location": "Khartoum",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed = %d (%s)", resp.StatusCode, body)
	}
	fixtureUUID := decode(t, body)["uuid"].(string)

	resp, _ = env.request(t, "DELETE", "/dashboard/fixtures/"+fixtureUUID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete = %d", resp.StatusCode)
	}
	resp, _ = env.request(t, "DELETE", "/dashboard/fixtures/"+fixtureUUID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("double delete = %d", resp.StatusCode)
	}
}

func TestRecordResults(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.request(t, "POST", "/dashboard/fixtures", map[string]any{
		"date": "2026-03-08T14:00:00Z", "location": "Khartoum",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed = %d (%s)", resp.StatusCode, body)
	}
	fixtureUUID := decode(t, body)["uuid"].(string)

	resp, body = env.request(t, "POST", "/dashboard/fixtures/"+fixtureUUID+"/results", map[string]any{
		"results": []map[string]any{
			{"position": 1, "driver": "Haile", "team": "Crimson", "points": 25},
			{"position": 2, "driver": "Osman", "team": "Azure", "points": 18},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record = %d (%s)", resp.StatusCode, body)
	}

	stored, err := env.store.GetFixtureByUUID(context.Background(), fixtureUUID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != models.FixtureFinished {
		t.Errorf("status = %q, want finished", stored.Status)
	}
	results, err := env.store.ListResults(context.Background(), stored.ID)
	if err != nil || len(results) != 2 {
		t.Errorf("results = %v, err = %v", results, err)
	}

	resp, _ = env.request(t, "POST", "/dashboard/fixtures/"+fixtureUUID+"/results", map[string]any{
		"results": []map[string]any{},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty results = %d", resp.StatusCode)
	}
}

func TestUpsertArticle(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, "POST", "/dashboard/news", map[string]any{
		"slug": "season-launch", "title": "Season Launch", "body": "Soon.",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create = %d (%s)", resp.StatusCode, body)
	}

	// same slug updates in place
	resp, body = env.request(t, "POST", "/dashboard/news", map[string]any{
		"slug": "season-launch", "title": "Season Launch Party", "body": "Sooner.", "published": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update = %d (%s)", resp.StatusCode, body)
	}

	article, err := env.store.GetArticleBySlug(context.Background(), "season-launch", false)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if article.Title != "Season Launch Party" || !article.Published {
		t.Errorf("article = %+v", article)
	}
	all, err := env.store.ListArticles(context.Background(), false)
	if err != nil || len(all) != 1 {
		t.Errorf("len = %d, err = %v", len(all), err)
	}
}

func TestDeleteArticle(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.request(t, "DELETE", "/dashboard/news/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing = %d", resp.StatusCode)
	}

	env.request(t, "POST", "/dashboard/news", map[string]any{"slug": "gone", "title": "Gone"})
	resp, _ = env.request(t, "DELETE", "/dashboard/news/gone", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete = %d", resp.StatusCode)
	}
}

func TestCounts(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, "POST", "/dashboard/fixtures", map[string]any{
		"date": "2026-03-08T14:00:00Z", "location": "Khartoum",
	})
	fan := models.Fan{Mobile: "0912345678", Username: "0912345678", Password: "irrelevant"}
	if err := env.db.Create(&fan).Error; err != nil {
		t.Fatalf("seed fan: %v", err)
	}

	resp, body := env.request(t, "GET", "/dashboard/counts", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d (%s)", resp.StatusCode, body)
	}
	got := decode(t, body)
	if got["fixtures"] != float64(1) || got["fans"] != float64(1) {
		t.Errorf("counts = %v", got)
	}
	if got["recent_fans"] != float64(1) {
		t.Errorf("recent_fans = %v", got["recent_fans"])
	}
}
