package fans

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	gateway "github.com/apexgp/paddock/apigateway"
	"github.com/apexgp/paddock/models"
	"github.com/apexgp/paddock/store"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPassword = "Sup3r$ecret"

type testEnv struct {
	app     *fiber.App
	service *Service
	store   *store.Store
	auth    *gateway.JWTAuth
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

	auth := &gateway.JWTAuth{Config: models.Config{JWTKey: "test-secret"}}
	auth.Init()

	service := &Service{
		Db:     gormDB,
		Store:  store.New(storeDB),
		Config: models.Config{JWTKey: "test-secret"},
		Logger: logger,
		Auth:   auth,
	}

	app := fiber.New()
	app.Post("/fans/register", service.Register)
	app.Post("/fans/login", service.Login)
	app.Post("/fans/refresh", service.Refresh)
	app.Post("/fans/otp", service.GenerateSignInCode)
	app.Post("/fans/otp/login", service.OTPLogin)

	protected := app.Group("/fans", auth.AuthMiddleware())
	protected.Get("/me", service.Me)
	protected.Put("/me", service.UpdateMe)
	protected.Get("/language", service.GetLanguage)
	protected.Put("/language", service.SetLanguage)
	protected.Post("/device", service.RegisterDevice)
	protected.Post("/reminders", service.Subscribe)
	protected.Get("/reminders", service.Reminders)
	protected.Get("/notifications", service.Notifications)

	return &testEnv{app: app, service: service, store: service.Store, auth: auth, db: gormDB}
}

// seedFan creates an account directly in gorm and returns it with a
// fresh token.
func (e *testEnv) seedFan(t *testing.T, mobile string) (models.Fan, string) {
	t.Helper()
	fan := models.Fan{Mobile: mobile, Username: mobile, Password: testPassword, Fullname: "Test Fan"}
	if err := fan.HashPassword(); err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := fan.EnsureOTPSecret(); err != nil {
		t.Fatalf("otp secret: %v", err)
	}
	if err := e.db.Create(&fan).Error; err != nil {
		t.Fatalf("seed fan: %v", err)
	}
	token, err := e.auth.GenerateJWT(fan.ID, fan.Mobile)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return fan, token
}

func (e *testEnv) request(t *testing.T, method, path, token string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
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

func gatewayClaims(fanID uint, mobile string, expires time.Time) gateway.TokenClaims {
	return gateway.TokenClaims{
		FanID:  fanID,
		Mobile: mobile,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  expires.Add(-3 * time.Hour).Unix(),
			ExpiresAt: expires.Unix(),
			Issuer:    "paddock",
		},
	}
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", body, err)
	}
	return out
}
