package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	gateway "github.com/apexgp/paddock/apigateway"
	"github.com/apexgp/paddock/dashboard"
	"github.com/apexgp/paddock/fans"
	"github.com/apexgp/paddock/fixtures"
	"github.com/apexgp/paddock/live"
	"github.com/apexgp/paddock/models"
	"github.com/apexgp/paddock/news"
	"github.com/apexgp/paddock/store"
	"github.com/caarlos0/env/v11"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const defaultConfigPath = "/etc/paddock/config.yaml"

func isTestRun() bool {
	return strings.HasSuffix(os.Args[0], ".test")
}

func firstExistingPath(paths ...string) string {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func loadConfig() (models.Config, error) {
	var cfg models.Config

	configPath := firstExistingPath(defaultConfigPath, "./config.yaml", "../config.yaml")
	if configPath == "" {
		if !isTestRun() {
			return cfg, errors.New("config.yaml not found")
		}
	} else {
		configData, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(configData, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config yaml: %w", err)
		}
		logrusLogger.Printf("Loaded config from %s", configPath)
	}

	var overrides models.EnvOverrides
	if err := env.Parse(&overrides); err != nil {
		return cfg, fmt.Errorf("parse env overrides: %w", err)
	}
	cfg.Apply(overrides)
	cfg.Defaults()
	return cfg, nil
}

func resolveTemplateDir() string {
	candidates := []string{
		"./dashboard/template",
		"../dashboard/template",
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Clean(candidate)
		}
	}
	return "./dashboard/template"
}

// GetMainEngine wires every route of the paddock server into a fiber app.
func GetMainEngine() *fiber.App {
	templateDir := resolveTemplateDir()
	engine := html.New(templateDir, ".html")
	engine.AddFunc("time", dashboard.TimeFormatter)

	route := fiber.New(fiber.Config{Views: engine, ViewsLayout: "base"})
	route.Use(gateway.RequestID())
	route.Use(gateway.RequestLogger(logrusLogger, logSampling))
	route.Use(gateway.Instrumentation())
	route.Use(gateway.Cors(paddockConfig.Cors))

	route.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{"message": true})
	})
	route.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := route.Group("/api")
	{
		api.Get("/fixtures", fixturesService.List)
		api.Get("/fixtures/next", fixturesService.Next)
		api.Get("/fixtures/:uuid", fixturesService.Get)
		api.Get("/fixtures/:uuid/results", fixturesService.Results)
		api.Get("/standings", fixturesService.Standings)
		api.Get("/news", newsService.List)
		api.Get("/news/:slug", newsService.Get)
	}

	route.Get("/live", adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		live.ServeWs(hub, w, r)
	}))

	fan := route.Group("/fans")
	{
		fan.Post("/register", fansService.Register)
		fan.Post("/login", fansService.Login)
		fan.Post("/refresh", fansService.Refresh)
		fan.Post("/otp/generate", fansService.GenerateSignInCode)
		fan.Post("/otp/login", fansService.OTPLogin)

		fan.Use(auth.AuthMiddleware())
		fan.Get("/me", fansService.Me)
		fan.Put("/me", fansService.UpdateMe)
		fan.Get("/me/lang", fansService.GetLanguage)
		fan.Put("/me/lang", fansService.SetLanguage)
		fan.Post("/me/device", fansService.RegisterDevice)
		fan.Post("/reminders", fansService.Subscribe)
		fan.Get("/reminders", fansService.Reminders)
		fan.Get("/notifications", fansService.Notifications)
	}

	admin := route.Group("/dashboard", gateway.RequireAdmin(paddockConfig))
	{
		admin.Get("/", dashService.BrowserDashboard)
		admin.Get("/news", dashService.NewsPage)
		admin.Get("/counts", dashService.Counts)
		admin.Post("/fixtures", dashService.CreateFixture)
		admin.Put("/fixtures/:uuid", dashService.UpdateFixture)
		admin.Post("/fixtures/:uuid/status", dashService.SetStatus)
		admin.Delete("/fixtures/:uuid", dashService.DeleteFixture)
		admin.Post("/fixtures/:uuid/results", dashService.RecordResults)
		admin.Post("/articles", dashService.UpsertArticle)
		admin.Delete("/articles/:slug", dashService.DeleteArticle)
	}

	return route
}

func init() {
	var err error

	paddockConfig, err = loadConfig()
	if err != nil {
		logrusLogger.Fatalf("error loading config: %v", err)
	}
	configureLogger(paddockConfig)
	initOTel(context.Background(), paddockConfig, logrusLogger)

	dbpath := paddockConfig.DatabasePath
	if isTestRun() {
		if tmp, err := os.CreateTemp("", "paddock-test-*.db"); err == nil {
			dbpath = tmp.Name()
			_ = tmp.Close()
		}
	}

	database, err = store.OpenFromConfig(paddockConfig.DatabaseURL, dbpath, paddockConfig.DatabaseDriver)
	if err != nil {
		logrusLogger.Fatalf("error in connecting to db: %v", err)
	}
	storeSvc = store.New(database)
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelMigrate()
	if err := store.Migrate(migrateCtx, database); err != nil {
		logrusLogger.Fatalf("error in migrations: %v", err)
	}

	// fan accounts live in gorm on the sqlite file; calendar data goes
	// through the sqlx store above
	gormDB, err = gorm.Open(gormsqlite.Open(dbpath), &gorm.Config{})
	if err != nil {
		logrusLogger.Fatalf("error in connecting to gorm db: %v", err)
	}
	if err := gormDB.AutoMigrate(&models.Fan{}); err != nil {
		logrusLogger.Fatalf("error in fan automigrate: %v", err)
	}

	redisClient = redis.NewClient(&redis.Options{Addr: paddockConfig.RedisURL})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrusLogger.Printf("redis unavailable, fixtures cache disabled: %v", err)
		redisClient = nil
	}

	hub = live.NewHub(logrusLogger)
	auth = gateway.JWTAuth{Config: paddockConfig}
	auth.Init()

	cache := &fixtures.Cache{
		Redis: redisClient,
		TTL:   time.Duration(paddockConfig.FixturesCacheTTLSeconds) * time.Second,
	}
	fixturesService = fixtures.Service{Store: storeSvc, Cache: cache, Logger: logrusLogger}
	newsService = news.Service{Store: storeSvc, Logger: logrusLogger}
	fansService = fans.Service{
		Db:     gormDB,
		Store:  storeSvc,
		Redis:  redisClient,
		Config: paddockConfig,
		Logger: logrusLogger,
		Auth:   &auth,
	}
	dashService = dashboard.Service{
		Db:     gormDB,
		Store:  storeSvc,
		Cache:  cache,
		Hub:    hub,
		Config: paddockConfig,
		Logger: logrusLogger,
	}
}
