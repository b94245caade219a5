package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	gateway "github.com/apexgp/paddock/apigateway"
	"github.com/apexgp/paddock/dashboard"
	"github.com/apexgp/paddock/fans"
	"github.com/apexgp/paddock/fixtures"
	"github.com/apexgp/paddock/live"
	"github.com/apexgp/paddock/models"
	"github.com/apexgp/paddock/news"
	"github.com/apexgp/paddock/store"
	"github.com/apexgp/paddock/worker"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var paddockConfig models.Config
var logrusLogger = logrus.New()
var database *store.DB
var storeSvc *store.Store
var gormDB *gorm.DB
var redisClient *redis.Client
var auth gateway.JWTAuth
var fixturesService fixtures.Service
var newsService news.Service
var fansService fans.Service
var dashService dashboard.Service
var hub *live.Hub
var logSampling gateway.LogSamplingConfig
var otelShutdown func(context.Context) error

const serverShutdownTimeout = 10 * time.Second

func main() {
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
			defer cancel()
			if err := otelShutdown(ctx); err != nil {
				logrusLogger.WithError(err).Warn("otel shutdown failed")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	reminders := &worker.Reminders{
		Store:  storeSvc,
		Hub:    hub,
		Config: paddockConfig,
		Logger: logrusLogger,
	}
	go func() {
		if err := reminders.Run(ctx); err != nil {
			logrusLogger.WithError(err).Error("reminder worker failed to start")
		}
	}()

	app := GetMainEngine()
	go shutdownOnCancel(ctx, app, serverShutdownTimeout)

	if err := app.Listen(paddockConfig.Port); err != nil {
		logrusLogger.WithError(err).Error("server stopped")
	}
	if err := database.Close(); err != nil {
		logrusLogger.WithError(err).Warn("db close failed")
	}
}

// shutdownOnCancel drains in-flight requests and stops the server once
// ctx is cancelled, letting Listen return so deferred cleanup runs.
func shutdownOnCancel(ctx context.Context, app *fiber.App, timeout time.Duration) {
	<-ctx.Done()
	if err := app.ShutdownWithTimeout(timeout); err != nil {
		logrusLogger.WithError(err).Warn("server shutdown failed")
	}
}
