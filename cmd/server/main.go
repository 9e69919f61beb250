package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/arnold/jcihub-api/internal/config"
	"github.com/arnold/jcihub-api/internal/database"
	"github.com/arnold/jcihub-api/internal/handlers"
	"github.com/arnold/jcihub-api/internal/logger"
	"github.com/arnold/jcihub-api/internal/policy"
	"github.com/arnold/jcihub-api/internal/routes"
	"github.com/arnold/jcihub-api/internal/services"
	"github.com/arnold/jcihub-api/internal/workers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer zl.Sync()

	if err := database.Connect(cfg); err != nil {
		zl.Fatal("database connect failed", zap.Error(err))
	}
	if err := database.Migrate(database.DB); err != nil {
		zl.Fatal("database migrate failed", zap.Error(err))
	}

	ctx := context.Background()
	push := services.NewPush(ctx, cfg.FCMServiceAccount, database.DB, zl)
	hub := handlers.NewHub(zl)

	deps := services.Deps{
		DB:       database.DB,
		Log:      zl,
		Policy:   policy.New(cfg.ExecutiveRoles),
		Notifier: services.NewNotificationService(database.DB, push, zl),
		Events:   hub,
	}
	points := services.NewPointsService(deps)

	h := handlers.New(handlers.Handlers{
		Members:          services.NewMemberService(deps),
		Points:           points,
		Objectives:       services.NewObjectiveService(deps, points),
		Activities:       services.NewActivityService(deps, points),
		Candidates:       services.NewCandidateService(deps),
		Notifications:    deps.Notifier,
		Hub:              hub,
		Log:              zl,
		JWTSecret:        cfg.JWTSecret,
		TokenTTL:         cfg.TokenTTL,
		LeaderboardLimit: cfg.LeaderboardLimit,
	})

	var reconciler *workers.Reconciler
	if cfg.ReconcileInterval > 0 {
		reconciler = workers.NewReconciler(points, zl, cfg.ReconcileInterval)
		reconciler.Start()
	}

	app := fiber.New(fiber.Config{
		AppName: "jcihub-api",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.Setup(app, h)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		zl.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			zl.Error("server shutdown failed", zap.Error(err))
		}
	}()

	zl.Info("server starting", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Error("server failed", zap.Error(err))
	}

	if reconciler != nil {
		reconciler.Stop()
	}
}
