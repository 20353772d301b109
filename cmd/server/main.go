package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"scanhub/config"
	"scanhub/pkg/adapters"
	"scanhub/pkg/handlers"
	service "scanhub/pkg/services"
	"scanhub/pkg/utils"
	"scanhub/pkg/version"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// setupAdapters builds every tool adapter; missing credentials leave an
// adapter disabled, never abort startup
func setupAdapters(cfg *config.Config, log *utils.Logger) []adapters.Adapter {
	tools := []adapters.Adapter{
		adapters.NewWebScanAdapter(cfg.Adapters.WebScan, log),
		adapters.NewDepVulnAdapter(cfg.Adapters.DepVuln, log),
		adapters.NewContainerAdapter(cfg.Adapters.Container, log),
		adapters.NewStaticAnalysisAdapter(cfg.Adapters.Static, log),
		adapters.NewAdvisoriesAdapter(cfg.Adapters.Advisories, log),
	}

	for _, ad := range tools {
		log.WithFields(logrus.Fields{
			"tool":    ad.Name(),
			"enabled": ad.Enabled(),
		}).Info("Adapter configured")
	}
	return tools
}

// setupServices wires the stores, the orchestrator and the sweeper
func setupServices(cfg *config.Config, log *utils.Logger, tools []adapters.Adapter) (*service.TargetStore, *service.PolicyStore, *service.JobStore, *service.Orchestrator, *service.RetentionSweeper) {
	targetStore := service.NewTargetStore(log)
	policyStore := service.NewPolicyStore(log)
	jobStore := service.NewJobStore(log)
	archive := service.NewReportArchive(cfg.Storage.Path, log)

	orchestrator := service.NewOrchestrator(cfg, log, targetStore, policyStore, jobStore, archive, tools)
	sweeper := service.NewRetentionSweeper(cfg, jobStore, log)

	return targetStore, policyStore, jobStore, orchestrator, sweeper
}

func main() {
	// Configuration - load first to get logging settings
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logrus.WithError(err).Warn("Could not load configuration file, using defaults")
		}
		cfg = config.Defaults()
	}

	logConfig := utils.Config{
		LogLevel:  cfg.Logging.Level,
		LogFormat: cfg.Logging.Format,
		Pretty:    true,
	}
	if logConfig.LogLevel == "" {
		logConfig.LogLevel = "info"
	}
	if logConfig.LogFormat == "" {
		logConfig.LogFormat = "text"
	}
	log := utils.NewLogger(logConfig)

	log.WithFields(logrus.Fields{
		"version": version.Version,
		"commit":  version.Commit,
	}).Info("scanhub starting")

	// Adapters and services
	tools := setupAdapters(cfg, log)
	targetStore, policyStore, jobStore, orchestrator, sweeper := setupServices(cfg, log, tools)

	sweeper.Start(context.Background())

	// Handlers
	scanHandler := handlers.NewScanHandler(orchestrator, log)
	findingHandler := handlers.NewFindingHandler(jobStore, log)
	targetHandler := handlers.NewTargetHandler(targetStore, log)
	policyHandler := handlers.NewPolicyHandler(policyStore, log)

	app := fiber.New(fiber.Config{
		AppName:       "scanhub",
		CaseSensitive: true,
		StrictRouting: false,
		ServerHeader:  "scanhub",

		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
				"error":  err.Error(),
			}).Error("Error handling request")
			return c.Status(500).JSON(fiber.Map{"error": "internal error"})
		},
	})

	// Request logging middleware
	app.Use(func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			log.Debug("Health check")
			return c.Next()
		}

		log.WithFields(logrus.Fields{
			"path":   c.Path(),
			"method": c.Method(),
		}).Info("Incoming request")

		return c.Next()
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	// Scan routes
	app.Post("/scans", scanHandler.Submit)
	app.Get("/scans/:jobId", scanHandler.Status)
	app.Get("/scans/:jobId/progress", scanHandler.Progress)
	app.Post("/scans/:jobId/cancel", scanHandler.Cancel)
	app.Get("/scans/:jobId/report", scanHandler.Report)

	// Finding routes
	app.Get("/findings", findingHandler.Query)
	app.Patch("/findings/:id/status", findingHandler.UpdateStatus)

	// Target routes
	app.Get("/targets", targetHandler.List)
	app.Post("/targets", targetHandler.Create)
	app.Get("/targets/:id", targetHandler.Get)
	app.Put("/targets/:id", targetHandler.Update)
	app.Delete("/targets/:id", targetHandler.Delete)

	// Policy routes
	app.Get("/policies", policyHandler.List)
	app.Post("/policies", policyHandler.Create)
	app.Get("/policies/:id", policyHandler.Get)
	app.Put("/policies/:id", policyHandler.Update)
	app.Delete("/policies/:id", policyHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.WithField("port", addr).Info("🚀 Application starting")

	if err := app.Listen(addr); err != nil {
		log.WithFunc().WithError(err).Fatal("HTTP Server failed")
	}
}
