package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/recupera/backend/internal/cache"
	"github.com/recupera/backend/internal/config"
	"github.com/recupera/backend/internal/database"
	"github.com/recupera/backend/internal/database/migrations"
	"github.com/recupera/backend/internal/jobs"
	"github.com/recupera/backend/internal/queue"
	"github.com/recupera/backend/internal/routes"
	"github.com/recupera/backend/internal/services/audit"
	"github.com/recupera/backend/internal/services/registry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	registryClient, err := registry.NewClient(cfg.Registry)
	if err != nil {
		log.Fatalf("Failed to create registry client: %v", err)
	}

	var recordCache registry.RecordCache
	cacheTTL := time.Duration(cfg.Registry.CacheTTLMinutes) * time.Minute
	if rc := cache.NewRegistryCache(cfg.Redis, cacheTTL); rc != nil {
		recordCache = rc
	}

	enrichmentSvc := registry.NewEnrichmentService(db, registryClient, recordCache, cfg.Registry)
	auditSvc := audit.NewService(db)

	jobQueue := queue.NewQueue(db)
	jobs.RegisterAuditJobHandlers(jobQueue, db, enrichmentSvc, auditSvc)
	go jobQueue.ProcessJobs()

	refreshJob := jobs.NewRegistryRefreshJob(enrichmentSvc, cfg.Registry.StalenessDays)
	if err := refreshJob.Schedule(cfg.Registry.RefreshCronSchedule); err != nil {
		log.Fatalf("Failed to schedule registry refresh job: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	routes.RegisterRoutes(router, db, enrichmentSvc, auditSvc, jobQueue)

	fmt.Printf("Recupera API server running on port %s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
