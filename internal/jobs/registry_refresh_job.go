package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/recupera/backend/internal/services/registry"
)

// RegistryRefreshJob periodically re-fetches registry data for
// suppliers whose last fetch is older than the staleness window, so
// activity codes used by rate resolution do not drift from the registry
type RegistryRefreshJob struct {
	enrichmentSvc *registry.EnrichmentService
	scheduler     *gocron.Scheduler
	stalenessDays int
}

// NewRegistryRefreshJob creates the refresh job
func NewRegistryRefreshJob(enrichmentSvc *registry.EnrichmentService, stalenessDays int) *RegistryRefreshJob {
	return &RegistryRefreshJob{
		enrichmentSvc: enrichmentSvc,
		scheduler:     gocron.NewScheduler(time.UTC),
		stalenessDays: stalenessDays,
	}
}

// Schedule starts the refresh on the given cron expression
func (j *RegistryRefreshJob) Schedule(cronExpr string) error {
	if _, err := j.scheduler.Cron(cronExpr).Do(j.Run); err != nil {
		return err
	}
	j.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler
func (j *RegistryRefreshJob) Stop() {
	j.scheduler.Stop()
}

// Run refreshes all stale suppliers once
func (j *RegistryRefreshJob) Run() {
	olderThan := time.Now().AddDate(0, 0, -j.stalenessDays)
	report, err := j.enrichmentSvc.RefreshStaleSuppliers(context.Background(), olderThan)
	if err != nil {
		log.Printf("registry refresh: run aborted: %v", err)
		return
	}
	log.Printf("registry refresh: refreshed %d suppliers, %d failures, %d skipped",
		len(report.Created), len(report.Failures), len(report.Skipped))
}
