package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testPayload is a simple job payload for testing
type testPayload struct {
	Message string `json:"message"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Job{}))
	return db
}

func TestEnqueueJob(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueue(db)

	jobID, err := q.EnqueueJob(JobTypeRunAudit, testPayload{Message: "audit batch"})
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	var job Job
	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	assert.Equal(t, JobTypeRunAudit, job.Type)
	assert.Equal(t, JobStatusPending, job.Status)

	var stored testPayload
	require.NoError(t, json.Unmarshal(job.Payload, &stored))
	assert.Equal(t, "audit batch", stored.Message)
}

func TestGetJob(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueue(db)

	jobID, err := q.EnqueueJob(JobTypeEnrichSuppliers, testPayload{Message: "enrich"})
	require.NoError(t, err)

	job, err := q.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, JobTypeEnrichSuppliers, job.Type)

	_, err = q.GetJob("00000000-0000-0000-0000-000000000000")
	assert.Error(t, err)
}

func TestProcessJobCompletes(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueue(db)

	handled := false
	q.RegisterHandler(JobTypeRunAudit, func(ctx context.Context, job Job) (interface{}, error) {
		handled = true
		return map[string]int{"results": 3}, nil
	})

	jobID, err := q.EnqueueJob(JobTypeRunAudit, testPayload{Message: "ok"})
	require.NoError(t, err)

	var job Job
	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	q.processJob(job)

	assert.True(t, handled)

	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Contains(t, string(job.Result), "results")
}

func TestProcessJobSchedulesRetry(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueue(db)

	q.RegisterHandler(JobTypeRunAudit, func(ctx context.Context, job Job) (interface{}, error) {
		return nil, errors.New("transient failure")
	})

	jobID, err := q.EnqueueJob(JobTypeRunAudit, testPayload{Message: "retry me"})
	require.NoError(t, err)

	var job Job
	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	q.processJob(job)

	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	require.NotNil(t, job.NextRetry)
	assert.True(t, job.NextRetry.After(time.Now()))
	assert.Contains(t, job.Error, "transient failure")
}

func TestProcessJobFailsAfterMaxRetries(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueue(db)

	q.RegisterHandler(JobTypeRunAudit, func(ctx context.Context, job Job) (interface{}, error) {
		return nil, errors.New("permanent failure")
	})

	jobID, err := q.EnqueueJob(JobTypeRunAudit, testPayload{Message: "doomed"})
	require.NoError(t, err)

	var job Job
	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	require.NoError(t, db.Model(&job).Update("retry_count", job.MaxRetries).Error)
	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)

	q.processJob(job)

	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	assert.Equal(t, JobStatusFailed, job.Status)
}

func TestProcessJobWithoutHandlerFails(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueue(db)

	jobID, err := q.EnqueueJob(JobTypeEnrichSuppliers, testPayload{Message: "orphan"})
	require.NoError(t, err)

	var job Job
	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	q.processJob(job)

	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "no handler")
}
