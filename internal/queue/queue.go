package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeEnrichSuppliers JobType = "enrich_suppliers"
	JobTypeRunAudit        JobType = "run_audit"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job
type Job struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	RetryCount int             `json:"retry_count" gorm:"default:0"`
	MaxRetries int             `json:"max_retries" gorm:"default:3"`
	NextRetry  *time.Time      `json:"next_retry,omitempty"`
	Error      string          `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job Job) (interface{}, error)

// Queue is a database-backed job queue for long-running enrichment and
// audit batches triggered from the API
type Queue struct {
	db         *gorm.DB
	handlers   map[JobType]JobHandler
	processing bool
}

// NewQueue creates a new queue
func NewQueue(db *gorm.DB) *Queue {
	return &Queue{
		db:       db,
		handlers: make(map[JobType]JobHandler),
	}
}

// RegisterHandler registers a handler for a job type
func (q *Queue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.handlers[jobType] = handler
}

// EnqueueJob adds a job to the queue
func (q *Queue) EnqueueJob(jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:        uuid.New(),
		Type:      jobType,
		Payload:   payloadBytes,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := q.db.Create(&job).Error; err != nil {
		return "", err
	}
	return job.ID.String(), nil
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(jobID string) (*Job, error) {
	var job Job
	err := q.db.Model(&Job{}).Where("id = ?", jobID).First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ProcessJobs starts the polling processor. Call from a goroutine.
func (q *Queue) ProcessJobs() {
	if q.processing {
		return
	}
	q.processing = true

	for q.processing {
		var job Job
		err := q.db.Model(&Job{}).
			Where("status = ?", JobStatusPending).
			Where("next_retry IS NULL OR next_retry <= ?", time.Now()).
			Order("created_at").
			First(&job).Error
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				log.Printf("queue: error getting job: %v", err)
			}
			time.Sleep(1 * time.Second)
			continue
		}

		q.processJob(job)
	}
}

// StopProcessing stops the polling loop after the current job
func (q *Queue) StopProcessing() {
	q.processing = false
}

func (q *Queue) processJob(job Job) {
	handler, ok := q.handlers[job.Type]
	if !ok {
		log.Printf("queue: no handler registered for job type %s", job.Type)
		q.markFailed(job, fmt.Errorf("no handler for job type %s", job.Type))
		return
	}

	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":     JobStatusProcessing,
		"updated_at": time.Now(),
	}).Error; err != nil {
		log.Printf("queue: failed to update job status: %v", err)
		return
	}

	result, err := handler(context.Background(), job)
	if err != nil {
		q.handleFailure(job, err)
		return
	}

	var resultJSON []byte
	if result != nil {
		if resultJSON, err = json.Marshal(result); err != nil {
			log.Printf("queue: failed to marshal job result: %v", err)
		}
	}

	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":     JobStatusCompleted,
		"result":     resultJSON,
		"updated_at": time.Now(),
	}).Error; err != nil {
		log.Printf("queue: failed to update job result: %v", err)
	}
}

// handleFailure schedules a retry with exponential backoff, or marks
// the job failed once retries are exhausted
func (q *Queue) handleFailure(job Job, jobErr error) {
	log.Printf("queue: job %s (%s) failed: %v", job.ID, job.Type, jobErr)

	if job.RetryCount >= job.MaxRetries {
		q.markFailed(job, jobErr)
		return
	}

	backoff := time.Duration(math.Pow(2, float64(job.RetryCount))) * time.Minute
	nextRetry := time.Now().Add(backoff)
	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":      JobStatusPending,
		"retry_count": job.RetryCount + 1,
		"next_retry":  nextRetry,
		"error":       jobErr.Error(),
		"updated_at":  time.Now(),
	}).Error; err != nil {
		log.Printf("queue: failed to schedule retry: %v", err)
	}
}

func (q *Queue) markFailed(job Job, jobErr error) {
	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":     JobStatusFailed,
		"error":      jobErr.Error(),
		"updated_at": time.Now(),
	}).Error; err != nil {
		log.Printf("queue: failed to mark job failed: %v", err)
	}
}
