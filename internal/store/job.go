package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reelmint/reelmint/internal/store/model"
	"gorm.io/gorm"
)

// Job interface for generation job record operations. MarkSubmitted,
// MarkComplete and MarkFailed are guarded: calling them again after the
// transition already happened is a no-op, never an error.
type Job interface {
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	List(ctx context.Context, filter *JobQueryFilter) (model.JobList, error)
	MarkSubmitted(ctx context.Context, id uuid.UUID, runRef string) (*model.Job, error)
	MarkComplete(ctx context.Context, id uuid.UUID, resultURL string) (*model.Job, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason []byte) (*model.Job, error)
	InitialMigration() error
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Job{})
}

func (s *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	result := s.getDB(ctx).Create(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating job: %w", result.Error)
	}
	return &job, nil
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	result := s.getDB(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying job: %w", result.Error)
	}
	return &job, nil
}

func (s *JobStore) List(ctx context.Context, filter *JobQueryFilter) (model.JobList, error) {
	var jobs model.JobList
	tx := s.getDB(ctx)
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	result := tx.Order("created_at DESC").Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("listing jobs: %w", result.Error)
	}
	return jobs, nil
}

// MarkSubmitted records the provider run reference and moves the job to
// processing. The reference is written at most once: a second call never
// overwrites the stored one. The returned record carries whatever reference
// actually won.
func (s *JobStore) MarkSubmitted(ctx context.Context, id uuid.UUID, runRef string) (*model.Job, error) {
	result := s.getDB(ctx).Model(&model.Job{}).
		Where("id = ? AND provider_run_ref IS NULL AND status NOT IN ?", id, []string{model.JobStatusComplete, model.JobStatusFailed}).
		Updates(map[string]any{
			"provider_run_ref": runRef,
			"status":           model.JobStatusProcessing,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("marking job submitted: %w", result.Error)
	}

	return s.Get(ctx, id)
}

// MarkComplete writes the terminal complete state. The conditional update on
// the current status is what enforces the single-terminal-write invariant
// under concurrent attempts.
func (s *JobStore) MarkComplete(ctx context.Context, id uuid.UUID, resultURL string) (*model.Job, error) {
	now := time.Now().UTC()
	result := s.getDB(ctx).Model(&model.Job{}).
		Where("id = ? AND status NOT IN ?", id, []string{model.JobStatusComplete, model.JobStatusFailed}).
		Updates(map[string]any{
			"status":       model.JobStatusComplete,
			"result_url":   resultURL,
			"completed_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("marking job complete: %w", result.Error)
	}

	return s.Get(ctx, id)
}

// MarkFailed writes the terminal failed state with the classified reason.
// Like MarkComplete it is a no-op once the job is terminal.
func (s *JobStore) MarkFailed(ctx context.Context, id uuid.UUID, reason []byte) (*model.Job, error) {
	now := time.Now().UTC()
	result := s.getDB(ctx).Model(&model.Job{}).
		Where("id = ? AND status NOT IN ?", id, []string{model.JobStatusComplete, model.JobStatusFailed}).
		Updates(map[string]any{
			"status":         model.JobStatusFailed,
			"failure_reason": reason,
			"completed_at":   now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("marking job failed: %w", result.Error)
	}

	return s.Get(ctx, id)
}

func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
