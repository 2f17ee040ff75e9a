package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/reelmint/reelmint/api/v1alpha1"
	"github.com/reelmint/reelmint/internal/generation"
	"github.com/reelmint/reelmint/internal/service/mappers"
	"github.com/reelmint/reelmint/internal/store"
	"github.com/reelmint/reelmint/internal/store/model"
)

// GenerationService is the application-facing surface of the job state
// machine: create a job and kick off its run, then let clients poll it.
type GenerationService struct {
	store   store.Store
	trigger generation.Trigger
}

func NewGenerationService(store store.Store, trigger generation.Trigger) *GenerationService {
	return &GenerationService{store: store, trigger: trigger}
}

// CreateJob persists the job record and schedules its generation run. The
// record is committed before dispatch so a client always finds the job it
// was handed, even if scheduling fails and the run needs a manual retrigger.
func (s *GenerationService) CreateJob(ctx context.Context, resource *api.JobCreate) (*model.Job, error) {
	logger := zap.S().Named("generation_service")

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	job, err := s.store.Job().Create(ctx, mappers.JobFromApi(id, resource))
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	if err := s.trigger.Dispatch(ctx, job.ID); err != nil {
		logger.Errorw("failed to schedule generation run", "job_id", job.ID, "error", err)
		return nil, NewErrTriggerFailed(job.ID, err)
	}

	logger.Infow("job created", "job_id", job.ID, "user_id", job.UserID)
	return job, nil
}

func (s *GenerationService) GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}

	return job, nil
}

func (s *GenerationService) ListJobs(ctx context.Context, filter *JobFilter) (model.JobList, error) {
	storeFilter := store.NewJobQueryFilter()
	if filter != nil {
		if filter.UserID != "" {
			storeFilter = storeFilter.ByUserID(filter.UserID)
		}
		if filter.Status != "" {
			storeFilter = storeFilter.ByStatus(filter.Status)
		}
	}

	return s.store.Job().List(ctx, storeFilter)
}

// JobFilter narrows job listings. Zero values mean no constraint.
type JobFilter struct {
	UserID string
	Status string
}
