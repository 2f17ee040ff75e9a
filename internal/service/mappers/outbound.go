package mappers

import (
	"go.uber.org/zap"

	api "github.com/reelmint/reelmint/api/v1alpha1"
	"github.com/reelmint/reelmint/internal/generation"
	"github.com/reelmint/reelmint/internal/store/model"
)

func JobToApi(job model.Job) api.Job {
	out := api.Job{
		Id:                job.ID,
		UserId:            job.UserID,
		CharacterName:     job.CharacterName,
		SourceVideoUrl:    job.InputVideoURL,
		CharacterImageUrl: job.CharacterImageURL,
		Status:            api.StringToJobStatus(job.Status),
		ResultUrl:         job.ResultURL,
		CreatedAt:         job.CreatedAt,
		CompletedAt:       job.CompletedAt,
	}

	if len(job.FailureReason) > 0 {
		reason, err := generation.UnmarshalFailureReason(job.FailureReason)
		if err != nil {
			// keep the job readable even if the stored reason is mangled
			zap.S().Named("mappers").Warnw("failed to decode failure reason", "job_id", job.ID, "error", err)
		} else {
			out.FailureReason = &api.FailureReason{
				Kind:     reason.Kind,
				Message:  reason.Message,
				Provider: reason.Provider,
				Model:    reason.Model,
				Code:     reason.Code,
				Details:  reason.Details,
			}
		}
	}

	return out
}

func JobListToApi(jobs model.JobList) api.JobList {
	out := make(api.JobList, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, JobToApi(job))
	}
	return out
}
