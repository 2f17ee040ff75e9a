package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the externally visible lifecycle of a generation job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusComplete   JobStatus = "complete"
	JobStatusFailed     JobStatus = "failed"
)

// JobCreate is the request body for starting a generation job.
type JobCreate struct {
	SourceVideoUrl    string  `json:"sourceVideoUrl" validate:"required,source_url"`
	CharacterImageUrl string  `json:"characterImageUrl" validate:"required,source_url"`
	UserId            string  `json:"userId" validate:"required"`
	UserEmail         *string `json:"userEmail,omitempty" validate:"omitempty,email"`
	CharacterName     *string `json:"characterName,omitempty" validate:"omitempty,max=120"`
}

// Job is the externally visible job record. Status, resultUrl and
// failureReason are the only outputs clients poll for.
type Job struct {
	Id                uuid.UUID      `json:"id"`
	UserId            string         `json:"userId"`
	CharacterName     *string        `json:"characterName,omitempty"`
	SourceVideoUrl    string         `json:"sourceVideoUrl"`
	CharacterImageUrl string         `json:"characterImageUrl"`
	Status            JobStatus      `json:"status"`
	ResultUrl         *string        `json:"resultUrl,omitempty"`
	FailureReason     *FailureReason `json:"failureReason,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"`
}

type JobList []Job

// FailureReason carries the classified cause of a failed job. Details keeps
// the raw provider payload so operators can see the original cause.
type FailureReason struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	Code     string `json:"code,omitempty"`
	Details  string `json:"details,omitempty"`
}

// Error is the generic error response body.
type Error struct {
	Message   string  `json:"message"`
	RequestId *string `json:"requestId,omitempty"`
}

func StringToJobStatus(s string) JobStatus {
	switch s {
	case string(JobStatusPending):
		return JobStatusPending
	case string(JobStatusProcessing):
		return JobStatusProcessing
	case string(JobStatusComplete):
		return JobStatusComplete
	case string(JobStatusFailed):
		return JobStatusFailed
	default:
		return JobStatusPending
	}
}
