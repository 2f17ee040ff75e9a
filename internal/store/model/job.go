package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusComplete   = "complete"
	JobStatusFailed     = "failed"
)

// Job is the durable record of one generation request. Status is monotonic:
// pending -> processing -> complete|failed, with no transition out of a
// terminal state. ProviderRunRef is written at most once.
type Job struct {
	ID                uuid.UUID `gorm:"primaryKey"`
	UserID            string    `gorm:"index;not null"`
	UserEmail         *string
	CharacterName     *string
	InputVideoURL     string  `gorm:"not null"`
	CharacterImageURL string  `gorm:"not null"`
	ProviderRunRef    *string `gorm:"uniqueIndex"`
	Status            string  `gorm:"not null;default:pending;index"`
	ResultURL         *string
	FailureReason     []byte `gorm:"type:jsonb"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

type JobList []Job

func NewJobFromID(id uuid.UUID) *Job {
	return &Job{ID: id}
}

func (j Job) IsTerminal() bool {
	return j.Status == JobStatusComplete || j.Status == JobStatusFailed
}

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}
