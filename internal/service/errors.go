package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

type ErrTriggerFailed struct {
	error
}

func NewErrTriggerFailed(id uuid.UUID, cause error) *ErrTriggerFailed {
	return &ErrTriggerFailed{fmt.Errorf("scheduling generation run for job %s: %w", id, cause)}
}
