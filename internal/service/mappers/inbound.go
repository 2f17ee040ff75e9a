package mappers

import (
	"github.com/google/uuid"

	api "github.com/reelmint/reelmint/api/v1alpha1"
	"github.com/reelmint/reelmint/internal/store/model"
)

func JobFromApi(id uuid.UUID, resource *api.JobCreate) model.Job {
	return model.Job{
		ID:                id,
		UserID:            resource.UserId,
		UserEmail:         resource.UserEmail,
		CharacterName:     resource.CharacterName,
		InputVideoURL:     resource.SourceVideoUrl,
		CharacterImageURL: resource.CharacterImageUrl,
		Status:            model.JobStatusPending,
	}
}
