package validator

import (
	"testing"

	"github.com/reelmint/reelmint/api/v1alpha1"
)

func TestJobCreateFormValidators(t *testing.T) {
	ptr := func(s string) *string { return &s }
	tests := []struct {
		name       string
		form       v1alpha1.JobCreate
		shouldFail bool
	}{
		{
			name: "validation ok -- minimal form",
			form: v1alpha1.JobCreate{
				SourceVideoUrl:    "https://cdn.example.com/in.mp4",
				CharacterImageUrl: "https://cdn.example.com/char.png",
				UserId:            "user-1",
			},
			shouldFail: false,
		},
		{
			name: "validation ok -- with email and character name",
			form: v1alpha1.JobCreate{
				SourceVideoUrl:    "https://cdn.example.com/in.mp4",
				CharacterImageUrl: "http://cdn.example.com/char.png",
				UserId:            "user-1",
				UserEmail:         ptr("user@example.com"),
				CharacterName:     ptr("Captain Reel"),
			},
			shouldFail: false,
		},
		{
			name: "validation ko -- missing video url",
			form: v1alpha1.JobCreate{
				CharacterImageUrl: "https://cdn.example.com/char.png",
				UserId:            "user-1",
			},
			shouldFail: true,
		},
		{
			name: "validation ko -- video url is a file path",
			form: v1alpha1.JobCreate{
				SourceVideoUrl:    "/tmp/in.mp4",
				CharacterImageUrl: "https://cdn.example.com/char.png",
				UserId:            "user-1",
			},
			shouldFail: true,
		},
		{
			name: "validation ko -- image url has a bad scheme",
			form: v1alpha1.JobCreate{
				SourceVideoUrl:    "https://cdn.example.com/in.mp4",
				CharacterImageUrl: "ftp://cdn.example.com/char.png",
				UserId:            "user-1",
			},
			shouldFail: true,
		},
		{
			name: "validation ko -- missing user id",
			form: v1alpha1.JobCreate{
				SourceVideoUrl:    "https://cdn.example.com/in.mp4",
				CharacterImageUrl: "https://cdn.example.com/char.png",
			},
			shouldFail: true,
		},
		{
			name: "validation ko -- malformed email",
			form: v1alpha1.JobCreate{
				SourceVideoUrl:    "https://cdn.example.com/in.mp4",
				CharacterImageUrl: "https://cdn.example.com/char.png",
				UserId:            "user-1",
				UserEmail:         ptr("not-an-email"),
			},
			shouldFail: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(tt *testing.T) {
			v := NewValidator()
			v.Register(NewJobValidationRules()...)

			err := v.Struct(test.form)
			if test.shouldFail && err == nil {
				tt.Errorf("expected validation to fail")
			}
			if !test.shouldFail && err != nil {
				tt.Errorf("expected validation to pass: %v", err)
			}
		})
	}
}
