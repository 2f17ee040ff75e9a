package generation_test

import (
	"context"
	"errors"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reelmint/reelmint/internal/generation"
	"github.com/reelmint/reelmint/internal/provider"
)

var _ = Describe("classifier", func() {
	var classifier *generation.Classifier

	BeforeEach(func() {
		classifier = generation.NewClassifier("fal", "character-video-v1")
	})

	It("tags every reason with provider and model", func() {
		reason := classifier.Classify(errors.New("anything"))
		Expect(reason.Provider).To(Equal("fal"))
		Expect(reason.Model).To(Equal("character-video-v1"))
	})

	DescribeTable("mapping errors onto the failure taxonomy",
		func(raw error, kind string, code string) {
			reason := classifier.Classify(raw)
			Expect(reason.Kind).To(Equal(kind))
			if code != "" {
				Expect(reason.Code).To(Equal(code))
			}
		},
		Entry("poll deadline",
			generation.ErrPollDeadline, generation.KindTimeout, ""),
		Entry("missing artifact",
			provider.ErrMissingArtifact, generation.KindMissingArtifact, ""),
		Entry("gateway marker in the response body",
			&provider.RequestError{StatusCode: 500, Body: `{"error": "GATEWAY_INTERNAL_SERVER_ERROR"}`},
			generation.KindProviderError, generation.CodeGatewayInternalServerError),
		Entry("gateway marker in a plain error string",
			errors.New("request failed: GATEWAY_INTERNAL_SERVER_ERROR"),
			generation.KindProviderError, generation.CodeGatewayInternalServerError),
		Entry("connection refused",
			&url.Error{Op: "Post", URL: "https://queue.example.com", Err: errors.New("connection refused")},
			generation.KindTransportError, ""),
		Entry("request deadline exceeded",
			context.DeadlineExceeded, generation.KindTransportError, ""),
		Entry("unrecognized provider answer",
			&provider.RequestError{StatusCode: 500, Body: "something odd"},
			generation.KindProviderError, generation.CodeProviderError),
		Entry("nil error",
			nil, generation.KindProviderError, generation.CodeProviderError),
	)

	Context("validation rejections", func() {
		It("extracts the message from the detail array", func() {
			raw := &provider.RequestError{
				StatusCode: 422,
				Body:       `{"detail": [{"msg": "image resolution too low"}]}`,
			}
			reason := classifier.Classify(raw)
			Expect(reason.Kind).To(Equal(generation.KindValidationError))
			Expect(reason.Message).To(Equal("image resolution too low"))
		})

		It("falls back to the message field", func() {
			raw := &provider.RequestError{
				StatusCode: 422,
				Body:       `{"detail": [{"message": "unsupported video codec"}]}`,
			}
			reason := classifier.Classify(raw)
			Expect(reason.Kind).To(Equal(generation.KindValidationError))
			Expect(reason.Message).To(Equal("unsupported video codec"))
		})

		It("finds the body embedded in a larger error string", func() {
			raw := errors.New(`provider returned status 422: {"detail": [{"msg": "video too long"}]}`)
			reason := classifier.Classify(raw)
			Expect(reason.Kind).To(Equal(generation.KindValidationError))
			Expect(reason.Message).To(Equal("video too long"))
		})

		It("degrades to a provider error when the detail array is empty", func() {
			raw := &provider.RequestError{StatusCode: 422, Body: `{"detail": []}`}
			reason := classifier.Classify(raw)
			Expect(reason.Kind).To(Equal(generation.KindProviderError))
		})
	})

	It("preserves the raw cause in the details", func() {
		raw := &provider.RequestError{StatusCode: 503, Body: "upstream overloaded"}
		reason := classifier.Classify(raw)
		Expect(reason.Details).To(ContainSubstring("upstream overloaded"))
	})
})
