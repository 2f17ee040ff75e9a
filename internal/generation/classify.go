package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/reelmint/reelmint/internal/provider"
)

// Classifier maps raw provider and transport errors onto the failure
// taxonomy. The provider's error bodies are not strongly typed, so the rules
// are substring and shape matches; everything unrecognized degrades to a
// generic provider error with the raw text preserved.
type Classifier struct {
	ProviderName string
	Model        string
}

func NewClassifier(providerName, model string) *Classifier {
	return &Classifier{ProviderName: providerName, Model: model}
}

// validationDetail is the provider's structured rejection shape:
// {"detail": [{"msg": "..."}]} or {"detail": [{"message": "..."}]}.
type validationDetail struct {
	Detail []struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	} `json:"detail"`
}

// Classify never panics and never discards the raw cause.
func (c *Classifier) Classify(raw error) (reason FailureReason) {
	defer func() {
		if r := recover(); r != nil {
			reason = c.generic(fmt.Sprint(raw))
		}
	}()

	if raw == nil {
		return c.generic("unknown error")
	}

	detail := errText(raw)

	if errors.Is(raw, ErrPollDeadline) {
		return FailureReason{
			Kind:     KindTimeout,
			Message:  "generation timed out, no response from provider",
			Provider: c.ProviderName,
			Model:    c.Model,
			Details:  detail,
		}
	}

	if errors.Is(raw, provider.ErrMissingArtifact) {
		return FailureReason{
			Kind:     KindMissingArtifact,
			Message:  "provider reported success but returned no video",
			Provider: c.ProviderName,
			Model:    c.Model,
			Details:  detail,
		}
	}

	var reqErr *provider.RequestError
	if errors.As(raw, &reqErr) {
		return c.classifyBody(reqErr.Body, detail)
	}

	var urlErr *url.Error
	if errors.As(raw, &urlErr) || errors.Is(raw, context.DeadlineExceeded) {
		return FailureReason{
			Kind:     KindTransportError,
			Message:  "network failure talking to provider",
			Provider: c.ProviderName,
			Model:    c.Model,
			Details:  detail,
		}
	}

	// raw errors with no typed shape still get the substring rules
	return c.classifyBody(detail, detail)
}

func (c *Classifier) classifyBody(body, detail string) FailureReason {
	if strings.Contains(body, CodeGatewayInternalServerError) {
		return FailureReason{
			Kind:     KindProviderError,
			Message:  "provider gateway internal error",
			Provider: c.ProviderName,
			Model:    c.Model,
			Code:     CodeGatewayInternalServerError,
			Details:  detail,
		}
	}

	if msg, ok := extractValidationMessage(body); ok {
		return FailureReason{
			Kind:     KindValidationError,
			Message:  msg,
			Provider: c.ProviderName,
			Model:    c.Model,
			Details:  detail,
		}
	}

	return c.generic(detail)
}

func (c *Classifier) generic(detail string) FailureReason {
	return FailureReason{
		Kind:     KindProviderError,
		Message:  "generation failed",
		Provider: c.ProviderName,
		Model:    c.Model,
		Code:     CodeProviderError,
		Details:  detail,
	}
}

// extractValidationMessage digs a human readable message out of the
// provider's validation detail array. The body may be embedded in a larger
// error string, so parsing starts at the first brace.
func extractValidationMessage(body string) (string, bool) {
	idx := strings.IndexByte(body, '{')
	if idx < 0 {
		return "", false
	}

	var parsed validationDetail
	if err := json.Unmarshal([]byte(body[idx:]), &parsed); err != nil {
		return "", false
	}
	if len(parsed.Detail) == 0 {
		return "", false
	}

	first := parsed.Detail[0]
	if first.Msg != "" {
		return first.Msg, true
	}
	if first.Message != "" {
		return first.Message, true
	}
	return "", false
}

func errText(err error) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprint(err)
		}
	}()
	return err.Error()
}
