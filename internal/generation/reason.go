package generation

import "encoding/json"

// Failure kinds. Everything a job can die of maps to exactly one of these so
// downstream consumers only ever branch on Kind.
const (
	KindValidationError = "validation_error"
	KindProviderError   = "provider_error"
	KindTimeout         = "timeout"
	KindStorageError    = "storage_error"
	KindMissingArtifact = "missing_artifact"
	KindTransportError  = "transport_error"
)

const (
	CodeGatewayInternalServerError = "GATEWAY_INTERNAL_SERVER_ERROR"
	CodeGenerationFailed           = "GENERATION_FAILED"
	CodeProviderError              = "PROVIDER_ERROR"
)

// FailureReason is the structured payload attached to a job on its terminal
// failed write. Details always keeps the raw cause, even when classification
// is imprecise.
type FailureReason struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	Code     string `json:"code,omitempty"`
	Details  string `json:"details,omitempty"`
}

func (r FailureReason) Marshal() []byte {
	data, err := json.Marshal(r)
	if err != nil {
		// FailureReason has no unmarshalable fields; keep the record write
		// going even if that ever changes.
		return []byte(`{"kind":"` + r.Kind + `"}`)
	}
	return data
}

func UnmarshalFailureReason(data []byte) (FailureReason, error) {
	var r FailureReason
	err := json.Unmarshal(data, &r)
	return r, err
}
