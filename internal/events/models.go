package events

// JobCompletedEvent is emitted once a generation job reaches the complete
// state. Downstream consumers (the mailer among them) pick it up from the
// event topic; delivery is best effort and never blocks orchestration.
type JobCompletedEvent struct {
	JobID         string  `json:"job_id"`
	UserID        string  `json:"user_id"`
	UserEmail     *string `json:"user_email,omitempty"`
	CharacterName *string `json:"character_name,omitempty"`
	ResultURL     string  `json:"result_url"`
}

// JobFailedEvent is emitted once a generation job reaches the failed state.
type JobFailedEvent struct {
	JobID         string  `json:"job_id"`
	UserID        string  `json:"user_id"`
	UserEmail     *string `json:"user_email,omitempty"`
	CharacterName *string `json:"character_name,omitempty"`
	Kind          string  `json:"kind"`
	Message       string  `json:"message"`
}
