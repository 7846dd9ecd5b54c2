package models

// PendingQuestion represents a visitor question that has been accepted locally
// but not yet confirmed by the remote question collection. It is the only
// entity held in the durable queue.
type PendingQuestion struct {
	ID           string `json:"id"`
	Category     string `json:"category"`
	QuestionText string `json:"question_text"`
	Timestamp    int64  `json:"timestamp"`
}

// QuestionUpdate carries the fields a queued question may be edited with.
// Nil fields are left untouched by a merge.
type QuestionUpdate struct {
	Category     *string `json:"category,omitempty"`
	QuestionText *string `json:"question_text,omitempty"`
}

// SubmissionResult reports how a submission was recorded. Queued is true when
// the question was buffered locally instead of delivered to the remote
// collection; the caller-visible outcome is acceptance either way.
type SubmissionResult struct {
	ID     string `json:"id,omitempty"`
	Queued bool   `json:"queued"`
}

// QueueStatus is the read-only state surfaced to the UI banner.
type QueueStatus struct {
	Online       bool `json:"online"`
	Syncing      bool `json:"syncing"`
	PendingCount int  `json:"pending_count"`
}
