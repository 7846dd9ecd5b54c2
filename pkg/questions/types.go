package questions

import "context"

// Submitter delivers questions to the remote collection service.
type Submitter interface {
	// Submit delivers a single question. A nil error means the remote
	// service confirmed the insert.
	Submit(ctx context.Context, category, questionText string) error
	// Ping checks whether the remote service is reachable.
	Ping(ctx context.Context) error
}

// submitPayload is the JSON body posted to the remote table.
type submitPayload struct {
	Category     string `json:"category"`
	QuestionText string `json:"question_text"`
}
