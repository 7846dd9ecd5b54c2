package service

import (
	"context"

	"fatwabox/internal/models"
)

// QueueStore is the durable storage used for questions awaiting delivery.
type QueueStore interface {
	SavePendingQuestion(ctx context.Context, q *models.PendingQuestion) error
	GetAllPendingQuestions(ctx context.Context) ([]models.PendingQuestion, error)
	UpdatePendingQuestion(ctx context.Context, id string, update models.QuestionUpdate) error
	DeletePendingQuestion(ctx context.Context, id string) error
	DeleteAllPendingQuestions(ctx context.Context) error
	CountPendingQuestions(ctx context.Context) (int, error)
}

// ConnectivityState reports the current view of remote reachability.
type ConnectivityState interface {
	IsOnline() bool
}
