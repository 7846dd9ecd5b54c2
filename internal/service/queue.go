package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fatwabox/internal/errors"
	"fatwabox/internal/metrics"
	"fatwabox/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const queueIDPrefix = "offline"

// QueueManager owns the pending question queue. All mutations of the
// durable store go through it so notification sinks stay consistent.
type QueueManager struct {
	store  QueueStore
	logger *logrus.Logger
	sinks  []NotificationSink
}

// NewQueueManager creates a queue manager on top of the given store.
func NewQueueManager(store QueueStore, logger *logrus.Logger, sinks ...NotificationSink) *QueueManager {
	return &QueueManager{
		store:  store,
		logger: logger,
		sinks:  sinks,
	}
}

// newQueueID builds an identifier of the form offline-<unix-ms>-<random>.
// The random fragment keeps IDs unique when two submissions land in the
// same millisecond.
func newQueueID(now time.Time) string {
	fragment := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s-%d-%s", queueIDPrefix, now.UnixMilli(), fragment)
}

// SaveForLater persists a question in the local queue and returns the
// stored record.
func (qm *QueueManager) SaveForLater(ctx context.Context, category, questionText string) (*models.PendingQuestion, error) {
	now := time.Now()
	question := &models.PendingQuestion{
		ID:           newQueueID(now),
		Category:     category,
		QuestionText: questionText,
		Timestamp:    now.UnixMilli(),
	}

	err := qm.store.SavePendingQuestion(ctx, question)
	if errors.HasCode(err, errors.ErrCodeDuplicateID) {
		// Millisecond collision with an identical random fragment.
		// One regeneration is enough.
		question.ID = newQueueID(now)
		err = qm.store.SavePendingQuestion(ctx, question)
	}
	if err != nil {
		return nil, err
	}

	LogQueuedQuestion(ctx, qm.logger, question.ID, question.Category, question.QuestionText)
	metrics.IncrementCounter("questions_queued_total", nil, "Questions saved to the offline queue")

	qm.notifyQueueChanged(ctx)
	return question, nil
}

// ListPending returns all queued questions, oldest first.
func (qm *QueueManager) ListPending(ctx context.Context) ([]models.PendingQuestion, error) {
	return qm.store.GetAllPendingQuestions(ctx)
}

// Edit updates the text and/or category of a queued question.
func (qm *QueueManager) Edit(ctx context.Context, id string, update models.QuestionUpdate) error {
	if err := qm.store.UpdatePendingQuestion(ctx, id, update); err != nil {
		return err
	}

	qm.logger.WithField(LogFieldQueueID, id).Info("Queued question updated")
	return nil
}

// Remove deletes a queued question. Removing an ID that is no longer
// queued is not an error.
func (qm *QueueManager) Remove(ctx context.Context, id string) error {
	if err := qm.store.DeletePendingQuestion(ctx, id); err != nil {
		return err
	}

	qm.logger.WithField(LogFieldQueueID, id).Info("Queued question removed")
	qm.notifyQueueChanged(ctx)
	return nil
}

// RemoveAll clears the queue.
func (qm *QueueManager) RemoveAll(ctx context.Context) error {
	if err := qm.store.DeleteAllPendingQuestions(ctx); err != nil {
		return err
	}

	qm.logger.Info("Queue cleared")
	qm.notifyQueueChanged(ctx)
	return nil
}

// PendingCount returns the number of queued questions.
func (qm *QueueManager) PendingCount(ctx context.Context) (int, error) {
	return qm.store.CountPendingQuestions(ctx)
}

func (qm *QueueManager) notifyQueueChanged(ctx context.Context) {
	pending, err := qm.store.CountPendingQuestions(ctx)
	if err != nil {
		qm.logger.WithError(err).Warn("Failed to count pending questions")
		return
	}

	metrics.SetGauge("pending_questions", float64(pending), nil, "Records waiting in the queue")

	for _, sink := range qm.sinks {
		sink.QueueChanged(pending)
	}
}
