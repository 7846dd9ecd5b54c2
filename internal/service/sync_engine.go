package service

import (
	"context"
	"sync"
	"time"

	"fatwabox/internal/errors"
	"fatwabox/internal/metrics"
	"fatwabox/internal/privacy"
	"fatwabox/internal/tracing"
	"fatwabox/pkg/questions"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

// SyncEngine drains the offline queue into the remote collection
// service. Records leave the queue only after the remote confirms the
// insert, so a crash mid-flush re-delivers instead of losing data.
type SyncEngine struct {
	store     QueueStore
	submitter questions.Submitter
	logger    *logrus.Logger
	errlog    *errors.Logger
	timeout   time.Duration
	sinks     []NotificationSink

	mu      sync.Mutex
	syncing bool
}

// NewSyncEngine creates a sync engine. timeout bounds each remote
// delivery attempt; sinks are notified with the recounted pending total
// after every flush pass.
func NewSyncEngine(store QueueStore, submitter questions.Submitter, logger *logrus.Logger, timeout time.Duration, sinks ...NotificationSink) *SyncEngine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SyncEngine{
		store:     store,
		submitter: submitter,
		logger:    logger,
		errlog:    &errors.Logger{Logger: logger},
		timeout:   timeout,
		sinks:     sinks,
	}
}

// IsSyncing reports whether a flush pass is currently running.
func (se *SyncEngine) IsSyncing() bool {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.syncing
}

// tryBeginSync flips the syncing flag, returning false when a flush is
// already in progress.
func (se *SyncEngine) tryBeginSync() bool {
	se.mu.Lock()
	defer se.mu.Unlock()
	if se.syncing {
		return false
	}
	se.syncing = true
	return true
}

func (se *SyncEngine) endSync() {
	se.mu.Lock()
	se.syncing = false
	se.mu.Unlock()
}

// Flush attempts to deliver every queued question, oldest first. It
// returns the number of records delivered. A failed record stays queued
// and does not block the records behind it. Overlapping calls collapse:
// if a flush is already running the call returns immediately.
func (se *SyncEngine) Flush(ctx context.Context) (int, error) {
	if !se.tryBeginSync() {
		se.logger.Debug("Flush already in progress, skipping")
		return 0, nil
	}
	defer se.endSync()

	start := time.Now()

	pending, err := se.store.GetAllPendingQuestions(ctx)
	if err != nil {
		return 0, err
	}

	if len(pending) == 0 {
		se.logger.Debug("No queued questions to deliver")
		return 0, nil
	}

	flushCtx, span := tracing.StartFlushSpan(ctx, len(pending))
	defer span.End()

	se.logger.WithField(LogFieldCount, len(pending)).Info("Starting queue flush")

	delivered := 0
	for i := range pending {
		q := &pending[i]

		select {
		case <-ctx.Done():
			se.logger.WithField(LogFieldCount, delivered).Info("Flush interrupted")
			tracing.SetSpanStatus(flushCtx, codes.Error, "flush interrupted")
			return delivered, ctx.Err()
		default:
		}

		if err := se.deliverOne(flushCtx, q.ID, q.Category, q.QuestionText); err != nil {
			se.errlog.LogRetryableError(err, "Failed to deliver queued question, keeping it", logrus.Fields{
				LogFieldQueueID: q.ID,
			})
			metrics.IncrementCounter("sync_results_total", map[string]string{"outcome": "failed"}, "Queue flush outcomes")
			continue
		}

		// Remote confirmed the insert, now the local copy can go.
		if err := se.store.DeletePendingQuestion(ctx, q.ID); err != nil {
			se.logger.WithError(err).WithField(LogFieldQueueID, q.ID).Error("Delivered question could not be removed from the queue")
			continue
		}

		delivered++
		metrics.IncrementCounter("sync_results_total", map[string]string{"outcome": "delivered"}, "Queue flush outcomes")
	}

	// Recount rather than subtract: submissions may have been queued
	// while the pass was running.
	remaining, err := se.store.CountPendingQuestions(ctx)
	if err != nil {
		se.logger.WithError(err).Warn("Could not recount the queue after flush")
		remaining = len(pending) - delivered
	}

	metrics.RecordTimer("queue_flush_duration", time.Since(start), nil, "Queue flush duration")
	metrics.SetGauge("pending_questions", float64(remaining), nil, "Records waiting in the queue")
	for _, sink := range se.sinks {
		sink.QueueChanged(remaining)
	}

	LogFlushResult(se.logger, delivered, remaining)
	return delivered, nil
}

func (se *SyncEngine) deliverOne(ctx context.Context, id, category, questionText string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, se.timeout)
	defer cancel()

	spanCtx, span := tracing.StartDeliverySpan(attemptCtx, privacy.MaskQueueID(id), category)
	defer span.End()

	start := time.Now()
	err := se.submitter.Submit(spanCtx, category, questionText)
	metrics.RecordTimer("remote_submit_duration", time.Since(start), nil, "Remote submission duration")
	if err != nil {
		tracing.RecordError(spanCtx, err)
	}
	return err
}
