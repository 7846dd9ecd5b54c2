package service

import (
	"context"
	"time"

	"fatwabox/internal/errors"
	"fatwabox/internal/metrics"
	"fatwabox/internal/models"
	"fatwabox/internal/validation"
	"fatwabox/pkg/questions"

	"github.com/sirupsen/logrus"
)

// FrontDoor is the single entry point for question submissions. While
// the remote is reachable it delivers directly; otherwise, or when a
// direct delivery fails, the question lands in the queue. Either way
// the submitter walks away with a success.
type FrontDoor struct {
	queue         *QueueManager
	submitter     questions.Submitter
	connectivity  ConnectivityState
	logger        *logrus.Logger
	timeout       time.Duration
	contentFilter bool
}

// NewFrontDoor creates the submission front door. timeout bounds the
// direct delivery attempt before falling back to the queue.
func NewFrontDoor(queue *QueueManager, submitter questions.Submitter, connectivity ConnectivityState, logger *logrus.Logger, timeout time.Duration, contentFilter bool) *FrontDoor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FrontDoor{
		queue:         queue,
		submitter:     submitter,
		connectivity:  connectivity,
		logger:        logger,
		timeout:       timeout,
		contentFilter: contentFilter,
	}
}

// Submit validates, screens, and delivers or queues a question. The
// returned result reports whether the question was queued for later
// delivery, but both paths count as success for the caller.
func (fd *FrontDoor) Submit(ctx context.Context, req *validation.SubmitRequest) (*models.SubmissionResult, error) {
	category, text, err := validation.ValidateSubmitRequest(req)
	if err != nil {
		return nil, err
	}

	if fd.contentFilter {
		check := validation.CheckQuestionContent(text)
		switch check.Verdict {
		case validation.ContentReject:
			fd.logger.WithField("matched", check.Matched).Warn("Submission rejected by content filter")
			metrics.IncrementCounter("submissions_rejected_total", nil, "Submissions rejected by the content filter")
			return nil, errors.New(errors.ErrCodeContentRejected, "question rejected by content filter").
				WithUserMessage("Your question could not be accepted. Please rephrase it and try again.")
		case validation.ContentWarn:
			fd.logger.WithField("matched", check.Matched).Warn("Submission flagged by content filter")
		}
	}

	if fd.connectivity.IsOnline() {
		if err := fd.deliverDirect(ctx, category, text); err == nil {
			metrics.IncrementCounter("submissions_delivered_total", nil, "Submissions delivered directly")
			fd.logger.WithField(LogFieldCategory, category).Info("Question delivered")
			return &models.SubmissionResult{Queued: false}, nil
		} else {
			fd.logger.WithError(err).Warn("Direct delivery failed, queueing question")
		}
	}

	question, err := fd.queue.SaveForLater(ctx, category, text)
	if err != nil {
		return nil, err
	}

	return &models.SubmissionResult{ID: question.ID, Queued: true}, nil
}

func (fd *FrontDoor) deliverDirect(ctx context.Context, category, text string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, fd.timeout)
	defer cancel()
	return fd.submitter.Submit(attemptCtx, category, text)
}

// Status reports the queue state surfaced to clients.
func (fd *FrontDoor) Status(ctx context.Context, syncing bool) (*models.QueueStatus, error) {
	pending, err := fd.queue.PendingCount(ctx)
	if err != nil {
		return nil, err
	}

	return &models.QueueStatus{
		Online:       fd.connectivity.IsOnline(),
		Syncing:      syncing,
		PendingCount: pending,
	}, nil
}
