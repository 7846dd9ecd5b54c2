package service

import (
	"context"

	"fatwabox/internal/privacy"

	"github.com/sirupsen/logrus"
)

// ContextKey is a package-local type to prevent context key collisions
type ContextKey string

// VerboseContextKey is the strongly-typed context key for verbose logging flag
const VerboseContextKey ContextKey = "verbose"

// IsVerboseLogging checks if verbose logging is enabled from context
func IsVerboseLogging(ctx context.Context) bool {
	if verbose, ok := ctx.Value(VerboseContextKey).(bool); ok {
		return verbose
	}
	return false
}

// LogWithContext creates a logger entry with optional sensitive information
func LogWithContext(ctx context.Context, logger *logrus.Logger) *logrus.Entry {
	return logger.WithField("verbose", IsVerboseLogging(ctx))
}

// LogQueuedQuestion logs a queued submission with appropriate privacy controls.
// Question text is never logged in full outside verbose mode.
func LogQueuedQuestion(ctx context.Context, logger *logrus.Logger, queueID, category, text string) {
	if IsVerboseLogging(ctx) {
		logger.WithFields(logrus.Fields{
			LogFieldQueueID:  queueID,
			LogFieldCategory: category,
			"text":           text,
		}).Info("Question saved for later")
		return
	}

	logger.WithFields(logrus.Fields{
		LogFieldQueueID:  privacy.MaskQueueID(queueID),
		LogFieldCategory: category,
		"text":           privacy.MaskQuestionText(text),
	}).Info("Question saved for later")
}

// LogFlushResult logs the outcome of a queue flush pass
func LogFlushResult(logger *logrus.Logger, delivered, remaining int) {
	if delivered > 0 {
		logger.WithFields(logrus.Fields{
			LogFieldCount:   delivered,
			LogFieldPending: remaining,
		}).Info("Delivered queued questions")
	} else {
		logger.WithField(LogFieldPending, remaining).Debug("No queued questions delivered")
	}
}
