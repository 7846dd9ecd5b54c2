package questions

import (
	"context"
	"time"

	"fatwabox/internal/constants"
	"fatwabox/internal/errors"
	"fatwabox/pkg/circuitbreaker"

	"github.com/sirupsen/logrus"
)

// GuardedSubmitter wraps a Submitter with a circuit breaker so a
// flapping remote is failed fast instead of burning a full timeout per
// queued record. A fast-failed submission surfaces as a retryable error,
// so the record stays queued exactly as if the remote had refused it.
//
// Ping is deliberately not guarded: the connectivity probe is how the
// service notices the remote recovering, and it must keep reaching out
// while the breaker is open.
type GuardedSubmitter struct {
	inner   Submitter
	breaker *circuitbreaker.Breaker
}

// NewGuardedSubmitter guards inner with a fresh breaker.
func NewGuardedSubmitter(inner Submitter, logger *logrus.Logger) *GuardedSubmitter {
	return &GuardedSubmitter{
		inner: inner,
		breaker: circuitbreaker.New(
			"remote-submit",
			constants.DefaultBreakerMaxFailures,
			time.Duration(constants.DefaultBreakerCooldownSec)*time.Second,
			logger,
		),
	}
}

func (g *GuardedSubmitter) Submit(ctx context.Context, category, questionText string) error {
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		return g.inner.Submit(ctx, category, questionText)
	})
	if circuitbreaker.IsOpenError(err) {
		return errors.WrapRetryable(err, errors.ErrCodeRemoteAPI, "remote submissions suspended after repeated failures")
	}
	return err
}

func (g *GuardedSubmitter) Ping(ctx context.Context) error {
	return g.inner.Ping(ctx)
}
