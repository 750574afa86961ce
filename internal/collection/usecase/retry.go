package usecase

import (
	"context"
	"errors"
	"time"

	"collection-tracker/internal/collection/config"
	"collection-tracker/internal/collection/domain/repository"
	"collection-tracker/internal/shared/logger"

	"github.com/cenkalti/backoff/v5"
)

func newBackOff(cfg config.RetryConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}
	return b
}

// retryOnConflict re-runs op while it reports repository.ErrVersionConflict,
// up to cfg.ConflictMaxRetries extra attempts. op marks other failures with
// backoff.Permanent so they end the loop at once.
func retryOnConflict[T any](ctx context.Context, cfg config.RetryConfig, log logger.Logger, target string, op backoff.Operation[T]) (T, error) {
	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(newBackOff(cfg)),
		backoff.WithMaxTries(cfg.ConflictMaxRetries+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if errors.Is(err, repository.ErrVersionConflict) {
				log.Debug("Version conflict, re-reading", "target", target, "wait", wait.String())
			}
		}),
	)
	return res, unwrapPermanent(err)
}

// retryAll re-runs op on any failure, up to attempts tries in total.
func retryAll(ctx context.Context, cfg config.RetryConfig, attempts uint, op func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	},
		backoff.WithBackOff(newBackOff(cfg)),
		backoff.WithMaxTries(attempts),
	)
	return unwrapPermanent(err)
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	return err
}
