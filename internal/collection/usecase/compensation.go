package usecase

import (
	"context"
	"errors"

	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/domain/repository"
	"collection-tracker/internal/collection/domain/service"
	apperrors "collection-tracker/internal/shared/errors"
	"collection-tracker/internal/shared/eventbus"
)

// compensate undoes the card write of cmd after the aggregate write failed
// with aggErr, and returns the error ApplyChange reports.
//
// The undo is the negated effective delta so a clamped removal is restored
// exactly, and the denormalised keys are put back to their pre-write values.
// A first add is undone to a record with zero copies; stores have no delete.
// The undo is retried on any failure and runs detached from the caller's
// cancellation. When it still cannot be applied a reconciliation record is
// appended to the outbox.
func (uc *CollectionUsecase) compensate(ctx context.Context, cmd model.CollectionChange, merge service.CardMerge, aggErr error) error {
	log := uc.logger.WithContext(ctx)
	ctx = context.WithoutCancel(ctx)

	if merge.EffectiveDelta == 0 {
		log.Warn("Set aggregate write failed, card record unchanged", "error", aggErr)
		return apperrors.NewPartialFailureError("set aggregate write failed", true).
			WithCause(aggErr).
			WithComponent(componentName)
	}

	undo := cmd.Negate(merge.EffectiveDelta)
	undo.Subgroup = nil

	attempts := 0
	err := retryAll(ctx, uc.retry, uc.retry.CompensationMaxRetries+1, func() error {
		attempts++
		current, err := uc.cards.Get(ctx, undo.UserID, undo.CardID)
		if errors.Is(err, repository.ErrRecordNotFound) {
			return errors.New("card record disappeared before compensation")
		}
		if err != nil {
			return err
		}
		next := service.MergeCardRecord(current, undo, nil, uc.now())
		service.RestoreKeys(next.Record, merge.Before)
		return uc.cards.Upsert(ctx, next.Record)
	})
	if err == nil {
		log.Warn("Set aggregate write failed, card record compensated", "error", aggErr, "compensatingDelta", undo.CountDelta, "attempts", attempts)
		return apperrors.NewPartialFailureError("set aggregate write failed", true).
			WithCause(aggErr).
			WithComponent(componentName)
	}

	rec := &model.ReconciliationRecord{
		ID:        uc.newID(),
		UserID:    cmd.UserID,
		CardID:    cmd.CardID,
		SetID:     cmd.SetID,
		Change:    undo,
		Reason:    aggErr.Error() + "; compensation: " + err.Error(),
		Status:    model.ReconciliationPending,
		Attempts:  attempts,
		CreatedAt: uc.now(),
	}
	uc.publish(ctx, eventbus.EventTypeCompensationFailed, *rec)

	partial := apperrors.NewPartialFailureError("set aggregate write failed", false).
		WithCause(aggErr).
		WithComponent(componentName)
	if appendErr := uc.outbox.Append(ctx, rec); appendErr != nil {
		log.Error("Reconciliation record could not be stored, card and set aggregate diverge",
			"error", appendErr, "compensationError", err, "aggregateError", aggErr, "compensatingDelta", undo.CountDelta)
		return partial
	}
	log.Error("Compensation failed, reconciliation queued",
		"error", err, "aggregateError", aggErr, "reconciliationId", rec.ID, "attempts", attempts)
	return partial.WithDetail("reconciliation_id", rec.ID)
}
