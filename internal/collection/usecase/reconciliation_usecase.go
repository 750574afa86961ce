package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/domain/repository"
	"collection-tracker/internal/collection/domain/service"
	apperrors "collection-tracker/internal/shared/errors"
	"collection-tracker/internal/shared/eventbus"
	"collection-tracker/internal/shared/utils"
)

// RebuildSetAggregate recomputes the set aggregate from the user's card
// records in the set. Collecting flags are kept from the stored aggregate.
// Card records are listed after the aggregate is read on every attempt, so a
// version conflict caused by a concurrent change is retried against that
// change's card write.
func (uc *CollectionUsecase) RebuildSetAggregate(ctx context.Context, userID, setID string) (*model.UserSetAggregateRecord, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(setID) == "" {
		return nil, apperrors.NewValidationError("userId and setId are required").WithComponent(componentName)
	}
	ctx = utils.WithOperation(utils.WithDocumentKeys(utils.WithUserID(ctx, userID), "", setID), "rebuild_set_aggregate")
	log := uc.logger.WithContext(ctx)

	cardCount := 0
	agg, err := uc.writeSetAggregate(ctx, userID, setID, func(current *model.UserSetAggregateRecord) (*model.UserSetAggregateRecord, error) {
		records, err := uc.cards.ListBySet(ctx, userID, setID)
		if err != nil {
			return nil, cardReadError(err)
		}
		records = uc.fillRarities(ctx, records)
		cardCount = len(records)

		next := service.BuildSetAggregate(userID, setID, records)
		next.Version = current.Version
		next.CollectingSubgroups = append([]model.SubgroupFlag{}, current.CollectingSubgroups...)
		next.Normalize()
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Set aggregate rebuilt", "cards", cardCount, "totalCards", agg.TotalCards, "uniqueCards", agg.UniqueCards)
	uc.publish(ctx, eventbus.EventTypeSetAggregateRebuilt, *agg)
	return agg, nil
}

// fillRarities resolves a missing rarity from the catalog so older records
// can still be bucketed.
func (uc *CollectionUsecase) fillRarities(ctx context.Context, records []*model.UserCardRecord) []*model.UserCardRecord {
	for _, rec := range records {
		if rec.Rarity.Valid() || uc.catalog == nil {
			continue
		}
		card, err := uc.catalog.GetCard(ctx, rec.CardID)
		if err != nil {
			uc.logger.WithContext(ctx).Warn("No rarity for card, left out of buckets", "cardId", rec.CardID, "error", err)
			continue
		}
		rec.Rarity = card.Rarity
	}
	return records
}

// ProcessReconciliations drains up to limit pending outbox records by
// rebuilding the aggregate each one refers to. It returns how many were
// resolved; records that fail stay pending for the next run.
func (uc *CollectionUsecase) ProcessReconciliations(ctx context.Context, limit int) (int, error) {
	pending, err := uc.outbox.ListPending(ctx, limit)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to list reconciliation records").WithCause(err).WithComponent(componentName)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	log := uc.logger.WithContext(utils.WithOperation(ctx, "process_reconciliations"))
	rebuilt := make(map[string]error)
	resolved := 0
	var errs []error
	for _, rec := range pending {
		key := model.SetAggregateID(rec.UserID, rec.SetID)
		rebuildErr, done := rebuilt[key]
		if !done {
			_, rebuildErr = uc.RebuildSetAggregate(ctx, rec.UserID, rec.SetID)
			rebuilt[key] = rebuildErr
		}
		if rebuildErr != nil {
			errs = append(errs, fmt.Errorf("reconciliation %s: %w", rec.ID, rebuildErr))
			continue
		}
		if err := uc.outbox.MarkResolved(ctx, rec.ID); err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
			errs = append(errs, fmt.Errorf("reconciliation %s: %w", rec.ID, err))
			continue
		}
		resolved++
	}

	log.Info("Reconciliation run finished", "pending", len(pending), "resolved", resolved, "failed", len(errs))
	return resolved, errors.Join(errs...)
}
