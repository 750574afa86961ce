package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"collection-tracker/internal/collection/config"
	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/domain/repository"
	"collection-tracker/internal/collection/domain/service"
	apperrors "collection-tracker/internal/shared/errors"
	"collection-tracker/internal/shared/eventbus"
	"collection-tracker/internal/shared/logger"
	"collection-tracker/internal/shared/utils"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

const (
	componentName = "collection_usecase"
	eventSource   = "collection"
)

// CollectionUsecaseInterface defines the contract for collection operations
type CollectionUsecaseInterface interface {
	// Change operations
	ApplyChange(ctx context.Context, cmd model.CollectionChange) (*model.CardResult, error)
	SetSubgroupCollecting(ctx context.Context, userID, setID string, toggle model.SubgroupToggle) (*model.UserSetAggregateRecord, error)

	// Read operations
	GetCardRecord(ctx context.Context, userID, cardID string) (*model.UserCardRecord, error)
	GetSetAggregate(ctx context.Context, userID, setID string) (*model.UserSetAggregateRecord, error)

	// Repair operations
	RebuildSetAggregate(ctx context.Context, userID, setID string) (*model.UserSetAggregateRecord, error)
	ProcessReconciliations(ctx context.Context, limit int) (int, error)
}

// Dependencies groups the ports the usecase is built from. Catalog and Events
// are optional.
type Dependencies struct {
	Cards   repository.CardRecordStore
	Sets    repository.SetAggregateStore
	Outbox  repository.ReconciliationOutbox
	Catalog repository.CatalogReader
	Events  eventbus.EventBusInterface
	Logger  logger.Logger
	Retry   config.RetryConfig

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// CollectionUsecase orchestrates the two-document write of a collection
// change: the user-card record first, then the user-set aggregate, undoing the
// card write when the aggregate write fails.
type CollectionUsecase struct {
	cards   repository.CardRecordStore
	sets    repository.SetAggregateStore
	outbox  repository.ReconciliationOutbox
	catalog repository.CatalogReader
	events  eventbus.EventBusInterface
	logger  logger.Logger
	retry   config.RetryConfig
	now     func() time.Time
	newID   func() string
}

// NewCollectionUsecase creates a new CollectionUsecase
func NewCollectionUsecase(deps Dependencies) *CollectionUsecase {
	log := deps.Logger
	if log == nil {
		log = logger.NewLogger()
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	newID := deps.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &CollectionUsecase{
		cards:   deps.Cards,
		sets:    deps.Sets,
		outbox:  deps.Outbox,
		catalog: deps.Catalog,
		events:  deps.Events,
		logger:  log.WithComponent(componentName),
		retry:   deps.Retry,
		now:     now,
		newID:   newID,
	}
}

var _ CollectionUsecaseInterface = (*CollectionUsecase)(nil)

// ApplyChange records that the user gained or lost copies of a card variant.
//
// The card record is written first. If the set aggregate cannot be written
// afterwards the card record is compensated with the negated effective delta
// and the aggregate failure is returned. A compensation that cannot be applied
// is parked in the reconciliation outbox.
func (uc *CollectionUsecase) ApplyChange(ctx context.Context, cmd model.CollectionChange) (*model.CardResult, error) {
	cmd.Normalize()
	if appErr := cmd.Validate(); appErr != nil {
		return nil, appErr.WithComponent(componentName)
	}

	ctx = utils.WithOperation(utils.WithDocumentKeys(utils.WithUserID(ctx, cmd.UserID), cmd.CardID, cmd.SetID), "apply_change")
	log := uc.logger.WithContext(ctx)
	log.Debug("Applying collection change", "finish", string(cmd.Finish), "special", string(cmd.Special), "countDelta", cmd.CountDelta)

	if cmd.CountDelta == 0 {
		return uc.applySubgroupOnly(ctx, cmd)
	}

	catalogCard, err := uc.lookupCatalog(ctx, cmd.CardID)
	if err != nil {
		return nil, err
	}

	merge, err := uc.writeCard(ctx, cmd, catalogCard)
	if err != nil {
		log.Warn("Card write failed", "error", err)
		return nil, err
	}
	if merge.Record.Rarity != cmd.Rarity {
		log.Warn("Command rarity differs from the card's, using the card's", "requested", string(cmd.Rarity), "rarity", string(merge.Record.Rarity))
	}

	agg, err := uc.writeSetAggregate(ctx, cmd.UserID, cmd.SetID, func(current *model.UserSetAggregateRecord) (*model.UserSetAggregateRecord, error) {
		next := service.ApplyMembership(current, membershipChange(cmd, merge))
		return service.ApplySubgroupToggle(next, cmd.Subgroup), nil
	})
	if err != nil {
		return nil, uc.compensate(ctx, cmd, merge, err)
	}

	log.Info("Collection change applied", "effectiveDelta", merge.EffectiveDelta, "cardVersion", merge.Record.Version, "setVersion", agg.Version)
	uc.publish(ctx, eventbus.EventTypeCardChanged, model.CardChangedEvent{
		UserID:      cmd.UserID,
		CardID:      cmd.CardID,
		SetID:       cmd.SetID,
		Finish:      cmd.Finish,
		Special:     cmd.Special,
		CountDelta:  merge.EffectiveDelta,
		NewCount:    merge.Record.CountFor(cmd.Finish, cmd.Special),
		TotalCards:  agg.TotalCards,
		UniqueCards: agg.UniqueCards,
		OccurredAt:  uc.now(),
	})
	return merge.Record.ToResult(), nil
}

// applySubgroupOnly handles a command that carries a subgroup toggle and no
// copy change. The card record is left untouched.
func (uc *CollectionUsecase) applySubgroupOnly(ctx context.Context, cmd model.CollectionChange) (*model.CardResult, error) {
	if _, err := uc.SetSubgroupCollecting(ctx, cmd.UserID, cmd.SetID, *cmd.Subgroup); err != nil {
		return nil, err
	}
	current, err := uc.cards.Get(ctx, cmd.UserID, cmd.CardID)
	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		return model.NewCardRecord(cmd.UserID, cmd.CardID, cmd.SetID).ToResult(), nil
	case err != nil:
		return nil, cardReadError(err)
	}
	return current.ToResult(), nil
}

// SetSubgroupCollecting flips the collecting flag of one subgroup of a set.
func (uc *CollectionUsecase) SetSubgroupCollecting(ctx context.Context, userID, setID string, toggle model.SubgroupToggle) (*model.UserSetAggregateRecord, error) {
	toggle.SubgroupID = strings.TrimSpace(toggle.SubgroupID)
	ve := apperrors.NewValidationErrors()
	if strings.TrimSpace(userID) == "" {
		ve.Add("userId", "userId is required", userID)
	}
	if strings.TrimSpace(setID) == "" {
		ve.Add("setId", "setId is required", setID)
	}
	if toggle.SubgroupID == "" {
		ve.Add("subgroupId", "subgroupId is required", toggle.SubgroupID)
	}
	if toggle.Count < 0 {
		ve.Add("count", "count must not be negative", toggle.Count)
	}
	if appErr := ve.ToAppError(); appErr != nil {
		return nil, appErr.WithComponent(componentName)
	}

	ctx = utils.WithOperation(utils.WithDocumentKeys(utils.WithUserID(ctx, userID), "", setID), "set_subgroup_collecting")
	agg, err := uc.writeSetAggregate(ctx, userID, setID, func(current *model.UserSetAggregateRecord) (*model.UserSetAggregateRecord, error) {
		return service.ApplySubgroupToggle(current, &toggle), nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.WithContext(ctx).Info("Subgroup collecting flag set", "subgroupId", toggle.SubgroupID, "collecting", toggle.Collecting)
	uc.publish(ctx, eventbus.EventTypeSubgroupToggled, toggle)
	return agg, nil
}

// GetCardRecord returns the stored card record for (userID, cardID).
func (uc *CollectionUsecase) GetCardRecord(ctx context.Context, userID, cardID string) (*model.UserCardRecord, error) {
	rec, err := uc.cards.Get(ctx, userID, cardID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("card record").WithCause(apperrors.ErrNotFound).WithComponent(componentName)
	}
	if err != nil {
		return nil, cardReadError(err)
	}
	return rec, nil
}

// GetSetAggregate returns the aggregate for (userID, setID); a set the user
// never touched yields the zero aggregate.
func (uc *CollectionUsecase) GetSetAggregate(ctx context.Context, userID, setID string) (*model.UserSetAggregateRecord, error) {
	agg, err := uc.sets.Get(ctx, userID, setID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read set aggregate").
			WithCode(apperrors.CodeSetAggregateReadFailed).
			WithCause(err).
			WithComponent(componentName)
	}
	return agg, nil
}

func (uc *CollectionUsecase) lookupCatalog(ctx context.Context, cardID string) (*model.CatalogCard, error) {
	if uc.catalog == nil {
		return nil, nil
	}
	card, err := uc.catalog.GetCard(ctx, cardID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		uc.logger.WithContext(ctx).Debug("Card missing from catalog, keeping stored keys", "cardId", cardID)
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read card catalog").
			WithCode(apperrors.CodeCatalogReadFailed).
			WithCause(err).
			WithComponent(componentName)
	}
	return card, nil
}

// writeCard runs the read-merge-write cycle of the card record, re-reading on
// version conflicts.
func (uc *CollectionUsecase) writeCard(ctx context.Context, cmd model.CollectionChange, catalogCard *model.CatalogCard) (service.CardMerge, error) {
	merge, err := retryOnConflict(ctx, uc.retry, uc.logger.WithContext(ctx), "card record", func() (service.CardMerge, error) {
		current, err := uc.cards.Get(ctx, cmd.UserID, cmd.CardID)
		if errors.Is(err, repository.ErrRecordNotFound) {
			current = nil
		} else if err != nil {
			return service.CardMerge{}, backoff.Permanent(cardReadError(err))
		}

		merge := service.MergeCardRecord(current, cmd, catalogCard, uc.now())
		if err := uc.cards.Upsert(ctx, merge.Record); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return service.CardMerge{}, err
			}
			return service.CardMerge{}, backoff.Permanent(cardWriteError(err))
		}
		return merge, nil
	})
	if errors.Is(err, repository.ErrVersionConflict) {
		return service.CardMerge{}, conflictError("card record", err)
	}
	return merge, err
}

// writeSetAggregate runs the read-modify-write cycle of the set aggregate.
// Conflict exhaustion and storage failures are both returned; the caller
// decides whether they need compensation. apply runs once per attempt against
// the freshly read aggregate; an error from it ends the cycle.
func (uc *CollectionUsecase) writeSetAggregate(ctx context.Context, userID, setID string, apply func(*model.UserSetAggregateRecord) (*model.UserSetAggregateRecord, error)) (*model.UserSetAggregateRecord, error) {
	agg, err := retryOnConflict(ctx, uc.retry, uc.logger.WithContext(ctx), "set aggregate", func() (*model.UserSetAggregateRecord, error) {
		current, err := uc.sets.Get(ctx, userID, setID)
		if err != nil {
			return nil, backoff.Permanent(apperrors.NewStorageError("failed to read set aggregate").
				WithCode(apperrors.CodeSetAggregateReadFailed).
				WithCause(err).
				WithComponent(componentName))
		}

		next, err := apply(current)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		next.UpdatedAt = uc.now()
		if err := uc.sets.Upsert(ctx, next); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return nil, err
			}
			return nil, backoff.Permanent(apperrors.NewStorageError("failed to write set aggregate").
				WithCode(apperrors.CodeSetAggregateWriteFailed).
				WithCause(err).
				WithComponent(componentName))
		}
		return next, nil
	})
	if errors.Is(err, repository.ErrVersionConflict) {
		return nil, conflictError("set aggregate", err)
	}
	return agg, err
}

func (uc *CollectionUsecase) publish(ctx context.Context, eventType string, data interface{}) {
	if uc.events == nil {
		return
	}
	uc.events.PublishAndForget(context.WithoutCancel(ctx), eventbus.NewEvent(eventType, eventSource, data))
}

func membershipChange(cmd model.CollectionChange, merge service.CardMerge) service.MembershipChange {
	return service.MembershipChange{
		CardID:     cmd.CardID,
		Rarity:     merge.Record.Rarity,
		Finish:     cmd.Finish,
		CountDelta: merge.EffectiveDelta,
		OwnedAfter: merge.FinishCountAfter,
	}
}

func cardReadError(err error) *apperrors.AppError {
	return apperrors.NewStorageError("failed to read card record").
		WithCode(apperrors.CodeCardReadFailed).
		WithCause(err).
		WithComponent(componentName)
}

func cardWriteError(err error) *apperrors.AppError {
	return apperrors.NewStorageError("failed to write card record").
		WithCode(apperrors.CodeCardWriteFailed).
		WithCause(err).
		WithComponent(componentName)
}

func conflictError(what string, err error) *apperrors.AppError {
	return apperrors.NewConflictError(what + " was modified concurrently, retries exhausted").
		WithCode(apperrors.CodeVersionConflict).
		WithCause(err).
		WithComponent(componentName)
}
