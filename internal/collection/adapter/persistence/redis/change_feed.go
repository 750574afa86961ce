package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/domain/repository"
	"collection-tracker/internal/shared/eventbus"
	"collection-tracker/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

// StreamWriter is the part of the Redis client the change feed needs.
// *redis.Client satisfies it.
type StreamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// ChangeFeed appends committed collection changes to a capped Redis stream so
// other services can tail collection activity.
type ChangeFeed struct {
	client StreamWriter
	stream string
	maxLen int64
	logger logger.Logger
}

// NewChangeFeed creates a change feed writing to stream. maxLen <= 0 leaves
// the stream uncapped.
func NewChangeFeed(client StreamWriter, stream string, maxLen int64, log logger.Logger) *ChangeFeed {
	return &ChangeFeed{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: log.WithComponent("change_feed"),
	}
}

// Publish appends event to the stream
func (f *ChangeFeed) Publish(ctx context.Context, event model.CardChangedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: f.stream,
		Values: map[string]interface{}{
			"type":       eventbus.EventTypeCardChanged,
			"userId":     event.UserID,
			"setId":      event.SetID,
			"cardId":     event.CardID,
			"countDelta": event.CountDelta,
			"occurredAt": event.OccurredAt.UnixNano(),
			"data":       payload,
		},
	}
	if f.maxLen > 0 {
		args.MaxLen = f.maxLen
		args.Approx = true
	}

	id, err := f.client.XAdd(ctx, args).Result()
	if err != nil {
		f.logger.Error("Failed to append change event", "stream", f.stream, "userId", event.UserID, "cardId", event.CardID, "error", err)
		return err
	}

	f.logger.Debug("Change event appended", "stream", f.stream, "entryId", id)
	return nil
}

// Handle is an eventbus.Handler forwarding card-changed events to the stream
func (f *ChangeFeed) Handle(ctx context.Context, event eventbus.Event) error {
	change, ok := event.Data().(model.CardChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Data(), event.Type())
	}
	return f.Publish(ctx, change)
}

// Subscribe registers the feed on bus for card-changed events
func (f *ChangeFeed) Subscribe(bus eventbus.EventBusInterface) {
	bus.Subscribe(eventbus.EventTypeCardChanged, f.Handle)
}

var _ repository.ChangeFeed = (*ChangeFeed)(nil)
