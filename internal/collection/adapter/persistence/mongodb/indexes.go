package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the secondary indexes the stores query by. Document
// keys are deterministic _id values and need no extra index.
func EnsureIndexes(ctx context.Context, cards, outbox CollectionInterface) error {
	if _, err := cards.CreateIndexes(ctx, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "setId", Value: 1}},
		Options: options.Index().SetName("user_set"),
	}}); err != nil {
		return fmt.Errorf("failed to create card record indexes: %w", err)
	}
	if _, err := outbox.CreateIndexes(ctx, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("status_created"),
	}}); err != nil {
		return fmt.Errorf("failed to create reconciliation indexes: %w", err)
	}
	return nil
}
