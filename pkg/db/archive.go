package db

import (
	"context"
	"fmt"

	"github.com/scalarorg/lending-bridge/pkg/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const EVENT_ARCHIVE_COLLECTION = "bridge_events"

// EventArchive copies envelopes into a MongoDB collection.
type EventArchive struct {
	collection *mongo.Collection
}

// EventArchive returns nil when MongoDB is not configured.
func (db *DatabaseAdapter) EventArchive() *EventArchive {
	if db.MongoDatabase == nil {
		return nil
	}
	return NewEventArchive(db.MongoDatabase)
}

func NewEventArchive(database *mongo.Database) *EventArchive {
	return &EventArchive{collection: database.Collection(EVENT_ARCHIVE_COLLECTION)}
}

func (a *EventArchive) Name() string {
	return "mongo-event-archive"
}

func (a *EventArchive) Handle(ctx context.Context, envelope *types.EventEnvelope) error {
	doc := bson.M{
		"_id":        envelope.ID.String(),
		"name":       envelope.Name,
		"component":  envelope.Component,
		"emitted_at": envelope.EmittedAt,
		"data":       envelope.Data,
	}
	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to archive event %s: %w", envelope.ID, err)
	}
	return nil
}
