package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/pkg/logger"
)

const eventsCollection = "events"

// MongoCatalog stores events in a MongoDB collection.
type MongoCatalog struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        logger.Logger
}

// NewMongoCatalog connects to uri and pings the primary before returning.
func NewMongoCatalog(ctx context.Context, uri, database string) (*MongoCatalog, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log := logger.Named("mongo_catalog")
	log.Info(ctx, "connected to MongoDB", logger.String("database", database))
	return &MongoCatalog{
		client:     client,
		collection: client.Database(database).Collection(eventsCollection),
		log:        log,
	}, nil
}

// EnsureSeed inserts events whose id does not exist yet.
func (c *MongoCatalog) EnsureSeed(ctx context.Context, events []model.Event) error {
	for _, e := range events {
		raw, err := bson.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode event %s: %w", e.ID, err)
		}
		var fields bson.M
		if err := bson.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("failed to encode event %s: %w", e.ID, err)
		}
		delete(fields, "_id") // taken from the filter on upsert

		opts := options.Update().SetUpsert(true)
		res, err := c.collection.UpdateOne(ctx, bson.M{"_id": e.ID}, bson.M{"$setOnInsert": fields}, opts)
		if err != nil {
			return fmt.Errorf("failed to seed event %s: %w", e.ID, err)
		}
		if res.UpsertedID != nil {
			c.log.Info(ctx, "seeded event", logger.String("event_id", e.ID))
		}
	}
	return nil
}

func (c *MongoCatalog) Get(ctx context.Context, id string) (model.Event, error) {
	var e model.Event
	err := c.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return e, nil
}

func (c *MongoCatalog) List(ctx context.Context, category string) ([]model.Event, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := c.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	events := make([]model.Event, 0)
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

func (c *MongoCatalog) Create(ctx context.Context, event model.Event) error {
	if _, err := c.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert event %s: %w", event.ID, err)
	}
	return nil
}

// Disconnect closes the MongoDB client connection.
func (c *MongoCatalog) Disconnect(ctx context.Context) error {
	c.log.Info(ctx, "disconnecting from MongoDB")
	return c.client.Disconnect(ctx)
}
