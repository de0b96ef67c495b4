package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AnalyticsDbName     = "storefront"
	AnalyticsEventsCol  = "analytics_events"
	PageCountersColName = "page_counters"
)

const (
	EventSale           = "sale"
	EventBookingCreated = "booking_created"
	EventPageView       = "page_view"
)

type AnalyticsEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Event      string             `bson:"event" json:"event" validate:"required"`
	Path       string             `bson:"path" json:"path"`
	UserID     string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Metadata   map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	OccurredAt time.Time          `bson:"occurred_at" json:"occurred_at"`
}

type PageCounter struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Path      string             `bson:"path" json:"path"`
	Count     int64              `bson:"count" json:"count"`
	CreatedAt time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// AnalyticsRetention bounds how long raw events are kept.
const AnalyticsRetention = 365 * 24 * time.Hour

type AnalyticsRepo interface {
	RecordEvent(ctx context.Context, event *AnalyticsEvent) error
	IncrementPageView(ctx context.Context, path string) (*PageCounter, error)
	TopPages(ctx context.Context, limit int) ([]*PageCounter, error)
}

func (e *AnalyticsEvent) BeforeCreate() error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return nil
}

// NormalizePath keeps counter keys stable: leading slash, no query, no trailing slash.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// EnsureIndexes creates the counter and event indexes, including the
// retention TTL on raw events.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	counters, err := mdb.GetCollection(ctx, mdb.dbName, PageCountersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if _, err := counters.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "path", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("path_unique"),
		},
		{
			Keys:    bson.D{{Key: "count", Value: -1}},
			Options: options.Index().SetName("count_idx"),
		},
	}); err != nil {
		return fmt.Errorf("error creating counter indexes: %v", err)
	}

	events, err := mdb.GetCollection(ctx, mdb.dbName, AnalyticsEventsCol)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if _, err := events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "occurred_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(int32(AnalyticsRetention.Seconds())).
				SetName("occurred_at_ttl"),
		},
		{
			Keys: bson.D{
				{Key: "event", Value: 1},
				{Key: "occurred_at", Value: -1},
			},
			Options: options.Index().SetName("event_occurred_at_idx"),
		},
	}); err != nil {
		return fmt.Errorf("error creating event indexes: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) RecordEvent(ctx context.Context, event *AnalyticsEvent) error {
	col, err := mdb.GetCollection(ctx, mdb.dbName, AnalyticsEventsCol)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if err := event.BeforeCreate(); err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("error inserting analytics event: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) IncrementPageView(ctx context.Context, path string) (*PageCounter, error) {
	col, err := mdb.GetCollection(ctx, mdb.dbName, PageCountersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}
	now := time.Now().UTC()
	filter := bson.M{"path": path}

	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"path":       path,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result PageCounter
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		return nil, fmt.Errorf("error upserting page counter: %v", err)
	}
	return &result, nil
}

func (mdb *MongodbRepo) TopPages(ctx context.Context, limit int) ([]*PageCounter, error) {
	col, err := mdb.GetCollection(ctx, mdb.dbName, PageCountersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "count", Value: -1}}).SetLimit(int64(limit))
	cursor, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding page counters: %v", err)
	}
	defer cursor.Close(ctx)

	var counters []*PageCounter
	for cursor.Next(ctx) {
		var pc PageCounter
		if err := cursor.Decode(&pc); err != nil {
			return nil, fmt.Errorf("error decoding page counter: %v", err)
		}
		counters = append(counters, &pc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return counters, nil
}
