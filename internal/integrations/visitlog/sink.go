// Package visitlog keeps an append-only ledger of scheduled visits for the
// back office, outside the relational store.
package visitlog

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "visits"

// Row is one ledger line.
type Row struct {
	AppointmentID  string    `bson:"appointment_id"`
	Doctor         string    `bson:"doctor"`
	LicenseCode    string    `bson:"license_code"`
	Specialty      string    `bson:"specialty"`
	Contact        string    `bson:"contact"`
	ScheduledAt    time.Time `bson:"scheduled_at"`
	ScheduledLocal string    `bson:"scheduled_local"`
	Status         string    `bson:"status"`
	Notes          string    `bson:"notes"`
	LoggedAt       time.Time `bson:"logged_at"`
}

// Sink appends rows to the ledger.
type Sink interface {
	Append(ctx context.Context, row Row) error
}

// Nop discards rows.
type Nop struct{}

func (Nop) Append(context.Context, Row) error { return nil }

// MongoSink appends rows to a MongoDB collection.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSink connects to uri and pings the server before returning.
func NewMongoSink(ctx context.Context, uri, database string) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoSink{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}, nil
}

func (s *MongoSink) Append(ctx context.Context, row Row) error {
	if row.LoggedAt.IsZero() {
		row.LoggedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, row); err != nil {
		return fmt.Errorf("append visit row: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
