// Package mongostore implements transcript.Store backed by MongoDB, for
// hosts that need run transcripts to survive process restarts.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/zby/golem-forge-sub002/worker/hooks"
	"github.com/zby/golem-forge-sub002/worker/transcript"
)

const (
	defaultCollection = "worker_run_events"
	defaultTimeout    = 5 * time.Second
)

// Options configures Store.
type Options struct {
	Client     *mongodriver.Client
	Database   string
	Collection string
	Timeout    time.Duration
}

// Store implements transcript.Store by delegating to a MongoDB collection.
type Store struct {
	mongo   *mongodriver.Client
	coll    collection
	timeout time.Duration
}

type eventDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	WorkerID  string        `bson:"worker_id"`
	SessionID string        `bson:"session_id"`
	Depth     int           `bson:"depth"`
	Type      string        `bson:"type"`
	Payload   []byte        `bson:"payload"`
	Timestamp time.Time     `bson:"timestamp"`
}

// New returns a transcript.Store backed by the provided MongoDB client. It
// ensures the (worker_id, _id) index exists before returning.
func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongostore: client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("mongostore: database name is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	mcoll := opts.Client.Database(opts.Database).Collection(collName)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	wrapper := mongoCollection{coll: mcoll}
	if err := ensureIndexes(ctx, wrapper); err != nil {
		return nil, fmt.Errorf("mongostore: ensuring indexes: %w", err)
	}
	return &Store{mongo: opts.Client, coll: wrapper, timeout: timeout}, nil
}

// Ping reports whether the underlying MongoDB deployment is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.mongo.Ping(ctx, readpref.Primary())
}

// Append implements transcript.Store.
func (s *Store) Append(ctx context.Context, e *transcript.Event) error {
	if e == nil {
		return errors.New("mongostore: event is required")
	}
	if e.WorkerID == "" {
		return errors.New("mongostore: worker_id is required")
	}
	if e.Type == "" {
		return errors.New("mongostore: event type is required")
	}
	if e.Timestamp.IsZero() {
		return errors.New("mongostore: timestamp is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	doc := eventDocument{
		WorkerID:  e.WorkerID,
		SessionID: e.SessionID,
		Depth:     e.Depth,
		Type:      string(e.Type),
		Payload:   append([]byte(nil), e.Payload...),
		Timestamp: e.Timestamp.UTC(),
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return fmt.Errorf("mongostore: unexpected inserted id type %T", res.InsertedID)
	}
	e.ID = oid.Hex()
	return nil
}

// List implements transcript.Store.
func (s *Store) List(ctx context.Context, workerID string, cursor string, limit int) (page transcript.Page, err error) {
	if workerID == "" {
		return transcript.Page{}, errors.New("mongostore: worker_id is required")
	}
	if limit <= 0 {
		return transcript.Page{}, errors.New("mongostore: limit must be > 0")
	}

	filter := bson.M{"worker_id": workerID}
	if cursor != "" {
		oid, err := bson.ObjectIDFromHex(cursor)
		if err != nil {
			return transcript.Page{}, fmt.Errorf("mongostore: invalid cursor %q: %w", cursor, err)
		}
		filter["_id"] = bson.M{"$gt": oid}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit+1)),
	)
	if err != nil {
		return transcript.Page{}, err
	}
	defer func() {
		if cerr := cur.Close(ctx); err == nil && cerr != nil {
			err = cerr
		}
	}()

	var events []*transcript.Event
	for cur.Next(ctx) {
		var doc eventDocument
		if err := cur.Decode(&doc); err != nil {
			return transcript.Page{}, err
		}
		events = append(events, &transcript.Event{
			ID:        doc.ID.Hex(),
			WorkerID:  doc.WorkerID,
			SessionID: doc.SessionID,
			Depth:     doc.Depth,
			Type:      hooks.EventType(doc.Type),
			Payload:   append([]byte(nil), doc.Payload...),
			Timestamp: doc.Timestamp,
		})
	}
	if err := cur.Err(); err != nil {
		return transcript.Page{}, err
	}

	var next string
	if len(events) > limit {
		next = events[limit-1].ID
		events = events[:limit]
	}
	return transcript.Page{Events: events, NextCursor: next}, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func ensureIndexes(ctx context.Context, coll collection) error {
	index := mongodriver.IndexModel{
		Keys: bson.D{
			{Key: "worker_id", Value: 1},
			{Key: "_id", Value: 1},
		},
	}
	_, err := coll.Indexes().CreateOne(ctx, index)
	return err
}

// collection and its helper interfaces narrow the mongo-driver surface this
// package depends on, the way the teacher's runlog client does, so tests can
// substitute a fake without standing up a real MongoDB deployment.
type collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongodriver.InsertOneResult, error)
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (cursor, error)
	Indexes() indexView
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) (string, error)
}

type cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongodriver.InsertOneResult, error) {
	return c.coll.InsertOne(ctx, document, opts...)
}

func (c mongoCollection) Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (cursor, error) {
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

func (c mongoCollection) Indexes() indexView {
	return c.coll.Indexes()
}
