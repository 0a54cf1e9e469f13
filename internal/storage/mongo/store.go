package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"meiras_yachting/internal/adapters/observability"
	"meiras_yachting/internal/domain"
)

const backend = "mongo"

// Connect opens a client and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return c, nil
}

// Store keeps one collection per kind: yachts and brokerage.
type Store struct{ db *mongo.Database }

func New(db *mongo.Database) *Store { return &Store{db: db} }

func (s *Store) coll(k domain.Kind) *mongo.Collection { return s.db.Collection(k.Collection()) }

// idFilter matches driver generated ObjectIDs and plain string ids alike.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}

func (s *Store) Create(ctx context.Context, kind domain.Kind, rec domain.Record) (out domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "create", err, time.Since(start)) }(time.Now())

	rec = rec.ForKind(kind)
	rec.ID = ""
	if err := rec.Validate(kind); err != nil {
		return domain.Record{}, err
	}
	res, err := s.coll(kind).InsertOne(ctx, rec)
	if err != nil {
		return domain.Record{}, err
	}
	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		rec.ID = id.Hex()
	case string:
		rec.ID = id
	default:
		rec.ID = fmt.Sprint(id)
	}
	return rec, nil
}

func (s *Store) GetByID(ctx context.Context, kind domain.Kind, id string) (out domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "get", err, time.Since(start)) }(time.Now())

	var rec domain.Record
	if err := s.coll(kind).FindOne(ctx, idFilter(id)).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Record{}, domain.ErrNotFound
		}
		return domain.Record{}, err
	}
	return rec.ForKind(kind), nil
}

func (s *Store) List(ctx context.Context, kind domain.Kind) (out []domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "list", err, time.Since(start)) }(time.Now())

	cur, err := s.coll(kind).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	recs := []domain.Record{}
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i] = recs[i].ForKind(kind)
	}
	return recs, nil
}

func (s *Store) Replace(ctx context.Context, kind domain.Kind, id string, rec domain.Record) (out domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "replace", err, time.Since(start)) }(time.Now())

	rec = rec.ForKind(kind)
	// _id is immutable; the replacement body never carries one.
	rec.ID = ""
	if err := rec.Validate(kind); err != nil {
		return domain.Record{}, err
	}
	opts := options.FindOneAndReplace().SetReturnDocument(options.After)
	var updated domain.Record
	if err := s.coll(kind).FindOneAndReplace(ctx, idFilter(id), rec, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Record{}, domain.ErrNotFound
		}
		return domain.Record{}, err
	}
	return updated.ForKind(kind), nil
}
