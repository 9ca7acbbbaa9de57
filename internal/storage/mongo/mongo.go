package mongo

import (
	"context"
	"errors"
	"fmt"

	"cineflix/proj/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type document struct {
	Key     string `bson:"_id"`
	Value   []byte `bson:"value"`
	Version int64  `bson:"version"`
}

// Store keeps one MongoDB document per record store key.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func New(ctx context.Context, uri, database, collection string) (*Store, error) {
	const op = "storage.mongo.New"
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, storage.Unavailable(op, err)
	}
	return &Store{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) (storage.Item, error) {
	const op = "storage.mongo.Get"
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return storage.Item{}, storage.ErrNotFound
		}
		return storage.Item{}, storage.Unavailable(op, err)
	}
	return storage.Item{Value: doc.Value, Version: doc.Version}, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	const op = "storage.mongo.Set"
	if expected == 0 {
		_, err := s.collection.InsertOne(ctx, document{Key: key, Value: value, Version: 1})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return 0, storage.ErrConflict
			}
			return 0, storage.Unavailable(op, err)
		}
		return 1, nil
	}

	filter := bson.M{"_id": key}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if expected == storage.AnyVersion {
		opts.SetUpsert(true)
	} else {
		filter["version"] = expected
	}
	update := bson.M{
		"$set": bson.M{"value": value},
		"$inc": bson.M{"version": int64(1)},
	}
	var doc document
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) || mongo.IsDuplicateKeyError(err) {
			return 0, storage.ErrConflict
		}
		return 0, storage.Unavailable(op, err)
	}
	return doc.Version, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "storage.mongo.Delete"
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return storage.Unavailable(op, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}
