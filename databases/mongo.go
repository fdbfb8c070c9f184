package databases

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check that MongoStore satisfies Store.
var _ Store = (*MongoStore)(nil)

// MongoStore is the Store backed by a mongo database. Transactions need a
// replica set deployment.
type MongoStore struct {
	db DatabaseHelper
}

type counter struct {
	Name  string `bson:"_id"`
	Value int64  `bson:"value"`
}

// NewMongoStore initializes a new store with the provided db connection
func NewMongoStore(db DatabaseHelper) *MongoStore {
	return &MongoStore{db: db}
}

// FindByID decodes the document with the given id into out
func (s *MongoStore) FindByID(ctx context.Context, collection string, id interface{}, out interface{}) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return errors.Wrapf(err, "failed to find %s document", collection)
}

// FindAll decodes every document of the collection into out
func (s *MongoStore) FindAll(ctx context.Context, collection string, out interface{}) error {
	cr, err := s.db.Collection(collection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return errors.Wrapf(err, "failed to find %s documents", collection)
	}
	return errors.Wrapf(cr.Decode(out), "failed to decode %s documents", collection)
}

// FindWhere decodes the documents matching every field of filter into out
func (s *MongoStore) FindWhere(ctx context.Context, collection string, filter map[string]string, out interface{}) error {
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}
	cr, err := s.db.Collection(collection).Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return errors.Wrapf(err, "failed to find %s documents", collection)
	}
	return errors.Wrapf(cr.Decode(out), "failed to decode %s documents", collection)
}

// Save inserts or replaces the document with the given id
func (s *MongoStore) Save(ctx context.Context, collection string, id interface{}, doc interface{}) error {
	err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "failed to save %s document", collection)
}

// NextSequence increments and returns the named counter
func (s *MongoStore) NextSequence(ctx context.Context, name string) (int64, error) {
	var c counter
	err := s.db.Collection(CounterCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to allocate sequence %s", name)
	}
	return c.Value, nil
}

// WithTransaction runs fn inside a client session transaction
func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return errors.Wrap(err, "failed to start session")
	}
	defer session.EndSession(ctx)

	return session.WithTransaction(ctx, func(sc context.Context) error {
		return fn(sc, s)
	})
}
