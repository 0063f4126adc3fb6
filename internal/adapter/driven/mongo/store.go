// Package mongo implements the APIKeyStore port on MongoDB. Each API key is
// one document; balance changes are single-document conditional updates.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

const colAPIKeys = "apikeys"

// compile-time interface check
var _ driven.APIKeyStore = (*Store)(nil)

// collection is the subset of *mongo.Collection the store uses.
type collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	FindOneAndUpdate(ctx context.Context, filter, update any, opts ...options.Lister[options.FindOneAndUpdateOptions]) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	UpdateMany(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateManyOptions]) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error)
	Indexes() mongo.IndexView
}

var _ collection = (*mongo.Collection)(nil)

// Store implements driven.APIKeyStore using the official MongoDB driver.
type Store struct {
	client *mongo.Client
	keys   collection
}

// Connect dials uri and returns a Store over the given database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("creditgate/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("creditgate/mongo: ping: %w", err)
	}
	return New(client, database), nil
}

// New wraps an already connected client.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		keys:   client.Database(database).Collection(colAPIKeys),
	}
}

// Migrate creates the collection indexes.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.keys.Indexes().CreateMany(ctx, migrationIndexes())
	if err != nil {
		return fmt.Errorf("creditgate/mongo: migrate %s indexes: %w", colAPIKeys, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Create(ctx context.Context, key *model.APIKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	m := toAPIKeyModel(key)
	m.CreatedAt, m.UpdatedAt = now(), now()

	if _, err := s.keys.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("creditgate/mongo: create api key %s: %w", key.UUID, err)
	}
	return nil
}

func (s *Store) GetByKey(ctx context.Context, key string) (*model.APIKey, error) {
	var m apiKeyModel
	err := s.keys.FindOne(ctx, bson.M{"key": key}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("creditgate/mongo: get api key: %w", err)
	}
	return fromAPIKeyModel(&m), nil
}

func (s *Store) DeductCredits(ctx context.Context, uuid string, amount int64) (int64, bool, error) {
	var m apiKeyModel
	err := s.keys.FindOneAndUpdate(ctx,
		deductFilter(uuid, amount),
		incrementUpdate(-amount, now()),
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"credits": 1}),
	).Decode(&m)
	if err == nil {
		return m.Credits.Remaining, true, nil
	}
	if !isNoDocuments(err) {
		return 0, false, fmt.Errorf("creditgate/mongo: deduct credits from %s: %w", uuid, err)
	}

	// Either the record is missing or the balance is short.
	err = s.keys.FindOne(ctx, bson.M{"_id": uuid},
		options.FindOne().SetProjection(bson.M{"credits": 1}),
	).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return 0, false, fmt.Errorf("creditgate/mongo: deduct credits from %s: %w", uuid, driven.ErrKeyNotFound)
		}
		return 0, false, fmt.Errorf("creditgate/mongo: read credits of %s: %w", uuid, err)
	}
	return m.Credits.Remaining, false, nil
}

func (s *Store) AddCredits(ctx context.Context, uuid string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("creditgate/mongo: add credits: negative amount %d", amount)
	}

	var m apiKeyModel
	err := s.keys.FindOneAndUpdate(ctx,
		bson.M{"_id": uuid},
		incrementUpdate(amount, now()),
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"credits": 1}),
	).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return 0, fmt.Errorf("creditgate/mongo: add credits to %s: %w", uuid, driven.ErrKeyNotFound)
		}
		return 0, fmt.Errorf("creditgate/mongo: add credits to %s: %w", uuid, err)
	}
	return m.Credits.Remaining, nil
}

func (s *Store) RenewCredits(ctx context.Context) (int64, error) {
	res, err := s.keys.UpdateMany(ctx, renewFilter(), renewUpdate(now()))
	if err != nil {
		return 0, fmt.Errorf("creditgate/mongo: renew credits: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *Store) LinkAccount(ctx context.Context, uuid string, account model.LinkedAccount) error {
	if account.AccountID == "" {
		return fmt.Errorf("creditgate/mongo: link account to %s: empty account id", uuid)
	}

	res, err := s.keys.UpdateOne(ctx,
		linkFilter(uuid, account.AccountID),
		bson.M{
			"$push": bson.M{"credentials": toCredentialModel(account)},
			"$set":  bson.M{"updated_at": now()},
		},
	)
	if err != nil {
		return fmt.Errorf("creditgate/mongo: link account to %s: %w", uuid, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := s.keys.CountDocuments(ctx, bson.M{"_id": uuid})
	if err != nil {
		return fmt.Errorf("creditgate/mongo: link account to %s: %w", uuid, err)
	}
	if n == 0 {
		return fmt.Errorf("creditgate/mongo: link account to %s: %w", uuid, driven.ErrKeyNotFound)
	}
	return fmt.Errorf("creditgate/mongo: link account %q to %s: %w", account.AccountID, uuid, driven.ErrDuplicateAccount)
}

// deductFilter matches the record only while it can cover amount, making the
// check and the decrement one atomic document update.
func deductFilter(uuid string, amount int64) bson.M {
	return bson.M{
		"_id":               uuid,
		"credits.remaining": bson.M{"$gte": amount},
	}
}

func incrementUpdate(delta int64, at time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"credits.remaining": delta},
		"$set": bson.M{"updated_at": at},
	}
}

func renewFilter() bson.M {
	return bson.M{
		"$expr": bson.M{"$lt": bson.A{"$credits.remaining", "$credits.renewal"}},
	}
}

func renewUpdate(at time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "credits.remaining", Value: "$credits.renewal"},
			{Key: "updated_at", Value: at},
		}}},
	}
}

// linkFilter matches the record only if accountID is not linked yet.
func linkFilter(uuid, accountID string) bson.M {
	return bson.M{
		"_id":                   uuid,
		"credentials.accountId": bson.M{"$ne": accountID},
	}
}

func migrationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "customer_ids", Value: 1}}},
	}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func now() time.Time {
	return time.Now().UTC()
}
