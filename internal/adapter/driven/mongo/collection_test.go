package mongo

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// fakeCollection evaluates the balance and link filters the store issues
// against in-memory documents. Methods the store tests do not reach panic
// through the nil embedded interface.
type fakeCollection struct {
	collection

	mu       sync.Mutex
	balances map[string]int64
	accounts map[string][]string
	err      error

	findOneCalls int
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{
		balances: map[string]int64{},
		accounts: map[string][]string{},
	}
}

func creditsDoc(remaining int64) bson.M {
	return bson.M{"_id": "", "credits": bson.M{"remaining": remaining}}
}

func noDocument() *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(bson.M{}, mongo.ErrNoDocuments, nil)
}

func (f *fakeCollection) FindOneAndUpdate(
	_ context.Context, filter, update any, _ ...options.Lister[options.FindOneAndUpdateOptions],
) *mongo.SingleResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return mongo.NewSingleResultFromDocument(bson.M{}, f.err, nil)
	}

	fm := filter.(bson.M)
	id := fm["_id"].(string)
	remaining, ok := f.balances[id]
	if !ok {
		return noDocument()
	}
	if cond, ok := fm["credits.remaining"].(bson.M); ok && remaining < cond["$gte"].(int64) {
		return noDocument()
	}

	inc := update.(bson.M)["$inc"].(bson.M)["credits.remaining"].(int64)
	f.balances[id] = remaining + inc
	return mongo.NewSingleResultFromDocument(creditsDoc(f.balances[id]), nil, nil)
}

func (f *fakeCollection) FindOne(_ context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.findOneCalls++
	remaining, ok := f.balances[filter.(bson.M)["_id"].(string)]
	if !ok {
		return noDocument()
	}
	return mongo.NewSingleResultFromDocument(creditsDoc(remaining), nil, nil)
}

func (f *fakeCollection) UpdateOne(
	_ context.Context, filter, _ any, _ ...options.Lister[options.UpdateOneOptions],
) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fm := filter.(bson.M)
	id := fm["_id"].(string)
	if _, ok := f.balances[id]; !ok {
		return &mongo.UpdateResult{}, nil
	}
	accountID := fm["credentials.accountId"].(bson.M)["$ne"].(string)
	for _, linked := range f.accounts[id] {
		if linked == accountID {
			return &mongo.UpdateResult{}, nil
		}
	}
	f.accounts[id] = append(f.accounts[id], accountID)
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeCollection) CountDocuments(_ context.Context, filter any, _ ...options.Lister[options.CountOptions]) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.balances[filter.(bson.M)["_id"].(string)]; ok {
		return 1, nil
	}
	return 0, nil
}
