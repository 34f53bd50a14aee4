package mongo

import (
	"context"
	"errors"
	"fmt"

	"note-vault/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const idField = "_id"

// DocStore implements store.Store on top of MongoDB collections. Document ids
// are stored as strings in _id; generated ids are ObjectID hex strings.
type DocStore struct {
	db *mongo.Database
}

// NewDocStore creates a document store bound to db.
func NewDocStore(db *mongo.Database) *DocStore {
	return &DocStore{db: db}
}

// Ping implements store.Pinger.
func (s *DocStore) Ping(ctx context.Context) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// List implements store.Store. Documents come back in insertion order.
func (s *DocStore) List(ctx context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	query, err := toQuery(filters)
	if err != nil {
		return nil, err
	}

	cur, err := s.db.Collection(collection).Find(ctx, query, options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}

	out := make([]store.Document, 0, len(raw))
	for _, m := range raw {
		out = append(out, toDocument(m))
	}
	return out, nil
}

// Get implements store.Store.
func (s *DocStore) Get(ctx context.Context, collection, id string) (store.Document, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	var m bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{idField: id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Document{}, store.ErrNotFound
		}
		return store.Document{}, fmt.Errorf("find %s/%s: %w", collection, id, err)
	}
	return toDocument(m), nil
}

// Create implements store.Store.
func (s *DocStore) Create(ctx context.Context, collection, id string, fields store.Fields) (store.Document, error) {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	if id == "" {
		id = bson.NewObjectID().Hex()
	}

	doc := bson.M{idField: id}
	for k, v := range fields {
		doc[k] = v
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.Document{}, store.ErrDuplicateID
		}
		return store.Document{}, fmt.Errorf("insert %s: %w", collection, err)
	}
	return store.Document{ID: id, Fields: copyFields(fields)}, nil
}

// Update implements store.Store.
func (s *DocStore) Update(ctx context.Context, collection, id string, fields store.Fields) (store.Document, error) {
	if len(fields) == 0 {
		return s.Get(ctx, collection, id)
	}

	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}

	var m bson.M
	err := s.db.Collection(collection).FindOneAndUpdate(
		ctx,
		bson.M{idField: id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Document{}, store.ErrNotFound
		}
		return store.Document{}, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return toDocument(m), nil
}

// Delete implements store.Store.
func (s *DocStore) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{idField: id})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// toQuery translates store filters into a Mongo query document. Several
// filters are combined with $and.
func toQuery(filters []store.Filter) (bson.M, error) {
	if len(filters) == 0 {
		return bson.M{}, nil
	}

	clauses := make(bson.A, 0, len(filters))
	for _, f := range filters {
		field := f.Field
		if field == "id" {
			field = idField
		}

		switch f.Op {
		case store.OpEqual:
			clauses = append(clauses, bson.M{field: f.Value})
		case store.OpIsNull:
			// matches both explicit nulls and missing fields
			clauses = append(clauses, bson.M{field: nil})
		case store.OpGreaterThan:
			clauses = append(clauses, bson.M{field: bson.M{"$gt": f.Value}})
		default:
			return nil, fmt.Errorf("unsupported filter %s", f)
		}
	}

	if len(clauses) == 1 {
		return clauses[0].(bson.M), nil
	}
	return bson.M{"$and": clauses}, nil
}

func toDocument(m bson.M) store.Document {
	id, _ := m[idField].(string)
	if oid, ok := m[idField].(bson.ObjectID); ok {
		id = oid.Hex()
	}

	fields := make(store.Fields, len(m))
	for k, v := range m {
		if k == idField {
			continue
		}
		fields[k] = fromBSON(v)
	}
	return store.Document{ID: id, Fields: fields}
}

// fromBSON unwraps driver container types into plain Go values.
func fromBSON(v any) any {
	switch t := v.(type) {
	case bson.A:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = fromBSON(item)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = fromBSON(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	default:
		return v
	}
}

func copyFields(in store.Fields) store.Fields {
	out := make(store.Fields, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
