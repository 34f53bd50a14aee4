package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collections names the collections the indexes are created on.
type Collections struct {
	Notes string
	Tags  string
	Users string
}

// EnsureIndexes creates the indexes backing the note, tag and user queries.
// Existing indexes are left untouched.
func EnsureIndexes(ctx context.Context, db *mongo.Database, c Collections) error {
	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		c.Notes: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "deletedAt", Value: 1}}},
			{Keys: bson.D{{Key: "reminderAt", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		c.Tags: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		c.Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range specs {
		if coll == "" {
			continue
		}
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
