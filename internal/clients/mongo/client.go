package mongo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"note-vault/internal/config"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	// ErrNotInitialized is returned by Shutdown when Init never succeeded.
	ErrNotInitialized = errors.New("mongo client not initialized")
	// ErrShutdown is returned by Shutdown once the client is already closed.
	ErrShutdown = errors.New("mongo client already shut down")
)

const (
	connectTimeout    = 10 * time.Second
	disconnectTimeout = 5 * time.Second
)

var (
	drv driver = mongoDriver{}

	client   *mongo.Client
	db       *mongo.Database
	initErr  error
	shutdown bool
	mu       sync.Mutex
)

// Init initializes the MongoDB connection (first successful call wins, thread-safe).
// A failed attempt leaves no client behind, so a later call retries.
func Init(ctx context.Context, cfg config.Config, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	mu.Lock()
	defer mu.Unlock()

	if client != nil && db != nil {
		return client, db, initErr
	}

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(connectTimeout).
		SetAppName("note-vault")

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	cli, err := drv.Connect(ctx, opts)
	if err != nil {
		log.Error("failed to connect to mongo", "error", err)
		return nil, nil, err
	}

	if err := drv.Ping(ctx, cli); err != nil {
		log.Error("failed to ping mongo", "error", err)
		_ = drv.Disconnect(ctx, cli)
		return nil, nil, err
	}

	client = cli
	db = cli.Database(cfg.MongoDBName)
	initErr = nil
	shutdown = false

	isReplicaSet.Store(detectReplicaSet(ctx, db))
	log.Info("successfully connected to mongo", "db", cfg.MongoDBName, "replica_set", IsReplicaSet())

	return client, db, nil
}

// Client returns the singleton MongoDB client instance.
func Client() *mongo.Client {
	mu.Lock()
	defer mu.Unlock()
	return client
}

// DB returns the singleton MongoDB database instance.
func DB() *mongo.Database {
	mu.Lock()
	defer mu.Unlock()
	return db
}

// Shutdown gracefully shuts down the MongoDB connection.
// Safe to call more than once.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if client == nil {
		if shutdown {
			return ErrShutdown
		}
		shutdown = true
		return ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, disconnectTimeout)
	defer cancel()

	err := drv.Disconnect(ctx, client)

	client = nil
	db = nil
	initErr = nil
	shutdown = true
	isReplicaSet.Store(false)

	return err
}

// detectReplicaSet asks the server for its hello document; only replica set
// members report a setName.
func detectReplicaSet(ctx context.Context, database *mongo.Database) bool {
	var hello bson.M
	if err := database.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false
	}
	_, ok := hello["setName"]
	return ok
}
