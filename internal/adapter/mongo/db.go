package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/leahpeker/vedgyproject/internal/app/config"
	"github.com/leahpeker/vedgyproject/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
)

func NewClient(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.User != "" {
		opts.SetAuth(options.Credential{
			Username: cfg.User,
			Password: cfg.Password,
		})
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to MongoDB: %v", repository.ErrConnectionFailed, err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, pingTimeout)
	defer cancelPing()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("%w: failed to ping MongoDB: %v", repository.ErrConnectionFailed, err)
	}

	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on: the sweep
// scans active listings by expiry, and listing reads fan out by owner and
// by status.
func EnsureIndexes(ctx context.Context, client *mongo.Client, cfg config.MongoDBConfig) error {
	db := client.Database(cfg.Database)

	listingIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection(listingCollectionName).Indexes().CreateMany(ctx, listingIndexes); err != nil {
		return fmt.Errorf("failed to create listing indexes: %w", err)
	}

	return nil
}
