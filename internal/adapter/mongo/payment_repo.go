package mongo

import (
	"context"
	"fmt"

	"github.com/leahpeker/vedgyproject/internal/app/config"
	"github.com/leahpeker/vedgyproject/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const paymentCollectionName = "payment_transactions"

type paymentTransactionRepository struct {
	collection *mongo.Collection
}

func NewPaymentTransactionRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.PaymentTransactionRepository {
	return &paymentTransactionRepository{
		collection: client.Database(cfg.Database).Collection(paymentCollectionName),
	}
}

// Record relies on the _id being the transaction ID: a duplicate insert is
// how a webhook replay is detected.
func (r *paymentTransactionRepository) Record(ctx context.Context, tx repository.PaymentTransaction) error {
	_, err := r.collection.InsertOne(ctx, tx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to record payment transaction %s: %w", tx.TransactionID, err)
	}
	return nil
}

func (r *paymentTransactionRepository) Remove(ctx context.Context, transactionID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": transactionID})
	if err != nil {
		return fmt.Errorf("failed to remove payment transaction %s: %w", transactionID, err)
	}
	return nil
}
