package repository

import (
	"context"
	"time"
)

// PaymentTransaction is the processed-webhook ledger entry. The transaction
// ID is unique across the collection, which is what makes webhook handling
// idempotent under at-least-once delivery.
type PaymentTransaction struct {
	TransactionID string    `bson:"_id"`
	ListingID     string    `bson:"listing_id"`
	CustomerEmail string    `bson:"customer_email,omitempty"`
	Renewal       bool      `bson:"renewal"`
	ProcessedAt   time.Time `bson:"processed_at"`
}

type PaymentTransactionRepository interface {
	// Record returns ErrAlreadyExists when the transaction ID was already
	// processed.
	Record(ctx context.Context, tx PaymentTransaction) error
	// Remove compensates a recorded transaction whose listing transition
	// failed, so a redelivered webhook can retry.
	Remove(ctx context.Context, transactionID string) error
}
