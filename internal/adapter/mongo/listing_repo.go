package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leahpeker/vedgyproject/internal/app/config"
	"github.com/leahpeker/vedgyproject/internal/domain/entity"
	"github.com/leahpeker/vedgyproject/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const listingCollectionName = "listings"

type listingRepository struct {
	collection *mongo.Collection
}

func NewListingRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.ListingRepository {
	return &listingRepository{
		collection: client.Database(cfg.Database).Collection(listingCollectionName),
	}
}

func (r *listingRepository) Create(ctx context.Context, listing *entity.Listing) (string, error) {
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	if _, err := r.collection.InsertOne(ctx, listing); err != nil {
		return "", fmt.Errorf("failed to create listing: %w", err)
	}
	return listing.ID, nil
}

func (r *listingRepository) GetByID(ctx context.Context, listingID string) (*entity.Listing, error) {
	var listing entity.Listing
	err := r.collection.FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing by ID %s: %w", listingID, err)
	}
	return &listing, nil
}

func (r *listingRepository) UpdateDetails(ctx context.Context, params repository.UpdateDetailsParams) error {
	filter := bson.M{
		"_id":     params.ListingID,
		"status":  entity.StatusDraft,
		"version": params.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"title":          params.Details.Title,
			"description":    params.Details.Description,
			"city":           params.Details.City,
			"neighborhood":   params.Details.Neighborhood,
			"rental_type":    params.Details.RentalType,
			"room_type":      params.Details.RoomType,
			"price":          params.Details.Price,
			"furnished":      params.Details.Furnished,
			"available_from": params.Details.AvailableFrom,
			"contact_email":  params.Details.ContactEmail,
			"updated_at":     time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update listing details for ID %s: %w", params.ListingID, err)
	}
	if result.MatchedCount == 0 {
		return r.diagnoseMiss(ctx, params.ListingID, params.Version)
	}
	return nil
}

func (r *listingRepository) Transition(ctx context.Context, params repository.TransitionParams) error {
	filter := bson.M{
		"_id":     params.ListingID,
		"status":  params.From,
		"version": params.Version,
	}
	set := bson.M{
		"status":     params.To,
		"updated_at": time.Now().UTC(),
	}
	if params.Activation != nil {
		set["paid_at"] = params.Activation.PaidAt
		set["expires_at"] = params.Activation.ExpiresAt
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to transition listing %s to %s: %w", params.ListingID, params.To, err)
	}
	if result.MatchedCount == 0 {
		return r.diagnoseMiss(ctx, params.ListingID, params.Version)
	}
	return nil
}

func (r *listingRepository) Delete(ctx context.Context, listingID string, allowed []entity.ListingStatus) (*entity.Listing, error) {
	filter := bson.M{
		"_id":    listingID,
		"status": bson.M{"$in": allowed},
	}

	var listing entity.Listing
	err := r.collection.FindOneAndDelete(ctx, filter).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, errFind := r.GetByID(ctx, listingID); errors.Is(errFind, repository.ErrNotFound) {
				return nil, repository.ErrNotFound
			}
			return nil, repository.ErrDeleteFailed
		}
		return nil, fmt.Errorf("failed to delete listing %s: %w", listingID, err)
	}
	return &listing, nil
}

func (r *listingRepository) AddPhoto(ctx context.Context, params repository.AddPhotoParams) error {
	filter := bson.M{
		"_id":    params.ListingID,
		"status": entity.StatusDraft,
	}
	if params.RequireEmpty {
		filter["photos"] = bson.M{"$size": 0}
	} else {
		filter["$expr"] = bson.M{"$lt": bson.A{bson.M{"$size": "$photos"}, params.MaxPhotos}}
	}

	update := bson.M{
		"$push": bson.M{"photos": params.Photo},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
		"$inc":  bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add photo to listing %s: %w", params.ListingID, err)
	}
	if result.MatchedCount == 0 {
		if _, errFind := r.GetByID(ctx, params.ListingID); errors.Is(errFind, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return repository.ErrUpdateFailed
	}
	return nil
}

func (r *listingRepository) RemovePhoto(ctx context.Context, listingID, photoID string) error {
	filter := bson.M{
		"_id":       listingID,
		"status":    entity.StatusDraft,
		"photos.id": photoID,
	}
	update := bson.M{
		"$pull": bson.M{"photos": bson.M{"id": photoID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
		"$inc":  bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove photo %s from listing %s: %w", photoID, listingID, err)
	}
	if result.MatchedCount == 0 {
		if _, errFind := r.GetByID(ctx, listingID); errors.Is(errFind, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return repository.ErrUpdateFailed
	}
	return nil
}

func (r *listingRepository) ListByUser(ctx context.Context, userID string) ([]entity.Listing, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list listings for user %s: %v", repository.ErrQueryFailed, userID, err)
	}
	defer cursor.Close(ctx)

	var listings []entity.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("%w: failed to decode listings for user %s: %v", repository.ErrQueryFailed, userID, err)
	}
	return listings, nil
}

func (r *listingRepository) ListByStatus(ctx context.Context, status entity.ListingStatus) ([]entity.Listing, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list listings with status %s: %v", repository.ErrQueryFailed, status, err)
	}
	defer cursor.Close(ctx)

	var listings []entity.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("%w: failed to decode listings with status %s: %v", repository.ErrQueryFailed, status, err)
	}
	return listings, nil
}

func (r *listingRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"status":     entity.StatusActive,
		"expires_at": bson.M{"$lte": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     entity.StatusExpired,
			"updated_at": now.UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue listings: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *listingRepository) diagnoseMiss(ctx context.Context, listingID string, version int) error {
	var existing entity.Listing
	errFind := r.collection.FindOne(ctx, bson.M{"_id": listingID}).Decode(&existing)
	if errors.Is(errFind, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if errFind == nil && existing.Version != version {
		return repository.ErrOptimisticLock
	}
	return repository.ErrUpdateFailed
}
