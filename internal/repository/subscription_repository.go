package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"edupanel/internal/database"
	"edupanel/internal/models"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepository struct {
	coll *mongo.Collection
}

func NewSubscriptionRepository(db *database.Mongo) *SubscriptionRepository {
	return &SubscriptionRepository{coll: db.Collection(database.SubscriptionCollection)}
}

func (r *SubscriptionRepository) Get(ctx context.Context) (models.Subscription, error) {
	var sub models.Subscription
	if err := r.coll.FindOne(ctx, bson.M{}).Decode(&sub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Subscription{}, ErrSubscriptionNotFound
		}
		return models.Subscription{}, fmt.Errorf("find subscription: %w", err)
	}
	return sub, nil
}

func (r *SubscriptionRepository) Deactivate(ctx context.Context) error {
	if _, err := r.coll.UpdateOne(ctx, bson.M{}, bson.M{"$set": bson.M{"active": false}}); err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}
	return nil
}

// ExpireIfDue flips an active subscription whose expiration has passed.
func (r *SubscriptionRepository) ExpireIfDue(ctx context.Context, now time.Time) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"active": true, "expiration": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return false, fmt.Errorf("expire subscription: %w", err)
	}
	return res.ModifiedCount > 0, nil
}
