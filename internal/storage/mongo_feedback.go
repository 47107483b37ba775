package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

type mongoFeedbackRepo struct {
	coll *mongo.Collection
}

func (r *mongoFeedbackRepo) Create(ctx context.Context, fb *models.Feedback) error {
	if fb.ID.IsZero() {
		fb.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, fb); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (r *mongoFeedbackRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Feedback, error) {
	fb := &models.Feedback{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(fb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return fb, nil
}

func (r *mongoFeedbackRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.FeedbackStatus) (*models.Feedback, error) {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	fb := &models.Feedback{}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(fb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update feedback status: %w", err)
	}
	return fb, nil
}

func (r *mongoFeedbackRepo) List(ctx context.Context, filter FeedbackFilter, page Page) ([]*models.Feedback, int64, error) {
	query := bson.M{}
	if filter.User != nil {
		query["user"] = *filter.User
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	cur, err := r.coll.Find(ctx, query, pageOptions(page, sort))
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	items := make([]*models.Feedback, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode feedback: %w", err)
	}
	return items, total, nil
}
