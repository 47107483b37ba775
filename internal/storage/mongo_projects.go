package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

type mongoProjectRepo struct {
	coll *mongo.Collection
}

func (r *mongoProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, project); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *mongoProjectRepo) GetForOwner(ctx context.Context, id, owner primitive.ObjectID) (*models.Project, error) {
	project := &models.Project{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "user": owner}).Decode(project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

func (r *mongoProjectRepo) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]*models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"user": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]*models.Project, 0)
	if err := cur.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return projects, nil
}

func (r *mongoProjectRepo) Update(ctx context.Context, project *models.Project) (bool, error) {
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": project.ID, "user": project.User}, project)
	if err != nil {
		return false, fmt.Errorf("update project: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *mongoProjectRepo) Delete(ctx context.Context, id, owner primitive.ObjectID) (bool, error) {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "user": owner})
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	return result.DeletedCount > 0, nil
}
