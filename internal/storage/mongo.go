package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultMongoDatabase is used when the connection URI names no database.
const DefaultMongoDatabase = "brightminds"

// Collection names.
const (
	usersCollection    = "users"
	projectsCollection = "projects"
	feedbackCollection = "feedbacks"
)

// MongoStorage implements Storage on MongoDB.
type MongoStorage struct {
	uri            string
	connectTimeout time.Duration
	client         *mongo.Client
	db             *mongo.Database

	users    *mongoUserRepo
	projects *mongoProjectRepo
	feedback *mongoFeedbackRepo
}

// NewMongoStorage creates a new MongoDB storage for the given connection URI.
func NewMongoStorage(uri string) *MongoStorage {
	return &MongoStorage{
		uri:            uri,
		connectTimeout: 10 * time.Second,
	}
}

// Open connects to MongoDB and verifies the primary is reachable.
func (s *MongoStorage) Open() error {
	cs, err := connstring.ParseAndValidate(s.uri)
	if err != nil {
		return fmt.Errorf("parse mongo uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("ping mongo: %w", err)
	}

	s.client = client
	s.db = client.Database(dbName)

	s.users = &mongoUserRepo{coll: s.db.Collection(usersCollection)}
	s.projects = &mongoProjectRepo{coll: s.db.Collection(projectsCollection)}
	s.feedback = &mongoFeedbackRepo{coll: s.db.Collection(feedbackCollection)}

	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStorage) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Migrate creates the indexes the repositories depend on. Index creation is
// idempotent, so this is safe on every start.
func (s *MongoStorage) Migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("email_unique"),
			},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		projectsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "updatedAt", Value: -1}}},
		},
		feedbackCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "type", Value: 1}}},
		},
	}

	for coll, specs := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Ping verifies the primary is reachable.
func (s *MongoStorage) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("mongo not connected")
	}
	return s.client.Ping(ctx, readpref.Primary())
}

// Users returns the user repository.
func (s *MongoStorage) Users() UserRepository {
	return s.users
}

// Projects returns the project repository.
func (s *MongoStorage) Projects() ProjectRepository {
	return s.projects
}

// Feedback returns the feedback repository.
func (s *MongoStorage) Feedback() FeedbackRepository {
	return s.feedback
}

// pageOptions converts a Page into find options with the given sort.
func pageOptions(page Page, sort bson.D) *options.FindOptions {
	return options.Find().
		SetSort(sort).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit))
}
